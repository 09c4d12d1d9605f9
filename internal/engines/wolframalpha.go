package engines

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"casservice/internal/engine"
	"casservice/internal/guard"
)

const wolframAPIURL = "https://api.wolframalpha.com/v2/query"

var wolframTemplates = map[string]engine.Template{
	"evaluate": {
		RequiredInputs: []string{"expression"},
		Description:    "Evaluate a mathematical expression",
		Generate: func(inputs map[string]string) string {
			return inputs["expression"]
		},
	},
	"solve": {
		RequiredInputs: []string{"equation"},
		Description:    "Solve an equation",
		Generate: func(inputs map[string]string) string {
			return "solve " + inputs["equation"]
		},
	},
	"simplify": {
		RequiredInputs: []string{"expression"},
		Description:    "Simplify a mathematical expression",
		Generate: func(inputs map[string]string) string {
			return "simplify " + inputs["expression"]
		},
	},
}

// waResponse mirrors the subset of the Full Results API JSON we consume.
type waResponse struct {
	QueryResult struct {
		Success bool            `json:"success"`
		Tips    json.RawMessage `json:"tips"`
		Pods    []struct {
			ID      string `json:"id"`
			Subpods []struct {
				Plaintext string `json:"plaintext"`
			} `json:"subpods"`
		} `json:"pods"`
	} `json:"queryresult"`
}

// WolframAlpha is the optional remote compute oracle backed by the
// WolframAlpha Full Results API. It takes no part in validation consensus.
type WolframAlpha struct {
	engine.Base
	appID   string
	timeout time.Duration
	client  *http.Client
	baseURL string
	rules   guard.Rules
}

// NewWolframAlpha creates the WolframAlpha engine. An empty appID falls
// back to CAS_WOLFRAMALPHA_APPID; with neither set the engine reports
// unavailable.
func NewWolframAlpha(appID string, timeout time.Duration) *WolframAlpha {
	if appID == "" {
		appID = os.Getenv("CAS_WOLFRAMALPHA_APPID")
	}
	return &WolframAlpha{
		Base:    engine.Base{EngineName: "wolframalpha"},
		appID:   appID,
		timeout: timeout,
		client:  &http.Client{},
		baseURL: wolframAPIURL,
		// Inputs end up URL-encoded in a query string, so only length
		// and NUL bytes are worth rejecting locally.
		rules: guard.Rules{MaxLen: 2000},
	}
}

func (w *WolframAlpha) Capabilities() []engine.Capability {
	return []engine.Capability{engine.CapabilityCompute, engine.CapabilityRemote}
}

func (w *WolframAlpha) IsAvailable() bool { return w.appID != "" }

func (w *WolframAlpha) Version() string { return "v2-api" }

func (w *WolframAlpha) AvailabilityReason() string {
	if w.appID == "" {
		return "missing CAS_WOLFRAMALPHA_APPID"
	}
	return ""
}

func (w *WolframAlpha) Templates() map[string]engine.Template { return wolframTemplates }

func (w *WolframAlpha) Compute(req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !w.IsAvailable() {
		return engine.Unavailable(w.Name(), "WolframAlpha API key not configured", start)
	}

	tmpl, reject := engine.CheckTemplate(w.Name(), wolframTemplates, w.rules, req, start)
	if reject != nil {
		return *reject
	}

	return w.callAPI(tmpl.Generate(req.Inputs), req.Timeout(w.timeout), start)
}

func (w *WolframAlpha) callAPI(query string, timeout time.Duration, start time.Time) engine.ComputeResult {
	params := url.Values{
		"input":  {query},
		"appid":  {w.appID},
		"format": {"plaintext"},
		"output": {"json"},
	}

	client := *w.client
	client.Timeout = timeout

	resp, err := client.Get(w.baseURL + "?" + params.Encode())
	if err != nil {
		elapsed := time.Since(start).Milliseconds()
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return engine.ComputeResult{
				Engine:    w.Name(),
				Success:   false,
				TimeMs:    elapsed,
				Error:     fmt.Sprintf("WolframAlpha timed out after %s", timeout),
				ErrorCode: engine.ErrTimeout,
			}
		}
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("Network error: %v", err),
			ErrorCode: engine.ErrNetworkError,
		}
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Milliseconds()

	if resp.StatusCode == http.StatusForbidden {
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     "WolframAlpha API: invalid or expired AppID",
			ErrorCode: engine.ErrAuthError,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("WolframAlpha API HTTP %d", resp.StatusCode),
			ErrorCode: engine.ErrRemoteError,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    time.Since(start).Milliseconds(),
			Error:     fmt.Sprintf("Network error: %v", err),
			ErrorCode: engine.ErrNetworkError,
		}
	}

	var data waResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    time.Since(start).Milliseconds(),
			Error:     fmt.Sprintf("malformed API response: %v", err),
			ErrorCode: engine.ErrRemoteError,
		}
	}

	return w.parseResponse(data, time.Since(start).Milliseconds())
}

func (w *WolframAlpha) parseResponse(data waResponse, elapsed int64) engine.ComputeResult {
	qr := data.QueryResult

	if !qr.Success {
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     "WolframAlpha could not interpret the query",
			ErrorCode: engine.ErrQueryFailed,
			Stdout:    string(qr.Tips),
		}
	}

	// The first priority pod with subpods wins even when its plaintext is
	// empty; the fallback scan below covers the empty case.
	var resultText string
priority:
	for _, pod := range qr.Pods {
		switch pod.ID {
		case "Result", "DecimalApproximation", "Solution":
			if len(pod.Subpods) > 0 {
				resultText = pod.Subpods[0].Plaintext
				break priority
			}
		}
	}
	if resultText == "" {
		for _, pod := range qr.Pods {
			if pod.ID == "Input" {
				continue
			}
			if len(pod.Subpods) > 0 && pod.Subpods[0].Plaintext != "" {
				resultText = pod.Subpods[0].Plaintext
				break
			}
		}
	}

	if resultText == "" {
		return engine.ComputeResult{
			Engine:    w.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     "No result found in WolframAlpha response",
			ErrorCode: engine.ErrNoResult,
		}
	}

	return engine.ComputeResult{
		Engine:  w.Name(),
		Success: true,
		TimeMs:  elapsed,
		Result:  map[string]string{"value": resultText},
		Stdout:  resultText,
	}
}
