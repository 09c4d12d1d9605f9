package engines

import (
	"fmt"
	"strings"
	"time"

	"casservice/internal/engine"
	"casservice/internal/executor"
	"casservice/internal/guard"
)

var gapTemplates = map[string]engine.Template{
	"group_order": {
		RequiredInputs: []string{"group_expr"},
		Description:    "Compute the order (size) of a group",
		Generate: func(inputs map[string]string) string {
			return fmt.Sprintf("Print(Size(%s));;\n", inputs["group_expr"])
		},
	},
	"is_abelian": {
		RequiredInputs: []string{"group_expr"},
		Description:    "Check if a group is abelian",
		Generate: func(inputs map[string]string) string {
			return fmt.Sprintf("Print(IsAbelian(%s));;\n", inputs["group_expr"])
		},
	},
	"center_size": {
		RequiredInputs: []string{"group_expr"},
		Description:    "Compute the size of the center of a group",
		Generate: func(inputs map[string]string) string {
			return fmt.Sprintf("Print(Size(Center(%s)));;\n", inputs["group_expr"])
		},
	},
}

// Gap runs computational group theory templates through a GAP subprocess.
// Compute-only: GAP has no LaTeX parser, so validate stays unsupported.
type Gap struct {
	engine.Base
	path    string
	timeout time.Duration
	exec    *executor.Executor
	probe   *binaryProbe
	rules   guard.Rules
}

// NewGap creates the GAP engine.
func NewGap(path string, timeout time.Duration, exec *executor.Executor) *Gap {
	g := &Gap{
		Base:    engine.Base{EngineName: "gap"},
		path:    path,
		timeout: timeout,
		exec:    exec,
		rules:   guard.GAP(),
	}
	g.probe = newBinaryProbe(path, g.detectVersion)
	return g
}

func (g *Gap) Capabilities() []engine.Capability {
	return []engine.Capability{engine.CapabilityCompute}
}

func (g *Gap) IsAvailable() bool { return g.probe.Available() }

func (g *Gap) Version() string { return g.probe.Version() }

func (g *Gap) AvailabilityReason() string { return g.probe.Reason() }

func (g *Gap) Templates() map[string]engine.Template { return gapTemplates }

func (g *Gap) Compute(req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !g.IsAvailable() {
		return engine.Unavailable(g.Name(), "GAP binary not found", start)
	}

	tmpl, reject := engine.CheckTemplate(g.Name(), gapTemplates, g.rules, req, start)
	if reject != nil {
		return *reject
	}

	timeout := req.Timeout(g.timeout)
	outcome := g.exec.Run(executor.RunSpec{
		Command: []string{g.path, "-q", "-b"},
		Input:   tmpl.Generate(req.Inputs),
		Timeout: timeout,
	})

	elapsed := time.Since(start).Milliseconds()

	if outcome.TimedOut {
		return engine.ComputeResult{
			Engine:    g.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("GAP timed out after %s", timeout),
			ErrorCode: engine.ErrTimeout,
		}
	}
	if outcome.ReturnCode != 0 {
		return engine.ComputeResult{
			Engine:    g.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Stdout:    outcome.Stdout,
			Stderr:    outcome.Stderr,
			Error:     fmt.Sprintf("GAP exited with code %d", outcome.ReturnCode),
			ErrorCode: engine.ErrEngineError,
		}
	}

	return engine.ComputeResult{
		Engine:  g.Name(),
		Success: true,
		TimeMs:  elapsed,
		Result:  map[string]string{"value": strings.TrimSpace(outcome.Stdout)},
		Stdout:  outcome.Stdout,
		Stderr:  outcome.Stderr,
	}
}

func (g *Gap) detectVersion() string {
	outcome := g.exec.Run(executor.RunSpec{
		Command: []string{g.path, "-q", "-b"},
		Input:   "Print(GAPInfo.Version);;\n",
		Timeout: 5 * time.Second,
	})
	if outcome.ReturnCode != 0 || strings.TrimSpace(outcome.Stdout) == "" {
		return "unknown"
	}
	return strings.TrimSpace(outcome.Stdout)
}
