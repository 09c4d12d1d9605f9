package engine

import "time"

// Capability is an engine capability marker.
type Capability string

const (
	// CapabilityValidate marks engines that can validate LaTeX formulas.
	CapabilityValidate Capability = "validate"
	// CapabilityCompute marks engines that execute compute templates.
	CapabilityCompute Capability = "compute"
	// CapabilityRemote marks engines backed by a remote API rather than a
	// local binary.
	CapabilityRemote Capability = "remote"
)

// Engine is the uniform contract every CAS back-end satisfies. Engines must
// be safe for concurrent Validate/Compute calls; the canonical strategy is
// shared-nothing, with each call spawning its own subprocess or HTTP
// request.
type Engine interface {
	// Name returns the unique engine identifier (ASCII word).
	Name() string
	// Capabilities returns the subset of capabilities this engine supports.
	Capabilities() []Capability
	// IsAvailable probes whether the engine can serve requests. The probe
	// may perform cheap I/O (binary lookup); the result is cached after the
	// first success.
	IsAvailable() bool
	// Version returns the engine version string.
	Version() string
	// AvailabilityReason explains why the engine is unavailable; empty when
	// available.
	AvailabilityReason() string
	// Validate checks a preprocessed LaTeX formula.
	Validate(latex string) Result
	// Compute executes a template-driven compute request.
	Compute(req ComputeRequest) ComputeResult
	// Templates returns this engine's template table, keyed by name.
	Templates() map[string]Template
}

// Result is the outcome of a single engine validation.
type Result struct {
	Engine         string `json:"engine"`
	Success        bool   `json:"success"`
	IsValid        *bool  `json:"is_valid"`
	Simplified     string `json:"simplified,omitempty"`
	OriginalParsed string `json:"original_parsed,omitempty"`
	Error          string `json:"error,omitempty"`
	TimeMs         int64  `json:"time_ms"`
}

// ComputeRequest is a structured compute request for capability-based
// engines. TaskType is always the literal "template".
type ComputeRequest struct {
	Engine   string            `json:"engine"`
	TaskType string            `json:"task_type"`
	Template string            `json:"template"`
	Inputs   map[string]string `json:"inputs"`
	TimeoutS float64           `json:"timeout_s"`
}

// Timeout converts the requested timeout to a duration, clamped to the
// engine's configured maximum. Non-positive requests fall back to max.
func (r ComputeRequest) Timeout(max time.Duration) time.Duration {
	if r.TimeoutS <= 0 {
		return max
	}
	requested := time.Duration(r.TimeoutS * float64(time.Second))
	if requested > max {
		return max
	}
	return requested
}

// ComputeResult is the outcome of a CAS compute operation. Engine-plane
// failures are carried in Error/ErrorCode with Success false; they are
// returned to the client with HTTP 200.
type ComputeResult struct {
	Engine    string            `json:"engine"`
	Success   bool              `json:"success"`
	TimeMs    int64             `json:"time_ms"`
	Result    map[string]string `json:"result"`
	Stdout    string            `json:"stdout"`
	Stderr    string            `json:"stderr"`
	Error     string            `json:"error,omitempty"`
	ErrorCode string            `json:"error_code,omitempty"`
}

// Engine-plane error codes.
const (
	ErrUnknownTemplate   = "UNKNOWN_TEMPLATE"
	ErrMissingInput      = "MISSING_INPUT"
	ErrInvalidInput      = "INVALID_INPUT"
	ErrTimeout           = "TIMEOUT"
	ErrEngineError       = "ENGINE_ERROR"
	ErrEngineUnavailable = "ENGINE_UNAVAILABLE"
	ErrAuthError         = "AUTH_ERROR"
	ErrRemoteError       = "REMOTE_ERROR"
	ErrNetworkError      = "NETWORK_ERROR"
	ErrQueryFailed       = "QUERY_FAILED"
	ErrNoResult          = "NO_RESULT"
	ErrNotImplemented    = "NOT_IMPLEMENTED"
)

// Bool returns a pointer to b, for the three-valued Result.IsValid.
func Bool(b bool) *bool {
	return &b
}
