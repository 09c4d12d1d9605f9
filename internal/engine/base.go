package engine

import "fmt"

// Base provides the default fall-throughs of the engine contract. Concrete
// engines embed it and override the operations their capability set
// includes; everything else returns a uniform NOT_IMPLEMENTED.
type Base struct {
	EngineName string
}

func (b Base) Name() string { return b.EngineName }

func (b Base) Capabilities() []Capability { return []Capability{CapabilityValidate} }

func (b Base) IsAvailable() bool { return true }

func (b Base) Version() string { return "unknown" }

func (b Base) AvailabilityReason() string { return "" }

// Validate rejects validation for engines lacking the validate capability.
func (b Base) Validate(latex string) Result {
	return Result{
		Engine:  b.EngineName,
		Success: false,
		Error:   fmt.Sprintf("Engine '%s' does not support validate", b.EngineName),
	}
}

// Compute rejects compute for engines lacking the compute capability.
func (b Base) Compute(req ComputeRequest) ComputeResult {
	return ComputeResult{
		Engine:    b.EngineName,
		Success:   false,
		Error:     fmt.Sprintf("Engine '%s' does not support compute", b.EngineName),
		ErrorCode: ErrNotImplemented,
	}
}

func (b Base) Templates() map[string]Template { return nil }
