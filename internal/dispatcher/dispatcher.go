package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/semaphore"

	"casservice/internal/engine"
	"casservice/pkg/logging"
)

// preferredDefault is the order consulted when no default engine override
// is configured. First entry that is registered, available and
// validate-capable wins.
var preferredDefault = []string{"sympy", "maxima", "sage", "matlab"}

// UnknownEngineError is returned when a request names engines that are not
// in the registry.
type UnknownEngineError struct {
	Names     []string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("unknown engine: %v", e.Names)
}

// CapabilityError is returned when a compute request targets an engine
// without the compute capability.
type CapabilityError struct {
	Name string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("engine '%s' does not support compute", e.Name)
}

// UnavailableError is returned when a compute request targets a known
// engine whose availability probe fails.
type UnavailableError struct {
	Name   string
	Reason string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("engine '%s' is not available: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("engine '%s' is not available", e.Name)
}

// Dispatcher owns the engine registry, default-engine selection and the
// fan-out of validate calls. The registry is frozen after New; only engine
// availability may change underneath it.
type Dispatcher struct {
	engines       map[string]engine.Engine
	order         []string
	defaultEngine string
	sem           *semaphore.Weighted
}

// New builds the registry from engines in the given order. Nil entries and
// duplicate names are logged and skipped; a broken engine never prevents
// startup. defaultOverride, when set and available, pins the default
// engine; otherwise the preferred order decides.
func New(engines []engine.Engine, defaultOverride string) *Dispatcher {
	d := &Dispatcher{engines: make(map[string]engine.Engine)}

	for _, e := range engines {
		if e == nil {
			continue
		}
		name := e.Name()
		if name == "" {
			logging.Warn("dispatcher", "Skipping engine with empty name")
			continue
		}
		if _, dup := d.engines[name]; dup {
			logging.Warn("dispatcher", "Skipping duplicate engine registration: %s", name)
			continue
		}
		d.engines[name] = e
		d.order = append(d.order, name)
	}

	poolSize := int64(len(d.order))
	if poolSize < 2 {
		poolSize = 2
	}
	d.sem = semaphore.NewWeighted(poolSize)

	d.defaultEngine = d.chooseDefault(defaultOverride)
	logging.Info("dispatcher", "Registry initialized: %d engines, default=%q", len(d.order), d.defaultEngine)
	return d
}

func (d *Dispatcher) chooseDefault(override string) string {
	if override != "" {
		if e, ok := d.engines[override]; ok && e.IsAvailable() {
			return override
		}
		logging.Warn("dispatcher", "Configured default engine %q not available, falling back", override)
	}
	for _, name := range preferredDefault {
		e, ok := d.engines[name]
		if !ok || !e.IsAvailable() {
			continue
		}
		if hasCapability(e, engine.CapabilityValidate) {
			return name
		}
	}
	return ""
}

// Default returns the default engine name, empty when none qualifies.
func (d *Dispatcher) Default() string { return d.defaultEngine }

// Engine looks up a registered engine by name.
func (d *Dispatcher) Engine(name string) (engine.Engine, bool) {
	e, ok := d.engines[name]
	return e, ok
}

// Engines returns the registered engines in registration order.
func (d *Dispatcher) Engines() []engine.Engine {
	out := make([]engine.Engine, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.engines[name])
	}
	return out
}

// Names returns the registered engine names, sorted for stable error
// payloads.
func (d *Dispatcher) Names() []string {
	names := make([]string, len(d.order))
	copy(names, d.order)
	sort.Strings(names)
	return names
}

// SelectForValidate resolves the engine list for one validate request.
// Explicit names win, then consensus (every available validate-capable
// engine), then the default engine. The returned list may be empty; the
// wire adapter turns that into NO_ENGINES.
func (d *Dispatcher) SelectForValidate(explicit []string, consensus bool) ([]string, error) {
	if len(explicit) > 0 {
		var unknown []string
		for _, name := range explicit {
			if _, ok := d.engines[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		if len(unknown) > 0 {
			return nil, &UnknownEngineError{Names: unknown, Available: d.Names()}
		}
		return explicit, nil
	}

	if consensus {
		var selection []string
		for _, name := range d.order {
			e := d.engines[name]
			if hasCapability(e, engine.CapabilityValidate) && e.IsAvailable() {
				selection = append(selection, name)
			}
		}
		return selection, nil
	}

	if d.defaultEngine == "" {
		return nil, nil
	}
	return []string{d.defaultEngine}, nil
}

// Validate runs the preprocessed expression through every engine in
// selection. Results come back in selection order regardless of completion
// order; a panicking engine fills its own slot with a failed result and
// never disturbs its siblings.
func (d *Dispatcher) Validate(preprocessed string, selection []string, consensus bool) []engine.Result {
	start := time.Now()
	results := make([]engine.Result, len(selection))

	if len(selection) == 1 {
		results[0] = d.validateOne(d.engines[selection[0]], preprocessed)
	} else {
		done := make(chan struct{})
		for i, name := range selection {
			go func(i int, eng engine.Engine) {
				defer func() { done <- struct{}{} }()
				_ = d.sem.Acquire(context.Background(), 1)
				defer d.sem.Release(1)
				results[i] = d.validateOne(eng, preprocessed)
			}(i, d.engines[name])
		}
		for range selection {
			<-done
		}
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	logging.Info("dispatcher", "validate expr=%q engines=%d ok=%d consensus=%t elapsed_ms=%d",
		exprPrefix(preprocessed), len(selection), succeeded, consensus, time.Since(start).Milliseconds())
	return results
}

func (d *Dispatcher) validateOne(eng engine.Engine, preprocessed string) (result engine.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = engine.Result{
				Engine:  eng.Name(),
				Success: false,
				Error:   fmt.Sprintf("%v", r),
			}
		}
	}()
	return eng.Validate(preprocessed)
}

// Compute routes one compute request to its engine. Existence, capability
// and availability are checked in that order; the engine's own result is
// returned verbatim.
func (d *Dispatcher) Compute(req engine.ComputeRequest) (engine.ComputeResult, error) {
	start := time.Now()

	eng, ok := d.engines[req.Engine]
	if !ok {
		return engine.ComputeResult{}, &UnknownEngineError{Names: []string{req.Engine}, Available: d.Names()}
	}
	if !hasCapability(eng, engine.CapabilityCompute) {
		return engine.ComputeResult{}, &CapabilityError{Name: req.Engine}
	}
	if !eng.IsAvailable() {
		return engine.ComputeResult{}, &UnavailableError{Name: req.Engine, Reason: eng.AvailabilityReason()}
	}

	result := d.computeOne(eng, req)
	logging.Info("dispatcher", "compute engine=%s template=%s ok=%t elapsed_ms=%d",
		req.Engine, req.Template, result.Success, time.Since(start).Milliseconds())
	return result, nil
}

func (d *Dispatcher) computeOne(eng engine.Engine, req engine.ComputeRequest) (result engine.ComputeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = engine.ComputeResult{
				Engine:    eng.Name(),
				Success:   false,
				Error:     fmt.Sprintf("%v", r),
				ErrorCode: engine.ErrEngineError,
			}
		}
	}()
	return eng.Compute(req)
}

func hasCapability(e engine.Engine, c engine.Capability) bool {
	for _, have := range e.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}

// exprPrefix truncates an expression for log lines.
func exprPrefix(s string) string {
	const limit = 50
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
