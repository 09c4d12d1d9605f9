package engine

import (
	"fmt"
	"strings"
	"time"

	"casservice/internal/guard"
)

// Template describes one named compute task an engine supports. Generate is
// a pure function from the (already guarded) inputs map to an
// engine-specific script or query string.
type Template struct {
	RequiredInputs []string
	OptionalInputs []string
	Description    string
	Generate       func(inputs map[string]string) string
}

// CheckTemplate runs the compute pre-amble shared by every engine: template
// lookup, required-input presence, and the per-value guard. It returns a
// terminal ComputeResult when the request must be rejected, before any code
// generation or subprocess spawn.
func CheckTemplate(engineName string, templates map[string]Template, rules guard.Rules, req ComputeRequest, start time.Time) (Template, *ComputeResult) {
	tmpl, ok := templates[req.Template]
	if !ok {
		return Template{}, &ComputeResult{
			Engine:    engineName,
			Success:   false,
			Error:     fmt.Sprintf("Unknown template: %s", req.Template),
			ErrorCode: ErrUnknownTemplate,
			TimeMs:    time.Since(start).Milliseconds(),
		}
	}

	var missing []string
	for _, key := range tmpl.RequiredInputs {
		if _, ok := req.Inputs[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Template{}, &ComputeResult{
			Engine:    engineName,
			Success:   false,
			Error:     fmt.Sprintf("Missing required inputs: %s", strings.Join(missing, ", ")),
			ErrorCode: ErrMissingInput,
			TimeMs:    time.Since(start).Milliseconds(),
		}
	}

	if key := rules.CheckAll(req.Inputs); key != "" {
		return Template{}, &ComputeResult{
			Engine:    engineName,
			Success:   false,
			Error:     fmt.Sprintf("Invalid input value for '%s'", key),
			ErrorCode: ErrInvalidInput,
			TimeMs:    time.Since(start).Milliseconds(),
		}
	}

	return tmpl, nil
}

// Unavailable is the uniform rejection for compute on an engine that is not
// currently available.
func Unavailable(engineName, reason string, start time.Time) ComputeResult {
	return ComputeResult{
		Engine:    engineName,
		Success:   false,
		Error:     reason,
		ErrorCode: ErrEngineUnavailable,
		TimeMs:    time.Since(start).Milliseconds(),
	}
}

// TemplateDescriptions returns template name to description, the shape the
// /engines endpoint exposes.
func TemplateDescriptions(templates map[string]Template) map[string]string {
	if len(templates) == 0 {
		return nil
	}
	out := make(map[string]string, len(templates))
	for name, tmpl := range templates {
		out[name] = tmpl.Description
	}
	return out
}
