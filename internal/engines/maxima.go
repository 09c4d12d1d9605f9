package engines

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"casservice/internal/engine"
	"casservice/internal/executor"
)

// latexToMaxima is the Maxima conversion table. Greek letters carry the %
// sigil Maxima uses for built-in symbols.
var latexToMaxima = []rewrite{
	rw(`\\frac\{([^{}]*(?:\{[^{}]*\}[^{}]*)*)\}\{([^{}]*(?:\{[^{}]*\}[^{}]*)*)\}`, `($1)/($2)`),
	rw(`\\sqrt\[([^]]*)\]\{([^{}]*)\}`, `($2)^(1/($1))`),
	rw(`\\sqrt\{([^{}]*)\}`, `sqrt($1)`),
	rw(`\\arcsin`, `asin`),
	rw(`\\arccos`, `acos`),
	rw(`\\arctan`, `atan`),
	rw(`\\sinh`, `sinh`),
	rw(`\\cosh`, `cosh`),
	rw(`\\tanh`, `tanh`),
	rw(`\\sin`, `sin`),
	rw(`\\cos`, `cos`),
	rw(`\\tan`, `tan`),
	rw(`\\ln`, `log`),
	rw(`\\log`, `log`),
	rw(`\\exp`, `exp`),
	rw(`\\alpha`, `%alpha`),
	rw(`\\beta`, `%beta`),
	rw(`\\gamma`, `%gamma`),
	rw(`\\delta`, `%delta`),
	rw(`\\epsilon`, `%epsilon`),
	rw(`\\theta`, `%theta`),
	rw(`\\lambda`, `%lambda`),
	rw(`\\mu`, `%mu`),
	rw(`\\nu`, `%nu`),
	rw(`\\pi`, `%pi`),
	rw(`\\sigma`, `%sigma`),
	rw(`\\tau`, `%tau`),
	rw(`\\omega`, `%omega`),
	rw(`\\phi`, `%phi`),
	rw(`\\psi`, `%psi`),
	rw(`\\rho`, `%rho`),
	rw(`\\xi`, `%xi`),
	rw(`\\zeta`, `%zeta`),
	rw(`\\infty`, `inf`),
	rw(`\^\{([^{}]*)\}`, `^($1)`),
	rw(`_\{([^{}]*)\}`, `_$1`),
	rw(`\{`, `(`),
	rw(`\}`, `)`),
	rw(`\\`, ``),
}

// maximaOutputLabel matches Maxima's "(%o1) result" output lines.
var maximaOutputLabel = regexp.MustCompile(`\(%o\d+\)\s*(.*)`)

func convertToMaxima(latex string) string {
	result := applyRewrites(latex, latexToMaxima)
	result = applyRewrites(result, implicitMult)
	return strings.TrimSpace(result)
}

// Maxima validates LaTeX formulas by converting them to Maxima syntax and
// running ratsimp in a batch subprocess. Validate-only: Maxima compute is
// not exposed.
type Maxima struct {
	engine.Base
	path    string
	timeout time.Duration
	exec    *executor.Executor
	probe   *binaryProbe
}

// NewMaxima creates the Maxima engine.
func NewMaxima(path string, timeout time.Duration, exec *executor.Executor) *Maxima {
	m := &Maxima{
		Base:    engine.Base{EngineName: "maxima"},
		path:    path,
		timeout: timeout,
		exec:    exec,
	}
	m.probe = newBinaryProbe(path, m.detectVersion)
	return m
}

func (m *Maxima) Capabilities() []engine.Capability {
	return []engine.Capability{engine.CapabilityValidate}
}

func (m *Maxima) IsAvailable() bool { return m.probe.Available() }

func (m *Maxima) Version() string { return m.probe.Version() }

func (m *Maxima) AvailabilityReason() string { return m.probe.Reason() }

// Path returns the configured Maxima binary path, exposed by /status.
func (m *Maxima) Path() string { return m.path }

func (m *Maxima) Validate(latex string) engine.Result {
	start := time.Now()

	if !m.IsAvailable() {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   "Maxima binary not found",
			TimeMs:  time.Since(start).Milliseconds(),
		}
	}

	// Equation detection runs on the preprocessed markup, before
	// conversion; each half is converted independently.
	var command string
	lhs, rhs, isEquation := splitEquation(latex)
	if isEquation {
		command = fmt.Sprintf("ratsimp(%s - (%s));", convertToMaxima(lhs), convertToMaxima(rhs))
	} else {
		converted := convertToMaxima(latex)
		if converted == "" {
			return engine.Result{
				Engine:  m.Name(),
				Success: false,
				Error:   "empty expression after conversion",
				TimeMs:  time.Since(start).Milliseconds(),
			}
		}
		command = fmt.Sprintf("ratsimp(%s);", converted)
	}

	outcome := m.exec.Run(executor.RunSpec{
		Command: []string{m.path, "--very-quiet", "--batch-string", command},
		Timeout: m.timeout,
	})

	elapsed := time.Since(start).Milliseconds()

	if outcome.TimedOut {
		return engine.Result{Engine: m.Name(), Success: false, Error: "timeout", TimeMs: elapsed}
	}
	if outcome.ReturnCode != 0 {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   fmt.Sprintf("maxima error: non-zero exit (%d): %s", outcome.ReturnCode, strings.TrimSpace(outcome.Stderr)),
			TimeMs:  elapsed,
		}
	}

	simplified, err := parseMaximaOutput(outcome.Stdout)
	if err != nil {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   fmt.Sprintf("maxima error: %v", err),
			TimeMs:  elapsed,
		}
	}

	result := engine.Result{
		Engine:         m.Name(),
		Success:        true,
		Simplified:     simplified,
		OriginalParsed: convertToMaxima(latex),
		TimeMs:         elapsed,
	}
	if isEquation {
		result.IsValid = engine.Bool(simplified == "0")
	} else {
		result.IsValid = engine.Bool(true)
	}
	return result
}

// parseMaximaOutput extracts the result from Maxima batch output, which
// echoes input as "(%i1) ..." lines and labels results "(%o1) ...".
func parseMaximaOutput(stdout string) (string, error) {
	output := strings.TrimSpace(stdout)
	if output == "" {
		return "", fmt.Errorf("no output")
	}
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "(%i") {
			continue
		}
		if match := maximaOutputLabel.FindStringSubmatch(line); match != nil {
			return strings.TrimSpace(match[1]), nil
		}
		return line, nil
	}
	return "", fmt.Errorf("no parseable output")
}

func (m *Maxima) detectVersion() string {
	outcome := m.exec.Run(executor.RunSpec{
		Command: []string{m.path, "--version"},
		Timeout: 5 * time.Second,
	})
	if outcome.ReturnCode != 0 {
		return "unknown"
	}
	return firstLine(outcome.Stdout)
}
