package engines

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"casservice/internal/engine"
	"casservice/internal/executor"
	"casservice/internal/guard"
)

// latexToMatlab is the MATLAB Symbolic Math Toolbox conversion table.
// \ln maps to log (natural log in MATLAB) and \log to log10.
var latexToMatlab = []rewrite{
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
	rw(`\\log`, `log10`),
	rw(`\\exp`, `exp`),
	rw(`\\pi`, `pi`),
	rw(`\\epsilon`, `epsilon`),
	rw(`\\e($|[^a-z])`, `exp(1)$1`),
	rw(`\\alpha`, `alpha`),
	rw(`\\beta`, `beta`),
	rw(`\\gamma`, `gamma`),
	rw(`\\delta`, `delta`),
	rw(`\\theta`, `theta`),
	rw(`\\lambda`, `lambda`),
	rw(`\\mu`, `mu`),
	rw(`\\sigma`, `sigma`),
	rw(`\\omega`, `omega`),
	rw(`\\phi`, `phi`),
	rw(`\\cdot`, `*`),
	rw(`\\times`, `*`),
	rw(`\^\{([^{}]*)\}`, `^($1)`),
	rw(`_\{([^{}]*)\}`, `_$1`),
	rw(`\{`, `(`),
	rw(`\}`, `)`),
	rw(`\\`, ``),
}

var matlabVersionNumber = regexp.MustCompile(`^\d+\.\d+`)

func convertToMatlab(latex string) string {
	result := applyRewrites(latex, latexToMatlab)
	result = applyRewrites(result, implicitMult)
	return strings.TrimSpace(result)
}

// matlabQuote returns a MATLAB single-quoted string literal with embedded
// quotes doubled.
func matlabQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

const matlabHeader = "syms x y z t real;\n"

var matlabTemplates = map[string]engine.Template{
	"evaluate": {
		RequiredInputs: []string{"expression"},
		Description:    "Evaluate a mathematical expression",
		Generate: func(inputs map[string]string) string {
			// str2sym keeps the user expression out of script syntax;
			// vpa gives a numeric answer when no free symbols remain.
			return matlabHeader +
				fmt.Sprintf("expr = str2sym(%s);\n", matlabQuote(inputs["expression"])) +
				"result = simplify(expr);\n" +
				"if isempty(symvar(result))\n" +
				"    result = vpa(result);\n" +
				"end\n" +
				"disp(['MATLAB_RESULT:', char(string(result))]);\n"
		},
	},
	"simplify": {
		RequiredInputs: []string{"expression"},
		Description:    "Simplify a mathematical expression",
		Generate: func(inputs map[string]string) string {
			return matlabHeader +
				fmt.Sprintf("expr = %s;\n", inputs["expression"]) +
				"result = simplify(expr);\n" +
				"disp(['MATLAB_RESULT:', char(result)]);\n"
		},
	},
	"solve": {
		RequiredInputs: []string{"equation"},
		OptionalInputs: []string{"variable"},
		Description:    "Solve an equation for a variable (default: x)",
		Generate: func(inputs map[string]string) string {
			variable := inputs["variable"]
			if variable == "" {
				variable = "x"
			}
			return matlabHeader +
				fmt.Sprintf("expr = %s;\n", inputs["equation"]) +
				fmt.Sprintf("result = solve(expr, %s);\n", variable) +
				"disp(['MATLAB_RESULT:', char(result)]);\n"
		},
	},
	"factor": {
		RequiredInputs: []string{"expression"},
		Description:    "Factor a polynomial expression",
		Generate: func(inputs map[string]string) string {
			return matlabHeader +
				fmt.Sprintf("expr = %s;\n", inputs["expression"]) +
				"result = factor(expr);\n" +
				"disp(['MATLAB_RESULT:', char(result)]);\n"
		},
	},
}

// Matlab validates LaTeX formulas and runs compute templates through the
// MATLAB Symbolic Math Toolbox. Scripts go through a temp .m file because
// -batch argument length is limited and quoting is fragile.
type Matlab struct {
	engine.Base
	path    string
	timeout time.Duration
	exec    *executor.Executor
	probe   *binaryProbe
	rules   guard.Rules
}

// NewMatlab creates the MATLAB engine.
func NewMatlab(path string, timeout time.Duration, exec *executor.Executor) *Matlab {
	m := &Matlab{
		Base:    engine.Base{EngineName: "matlab"},
		path:    path,
		timeout: timeout,
		exec:    exec,
		rules:   guard.Matlab(),
	}
	m.probe = newBinaryProbe(path, m.detectVersion)
	return m
}

func (m *Matlab) Capabilities() []engine.Capability {
	return []engine.Capability{engine.CapabilityValidate, engine.CapabilityCompute}
}

func (m *Matlab) IsAvailable() bool { return m.probe.Available() }

func (m *Matlab) Version() string { return m.probe.Version() }

func (m *Matlab) AvailabilityReason() string { return m.probe.Reason() }

func (m *Matlab) Templates() map[string]engine.Template { return matlabTemplates }

func (m *Matlab) Validate(latex string) engine.Result {
	start := time.Now()

	if !m.IsAvailable() {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   "MATLAB binary not found",
			TimeMs:  time.Since(start).Milliseconds(),
		}
	}

	expr := convertToMatlab(latex)
	if expr == "" {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   "empty expression after conversion",
			TimeMs:  time.Since(start).Milliseconds(),
		}
	}

	var code string
	lhs, rhs, isEquation := splitEquation(latex)
	if isEquation {
		code = matlabHeader +
			fmt.Sprintf("lhs = %s;\n", convertToMatlab(lhs)) +
			fmt.Sprintf("rhs = %s;\n", convertToMatlab(rhs)) +
			"diff_expr = simplify(lhs - rhs);\n" +
			"disp(['MATLAB_SIMPLIFIED: ', char(diff_expr)]);\n" +
			"is_zero = isequal(diff_expr, sym(0));\n" +
			"disp(['MATLAB_IS_IDENTITY: ', num2str(is_zero)]);\n"
	} else {
		code = matlabHeader +
			fmt.Sprintf("expr = %s;\n", expr) +
			"simplified_expr = simplify(expr);\n" +
			"disp(['MATLAB_SIMPLIFIED: ', char(simplified_expr)]);\n"
	}

	outcome, err := m.runScript(code)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   fmt.Sprintf("matlab error: %v", err),
			TimeMs:  elapsed,
		}
	}
	if outcome.TimedOut {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   fmt.Sprintf("timeout (%s)", m.timeout),
			TimeMs:  elapsed,
		}
	}
	if outcome.ReturnCode != 0 && strings.TrimSpace(outcome.Stdout) == "" {
		return engine.Result{
			Engine:  m.Name(),
			Success: false,
			Error:   fmt.Sprintf("matlab error: non-zero exit (%d): %s", outcome.ReturnCode, truncateString(strings.TrimSpace(outcome.Stderr), 200)),
			TimeMs:  elapsed,
		}
	}

	tags := parseTags(outcome.Stdout, "MATLAB_")

	result := engine.Result{
		Engine:         m.Name(),
		TimeMs:         elapsed,
		OriginalParsed: expr,
	}
	simplified, haveSimplified := tags["SIMPLIFIED"]
	simplified = strings.TrimSpace(simplified)
	result.Simplified = simplified
	result.Success = haveSimplified
	if !haveSimplified {
		result.Error = "no output from MATLAB"
		return result
	}

	if isEquation {
		if identity, ok := tags["IS_IDENTITY"]; ok {
			v := strings.TrimSpace(identity)
			result.IsValid = engine.Bool(v == "1" || strings.EqualFold(v, "true"))
		} else {
			result.IsValid = engine.Bool(simplified == "0")
		}
	} else {
		result.IsValid = engine.Bool(true)
	}
	return result
}

func (m *Matlab) Compute(req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !m.IsAvailable() {
		return engine.Unavailable(m.Name(), "MATLAB binary not found", start)
	}

	tmpl, reject := engine.CheckTemplate(m.Name(), matlabTemplates, m.rules, req, start)
	if reject != nil {
		return *reject
	}

	outcome, err := m.runScript(tmpl.Generate(req.Inputs))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return engine.ComputeResult{
			Engine:    m.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("MATLAB error: %v", err),
			ErrorCode: engine.ErrEngineError,
		}
	}
	if outcome.TimedOut {
		return engine.ComputeResult{
			Engine:    m.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("MATLAB timed out after %s", m.timeout),
			ErrorCode: engine.ErrTimeout,
		}
	}

	tags := parseTags(outcome.Stdout, "MATLAB_")
	if errMsg, ok := tags["ERROR"]; ok {
		return engine.ComputeResult{
			Engine:    m.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     strings.TrimSpace(errMsg),
			ErrorCode: engine.ErrEngineError,
			Stdout:    outcome.Stdout,
			Stderr:    outcome.Stderr,
		}
	}
	if value, ok := tags["RESULT"]; ok {
		return engine.ComputeResult{
			Engine:  m.Name(),
			Success: true,
			TimeMs:  elapsed,
			Result:  map[string]string{"value": strings.TrimSpace(value)},
			Stdout:  outcome.Stdout,
			Stderr:  outcome.Stderr,
		}
	}

	return engine.ComputeResult{
		Engine:    m.Name(),
		Success:   false,
		TimeMs:    elapsed,
		Error:     "No result from MATLAB",
		ErrorCode: engine.ErrEngineError,
		Stdout:    outcome.Stdout,
		Stderr:    outcome.Stderr,
	}
}

// runScript writes code to a temp .m file and runs it with matlab -batch.
// The temp file is removed once the subprocess returns.
func (m *Matlab) runScript(code string) (executor.Outcome, error) {
	f, err := os.CreateTemp("", "cas-*.m")
	if err != nil {
		return executor.Outcome{}, fmt.Errorf("create temp script: %w", err)
	}
	script := f.Name()
	defer os.Remove(script)

	if _, err := f.WriteString(code); err != nil {
		f.Close()
		return executor.Outcome{}, fmt.Errorf("write temp script: %w", err)
	}
	if err := f.Close(); err != nil {
		return executor.Outcome{}, fmt.Errorf("close temp script: %w", err)
	}

	outcome := m.exec.Run(executor.RunSpec{
		Command: []string{m.path, "-batch", fmt.Sprintf("run('%s')", script)},
		Timeout: m.timeout,
	})
	return outcome, nil
}

func (m *Matlab) detectVersion() string {
	outcome := m.exec.Run(executor.RunSpec{
		Command: []string{m.path, "-batch", "disp(version)"},
		Timeout: 15 * time.Second,
	})
	for _, line := range strings.Split(outcome.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if matlabVersionNumber.MatchString(line) {
			return "MATLAB " + line
		}
	}
	return "MATLAB (version unknown)"
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
