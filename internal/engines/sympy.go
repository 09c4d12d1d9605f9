package engines

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"casservice/internal/engine"
	"casservice/internal/executor"
	"casservice/internal/guard"
)

// sympyHelperScript is the fixed co-interpreter program. It reads one
// base64-wrapped JSON payload from stdin ({"latex": ...} for validate,
// {"task": ..., "inputs": ...} for compute) and emits tagged result lines.
// Subprocessing keeps SymPy's signal-based parse timeouts out of our
// worker goroutines and bounds resource use per call.
const sympyHelperScript = `
import base64, json, sys

data = json.loads(base64.b64decode(sys.stdin.read().strip()).decode())

def emit(tag, value):
    print('SYMPY_' + tag + ':' + str(value).replace('\n', ' '))

try:
    import sympy
    if 'latex' in data:
        from sympy.parsing.latex import parse_latex
        latex = data['latex']
        try:
            expr = parse_latex(latex)
        except Exception:
            expr = parse_latex(latex, backend='lark')
        parsed = str(expr)
        if isinstance(expr, sympy.Eq):
            diff = sympy.simplify(expr.lhs - expr.rhs)
            emit('VALID', '1' if diff == 0 else '0')
            emit('SIMPLIFIED', diff)
        else:
            emit('VALID', '1')
            emit('SIMPLIFIED', sympy.simplify(expr))
        emit('PARSED', parsed)
    else:
        task = data['task']
        inputs = data['inputs']
        syms = sympy.symbols('x y z t a b c n k m p q r s u v w')
        lcl = {str(s): s for s in syms}
        def parse(key):
            return sympy.sympify(inputs[key], locals=lcl)
        v = lcl.get(inputs.get('variable', 'x'))
        if task == 'evaluate':
            emit('RESULT', sympy.simplify(parse('expression')))
        elif task == 'simplify':
            emit('RESULT', sympy.simplify(parse('expression')))
        elif task == 'solve':
            emit('RESULT', sympy.solve(parse('equation'), v))
        elif task == 'factor':
            emit('RESULT', sympy.factor(parse('expression')))
        elif task == 'integrate':
            emit('RESULT', sympy.integrate(parse('expression'), v))
        elif task == 'differentiate':
            emit('RESULT', sympy.diff(parse('expression'), v))
        else:
            emit('ERROR', 'Unknown task: ' + task)
except Exception as e:
    emit('VALID', '0')
    emit('ERROR', e)
`

var sympyTemplates = map[string]engine.Template{
	"evaluate": {
		RequiredInputs: []string{"expression"},
		Description:    "Evaluate a mathematical expression",
		Generate:       sympyPayload("evaluate"),
	},
	"simplify": {
		RequiredInputs: []string{"expression"},
		Description:    "Simplify a mathematical expression",
		Generate:       sympyPayload("simplify"),
	},
	"solve": {
		RequiredInputs: []string{"equation"},
		OptionalInputs: []string{"variable"},
		Description:    "Solve an equation for a variable (default: x)",
		Generate:       sympyPayload("solve"),
	},
	"factor": {
		RequiredInputs: []string{"expression"},
		Description:    "Factor a polynomial expression",
		Generate:       sympyPayload("factor"),
	},
	"integrate": {
		RequiredInputs: []string{"expression"},
		OptionalInputs: []string{"variable"},
		Description:    "Symbolic integration (default variable: x)",
		Generate:       sympyPayload("integrate"),
	},
	"differentiate": {
		RequiredInputs: []string{"expression"},
		OptionalInputs: []string{"variable"},
		Description:    "Symbolic differentiation (default variable: x)",
		Generate:       sympyPayload("differentiate"),
	},
}

// sympyPayload builds the generator for one task: the base64-wrapped JSON
// payload the helper script consumes on stdin.
func sympyPayload(task string) func(map[string]string) string {
	return func(inputs map[string]string) string {
		return encodePayload(map[string]interface{}{
			"task":   task,
			"inputs": inputs,
		})
	}
}

func encodePayload(payload map[string]interface{}) string {
	data, _ := json.Marshal(payload)
	return base64.StdEncoding.EncodeToString(data)
}

// Sympy validates LaTeX formulas and runs symbolic compute tasks through a
// SymPy co-interpreter subprocess.
type Sympy struct {
	engine.Base
	pythonPath string
	timeout    time.Duration
	exec       *executor.Executor
	probe      *binaryProbe
	rules      guard.Rules
}

// NewSympy creates the SymPy engine. pythonPath is the interpreter used to
// run the helper script.
func NewSympy(pythonPath string, timeout time.Duration, exec *executor.Executor) *Sympy {
	s := &Sympy{
		Base:       engine.Base{EngineName: "sympy"},
		pythonPath: pythonPath,
		timeout:    timeout,
		exec:       exec,
		rules:      guard.Python(),
	}
	s.probe = newBinaryProbe(pythonPath, s.detectVersion)
	return s
}

func (s *Sympy) Capabilities() []engine.Capability {
	return []engine.Capability{engine.CapabilityValidate, engine.CapabilityCompute}
}

func (s *Sympy) IsAvailable() bool { return s.probe.Available() }

func (s *Sympy) Version() string { return s.probe.Version() }

func (s *Sympy) AvailabilityReason() string { return s.probe.Reason() }

func (s *Sympy) Templates() map[string]engine.Template { return sympyTemplates }

func (s *Sympy) Validate(latex string) engine.Result {
	start := time.Now()

	if !s.IsAvailable() {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   "Python interpreter not found",
			TimeMs:  time.Since(start).Milliseconds(),
		}
	}

	payload := encodePayload(map[string]interface{}{"latex": latex})
	outcome := s.exec.Run(executor.RunSpec{
		Command: []string{s.pythonPath, "-c", sympyHelperScript},
		Input:   payload,
		Timeout: s.timeout,
	})

	elapsed := time.Since(start).Milliseconds()

	if outcome.TimedOut {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   fmt.Sprintf("SymPy timed out after %s", s.timeout),
			TimeMs:  elapsed,
		}
	}
	if outcome.ReturnCode != 0 {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   fmt.Sprintf("SymPy exited with code %d", outcome.ReturnCode),
			TimeMs:  elapsed,
		}
	}

	tags := parseTags(outcome.Stdout, "SYMPY_")
	if errMsg, ok := tags["ERROR"]; ok {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   errMsg,
			TimeMs:  elapsed,
		}
	}

	return engine.Result{
		Engine:         s.Name(),
		Success:        true,
		IsValid:        engine.Bool(tags["VALID"] == "1"),
		Simplified:     tags["SIMPLIFIED"],
		OriginalParsed: tags["PARSED"],
		TimeMs:         elapsed,
	}
}

func (s *Sympy) Compute(req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !s.IsAvailable() {
		return engine.Unavailable(s.Name(), "Python interpreter not found", start)
	}

	tmpl, reject := engine.CheckTemplate(s.Name(), sympyTemplates, s.rules, req, start)
	if reject != nil {
		return *reject
	}

	outcome := s.exec.Run(executor.RunSpec{
		Command: []string{s.pythonPath, "-c", sympyHelperScript},
		Input:   tmpl.Generate(req.Inputs),
		Timeout: req.Timeout(s.timeout),
	})

	return s.parseComputeOutcome(outcome, time.Since(start).Milliseconds())
}

func (s *Sympy) parseComputeOutcome(outcome executor.Outcome, elapsed int64) engine.ComputeResult {
	if outcome.TimedOut {
		return engine.ComputeResult{
			Engine:    s.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("SymPy timed out after %s", s.timeout),
			ErrorCode: engine.ErrTimeout,
		}
	}
	if outcome.ReturnCode != 0 {
		return engine.ComputeResult{
			Engine:    s.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Stdout:    outcome.Stdout,
			Stderr:    outcome.Stderr,
			Error:     fmt.Sprintf("SymPy exited with code %d", outcome.ReturnCode),
			ErrorCode: engine.ErrEngineError,
		}
	}

	tags := parseTags(outcome.Stdout, "SYMPY_")
	if errMsg, ok := tags["ERROR"]; ok {
		return engine.ComputeResult{
			Engine:    s.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Stdout:    outcome.Stdout,
			Stderr:    outcome.Stderr,
			Error:     errMsg,
			ErrorCode: engine.ErrEngineError,
		}
	}

	return engine.ComputeResult{
		Engine:  s.Name(),
		Success: true,
		TimeMs:  elapsed,
		Result:  map[string]string{"value": tags["RESULT"]},
		Stdout:  outcome.Stdout,
		Stderr:  outcome.Stderr,
	}
}

func (s *Sympy) detectVersion() string {
	outcome := s.exec.Run(executor.RunSpec{
		Command: []string{s.pythonPath, "-c", "import sympy; print(sympy.__version__)"},
		Timeout: 10 * time.Second,
	})
	if outcome.ReturnCode != 0 {
		return "sympy not importable"
	}
	return firstLine(outcome.Stdout)
}
