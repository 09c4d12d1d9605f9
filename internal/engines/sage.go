package engines

import (
	"fmt"
	"strings"
	"time"

	"casservice/internal/engine"
	"casservice/internal/executor"
	"casservice/internal/guard"
)

// latexToSage is the Sage conversion table. \infty becomes Sage's oo and
// both \ln and \log map to log (natural log in Sage).
var latexToSage = []rewrite{
	rw(`\\frac\{([^}]+)\}\{([^}]+)\}`, `(($1)/($2))`),
	rw(`\\sqrt\[([^\]]+)\]\{([^}]+)\}`, `($2)^(1/($1))`),
	rw(`\\sqrt\{([^}]+)\}`, `sqrt($1)`),
	rw(`\\arcsin`, `arcsin`),
	rw(`\\arccos`, `arccos`),
	rw(`\\arctan`, `arctan`),
	rw(`\\sin`, `sin`),
	rw(`\\cos`, `cos`),
	rw(`\\tan`, `tan`),
	rw(`\\ln`, `log`),
	rw(`\\log`, `log`),
	rw(`\\exp`, `exp`),
	rw(`\\pi`, `pi`),
	rw(`\\infty`, `oo`),
	rw(`\\alpha`, `alpha`),
	rw(`\\beta`, `beta`),
	rw(`\\gamma`, `gamma`),
	rw(`\\theta`, `theta`),
	rw(`\\phi`, `phi`),
	rw(`\\cdot`, `*`),
	rw(`\\times`, `*`),
	rw(`\\div`, `/`),
	rw(`\^\{([^}]+)\}`, `^($1)`),
	rw(`\\left`, ``),
	rw(`\\right`, ``),
	rw(`\\,`, ` `),
	rw(`\\;`, ` `),
	rw(`\\!`, ``),
	rw(`\\quad`, ` `),
}

// sageImplicitMult is narrower than the shared table: a bare letter before
// '(' is usually a function call in Sage, so that rule is omitted.
var sageImplicitMult = []rewrite{
	rw(`(\d)([a-zA-Z])`, `$1*$2`),
	rw(`\)(\()`, `)*$1`),
	rw(`\)([a-zA-Z])`, `)*$1`),
}

func convertToSage(latex string) string {
	result := applyRewrites(latex, latexToSage)
	result = applyRewrites(result, sageImplicitMult)
	return strings.TrimSpace(result)
}

// sageValidateScript runs under `sage --python`. It reads one
// base64-wrapped JSON payload ({"expression", "is_equation"}) from stdin
// and emits SAGE_* tagged lines.
const sageValidateScript = `
import json, sys, base64
from sage.all import *
var('x y z t a b c n k m p q r s u v w')
_lcl = {str(v): v for v in [x,y,z,t,a,b,c,n,k,m,p,q,r,s,u,v,w]}
data = json.loads(base64.b64decode(sys.stdin.read().strip()).decode())
expr_str = data['expression']
is_equation = data.get('is_equation', False)
try:
    if is_equation:
        parts = expr_str.split('==')
        if len(parts) != 2:
            raise ValueError('Expected exactly one == in equation')
        lhs = sage_eval(parts[0].strip(), locals=_lcl)
        rhs = sage_eval(parts[1].strip(), locals=_lcl)
        diff_expr = simplify(lhs - rhs)
        is_valid = bool(diff_expr == 0)
        simplified = str(simplify(lhs)) + ' == ' + str(simplify(rhs))
        parsed = str(lhs) + ' == ' + str(rhs)
    else:
        expr = sage_eval(expr_str, locals=_lcl)
        simplified = str(simplify(expr))
        parsed = str(expr)
        is_valid = True
    print('SAGE_VALID:' + ('1' if is_valid else '0'))
    print('SAGE_SIMPLIFIED:' + simplified)
    print('SAGE_PARSED:' + parsed)
except Exception as e:
    print('SAGE_VALID:0')
    print('SAGE_ERROR:' + str(e))
`

// sageComputeScript runs under `sage --python`, reading a base64-wrapped
// {"task", "inputs"} payload from stdin.
const sageComputeScript = `
import json, sys, base64
from sage.all import *
var('x y z t a b c n k m p q r s u v w')
_lcl = {str(v): v for v in [x,y,z,t,a,b,c,n,k,m,p,q,r,s,u,v,w]}
data = json.loads(base64.b64decode(sys.stdin.read().strip()).decode())
task = data['task']
inputs = data['inputs']
def _out(val):
    print('SAGE_RESULT:' + str(val).replace('\n', ' '))
try:
    if task == 'evaluate':
        _out(sage_eval(inputs['expression'], locals=_lcl))
    elif task == 'simplify':
        expr = sage_eval(inputs['expression'], locals=_lcl)
        _out(simplify(expr))
    elif task == 'solve':
        expr = sage_eval(inputs['equation'], locals=_lcl)
        v = _lcl.get(inputs.get('variable', 'x'), x)
        _out(solve(expr, v))
    elif task == 'factor':
        expr = sage_eval(inputs['expression'], locals=_lcl)
        _out(factor(expr))
    elif task == 'integrate':
        expr = sage_eval(inputs['expression'], locals=_lcl)
        v = _lcl.get(inputs.get('variable', 'x'), x)
        _out(integrate(expr, v))
    elif task == 'differentiate':
        expr = sage_eval(inputs['expression'], locals=_lcl)
        v = _lcl.get(inputs.get('variable', 'x'), x)
        _out(diff(expr, v))
    elif task == 'matrix_rank':
        m = sage_eval(inputs['matrix'], locals=_lcl)
        if hasattr(m, 'rank'):
            _out(m.rank())
        else:
            _out(matrix(m).rank())
    elif task == 'latex_to_sage':
        _out(sage_eval(inputs['expression'], locals=_lcl))
    elif task == 'group_order':
        g = sage_eval(inputs['group_expr'], locals=_lcl)
        _out(g.order())
    elif task == 'is_abelian':
        g = sage_eval(inputs['group_expr'], locals=_lcl)
        _out(g.is_abelian())
    elif task == 'center_size':
        g = sage_eval(inputs['group_expr'], locals=_lcl)
        _out(g.center().order())
    else:
        print('SAGE_ERROR:Unknown task: ' + task)
except Exception as e:
    print('SAGE_ERROR:' + str(e))
`

var sageTemplates = map[string]engine.Template{
	"evaluate": {
		RequiredInputs: []string{"expression"},
		Description:    "Evaluate a mathematical expression",
		Generate:       sagePayload("evaluate"),
	},
	"simplify": {
		RequiredInputs: []string{"expression"},
		Description:    "Simplify a mathematical expression",
		Generate:       sagePayload("simplify"),
	},
	"solve": {
		RequiredInputs: []string{"equation"},
		OptionalInputs: []string{"variable"},
		Description:    "Solve an equation for a variable (default: x)",
		Generate:       sagePayload("solve"),
	},
	"factor": {
		RequiredInputs: []string{"expression"},
		Description:    "Factor a polynomial expression",
		Generate:       sagePayload("factor"),
	},
	"integrate": {
		RequiredInputs: []string{"expression"},
		OptionalInputs: []string{"variable"},
		Description:    "Symbolic integration (default variable: x)",
		Generate:       sagePayload("integrate"),
	},
	"differentiate": {
		RequiredInputs: []string{"expression"},
		OptionalInputs: []string{"variable"},
		Description:    "Symbolic differentiation (default variable: x)",
		Generate:       sagePayload("differentiate"),
	},
	"matrix_rank": {
		RequiredInputs: []string{"matrix"},
		Description:    "Compute the rank of a matrix",
		Generate:       sagePayload("matrix_rank"),
	},
	"latex_to_sage": {
		RequiredInputs: []string{"expression"},
		Description:    "Parse LaTeX and return Sage representation",
		Generate:       sagePayload("latex_to_sage"),
	},
	"group_order": {
		RequiredInputs: []string{"group_expr"},
		Description:    "Compute the order (size) of a group",
		Generate:       sagePayload("group_order"),
	},
	"is_abelian": {
		RequiredInputs: []string{"group_expr"},
		Description:    "Check if a group is abelian",
		Generate:       sagePayload("is_abelian"),
	},
	"center_size": {
		RequiredInputs: []string{"group_expr"},
		Description:    "Compute the size of the center of a group",
		Generate:       sagePayload("center_size"),
	},
}

func sagePayload(task string) func(map[string]string) string {
	return func(inputs map[string]string) string {
		return encodePayload(map[string]interface{}{
			"task":   task,
			"inputs": inputs,
		})
	}
}

// Sage validates LaTeX formulas and runs symbolic compute tasks through a
// SageMath subprocess (sage --python).
type Sage struct {
	engine.Base
	path    string
	timeout time.Duration
	exec    *executor.Executor
	probe   *binaryProbe
	rules   guard.Rules
}

// NewSage creates the SageMath engine.
func NewSage(path string, timeout time.Duration, exec *executor.Executor) *Sage {
	s := &Sage{
		Base:    engine.Base{EngineName: "sage"},
		path:    path,
		timeout: timeout,
		exec:    exec,
		rules:   guard.Python(),
	}
	s.probe = newBinaryProbe(path, s.detectVersion)
	return s
}

func (s *Sage) Capabilities() []engine.Capability {
	return []engine.Capability{engine.CapabilityValidate, engine.CapabilityCompute}
}

func (s *Sage) IsAvailable() bool { return s.probe.Available() }

func (s *Sage) Version() string { return s.probe.Version() }

func (s *Sage) AvailabilityReason() string { return s.probe.Reason() }

func (s *Sage) Templates() map[string]engine.Template { return sageTemplates }

func (s *Sage) Validate(latex string) engine.Result {
	start := time.Now()

	if !s.IsAvailable() {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   "SageMath binary not found",
			TimeMs:  time.Since(start).Milliseconds(),
		}
	}

	var sageExpr string
	lhs, rhs, isEquation := splitEquation(latex)
	if isEquation {
		sageExpr = convertToSage(lhs) + " == " + convertToSage(rhs)
	} else {
		sageExpr = convertToSage(latex)
		if strings.Contains(sageExpr, "==") {
			isEquation = true
		}
	}

	if !s.rules.IsSafe(sageExpr) {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   "Expression rejected by input validation",
			TimeMs:  time.Since(start).Milliseconds(),
		}
	}

	payload := encodePayload(map[string]interface{}{
		"expression":  sageExpr,
		"is_equation": isEquation,
	})
	outcome := s.exec.Run(executor.RunSpec{
		Command: []string{s.path, "--python", "-c", sageValidateScript},
		Input:   payload,
		Timeout: s.timeout,
	})

	elapsed := time.Since(start).Milliseconds()

	if outcome.TimedOut {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   fmt.Sprintf("SageMath timed out after %s", s.timeout),
			TimeMs:  elapsed,
		}
	}
	if outcome.ReturnCode != 0 {
		return engine.Result{
			Engine:  s.Name(),
			Success: false,
			Error:   fmt.Sprintf("SageMath exited with code %d", outcome.ReturnCode),
			TimeMs:  elapsed,
		}
	}

	tags := parseTags(outcome.Stdout, "SAGE_")
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

func (s *Sage) Compute(req engine.ComputeRequest) engine.ComputeResult {
	start := time.Now()

	if !s.IsAvailable() {
		return engine.Unavailable(s.Name(), "SageMath binary not found", start)
	}

	tmpl, reject := engine.CheckTemplate(s.Name(), sageTemplates, s.rules, req, start)
	if reject != nil {
		return *reject
	}

	outcome := s.exec.Run(executor.RunSpec{
		Command: []string{s.path, "--python", "-c", sageComputeScript},
		Input:   tmpl.Generate(req.Inputs),
		Timeout: req.Timeout(s.timeout),
	})

	elapsed := time.Since(start).Milliseconds()

	if outcome.TimedOut {
		return engine.ComputeResult{
			Engine:    s.Name(),
			Success:   false,
			TimeMs:    elapsed,
			Error:     fmt.Sprintf("SageMath timed out after %s", s.timeout),
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
			Error:     fmt.Sprintf("SageMath exited with code %d", outcome.ReturnCode),
			ErrorCode: engine.ErrEngineError,
		}
	}

	tags := parseTags(outcome.Stdout, "SAGE_")
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

func (s *Sage) detectVersion() string {
	outcome := s.exec.Run(executor.RunSpec{
		Command: []string{s.path, "--version"},
		Timeout: 10 * time.Second,
	})
	if outcome.ReturnCode != 0 || strings.TrimSpace(outcome.Stdout) == "" {
		return "unknown"
	}
	return firstLine(outcome.Stdout)
}
