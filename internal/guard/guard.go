package guard

import (
	"regexp"
	"strings"
)

// Rules is the safety predicate applied to every leaf input value before
// any engine-specific code generation. The guard is intentionally
// conservative: false rejections of legitimate expressions are acceptable,
// false acceptances are bugs.
type Rules struct {
	// MaxLen caps the byte length of a single input value.
	MaxLen int
	// ForbidNewlines rejects embedded newlines and carriage returns.
	ForbidNewlines bool
	// ForbidSemicolons rejects statement separators for engines whose
	// generated scripts are single statements.
	ForbidSemicolons bool
	// Blocked encodes the engine's native dangerous-construct vocabulary.
	Blocked *regexp.Regexp
}

// IsSafe reports whether value may be interpolated into engine code.
func (r Rules) IsSafe(value string) bool {
	if value == "" || len(value) > r.MaxLen {
		return false
	}
	if strings.ContainsRune(value, '\x00') {
		return false
	}
	if r.ForbidNewlines && strings.ContainsAny(value, "\n\r") {
		return false
	}
	if r.ForbidSemicolons && strings.ContainsRune(value, ';') {
		return false
	}
	if r.Blocked != nil && r.Blocked.MatchString(value) {
		return false
	}
	return true
}

// CheckAll returns the key of the first unsafe value in inputs, or "" when
// every value passes. Iteration order is not specified; any blocked key is
// a valid answer.
func (r Rules) CheckAll(inputs map[string]string) string {
	for key, value := range inputs {
		if !r.IsSafe(value) {
			return key
		}
	}
	return ""
}

// Python blocks the import machinery, process spawning, file I/O,
// reflective attribute access and dynamic compilation in Python-evaluated
// input (the sympy helper and Sage's sage_eval).
func Python() Rules {
	return Rules{
		MaxLen: 500,
		Blocked: regexp.MustCompile(`(?i)(__import__|exec\s*\(|eval\s*\(|compile\s*\(|open\s*\(` +
			`|os\.|sys\.|subprocess|import\s|from\s.*import` +
			`|globals|locals|getattr|setattr|delattr` +
			`|__builtins__|__class__|__subclasses__` +
			`|Popen|system\(|popen)`),
	}
}

// Matlab blocks shell escapes, eval variants, file and network I/O and
// environment access in MATLAB-evaluated input.
func Matlab() Rules {
	return Rules{
		MaxLen:         500,
		ForbidNewlines: true,
		Blocked: regexp.MustCompile(`(?i)(system\s*\(|unix\s*\(|dos\s*\(|perl\s*\(|python\s*\(` +
			`|java\s*\(|eval\s*\(|feval\s*\(|evalc\s*\(` +
			`|urlread|webread|websave|fopen|fclose|fwrite|fread` +
			`|delete\s*\(|rmdir|mkdir|movefile|copyfile` +
			`|setenv|getenv|!)`),
	}
}

// GAP blocks process execution, stream and file primitives in GAP-evaluated
// input. GAP scripts are generated as single statements, so separators and
// newlines are rejected outright.
func GAP() Rules {
	return Rules{
		MaxLen:           200,
		ForbidNewlines:   true,
		ForbidSemicolons: true,
		Blocked: regexp.MustCompile(`(?i)(Exec|IO_|Process|Runtime|System|InputTextFile|OutputTextFile` +
			`|ReadAll|PrintTo|AppendTo|QUIT|Filename|DirectoryCurrent` +
			`|DirectoryContents)`),
	}
}
