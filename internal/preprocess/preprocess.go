package preprocess

import (
	"regexp"
	"strings"
)

// Phase 1: math environment wrappers to strip, starred and unstarred.
var envPatterns = compileAll(
	`\\begin\{equation\*?\}`, `\\end\{equation\*?\}`,
	`\\begin\{align\*?\}`, `\\end\{align\*?\}`,
	`\\begin\{gather\*?\}`, `\\end\{gather\*?\}`,
	`\\begin\{multline\*?\}`, `\\end\{multline\*?\}`,
	`\\begin\{eqnarray\*?\}`, `\\end\{eqnarray\*?\}`,
	`\\\[`, `\\\]`,
	`\$\$`, `\$`,
)

// Phase 2: \left and \right must end at a non-letter so that \leftarrow
// and \rightarrow (which phase 3 produces) stay intact.
var sizingPatterns = []struct {
	re  *regexp.Regexp
	new string
}{
	{regexp.MustCompile(`\\left([^a-zA-Z]|$)`), `$1`},
	{regexp.MustCompile(`\\right([^a-zA-Z]|$)`), `$1`},
}

// Phase 2: typographical commands that carry no semantics.
var stripPatterns = compileAll(
	`\\displaystyle`, `\\textstyle`, `\\scriptstyle`,
	`\\Bigg`, `\\bigg`, `\\Big`, `\\big`,
	`\\,`, `\\;`, `\\:`, `\\!`, `\\quad`, `\\qquad`,
	`&`, `\\\\`, `\\nonumber`, `\\label\{[^}]*\}`,
	`\\tag\{[^}]*\}`,
)

// Phase 2: font and container commands where the braced argument survives.
var fontPatterns = compileAll(
	`\\mathrm\{([^}]*)\}`,
	`\\mathbf\{([^}]*)\}`,
	`\\mathit\{([^}]*)\}`,
	`\\text\{([^}]*)\}`,
	`\\textit\{([^}]*)\}`,
	`\\boldsymbol\{([^}]*)\}`,
	`\\operatorname\{([^}]*)\}`,
)

// Phase 3: alternative command spellings mapped to canonical forms.
// Each synonym must end at a non-letter so that canonical commands sharing
// a prefix (\geq, \neg, \gets) stay out of reach of the short spellings.
var synonyms = []struct {
	re  *regexp.Regexp
	new string
}{
	{regexp.MustCompile(`\\dfrac([^a-zA-Z]|$)`), `\frac$1`},
	{regexp.MustCompile(`\\tfrac([^a-zA-Z]|$)`), `\frac$1`},
	{regexp.MustCompile(`\\gets([^a-zA-Z]|$)`), `\leftarrow$1`},
	{regexp.MustCompile(`\\ge([^a-zA-Z]|$)`), `\geq$1`},
	{regexp.MustCompile(`\\le([^a-zA-Z]|$)`), `\leq$1`},
	{regexp.MustCompile(`\\ne([^a-zA-Z]|$)`), `\neq$1`},
	{regexp.MustCompile(`\\to([^a-zA-Z]|$)`), `\rightarrow$1`},
	{regexp.MustCompile(`\\land([^a-zA-Z]|$)`), `\wedge$1`},
	{regexp.MustCompile(`\\lor([^a-zA-Z]|$)`), `\vee$1`},
	{regexp.MustCompile(`\\lnot([^a-zA-Z]|$)`), `\neg$1`},
	{regexp.MustCompile(`\\cdot([^a-zA-Z]|$)`), `*$1`},
	{regexp.MustCompile(`\\times([^a-zA-Z]|$)`), `*$1`},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// rewriteStable applies the rewrite until the string stops changing. The
// boundary byte is consumed by the match and re-emitted as $1, so adjacent
// commands ("\to\to x") need another pass.
func rewriteStable(re *regexp.Regexp, repl, s string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}

// StripEnvironments removes math environment wrappers (phase 1).
func StripEnvironments(latex string) string {
	result := latex
	for _, re := range envPatterns {
		result = re.ReplaceAllString(result, "")
	}
	return result
}

// RemoveTypographical strips typographical commands and extracts font
// command contents (phase 2).
func RemoveTypographical(latex string) string {
	result := latex
	for _, s := range sizingPatterns {
		result = rewriteStable(s.re, s.new, result)
	}
	for _, re := range stripPatterns {
		result = re.ReplaceAllString(result, "")
	}
	for _, re := range fontPatterns {
		result = re.ReplaceAllString(result, "$1")
	}
	return result
}

// NormalizeSynonyms maps alternative LaTeX commands to canonical forms
// (phase 3).
func NormalizeSynonyms(latex string) string {
	result := latex
	for _, s := range synonyms {
		result = rewriteStable(s.re, s.new, result)
	}
	return result
}

// CleanWhitespace collapses whitespace runs and removes redundant outer
// braces (phase 4). An outer pair is stripped only when the inner string
// has balanced brace counts, so "{a}+{b}" survives; stripping repeats
// until stable, which keeps the whole pipeline idempotent.
func CleanWhitespace(latex string) string {
	result := strings.TrimSpace(whitespaceRun.ReplaceAllString(latex, " "))
	for strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}") && len(result) >= 2 {
		inner := result[1 : len(result)-1]
		if strings.Count(inner, "{") != strings.Count(inner, "}") {
			break
		}
		result = strings.TrimSpace(inner)
	}
	return result
}

// Preprocess runs the full 4-phase pipeline. It never fails: any input
// produces some output, and a second application yields the same string.
func Preprocess(latex string) string {
	result := latex
	result = StripEnvironments(result)
	result = RemoveTypographical(result)
	result = NormalizeSynonyms(result)
	result = CleanWhitespace(result)
	return result
}
