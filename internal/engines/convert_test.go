package engines

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToMaxima(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "fraction", input: `\frac{1}{2}`, want: `(1)/(2)`},
		{name: "pi sigil", input: `\pi`, want: `%pi`},
		{name: "greek sigil", input: `\alpha + \omega`, want: `%alpha + %omega`},
		{name: "superscript", input: `x^{2}`, want: `x^(2)`},
		{name: "implicit digit letter", input: `2x`, want: `2*x`},
		{name: "infinity", input: `\infty`, want: `inf`},
		{name: "natural log", input: `\ln`, want: `log`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToMaxima(tt.input))
		})
	}
}

func TestConvertToMaximaSqrt(t *testing.T) {
	// The implicit multiplication pass inserts * between a trailing letter
	// and an open paren, including after function names.
	result := convertToMaxima(`\sqrt{x}`)
	assert.True(t, strings.HasPrefix(result, "sqrt"), "got %q", result)
	assert.Contains(t, result, "x")
}

func TestConvertToMatlab(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "log base 10", input: `\log`, want: `log10`},
		{name: "natural log", input: `\ln`, want: `log`},
		{name: "pi", input: `\pi`, want: `pi`},
		{name: "cdot", input: `a \cdot b`, want: `a * b`},
		{name: "superscript", input: `x^{n}`, want: `x^(n)`},
		{name: "implicit letter digit", input: `x2`, want: `x*2`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToMatlab(tt.input))
		})
	}
}

func TestConvertToMatlabEulerConstant(t *testing.T) {
	// Bare \e becomes exp(1); \epsilon and \exp must not be caught by the
	// \e rule.
	assert.True(t, strings.HasPrefix(convertToMatlab(`\e`), "exp"))
	assert.Equal(t, "epsilon", convertToMatlab(`\epsilon`))
	assert.True(t, strings.HasPrefix(convertToMatlab(`\exp`), "exp"))
	assert.NotContains(t, convertToMatlab(`\epsilon`), "exp(1)")
}

func TestConvertToSage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "fraction", input: `\frac{a}{b}`, want: `((a)/(b))`},
		{name: "infinity", input: `\infty`, want: `oo`},
		{name: "div", input: `a \div b`, want: `a / b`},
		{name: "implicit digit letter", input: `2x`, want: `2*x`},
		{name: "adjacent parens", input: `(a)(b)`, want: `(a)*(b)`},
		// No letter-paren rule: function calls survive.
		{name: "sqrt call intact", input: `\sqrt{x}`, want: `sqrt(x)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToSage(tt.input))
		})
	}
}

func TestMatlabQuote(t *testing.T) {
	assert.Equal(t, `'x + 1'`, matlabQuote("x + 1"))
	assert.Equal(t, `'it''s'`, matlabQuote("it's"))
	assert.Equal(t, `''`, matlabQuote(""))
}

func TestEquationIndex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "plain equation", input: "x = 1", want: 2},
		{name: "no equals", input: "x + 1", want: -1},
		{name: "less equal", input: "x <= 1", want: -1},
		{name: "greater equal", input: "x >= 1", want: -1},
		{name: "not equal", input: "x != 1", want: -1},
		{name: "double equals", input: "x == 1", want: -1},
		{name: "assignment", input: "x := 1", want: -1},
		{name: "second equals standalone", input: "a <= b = c", want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, equationIndex(tt.input))
		})
	}
}

func TestSplitEquation(t *testing.T) {
	lhs, rhs, ok := splitEquation(`x^2 = 2x`)
	assert.True(t, ok)
	assert.Equal(t, "x^2", lhs)
	assert.Equal(t, "2x", rhs)

	_, _, ok = splitEquation("x + 1")
	assert.False(t, ok)

	_, _, ok = splitEquation("x =")
	assert.False(t, ok, "empty rhs is not an equation")

	_, _, ok = splitEquation("= 1")
	assert.False(t, ok, "empty lhs is not an equation")
}

func TestParseTags(t *testing.T) {
	stdout := "noise\nSAGE_VALID:1\nSAGE_SIMPLIFIED:x + 1\nOTHER_VALID:0\nSAGE_VALID:0\n"
	tags := parseTags(stdout, "SAGE_")
	assert.Equal(t, "0", tags["VALID"], "later line wins")
	assert.Equal(t, "x + 1", tags["SIMPLIFIED"])
	assert.NotContains(t, tags, "OTHER_VALID")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "SageMath version 9.5", firstLine("SageMath version 9.5\nmore\n"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "", firstLine("\n\n"))
}

func TestParseMaximaOutput(t *testing.T) {
	out, err := parseMaximaOutput("(%i1) ratsimp(x + x);\n(%o1) 2*x\n")
	assert.NoError(t, err)
	assert.Equal(t, "2*x", out)

	out, err = parseMaximaOutput("2*x\n")
	assert.NoError(t, err)
	assert.Equal(t, "2*x", out)

	_, err = parseMaximaOutput("")
	assert.Error(t, err)

	_, err = parseMaximaOutput("(%i1) ratsimp(x);\n")
	assert.Error(t, err)
}
