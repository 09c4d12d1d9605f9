package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripEnvironments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "equation environment",
			input:    `\begin{equation}x+1\end{equation}`,
			expected: `x+1`,
		},
		{
			name:     "starred align",
			input:    `\begin{align*}x=y\end{align*}`,
			expected: `x=y`,
		},
		{
			name:     "display brackets",
			input:    `\[ x^2 \]`,
			expected: ` x^2 `,
		},
		{
			name:     "dollar delimiters",
			input:    `$$x$$ and $y$`,
			expected: `x and y`,
		},
		{
			name:     "gather and multline",
			input:    `\begin{gather}a\end{gather}\begin{multline}b\end{multline}`,
			expected: `ab`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripEnvironments(tt.input))
		})
	}
}

func TestRemoveTypographical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "left right",
			input:    `\left( x \right)`,
			expected: `( x )`,
		},
		{
			name:     "font command content survives",
			input:    `\mathbf{v} + \mathrm{d}x`,
			expected: `v + dx`,
		},
		{
			name:     "operatorname",
			input:    `\operatorname{tr}(A)`,
			expected: `tr(A)`,
		},
		{
			name:     "spacing commands",
			input:    `a\,b\;c\quad d\qquad e`,
			expected: `abc d e`,
		},
		{
			name:     "alignment and line breaks",
			input:    `a &= b \\ c`,
			expected: `a = b  c`,
		},
		{
			name:     "label and tag",
			input:    `x \label{eq:one} \tag{1}`,
			expected: `x  `,
		},
		{
			name:     "sizing commands",
			input:    `\Bigg( \big[ x \big] \Bigg)`,
			expected: `( [ x ] )`,
		},
		{
			name:     "arrow commands survive",
			input:    `x \rightarrow y \leftarrow z`,
			expected: `x \rightarrow y \leftarrow z`,
		},
		{
			name:     "adjacent left right",
			input:    `\left\left( x \right\right)`,
			expected: `( x )`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveTypographical(tt.input))
		})
	}
}

func TestNormalizeSynonyms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "dfrac", input: `\dfrac{a}{b}`, expected: `\frac{a}{b}`},
		{name: "tfrac", input: `\tfrac{1}{2}`, expected: `\frac{1}{2}`},
		{name: "ge", input: `x \ge 0`, expected: `x \geq 0`},
		{name: "le", input: `x \le 0`, expected: `x \leq 0`},
		{name: "ne", input: `x \ne y`, expected: `x \neq y`},
		{name: "cdot", input: `a \cdot b`, expected: `a * b`},
		{name: "times", input: `a \times b`, expected: `a * b`},
		{name: "canonical geq untouched", input: `x \geq 0`, expected: `x \geq 0`},
		{name: "neg untouched by ne", input: `\neg p`, expected: `\neg p`},
		{name: "gets", input: `x \gets y`, expected: `x \leftarrow y`},
		{name: "to", input: `x \to y`, expected: `x \rightarrow y`},
		{name: "logic", input: `p \land q \lor \lnot r`, expected: `p \wedge q \vee \neg r`},
		{name: "adjacent synonyms", input: `\to\to x`, expected: `\rightarrow\rightarrow x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSynonyms(tt.input))
		})
	}
}

func TestCleanWhitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "collapse runs", input: "a   b\t\nc", expected: "a b c"},
		{name: "trim", input: "  x  ", expected: "x"},
		{name: "strip balanced outer braces", input: "{x + y}", expected: "x + y"},
		{name: "keep unbalanced outer braces", input: "{a} + {b}", expected: "{a} + {b}"},
		{name: "empty braces", input: "{}", expected: ""},
		{name: "nested braces stripped to stable form", input: "{{x}}", expected: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanWhitespace(tt.input))
		})
	}
}

func TestPreprocessFullPipeline(t *testing.T) {
	input := `\begin{equation} \mathbf{x} + \left( y \right) \ge 0 \end{equation}`
	assert.Equal(t, `x + ( y ) \geq 0`, Preprocess(input))
}

func TestPreprocessNeverFails(t *testing.T) {
	inputs := []string{
		"",
		"{{{",
		`\begin{equation}`,
		"$",
		`\\\\\\`,
		"plain text with no math",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() { Preprocess(input) })
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	inputs := []string{
		`\begin{equation} \mathbf{x} + \left( y \right) \ge 0 \end{equation}`,
		`$$\dfrac{a}{b} \cdot c$$`,
		`{x + y}`,
		`\sin(x)^2 + \cos(x)^2 = 1`,
		`x \to y`,
		`a \gets b`,
		`f: A \to B \gets C`,
		`\to\to x`,
		"  a   b  ",
		"",
	}
	for _, input := range inputs {
		once := Preprocess(input)
		assert.Equal(t, once, Preprocess(once), "input %q", input)
	}
}

func TestPreprocessArrowSynonyms(t *testing.T) {
	assert.Equal(t, `x \rightarrow y`, Preprocess(`x \to y`))
	assert.Equal(t, `a \leftarrow b`, Preprocess(`a \gets b`))

	arrows := Preprocess(`x \to y`)
	assert.Equal(t, arrows, Preprocess(arrows))
}
