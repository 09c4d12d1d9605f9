package engines

import "regexp"

// rewrite is one entry of an engine's LaTeX-to-native conversion table.
// Tables are applied strictly in listed order, single pass.
type rewrite struct {
	re   *regexp.Regexp
	repl string
}

func rw(pattern, repl string) rewrite {
	return rewrite{re: regexp.MustCompile(pattern), repl: repl}
}

func applyRewrites(s string, table []rewrite) string {
	result := s
	for _, r := range table {
		result = r.re.ReplaceAllString(result, r.repl)
	}
	return result
}

// Implicit multiplication patterns shared by the external-binary engines,
// applied after the engine's own table.
var implicitMult = []rewrite{
	rw(`(\d)([a-zA-Z])`, `$1*$2`), // 2x -> 2*x
	rw(`([a-zA-Z])(\d)`, `$1*$2`), // x2 -> x*2
	rw(`\)([a-zA-Z])`, `)*$1`),    // )x -> )*x
	rw(`([a-zA-Z])\(`, `$1*(`),    // x( -> x*(
	rw(`\)(\()`, `)*$1`),          // )( -> )*(
}
