package engines

import "strings"

// equationIndex returns the index of the first standalone '=' in s, or -1.
// A standalone '=' is one that is not part of ==, <=, >=, !=, := or an
// escaped LaTeX command. The detector runs on preprocessed, pre-conversion
// markup for every engine.
func equationIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		if i > 0 && strings.IndexByte(`<>!\:=`, s[i-1]) >= 0 {
			continue
		}
		if i+1 < len(s) && s[i+1] == '=' {
			continue
		}
		return i
	}
	return -1
}

// splitEquation splits s at its first standalone '='. ok is false when no
// standalone '=' exists or either side is empty after trimming.
func splitEquation(s string) (lhs, rhs string, ok bool) {
	idx := equationIndex(s)
	if idx < 0 {
		return "", "", false
	}
	lhs = strings.TrimSpace(s[:idx])
	rhs = strings.TrimSpace(s[idx+1:])
	if lhs == "" || rhs == "" {
		return "", "", false
	}
	return lhs, rhs, true
}
