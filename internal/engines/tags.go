package engines

import "strings"

// parseTags extracts PREFIX_KEY:value lines from subprocess stdout. Keys
// are returned without the prefix ("VALID", "RESULT", ...). Later lines
// win on duplicate keys.
func parseTags(stdout, prefix string) map[string]string {
	tags := make(map[string]string)
	for _, line := range strings.Split(stdout, "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		rest := line[len(prefix):]
		colon := strings.IndexByte(rest, ':')
		if colon < 0 {
			continue
		}
		tags[rest[:colon]] = rest[colon+1:]
	}
	return tags
}

// firstLine returns the first line of s, trimmed.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
