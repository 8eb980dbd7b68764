package hotkey

import "strings"

// parseStringList reads a GVariant string array as printed by
// `gsettings get`, e.g. "@as []" or "['a', 'b']".
func parseStringList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@as")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// formatStringList prints a GVariant string array for `gsettings set`.
func formatStringList(items []string) string {
	if len(items) == 0 {
		return "@as []"
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = quote(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// quote produces a GVariant string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
