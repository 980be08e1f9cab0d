package media

import "strings"

// ExpandPattern substitutes every '{key}' token in the pattern with the
// corresponding value from vars. Tokens without a matching key are left
// untouched so that a misconfigured pattern is visible in the output
// rather than silently collapsing.
func ExpandPattern(pattern string, vars map[string]string) string {
	oldnew := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		oldnew = append(oldnew, "{"+key+"}", value)
	}

	return strings.NewReplacer(oldnew...).Replace(pattern)
}
