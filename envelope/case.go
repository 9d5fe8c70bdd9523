package envelope

import "strings"

// codeSegment uppercases a context or operation name for use in an error
// code ("getCurrentUser" -> "GETCURRENTUSER", "user-profiles" ->
// "USER_PROFILES"). Any character outside [A-Z_] after uppercasing becomes
// an underscore so codes always match CodePattern.
func codeSegment(s string) string {
	upper := strings.ToUpper(s)

	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		if (c >= 'A' && c <= 'Z') || c == '_' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
	}

	return strings.Trim(b.String(), "_")
}
