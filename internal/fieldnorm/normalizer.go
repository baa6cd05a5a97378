package fieldnorm

import "strings"

// NormalizePhone reduces a phone number to its digit sequence. Formatting
// characters, spaces, and a leading + are all stripped so that
// "+62 812-3456-7890" and "6281234567890" compare equal.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail returns the comparison form of an email address:
// trimmed, lower-cased, with stray quoting characters removed.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	return strings.Trim(email, "\"'<>")
}

// NormalizeName trims a display name and collapses internal runs of
// whitespace. Unlike phone/email this is a display form, not a match key.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// SameEmail reports whether two raw email values normalize to the same
// non-empty address.
func SameEmail(a, b string) bool {
	na := NormalizeEmail(a)
	return na != "" && na == NormalizeEmail(b)
}

// SamePhone reports whether two raw phone values share the same non-empty
// digit sequence.
func SamePhone(a, b string) bool {
	na := NormalizePhone(a)
	return na != "" && na == NormalizePhone(b)
}
