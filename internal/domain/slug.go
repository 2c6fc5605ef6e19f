package domain

import "strings"

// Slugify derives the canonical URL-safe identifier from a title: lowercase,
// runs of non-alphanumeric characters collapsed to a single hyphen, no
// leading or trailing hyphen. Distinct titles that normalize to the same
// slug are treated as the same article downstream; that collision policy is
// deliberate.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
