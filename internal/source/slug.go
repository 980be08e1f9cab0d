package source

import (
	"fmt"
	"math/rand"
	"strings"
)

// Slugify returns a clean file name: lower-cased, with every run of
// non-alphanumeric characters collapsed to a single hyphen. The
// extension (the substring after the LAST dot) is preserved verbatim in
// lower-case. When randomSuffix is set, a random 6-digit suffix is
// appended to the name portion to disambiguate colliding names.
func Slugify(filename string, randomSuffix bool) string {
	lowered := strings.ToLower(filename)

	name := lowered
	extension := ""
	if idx := strings.LastIndex(lowered, "."); idx >= 0 {
		name = lowered[:idx]
		extension = lowered[idx+1:]
	}

	slug := slugify(name)
	if randomSuffix {
		slug = fmt.Sprintf("%s-%d", slug, 100000+rand.Intn(900000))
	}

	if extension == "" {
		return slug
	}

	return fmt.Sprintf("%s.%s", slug, extension)
}

func slugify(name string) string {
	var builder strings.Builder
	builder.Grow(len(name))

	lastWasHyphen := true
	for _, r := range name {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			builder.WriteRune(r)
			lastWasHyphen = false
			continue
		}

		if !lastWasHyphen {
			builder.WriteByte('-')
			lastWasHyphen = true
		}
	}

	return strings.TrimSuffix(builder.String(), "-")
}
