package sigv4

import "regexp"

// timestampPattern matches the 16-character basic ISO8601 Zulu form
// every signing timestamp must take: YYYYMMDDTHHMMSSZ.
var timestampPattern = regexp.MustCompile(`^\d{8}T\d{6}Z$`)

// ValidTimestamp reports whether s matches the 16-character timestamp
// format required throughout this package.
func ValidTimestamp(s string) bool {
	return timestampPattern.MatchString(s)
}
