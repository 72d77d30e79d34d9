package notation

import (
	"regexp"
	"strings"
)

var castlePattern = regexp.MustCompile(`^[0Oo]-[0Oo](-[0Oo])?([+#]?)$`)

// Normalize canonicalizes one scoresheet token. Castling written with any
// mixture of 0, O and o becomes O-O or O-O-O with a trailing + or # kept.
// Everything else is only trimmed.
func Normalize(token string) string {
	s := strings.TrimSpace(token)
	m := castlePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	if m[1] != "" {
		return "O-O-O" + m[2]
	}
	return "O-O" + m[2]
}

// IsCheck reports whether the token is written as a checking move.
func IsCheck(token string) bool {
	return strings.HasSuffix(strings.TrimSpace(token), "+")
}

// IsCastle reports whether a normalized token is a castling move.
func IsCastle(token string) bool {
	s := strings.TrimRight(strings.TrimSpace(token), "+#")
	return s == "O-O" || s == "O-O-O"
}
