package utils

import (
	"strings"
	"unicode"
)

// CamelCase converts a collection name such as "activity_logs" into "activityLogs".
func CamelCase(name string) string {
	var builder strings.Builder
	upperNext := false
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = builder.Len() > 0
			continue
		}
		switch {
		case builder.Len() == 0:
			builder.WriteRune(unicode.ToLower(r))
		case upperNext:
			builder.WriteRune(unicode.ToUpper(r))
		default:
			builder.WriteRune(r)
		}
		upperNext = false
	}
	return builder.String()
}
