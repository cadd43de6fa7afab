package utils

import (
	"fmt"
	"strings"
)

// TruncateForLog flattens s onto one line and cuts it to limit runes. A
// truncated value ends with the number of runes dropped.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return fmt.Sprintf("%s... (+%d)", string(runes[:limit]), len(runes)-limit)
}
