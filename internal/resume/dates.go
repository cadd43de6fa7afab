package resume

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearMonthPattern = regexp.MustCompile(`(\d{4})(?:[-/.](\d{1,2}))?`)
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})[/.](\d{4})`)
	monthNames       = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	ongoingMarkers   = []string{"present", "current", "now", "ongoing", "today"}
)

// OngoingMonth is the month index used for open-ended roles.
const OngoingMonth = 9999 * 12

// MonthIndex converts a loosely formatted date ("2021-03", "03/2021",
// "Mar 2021", "2021", "Present") into year*12+month. ok is false when
// nothing date-like is found.
func MonthIndex(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	for _, marker := range ongoingMarkers {
		if strings.Contains(s, marker) {
			return OngoingMonth, true
		}
	}

	if m := monthYearPattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return year*12 + month, true
		}
	}

	m := yearMonthPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	year, _ := strconv.Atoi(m[1])
	month := 1
	if m[2] != "" {
		if v, _ := strconv.Atoi(m[2]); v >= 1 && v <= 12 {
			month = v
		}
	} else {
		for i, name := range monthNames {
			if strings.Contains(s, name) {
				month = i + 1
				break
			}
		}
	}
	return year*12 + month, true
}
