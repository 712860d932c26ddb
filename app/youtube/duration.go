package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var iso8601Time = regexp.MustCompile(`(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?`)

// parseISODuration converts a Data API contentDetails duration (ISO 8601,
// e.g. "PT1H2M3S") to whole seconds. Durations of a day or longer use the
// "P#DT..." form.
func parseISODuration(d string) (int64, error) {
	if !strings.HasPrefix(d, "P") {
		return 0, fmt.Errorf("invalid duration format: %s", d)
	}

	rest := strings.TrimPrefix(d, "P")

	var days int64
	if idx := strings.Index(rest, "D"); idx >= 0 {
		n, err := strconv.ParseInt(rest[:idx], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", d)
		}
		days = n
		rest = rest[idx+1:]
	}

	rest = strings.TrimPrefix(rest, "T")
	if rest == "" {
		return days * 86400, nil
	}

	matches := iso8601Time.FindStringSubmatch(rest)
	if len(matches) == 0 || (matches[1] == "" && matches[2] == "" && matches[3] == "") {
		return 0, fmt.Errorf("invalid duration format: %s", d)
	}

	hours, _ := strconv.ParseInt(matches[1], 10, 64)
	minutes, _ := strconv.ParseInt(matches[2], 10, 64)
	sec, _ := strconv.ParseFloat(matches[3], 64)

	return days*86400 + hours*3600 + minutes*60 + int64(sec), nil
}
