package normalize

import (
	"strings"
	"time"
)

// DisplayDateLayout is the layout every date reaches the template with.
const DisplayDateLayout = "02/01/2006"

// isoLayouts are the machine formats spreadsheet exports use for date cells.
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// FormatDate redisplays an ISO-like date as DD/MM/YYYY. Any other text is
// returned unchanged, since billing sheets often carry free-form dates
// ("10/05/2024", "Maio/2024") that are already display-ready.
func FormatDate(value string) string {
	trimmed := strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(DisplayDateLayout)
		}
	}
	return value
}

// FormatDisplayDate formats a time as DD/MM/YYYY.
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}
