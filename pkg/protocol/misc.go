package protocol

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	printheadTempRe = regexp.MustCompile(`(?i)Printhead(?: Temp)?:?\s*(-?\d+(?:\.\d+)?)`)
	electronicTempRe = regexp.MustCompile(`(?i)Electronic(?:s)?(?: Temp)?:?\s*(-?\d+(?:\.\d+)?)`)
	versionRe       = regexp.MustCompile(`(?i)(?:Version|V)\s*[:]?\s*([0-9]+(?:\.[0-9]+)+)`)
	nonPrintableRe  = regexp.MustCompile(`[^\x20-\x7E]+`)
)

// TemperatureFrame is the parsed result of a `^TP` response.
type TemperatureFrame struct {
	Printhead  float64
	Electronic float64
}

// ParseTemperature extracts printhead and electronics temperatures.
// Returns ok=false if neither value could be recovered.
func ParseTemperature(response string) (TemperatureFrame, bool) {
	var f TemperatureFrame
	found := false

	if m := printheadTempRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.Printhead = v
			found = true
		}
	}
	if m := electronicTempRe.FindStringSubmatch(response); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.Electronic = v
			found = true
		}
	}
	return f, found
}

// deviceClockLayouts are the absolute-timestamp formats `^SD` has been
// observed to return, tried in order.
var deviceClockLayouts = []string{
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/06 15:04:05",
	"Mon Jan 2 15:04:05 2006",
	"2006-01-02T15:04:05",
}

// ParseDeviceClock trims non-printable bytes from a `^SD` response and
// parses it as an absolute timestamp, trying each known device format.
func ParseDeviceClock(response string) (time.Time, bool) {
	cleaned := nonPrintableRe.ReplaceAllString(response, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "//EOL")
	cleaned = strings.TrimSpace(cleaned)

	for _, layout := range deviceClockLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseVersion extracts the firmware version string from a `^VV`
// response.
func ParseVersion(response string) (string, bool) {
	if m := versionRe.FindStringSubmatch(response); m != nil {
		return m[1], true
	}
	return "", false
}
