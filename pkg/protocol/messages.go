package protocol

import (
	"regexp"
	"strings"
)

var (
	headerRe      = regexp.MustCompile(`(?i)^Messages\s*\(\d+\):?$`)
	commandEchoRe = regexp.MustCompile(`^\^`)
	leadingNumRe  = regexp.MustCompile(`^\d+\.\s*`)
	currentTagRe  = regexp.MustCompile(`(?i)\s*\(current\)\s*$`)

	suMarkerRe      = regexp.MustCompile(`MOD\[|CHG\[|PRS\[|RPS\[|HVD\[|VIS\[|PHQ\[|ERR\[|V300UP|VLT_ON|GUT_ON|MOD_ON|INK:`)
	counterLabelRe  = regexp.MustCompile(`(?i)Product Count:|Print Count:|Counter\s*[1-4]:|Product:|Print:|Custom[1-4]:|PC\[|PrC\[|C1\[|C2\[|C3\[|C4\[`)
)

// ParsedMessage is one entry of the printer's stored message catalog as
// reported by `^LM`.
type ParsedMessage struct {
	ID   int
	Name string
}

// ParseMessageList parses a `^LM` response into its message entries and,
// if one line carried the "(current)" marker, the detected current
// message name. A response containing only noise lines yields an empty
// slice and an empty current-message string, leaving the caller's
// existing catalog untouched.
func ParseMessageList(response string) ([]ParsedMessage, string) {
	var messages []ParsedMessage
	current := ""
	nextID := 1

	for _, raw := range splitLines(response) {
		line := strings.TrimSpace(raw)
		if isNoiseLine(line) {
			continue
		}

		isCurrent := currentTagRe.MatchString(line)
		line = currentTagRe.ReplaceAllString(line, "")

		id := nextID
		if m := leadingNumRe.FindString(line); m != "" {
			line = line[len(m):]
		}
		name := strings.ToUpper(strings.TrimSpace(line))
		if name == "" {
			continue
		}

		messages = append(messages, ParsedMessage{ID: id, Name: name})
		nextID++

		if isCurrent {
			current = name
		}
	}

	return messages, current
}

func isNoiseLine(line string) bool {
	if line == "" {
		return true
	}
	if line == "//EOL" {
		return true
	}
	if strings.HasPrefix(line, ">") {
		return true
	}
	if commandEchoRe.MatchString(line) {
		return true
	}
	upper := strings.ToUpper(line)
	if strings.Contains(upper, "COMMAND SUCCESSFUL") || strings.Contains(upper, "COMMAND FAILED") {
		return true
	}
	if headerRe.MatchString(line) {
		return true
	}
	if suMarkerRe.MatchString(line) {
		return true
	}
	if counterLabelRe.MatchString(line) {
		return true
	}
	return false
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
