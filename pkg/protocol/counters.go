package protocol

import (
	"regexp"
	"strconv"
	"strings"
)

// Counters is the parsed result of a `^CN` response:
// [product, print, custom1, custom2, custom3, custom4].
type Counters struct {
	Product int64
	Print   int64
	Custom  [4]int64
}

var (
	terseRe   = regexp.MustCompile(`\b(PC|PrC|C1|C2|C3|C4)\[(-?\d+)\]`)
	verboseRe = regexp.MustCompile(`(?i)(Product Count|Print Count|Counter\s*([1-4])):\s*(-?\d+)`)
	altRe     = regexp.MustCompile(`(?i)(Product|Print|Custom([1-4])):\s*(-?\d+)`)
	commaNumRe = regexp.MustCompile(`-?\d+`)
)

// ParseCounters parses a `^CN` response, trying the terse, verbose,
// alt, and last-resort comma-separated dialects in that order. Returns
// ok=false if fewer than two numbers were recovered from any dialect.
func ParseCounters(response string) (Counters, bool) {
	if c, ok := parseTerseCounters(response); ok {
		return c, true
	}
	if c, ok := parseVerboseCounters(response); ok {
		return c, true
	}
	if c, ok := parseAltCounters(response); ok {
		return c, true
	}
	return parseCommaCounters(response)
}

func parseTerseCounters(response string) (Counters, bool) {
	var c Counters
	n := 0
	for _, m := range terseRe.FindAllStringSubmatch(response, -1) {
		v, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		n++
		switch m[1] {
		case "PC":
			c.Product = v
		case "PrC":
			c.Print = v
		case "C1":
			c.Custom[0] = v
		case "C2":
			c.Custom[1] = v
		case "C3":
			c.Custom[2] = v
		case "C4":
			c.Custom[3] = v
		}
	}
	if n < 2 {
		return Counters{}, false
	}
	return c, true
}

func parseVerboseCounters(response string) (Counters, bool) {
	var c Counters
	n := 0
	for _, m := range verboseRe.FindAllStringSubmatch(response, -1) {
		v, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			continue
		}
		n++
		label := strings.ToLower(m[1])
		switch {
		case strings.HasPrefix(label, "product"):
			c.Product = v
		case strings.HasPrefix(label, "print"):
			c.Print = v
		case strings.HasPrefix(label, "counter"):
			idx, _ := strconv.Atoi(m[2])
			if idx >= 1 && idx <= 4 {
				c.Custom[idx-1] = v
			}
		}
	}
	if n < 2 {
		return Counters{}, false
	}
	return c, true
}

func parseAltCounters(response string) (Counters, bool) {
	var c Counters
	n := 0
	for _, m := range altRe.FindAllStringSubmatch(response, -1) {
		v, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			continue
		}
		n++
		label := strings.ToLower(m[1])
		switch {
		case strings.HasPrefix(label, "product"):
			c.Product = v
		case strings.HasPrefix(label, "print"):
			c.Print = v
		case strings.HasPrefix(label, "custom"):
			idx, _ := strconv.Atoi(m[2])
			if idx >= 1 && idx <= 4 {
				c.Custom[idx-1] = v
			}
		}
	}
	if n < 2 {
		return Counters{}, false
	}
	return c, true
}

func parseCommaCounters(response string) (Counters, bool) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\r"))
		if !strings.Contains(line, ",") {
			continue
		}
		parts := strings.Split(line, ",")
		var nums []int64
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if !commaNumRe.MatchString(p) {
				continue
			}
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				continue
			}
			nums = append(nums, v)
		}
		if len(nums) < 2 {
			continue
		}
		var c Counters
		fields := []*int64{&c.Product, &c.Print, &c.Custom[0], &c.Custom[1], &c.Custom[2], &c.Custom[3]}
		for i, v := range nums {
			if i >= len(fields) {
				break
			}
			*fields[i] = v
		}
		return c, true
	}
	return Counters{}, false
}
