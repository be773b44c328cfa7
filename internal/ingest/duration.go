package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDurationSeconds accepts the duration formats platform collectors
// send: an ISO-8601 duration ("PT1M30S", "P1DT2H") or a plain number of
// seconds ("90").
func ParseDurationSeconds(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	if !strings.HasPrefix(strings.ToUpper(trimmed), "P") {
		secs, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("duration %q is neither ISO-8601 nor seconds", raw)
		}
		if secs < 0 {
			return 0, fmt.Errorf("duration must not be negative")
		}
		return secs, nil
	}

	return parseISODuration(strings.ToUpper(trimmed))
}

// parseISODuration handles the day/time designators platform APIs use.
// Year, month and week designators are rejected: no platform reports video
// length in those units.
func parseISODuration(s string) (int, error) {
	rest := strings.TrimPrefix(s, "P")
	if rest == "" {
		return 0, fmt.Errorf("duration %q has no components", s)
	}

	datePart, timePart, hasTime := strings.Cut(rest, "T")
	if hasTime && timePart == "" {
		return 0, fmt.Errorf("duration %q has an empty time part", s)
	}

	total := 0

	if datePart != "" {
		value, unit, err := splitComponent(datePart)
		if err != nil {
			return 0, err
		}
		if unit != 'D' {
			return 0, fmt.Errorf("unsupported duration unit %q in %q", string(unit), s)
		}
		total += value * 86400
	}

	for timePart != "" {
		i := 0
		for i < len(timePart) && timePart[i] >= '0' && timePart[i] <= '9' {
			i++
		}
		if i == 0 || i == len(timePart) {
			return 0, fmt.Errorf("malformed duration %q", s)
		}
		value, err := strconv.Atoi(timePart[:i])
		if err != nil {
			return 0, fmt.Errorf("malformed duration %q: %w", s, err)
		}
		switch timePart[i] {
		case 'H':
			total += value * 3600
		case 'M':
			total += value * 60
		case 'S':
			total += value
		default:
			return 0, fmt.Errorf("unsupported duration unit %q in %q", string(timePart[i]), s)
		}
		timePart = timePart[i+1:]
	}

	return total, nil
}

func splitComponent(part string) (int, byte, error) {
	if len(part) < 2 {
		return 0, 0, fmt.Errorf("malformed duration component %q", part)
	}
	unit := part[len(part)-1]
	value, err := strconv.Atoi(part[:len(part)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed duration component %q: %w", part, err)
	}
	return value, unit, nil
}
