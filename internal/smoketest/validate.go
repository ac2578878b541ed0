package smoketest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Timecode values follow the scene-detection CLI conventions: a bare
// integer is a frame count, a decimal number (optionally "s"-suffixed)
// is seconds, and HH:MM:SS[.nnn] is a wall-clock timecode.

var timecodePattern = regexp.MustCompile(`^\d+:\d{2}:\d{2}(\.\d+)?$`)

// ValidateTimecode checks that raw is an acceptable timecode value.
func ValidateTimecode(raw string) error {
	v := strings.TrimSpace(raw)
	if v == "" {
		return fmt.Errorf("timecode is empty")
	}

	if timecodePattern.MatchString(v) {
		return validateClock(v)
	}

	seconds := strings.TrimSuffix(v, "s")
	if _, err := strconv.ParseUint(seconds, 10, 64); err == nil {
		return nil // frames ("100") or whole seconds ("100s")
	}
	if f, err := strconv.ParseFloat(seconds, 64); err == nil {
		if f < 0 {
			return fmt.Errorf("timecode cannot be negative")
		}
		return nil
	}

	return fmt.Errorf("timecodes must be in seconds (100.0), frames (100), or HH:MM:SS")
}

func validateClock(v string) error {
	parts := strings.SplitN(v, ":", 3)
	minutes, _ := strconv.Atoi(parts[1])
	secPart := parts[2]
	if dot := strings.IndexByte(secPart, '.'); dot >= 0 {
		secPart = secPart[:dot]
	}
	seconds, _ := strconv.Atoi(secPart)
	if minutes > 59 || seconds > 59 {
		return fmt.Errorf("invalid timecode %q: minutes and seconds must be < 60", v)
	}
	return nil
}

// ValidateRange checks an inclusive numeric range, mirroring the CLI's
// option constraints (e.g. detect-content threshold 0-255).
func ValidateRange(value, minVal, maxVal float64) error {
	if value < minVal || value > maxVal {
		return fmt.Errorf("value %g outside allowed range %g-%g", value, minVal, maxVal)
	}
	return nil
}
