package youtube

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidDuration is wrapped by FormatError.
var ErrInvalidDuration = errors.New("youtube: invalid duration")

// FormatError reports a duration value that is not ISO-8601 shaped.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return "youtube: invalid duration " + strconv.Quote(e.Value)
}

func (e *FormatError) Unwrap() error { return ErrInvalidDuration }

// P[nD][T[nH][nM][nS]]
var durationRegex = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatDuration converts an ISO-8601 duration such as "PT1H2M3S" into "1h 2m 3s".
// Only the components present in the input are rendered; a value with none,
// including the empty string, yields "0s". Days are folded into hours.
func FormatDuration(iso string) (string, error) {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return "0s", nil
	}

	m := durationRegex.FindStringSubmatch(iso)
	if m == nil {
		return "", &FormatError{Value: iso}
	}
	days, hours, minutes, seconds := m[1], m[2], m[3], m[4]

	if days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			return "", &FormatError{Value: iso}
		}
		h := 0
		if hours != "" {
			if h, err = strconv.Atoi(hours); err != nil {
				return "", &FormatError{Value: iso}
			}
		}
		if total := d*24 + h; total > 0 || hours != "" {
			hours = strconv.Itoa(total)
		}
	}

	parts := make([]string, 0, 3)
	if hours != "" {
		parts = append(parts, hours+"h")
	}
	if minutes != "" {
		parts = append(parts, minutes+"m")
	}
	if seconds != "" {
		parts = append(parts, seconds+"s")
	}
	if len(parts) == 0 {
		return "0s", nil
	}
	return strings.Join(parts, " "), nil
}
