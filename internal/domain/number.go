package domain

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var errNotNumber = errors.New("not a number")

// groupedThousands matches "1,500": a comma that reads as a thousands
// separator as easily as a decimal one.
var groupedThousands = regexp.MustCompile(`^[+-]?[1-9][0-9]{0,2},[0-9]{3}$`)

// ParseNumber coerces a form input into a number. Empty (or blank) input is
// absent, not zero. Spaces are dropped and a decimal comma is accepted.
// "1,500" is ambiguous and rejected rather than guessed.
func ParseNumber(raw string) (v float64, present bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if groupedThousands.MatchString(s) {
		return 0, true, errNotNumber
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, true, errNotNumber
	}
	return f, true, nil
}

// FormatNumber renders a number back into form-input form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
