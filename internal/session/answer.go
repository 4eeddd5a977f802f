package session

import (
	"strconv"
	"strings"

	"github.com/abhisek/mathwiz/internal/fault"
)

// ParseAnswer reads a whole-number answer. Surrounding whitespace and
// leading zeros are ignored, so "007" is 7.
func ParseAnswer(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fault.Validation("parse answer", "answer is empty")
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fault.Validation("parse answer", "%q is not a whole number", raw)
	}
	return int(n), nil
}
