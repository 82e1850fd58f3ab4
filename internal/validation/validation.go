package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/chest"
	"chest-rewards-api/internal/models"
)

var itemIDRegex = regexp.MustCompile(`^PET_[0-9a-zA-Z]{1,64}$`)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)

	return strings.TrimSpace(s)
}

// Number coerces a loosely typed JSON value to a float. Numeric strings are
// accepted; anything else is NaN.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return math.NaN()
}

// Count converts v to a non-negative integer, flooring fractions. Missing
// or non-numeric values become 0.
func Count(v any) int64 {
	f := Number(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(math.Floor(f))
}

// FirstPresent returns the first non-nil value.
func FirstPresent(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// ValidateDuration checks a boost duration in minutes.
func ValidateDuration(v any) (float64, error) {
	d := Number(v)
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 1 || d > chest.MaxBoostMinutes {
		return 0, &ValidationError{
			Field:   "durationMinutes",
			Message: fmt.Sprintf("durationMinutes must be 1-%d", chest.MaxBoostMinutes),
		}
	}
	return d, nil
}

// ValidateItemID sanitizes and checks an inventory item id. An id that can
// never name a pet is reported as not found.
func ValidateItemID(id, fieldName string) (string, error) {
	id = SanitizeString(id)
	if id == "" {
		return "", &ValidationError{
			Field:   fieldName,
			Message: "is required",
		}
	}
	if !itemIDRegex.MatchString(id) {
		return "", apperr.NotFound("Not found")
	}
	return id, nil
}

// ValidateItemIDs sanitizes a convert-many id list. Malformed ids are
// dropped rather than rejected; duplicates are collapsed.
func ValidateItemIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{
			Field:   "ids",
			Message: "Missing ids",
		}
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := ValidateItemID(raw, "ids")
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// ValidatePetCategory parses a conversion target type.
func ValidatePetCategory(s string) (models.Category, error) {
	c, ok := models.ParseCategory(SanitizeString(s))
	if !ok || !c.IsPet() {
		return "", &ValidationError{
			Field:   "type",
			Message: "Missing type (huge/titanic) or id",
		}
	}
	return c, nil
}
