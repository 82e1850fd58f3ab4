package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber(t *testing.T) {
	assert.Equal(t, 3.5, Number(3.5))
	assert.Equal(t, 12.0, Number(json.Number("12")))
	assert.Equal(t, 7.0, Number(" 7 "))
	assert.Equal(t, 4.0, Number(int64(4)))
	assert.True(t, math.IsNaN(Number("seven")))
	assert.True(t, math.IsNaN(Number(nil)))
	assert.True(t, math.IsNaN(Number(true)))
}

func TestCount(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{10.0, 10},
		{2.9, 2},
		{"25", 25},
		{-3.0, 0},
		{0.0, 0},
		{nil, 0},
		{"abc", 0},
		{math.Inf(1), 0},
		{1e30, math.MaxInt64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Count(tt.in), "Count(%v)", tt.in)
	}
}

func TestFirstPresent(t *testing.T) {
	assert.Equal(t, 5.0, FirstPresent(nil, 5.0, 6.0))
	assert.Nil(t, FirstPresent(nil, nil))
}

func TestValidateDuration(t *testing.T) {
	d, err := ValidateDuration(30.0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, d)

	d, err = ValidateDuration("1440")
	require.NoError(t, err)
	assert.Equal(t, 1440.0, d)

	for _, v := range []any{nil, 0.0, 0.5, 1441.0, "soon"} {
		_, err := ValidateDuration(v)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "value %v", v)
		assert.Equal(t, "durationMinutes must be 1-1440", verr.Message)
	}
}

func TestValidateItemID(t *testing.T) {
	id, err := ValidateItemID("  PET_abc123\x00 ", "id")
	require.NoError(t, err)
	assert.Equal(t, "PET_abc123", id)

	_, err = ValidateItemID("  ", "id")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Message)

	for _, bad := range []string{"abc", "PET_", "PET_a-b", "pet_abc", "nope"} {
		_, err := ValidateItemID(bad, "id")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "id %q", bad)
		assert.Equal(t, "Not found", err.Error())
	}
}

func TestValidateItemIDs(t *testing.T) {
	ids, err := ValidateItemIDs([]string{"PET_a", "bogus", "PET_b", "PET_a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PET_a", "PET_b"}, ids)

	_, err = ValidateItemIDs(nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Missing ids", verr.Message)

	many := []string{"PET_keep"}
	for i := range 250 {
		many = append(many, fmt.Sprintf("PET_stale%d", i%220), "not-an-id")
	}
	ids, err = ValidateItemIDs(many)
	require.NoError(t, err)
	assert.Len(t, ids, 221)
	assert.Equal(t, "PET_keep", ids[0])

	ids, err = ValidateItemIDs([]string{"nope"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestValidatePetCategory(t *testing.T) {
	c, err := ValidatePetCategory(" Titanic ")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTitanic, c)

	_, err = ValidatePetCategory("gems")
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello\tworld", SanitizeString(" hello\tworld\x07 "))
	assert.Equal(t, "", SanitizeString(strings.Repeat(" ", 3)))
}
