package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valid() Raw {
	return Raw{Label: "Sushi", Calories: "500", DateTime: "2025-05-16T12:00"}
}

func TestEntryAcceptsValidInput(t *testing.T) {
	in, errs := Entry(valid(), time.UTC)
	require.Empty(t, errs)

	assert.Equal(t, "Sushi", in.Label)
	assert.Equal(t, 500, in.Calories)
	assert.Equal(t, time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC), in.OccurredAt)
}

func TestEntryCalorieBounds(t *testing.T) {
	tests := []struct {
		calories string
		ok       bool
	}{
		{"0", true},
		{"5000", true},
		{" 250 ", true},
		{"-1", false},
		{"5001", false},
		{"", false},
		{"abc", false},
		{"12.5", false},
	}
	for _, tt := range tests {
		raw := valid()
		raw.Calories = tt.calories
		_, errs := Entry(raw, time.UTC)
		if tt.ok {
			assert.Empty(t, errs, tt.calories)
		} else {
			assert.Len(t, errs[FieldCalories], 1, tt.calories)
		}
	}
}

func TestEntryLabelRules(t *testing.T) {
	raw := valid()
	raw.Label = "   "
	_, errs := Entry(raw, time.UTC)
	assert.Equal(t, []string{"label is required"}, errs[FieldLabel])

	raw.Label = strings.Repeat("a", 100)
	_, errs = Entry(raw, time.UTC)
	assert.Empty(t, errs)

	raw.Label = strings.Repeat("a", 101)
	_, errs = Entry(raw, time.UTC)
	assert.Equal(t, []string{"label must be 100 characters or fewer"}, errs[FieldLabel])

	// Length counts characters, not bytes.
	raw.Label = strings.Repeat("寿", 100)
	_, errs = Entry(raw, time.UTC)
	assert.Empty(t, errs)

	raw.Label = "  Ramen  "
	in, errs := Entry(raw, time.UTC)
	require.Empty(t, errs)
	assert.Equal(t, "Ramen", in.Label)
}

func TestEntryDateTimeNeedsPatternAndParse(t *testing.T) {
	tests := []struct {
		in       string
		messages int
	}{
		{"2025-13-01T10:00", 1},
		{"2025-13-99T99:99", 1},
		{"2025-02-30T10:00", 1},
		{"2025-05-16 12:00", 2},
		{"2025-05-16T12:00:00", 2},
		{"", 2},
	}
	for _, tt := range tests {
		raw := valid()
		raw.DateTime = tt.in
		_, errs := Entry(raw, time.UTC)
		assert.Len(t, errs[FieldDateTime], tt.messages, tt.in)
	}

	raw := valid()
	raw.DateTime = "2025-13-01T10:00"
	_, errs := Entry(raw, time.UTC)
	assert.Equal(t, []string{"datetime must be a valid date and time"}, errs[FieldDateTime])
}

func TestEntryReadsWallClockInLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	raw := valid()
	raw.DateTime = "2025-05-16T08:00"
	in, errs := Entry(raw, tokyo)
	require.Empty(t, errs)
	assert.Equal(t, time.Date(2025, 5, 15, 23, 0, 0, 0, time.UTC), in.OccurredAt.UTC())
	assert.Equal(t, "2025-05-16T08:00", FormatDateTime(in.OccurredAt, tokyo))
}

func TestEntryReportsEveryField(t *testing.T) {
	in, errs := Entry(Raw{}, time.UTC)
	assert.Zero(t, in)
	assert.Contains(t, errs, FieldLabel)
	assert.Contains(t, errs, FieldCalories)
	assert.Contains(t, errs, FieldDateTime)
	assert.True(t, strings.HasPrefix(errs.Error(), "calories: "))
}
