package validation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/writewithwrabit/calorietrack/models"
)

const (
	MaxLabelLength = 100
	MinCalories    = 0
	MaxCalories    = 5000

	// DateTimeLayout matches the value of an <input type="datetime-local">.
	DateTimeLayout = "2006-01-02T15:04"
)

// Field names used as keys in Errors. They match the form field names.
const (
	FieldLabel    = "label"
	FieldCalories = "calories"
	FieldDateTime = "datetime"
)

var dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)

// Raw holds the unparsed form values for an intake or exertion entry.
type Raw struct {
	Label    string
	Calories string
	DateTime string
}

// Errors maps a field name to its human-readable problems.
type Errors map[string][]string

func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Error joins every message so Errors can travel as an error when needed.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var parts []string
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], ", "))
	}
	return strings.Join(parts, "; ")
}

// Entry validates raw and, when every rule passes, returns the normalized
// input. The returned Errors is empty on success; callers must not persist
// anything otherwise. The datetime is read as wall-clock time in loc.
func Entry(raw Raw, loc *time.Location) (models.EntryInput, Errors) {
	errs := Errors{}
	var in models.EntryInput

	label := strings.TrimSpace(raw.Label)
	switch {
	case label == "":
		errs.add(FieldLabel, "label is required")
	case utf8.RuneCountInString(label) > MaxLabelLength:
		errs.add(FieldLabel, "label must be 100 characters or fewer")
	default:
		in.Label = label
	}

	calories, err := strconv.Atoi(strings.TrimSpace(raw.Calories))
	switch {
	case err != nil:
		errs.add(FieldCalories, "calories must be a whole number")
	case calories < MinCalories:
		errs.add(FieldCalories, "calories must be 0 or more")
	case calories > MaxCalories:
		errs.add(FieldCalories, "calories must be 5000 or less")
	default:
		in.Calories = calories
	}

	dt := strings.TrimSpace(raw.DateTime)
	if !dateTimePattern.MatchString(dt) {
		errs.add(FieldDateTime, "datetime must use the YYYY-MM-DDThh:mm format (e.g. 2025-05-16T12:00)")
	}
	// The pattern alone lets through values like 2025-13-99T99:99.
	occurredAt, err := time.ParseInLocation(DateTimeLayout, dt, loc)
	if err != nil {
		errs.add(FieldDateTime, "datetime must be a valid date and time")
	} else if len(errs[FieldDateTime]) == 0 {
		in.OccurredAt = occurredAt
	}

	if len(errs) > 0 {
		return models.EntryInput{}, errs
	}
	return in, nil
}

// FormatDateTime renders t the way Entry expects to read it back.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateTimeLayout)
}
