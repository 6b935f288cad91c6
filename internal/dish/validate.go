package dish

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/redmonkez12/sstove-api/internal/apperr"
)

type violations map[string]string

func (v violations) name(field, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		v[field] = "This field may not be blank."
	case utf8.RuneCountInString(value) > maxNameLength:
		v[field] = fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength)
	}
}

func (v violations) between(field string, value, lo, hi int) {
	switch {
	case value < lo:
		v[field] = fmt.Sprintf("Ensure this value is greater than or equal to %d.", lo)
	case value > hi:
		v[field] = fmt.Sprintf("Ensure this value is less than or equal to %d.", hi)
	}
}

func (v violations) timing(prefix string, in TimingInput) {
	v.name(prefix+"name", in.Name)
	for i, at := range in.AtomicTimings {
		p := fmt.Sprintf("%satomic_timings[%d].", prefix, i)
		v.between(p+"seconds", at.Seconds, MinSeconds, MaxSeconds)
		v.between(p+"power", at.Power, MinPower, MaxPower)
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return apperr.Validation(v)
}

// Validate checks a whole dish aggregate and reports every violation at
// once, keyed by field path such as "timings[1].atomic_timings[0].power".
func Validate(in CreateDishInput) error {
	v := violations{}
	v.name("name", in.Name)
	for i, t := range in.Timings {
		v.timing(fmt.Sprintf("timings[%d].", i), t)
	}
	return v.err()
}

// ValidateTiming checks a single timing and its steps.
func ValidateTiming(in TimingInput) error {
	v := violations{}
	v.timing("", in)
	return v.err()
}
