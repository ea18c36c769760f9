package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/rnwolfe/devlog/internal/calendar"
)

// dateValue is a pflag.Value for YYYY-MM-DD flags. The zero value means
// "not set".
type dateValue struct {
	d calendar.Date
}

var _ pflag.Value = (*dateValue)(nil)

func (v *dateValue) String() string {
	if v.d.IsZero() {
		return ""
	}
	return v.d.String()
}

func (v *dateValue) Set(s string) error {
	d, err := calendar.Parse(s)
	if err != nil {
		return fmt.Errorf("expected %s, got %q", calendar.Layout, s)
	}
	v.d = d
	return nil
}

func (v *dateValue) Type() string { return "date" }

// Date returns the parsed date, or the zero Date if the flag was not given.
func (v *dateValue) Date() calendar.Date { return v.d }
