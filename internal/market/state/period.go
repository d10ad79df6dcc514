package state

import "fmt"

// Period is the chart history window selector, using its wire value.
type Period string

// PeriodMeta holds the display label and calendar span of a Period.
type PeriodMeta struct {
	Label string
	Days  int
}

const (
	Period5Days   Period = "5d"
	Period1Month  Period = "1m"
	Period3Months Period = "3m"
	Period6Months Period = "6m"
	Period1Year   Period = "1y"
)

// DefaultPeriod is selected at session start.
const DefaultPeriod = Period1Month

var validPeriods = map[Period]PeriodMeta{
	Period5Days:   {Label: "5D", Days: 5},
	Period1Month:  {Label: "1M", Days: 30},
	Period3Months: {Label: "3M", Days: 90},
	Period6Months: {Label: "6M", Days: 180},
	Period1Year:   {Label: "1Y", Days: 365},
}

// Periods lists every period in selector order.
func Periods() []Period {
	return []Period{Period5Days, Period1Month, Period3Months, Period6Months, Period1Year}
}

// IsValid checks if the Period is one of the predefined selectors.
func (p Period) IsValid() bool {
	_, ok := validPeriods[p]
	return ok
}

// Meta returns the label and span; the zero PeriodMeta for unknown periods.
func (p Period) Meta() PeriodMeta {
	return validPeriods[p]
}

// ParsePeriod parses a wire value such as "3m".
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid period: %q", s)
	}
	return p, nil
}
