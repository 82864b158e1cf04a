package recurring

import "time"

// Frequency enumerates the supported generation cadences.
type Frequency string

const (
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyBimonthly  Frequency = "BIMONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiannual Frequency = "SEMIANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual:
		return true
	}
	return false
}

// months returns the calendar step for the frequency.
func (f Frequency) months() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyBimonthly:
		return 2
	case FrequencyQuarterly:
		return 3
	case FrequencySemiannual:
		return 6
	case FrequencyAnnual:
		return 12
	}
	return 0
}

// Template is a reusable journal entry blueprint. Its lines are validated as
// balanced at creation, so generation copies them without re-checking.
type Template struct {
	ID            int64
	CompanyID     int64
	Name          string
	Description   string
	Frequency     Frequency
	StartDate     time.Time
	NextDueDate   time.Time
	LastGenerated *time.Time
	EndDate       *time.Time
	IsActive      bool
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []TemplateLine
}

// TemplateLine mirrors a journal line inside a template.
type TemplateLine struct {
	ID          int64
	TemplateID  int64
	AccountID   int64
	Description string
	Debit       float64
	Credit      float64
}

// Due reports whether the template should generate at the given time: active,
// next due date reached, and not past its optional end date.
func (t Template) Due(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.NextDueDate.After(now) {
		return false
	}
	if t.EndDate != nil && t.EndDate.Before(now) {
		return false
	}
	return true
}
