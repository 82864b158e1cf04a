package recurring

import "time"

// NextDueDate advances a due date by one frequency step using calendar month
// arithmetic, so the 15th stays the 15th and Go's AddDate normalization
// handles short months.
func NextDueDate(current time.Time, frequency Frequency) time.Time {
	return current.AddDate(0, frequency.months(), 0)
}
