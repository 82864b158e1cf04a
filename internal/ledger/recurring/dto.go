package recurring

import (
	"errors"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
)

// CreateTemplateInput groups the fields for a new recurring template.
type CreateTemplateInput struct {
	CompanyID   int64
	Name        string
	Description string
	Frequency   Frequency
	StartDate   time.Time
	EndDate     *time.Time
	CreatedBy   string
	Lines       []journals.LineInput
}

// Validate applies the same line rules as entry creation, so every generated
// entry is balanced by construction.
func (in CreateTemplateInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("recurring: company id required")
	}
	if in.Name == "" {
		return errors.New("recurring: name required")
	}
	if !in.Frequency.Valid() {
		return errors.New("recurring: unknown frequency")
	}
	if in.StartDate.IsZero() {
		return errors.New("recurring: start date required")
	}
	if in.EndDate != nil && !in.EndDate.After(in.StartDate) {
		return errors.New("recurring: end date must follow start date")
	}
	return journals.ValidateLines(in.Lines)
}

// UpdateTemplateInput carries partial template changes. Lines, when present,
// replace the stored set and are revalidated.
type UpdateTemplateInput struct {
	Name        *string
	Description *string
	Frequency   *Frequency
	EndDate     *time.Time
	ClearEnd    bool
	Lines       []journals.LineInput
}

// GenerationFailure records one template that could not generate.
type GenerationFailure struct {
	TemplateID int64  `json:"template_id"`
	Name       string `json:"name"`
	Error      string `json:"error"`
}

// GenerationResult summarizes one GenerateAllPending run.
type GenerationResult struct {
	Generated []int64             `json:"generated_entry_ids"`
	Failures  []GenerationFailure `json:"failures"`
}
