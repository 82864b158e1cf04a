package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// EntryCreator is the journal engine surface the generator depends on.
// Generated entries go through the standard creation path, so they get the
// same numbering, fiscal-date checks, and nature warnings as manual entries.
type EntryCreator interface {
	Create(ctx context.Context, input journals.CreateEntryInput) (journals.JournalEntry, []string, error)
}

// Service manages recurring templates and instantiates draft entries from
// them. Nothing generates implicitly; both GenerateOne and GenerateAllPending
// run only when explicitly invoked.
type Service struct {
	repo    Repository
	entries EntryCreator
	now     func() time.Time
}

func NewService(repo Repository, entries EntryCreator) *Service {
	return &Service{repo: repo, entries: entries, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Create(ctx context.Context, input CreateTemplateInput) (Template, error) {
	if err := input.Validate(); err != nil {
		return Template{}, err
	}
	template := Template{
		CompanyID:   input.CompanyID,
		Name:        input.Name,
		Description: input.Description,
		Frequency:   input.Frequency,
		StartDate:   input.StartDate,
		NextDueDate: input.StartDate,
		EndDate:     input.EndDate,
		CreatedBy:   input.CreatedBy,
	}
	for _, line := range input.Lines {
		template.Lines = append(template.Lines, TemplateLine{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	return s.repo.Insert(ctx, template)
}

func (s *Service) Update(ctx context.Context, companyID, templateID int64, input UpdateTemplateInput) (Template, error) {
	current, err := s.repo.Get(ctx, companyID, templateID)
	if err != nil {
		return Template{}, err
	}
	if input.Name != nil {
		current.Name = *input.Name
	}
	if input.Description != nil {
		current.Description = *input.Description
	}
	if input.Frequency != nil {
		if !input.Frequency.Valid() {
			return Template{}, fmt.Errorf("recurring: unknown frequency: %w", shared.ErrInvalidStatus)
		}
		current.Frequency = *input.Frequency
	}
	if input.ClearEnd {
		current.EndDate = nil
	} else if input.EndDate != nil {
		current.EndDate = input.EndDate
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return Template{}, err
	}
	if input.Lines != nil {
		if err := journals.ValidateLines(input.Lines); err != nil {
			return Template{}, err
		}
		lines := make([]TemplateLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			lines = append(lines, TemplateLine{
				TemplateID:  current.ID,
				AccountID:   line.AccountID,
				Description: line.Description,
				Debit:       line.Debit,
				Credit:      line.Credit,
			})
		}
		if err := s.repo.ReplaceLines(ctx, current.ID, lines); err != nil {
			return Template{}, err
		}
	}
	return s.repo.Get(ctx, companyID, templateID)
}

func (s *Service) Get(ctx context.Context, companyID, templateID int64) (Template, error) {
	return s.repo.Get(ctx, companyID, templateID)
}

func (s *Service) List(ctx context.Context, companyID int64, activeOnly bool) ([]Template, error) {
	return s.repo.List(ctx, companyID, activeOnly)
}

func (s *Service) Deactivate(ctx context.Context, companyID, templateID int64) error {
	return s.repo.SetActive(ctx, companyID, templateID, false)
}

// GenerateOne instantiates a draft entry from the template dated at its
// current due date, then rolls the schedule forward one frequency step.
func (s *Service) GenerateOne(ctx context.Context, companyID, templateID int64, actor string) (journals.JournalEntry, error) {
	template, err := s.repo.Get(ctx, companyID, templateID)
	if err != nil {
		return journals.JournalEntry{}, err
	}
	if !template.IsActive {
		return journals.JournalEntry{}, shared.ErrTemplateInactive
	}
	lines := make([]journals.LineInput, 0, len(template.Lines))
	for _, line := range template.Lines {
		lines = append(lines, journals.LineInput{
			AccountID:   line.AccountID,
			Description: line.Description,
			Debit:       line.Debit,
			Credit:      line.Credit,
		})
	}
	dueDate := template.NextDueDate
	entry, _, err := s.entries.Create(ctx, journals.CreateEntryInput{
		CompanyID:   companyID,
		Date:        dueDate,
		Description: fmt.Sprintf("%s - %s", template.Name, dueDate.Format("01/2006")),
		CreatedBy:   actor,
		Lines:       lines,
	})
	if err != nil {
		return journals.JournalEntry{}, err
	}
	next := NextDueDate(dueDate, template.Frequency)
	if err := s.repo.AdvanceSchedule(ctx, template.ID, dueDate, next); err != nil {
		return journals.JournalEntry{}, err
	}
	return entry, nil
}

// GenerateAllPending runs GenerateOne for every due template. Failures are
// collected per template; one broken template never blocks the rest.
func (s *Service) GenerateAllPending(ctx context.Context, companyID int64) (GenerationResult, error) {
	due, err := s.repo.ListDue(ctx, companyID, s.now())
	if err != nil {
		return GenerationResult{}, err
	}
	var result GenerationResult
	for _, template := range due {
		entry, err := s.GenerateOne(ctx, companyID, template.ID, template.CreatedBy)
		if err != nil {
			result.Failures = append(result.Failures, GenerationFailure{
				TemplateID: template.ID,
				Name:       template.Name,
				Error:      err.Error(),
			})
			continue
		}
		result.Generated = append(result.Generated, entry.ID)
	}
	return result, nil
}
