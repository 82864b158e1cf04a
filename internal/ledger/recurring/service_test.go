package recurring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/journals"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

type memoryTemplates struct {
	templates map[int64]*Template
	nextID    int64
}

func newMemoryTemplates() *memoryTemplates {
	return &memoryTemplates{templates: make(map[int64]*Template), nextID: 1}
}

func (m *memoryTemplates) Insert(ctx context.Context, template Template) (Template, error) {
	template.ID = m.nextID
	m.nextID++
	template.IsActive = true
	for i := range template.Lines {
		template.Lines[i].TemplateID = template.ID
	}
	stored := template
	m.templates[template.ID] = &stored
	return template, nil
}

func (m *memoryTemplates) Update(ctx context.Context, template Template) error {
	stored, ok := m.templates[template.ID]
	if !ok {
		return shared.ErrTemplateNotFound
	}
	stored.Name = template.Name
	stored.Description = template.Description
	stored.Frequency = template.Frequency
	stored.EndDate = template.EndDate
	return nil
}

func (m *memoryTemplates) Get(ctx context.Context, companyID, templateID int64) (Template, error) {
	stored, ok := m.templates[templateID]
	if !ok || stored.CompanyID != companyID {
		return Template{}, shared.ErrTemplateNotFound
	}
	return *stored, nil
}

func (m *memoryTemplates) List(ctx context.Context, companyID int64, activeOnly bool) ([]Template, error) {
	var out []Template
	for _, t := range m.templates {
		if t.CompanyID != companyID {
			continue
		}
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memoryTemplates) ListDue(ctx context.Context, companyID int64, now time.Time) ([]Template, error) {
	var out []Template
	for _, t := range m.templates {
		if t.CompanyID == companyID && t.Due(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryTemplates) SetActive(ctx context.Context, companyID, templateID int64, active bool) error {
	stored, ok := m.templates[templateID]
	if !ok || stored.CompanyID != companyID {
		return shared.ErrTemplateNotFound
	}
	stored.IsActive = active
	return nil
}

func (m *memoryTemplates) AdvanceSchedule(ctx context.Context, templateID int64, lastGenerated, nextDueDate time.Time) error {
	stored, ok := m.templates[templateID]
	if !ok {
		return shared.ErrTemplateNotFound
	}
	lg := lastGenerated
	stored.LastGenerated = &lg
	stored.NextDueDate = nextDueDate
	return nil
}

func (m *memoryTemplates) ReplaceLines(ctx context.Context, templateID int64, lines []TemplateLine) error {
	stored, ok := m.templates[templateID]
	if !ok {
		return shared.ErrTemplateNotFound
	}
	stored.Lines = lines
	return nil
}

type stubEntries struct {
	created []journals.CreateEntryInput
	failOn  string
	nextID  int64
}

func (s *stubEntries) Create(ctx context.Context, input journals.CreateEntryInput) (journals.JournalEntry, []string, error) {
	if s.failOn != "" && strings.HasPrefix(input.Description, s.failOn) {
		return journals.JournalEntry{}, nil, errors.New("entry creation failed")
	}
	s.created = append(s.created, input)
	s.nextID++
	return journals.JournalEntry{
		ID:        s.nextID,
		CompanyID: input.CompanyID,
		Number:    s.nextID,
		Date:      input.Date,
		Status:    journals.StatusDraft,
	}, nil, nil
}

func monthlyRentInput() CreateTemplateInput {
	return CreateTemplateInput{
		CompanyID: 1,
		Name:      "Office rent",
		Frequency: FrequencyMonthly,
		StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedBy: "tester",
		Lines: []journals.LineInput{
			{AccountID: 3, Debit: 1200},
			{AccountID: 1, Credit: 1200},
		},
	}
}

func TestCreateTemplateRequiresBalancedLines(t *testing.T) {
	svc := NewService(newMemoryTemplates(), &stubEntries{})

	input := monthlyRentInput()
	input.Lines[1].Credit = 900
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
}

func TestTemplateDescriptionRoundTrips(t *testing.T) {
	repo := newMemoryTemplates()
	svc := NewService(repo, &stubEntries{})
	ctx := context.Background()

	input := monthlyRentInput()
	input.Description = "Monthly office rent accrual"
	template, err := svc.Create(ctx, input)
	require.NoError(t, err)
	require.Equal(t, "Monthly office rent accrual", template.Description)

	stored, err := svc.Get(ctx, 1, template.ID)
	require.NoError(t, err)
	require.Equal(t, "Monthly office rent accrual", stored.Description)

	revised := "Rent accrual, renegotiated lease"
	updated, err := svc.Update(ctx, 1, template.ID, UpdateTemplateInput{Description: &revised})
	require.NoError(t, err)
	require.Equal(t, revised, updated.Description)
	require.Equal(t, "Office rent", updated.Name)
}

func TestGenerateOneRollsScheduleForward(t *testing.T) {
	repo := newMemoryTemplates()
	entries := &stubEntries{}
	svc := NewService(repo, entries)
	ctx := context.Background()

	template, err := svc.Create(ctx, monthlyRentInput())
	require.NoError(t, err)
	require.Equal(t, template.StartDate, template.NextDueDate)

	entry, err := svc.GenerateOne(ctx, 1, template.ID, "tester")
	require.NoError(t, err)
	require.Equal(t, journals.StatusDraft, entry.Status)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), entry.Date)

	require.Len(t, entries.created, 1)
	require.Equal(t, "Office rent - 01/2024", entries.created[0].Description)
	require.Equal(t, 1200.0, entries.created[0].Lines[0].Debit)

	after, err := svc.Get(ctx, 1, template.ID)
	require.NoError(t, err)
	require.NotNil(t, after.LastGenerated)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *after.LastGenerated)
	require.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), after.NextDueDate)
}

func TestGenerateOneRejectsInactiveTemplate(t *testing.T) {
	repo := newMemoryTemplates()
	svc := NewService(repo, &stubEntries{})
	ctx := context.Background()

	template, err := svc.Create(ctx, monthlyRentInput())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, 1, template.ID))

	_, err = svc.GenerateOne(ctx, 1, template.ID, "tester")
	require.ErrorIs(t, err, shared.ErrTemplateInactive)
}

func TestGenerateOneRejectsCompanyMismatch(t *testing.T) {
	repo := newMemoryTemplates()
	svc := NewService(repo, &stubEntries{})
	ctx := context.Background()

	template, err := svc.Create(ctx, monthlyRentInput())
	require.NoError(t, err)

	_, err = svc.GenerateOne(ctx, 2, template.ID, "tester")
	require.ErrorIs(t, err, shared.ErrTemplateNotFound)
}

func TestGenerateAllPendingCollectsFailures(t *testing.T) {
	repo := newMemoryTemplates()
	entries := &stubEntries{failOn: "Broken"}
	svc := NewService(repo, entries)
	svc.WithNow(func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	_, err := svc.Create(ctx, monthlyRentInput())
	require.NoError(t, err)

	broken := monthlyRentInput()
	broken.Name = "Broken subscription"
	_, err = svc.Create(ctx, broken)
	require.NoError(t, err)

	notDue := monthlyRentInput()
	notDue.Name = "Future lease"
	notDue.StartDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(ctx, notDue)
	require.NoError(t, err)

	result, err := svc.GenerateAllPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, result.Generated, 1)
	require.Len(t, result.Failures, 1)
	require.Equal(t, "Broken subscription", result.Failures[0].Name)
	require.Contains(t, result.Failures[0].Error, "entry creation failed")
}
