package settings

import "context"

// Service exposes accounting settings reads and configuration updates. The
// numbering counter never moves through here; it belongs to the journal
// engine's reservation step.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the company configuration, or ErrSettingsNotFound.
func (s *Service) Get(ctx context.Context, companyID int64) (Settings, error) {
	return s.repo.Get(ctx, companyID)
}

// Upsert validates and stores the configuration.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Settings, error) {
	if err := in.Validate(); err != nil {
		return Settings{}, err
	}
	return s.repo.Upsert(ctx, in)
}

// CompanyIDs lists every company with accounting configuration.
func (s *Service) CompanyIDs(ctx context.Context) ([]int64, error) {
	return s.repo.CompanyIDs(ctx)
}
