package accounts

import (
	"context"
	"errors"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// maxTreeDepth bounds ancestor walks so a corrupted parent chain cannot spin.
const maxTreeDepth = 100

// Service owns chart of accounts invariants: code uniqueness, parent
// integrity, and the fixed type/nature pairing.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new account.
func (s *Service) Create(ctx context.Context, in CreateAccountInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	exists, err := s.repo.CodeExists(ctx, in.CompanyID, in.Code, 0)
	if err != nil {
		return Account{}, err
	}
	if exists {
		return Account{}, shared.ErrDuplicateCode
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, in.CompanyID, *in.ParentID); err != nil {
			return Account{}, shared.ErrInvalidParent
		}
	}
	return s.repo.Insert(ctx, Account{
		CompanyID: in.CompanyID,
		Code:      in.Code,
		Name:      in.Name,
		Type:      in.Type,
		Nature:    in.Nature,
		ParentID:  in.ParentID,
	})
}

// Update applies a partial update, re-running only the validations for the
// fields that changed.
func (s *Service) Update(ctx context.Context, companyID, accountID int64, in UpdateAccountInput) (Account, error) {
	account, err := s.repo.Get(ctx, companyID, accountID)
	if err != nil {
		return Account{}, err
	}
	if in.Code != nil && *in.Code != account.Code {
		exists, err := s.repo.CodeExists(ctx, companyID, *in.Code, accountID)
		if err != nil {
			return Account{}, err
		}
		if exists {
			return Account{}, shared.ErrDuplicateCode
		}
		account.Code = *in.Code
	}
	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.Type != nil || in.Nature != nil {
		if in.Type != nil {
			account.Type = *in.Type
		}
		if in.Nature != nil {
			account.Nature = *in.Nature
		}
		if !account.Type.Valid() || NatureFor(account.Type) != account.Nature {
			return Account{}, shared.ErrInvalidNature
		}
	}
	if in.ClearParent {
		account.ParentID = nil
	} else if in.ParentID != nil {
		if err := s.validateParent(ctx, companyID, accountID, *in.ParentID); err != nil {
			return Account{}, err
		}
		account.ParentID = in.ParentID
	}
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, companyID, accountID)
}

// validateParent checks existence, company ownership, and that the new parent
// is not the account itself or one of its descendants. The walk follows the
// parent chain upward from the candidate; hitting the account means a cycle.
func (s *Service) validateParent(ctx context.Context, companyID, accountID, parentID int64) error {
	if parentID == accountID {
		return shared.ErrInvalidParent
	}
	current := parentID
	for depth := 0; depth < maxTreeDepth; depth++ {
		parent, err := s.repo.Get(ctx, companyID, current)
		if err != nil {
			return shared.ErrInvalidParent
		}
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == accountID {
			return shared.ErrInvalidParent
		}
		current = *parent.ParentID
	}
	return shared.ErrInvalidParent
}

// Deactivate soft-deletes an account once it has no active children and no
// journal movements. Accounts are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, companyID, accountID int64) error {
	if _, err := s.repo.Get(ctx, companyID, accountID); err != nil {
		return err
	}
	children, err := s.repo.HasActiveChildren(ctx, companyID, accountID)
	if err != nil {
		return err
	}
	if children {
		return shared.ErrHasActiveChildren
	}
	movements, err := s.repo.HasMovements(ctx, companyID, accountID)
	if err != nil {
		return err
	}
	if movements {
		return shared.ErrHasMovements
	}
	return s.repo.SetActive(ctx, companyID, accountID, false)
}

// Get returns one account scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, accountID int64) (Account, error) {
	return s.repo.Get(ctx, companyID, accountID)
}

// List returns the flat company chart, optionally active accounts only.
func (s *Service) List(ctx context.Context, companyID int64, activeOnly bool) ([]Account, error) {
	return s.repo.List(ctx, companyID, activeOnly)
}

// Tree returns the active chart of accounts as a forest.
func (s *Service) Tree(ctx context.Context, companyID int64) ([]*TreeNode, error) {
	accounts, err := s.repo.List(ctx, companyID, true)
	if err != nil {
		return nil, err
	}
	return BuildTree(accounts), nil
}

// SuggestNextCode derives the next sibling code for a type from the highest
// existing code under that type root.
func (s *Service) SuggestNextCode(ctx context.Context, companyID int64, t AccountType) (string, error) {
	root, ok := rootDigit[t]
	if !ok {
		return "", errors.New("accounts: unknown account type")
	}
	last, err := s.repo.LastCodeForRoot(ctx, companyID, root)
	if err != nil {
		return "", err
	}
	return NextAccountCode(t, last), nil
}
