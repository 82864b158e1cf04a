package accounts

import (
	"errors"
	"strings"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// CreateAccountInput groups fields required to create an account.
type CreateAccountInput struct {
	CompanyID int64
	Code      string
	Name      string
	Type      AccountType
	Nature    Nature
	ParentID  *int64
}

// Validate checks the static rules; uniqueness and parent existence are
// checked against storage by the service.
func (in CreateAccountInput) Validate() error {
	if in.CompanyID == 0 {
		return errors.New("accounts: company id required")
	}
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("accounts: code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("accounts: name required")
	}
	if !in.Type.Valid() {
		return errors.New("accounts: unknown account type")
	}
	if NatureFor(in.Type) != in.Nature {
		return shared.ErrInvalidNature
	}
	return nil
}

// UpdateAccountInput carries a partial update; nil fields are left untouched.
// Type and nature travel together so the pairing can be re-validated.
type UpdateAccountInput struct {
	Code     *string
	Name     *string
	Type     *AccountType
	Nature   *Nature
	ParentID *int64
	// ClearParent detaches the account from its parent when true.
	ClearParent bool
}
