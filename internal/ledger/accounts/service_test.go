package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

type memoryRepo struct {
	nextID    int64
	accounts  map[int64]Account
	movements map[int64]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[int64]Account{}, movements: map[int64]bool{}}
}

func (m *memoryRepo) Insert(ctx context.Context, account Account) (Account, error) {
	m.nextID++
	account.ID = m.nextID
	account.IsActive = true
	m.accounts[account.ID] = account
	return account, nil
}

func (m *memoryRepo) Update(ctx context.Context, account Account) error {
	if _, ok := m.accounts[account.ID]; !ok {
		return shared.ErrAccountNotFound
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, companyID, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok || a.CompanyID != companyID {
		return Account{}, shared.ErrAccountNotFound
	}
	return a, nil
}

func (m *memoryRepo) List(ctx context.Context, companyID int64, activeOnly bool) ([]Account, error) {
	var out []Account
	for id := int64(1); id <= m.nextID; id++ {
		a, ok := m.accounts[id]
		if !ok || a.CompanyID != companyID {
			continue
		}
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryRepo) CodeExists(ctx context.Context, companyID int64, code string, excludeID int64) (bool, error) {
	for _, a := range m.accounts {
		if a.CompanyID == companyID && a.Code == code && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) HasActiveChildren(ctx context.Context, companyID, id int64) (bool, error) {
	for _, a := range m.accounts {
		if a.CompanyID == companyID && a.ParentID != nil && *a.ParentID == id && a.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) HasMovements(ctx context.Context, companyID, id int64) (bool, error) {
	return m.movements[id], nil
}

func (m *memoryRepo) LastCodeForRoot(ctx context.Context, companyID int64, rootPrefix string) (string, error) {
	var last string
	for _, a := range m.accounts {
		if a.CompanyID != companyID {
			continue
		}
		if a.Code == rootPrefix || (len(a.Code) > len(rootPrefix) && a.Code[:len(rootPrefix)+1] == rootPrefix+".") {
			if a.Code > last {
				last = a.Code
			}
		}
	}
	return last, nil
}

func (m *memoryRepo) SetActive(ctx context.Context, companyID, id int64, active bool) error {
	a, ok := m.accounts[id]
	if !ok || a.CompanyID != companyID {
		return shared.ErrAccountNotFound
	}
	a.IsActive = active
	m.accounts[id] = a
	return nil
}

func cashInput(code string) CreateAccountInput {
	return CreateAccountInput{
		CompanyID: 1,
		Code:      code,
		Name:      "Cash",
		Type:      AccountTypeAsset,
		Nature:    NatureDebit,
	}
}

func TestCreateAccount(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), cashInput("1.1.1"))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, created.IsActive)
	require.Equal(t, AccountTypeAsset, created.Type)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), cashInput("1.1.1"))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), cashInput("1.1.1"))
	require.ErrorIs(t, err, shared.ErrDuplicateCode)
}

func TestCreateRejectsMismatchedNature(t *testing.T) {
	svc := NewService(newMemoryRepo())

	in := cashInput("4.1.1")
	in.Type = AccountTypeRevenue
	in.Nature = NatureDebit
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidNature)
}

func TestCreateRejectsMissingParent(t *testing.T) {
	svc := NewService(newMemoryRepo())

	in := cashInput("1.1.1")
	missing := int64(99)
	in.ParentID = &missing
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidParent)
}

func TestUpdateRejectsParentCycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	root, err := svc.Create(ctx, cashInput("1"))
	require.NoError(t, err)
	midIn := cashInput("1.1")
	midIn.ParentID = &root.ID
	mid, err := svc.Create(ctx, midIn)
	require.NoError(t, err)
	leafIn := cashInput("1.1.1")
	leafIn.ParentID = &mid.ID
	leaf, err := svc.Create(ctx, leafIn)
	require.NoError(t, err)

	// Re-parenting the root under its own grandchild would form a cycle.
	_, err = svc.Update(ctx, 1, root.ID, UpdateAccountInput{ParentID: &leaf.ID})
	require.ErrorIs(t, err, shared.ErrInvalidParent)

	_, err = svc.Update(ctx, 1, root.ID, UpdateAccountInput{ParentID: &root.ID})
	require.ErrorIs(t, err, shared.ErrInvalidParent)
}

func TestDeactivateGuards(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	parent, err := svc.Create(ctx, cashInput("1.1"))
	require.NoError(t, err)
	childIn := cashInput("1.1.1")
	childIn.ParentID = &parent.ID
	child, err := svc.Create(ctx, childIn)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Deactivate(ctx, 1, parent.ID), shared.ErrHasActiveChildren)

	repo.movements[child.ID] = true
	require.ErrorIs(t, svc.Deactivate(ctx, 1, child.ID), shared.ErrHasMovements)

	repo.movements[child.ID] = false
	require.NoError(t, svc.Deactivate(ctx, 1, child.ID))
	require.NoError(t, svc.Deactivate(ctx, 1, parent.ID))

	got, err := svc.Get(ctx, 1, child.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestTreeBuildsForest(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	assets, err := svc.Create(ctx, cashInput("1"))
	require.NoError(t, err)
	cashIn := cashInput("1.1")
	cashIn.ParentID = &assets.ID
	_, err = svc.Create(ctx, cashIn)
	require.NoError(t, err)
	liabIn := cashInput("2")
	liabIn.Type = AccountTypeLiability
	liabIn.Nature = NatureCredit
	_, err = svc.Create(ctx, liabIn)
	require.NoError(t, err)

	forest, err := svc.Tree(ctx, 1)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	require.Equal(t, "1", forest[0].Account.Code)
	require.Len(t, forest[0].Children, 1)
	require.Equal(t, "1.1", forest[0].Children[0].Account.Code)
	require.Empty(t, forest[1].Children)
}

func TestSuggestNextCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	// Empty chart resets to the type root.
	code, err := svc.SuggestNextCode(ctx, 1, AccountTypeExpense)
	require.NoError(t, err)
	require.Equal(t, "5.0.0", code)

	_, err = svc.Create(ctx, CreateAccountInput{
		CompanyID: 1, Code: "5.1.09", Name: "Rent", Type: AccountTypeExpense, Nature: NatureDebit,
	})
	require.NoError(t, err)

	code, err = svc.SuggestNextCode(ctx, 1, AccountTypeExpense)
	require.NoError(t, err)
	require.Equal(t, "5.1.10", code)
}

func TestNextAccountCodeResets(t *testing.T) {
	require.Equal(t, "1.0.0", NextAccountCode(AccountTypeAsset, ""))
	require.Equal(t, "1.0.0", NextAccountCode(AccountTypeAsset, "4.1.1"))
	require.Equal(t, "1.0.0", NextAccountCode(AccountTypeAsset, "1.1.x"))
	require.Equal(t, "1.1.2", NextAccountCode(AccountTypeAsset, "1.1.1"))
}
