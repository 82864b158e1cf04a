package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpsertInputValidate(t *testing.T) {
	base := UpsertInput{
		CompanyID:       1,
		FiscalYearStart: date(2024, time.January, 1),
		FiscalYearEnd:   date(2024, time.December, 31),
	}
	require.NoError(t, base.Validate())

	reversed := base
	reversed.FiscalYearStart, reversed.FiscalYearEnd = reversed.FiscalYearEnd, reversed.FiscalYearStart
	require.ErrorIs(t, reversed.Validate(), shared.ErrInvalidFiscalSpan)

	equal := base
	equal.FiscalYearEnd = equal.FiscalYearStart
	require.ErrorIs(t, equal.Validate(), shared.ErrInvalidFiscalSpan)

	tooLong := base
	tooLong.FiscalYearEnd = tooLong.FiscalYearStart.AddDate(0, 0, 400)
	require.ErrorIs(t, tooLong.Validate(), shared.ErrInvalidFiscalSpan)
}

func TestSettingsContainsDate(t *testing.T) {
	s := Settings{
		FiscalYearStart: date(2024, time.January, 1),
		FiscalYearEnd:   date(2024, time.December, 31),
	}

	require.True(t, s.ContainsDate(date(2024, time.January, 1)))
	require.True(t, s.ContainsDate(date(2024, time.December, 31)))
	require.True(t, s.ContainsDate(time.Date(2024, time.December, 31, 23, 30, 0, 0, time.UTC)))
	require.False(t, s.ContainsDate(date(2023, time.December, 31)))
	require.False(t, s.ContainsDate(date(2025, time.January, 1)))
}
