package accounts

import (
	"fmt"
	"strconv"
	"strings"
)

// rootDigit maps each account type to the leading code segment used for it.
var rootDigit = map[AccountType]string{
	AccountTypeAsset:     "1",
	AccountTypeLiability: "2",
	AccountTypeEquity:    "3",
	AccountTypeRevenue:   "4",
	AccountTypeExpense:   "5",
}

// NextAccountCode suggests a sibling code following the last known code of the
// same type root: the final numeric segment is incremented, preserving its
// width. When the last code is empty or belongs to a different root the
// suggestion resets to "{rootDigit}.0.0". Advisory only; uniqueness is
// enforced at creation time.
func NextAccountCode(t AccountType, lastCode string) string {
	root, ok := rootDigit[t]
	if !ok {
		return ""
	}
	reset := root + ".0.0"
	if lastCode == "" || !strings.HasPrefix(lastCode, root+".") && lastCode != root {
		return reset
	}
	segments := strings.Split(lastCode, ".")
	last := segments[len(segments)-1]
	n, err := strconv.Atoi(last)
	if err != nil {
		return reset
	}
	segments[len(segments)-1] = fmt.Sprintf("%0*d", len(last), n+1)
	return strings.Join(segments, ".")
}
