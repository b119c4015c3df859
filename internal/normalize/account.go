package normalize

import (
	"fmt"

	"awin_tap/internal/domain"
)

type account struct {
	AccountID   int64  `mapstructure:"accountId"`
	AccountType string `mapstructure:"accountType"`
}

// Account stamps an account with the window and otherwise emits it as-is.
func Account(raw domain.Record, stamp Stamp) domain.Record {
	rec := raw.Clone()
	stamp.apply(rec)
	return rec
}

// Discover classifies accounts into advertiser and publisher IDs. Accounts
// of any other type are ignored.
func Discover(accounts []domain.Record) (domain.Discovery, error) {
	var d domain.Discovery
	seen := make(map[int64]bool)

	for i, raw := range accounts {
		var a account
		if err := decode(raw, &a); err != nil {
			return domain.Discovery{}, fmt.Errorf("decode account %d: %w", i, err)
		}
		if a.AccountID == 0 || seen[a.AccountID] {
			continue
		}

		switch domain.AccountType(a.AccountType) {
		case domain.Advertiser:
			d.Advertisers = append(d.Advertisers, a.AccountID)
		case domain.Publisher:
			d.Publishers = append(d.Publishers, a.AccountID)
		default:
			continue
		}
		seen[a.AccountID] = true
	}

	return d, nil
}
