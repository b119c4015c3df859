package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awin_tap/internal/domain"
)

func TestDiscover(t *testing.T) {
	accounts := []domain.Record{
		{"accountId": float64(10), "accountName": "Adv", "accountType": "advertiser"},
		{"accountId": float64(20), "accountName": "Pub", "accountType": "publisher"},
		{"accountId": float64(30), "accountName": "Pub2", "accountType": "publisher"},
		{"accountId": float64(20), "accountName": "Pub", "accountType": "publisher"},
		{"accountId": float64(40), "accountName": "Other", "accountType": "agency"},
	}

	d, err := Discover(accounts)
	require.NoError(t, err)

	assert.Equal(t, []int64{10}, d.Advertisers)
	assert.Equal(t, []int64{20, 30}, d.Publishers)
	assert.Equal(t, d.Publishers, d.IDs(domain.Publisher))
}

func TestDiscover_BadID(t *testing.T) {
	_, err := Discover([]domain.Record{{"accountId": "not-a-number", "accountType": "publisher"}})

	assert.Error(t, err)
}

func TestAccount_Stamps(t *testing.T) {
	rec := Account(domain.Record{"accountId": float64(10), "userRole": "admin"}, dateStamp)

	assert.Equal(t, "admin", rec["userRole"])
	assert.Equal(t, "2021-01-01", rec["startDate"])
	assert.Equal(t, "2021-01-07", rec["endDate"])
}

func TestReportAndCommissionGroup_PassThrough(t *testing.T) {
	row := domain.Record{"advertiserId": float64(1), "publisherId": float64(2), "region": "GB", "clicks": float64(3)}

	rec := Report(row, dateStamp)
	assert.Equal(t, float64(3), rec["clicks"])
	assert.Equal(t, "2021-01-07", rec["endDate"])
	assert.NotContains(t, row, "endDate")

	group := CommissionGroup(domain.Record{"groupId": float64(9)}, dateStamp)
	assert.Equal(t, float64(9), group["groupId"])
	assert.Equal(t, "2021-01-01", group["startDate"])
}
