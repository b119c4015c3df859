package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awin_tap/internal/domain"
)

var dateStamp = Stamp{StartDate: "2021-01-01", EndDate: "2021-01-07"}

func TestProgramme_FlattensRegion(t *testing.T) {
	raw := domain.Record{
		"id":            float64(1),
		"name":          "Shop",
		"primaryRegion": map[string]any{"name": "United Kingdom", "countryCode": "GB"},
	}

	rec := Programme(raw, dateStamp)

	assert.Equal(t, "United Kingdom", rec["countryName"])
	assert.Equal(t, "GB", rec["countryCode"])
	assert.NotContains(t, rec, "primaryRegion")
	assert.Equal(t, "2021-01-01", rec["startDate"])
	assert.Equal(t, "2021-01-07", rec["endDate"])
	assert.Contains(t, raw, "primaryRegion")
}

func TestProgramme_WithoutRegion(t *testing.T) {
	rec := Programme(domain.Record{"id": float64(1)}, dateStamp)

	assert.NotContains(t, rec, "countryName")
	assert.Equal(t, float64(1), rec["id"])
}

func rawDetails() domain.Record {
	return domain.Record{
		"programmeInfo": map[string]any{
			"id":            float64(42),
			"name":          "Shop",
			"currencyCode":  "GBP",
			"primaryRegion": map[string]any{"name": "United Kingdom", "countryCode": "GB"},
			"validDomains": []any{
				map[string]any{"domain": "shop.example"},
				map[string]any{"domain": "m.shop.example"},
			},
		},
		"kpi": map[string]any{
			"averagePaymentTime": "30 days",
			"approvalPercentage": float64(95),
			"epc":                float64(0.12),
		},
		"commissionRange": []any{
			map[string]any{"type": "percentage", "min": float64(2), "max": float64(8)},
			map[string]any{"type": "amount", "min": float64(1), "max": float64(15)},
		},
	}
}

func TestProgrammeDetails_Flattens(t *testing.T) {
	rec, err := ProgrammeDetails(rawDetails(), dateStamp)
	require.NoError(t, err)

	assert.Equal(t, float64(42), rec["id"])
	assert.Equal(t, "Shop", rec["name"])
	assert.Equal(t, "30 days", rec["averagePaymentTime"])
	assert.Equal(t, float64(95), rec["approvalPercentage"])
	assert.Equal(t, "GB", rec["countryCode"])
	assert.Equal(t, "United Kingdom", rec["countryName"])
	assert.Equal(t, "shop.example,m.shop.example", rec["validDomains"])
	assert.Equal(t, float64(1), rec["amountmin"])
	assert.Equal(t, float64(15), rec["amountmax"])
	assert.Equal(t, float64(2), rec["percentagemin"])
	assert.Equal(t, float64(8), rec["percentagemax"])
	assert.Equal(t, "2021-01-01", rec["startDate"])

	for _, key := range []string{"kpi", "programmeInfo", "primaryRegion", "commissionRange"} {
		assert.NotContains(t, rec, key)
	}
}

func TestProgrammeDetails_MissingRange(t *testing.T) {
	raw := rawDetails()
	raw["commissionRange"] = []any{
		map[string]any{"type": "percentage", "min": float64(2), "max": float64(8)},
	}

	rec, err := ProgrammeDetails(raw, dateStamp)

	require.ErrorIs(t, err, domain.ErrMissingCommissionRange)
	assert.Contains(t, err.Error(), "amount")
	require.NotNil(t, rec)
	assert.Nil(t, rec["amountmin"])
	assert.Nil(t, rec["amountmax"])
	assert.Equal(t, float64(2), rec["percentagemin"])
}

func TestProgrammeDetails_NoRanges(t *testing.T) {
	raw := rawDetails()
	delete(raw, "commissionRange")

	rec, err := ProgrammeDetails(raw, dateStamp)

	require.ErrorIs(t, err, domain.ErrMissingCommissionRange)
	assert.Contains(t, rec, "percentagemin")
	assert.Nil(t, rec["percentagemin"])
}
