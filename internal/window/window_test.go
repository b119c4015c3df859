package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"awin_tap/internal/domain"
)

func TestCompute_FirstRunScenario(t *testing.T) {
	ref, err := ParseStartDate("2021-01-01T00:00:00Z")
	require.NoError(t, err)

	ts := Compute(ref, 7, Seconds)
	assert.Equal(t, "2021-01-01T00:00:00", ts.StartString())
	assert.Equal(t, "2021-01-07T23:59:59", ts.EndString())

	dates := Compute(ref, 7, Date)
	assert.Equal(t, "2021-01-01", dates.StartString())
	assert.Equal(t, "2021-01-07", dates.EndString())
}

func TestCompute_Span(t *testing.T) {
	refs := []time.Time{
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, 2, 27, 13, 45, 12, 500, time.UTC),
		time.Date(2023, 10, 28, 23, 59, 59, 0, time.FixedZone("CET", 3600)),
	}

	for _, ref := range refs {
		for _, increment := range []int{1, 2, 7, 30, 365} {
			ts := Compute(ref, increment, Seconds)
			assert.Equal(t, time.Duration(increment)*24*time.Hour-time.Second, ts.End.Sub(ts.Start),
				"seconds window for %s +%d", ref, increment)

			dates := Compute(ref, increment, Date)
			assert.Equal(t, time.Duration(increment-1)*24*time.Hour, dates.End.Sub(dates.Start),
				"date window for %s +%d", ref, increment)
		}
	}
}

func TestCompute_TruncatesToSeconds(t *testing.T) {
	ref := time.Date(2021, 3, 4, 5, 6, 7, 890000000, time.UTC)

	w := Compute(ref, 1, Seconds)

	assert.Equal(t, "2021-03-04T05:06:07", w.StartString())
	assert.Equal(t, "2021-03-05T05:06:06", w.EndString())
}

func TestCompute_KeepsOffset(t *testing.T) {
	ref, err := ParseStartDate("2021-01-01T00:00:00+05:30")
	require.NoError(t, err)

	w := Compute(ref, 1, Seconds)

	assert.Equal(t, "2021-01-01T00:00:00", w.StartString())
	assert.Equal(t, "2021-01-01T23:59:59", w.EndString())
}

func TestConsecutiveWindowsAreContiguous(t *testing.T) {
	ref, err := ParseStartDate("2021-01-01T00:00:00Z")
	require.NoError(t, err)

	prev := Compute(ref, 7, Seconds)
	for run := 0; run < 10; run++ {
		watermark, err := ParseWatermark(FormatWatermark(prev.End))
		require.NoError(t, err)

		next := Compute(NextReference(watermark), 7, Seconds)
		assert.Equal(t, prev.End.Add(time.Second), next.Start)
		assert.True(t, next.Start.After(prev.End))

		prevDates := Compute(prev.Start, 7, Date)
		nextDates := Compute(next.Start, 7, Date)
		assert.Equal(t, prevDates.End.AddDate(0, 0, 1), nextDates.Start)

		prev = next
	}
}

func TestParseStartDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "2021-01-01", "01/01/2021", "2021-01-01T00:00:00"} {
		_, err := ParseStartDate(s)
		assert.ErrorIs(t, err, domain.ErrInvalidDateFormat, s)
	}
}

func TestParseWatermark_AcceptsFractionalSeconds(t *testing.T) {
	got, err := ParseWatermark("2021-01-07T23:59:59.000000+00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 7, 23, 59, 59, 0, time.UTC), got.UTC())
}

func TestCompute_LargeIncrement(t *testing.T) {
	ref := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	ts := Compute(ref, 200000, Seconds)
	assert.True(t, ts.End.After(ts.Start))
	assert.Equal(t, ref.AddDate(0, 0, 200000).Add(-time.Second), ts.End)

	dates := Compute(ref, 200000, Date)
	assert.Equal(t, ref.AddDate(0, 0, 199999), dates.End)
}
