package domain

import (
	"fmt"
	"time"
)

// EntityResult is the outcome of fetching one resource for one entity
// (or one publisher/advertiser pair).
type EntityResult struct {
	Stream       string
	AdvertiserID int64
	PublisherID  int64
	Records      int
	Warnings     int
	Err          error
}

// Skipped reports whether the entity produced nothing because its fetch failed.
func (r EntityResult) Skipped() bool {
	return r.Err != nil
}

func (r EntityResult) String() string {
	switch {
	case r.AdvertiserID != 0 && r.PublisherID != 0:
		return fmt.Sprintf("%s publisher=%d advertiser=%d", r.Stream, r.PublisherID, r.AdvertiserID)
	case r.PublisherID != 0:
		return fmt.Sprintf("%s publisher=%d", r.Stream, r.PublisherID)
	case r.AdvertiserID != 0:
		return fmt.Sprintf("%s advertiser=%d", r.Stream, r.AdvertiserID)
	default:
		return r.Stream
	}
}

// RunReport aggregates the per-entity results of one extraction run.
type RunReport struct {
	Discovery Discovery
	Results   []EntityResult
}

// Emitted returns the number of records emitted for stream, accounts included.
func (r *RunReport) Emitted(stream string) int {
	n := 0
	for _, res := range r.Results {
		if res.Stream == stream {
			n += res.Records
		}
	}
	return n
}

// Skipped returns the results whose fetch failed.
func (r *RunReport) Skipped() []EntityResult {
	var out []EntityResult
	for _, res := range r.Results {
		if res.Skipped() {
			out = append(out, res)
		}
	}
	return out
}

// SyncStats holds statistics about a sync operation.
type SyncStats struct {
	RunID       string
	WindowStart string
	WindowEnd   string
	Emitted     map[string]int
	Skipped     int
	Warnings    int
	Duration    time.Duration
}
