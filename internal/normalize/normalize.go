// Package normalize flattens raw Awin API objects into the flat records
// declared in the catalog. Every function returns new records and leaves its
// input untouched.
package normalize

import (
	"github.com/mitchellh/mapstructure"

	"awin_tap/internal/domain"
	"awin_tap/internal/window"
)

// Stamp carries the window bounds written into every record.
type Stamp struct {
	StartDate string
	EndDate   string
}

// StampFor formats w the way records carry it.
func StampFor(w window.Window) Stamp {
	return Stamp{StartDate: w.StartString(), EndDate: w.EndString()}
}

func (s Stamp) apply(rec domain.Record) {
	rec["startDate"] = s.StartDate
	rec["endDate"] = s.EndDate
}

// Report passes an aggregated report row through, stamped with the window.
func Report(raw domain.Record, stamp Stamp) domain.Record {
	rec := raw.Clone()
	stamp.apply(rec)
	return rec
}

// CommissionGroup passes a commission group through, stamped with the window.
func CommissionGroup(raw domain.Record, stamp Stamp) domain.Record {
	rec := raw.Clone()
	stamp.apply(rec)
	return rec
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case domain.Record:
		return m, true
	}
	return nil, false
}

func merge(dst domain.Record, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// flattenRegion replaces a nested primaryRegion with countryName/countryCode.
func flattenRegion(rec domain.Record) {
	v, ok := rec["primaryRegion"]
	if !ok {
		return
	}
	if region, ok := asMap(v); ok {
		rec["countryName"] = region["name"]
		rec["countryCode"] = region["countryCode"]
	}
	delete(rec, "primaryRegion")
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
