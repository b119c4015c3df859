package normalize

import (
	"fmt"
	"strings"

	"awin_tap/internal/domain"
)

type commissionRange struct {
	Type string `mapstructure:"type"`
	Min  any    `mapstructure:"min"`
	Max  any    `mapstructure:"max"`
}

type validDomain struct {
	Domain string `mapstructure:"domain"`
}

// Programme flattens the nested primaryRegion of a programme.
func Programme(raw domain.Record, stamp Stamp) domain.Record {
	rec := raw.Clone()
	flattenRegion(rec)
	stamp.apply(rec)
	return rec
}

// ProgrammeDetails lifts the kpi and programmeInfo objects to the top level,
// flattens the region, joins the valid domains and splits the commission
// ranges into amountmin/amountmax and percentagemin/percentagemax.
//
// When either range type is absent the record is still returned, with the
// missing bounds set to nil, alongside an error wrapping
// domain.ErrMissingCommissionRange. Callers decide whether to emit it.
func ProgrammeDetails(raw domain.Record, stamp Stamp) (domain.Record, error) {
	rec := raw.Clone()

	for _, key := range []string{"kpi", "programmeInfo"} {
		if nested, ok := asMap(rec[key]); ok {
			merge(rec, nested)
		}
		delete(rec, key)
	}

	flattenRegion(rec)

	if v, ok := rec["validDomains"]; ok && v != nil {
		if _, isString := v.(string); !isString {
			var domains []validDomain
			if err := decode(v, &domains); err != nil {
				return nil, fmt.Errorf("decode validDomains: %w", err)
			}
			names := make([]string, 0, len(domains))
			for _, d := range domains {
				names = append(names, d.Domain)
			}
			rec["validDomains"] = strings.Join(names, ",")
		}
	}

	var ranges []commissionRange
	if v := rec["commissionRange"]; v != nil {
		if err := decode(v, &ranges); err != nil {
			return nil, fmt.Errorf("decode commissionRange: %w", err)
		}
	}
	delete(rec, "commissionRange")

	var missing []string
	for _, kind := range []string{"amount", "percentage"} {
		rec[kind+"min"], rec[kind+"max"] = nil, nil

		r, ok := findRange(ranges, kind)
		if !ok {
			missing = append(missing, kind)
			continue
		}
		rec[kind+"min"], rec[kind+"max"] = r.Min, r.Max
	}

	stamp.apply(rec)

	if len(missing) > 0 {
		return rec, fmt.Errorf("%w: %s", domain.ErrMissingCommissionRange, strings.Join(missing, ", "))
	}
	return rec, nil
}

func findRange(ranges []commissionRange, kind string) (commissionRange, bool) {
	for _, r := range ranges {
		if r.Type == kind {
			return r, true
		}
	}
	return commissionRange{}, false
}
