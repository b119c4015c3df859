package normalize

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"awin_tap/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type customParameter struct {
	Key   string `mapstructure:"key"`
	Value any    `mapstructure:"value"`
}

// Transaction flattens one raw transaction into one record per transaction
// part. Each output record is the shared base (flattened amounts, merged
// click refs, stringified custom parameters, datasettype) with that part's
// fields merged over it.
//
// A record without a transactionParts key is treated as already flattened
// and returned as a single record, which makes Transaction idempotent. An
// empty parts list yields domain.ErrNoTransactionParts.
func Transaction(raw domain.Record, datasetType domain.AccountType, stamp Stamp) ([]domain.Record, error) {
	base := raw.Clone()

	flattenAmount(base, "commissionAmount", "commissionCurrency")
	flattenAmount(base, "saleAmount", "saleCurrency")

	if v, ok := base["clickRefs"]; ok {
		if refs, ok := asMap(v); ok {
			merge(base, refs)
		}
		delete(base, "clickRefs")
	}

	base["datasettype"] = string(datasetType)

	if v := base["customParameters"]; v != nil {
		if _, isString := v.(string); !isString {
			s, err := stringifyParameters(v)
			if err != nil {
				return nil, err
			}
			base["customParameters"] = s
		}
	}

	partsValue, hasParts := base["transactionParts"]
	delete(base, "transactionParts")

	if !hasParts {
		stamp.apply(base)
		return []domain.Record{base}, nil
	}

	parts, _ := partsValue.([]any)
	if len(parts) == 0 {
		return nil, fmt.Errorf("transaction %v: %w", base["id"], domain.ErrNoTransactionParts)
	}

	out := make([]domain.Record, 0, len(parts))
	for i, p := range parts {
		part, ok := asMap(p)
		if !ok {
			return nil, fmt.Errorf("transaction %v: part %d is %T, not an object", base["id"], i, p)
		}
		rec := base.Clone()
		merge(rec, part)
		stamp.apply(rec)
		out = append(out, rec)
	}

	return out, nil
}

// flattenAmount turns {"amount": x, "currency": c} at field into field=x and
// currencyField=c.
func flattenAmount(rec domain.Record, field, currencyField string) {
	m, ok := asMap(rec[field])
	if !ok {
		return
	}
	rec[currencyField] = m["currency"]
	rec[field] = m["amount"]
}

func stringifyParameters(v any) (string, error) {
	var params []customParameter
	if err := decode(v, &params); err != nil {
		return "", fmt.Errorf("decode customParameters: %w", err)
	}

	m := make(map[string]any, len(params))
	for _, p := range params {
		m[p.Key] = p.Value
	}

	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode customParameters: %w", err)
	}
	return string(b), nil
}
