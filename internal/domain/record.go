package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is a single flattened row emitted to a sink.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Params holds the query parameters of one resource block.
type Params map[string]string

// Clone returns a copy of p. A nil receiver yields an empty, non-nil map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// UnmarshalJSON accepts blocks whose values are not strings, as written by
// older state files, and renders each scalar as its query string form.
// Nested values are kept as their JSON text; nulls are dropped.
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}

	out := make(Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("encode param %s: %w", k, err)
			}
			out[k] = string(b)
		}
	}
	*p = out
	return nil
}

// AccountType discriminates the two roles an Awin account can have.
type AccountType string

const (
	Advertiser AccountType = "advertiser"
	Publisher  AccountType = "publisher"
)

// Discovery is the set of entity IDs found by the accounts step. It is
// built once per run and never mutated afterwards.
type Discovery struct {
	Advertisers []int64
	Publishers  []int64
}

// IDs returns the entity IDs for the given role.
func (d Discovery) IDs(t AccountType) []int64 {
	if t == Advertiser {
		return d.Advertisers
	}
	return d.Publishers
}

// Key joins the values of keys in r with "|". Missing values render as empty
// strings; whole-number floats render without a fraction.
func (r Record) Key(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		switch v := r[k].(type) {
		case nil:
		case float64:
			if v == math.Trunc(v) && math.Abs(v) < 1e15 {
				parts[i] = strconv.FormatInt(int64(v), 10)
			} else {
				parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, "|")
}
