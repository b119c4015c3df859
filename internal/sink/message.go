// Package sink delivers schemas, records and state to the systems that
// consume the tap's output.
package sink

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

// Message is the envelope written for every schema, record and state, in
// the Singer message format.
type Message struct {
	Type          string          `json:"type"`
	Stream        string          `json:"stream,omitempty"`
	Record        domain.Record   `json:"record,omitempty"`
	TimeExtracted *time.Time      `json:"time_extracted,omitempty"`
	Schema        *catalog.Schema `json:"schema,omitempty"`
	KeyProperties []string        `json:"key_properties,omitempty"`
	Value         *domain.State   `json:"value,omitempty"`
}

func schemaMessage(stream string, schema catalog.Schema, keys []string) Message {
	return Message{Type: TypeSchema, Stream: stream, Schema: &schema, KeyProperties: keys}
}

func recordMessage(stream string, rec domain.Record, extracted time.Time) Message {
	return Message{Type: TypeRecord, Stream: stream, Record: rec, TimeExtracted: &extracted}
}

func stateMessage(state *domain.State) Message {
	return Message{Type: TypeState, Value: state}
}
