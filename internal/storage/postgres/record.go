package postgres

import (
	"context"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// RecordStore is a record sink that upserts records into tap_records, keyed
// by stream and the stream's key properties. Stream schemas land in
// tap_streams and the final state goes through the state store.
type RecordStore struct {
	db     *sqlx.DB
	states *SyncStateStore

	mu   sync.RWMutex
	keys map[string][]string
}

func NewRecordStore(db *sqlx.DB, states *SyncStateStore) *RecordStore {
	return &RecordStore{
		db:     db,
		states: states,
		keys:   make(map[string][]string),
	}
}

func (s *RecordStore) WriteSchema(ctx context.Context, stream string, schema catalog.Schema, keys []string) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	query, args, err := psql.
		Insert("tap_streams").
		Columns("stream", "schema", "key_properties", "updated_at").
		Values(stream, string(data), pq.Array(keys), sq.Expr("NOW()")).
		Suffix(`ON CONFLICT (stream) DO UPDATE SET
			schema = EXCLUDED.schema,
			key_properties = EXCLUDED.key_properties,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build stream upsert: %w", err)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert stream %s: %w", stream, err)
	}

	s.mu.Lock()
	s.keys[stream] = keys
	s.mu.Unlock()
	return nil
}

func (s *RecordStore) WriteRecord(ctx context.Context, stream string, rec domain.Record) error {
	s.mu.RLock()
	keys, ok := s.keys[stream]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("record for undeclared stream %s", stream)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	query, args, err := psql.
		Insert("tap_records").
		Columns("stream", "record_key", "data", "updated_at").
		Values(stream, rec.Key(keys), string(data), sq.Expr("NOW()")).
		Suffix(`ON CONFLICT (stream, record_key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record upsert: %w", err)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s record: %w", stream, err)
	}
	return nil
}

func (s *RecordStore) WriteState(ctx context.Context, state *domain.State) error {
	return s.states.Save(ctx, state)
}

// CountRecords returns how many records of stream are stored.
func (s *RecordStore) CountRecords(ctx context.Context, stream string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("tap_records").
		Where(sq.Eq{"stream": stream}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s records: %w", stream, err)
	}
	return n, nil
}

// Close is a no-op; the connection pool is owned by the caller.
func (s *RecordStore) Close() error {
	return nil
}
