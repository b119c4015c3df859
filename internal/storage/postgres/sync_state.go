package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"awin_tap/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SyncStateStore keeps one cursor row per tap.
type SyncStateStore struct {
	db    *sqlx.DB
	tapID string
}

func NewSyncStateStore(db *sqlx.DB, tapID string) *SyncStateStore {
	return &SyncStateStore{db: db, tapID: tapID}
}

func (s *SyncStateStore) Load(ctx context.Context) (*domain.State, error) {
	var raw []byte
	query := `SELECT state FROM tap_state WHERE tap_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &raw, query, s.tapID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

func (s *SyncStateStore) Save(ctx context.Context, state *domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	query := `
		INSERT INTO tap_state (tap_id, last_fetched, state, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tap_id) DO UPDATE SET
			last_fetched = EXCLUDED.last_fetched,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, s.tapID, state.LastFetched, string(data)); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}
