//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_tap_tables.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM tap_records")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM tap_streams")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM tap_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_LoadEmpty() {
	store := NewSyncStateStore(s.db, "tap-awin")

	state, err := store.Load(s.ctx)
	s.NoError(err)
	s.True(state.IsEmpty())
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_SaveAndLoad() {
	store := NewSyncStateStore(s.db, "tap-awin")

	state := &domain.State{
		LastFetched:  "2021-01-07T23:59:59Z",
		Transactions: domain.Params{"startDate": "2021-01-01T00:00:00", "endDate": "2021-01-07T23:59:59"},
	}
	s.Require().NoError(store.Save(s.ctx, state))

	state.LastFetched = "2021-01-14T23:59:59Z"
	s.Require().NoError(store.Save(s.ctx, state))

	loaded, err := store.Load(s.ctx)
	s.NoError(err)
	s.Equal("2021-01-14T23:59:59Z", loaded.LastFetched)
	s.Equal("2021-01-07T23:59:59", loaded.Transactions["endDate"])

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM tap_state")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_SeparateTaps() {
	first := NewSyncStateStore(s.db, "tap-a")
	second := NewSyncStateStore(s.db, "tap-b")

	s.Require().NoError(first.Save(s.ctx, &domain.State{LastFetched: "2021-01-07T23:59:59Z"}))

	loaded, err := second.Load(s.ctx)
	s.NoError(err)
	s.True(loaded.IsEmpty())
}

func (s *PostgresIntegrationSuite) TestRecordStore_UpsertsByKey() {
	states := NewSyncStateStore(s.db, "tap-awin")
	store := NewRecordStore(s.db, states)
	stream := catalog.MustLookup(catalog.Transactions)

	s.Require().NoError(store.WriteSchema(s.ctx, stream.Name, stream.Schema, stream.KeyProperties))

	base := domain.Record{"id": float64(1), "datasettype": "advertiser", "commissionGroupId": float64(10), "amount": 5.0}
	s.Require().NoError(store.WriteRecord(s.ctx, stream.Name, base))

	other := base.Clone()
	other["commissionGroupId"] = float64(11)
	s.Require().NoError(store.WriteRecord(s.ctx, stream.Name, other))

	updated := base.Clone()
	updated["amount"] = 7.5
	s.Require().NoError(store.WriteRecord(s.ctx, stream.Name, updated))

	n, err := store.CountRecords(s.ctx, stream.Name)
	s.NoError(err)
	s.Equal(2, n)

	var amount float64
	err = s.db.GetContext(s.ctx, &amount,
		"SELECT (data->>'amount')::float FROM tap_records WHERE stream = $1 AND record_key = $2",
		stream.Name, "1|advertiser|10")
	s.NoError(err)
	s.Equal(7.5, amount)
}

func (s *PostgresIntegrationSuite) TestRecordStore_UndeclaredStream() {
	store := NewRecordStore(s.db, NewSyncStateStore(s.db, "tap-awin"))

	err := store.WriteRecord(s.ctx, catalog.Accounts, domain.Record{"accountId": float64(1)})
	s.Error(err)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	states := NewSyncStateStore(s.db, "tap-awin")
	store := NewRecordStore(s.db, states)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		return store.WriteState(ctx, &domain.State{LastFetched: "2021-01-07T23:59:59Z"})
	})
	s.NoError(err)

	loaded, err := states.Load(s.ctx)
	s.NoError(err)
	s.Equal("2021-01-07T23:59:59Z", loaded.LastFetched)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	states := NewSyncStateStore(s.db, "tap-awin")

	s.Require().NoError(states.Save(s.ctx, &domain.State{LastFetched: "2021-01-07T23:59:59Z"}))

	errBoom := errors.New("boom")
	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := states.Save(ctx, &domain.State{LastFetched: "2021-01-14T23:59:59Z"}); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	loaded, err := states.Load(s.ctx)
	s.NoError(err)
	s.Equal("2021-01-07T23:59:59Z", loaded.LastFetched)
}
