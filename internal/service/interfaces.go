package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"awin_tap/internal/catalog"
	"awin_tap/internal/domain"
	"awin_tap/internal/source/awin"
)

type Source interface {
	ID() string
	Name() string
	Accounts(ctx context.Context) ([]domain.Record, error)
	Programmes(ctx context.Context, publisherID int64, params domain.Params) ([]domain.Record, error)
	ProgrammeDetails(ctx context.Context, publisherID, advertiserID int64) (domain.Record, error)
	Transactions(ctx context.Context, owner domain.AccountType, id int64, params domain.Params) ([]domain.Record, error)
	Report(ctx context.Context, kind awin.ReportKind, owner domain.AccountType, id int64, params domain.Params) ([]domain.Record, error)
	CommissionGroups(ctx context.Context, publisherID, advertiserID int64) ([]domain.Record, error)
}

type RecordSink interface {
	WriteSchema(ctx context.Context, stream string, schema catalog.Schema, keys []string) error
	WriteRecord(ctx context.Context, stream string, rec domain.Record) error
	WriteState(ctx context.Context, state *domain.State) error
	Close() error
}

type StateStore interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
