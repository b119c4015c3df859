package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"awin_tap/internal/catalog"
	"awin_tap/internal/config"
	"awin_tap/internal/cursor"
	"awin_tap/internal/domain"
	"awin_tap/internal/normalize"
	"awin_tap/internal/source/awin"
)

// Extractor walks the resources of one window in a fixed order and writes
// normalized records to the sink. A failed fetch skips only the entity it
// was for; a failed accounts fetch or sink write aborts the run.
type Extractor struct {
	source Source
	sink   RecordSink
	logger *slog.Logger

	longPause  time.Duration
	shortPause time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewExtractor(source Source, sink RecordSink, logger *slog.Logger, cfg config.SyncConfig) *Extractor {
	return &Extractor{
		source:     source,
		sink:       sink,
		logger:     logger.With("source", source.ID()),
		longPause:  cfg.LongPause,
		shortPause: cfg.ShortPause,
		sleep:      sleepContext,
	}
}

// fetched is what one entity's fetch produced, before it is written.
type fetched struct {
	records  []domain.Record
	warnings int
}

func (e *Extractor) Extract(ctx context.Context, plan *cursor.Plan) (*domain.RunReport, error) {
	report := &domain.RunReport{}
	dates := normalize.StampFor(plan.Dates)
	stamps := normalize.StampFor(plan.Timestamps)

	discovery, err := e.accounts(ctx, dates, report)
	if err != nil {
		return report, err
	}
	report.Discovery = discovery

	e.logger.Info("discovered accounts",
		"advertisers", len(discovery.Advertisers),
		"publishers", len(discovery.Publishers),
	)

	steps := []func(context.Context) error{
		func(ctx context.Context) error { return e.programmes(ctx, plan, dates, report) },
		func(ctx context.Context) error { return e.pause(ctx, e.longPause) },
		func(ctx context.Context) error { return e.programmeDetails(ctx, dates, report) },
		func(ctx context.Context) error { return e.pause(ctx, e.longPause) },
		func(ctx context.Context) error { return e.transactions(ctx, plan.Transactions, stamps, report) },
		func(ctx context.Context) error {
			return e.reports(ctx, catalog.AggReport, awin.AggregatedReport, plan.AggregatedReport, dates, report)
		},
		func(ctx context.Context) error {
			return e.reports(ctx, catalog.AggReportCreative, awin.CreativeReport, plan.AggregatedByCreative, dates, report)
		},
		func(ctx context.Context) error { return e.commissionGroups(ctx, dates, report) },
	}

	for _, step := range steps {
		if err := step(ctx); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (e *Extractor) accounts(ctx context.Context, stamp normalize.Stamp, report *domain.RunReport) (domain.Discovery, error) {
	raw, err := e.source.Accounts(ctx)
	if err != nil {
		return domain.Discovery{}, fmt.Errorf("%w: %w", domain.ErrAccountsUnavailable, err)
	}

	discovery, err := normalize.Discover(raw)
	if err != nil {
		return domain.Discovery{}, fmt.Errorf("%w: %w", domain.ErrAccountsUnavailable, err)
	}

	if err := e.declare(ctx, catalog.Accounts); err != nil {
		return domain.Discovery{}, err
	}

	records := make([]domain.Record, 0, len(raw))
	for _, a := range raw {
		records = append(records, normalize.Account(a, stamp))
	}

	res := domain.EntityResult{Stream: catalog.Accounts}
	if err := e.record(ctx, report, res, fetched{records: records}, nil); err != nil {
		return domain.Discovery{}, err
	}
	return discovery, nil
}

func (e *Extractor) programmes(ctx context.Context, plan *cursor.Plan, stamp normalize.Stamp, report *domain.RunReport) error {
	if err := e.declare(ctx, catalog.Programmes); err != nil {
		return err
	}

	for _, publisherID := range report.Discovery.Publishers {
		res := domain.EntityResult{Stream: catalog.Programmes, PublisherID: publisherID}

		raw, fetchErr := e.source.Programmes(ctx, publisherID, plan.Programmes)
		var out fetched
		for _, p := range raw {
			out.records = append(out.records, normalize.Programme(p, stamp))
		}

		if err := e.record(ctx, report, res, out, fetchErr); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) programmeDetails(ctx context.Context, stamp normalize.Stamp, report *domain.RunReport) error {
	if err := e.declare(ctx, catalog.ProgrammesDetails); err != nil {
		return err
	}

	for _, publisherID := range report.Discovery.Publishers {
		for _, advertiserID := range report.Discovery.Advertisers {
			res := domain.EntityResult{
				Stream:       catalog.ProgrammesDetails,
				PublisherID:  publisherID,
				AdvertiserID: advertiserID,
			}

			out, fetchErr := e.fetchProgrammeDetails(ctx, publisherID, advertiserID, stamp)
			if err := e.record(ctx, report, res, out, fetchErr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Extractor) fetchProgrammeDetails(ctx context.Context, publisherID, advertiserID int64, stamp normalize.Stamp) (fetched, error) {
	raw, err := e.source.ProgrammeDetails(ctx, publisherID, advertiserID)
	if err != nil {
		return fetched{}, err
	}

	rec, err := normalize.ProgrammeDetails(raw, stamp)
	switch {
	case errors.Is(err, domain.ErrMissingCommissionRange):
		e.logger.Warn("programme details without commission range",
			"resource", catalog.ProgrammesDetails,
			"publisher_id", publisherID,
			"advertiser_id", advertiserID,
			"error", err,
		)
		return fetched{records: []domain.Record{rec}, warnings: 1}, nil
	case err != nil:
		return fetched{}, err
	}
	return fetched{records: []domain.Record{rec}}, nil
}

func (e *Extractor) transactions(ctx context.Context, params domain.Params, stamp normalize.Stamp, report *domain.RunReport) error {
	if err := e.declare(ctx, catalog.Transactions); err != nil {
		return err
	}

	for _, owner := range []domain.AccountType{domain.Advertiser, domain.Publisher} {
		for _, id := range report.Discovery.IDs(owner) {
			res := entityFor(catalog.Transactions, owner, id)

			out, fetchErr := e.fetchTransactions(ctx, owner, id, params, stamp)
			if err := e.record(ctx, report, res, out, fetchErr); err != nil {
				return err
			}
		}

		if err := e.pause(ctx, e.shortPause); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) fetchTransactions(ctx context.Context, owner domain.AccountType, id int64, params domain.Params, stamp normalize.Stamp) (fetched, error) {
	raw, err := e.source.Transactions(ctx, owner, id, params)
	if err != nil {
		return fetched{}, err
	}

	var out fetched
	for _, t := range raw {
		recs, err := normalize.Transaction(t, owner, stamp)
		if errors.Is(err, domain.ErrNoTransactionParts) {
			e.logger.Warn("skipping transaction",
				"resource", catalog.Transactions,
				"owner", owner,
				"id", id,
				"error", err,
			)
			out.warnings++
			continue
		}
		if err != nil {
			return fetched{}, err
		}
		out.records = append(out.records, recs...)
	}
	return out, nil
}

func (e *Extractor) reports(ctx context.Context, stream string, kind awin.ReportKind, params domain.Params, stamp normalize.Stamp, report *domain.RunReport) error {
	if err := e.declare(ctx, stream); err != nil {
		return err
	}

	for _, owner := range []domain.AccountType{domain.Advertiser, domain.Publisher} {
		for _, id := range report.Discovery.IDs(owner) {
			res := entityFor(stream, owner, id)

			raw, fetchErr := e.source.Report(ctx, kind, owner, id, params)
			var out fetched
			for _, row := range raw {
				out.records = append(out.records, normalize.Report(row, stamp))
			}

			if err := e.record(ctx, report, res, out, fetchErr); err != nil {
				return err
			}
		}

		if err := e.pause(ctx, e.shortPause); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) commissionGroups(ctx context.Context, stamp normalize.Stamp, report *domain.RunReport) error {
	if err := e.declare(ctx, catalog.CommissionGroups); err != nil {
		return err
	}

	for _, publisherID := range report.Discovery.Publishers {
		for _, advertiserID := range report.Discovery.Advertisers {
			res := domain.EntityResult{
				Stream:       catalog.CommissionGroups,
				PublisherID:  publisherID,
				AdvertiserID: advertiserID,
			}

			raw, fetchErr := e.source.CommissionGroups(ctx, publisherID, advertiserID)
			var out fetched
			for _, g := range raw {
				out.records = append(out.records, normalize.CommissionGroup(g, stamp))
			}

			if err := e.record(ctx, report, res, out, fetchErr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Extractor) declare(ctx context.Context, stream string) error {
	s := catalog.MustLookup(stream)
	if err := e.sink.WriteSchema(ctx, s.Name, s.Schema, s.KeyProperties); err != nil {
		return fmt.Errorf("write %s schema: %w", stream, err)
	}
	return nil
}

// record writes out for res, or logs res as skipped when fetchErr is set.
// Only sink failures and cancellation are returned.
func (e *Extractor) record(ctx context.Context, report *domain.RunReport, res domain.EntityResult, out fetched, fetchErr error) error {
	if fetchErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		res.Err = fetchErr
		report.Results = append(report.Results, res)
		e.logger.Warn("fetch failed, skipping entity",
			"resource", res.Stream,
			"publisher_id", res.PublisherID,
			"advertiser_id", res.AdvertiserID,
			"error", fetchErr,
		)
		return nil
	}

	for _, rec := range out.records {
		if err := e.sink.WriteRecord(ctx, res.Stream, rec); err != nil {
			return fmt.Errorf("write %s record: %w", res.Stream, err)
		}
	}

	res.Records = len(out.records)
	res.Warnings = out.warnings
	report.Results = append(report.Results, res)

	e.logger.Debug("entity extracted", "entity", res.String(), "records", res.Records)
	return nil
}

func (e *Extractor) pause(ctx context.Context, d time.Duration) error {
	return e.sleep(ctx, d)
}

func entityFor(stream string, owner domain.AccountType, id int64) domain.EntityResult {
	res := domain.EntityResult{Stream: stream}
	if owner == domain.Advertiser {
		res.AdvertiserID = id
	} else {
		res.PublisherID = id
	}
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
