package awin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"awin_tap/internal/domain"
)

const (
	SourceID   = "awin"
	SourceName = "Awin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReportKind selects between the two aggregated report families.
type ReportKind string

const (
	AggregatedReport ReportKind = "aggregated"
	CreativeReport   ReportKind = "creative"
)

// Config holds Awin source configuration.
type Config struct {
	BaseURL        string
	AccessToken    string
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source is a client for the Awin REST API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new Awin source.
func New(cfg Config, logger *slog.Logger) *Source {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		accessToken:    cfg.AccessToken,
		userAgent:      cfg.UserAgent,
		maxAttempts:    maxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// Accounts lists the accounts the token has access to.
func (s *Source) Accounts(ctx context.Context) ([]domain.Record, error) {
	var resp AccountsResponse
	if err := s.get(ctx, "/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// Programmes lists the programmes of a publisher.
func (s *Source) Programmes(ctx context.Context, publisherID int64, params domain.Params) ([]domain.Record, error) {
	var out []domain.Record
	path := fmt.Sprintf("/publishers/%d/programmes", publisherID)
	if err := s.get(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProgrammeDetails fetches the details of one advertiser's programme as seen
// by a publisher.
func (s *Source) ProgrammeDetails(ctx context.Context, publisherID, advertiserID int64) (domain.Record, error) {
	var out domain.Record
	path := fmt.Sprintf("/publishers/%d/programmedetails", publisherID)
	params := domain.Params{"advertiserId": strconv.FormatInt(advertiserID, 10)}
	if err := s.get(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions lists the transactions of an advertiser or publisher account.
func (s *Source) Transactions(ctx context.Context, owner domain.AccountType, id int64, params domain.Params) ([]domain.Record, error) {
	var out []domain.Record
	path := fmt.Sprintf("/%ss/%d/transactions/", owner, id)
	if err := s.get(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report fetches an aggregated report for an advertiser or publisher account.
func (s *Source) Report(ctx context.Context, kind ReportKind, owner domain.AccountType, id int64, params domain.Params) ([]domain.Record, error) {
	var out []domain.Record
	if err := s.get(ctx, reportPath(kind, owner, id), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CommissionGroups lists the commission groups of an advertiser's programme
// as seen by a publisher.
func (s *Source) CommissionGroups(ctx context.Context, publisherID, advertiserID int64) ([]domain.Record, error) {
	var body any
	path := fmt.Sprintf("/publishers/%d/commissiongroups", publisherID)
	params := domain.Params{"advertiserId": strconv.FormatInt(advertiserID, 10)}
	if err := s.get(ctx, path, params, &body); err != nil {
		return nil, err
	}

	items := body
	if envelope, ok := body.(map[string]any); ok {
		items = envelope["commissionGroups"]
	}

	list, _ := items.([]any)
	out := make([]domain.Record, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode response: commission group %d is %T", i, item)
		}
		out = append(out, domain.Record(m))
	}
	return out, nil
}

func reportPath(kind ReportKind, owner domain.AccountType, id int64) string {
	if kind == CreativeReport {
		return fmt.Sprintf("/%ss/%d/reports/creative", owner, id)
	}
	if owner == domain.Advertiser {
		return fmt.Sprintf("/advertisers/%d/reports/publisher", id)
	}
	return fmt.Sprintf("/publishers/%d/reports/advertiser", id)
}

func (s *Source) get(ctx context.Context, path string, params domain.Params, out any) error {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("accessToken", s.accessToken)

	u := s.baseURL + path + "?" + query.Encode()

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.doRequest(ctx, u, out)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) || attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"path", path,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("GET %s: %w", path, err)
}

func (s *Source) doRequest(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newStatusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	statusErr := &StatusError{StatusCode: resp.StatusCode}

	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		statusErr.Message = apiErr.Error
		if apiErr.Description != "" {
			statusErr.Message += ": " + apiErr.Description
		}
		return statusErr
	}

	statusErr.Message = strings.Join(strings.Fields(string(body)), " ")
	return statusErr
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
