// Package rest talks to a Supabase project (or any PostgREST server) over its
// REST API, using the service-role key.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/aqasim81/supamigrate/internal/tracker"
)

const (
	restPrefix      = "/rest/v1/"
	defaultTimeout  = 60 * time.Second
	defaultPageSize = 1000
)

// Client implements the runner backend on top of PostgREST.
type Client struct {
	baseURL    string
	key        string
	clientInfo string
	pageSize   int
	timeout    time.Duration
	http       *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
// It has no effect when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClientInfo sets the X-Client-Info header sent with every request.
func WithClientInfo(info string) Option {
	return func(c *Client) { c.clientInfo = info }
}

// WithPageSize sets how many ledger rows are requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a Client for the project at baseURL authenticated with key.
func New(baseURL, key string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		key:      key,
		pageSize: defaultPageSize,
		timeout:  defaultTimeout,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}

	return c
}

// ProbeLedger performs a trivial read of the ledger table.
func (c *Client) ProbeLedger(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	_, err := c.do(ctx, http.MethodGet, tracker.LedgerTable, q, nil, nil)
	if err != nil {
		return classifyLedgerError(err)
	}

	return nil
}

// ProbeExecFunction calls the exec function with a no-op statement.
func (c *Client) ProbeExecFunction(ctx context.Context) error {
	if err := c.ExecSQL(ctx, "SELECT 1"); err != nil {
		return classifyFunctionError(err)
	}

	return nil
}

// ListApplied returns every ledger row ordered by migration name. PostgREST
// may silently cap a page below the requested limit (db-max-rows), so paging
// only stops on an empty page.
func (c *Client) ListApplied(ctx context.Context) ([]tracker.AppliedMigration, error) {
	var applied []tracker.AppliedMigration

	for {
		q := url.Values{}
		q.Set("select", "id,migration_name,checksum,executed_at,execution_time_ms")
		q.Set("order", "migration_name.asc")
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(len(applied)))

		body, err := c.do(ctx, http.MethodGet, tracker.LedgerTable, q, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("querying applied migrations: %w", err)
		}

		page, err := decodeRows(body)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 {
			return applied, nil
		}

		applied = append(applied, page...)
	}
}

// ExecSQL sends sql as a single opaque statement to the exec function.
func (c *Client) ExecSQL(ctx context.Context, sql string) error {
	body, err := sjson.SetBytes([]byte(`{}`), tracker.ExecFunctionArg, sql)
	if err != nil {
		return fmt.Errorf("encoding rpc body: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, "rpc/"+tracker.ExecFunction, nil, body, nil); err != nil {
		return fmt.Errorf("calling %s: %w", tracker.ExecFunction, err)
	}

	return nil
}

// RecordApplied inserts a ledger row.
func (c *Client) RecordApplied(ctx context.Context, p tracker.RecordParams) error {
	body, err := encodeRecord(p)
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Prefer", "return=minimal")

	if _, err := c.do(ctx, http.MethodPost, tracker.LedgerTable, nil, body, headers); err != nil {
		return fmt.Errorf("recording migration %s: %w", p.MigrationName, err)
	}

	return nil
}

func (c *Client) do(
	ctx context.Context,
	method, resource string,
	query url.Values,
	body []byte,
	headers http.Header,
) ([]byte, error) {
	endpoint := c.baseURL + restPrefix + resource
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.clientInfo != "" {
		req.Header.Set("X-Client-Info", c.clientInfo)
	}

	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, resource, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response of %s %s: %w", method, resource, err)
	}

	c.logger.DebugContext(ctx, "postgrest request",
		"method", method,
		"resource", resource,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, parseAPIError(resp.StatusCode, data)
	}

	return data, nil
}

func encodeRecord(p tracker.RecordParams) ([]byte, error) {
	body := []byte(`{}`)

	fields := []struct {
		path  string
		value any
	}{
		{"migration_name", p.MigrationName},
		{"checksum", p.Checksum},
		{"execution_time_ms", p.ExecutionTimeMs},
	}

	for _, f := range fields {
		var err error

		body, err = sjson.SetBytes(body, f.path, f.value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.path, err)
		}
	}

	return body, nil
}

func decodeRows(body []byte) ([]tracker.AppliedMigration, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: ledger response is not JSON", ErrUnexpectedResponse)
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: ledger response is not an array", ErrUnexpectedResponse)
	}

	rows := result.Array()
	applied := make([]tracker.AppliedMigration, 0, len(rows))

	for _, row := range rows {
		m := tracker.AppliedMigration{
			ID:              row.Get("id").Int(),
			MigrationName:   row.Get("migration_name").String(),
			Checksum:        row.Get("checksum").String(),
			ExecutionTimeMs: int(row.Get("execution_time_ms").Int()),
		}

		if ts := row.Get("executed_at").String(); ts != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				m.ExecutedAt = parsed
			}
		}

		applied = append(applied, m)
	}

	return applied, nil
}
