// Package airtable implements the storage adapter for the bot: a paced,
// retried HTTP client for the Airtable API and the record-level operations
// the core needs on top of it.
package airtable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultBaseURL = "https://api.airtable.com/v0"

	// Airtable allows 5 requests per second per base. All outbound calls
	// pass through a fixed-size admission gate with a pacing delay per slot.
	maxInFlight = 5
	requestPace = 200 * time.Millisecond

	// The batch delete endpoint accepts at most 10 records per request.
	deleteBatchSize = 10
)

// APIError carries the remote store's error payload for a failed request.
type APIError struct {
	Status  int
	URL     string
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable error of type %q with message %q (status %d, url %s)",
		e.Type, e.Message, e.Status, e.URL)
}

// record is the Airtable wire envelope for a single row.
type record struct {
	ID          string         `json:"id,omitempty"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

// RetryOptions bounds the exponential backoff around each request.
type RetryOptions struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

func defaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxElapsedTime:  30 * time.Second,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxRetries:      3,
	}
}

// withRetry executes the operation with exponential backoff. Operations
// signal non-retryable failures by returning backoff.Permanent errors.
func withRetry[T any](ctx context.Context, operation func() (T, error), opts RetryOptions) (T, error) {
	var result T

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(opts.MaxElapsedTime),
		backoff.WithInitialInterval(opts.InitialInterval),
		backoff.WithMaxInterval(opts.MaxInterval),
	), opts.MaxRetries)

	backoffOperation := func() error {
		var err error
		result, err = operation()
		return err
	}

	err := backoff.Retry(backoffOperation, backoff.WithContext(b, ctx))

	return result, err
}

// Client is the low-level Airtable HTTP client. Callers block on the
// admission gate when it is full rather than failing.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	gate    *semaphore.Weighted
	pace    time.Duration
	retry   RetryOptions
	logger  *zap.Logger
}

// ClientOption customizes a Client, mainly for tests.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL + "/" }
}

// WithPace overrides the per-slot pacing delay.
func WithPace(pace time.Duration) ClientOption {
	return func(c *Client) { c.pace = pace }
}

// WithRetry overrides the retry bounds.
func WithRetry(opts RetryOptions) ClientOption {
	return func(c *Client) { c.retry = opts }
}

// NewClient builds a client for the given Airtable base.
func NewClient(baseID, apiKey string, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{},
		baseURL: defaultBaseURL + "/" + baseID + "/",
		apiKey:  apiKey,
		gate:    semaphore.NewWeighted(maxInFlight),
		pace:    requestPace,
		retry:   defaultRetryOptions(),
		logger:  logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type sortKey struct {
	field     string
	direction string
}

// listQuery parameterizes a table listing.
type listQuery struct {
	filterByFormula string
	view            string
	sort            []sortKey
	maxRecords      int
}

// list fetches records from a table, following pagination offsets until the
// listing is exhausted or maxRecords is reached.
func (c *Client) list(ctx context.Context, table string, q listQuery) ([]record, error) {
	var records []record

	offset := ""

	for {
		params := url.Values{}
		if q.filterByFormula != "" {
			params.Set("filterByFormula", q.filterByFormula)
		}

		if q.view != "" {
			params.Set("view", q.view)
		}

		for i, s := range q.sort {
			params.Set(fmt.Sprintf("sort[%d][field]", i), s.field)
			params.Set(fmt.Sprintf("sort[%d][direction]", i), s.direction)
		}

		if q.maxRecords > 0 {
			params.Set("maxRecords", strconv.Itoa(q.maxRecords))
		}

		if offset != "" {
			params.Set("offset", offset)
		}

		data, err := c.do(ctx, http.MethodGet, c.baseURL+table, params, nil)
		if err != nil {
			return nil, err
		}

		var page listResponse
		if err := sonic.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to decode list response: %w", err)
		}

		records = append(records, page.Records...)

		if page.Offset == "" || (q.maxRecords > 0 && len(records) >= q.maxRecords) {
			return records, nil
		}

		offset = page.Offset
	}
}

// get fetches a single record by its store primary key.
func (c *Client) get(ctx context.Context, table, id string) (record, error) {
	data, err := c.do(ctx, http.MethodGet, c.baseURL+table+"/"+id, nil, nil)
	if err != nil {
		return record{}, err
	}

	var rec record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to decode record: %w", err)
	}

	return rec, nil
}

// create inserts a new record and returns it with its assigned primary key.
func (c *Client) create(ctx context.Context, table string, fields map[string]any) (record, error) {
	payload := map[string]any{"fields": fields}

	data, err := c.do(ctx, http.MethodPost, c.baseURL+table, nil, payload)
	if err != nil {
		return record{}, err
	}

	var rec record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to decode created record: %w", err)
	}

	return rec, nil
}

// update patches the given fields of an existing record.
func (c *Client) update(ctx context.Context, table, id string, fields map[string]any) error {
	payload := map[string]any{"fields": fields}

	_, err := c.do(ctx, http.MethodPatch, c.baseURL+table+"/"+id, nil, payload)

	return err
}

// deleteRecords removes records in batches of at most deleteBatchSize.
func (c *Client) deleteRecords(ctx context.Context, table string, ids []string) error {
	for len(ids) > 0 {
		batch := ids
		if len(batch) > deleteBatchSize {
			batch = batch[:deleteBatchSize]
		}

		ids = ids[len(batch):]

		if len(batch) == 1 {
			if _, err := c.do(ctx, http.MethodDelete, c.baseURL+table+"/"+batch[0], nil, nil); err != nil {
				return err
			}

			continue
		}

		params := url.Values{"records[]": batch}
		if _, err := c.do(ctx, http.MethodDelete, c.baseURL+table, params, nil); err != nil {
			return err
		}
	}

	return nil
}

// do acquires a gate slot, runs the request with retry and releases the
// slot after the pacing delay.
func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, payload any) ([]byte, error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	defer func() {
		time.Sleep(c.pace)
		c.gate.Release(1)
	}()

	var body []byte

	if payload != nil {
		var err error
		if body, err = sonic.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}
	}

	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	data, err := withRetry(ctx, func() ([]byte, error) {
		return c.roundTrip(ctx, method, rawURL, body)
	}, c.retry)
	if err != nil {
		c.logger.Warn("Airtable request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err))

		return nil, err
	}

	return data, nil
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := newAPIError(resp.StatusCode, rawURL, data)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, apiErr
		}

		return nil, backoff.Permanent(apiErr)
	}

	return data, nil
}

func newAPIError(status int, rawURL string, data []byte) *APIError {
	apiErr := &APIError{Status: status, URL: rawURL}

	var envelope struct {
		Error any `json:"error"`
	}

	if err := sonic.Unmarshal(data, &envelope); err != nil {
		return apiErr
	}

	switch e := envelope.Error.(type) {
	case string:
		apiErr.Type = e
	case map[string]any:
		apiErr.Type, _ = e["type"].(string)
		apiErr.Message, _ = e["message"].(string)
	}

	return apiErr
}
