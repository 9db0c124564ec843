// Package notifyapi is the HTTP client of the ADE Notify API manifest
// endpoints.
package notifyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quantmind-br/adenotifier-go/internal/domain"
	"github.com/quantmind-br/adenotifier-go/internal/utils"
	"github.com/quantmind-br/adenotifier-go/pkg/version"
)

// Ensure Client implements domain.StateClient
var _ domain.StateClient = (*Client)(nil)

// tenantPath is the fixed prefix of every source entity resource
const tenantPath = "/tenants/local/installations/local/environments/local"

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Client talks to the Notify API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	apiKeySecret string
	retrier      *Retrier
	logger       *utils.Logger
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	// BaseURL is the Notify API root, e.g.
	// https://external-api.{environment}.datahub.{tenant}.saas.agiledataengine.com:443/notify-api
	BaseURL      string
	APIKey       string
	APIKeySecret string
	Timeout      time.Duration
	Retry        RetrierOptions
	HTTPClient   *http.Client
	Logger       *utils.Logger
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout: 30 * time.Second,
		Retry:   DefaultRetrierOptions(),
	}
}

// NewClient creates a new Notify API client
func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, domain.NewConfigurationError("", "api.base_url", "is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, domain.NewConfigurationError("", "api.base_url", err.Error())
	}
	if opts.APIKey == "" || opts.APIKeySecret == "" {
		return nil, domain.NewConfigurationError("", "api.api_key", "key and secret are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultClientOptions().Timeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger.OrNop().WithComponent("notifyapi")
	retryOpts := opts.Retry
	retryOpts.Logger = logger

	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		apiKeySecret: opts.APIKeySecret,
		retrier:      NewRetrier(retryOpts),
		logger:       logger,
	}, nil
}

// Search lists manifests of a source in the given state, ordered by
// creation time ascending. StateAny lists every state.
func (c *Client) Search(ctx context.Context, key domain.SourceKey, state domain.State) ([]domain.Record, error) {
	target := c.manifestsURL(key)
	if state != domain.StateAny {
		target += "?state=" + url.QueryEscape(strings.ToUpper(string(state)))
	}

	var records []domain.Record
	if err := c.do(ctx, http.MethodGet, target, "", nil, &records); err != nil {
		return nil, fmt.Errorf("search manifests of %s: %w", key, err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Created.Before(records[j].Created.Time)
	})
	return records, nil
}

// Create opens a new manifest
func (c *Client) Create(ctx context.Context, key domain.SourceKey, req domain.CreateRequest) (*domain.Record, error) {
	var record domain.Record
	if err := c.do(ctx, http.MethodPost, c.manifestsURL(key), "", req, &record); err != nil {
		return nil, fmt.Errorf("create manifest for %s: %w", key, err)
	}
	if record.ID == "" {
		return nil, fmt.Errorf("create manifest for %s: response carries no manifest id", key)
	}
	return &record, nil
}

// Get fetches a manifest by id
func (c *Client) Get(ctx context.Context, key domain.SourceKey, id string) (*domain.Record, error) {
	if id == "" {
		return nil, domain.ErrManifestIDMissing
	}
	var record domain.Record
	if err := c.do(ctx, http.MethodGet, c.manifestURL(key, id), "", nil, &record); err != nil {
		return nil, fmt.Errorf("get manifest %s: %w", id, err)
	}
	return &record, nil
}

// Entries fetches the entries of a manifest
func (c *Client) Entries(ctx context.Context, key domain.SourceKey, id string) ([]domain.Entry, error) {
	if id == "" {
		return nil, domain.ErrManifestIDMissing
	}
	var entries []domain.Entry
	if err := c.do(ctx, http.MethodGet, c.manifestURL(key, id)+"/entries", "", nil, &entries); err != nil {
		return nil, fmt.Errorf("get entries of manifest %s: %w", id, err)
	}
	return entries, nil
}

// AddEntry appends one entry to an OPEN manifest
func (c *Client) AddEntry(ctx context.Context, key domain.SourceKey, id string, entry domain.Entry) error {
	if id == "" {
		return domain.ErrManifestIDMissing
	}
	if err := c.do(ctx, http.MethodPost, c.manifestURL(key, id)+"/entries", id, entry, nil); err != nil {
		return fmt.Errorf("add entry to manifest %s: %w", id, err)
	}
	return nil
}

// PutEntries replaces the entries of an OPEN manifest
func (c *Client) PutEntries(ctx context.Context, key domain.SourceKey, id string, entries []domain.Entry) error {
	if id == "" {
		return domain.ErrManifestIDMissing
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	if err := c.do(ctx, http.MethodPut, c.manifestURL(key, id)+"/entries", id, entries, nil); err != nil {
		return fmt.Errorf("put entries to manifest %s: %w", id, err)
	}
	return nil
}

// Notify transitions an OPEN manifest to NOTIFIED
func (c *Client) Notify(ctx context.Context, key domain.SourceKey, id string) error {
	if id == "" {
		return domain.ErrManifestIDMissing
	}
	if err := c.do(ctx, http.MethodPost, c.manifestURL(key, id)+"/notify", id, nil, nil); err != nil {
		return fmt.Errorf("notify manifest %s: %w", id, err)
	}
	return nil
}

func (c *Client) manifestsURL(key domain.SourceKey) string {
	return c.baseURL + tenantPath +
		"/source-systems/" + url.PathEscape(key.System) +
		"/source-entities/" + url.PathEscape(key.Entity) +
		"/manifests"
}

func (c *Client) manifestURL(key domain.SourceKey, id string) string {
	return c.manifestsURL(key) + "/" + url.PathEscape(id)
}

// do performs a request with retry. writeTarget names the manifest a write
// goes to; 400 and 409 answers on such writes are reported as conflicts.
func (c *Client) do(ctx context.Context, method, target, writeTarget string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	respBody, err := RetryWithValue(ctx, c.retrier, func() ([]byte, error) {
		respBody, err := c.doRequest(ctx, method, target, payload)
		if err != nil {
			var transportErr *domain.TransportError
			if writeTarget != "" && errors.As(err, &transportErr) &&
				(transportErr.StatusCode == http.StatusConflict || transportErr.StatusCode == http.StatusBadRequest) {
				return nil, domain.NewManifestConflictError(writeTarget, err)
			}
			return nil, err
		}
		return respBody, nil
	})
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doRequest performs the actual HTTP request
func (c *Client) doRequest(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.SetBasicAuth(c.apiKey, c.apiKeySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(method, redact(target), 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransportError(method, redact(target), resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", redact(target)).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Notify API request")

	if resp.StatusCode >= http.StatusBadRequest {
		var cause error
		if msg := strings.TrimSpace(string(respBody)); msg != "" && resp.StatusCode != http.StatusUnauthorized {
			cause = fmt.Errorf("%w: %s", statusCause(resp.StatusCode), truncate(msg, 512))
		}
		return nil, domain.NewTransportError(method, redact(target), resp.StatusCode, cause)
	}

	return respBody, nil
}

// statusCause maps a status code to the sentinel it should unwrap to
func statusCause(statusCode int) error {
	return errors.Unwrap(domain.NewTransportError("", "", statusCode, nil))
}

// redact strips userinfo from URLs before they reach logs or errors
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.User == nil {
		return target
	}
	return u.Redacted()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
