// Package apix is a client for the Apix invoice transfer API. Every call is
// signed with a SHA-256 digest over its parameters and the shared transfer key.
package apix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/model"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultSoftware = "Ahkio"
	DefaultVersion  = "2.0"
)

// Client performs upload, list and download calls against one environment
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	software   string
	version    string
	logger     *zap.Logger
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	endpoints  *Endpoints
	timeout    time.Duration
	software   string
	version    string
	logger     *zap.Logger
	now        func() time.Time
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithEndpoints overrides the environment URLs
func WithEndpoints(ep Endpoints) ClientOption {
	return func(cfg *clientConfig) {
		cfg.endpoints = &ep
	}
}

// WithSoftware sets the soft and ver upload parameters
func WithSoftware(software, version string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.software = software
		cfg.version = version
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithClock sets the time source used for the t parameter
func WithClock(now func() time.Time) ClientOption {
	return func(cfg *clientConfig) {
		cfg.now = now
	}
}

// NewClient creates a client for env
func NewClient(env Environment, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		timeout:  DefaultTimeout,
		software: DefaultSoftware,
		version:  DefaultVersion,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	ep := env.Endpoints()
	if cfg.endpoints != nil {
		ep = *cfg.endpoints
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: httpClient,
		endpoints:  ep,
		software:   cfg.software,
		version:    cfg.version,
		logger:     logger,
		now:        cfg.now,
	}
}

// UploadResult is the accepted response of an upload
type UploadResult struct {
	StatusCode int
	Body       string
}

// Upload PUTs a packed invoice. It fails with a TransportError unless the
// response envelope status is OK.
func (c *Client) Upload(ctx context.Context, zipData []byte, creds model.Credentials) (*UploadResult, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	params := Params{
		{Name: ParamSoftware, Value: c.software},
		{Name: ParamVersion, Value: c.version},
		{Name: ParamTransferID, Value: creds.TransferID},
		{Name: ParamTimestamp, Value: Timestamp(c.now())},
	}.Sign(creds.TransferKey)

	status, body, err := c.do(ctx, http.MethodPut, c.endpoints.Invoices, params, zipData)
	if err != nil {
		return nil, model.NewTransportError("upload", 0, "", err)
	}

	c.logger.Info("Response from apix",
		zap.Int("status_code", status),
		zap.String("body", string(body)),
	)

	if _, err := checkEnvelope("upload", status, body); err != nil {
		return nil, err
	}

	return &UploadResult{StatusCode: status, Body: string(body)}, nil
}

// List returns the files waiting in the company's Apix inbox
func (c *Client) List(ctx context.Context, creds model.Credentials) ([]model.FileDescriptor, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	params := Params{
		{Name: ParamTransferID, Value: creds.TransferID},
		{Name: ParamTimestamp, Value: Timestamp(c.now())},
	}.Sign(creds.TransferKey)

	c.logger.Debug("Listing Apix inbox", zap.String("transfer_id", creds.TransferID))

	status, body, err := c.do(ctx, http.MethodGet, c.endpoints.List, params, nil)
	if err != nil {
		return nil, model.NewTransportError("list", 0, "", err)
	}

	doc, err := checkEnvelope("list", status, body)
	if err != nil {
		return nil, err
	}

	return fileDescriptors(doc), nil
}

// DownloadResult is the raw package returned by a download call
type DownloadResult struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the server answered 200
func (r *DownloadResult) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Download fetches a package and marks it received. The response is binary
// so no envelope is checked; a non-200 status is logged and the body is
// still returned.
func (c *Client) Download(ctx context.Context, fd model.FileDescriptor) (*DownloadResult, error) {
	if fd.StorageID == "" {
		return nil, model.NewValidationError("StorageID", "Apix storage id missing from file descriptor.")
	}
	if fd.StorageKey == "" {
		return nil, model.NewValidationError("StorageKey", "Apix storage key missing from file descriptor.")
	}

	params := Params{
		{Name: ParamMarkReceived, Value: "yes"},
		{Name: ParamStorageID, Value: fd.StorageID},
		{Name: ParamTimestamp, Value: Timestamp(c.now())},
	}.Sign(fd.StorageKey)

	status, body, err := c.do(ctx, http.MethodGet, c.endpoints.Download, params, nil)
	if err != nil {
		return nil, model.NewTransportError("download", 0, "", err)
	}

	if status != http.StatusOK {
		c.logger.Error("Failed to download invoice",
			zap.String("document_id", fd.DocumentID),
			zap.Int("status_code", status),
		)
	}

	return &DownloadResult{StatusCode: status, Body: body}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, params Params, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func validateCredentials(creds model.Credentials) error {
	if creds.TransferID == "" {
		return model.NewValidationError("transfer_id", "Apix transfer id missing from company config.")
	}
	if creds.TransferKey == "" {
		return model.NewValidationError("transfer_key", "Apix transfer key missing from company config.")
	}
	return nil
}
