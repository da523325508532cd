// Package scoring is the HTTP client for the remote financial scoring service.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"finhealth/internal/config"
	"finhealth/internal/infrastructure"
	"finhealth/pkg/contracts/domain"
)

// Operation names used in logs and metrics
const (
	OpAnalyzeFile    = "analyze_file"
	OpAnalyzeRecords = "analyze_json"
	OpBankA          = "bank_a"
	OpBankB          = "bank_b"
)

// maxErrorBody bounds how much of an error response is read for its detail
const maxErrorBody = 64 << 10

// Client calls the scoring service. It holds no per-call state and is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	resolver     *Resolver
	apiKeyHeader string
	logger       *slog.Logger
	metrics      *infrastructure.BusinessMetrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every call on the given business metrics
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a scoring client. The transport is instrumented with otelhttp so
// trace context propagates to the service.
func NewClient(cfg config.ScoringConfig, resolver *Resolver, logger *slog.Logger, opts ...Option) *Client {
	if resolver == nil {
		resolver = NewResolver(cfg)
	}
	header := cfg.APIKeyHeader
	if header == "" {
		header = config.DefaultAPIKeyHeader
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.RequestTimeout,
		},
		resolver:     resolver,
		apiKeyHeader: header,
		logger:       infrastructure.WithComponent(logger, "scoring_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeFile uploads a statement file as multipart field "file"
func (c *Client) AnalyzeFile(ctx context.Context, file *domain.Upload, industry domain.Industry, apiKey string) (*domain.AnalysisResult, error) {
	if file == nil {
		return nil, fmt.Errorf("analyze file: no file")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Name)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(file.Name))))
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	query := url.Values{"industry": {string(industry)}}
	path := config.AnalyzeFilePath + "?" + query.Encode()

	// A JSON null body decodes to a nil result
	var result *domain.AnalysisResult
	if err := c.do(ctx, OpAnalyzeFile, http.MethodPost, path, writer.FormDataContentType(), &buf, apiKey, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// analyzeRecordsBody is the JSON payload of the records endpoint
type analyzeRecordsBody struct {
	Industry domain.Industry    `json:"industry"`
	Records  []domain.RecordRow `json:"records"`
}

// AnalyzeRecords submits financial records as JSON
func (c *Client) AnalyzeRecords(ctx context.Context, records []domain.RecordRow, industry domain.Industry, apiKey string) (*domain.AnalysisResult, error) {
	if records == nil {
		records = []domain.RecordRow{}
	}
	body, err := json.Marshal(analyzeRecordsBody{Industry: industry, Records: records})
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	var result *domain.AnalysisResult
	if err := c.do(ctx, OpAnalyzeRecords, http.MethodPost, config.AnalyzeRecordsPath, "application/json", bytes.NewReader(body), apiKey, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// BankA fetches the first banking integration document
func (c *Client) BankA(ctx context.Context, apiKey string) (json.RawMessage, error) {
	return c.fetchDocument(ctx, OpBankA, config.BankAPath, apiKey)
}

// BankB fetches the second banking integration document
func (c *Client) BankB(ctx context.Context, apiKey string) (json.RawMessage, error) {
	return c.fetchDocument(ctx, OpBankB, config.BankBPath, apiKey)
}

func (c *Client) fetchDocument(ctx context.Context, op, path, apiKey string) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, path, "", nil, apiKey, &doc); err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(doc), []byte("null")) {
		return nil, nil
	}
	return doc, nil
}

// do sends one request and decodes a 2xx JSON body into out
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, apiKey string, out any) (err error) {
	base := c.resolver.FromContext(ctx)
	start := time.Now()
	defer func() {
		infrastructure.RecordScoringCall(ctx, c.metrics, op, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.apiKeyHeader, apiKey)

	c.logger.DebugContext(ctx, "Calling scoring service",
		slog.String("operation", op),
		slog.String("method", method),
		slog.String("url", base+path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		remote := &RemoteError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
		c.logger.WarnContext(ctx, "Scoring service rejected request",
			slog.String("operation", op),
			slog.Int("status_code", resp.StatusCode),
			slog.String("detail", remote.Detail))
		return remote
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	c.logger.DebugContext(ctx, "Scoring service call completed",
		slog.String("operation", op),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
