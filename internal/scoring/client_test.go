package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/config"
	"finhealth/internal/infrastructure"
	"finhealth/internal/shared/testutil"
	"finhealth/pkg/contracts/domain"
)

func newTestClient(t *testing.T, server *testutil.ScoringServer) *Client {
	t.Helper()
	cfg := config.Default().Scoring
	cfg.BaseURL = server.URL
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewClient(cfg, nil, logger, WithMetrics(infrastructure.NoopBusinessMetrics()))
}

func TestAnalyzeRecords(t *testing.T) {
	server := testutil.NewScoringServer(t)
	client := newTestClient(t, server)

	result, err := client.AnalyzeRecords(context.Background(), domain.SampleRecords(), domain.IndustryServices, "dev-key")
	require.NoError(t, err)
	require.NotNil(t, result)

	require.NotNil(t, result.NetMargin)
	assert.InDelta(t, 0.2627, *result.NetMargin, 1e-9)
	require.NotNil(t, result.Creditworthiness)
	assert.Equal(t, "Good", *result.Creditworthiness)
	assert.Empty(t, result.Flags)
	assert.Nil(t, result.DefaultProbability)

	reqs := server.RequestsTo(http.MethodPost, "/analyze-json")
	require.Len(t, reqs, 1)
	assert.Equal(t, "dev-key", reqs[0].Header.Get("X-API-Key"))
	assert.Equal(t, "application/json", reqs[0].ContentType)

	var body struct {
		Industry string             `json:"industry"`
		Records  []domain.RecordRow `json:"records"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	assert.Equal(t, "Services", body.Industry)
	assert.Equal(t, domain.SampleRecords(), body.Records)
}

func TestAnalyzeFile(t *testing.T) {
	server := testutil.NewScoringServer(t)
	client := newTestClient(t, server)

	upload := &domain.Upload{Name: "q1 statement.csv", ContentType: "text/csv", Data: []byte("revenue,expenses\n1,2\n")}
	result, err := client.AnalyzeFile(context.Background(), upload, domain.IndustryECommerce, "secret")
	require.NoError(t, err)
	require.NotNil(t, result)

	reqs := server.RequestsTo(http.MethodPost, "/analyze")
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "E-commerce", req.Query.Get("industry"))
	assert.Equal(t, "secret", req.Header.Get("X-API-Key"))

	mediaType, params, err := mime.ParseMediaType(req.ContentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", part.FormName())
	assert.Equal(t, "q1 statement.csv", part.FileName())
	assert.Equal(t, "text/csv", part.Header.Get("Content-Type"))
	data, err := io.ReadAll(part)
	require.NoError(t, err)
	assert.Equal(t, upload.Data, data)

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF, "exactly one part expected")
}

func TestAnalyzeFileRequiresFile(t *testing.T) {
	server := testutil.NewScoringServer(t)
	client := newTestClient(t, server)

	_, err := client.AnalyzeFile(context.Background(), nil, domain.IndustryServices, "k")
	assert.Error(t, err)
	assert.Empty(t, server.Requests())
}

func TestRemoteErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "string detail", status: http.StatusBadRequest, body: `{"detail":"Unsupported file type"}`, wantDetail: "Unsupported file type"},
		{name: "validation array", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body"],"msg":"field required"}]}`},
		{name: "empty detail", status: http.StatusUnauthorized, body: `{"detail":""}`},
		{name: "no json", status: http.StatusInternalServerError, body: `Internal Server Error`},
		{name: "null detail", status: http.StatusBadGateway, body: `{"detail":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewScoringServer(t)
			server.Handle("POST /analyze-json", testutil.RespondJSON(tt.status, tt.body))
			client := newTestClient(t, server)

			result, err := client.AnalyzeRecords(context.Background(), domain.SampleRecords(), domain.IndustryRetail, "k")
			require.Error(t, err)
			assert.Nil(t, result)

			var remote *RemoteError
			require.True(t, errors.As(err, &remote))
			assert.Equal(t, tt.status, remote.StatusCode)
			assert.Equal(t, tt.wantDetail, remote.Detail)
			assert.Equal(t, tt.wantDetail, DetailOf(err))
		})
	}
}

func TestDetailOfNonRemoteError(t *testing.T) {
	assert.Equal(t, "", DetailOf(errors.New("dial tcp: refused")))
	assert.Equal(t, "", DetailOf(nil))
}

func TestTransportFailure(t *testing.T) {
	server := testutil.NewScoringServer(t)
	client := newTestClient(t, server)
	server.Close()

	_, err := client.BankA(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, "", DetailOf(err))
}

func TestMalformedSuccessBody(t *testing.T) {
	server := testutil.NewScoringServer(t)
	server.Handle("POST /analyze-json", testutil.RespondJSON(http.StatusOK, `{"revenue":`))
	client := newTestClient(t, server)

	_, err := client.AnalyzeRecords(context.Background(), nil, domain.IndustryServices, "k")
	assert.Error(t, err)
}

func TestNullResultBody(t *testing.T) {
	server := testutil.NewScoringServer(t)
	server.Handle("POST /analyze-json", testutil.RespondJSON(http.StatusOK, `null`))
	client := newTestClient(t, server)

	result, err := client.AnalyzeRecords(context.Background(), nil, domain.IndustryServices, "k")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestBankDocuments(t *testing.T) {
	server := testutil.NewScoringServer(t)
	client := newTestClient(t, server)

	a, err := client.BankA(context.Background(), "k")
	require.NoError(t, err)
	assert.JSONEq(t, testutil.BankAJSON, string(a))

	b, err := client.BankB(context.Background(), "k")
	require.NoError(t, err)
	assert.JSONEq(t, testutil.BankBJSON, string(b))

	assert.Len(t, server.RequestsTo(http.MethodGet, "/integrations/bank-a"), 1)
	assert.Len(t, server.RequestsTo(http.MethodGet, "/integrations/bank-b"), 1)
}

func TestBankNullDocument(t *testing.T) {
	server := testutil.NewScoringServer(t)
	server.Handle("GET /integrations/bank-a", testutil.RespondJSON(http.StatusOK, "null"))
	client := newTestClient(t, server)

	doc, err := client.BankA(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestCustomAPIKeyHeader(t *testing.T) {
	server := testutil.NewScoringServer(t)
	cfg := config.Default().Scoring
	cfg.BaseURL = server.URL
	cfg.APIKeyHeader = "X-Scoring-Token"
	client := NewClient(cfg, nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	_, err := client.BankB(context.Background(), "tok")
	require.NoError(t, err)

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "tok", reqs[0].Header.Get("X-Scoring-Token"))
	assert.Empty(t, reqs[0].Header.Get("X-API-Key"))
}

func TestEndpointFromContextWins(t *testing.T) {
	configured := testutil.NewScoringServer(t)
	perRequest := testutil.NewScoringServer(t)

	cfg := config.Default().Scoring
	cfg.DevBaseURL = configured.URL
	client := NewClient(cfg, nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	ctx := WithEndpoint(context.Background(), perRequest.URL)
	_, err := client.BankA(ctx, "k")
	require.NoError(t, err)

	assert.Empty(t, configured.Requests())
	assert.Len(t, perRequest.Requests(), 1)
}

type countingTransport struct {
	calls int
	next  http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return c.next.RoundTrip(r)
}

func TestWithHTTPClient(t *testing.T) {
	server := testutil.NewScoringServer(t)
	cfg := config.Default().Scoring
	cfg.BaseURL = server.URL

	transport := &countingTransport{next: http.DefaultTransport}
	client := NewClient(cfg, nil, slog.New(slog.NewJSONHandler(io.Discard, nil)),
		WithHTTPClient(&http.Client{Transport: transport}))

	_, err := client.BankA(context.Background(), "dev-key")
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls)
}
