package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/sistema-obras/internal/domain"
)

type capturedRequest struct {
	Method    string
	Path      string
	Query     string
	Body      string
	RequestID string
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, format)
}

func newTestServer(t *testing.T, status int, response string) (*Client, *[]capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	captured := []capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			Body:      string(body),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/api/", WithRequestIDs(func() string { return "req-1" }))
	require.NoError(t, err)
	return client, &captured
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
	_, err = NewClient("ftp://example.com")
	assert.Error(t, err)
}

func TestListWorksDecodesEnvelopeAndSendsParams(t *testing.T) {
	client, captured := newTestServer(t, http.StatusOK, `{"data":[{"_id":"w1","nome":"Ponte Sul","dataInicio":"2024-01-01T00:00:00.000Z","localizacao":{"latitude":-23.5,"longitude":-46.6}}]}`)

	works, err := client.ListWorks(context.Background(), Params{"status": "Planejada"})
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "w1", works[0].ID)
	assert.Equal(t, "Ponte Sul", works[0].Name)
	assert.Equal(t, "2024-01-01", works[0].StartDate.Date())
	require.NotNil(t, works[0].Location)
	assert.Equal(t, -46.6, works[0].Location.Longitude)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/obras", req.Path)
	assert.Equal(t, "status=Planejada", req.Query)
	assert.Equal(t, "req-1", req.RequestID)
}

func TestCreateWorkPostsPayload(t *testing.T) {
	client, captured := newTestServer(t, http.StatusCreated, `{"data":{"_id":"w9","nome":"Ponte Sul"}}`)
	payload := domain.WorkPayload{
		Name:      "Ponte Sul",
		StartDate: domain.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Photo:     domain.DefaultWorkPhoto,
		Location:  &domain.Location{Latitude: -23.5, Longitude: -46.6},
	}
	work, err := client.CreateWork(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "w9", work.ID)

	req := (*captured)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/obras", req.Path)
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &sent))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", sent["dataInicio"])
	assert.Equal(t, domain.DefaultWorkPhoto, sent["foto"])
	assert.Equal(t, map[string]any{"latitude": -23.5, "longitude": -46.6}, sent["localizacao"])
}

func TestRelationshipRoutes(t *testing.T) {
	client, captured := newTestServer(t, http.StatusOK, `{"data":[]}`)
	_, err := client.ListInspectionsOfWork(context.Background(), "w1")
	require.NoError(t, err)
	require.NoError(t, client.SendWorkReport(context.Background(), "w1", " ana@example.com "))
	require.NoError(t, client.DeleteInspection(context.Background(), "f1"))

	require.Len(t, *captured, 3)
	assert.Equal(t, "/api/obras/w1/fiscalizacoes", (*captured)[0].Path)
	assert.Equal(t, "/api/obras/w1/enviar-email", (*captured)[1].Path)
	assert.JSONEq(t, `{"email":"ana@example.com"}`, (*captured)[1].Body)
	assert.Equal(t, http.MethodDelete, (*captured)[2].Method)
	assert.Equal(t, "/api/fiscalizacoes/f1", (*captured)[2].Path)
}

func TestRemoteErrorCarriesProviderMessage(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest, `{"message":"Nome é obrigatório"}`)
	_, err := client.UpdateWork(context.Background(), "w1", domain.WorkPayload{})
	require.Error(t, err)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.Status)
	assert.Equal(t, "Nome é obrigatório", UserMessage(err, "fallback"))
}

func TestRemoteErrorWithoutBodyFallsBack(t *testing.T) {
	client, _ := newTestServer(t, http.StatusInternalServerError, ``)
	err := client.DeleteWork(context.Background(), "w1")
	require.Error(t, err)
	assert.Equal(t, "Could not delete.", UserMessage(err, "Could not delete."))
}

func TestMissingIdentifierNeverHitsNetwork(t *testing.T) {
	client, captured := newTestServer(t, http.StatusOK, `{}`)
	_, err := client.GetWork(context.Background(), " ")
	assert.Error(t, err)
	assert.Empty(t, *captured)
}

func TestClientLogsEachRequest(t *testing.T) {
	logger := &recordingLogger{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, WithLogger(logger), WithTimeout(time.Second))
	require.NoError(t, err)
	require.NoError(t, client.DeleteWork(context.Background(), "w1"))
	require.Len(t, logger.lines, 1)
	assert.True(t, strings.HasPrefix(logger.lines[0], "gateway:"))
}
