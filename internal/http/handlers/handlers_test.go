package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"composer/internal/compose"
	"composer/internal/infra"
	"composer/internal/middleware"
	"composer/internal/providers/image"
	"composer/internal/providers/prompt"
	"composer/internal/providers/stock"
	"composer/internal/recency"
)

type fakeGenerator struct {
	assets []image.Asset
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, req image.GenerateRequest) ([]image.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.assets != nil {
		return f.assets, nil
	}
	return []image.Asset{{Data: []byte{7}, Format: "image/png"}}, nil
}

type fakeStockProvider struct {
	results   []stock.Result
	err       error
	lastQuery stock.Query
}

func (f *fakeStockProvider) Name() string     { return "fake" }
func (f *fakeStockProvider) Configured() bool { return true }
func (f *fakeStockProvider) Search(ctx context.Context, q stock.Query) ([]stock.Result, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestApp(gen image.Generator, providers ...stock.Provider) *App {
	logger := infra.NewDiscardLogger()
	store := recency.NewStore(recency.Options{Logger: logger})
	return &App{
		Logger:            logger,
		Orchestrator:      compose.NewOrchestrator(gen, store, logger),
		Variations:        compose.NewVariationEngine(gen, logger),
		Stock:             stock.NewAggregator(stock.AggregatorOptions{Providers: providers, Logger: logger}),
		Store:             store,
		Enhancer:          prompt.NewStaticEnhancer(),
		GenerationTimeout: 5 * time.Second,
	}
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func createSession(t *testing.T, app *App, mode string) string {
	t.Helper()
	rec := doJSON(t, app.SessionCreate, http.MethodPost, "/v1/sessions", map[string]string{"mode": mode})
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	return addChiURLParam(req, key, value)
}

func TestSessionCreateRejectsUnknownMode(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	rec := doJSON(t, app.SessionCreate, http.MethodPost, "/v1/sessions", map[string]string{"mode": "bogus"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRoundTrip(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	id := createSession(t, app, "direct")

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"prompt": "a red bicycle"}))
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/sessions/%s/generate", id), &buf)
	req = withURLParam(req, "id", id)
	rec := httptest.NewRecorder()
	app.SessionGenerate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "succeeded", resp.State)
	require.Len(t, resp.Images, 1)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte{7}), resp.Images[0].Data)
}

func TestGenerateFinalWithoutTemplateReturnsFailureState(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	id := createSession(t, app, "final")

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"prompt": "the subject"}))
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/generate", &buf), "id", id)
	rec := httptest.NewRecorder()
	app.SessionGenerate(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "failed", resp.State)
	require.NotNil(t, resp.Failure)
	require.Equal(t, "validation", string(resp.Failure.Category))
}

func TestGenerateUnknownSessionIs404(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"prompt": "x"}))
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/generate", &buf), "id", "missing")
	rec := httptest.NewRecorder()
	app.SessionGenerate(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmTemplateFlow(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	id := createSession(t, app, "template")

	// Nothing displayed yet.
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/confirm-template", nil), "id", id)
	rec := httptest.NewRecorder()
	app.SessionConfirmTemplate(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Generate a template, then confirm.
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"prompt": "clean studio backdrop"}))
	req = withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/generate", &buf), "id", id)
	rec = httptest.NewRecorder()
	app.SessionGenerate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/confirm-template", nil), "id", id)
	rec = httptest.NewRecorder()
	app.SessionConfirmTemplate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.SelectedTemplate)
}

func TestStockSearchRequiresQuery(t *testing.T) {
	app := newTestApp(&fakeGenerator{}, &fakeStockProvider{})
	req := httptest.NewRequest(http.MethodGet, "/v1/stock/search", nil)
	rec := httptest.NewRecorder()
	app.StockSearch(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStockSearchReturnsResults(t *testing.T) {
	app := newTestApp(&fakeGenerator{}, &fakeStockProvider{results: []stock.Result{
		{ID: "fake-1", ThumbURL: "https://img.example/1-s.jpg", FullURL: "https://img.example/1.jpg", Provider: "fake"},
	}})
	req := httptest.NewRequest(http.MethodGet, "/v1/stock/search?q=mountain", nil)
	rec := httptest.NewRecorder()
	app.StockSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []stock.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.Equal(t, "fake-1", resp.Results[0].ID)
}

func TestStockSearchAllProvidersFailing(t *testing.T) {
	app := newTestApp(&fakeGenerator{},
		&fakeStockProvider{err: errors.New("boom")},
		&fakeStockProvider{err: errors.New("timeout")},
	)
	req := httptest.NewRequest(http.MethodGet, "/v1/stock/search?q=mountain", nil)
	rec := httptest.NewRecorder()
	app.StockSearch(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "providers_failed", resp.Error.Code)
}

func TestStockSearchForwardsRegionalLocale(t *testing.T) {
	provider := &fakeStockProvider{}
	app := newTestApp(&fakeGenerator{}, provider)

	req := httptest.NewRequest(http.MethodGet, "/v1/stock/search?q=beach", nil)
	ctx := context.WithValue(req.Context(), middleware.LocaleKey, "pt")
	ctx = context.WithValue(ctx, middleware.CountryKey, "BR")
	rec := httptest.NewRecorder()
	app.StockSearch(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "pt-BR", provider.lastQuery.Locale)
}

func TestStockSearchWithoutProviders(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	req := httptest.NewRequest(http.MethodGet, "/v1/stock/search?q=mountain", nil)
	rec := httptest.NewRecorder()
	app.StockSearch(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	id := createSession(t, app, "direct")

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"prompt": "a tall ship"}))
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/generate", &buf), "id", id)
	rec := httptest.NewRecorder()
	app.SessionGenerate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.HistoryList(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		History []historyEntryResponse `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Len(t, listResp.History, 1)
	require.Equal(t, "a tall ship", listResp.History[0].Prompt)

	// Delete the single entry, then the list is empty.
	entryID := listResp.History[0].ID
	req = withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/history/x", nil), "id", entryID)
	rec = httptest.NewRecorder()
	app.HistoryDelete(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	app.HistoryList(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	listResp.History = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	require.Empty(t, listResp.History)
}

func TestHistoryDeleteUnknownIs404(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/history/x", nil), "id", "missing")
	rec := httptest.NewRecorder()
	app.HistoryDelete(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromptsRecentValidatesCategory(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	rec := httptest.NewRecorder()
	app.PromptsRecent(rec, httptest.NewRequest(http.MethodGet, "/v1/prompts/recent?category=bogus", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	app.PromptsRecent(rec, httptest.NewRequest(http.MethodGet, "/v1/prompts/recent?category=direct", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Prompts []string `json:"prompts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Prompts)
}

func TestPromptEnhance(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	rec := doJSON(t, app.PromptEnhance, http.MethodPost, "/v1/prompts/enhance", map[string]string{"prompt": "a cat"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["prompt"])

	rec = doJSON(t, app.PromptEnhance, http.MethodPost, "/v1/prompts/enhance", map[string]string{"prompt": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVariationsEndpoint(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	base := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	rec := doJSON(t, app.SessionVariations, http.MethodPost, "/v1/sessions/x/variations", map[string]any{
		"base_image_base64": base,
		"mime":              "image/png",
		"count":             2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Variations []imagePayload `json:"variations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Variations, 2)
}

func TestVariationsDefaultToConfiguredCount(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	app.VariationCount = 3
	base := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	rec := doJSON(t, app.SessionVariations, http.MethodPost, "/v1/sessions/x/variations", map[string]any{
		"base_image_base64": base,
		"mime":              "image/png",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Variations []imagePayload `json:"variations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Variations, 3)
}

func TestVariationsRequireBase(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	rec := doJSON(t, app.SessionVariations, http.MethodPost, "/v1/sessions/x/variations", map[string]any{"count": 2})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryExport(t *testing.T) {
	app := newTestApp(&fakeGenerator{})

	// Empty history has nothing to export.
	rec := httptest.NewRecorder()
	app.HistoryExport(rec, httptest.NewRequest(http.MethodGet, "/v1/history/export", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	id := createSession(t, app, "direct")
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"prompt": "a paper lantern"}))
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/v1/sessions/x/generate", &buf), "id", id)
	rec = httptest.NewRecorder()
	app.SessionGenerate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.HistoryExport(rec, httptest.NewRequest(http.MethodGet, "/v1/history/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	require.NotEmpty(t, rec.Body.Bytes())
}

type failingEnhancer struct{}

func (failingEnhancer) Enhance(ctx context.Context, prompt, contextHint string) (string, error) {
	return "", errors.New("model unavailable")
}

func (failingEnhancer) SuggestNegative(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestPromptEnhanceDegradesToOriginal(t *testing.T) {
	app := newTestApp(&fakeGenerator{})
	app.Enhancer = failingEnhancer{}

	rec := doJSON(t, app.PromptEnhance, http.MethodPost, "/v1/prompts/enhance", map[string]string{"prompt": "a cat"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "a cat", resp["prompt"])

	rec = doJSON(t, app.PromptNegative, http.MethodPost, "/v1/prompts/negative", map[string]string{"prompt": "a cat"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "", resp["negative_prompt"])
}
