package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"tokoassist/internal/catalog"
	"tokoassist/internal/config"
	"tokoassist/internal/core"
	"tokoassist/internal/session"
	"tokoassist/internal/shopping"
)

type stubStreamer struct {
	chunks       []string
	err          error
	systemPrompt string
}

func (s *stubStreamer) StreamChat(ctx context.Context, systemPrompt string, history []*genai.Content) (<-chan string, <-chan error) {
	s.systemPrompt = systemPrompt

	contentChan := make(chan string)
	errorChan := make(chan error, 1)
	go func() {
		defer close(contentChan)
		defer close(errorChan)
		if s.err != nil {
			errorChan <- s.err
			return
		}
		for _, c := range s.chunks {
			contentChan <- c
		}
	}()
	return contentChan, errorChan
}

func newTestServer(t *testing.T, streamer core.Streamer, limiter *rate.Limiter) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	catalogStore := catalog.NewStore(filepath.Join(dir, "products.json"))

	sessionService, err := session.NewService(session.NewFileStore(filepath.Join(dir, "sessions.json")))
	require.NoError(t, err)
	shoppingService, err := shopping.NewService(shopping.NewFileStore(filepath.Join(dir, "shopping_list.json")))
	require.NoError(t, err)

	if streamer == nil {
		streamer = &stubStreamer{chunks: []string{"ok"}}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	chatService := core.NewChatService(catalogStore, streamer)
	handler := NewAPIHandler(chatService, catalogStore, sessionService, shoppingService)

	srv := httptest.NewServer(NewRouter(handler, limiter))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	productsURL := srv.URL + "/api/products"

	// Create
	resp := postJSON(t, productsURL, map[string]string{
		"productName": "Milk", "rackLocation": "Rack 5", "price": "15000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[catalog.Product](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Milk", created.ProductName)

	// Listed afterwards
	resp, err := http.Get(productsURL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	products := decodeBody[[]catalog.Product](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, created.ID, products[0].ID)

	// Delete
	resp = doJSON(t, http.MethodDelete, productsURL, map[string]string{"id": created.ID})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second delete of the same id
	resp = doJSON(t, http.MethodDelete, productsURL, map[string]string{"id": created.ID})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddProduct_MissingFields(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv.URL+"/api/products", map[string]string{"productName": "Milk"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListProducts_EmptyCatalogIsEmptyArray(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(body))
}

func TestChat_StreamsTokensVerbatim(t *testing.T) {
	streamer := &stubStreamer{chunks: []string{"{\"shoppingList", "Items\": ", "[]}"}}
	srv := newTestServer(t, streamer, nil)

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "buy eggs and bread"}},
		"mode":     "list",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// The raw token sequence, unwrapped and unbuffered.
	assert.Equal(t, `{"shoppingListItems": []}`, string(body))
}

func TestChat_ProviderErrorBecomesJSONError(t *testing.T) {
	streamer := &stubStreamer{err: fmt.Errorf("upstream unreachable")}
	srv := newTestServer(t, streamer, nil)

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
		"mode":     "inquiry",
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody[ChatError](t, resp)
	assert.Equal(t, chatErrorMessage, body.Error)
	assert.Contains(t, body.Details, "upstream unreachable")
}

func TestChat_EmptyConversation(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv.URL+"/api/chat", map[string]any{"messages": []map[string]string{}, "mode": "list"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[ChatError](t, resp)
	assert.Equal(t, chatErrorMessage, body.Error)
}

func TestChat_Throttled(t *testing.T) {
	srv := newTestServer(t, &stubStreamer{chunks: []string{"ok"}}, rate.NewLimiter(rate.Limit(0.001), 1))

	payload := map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
		"mode":     "inquiry",
	}
	resp := postJSON(t, srv.URL+"/api/chat", payload)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/chat", payload)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	config.AppConfig.TokenSecret = "test-secret"
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv.URL+"/api/login", map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.NotEmpty(t, body["token"])

	resp = postJSON(t, srv.URL+"/api/login", map[string]string{"role": "superuser"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	sessionsURL := srv.URL + "/api/sessions"

	resp := postJSON(t, sessionsURL, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[session.ChatSession](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "New Chat", created.Name)

	msgURL := sessionsURL + "/" + created.ID + "/messages"
	resp = postJSON(t, msgURL, map[string]string{"role": "user", "content": "where is the milk?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = postJSON(t, msgURL, map[string]string{"role": "assistant", "content": "Rack 5."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Renamed from the first user message after the assistant replied.
	resp, err := http.Get(sessionsURL + "/" + created.ID)
	require.NoError(t, err)
	got := decodeBody[session.ChatSession](t, resp)
	assert.Equal(t, "where is the milk?", got.Name)
	assert.Len(t, got.Messages, 2)

	resp = doJSON(t, http.MethodDelete, sessionsURL+"/"+created.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(sessionsURL + "/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShoppingListFlow(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	listURL := srv.URL + "/api/shopping-list"

	// A raw list-mode reply is decoded server-side.
	reply := `{"shoppingListItems": [
		{"productName": "Eggs", "quantity": "1 dozen", "rackLocation": "Rack 2"},
		{"productName": "Bread", "quantity": "1 loaf", "rackLocation": "Unknown"}
	]}`
	resp := postJSON(t, listURL+"/items", map[string]string{"reply": reply})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decodeBody[[]shopping.ListItem](t, resp)
	require.Len(t, added, 2)

	// Toggle one item.
	resp = postJSON(t, listURL+"/items/"+added[0].ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	toggled := decodeBody[shopping.ListItem](t, resp)
	assert.True(t, toggled.Checked)

	// A prose reply is not a shopping list.
	resp = postJSON(t, listURL+"/items", map[string]string{"reply": "just buy some eggs"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, listURL, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err := http.Get(listURL)
	require.NoError(t, err)
	items := decodeBody[[]shopping.ListItem](t, resp)
	assert.Empty(t, items)
}
