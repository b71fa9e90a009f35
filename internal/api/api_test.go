package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernandovmc/ai-workspaces/internal/model"
	"github.com/fernandovmc/ai-workspaces/internal/service"
	"github.com/fernandovmc/ai-workspaces/internal/store"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app, _ := newTestAppWithStore(t)
	return app
}

func newTestAppWithStore(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	llm := service.NewMockLLM()
	h := NewHandler(
		service.NewAuthService(st, "test-secret", time.Hour, nil),
		service.NewWorkspaceService(st, nil),
		service.NewDocumentService(st, filepath.Join(t.TempDir(), "uploads"), 1<<20, nil),
		service.NewChatService(st, st, llm, service.ChatOptions{
			Compose:      service.DefaultComposeOptions(),
			HistoryLimit: 50,
			Timeout:      time.Second,
		}, nil),
		llm,
		st,
		nil,
	)
	return NewApp(h, AppOptions{BodyLimit: 2 << 20}), st
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/auth/register", "", model.Credentials{Email: email, Password: "secret123"})
	require.Equal(t, http.StatusCreated, status, string(body))
	var tok model.TokenResponse
	require.NoError(t, json.Unmarshal(body, &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func createWorkspace(t *testing.T, app *fiber.App, token, name string) string {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/workspaces", token, model.CreateWorkspaceRequest{Name: name})
	require.Equal(t, http.StatusCreated, status, string(body))
	var w model.Workspace
	require.NoError(t, json.Unmarshal(body, &w))
	return "/workspaces/" + strconv.FormatInt(w.ID, 10)
}

func upload(t *testing.T, app *fiber.App, token, wsPath, name, content string) model.Document {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, wsPath+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	status, body := send(t, app, req)
	require.Equal(t, http.StatusCreated, status, string(body))

	var doc model.Document
	require.NoError(t, json.Unmarshal(body, &doc))
	return doc
}

func TestHealthAndModels(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, body = do(t, app, http.MethodGet, "/models", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "mock-chat")
}

func TestHealthWithClosedDatabase(t *testing.T) {
	app, st := newTestAppWithStore(t)
	require.NoError(t, st.Close())

	status, body := do(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "database unavailable", string(body))
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "flow@example.com")

	status, body := do(t, app, http.MethodPost, "/register", "", model.Credentials{Email: "flow@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusConflict, status, string(body))

	status, body = do(t, app, http.MethodPost, "/login", "", model.Credentials{Email: "flow@example.com", Password: "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, status, string(body))

	status, body = do(t, app, http.MethodPost, "/auth/login", "", model.Credentials{Email: "flow@example.com", Password: "secret123"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "access_token")

	for _, path := range []string{"/me", "/auth/me"} {
		status, body = do(t, app, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status, string(body))
		assert.Contains(t, string(body), "flow@example.com")
	}

	status, _ = do(t, app, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = do(t, app, http.MethodGet, "/workspaces", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWorkspaceOwnership(t *testing.T) {
	app := newTestApp(t)
	alice := register(t, app, "alice@example.com")
	bob := register(t, app, "bob@example.com")

	wsPath := createWorkspace(t, app, alice, "thesis")

	status, body := do(t, app, http.MethodGet, "/workspaces", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "thesis")

	status, body = do(t, app, http.MethodGet, "/workspaces", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	status, _ = do(t, app, http.MethodGet, wsPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, app, http.MethodGet, wsPath+"/documents", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, app, http.MethodPost, wsPath+"/chat/personal", bob, model.SendMessageRequest{Text: "hi"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/workspaces", alice, model.CreateWorkspaceRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodDelete, wsPath, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = do(t, app, http.MethodDelete, wsPath, alice, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, app, http.MethodGet, wsPath, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDocumentsAndContextualChat(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "reader@example.com")
	wsPath := createWorkspace(t, app, token, "pets")

	// no documents yet
	status, body := do(t, app, http.MethodPost, wsPath+"/chat/contextual", token, model.SendMessageRequest{Text: "what do cats do?"})
	assert.Equal(t, http.StatusBadRequest, status, string(body))
	assert.Contains(t, string(body), service.ErrMissingContext.Error())

	doc := upload(t, app, token, wsPath, "pets.txt", "Cats purr when happy.\n\nDogs bark at strangers.")
	assert.Equal(t, "text/plain", doc.MimeType)

	status, body = do(t, app, http.MethodGet, wsPath+"/documents/"+strconv.FormatInt(doc.ID, 10), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Dogs bark at strangers.")

	status, body = do(t, app, http.MethodPost, wsPath+"/chat/contextual", token, model.SendMessageRequest{Text: "what do cats do?"})
	require.Equal(t, http.StatusOK, status, string(body))
	var reply model.ChatMessage
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, []string{"Cats purr when happy."}, reply.Citations)

	status, body = do(t, app, http.MethodGet, wsPath+"/chat/contextual", token, nil)
	require.Equal(t, http.StatusOK, status)
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "what do cats do?", history[0].Content)

	status, body = do(t, app, http.MethodPost, wsPath+"/ai-chat/contextual", token, model.ContextualChatRequest{
		Messages:    []model.Turn{{Role: model.RoleUser, Content: "and dogs?"}},
		DocumentIDs: []int64{doc.ID},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Contains(t, resp.Answer, "[MOCK]")
	assert.Contains(t, string(body), `"citations":`)

	status, _ = do(t, app, http.MethodPost, wsPath+"/ai-chat/contextual", token, model.ContextualChatRequest{
		Messages: []model.Turn{{Role: model.RoleUser, Content: "and dogs?"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodDelete, wsPath+"/documents/"+strconv.FormatInt(doc.ID, 10), token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodGet, wsPath+"/documents/"+strconv.FormatInt(doc.ID, 10), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "img@example.com")
	wsPath := createWorkspace(t, app, token, "images")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cat.png")
	require.NoError(t, err)
	part.Write([]byte("\x89PNG"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, wsPath+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	status, body := send(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, _ = do(t, app, http.MethodPost, wsPath+"/documents", token, map[string]string{"file": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPersonalChat(t *testing.T) {
	app := newTestApp(t)
	token := register(t, app, "talker@example.com")
	wsPath := createWorkspace(t, app, token, "talk")

	status, body := do(t, app, http.MethodPost, wsPath+"/chat/personal", token, model.SendMessageRequest{Text: "hello"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `Received your message`)
	assert.NotContains(t, string(body), "citations")

	status, _ = do(t, app, http.MethodPost, wsPath+"/chat/personal", token, model.SendMessageRequest{Text: ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodPost, wsPath+"/ai-chat/personal", token, model.PersonalChatRequest{
		Messages: []model.Turn{{Role: model.RoleUser, Content: "stateless"}},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "stateless")

	status, _ = do(t, app, http.MethodPost, wsPath+"/ai-chat/personal", token, model.PersonalChatRequest{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodGet, wsPath+"/chat/personal", token, nil)
	require.Equal(t, http.StatusOK, status)
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Len(t, history, 2)
}
