package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manishsharma864/ai-horroscope/internal/conversation"
	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
	chatmodel "github.com/manishsharma864/ai-horroscope/internal/model/chat"
	chatservice "github.com/manishsharma864/ai-horroscope/internal/service/chat"
)

const testPassword = "open-sesame"

type zeroGeocoder struct{}

func (zeroGeocoder) Geocode(context.Context, string) (birth.Coordinates, error) {
	return birth.Coordinates{}, nil
}

type scriptedGenerator struct {
	reply string
	err   error
}

func (g *scriptedGenerator) Generate(context.Context, string) (string, error) {
	return g.reply, g.err
}

func setupRouter() (*chi.Mux, *scriptedGenerator) {
	gen := &scriptedGenerator{reply: "Your chart glows."}
	chatSvc := chatservice.NewService(conversation.NewEngine(zeroGeocoder{}, gen), testPassword)
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, gen
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeView(t *testing.T, resp *httptest.ResponseRecorder) chatmodel.SessionView {
	t.Helper()
	var view chatmodel.SessionView
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	return view
}

func createLoggedInSession(t *testing.T, r http.Handler) string {
	t.Helper()
	resp := do(t, r, http.MethodPost, "/session", nil)
	require.Equal(t, http.StatusCreated, resp.Code)
	id := decodeView(t, resp).ID

	resp = do(t, r, http.MethodPost, "/session/"+id+"/login", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, resp.Code)
	return id
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter()

	resp := do(t, r, http.MethodPost, "/session", nil)

	require.Equal(t, http.StatusCreated, resp.Code)
	view := decodeView(t, resp)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "name", view.Step)
	assert.False(t, view.Authenticated)
	require.Len(t, view.Messages, 1)
	assert.Equal(t, chatmodel.RoleBot, view.Messages[0].Role)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := setupRouter()
	id := decodeView(t, do(t, r, http.MethodPost, "/session", nil)).ID

	resp := do(t, r, http.MethodPost, "/session/"+id+"/login", map[string]string{"password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"error":"Incorrect password. Please try again."}`, resp.Body.String())
}

func TestLoginMissingBody(t *testing.T) {
	r, _ := setupRouter()
	id := decodeView(t, do(t, r, http.MethodPost, "/session", nil)).ID

	resp := do(t, r, http.MethodPost, "/session/"+id+"/login", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSendMessageRequiresLogin(t *testing.T) {
	r, _ := setupRouter()
	id := decodeView(t, do(t, r, http.MethodPost, "/session", nil)).ID

	resp := do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "Asha"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSendMessageUnknownSession(t *testing.T) {
	r, _ := setupRouter()

	resp := do(t, r, http.MethodPost, "/session/missing/messages", map[string]string{"content": "Asha"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSendMessageEmpty(t *testing.T) {
	r, _ := setupRouter()
	id := createLoggedInSession(t, r)

	resp := do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestConversationOverHTTP(t *testing.T) {
	r, _ := setupRouter()
	id := createLoggedInSession(t, r)

	var view chatmodel.SessionView
	for _, input := range []string{"Asha", "31/13/1989"} {
		resp := do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": input})
		require.Equal(t, http.StatusOK, resp.Code)
		view = decodeView(t, resp)
	}
	assert.Equal(t, "dob", view.Step)
	assert.Equal(t, conversation.ReplyInvalidDate, view.Messages[len(view.Messages)-1].Content)

	for _, input := range []string{"09/12/1989", "23:00", "Nowhereland", "insight"} {
		resp := do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": input})
		require.Equal(t, http.StatusOK, resp.Code)
		view = decodeView(t, resp)
	}
	assert.Equal(t, "done", view.Step)
	assert.Equal(t, "Your chart glows.", view.Messages[len(view.Messages)-1].Content)

	resp := do(t, r, http.MethodGet, "/session/"+id+"/profile", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var profile map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	subject := profile["subject"].(map[string]any)
	assert.Equal(t, "Asha", subject["name"])
	assert.Equal(t, "Nowhereland", subject["place"])
	assert.Contains(t, subject, "zodiac")
}

func TestSendMessageGenerationFailure(t *testing.T) {
	r, gen := setupRouter()
	id := createLoggedInSession(t, r)
	for _, input := range []string{"Asha", "09/12/1989", "23:00", "Mumbai, India"} {
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": input}).Code)
	}

	gen.err = errors.New("boom")
	resp := do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "personal"})

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.JSONEq(t, `{"error":"`+GenerationFailedMessage+`"}`, resp.Body.String())

	view := decodeView(t, do(t, r, http.MethodGet, "/session/"+id, nil))
	assert.Equal(t, "choice", view.Step)
	require.Len(t, view.Messages, 10)
	assert.Equal(t, chatmodel.RoleUser, view.Messages[9].Role)
	assert.Equal(t, "personal", view.Messages[9].Content)
}

func TestListMessages(t *testing.T) {
	r, _ := setupRouter()
	id := createLoggedInSession(t, r)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "Asha"}).Code)

	resp := do(t, r, http.MethodGet, "/session/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		SessionID string              `json:"sessionId"`
		Messages  []chatmodel.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, id, payload.SessionID)
	require.Len(t, payload.Messages, 3)
	assert.Equal(t, conversation.Greeting, payload.Messages[0].Content)
	assert.Equal(t, "Asha", payload.Messages[1].Content)

	resp = do(t, r, http.MethodGet, "/session/missing/messages", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestResetAndLogout(t *testing.T) {
	r, _ := setupRouter()
	id := createLoggedInSession(t, r)
	do(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "Asha"})

	resp := do(t, r, http.MethodPost, "/session/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	view := decodeView(t, resp)
	assert.Equal(t, "name", view.Step)
	assert.Len(t, view.Messages, 1)
	assert.True(t, view.Authenticated)

	resp = do(t, r, http.MethodPost, "/session/"+id+"/logout", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeView(t, resp).Authenticated)

	resp = do(t, r, http.MethodPost, "/session/"+id+"/reset", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestErrorStatus(t *testing.T) {
	status, _ := ErrorStatus(&conversation.ServiceError{Step: conversation.StepDone, Err: errors.New("x")})
	assert.Equal(t, http.StatusBadGateway, status)

	status, _ = ErrorStatus(errors.New("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, status)
}
