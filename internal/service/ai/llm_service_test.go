package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manishsharma864/ai-horroscope/internal/config"
)

type fakeChatModel struct {
	received []*schema.Message
	reply    string
	err      error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func TestServiceGenerateSendsPromptAsUserMessage(t *testing.T) {
	chatModel := &fakeChatModel{reply: "  Your Moon is calm.  "}
	svc, err := NewService(context.Background(), chatModel, Options{})
	require.NoError(t, err)

	reply, err := svc.Generate(context.Background(), "Provide general Vedic astrology insights for {Asha}")
	require.NoError(t, err)

	assert.Equal(t, "Your Moon is calm.", reply)
	require.Len(t, chatModel.received, 1)
	assert.Equal(t, schema.User, chatModel.received[0].Role)
	assert.Equal(t, "Provide general Vedic astrology insights for {Asha}", chatModel.received[0].Content)
}

func TestServiceGenerateWithSystemPrompt(t *testing.T) {
	chatModel := &fakeChatModel{reply: "ok"}
	svc, err := NewService(context.Background(), chatModel, Options{SystemPrompt: "You are a gentle astrologer."})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, chatModel.received, 2)
	assert.Equal(t, schema.System, chatModel.received[0].Role)
	assert.Equal(t, "You are a gentle astrologer.", chatModel.received[0].Content)
	assert.Equal(t, "hello", chatModel.received[1].Content)
}

func TestServiceGeneratePropagatesErrors(t *testing.T) {
	upstream := errors.New("quota exceeded")
	svc, err := NewService(context.Background(), &fakeChatModel{err: upstream}, Options{})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, upstream)
}

func TestServiceGenerateRejectsEmptyReply(t *testing.T) {
	svc, err := NewService(context.Background(), &fakeChatModel{reply: "   "}, Options{})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := NewService(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Namaste, Asha."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	gemini, err := NewGemini(context.Background(), GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
	})
	require.NoError(t, err)

	reply, err := gemini.Generate(context.Background(), "Provide general Vedic astrology insights for Asha")
	require.NoError(t, err)

	assert.Equal(t, "Namaste, Asha.", reply)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-1.5-flash:generateContent"), gotPath)
	assert.Contains(t, gotBody, "Provide general Vedic astrology insights for Asha")
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestNewRejectsDisabledConfig(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{})
	assert.Error(t, err)

	_, err = New(context.Background(), config.AIConfig{Provider: config.ProviderArk})
	assert.Error(t, err)
}
