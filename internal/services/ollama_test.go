package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

func newOllamaTestServer(t *testing.T, models []string, pulled *bool, got *api.ChatRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		var resp api.ListResponse
		for _, m := range models {
			resp.Models = append(resp.Models, api.ListModelResponse{Name: m, Model: m})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/pull", func(w http.ResponseWriter, r *http.Request) {
		*pulled = true
		_, _ = w.Write([]byte(`{"status":"pulling manifest"}` + "\n" + `{"status":"success"}` + "\n"))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "llama3.1",
			Message: api.Message{Role: "assistant", Content: "*tilts head* Master?"},
			Done:    true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaService_GenerateText(t *testing.T) {
	var got api.ChatRequest
	var pulled bool
	srv := newOllamaTestServer(t, nil, &pulled, &got)

	service, err := NewOllamaService(srv.URL+"/v1/", "llama3.1", time.Second, discardLogger())
	require.NoError(t, err)

	text, err := service.GenerateText(context.Background(), "You are Sable.", engine.GenerationParams{
		MaxTokens:        128,
		StopSequences:    []string{"\nRook:"},
		MaxContextLength: 4096,
	})
	require.NoError(t, err)
	assert.Equal(t, "*tilts head* Master?", text)

	assert.Equal(t, "llama3.1", got.Model)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "You are Sable.", got.Messages[0].Content)
	assert.EqualValues(t, 128, got.Options["num_predict"])
	assert.EqualValues(t, 4096, got.Options["num_ctx"])
	assert.Equal(t, []interface{}{"\nRook:"}, got.Options["stop"])
}

func TestOllamaService_InitModel(t *testing.T) {
	t.Run("model present", func(t *testing.T) {
		var pulled bool
		srv := newOllamaTestServer(t, []string{"llama3.1:latest"}, &pulled, &api.ChatRequest{})
		service, err := NewOllamaService(srv.URL, "llama3.1", time.Second, discardLogger())
		require.NoError(t, err)

		require.NoError(t, service.InitModel(context.Background(), "llama3.1"))
		assert.False(t, pulled)
	})

	t.Run("model pulled", func(t *testing.T) {
		var pulled bool
		srv := newOllamaTestServer(t, []string{"mistral:latest"}, &pulled, &api.ChatRequest{})
		service, err := NewOllamaService(srv.URL, "llama3.1", time.Second, discardLogger())
		require.NoError(t, err)

		require.NoError(t, service.InitModel(context.Background(), "llama3.1"))
		assert.True(t, pulled)
	})
}

func TestOllamaService_NotReady(t *testing.T) {
	service, err := NewOllamaService("http://127.0.0.1:1", "llama3.1", 100*time.Millisecond, discardLogger())
	require.NoError(t, err)
	service.retryDelay = time.Millisecond

	err = service.InitModel(context.Background(), "llama3.1")
	assert.ErrorContains(t, err, "not ready")
}
