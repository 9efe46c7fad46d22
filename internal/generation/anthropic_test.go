package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletop-tools/gm-assistant/internal/prompt"
)

func testContext() *prompt.Context {
	return &prompt.Context{Passages: []prompt.Passage{{
		Filename: "Riverside.md",
		DocType:  "campaign-note",
		Text:     "Captain Aldric commands the harbor watch.",
	}}}
}

func TestAnswer_SendsContextAndParsesResponse(t *testing.T) {
	var captured messagesRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "He commands "},
				{"type": "text", "text": "the harbor watch."},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	answer, err := client.Answer(context.Background(), "Who is Captain Aldric?", testContext())
	require.NoError(t, err)

	assert.Equal(t, "He commands the harbor watch.", answer, "text blocks must concatenate")

	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "=== CAMPAIGN: Riverside.md ===")
	assert.Contains(t, captured.Messages[0].Content, "Question: Who is Captain Aldric?")
	assert.True(t, strings.Contains(captured.System, "[[Name]]"), "system prompt must explain wiki links")
}

func TestAnswer_SurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "invalid_request_error", "message": "max_tokens too large"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Answer(context.Background(), "anything", testContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens too large")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
