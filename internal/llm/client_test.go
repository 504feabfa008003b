package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "Сколько идёт доставка из Китая?", req.Messages[1].Content)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  Обычно 15–25 дней.  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4o-mini", srv.URL, 5*time.Second, 500)
	answer, err := c.Answer(context.Background(), "Сколько идёт доставка из Китая?")
	require.NoError(t, err)
	assert.Equal(t, "Обычно 15–25 дней.", answer)
}

func TestAnswerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4o-mini", srv.URL, 5*time.Second, 500)
	_, err := c.Answer(context.Background(), "вопрос")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestAnswerEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", "gpt-4o-mini", srv.URL, 5*time.Second, 500)
	_, err := c.Answer(context.Background(), "вопрос")
	assert.Error(t, err)
}
