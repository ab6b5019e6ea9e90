package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestPredictPlan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// JSON response mode must be requested.
		format, _ := req["response_format"].(map[string]any)
		require.Equal(t, "json_object", format["type"])

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": `{"sub_tasks": [{"name": "default", "input": "do it", "expected_output": "", "dependencies": []}]}`,
					},
					"finish_reason": "stop",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	predictor, err := New(WithAPIKey("test-key"), WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	p, err := predictor.PredictPlan(context.Background(), "plan something")
	require.NoError(t, err)
	require.Len(t, p.SubTasks, 1)
	assert.Equal(t, "default", p.SubTasks[0].Name)
}
