package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HealthStatus{Status: "healthy", Message: "Backend is running"})
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Prompt {
		case "fail":
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(generateResponse{Success: false, Error: "model overloaded"})
		case "empty":
			_ = json.NewEncoder(w).Encode(generateResponse{Success: true, Response: "  "})
		default:
			_ = json.NewEncoder(w).Encode(generateResponse{
				Success:  true,
				Response: req.Model + "|" + req.Prompt,
			})
		}
	})
	mux.HandleFunc("/api/stream-generate", func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		parts := [][]byte{[]byte("Hello"), []byte(", "), []byte("world.")}
		if req.Prompt == "split" {
			// "é" is 0xC3 0xA9; the two bytes go out in separate flushes.
			parts = [][]byte{[]byte("Caf\xc3"), []byte("\xa9 au lait, "), []byte("\xe2\x82"), []byte("\xac5.")}
		}
		flusher := w.(http.Flusher)
		for _, part := range parts {
			_, _ = w.Write(part)
			flusher.Flush()
		}
	})
	mux.HandleFunc("/api/generate-image", func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Prompt == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(imageResponse{Error: "Prompt is required"})
			return
		}
		_ = json.NewEncoder(w).Encode(imageResponse{Success: true, ImageURL: "https://img.example/1.png"})
	})
	mux.HandleFunc("/api/models", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(modelsResponse{Models: []Model{{ID: DefaultModel, Name: "Llama"}}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Generate(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.URL+"/", "")

	tests := []struct {
		name    string
		prompt  string
		want    string
		wantErr error
	}{
		{name: "default model applied", prompt: "hi", want: DefaultModel + "|hi"},
		{name: "unsuccessful response", prompt: "fail", wantErr: errors.New("generate: model overloaded")},
		{name: "blank response", prompt: "empty", wantErr: models.ErrEmptyPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Generate(context.Background(), GenerateRequest{Prompt: tt.prompt})
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, models.ErrEmptyPayload) {
					assert.ErrorIs(t, err, models.ErrEmptyPayload)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Stream(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.URL, "")

	var chunks []string
	full, err := client.Stream(context.Background(), GenerateRequest{Prompt: "hi"}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", full)
	assert.NotEmpty(t, chunks)
}

func TestClient_StreamKeepsRunesWhole(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.URL, "")

	var chunks []string
	full, err := client.Stream(context.Background(), GenerateRequest{Prompt: "split"}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Café au lait, €5.", full)
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %q splits a rune", chunk)
	}
}

func TestClient_StreamHasNoRequestTimeout(t *testing.T) {
	client := NewClient("http://localhost", "")
	assert.Zero(t, client.streamClient.Timeout)
	assert.NotZero(t, client.httpClient.Timeout)
}

func TestClient_Temperature(t *testing.T) {
	var got []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = append(got, body)
		_ = json.NewEncoder(w).Encode(generateResponse{Success: true, Response: "ok"})
	}))
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "")

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "unset"})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), GenerateRequest{Prompt: "zero", Temperature: Temperature(0)})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, DefaultTemperature, got[0]["temperature"])
	assert.Equal(t, 0.0, got[1]["temperature"])
}

func TestClient_GenerateImage(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.URL, "")

	url, err := client.GenerateImage(context.Background(), "a museum at dusk")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", url)

	_, err = client.GenerateImage(context.Background(), "")
	assert.EqualError(t, err, "generate image: Prompt is required")
}

func TestClient_HealthAndModels(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.URL, "")

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)

	list, err := client.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, DefaultModel, list[0].ID)
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, "").Health(context.Background())
	assert.ErrorIs(t, err, models.ErrServerUnreachable)
}
