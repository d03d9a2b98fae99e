// Package backend is a client for the text and image generation service the
// assistant talks to.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"discovery/internal/models"
	"discovery/pkg/metrics"
)

const maxConcurrent = 5

type Client struct {
	httpClient *http.Client
	// streamClient has no overall timeout; streams are bounded by ctx.
	streamClient *http.Client
	baseURL      string
	model      string
	sem        *semaphore.Weighted
}

func NewClient(baseURL, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		streamClient: &http.Client{},
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		sem:          semaphore.NewWeighted(maxConcurrent),
	}
}

// Health calls GET /health. Any transport failure is reported as
// models.ErrServerUnreachable.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.getJSON(ctx, "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Models lists the models the backend advertises.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	var resp modelsResponse
	if err := c.getJSON(ctx, "/api/models", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Generate returns the full completion for req.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	req = c.withDefaults(req)
	var resp generateResponse
	err := c.postJSON(ctx, "/api/generate", req, &resp)
	metrics.Observe("backend_generate", err)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("generate: %s", resp.Error)
	}
	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("generate: %w", models.ErrEmptyPayload)
	}
	return resp.Response, nil
}

// Stream posts req to /api/stream-generate and calls onChunk for every piece
// of text as it arrives. Chunks always end on a rune boundary. The
// concatenated text is returned.
func (c *Client) Stream(ctx context.Context, req GenerateRequest, onChunk func(chunk string) error) (string, error) {
	req = c.withDefaults(req)
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	resp, err := c.send(ctx, c.streamClient, http.MethodPost, "/api/stream-generate", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stream request failed: %s", resp.Status)
	}

	var full strings.Builder
	emit := func(chunk string) error {
		full.WriteString(chunk)
		if onChunk == nil {
			return nil
		}
		return onChunk(chunk)
	}

	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			if cut := completeLen(pending); cut > 0 {
				chunk := string(pending[:cut])
				pending = append(pending[:0], pending[cut:]...)
				if err := emit(chunk); err != nil {
					return full.String(), err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return full.String(), fmt.Errorf("%w: %v", models.ErrTransport, readErr)
		}
	}
	if len(pending) > 0 {
		if err := emit(string(pending)); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}

// completeLen returns how many leading bytes of p can be decoded without
// splitting a multi-byte rune.
func completeLen(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) {
			return len(p)
		}
		return i
	}
	return len(p)
}

// GenerateImage asks the backend for an image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var resp imageResponse
	err := c.postJSON(ctx, "/api/generate-image", imageRequest{Prompt: prompt}, &resp)
	metrics.Observe("backend_image", err)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "failed to generate image"
		}
		return "", fmt.Errorf("generate image: %s", resp.Error)
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("generate image: %w", models.ErrEmptyPayload)
	}
	return resp.ImageURL, nil
}

func (c *Client) withDefaults(req GenerateRequest) GenerateRequest {
	if req.Model == "" {
		req.Model = c.model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 512
	}
	if req.Temperature == nil {
		req.Temperature = Temperature(DefaultTemperature)
	}
	return req
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

// postJSON decodes the body even on error statuses: the backend reports
// failures as {success:false, error}.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return c.send(ctx, c.httpClient, method, path, body)
}

func (c *Client) send(ctx context.Context, client *http.Client, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrServerUnreachable, err)
	}
	return resp, nil
}

func decode(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}
		return fmt.Errorf("%w: %v", models.ErrEmptyPayload, err)
	}
	return nil
}
