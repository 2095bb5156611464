package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// HTTPConfig holds configuration for the HTTP synthesis engine.
type HTTPConfig struct {
	Endpoint string        // Synthesis service URL
	APIKey   string        // Bearer credential
	Timeout  time.Duration // Per-request timeout
}

// DefaultHTTPConfig returns a sensible default configuration.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout: 10 * time.Second,
	}
}

// HTTPEngine synthesizes speech through a remote HTTP service that accepts
// text plus a voice profile and returns base64-encoded WAV audio.
type HTTPEngine struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPEngine creates an HTTP synthesis engine.
func NewHTTPEngine(config HTTPConfig) *HTTPEngine {
	if config.Timeout <= 0 {
		config.Timeout = DefaultHTTPConfig().Timeout
	}
	return &HTTPEngine{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type synthesizeResponse struct {
	Audio string `json:"audio"`
}

// Synthesize sends text to the synthesis service and returns the
// base64-encoded audio payload.
func (e *HTTPEngine) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if e.config.APIKey == "" {
		return "", ErrAuth
	}

	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: voiceID})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrQuota
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: HTTP %d", ErrNetwork, resp.StatusCode)
	}

	var out synthesizeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Audio == "" {
		return "", ErrEmptyAudio
	}

	log.Debug("synthesis complete",
		"voice", voiceID,
		"textLen", len(text),
		"payloadLen", len(out.Audio),
		"duration", time.Since(start))

	return out.Audio, nil
}

// Available reports whether the engine is configured for use.
func (e *HTTPEngine) Available() bool {
	return e.config.Endpoint != "" && e.config.APIKey != ""
}

// Name returns the engine name.
func (e *HTTPEngine) Name() string {
	return "http"
}
