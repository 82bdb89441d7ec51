package translit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteFallback posts the request to an external transliteration API
// authenticated with a bearer token.
type RemoteFallback struct {
	url        string
	token      string
	httpClient *http.Client
}

type remoteRequest struct {
	Text         string   `json:"text"`
	SourceScript string   `json:"source_script"`
	TargetScript string   `json:"target_script"`
	Nativize     bool     `json:"nativize"`
	PreOptions   []string `json:"pre_options,omitempty"`
	PostOptions  []string `json:"post_options,omitempty"`
}

type remoteResponse struct {
	TranslatedText string `json:"translated_text"`
	Error          string `json:"error,omitempty"`
}

// NewRemoteFallback returns nil when url or token is empty, which disables
// the fallback.
func NewRemoteFallback(url, token string, timeout time.Duration) *RemoteFallback {
	if url == "" || token == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteFallback{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *RemoteFallback) Name() string { return "http" }

func (f *RemoteFallback) Transliterate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(remoteRequest{
		Text:         req.Text,
		SourceScript: req.From,
		TargetScript: req.To,
		Nativize:     req.Nativize,
		PreOptions:   req.PreOptions,
		PostOptions:  req.PostOptions,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+f.token)

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fallback request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fallback API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		if out.Error != "" {
			return "", fmt.Errorf("fallback returned error: %s", out.Error)
		}
		return "", fmt.Errorf("fallback returned no translated_text")
	}
	return out.TranslatedText, nil
}
