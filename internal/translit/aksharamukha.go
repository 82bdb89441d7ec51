package translit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/scriptbridge/scriptbridge-api/internal/script"
)

const defaultAksharamukhaURL = "https://aksharamukha-plugin.appspot.com"

// romanizations accepted by the Aksharamukha API on top of the Brahmic
// registry.
var romanizations = []string{"HK", "IAST", "ISO", "ITRANS", "Velthuis"}

// AksharamukhaEngine calls the public Aksharamukha HTTP API. Options are
// passed through untouched; the remote service validates them.
type AksharamukhaEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewAksharamukhaEngine creates a client for an Aksharamukha server. An
// empty baseURL selects the public instance.
func NewAksharamukhaEngine(baseURL string, timeout time.Duration) *AksharamukhaEngine {
	if baseURL == "" {
		baseURL = defaultAksharamukhaURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AksharamukhaEngine{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *AksharamukhaEngine) Name() string { return "aksharamukha" }

func (e *AksharamukhaEngine) Scripts() []string {
	names := append(script.Names(), romanizations...)
	sort.Strings(names)
	return names
}

func (e *AksharamukhaEngine) Options() []string { return nil }

func (e *AksharamukhaEngine) Transliterate(ctx context.Context, req Request) (Result, error) {
	source := req.From
	if source == "" {
		source = script.Autodetect
	}

	q := url.Values{}
	q.Set("source", source)
	q.Set("target", req.To)
	q.Set("text", req.Text)
	q.Set("nativize", strconv.FormatBool(req.Nativize))
	if len(req.PreOptions) > 0 {
		q.Set("preOptions", strings.Join(req.PreOptions, ","))
	}
	if len(req.PostOptions) > 0 {
		q.Set("postOptions", strings.Join(req.PostOptions, ","))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/public?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("aksharamukha request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("aksharamukha API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	out := string(body)
	if source == script.Autodetect {
		if s, ok := script.Dominant(req.Text); ok {
			source = s.Name
		}
	}
	return Result{Text: out, Source: source}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
