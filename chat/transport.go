package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chinampa/models"
)

// Transport obtains the assistant's reply to one user message.
type Transport interface {
	Ask(ctx context.Context, text string) (string, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, text string) (string, error)

func (f TransportFunc) Ask(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// HTTPTransport calls POST {BaseURL}/api/askAI.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
	// Report, when set, is forwarded so the assistant can ground its answer.
	Report *models.RawReport
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (t *HTTPTransport) Ask(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(models.AskReq{Message: text, Report: t.Report})
	if err != nil {
		return "", fmt.Errorf("marshal ask req: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/api/askAI", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Status: resp.StatusCode, Body: string(data)}
	}
	var out models.AskResp
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode assistant resp: %w", err)
	}
	return out.Response, nil
}
