package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

// Options controls how the video synthesis client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client speaks the motion backend's JSON-over-HTTP contract. Without an API
// key every call is served by the deterministic synthetic backend instead, so
// the full pipeline stays exercisable in development and CI.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
	synthetic  *syntheticBackend
}

type submitPayload struct {
	Model           string       `json:"model"`
	Prompt          string       `json:"prompt"`
	Width           int          `json:"width,omitempty"`
	Height          int          `json:"height,omitempty"`
	DurationSeconds int          `json:"duration_seconds,omitempty"`
	AspectRatio     string       `json:"aspect_ratio,omitempty"`
	Image           *inlineImage `json:"image,omitempty"`
}

type inlineImage struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type jobEnvelope struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs the client with sane defaults. A nil HTTP client gets
// a reusable one with a bounded timeout.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.videosynth.example.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "motion-2.0"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		synthetic:  newSyntheticBackend(),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client performs remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit sends one generation request and returns the backend-assigned job id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.HasCredentials() {
		id := c.synthetic.submit(req)
		c.logger.Debug().Str("external_id", id).Msg("video: submitted synthetic job")
		return id, nil
	}

	payload := submitPayload{
		Model:           c.model,
		Prompt:          req.Prompt,
		Width:           req.Width,
		Height:          req.Height,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
	}
	if len(req.ImageData) > 0 {
		payload.Image = &inlineImage{
			MIMEType: req.ImageMIME,
			Data:     base64.StdEncoding.EncodeToString(req.ImageData),
		}
	}
	var envelope jobEnvelope
	if err := c.invoke(ctx, http.MethodPost, "/jobs", payload, &envelope); err != nil {
		return "", err
	}
	if envelope.ID == "" {
		return "", &domain.AdapterError{Message: "video backend returned no job id", Terminal: true}
	}
	c.logger.Debug().Str("external_id", envelope.ID).Str("model", c.model).Msg("video: submitted job")
	return envelope.ID, nil
}

// CheckStatus reports the backend's view of the job.
func (c *Client) CheckStatus(ctx context.Context, externalID string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if !c.HasCredentials() {
		return c.synthetic.checkStatus(externalID), nil
	}

	var envelope jobEnvelope
	path := "/jobs/" + url.PathEscape(externalID)
	if err := c.invoke(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return Status{}, err
	}
	st := Status{
		State:    normalizeState(envelope.Status),
		Progress: envelope.Progress,
	}
	if envelope.Error != nil {
		st.Code = envelope.Error.Code
		st.Message = envelope.Error.Message
	}
	return st, nil
}

// DownloadAsset fetches one produced artifact and its MIME type.
func (c *Client) DownloadAsset(ctx context.Context, externalID, variant string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if !c.HasCredentials() {
		return c.synthetic.downloadAsset(externalID, variant)
	}

	endpoint := fmt.Sprintf("%s/jobs/%s/assets/%s", c.baseURL, url.PathEscape(externalID), url.PathEscape(variant))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("video: build download request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("video: download asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return nil, "", classifyHTTPError(resp.StatusCode, raw)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("video: read asset: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "video/mp4"
	}
	return data, mime, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("video: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("video: build request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("video: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("video: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return classifyHTTPError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("video: decode response: %w", err)
	}
	return nil
}

// classifyHTTPError maps a backend error response onto the adapter error
// taxonomy: content-policy and prompt rejections are terminal, rate limits
// and server-side faults stay retryable within the poll budget.
func classifyHTTPError(status int, raw []byte) error {
	var envelope errorEnvelope
	code := ""
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		code = envelope.Error.Code
		message = envelope.Error.Message
	}
	if message == "" {
		message = fmt.Sprintf("video backend status %d", status)
	}
	retryable := status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
	if isTerminalCode(code) {
		retryable = false
	}
	return &domain.AdapterError{Code: code, Message: message, Terminal: !retryable}
}

func isTerminalCode(code string) bool {
	switch code {
	case CodeContentPolicy, CodeInvalidPrompt:
		return true
	}
	return false
}

func normalizeState(status string) State {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "queued", "submitted":
		return StatePending
	case "running", "processing", "in_progress":
		return StateRunning
	case "completed", "succeeded":
		return StateCompleted
	case "failed", "rejected", "cancelled":
		return StateFailed
	}
	return StateRunning
}

var _ Synthesizer = (*Client)(nil)
