package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediagen/internal/domain"
	"mediagen/internal/infra"
)

// Options controls how the image synthesis client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client speaks the plate backend's multimodal JSON contract: one user
// message whose content mixes inline reference images with the prompt text.
// Without an API key every call renders a deterministic synthetic image so
// the pipelines stay exercisable in development and CI.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type generatePayload struct {
	Model string `json:"model"`
	Input struct {
		Messages []generateMessage `json:"messages"`
	} `json:"input"`
	Parameters struct {
		Size string `json:"size,omitempty"`
	} `json:"parameters"`
}

type generateMessage struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

type generateResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content []map[string]string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs the client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.imagesynth.example.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "plate-xl"
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

// Generate produces one image for the request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !c.HasCredentials() {
		res := syntheticResult(req)
		c.logger.Debug().Str("aspect_ratio", req.AspectRatio).Msg("image: rendered synthetic image")
		return res, nil
	}

	payload := generatePayload{Model: c.model}
	content := make([]any, 0, len(req.ReferenceImages)+1)
	for _, ref := range req.ReferenceImages {
		content = append(content, map[string]string{"image": dataURL(ref)})
	}
	content = append(content, map[string]string{"text": req.Prompt})
	payload.Input.Messages = append(payload.Input.Messages, generateMessage{Role: "user", Content: content})
	payload.Parameters.Size = sizeForAspect(req.AspectRatio)

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("image: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("image: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("image: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("image: read response: %w", err)
	}
	var out generateResponse
	if resp.StatusCode >= http.StatusBadRequest {
		code, message := "", strings.TrimSpace(string(raw))
		if err := json.Unmarshal(raw, &out); err == nil && out.Message != "" {
			code, message = out.Code, out.Message
		}
		return Result{}, classifyError(resp.StatusCode, code, message)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("image: decode response: %w", err)
	}
	if len(out.Output.Choices) == 0 || len(out.Output.Choices[0].Message.Content) == 0 {
		return Result{}, &domain.AdapterError{Message: "image backend returned no content", Terminal: true}
	}
	imageURL := strings.TrimSpace(out.Output.Choices[0].Message.Content[0]["image"])
	if imageURL == "" {
		return Result{}, &domain.AdapterError{Message: "image backend returned no image url", Terminal: true}
	}
	data, mime, err := c.download(ctx, imageURL)
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug().Str("model", c.model).Int("bytes", len(data)).Msg("image: generated image")
	return Result{Data: data, MIMEType: mime}, nil
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("image: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("image: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", classifyError(resp.StatusCode, "", fmt.Sprintf("image download status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("image: read image: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// classifyError maps a backend rejection onto the adapter error taxonomy.
func classifyError(status int, code, message string) error {
	if message == "" {
		message = fmt.Sprintf("image backend status %d", status)
	}
	retryable := status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
	switch code {
	case CodeContentPolicy, CodeInvalidPrompt:
		retryable = false
	}
	return &domain.AdapterError{Code: code, Message: message, Terminal: !retryable}
}

func dataURL(data []byte) string {
	mime := http.DetectContentType(data)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func sizeForAspect(aspect string) string {
	switch strings.TrimSpace(aspect) {
	case "16:9":
		return "1280*720"
	case "9:16":
		return "720*1280"
	case "4:3":
		return "1152*864"
	case "3:4":
		return "864*1152"
	}
	return "1024*1024"
}

var _ Synthesizer = (*Client)(nil)
