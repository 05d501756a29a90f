// Package gemini is a thin client for the Gemini generateContent REST API.
// It exposes the three capabilities the analysis pipeline needs: a
// schema-enforced JSON call, an image generation call, and a plain text
// call. Schema mismatches fail closed as contract violations.
package gemini

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
	"unicode/utf8"

	apperrors "go-chart-analyzer/internal/errors"
	"go-chart-analyzer/internal/payload"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config holds client construction parameters.
type Config struct {
	APIKey        string
	BaseURL       string
	VisionModel   string
	ImageGenModel string
	TextModel     string
	Timeout       time.Duration
}

// Client calls the Gemini REST API. Construct once at process start and
// inject wherever model calls are made; there is no package-level instance.
type Client struct {
	apiKey        string
	baseURL       string
	visionModel   string
	imageGenModel string
	textModel     string
	httpClient    *http.Client
}

// Request describes one model invocation: an instruction, optional user
// text, and an optional inline image.
type Request struct {
	System string
	Text   string
	Image  *payload.Payload
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		apiKey:        cfg.APIKey,
		baseURL:       baseURL,
		visionModel:   cfg.VisionModel,
		imageGenModel: cfg.ImageGenModel,
		textModel:     cfg.TextModel,
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// GenerateJSON sends the request to the vision model with a response
// schema and application/json output enforced, returning the raw JSON
// document produced by the model.
func (c *Client) GenerateJSON(ctx context.Context, req Request, schema map[string]interface{}) ([]byte, error) {
	body := c.buildRequest(req)
	body.GenerationConfig = &generationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   schema,
	}

	resp, err := c.generate(ctx, c.visionModel, body)
	if err != nil {
		return nil, err
	}

	text := joinTextParts(resp)
	if text == "" {
		return nil, apperrors.NewContractError("model returned no JSON content", nil)
	}
	if !json.Valid([]byte(text)) {
		return nil, apperrors.NewContractError("model returned invalid JSON", nil)
	}
	return []byte(text), nil
}

// GenerateImage sends the request to the image generation model and
// returns the first inline image part of the response. A response without
// an image part is a contract violation.
func (c *Client) GenerateImage(ctx context.Context, req Request) (payload.Payload, error) {
	body := c.buildRequest(req)
	body.GenerationConfig = &generationConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := c.generate(ctx, c.imageGenModel, body)
	if err != nil {
		return payload.Payload{}, err
	}

	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return payload.Payload{}, apperrors.NewContractError("model returned undecodable image data", err)
		}
		return payload.FromBytes(p.InlineData.MIMEType, data)
	}
	return payload.Payload{}, apperrors.NewContractError("model response contained no image part", nil)
}

// GenerateText sends the request to the text model and returns the
// concatenated text parts of the response.
func (c *Client) GenerateText(ctx context.Context, req Request) (string, error) {
	resp, err := c.generate(ctx, c.textModel, c.buildRequest(req))
	if err != nil {
		return "", err
	}
	text := joinTextParts(resp)
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewContractError("model returned empty text", nil)
	}
	return text, nil
}

func (c *Client) buildRequest(req Request) *generateRequest {
	parts := []part{}
	if req.Text != "" {
		parts = append(parts, part{Text: req.Text})
	}
	if req.Image != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MIMEType: req.Image.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}

	body := &generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	return body
}

// generate performs a single generateContent call. There is deliberately
// no retry or backoff here: a slow or failed call propagates to whichever
// failure policy the calling stage applies.
func (c *Client) generate(ctx context.Context, model string, body *generateRequest) (*generateResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal model request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create model request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewUpstreamError("model call failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to read model response", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError(
			fmt.Sprintf("model call failed with status %d: %s", httpResp.StatusCode, truncate(string(respBody), 512)), nil)
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, apperrors.NewContractError("failed to parse model response", err)
	}
	if resp.Error != nil {
		return nil, apperrors.NewUpstreamError(fmt.Sprintf("model error: %s", resp.Error.Message), nil)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, apperrors.NewContractError("model returned no candidates", nil)
	}
	return &resp, nil
}

func joinTextParts(resp *generateResponse) string {
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so an
// upstream error body never yields an invalid UTF-8 error message.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
