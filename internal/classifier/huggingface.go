// SPDX-License-Identifier: Apache-2.0

package classifier

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

	"github.com/authenticaproj/authentica/internal/fusion"
)

const (
	// DefaultEndpoint is the Hugging Face serverless inference base URL.
	DefaultEndpoint = "https://router.huggingface.co/hf-inference/models"

	defaultTimeout   = 60 * time.Second
	maxIdleConns     = 10
	maxErrorBodySize = 4 << 10
	clientAgent      = "authentica/1.0"
)

var ErrModelLoading = errors.New("model is loading")

// HTTPClient is the subset of *http.Client used for inference calls.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-success response from the inference API.
type APIError struct {
	Model      string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inference request for %s failed (status: %d): %s", e.Model, e.StatusCode, e.Body)
}

// HuggingFace classifies content with a model hosted on the Hugging Face
// Inference API.
type HuggingFace struct {
	endpoint string
	model    string
	token    string
	client   HTTPClient
}

// HuggingFaceOption configures a HuggingFace classifier.
type HuggingFaceOption func(*HuggingFace)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) HuggingFaceOption {
	return func(h *HuggingFace) {
		if endpoint != "" {
			h.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithToken sets the bearer token sent with each request.
func WithToken(token string) HuggingFaceOption {
	return func(h *HuggingFace) {
		h.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPClient) HuggingFaceOption {
	return func(h *HuggingFace) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) HuggingFaceOption {
	return func(h *HuggingFace) {
		if d > 0 {
			h.client = newHTTPClient(d)
		}
	}
}

// NewHuggingFace creates a classifier for the given model id, for example
// "openai-community/roberta-large-openai-detector".
func NewHuggingFace(model string, opts ...HuggingFaceOption) *HuggingFace {
	h := &HuggingFace{
		endpoint: DefaultEndpoint,
		model:    model,
		client:   newHTTPClient(defaultTimeout),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          maxIdleConns,
			IdleConnTimeout:       timeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}

// Model returns the model id.
func (h *HuggingFace) Model() string {
	return h.model
}

func (h *HuggingFace) Classify(ctx context.Context, in Input) ([]fusion.ClassifierResult, error) {
	req, err := h.newRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", h.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		apiErr := &APIError{Model: h.model, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode == http.StatusServiceUnavailable {
			return nil, fmt.Errorf("%w: %w", ErrModelLoading, apiErr)
		}
		return nil, apiErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", h.model, err)
	}
	results, err := decodeResults(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", h.model, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s: %w", h.model, ErrNoResults)
	}
	return results, nil
}

func (h *HuggingFace) newRequest(ctx context.Context, in Input) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
	)
	switch in.Modality {
	case Text:
		b, err := json.Marshal(map[string]string{"inputs": in.Text})
		if err != nil {
			return nil, fmt.Errorf("encoding text input: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	case Image:
		if len(in.Data) == 0 {
			return nil, errors.New("image input has no data")
		}
		contentType = in.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		body = bytes.NewReader(in.Data)
	default:
		return nil, fmt.Errorf("model %s cannot classify %s input", h.model, in.Modality)
	}

	url := h.endpoint + "/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating inference request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", clientAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	return req, nil
}

// decodeResults accepts both the flat [{label,score}] shape returned for image
// models and the nested [[{label,score}]] shape returned for text models.
func decodeResults(raw []byte) ([]fusion.ClassifierResult, error) {
	var flat []fusion.ClassifierResult
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var nested [][]fusion.ClassifierResult
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}
