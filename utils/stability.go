package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Fixed generation parameters sent with every request; the client only
// chooses the prompt.
const (
	stabilityModel        = "sd3"
	stabilityAspectRatio  = "1:1"
	stabilityOutputFormat = "jpeg"
)

// UpstreamError carries a non-success response from the image API. The raw
// body is surfaced verbatim to the caller per the error contract.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Image generation failed: %s", e.Body)
}

// StabilityClient talks to the Stability AI stable-image endpoint.
type StabilityClient struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

// NewStabilityClient returns a client for the given endpoint and bearer key.
func NewStabilityClient(apiKey, endpoint string) *StabilityClient {
	return &StabilityClient{
		APIKey:     apiKey,
		Endpoint:   endpoint,
		HTTPClient: http.DefaultClient,
	}
}

// Configured reports whether an API key is present. Requests without a key
// are rejected before any upstream call.
func (c *StabilityClient) Configured() bool {
	return c != nil && c.APIKey != ""
}

// GenerateImage posts the prompt as a multipart form and returns the decoded
// JPEG bytes. Non-2xx responses come back as *UpstreamError.
func (c *StabilityClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := map[string]string{
		"prompt":        prompt,
		"model":         stabilityModel,
		"aspect_ratio":  stabilityAspectRatio,
		"output_format": stabilityOutputFormat,
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	var payload struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}
	img, err := base64.StdEncoding.DecodeString(payload.Image)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return img, nil
}
