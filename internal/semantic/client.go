// Package semantic provides the client for the external text-similarity
// service. The service is best-effort: any failure degrades to a zero
// score instead of surfacing an error.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultTimeout bounds one similarity request.
const DefaultTimeout = 7 * time.Second

// Result holds the externally computed similarity between a resume text
// blob and a job text blob.
type Result struct {
	// SemanticScore is in [0,1]; zero when the service was unavailable.
	SemanticScore   float64 `json:"semanticScore"`
	SemanticPercent int     `json:"semanticPercent"`
}

// Client calls the similarity service's /semantic-score endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a similarity client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type scoreRequest struct {
	ResumeText string `json:"resumeText"`
	JobText    string `json:"jobText"`
}

// Score requests a similarity score for the two text blobs. It never
// returns an error: on timeout, connection failure, or a malformed
// response it logs the failure and returns the zero Result so the match
// pipeline degrades instead of failing the request.
func (c *Client) Score(ctx context.Context, resumeText, jobText string) Result {
	result, err := c.score(ctx, resumeText, jobText)
	if err != nil {
		log.Printf("[semantic] score unavailable, defaulting to 0: %v", err)
		return Result{}
	}
	return result
}

func (c *Client) score(ctx context.Context, resumeText, jobText string) (Result, error) {
	body, err := json.Marshal(scoreRequest{ResumeText: resumeText, JobText: jobText})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/semantic-score", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("malformed response: %w", err)
	}

	// The score feeds the weighted match formula; clamp out-of-range
	// values from a misbehaving service.
	if result.SemanticScore < 0 {
		result.SemanticScore = 0
	}
	if result.SemanticScore > 1 {
		result.SemanticScore = 1
	}
	if result.SemanticPercent < 0 {
		result.SemanticPercent = 0
	}
	if result.SemanticPercent > 100 {
		result.SemanticPercent = 100
	}

	return result, nil
}
