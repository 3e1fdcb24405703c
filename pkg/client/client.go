// Package client provides a Go client for the taskgen HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mindsurve/taskgen/pkg/server/commands"
	serverconfig "github.com/mindsurve/taskgen/pkg/server/config"
)

const (
	defaultRetryMax    = 3
	healthProbeTimeout = 10 * time.Second
)

// RequestError is returned when the server answers with a non-2xx
// status. Code carries the code field of the error body, for example
// "invalid_configuration" or "study_not_found".
type RequestError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Client calls a running taskgen server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option overrides a Client default.
type Option func(*Client)

// WithTimeout sets the per-request timeout. The default is
// serverconfig.DefaultClientTimeout, sized for full matrix downloads.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. The default
// client retries transient transport failures with backoff.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a Client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = defaultRetryMax

	httpClient := retryClient.StandardClient()
	httpClient.Timeout = serverconfig.DefaultClientTimeout

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Healthy reports whether the server's readiness probe answers 200.
// Probe failures read as false, so it can drive wait-for-ready loops.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// GenerateTasks generates a task matrix without persisting it.
func (c *Client) GenerateTasks(ctx context.Context, req *commands.GenerateTasksRequest) (*commands.GenerateTasksResponse, error) {
	var resp commands.GenerateTasksResponse
	if err := c.post(ctx, "/api/generate-tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlanDesign returns the recommended design for an element count.
func (c *Client) PlanDesign(ctx context.Context, req *commands.PlanDesignRequest) (*commands.PlanDesignResponse, error) {
	var resp commands.PlanDesignResponse
	if err := c.post(ctx, "/api/plan", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateMatrix checks an externally supplied matrix against params.
func (c *Client) ValidateMatrix(ctx context.Context, req *commands.ValidateMatrixRequest) (*commands.ValidateMatrixResponse, error) {
	var resp commands.ValidateMatrixResponse
	if err := c.post(ctx, "/api/validate-matrix", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateStudy generates a matrix and persists it as a named study.
func (c *Client) CreateStudy(ctx context.Context, req *commands.CreateStudyRequest) (*commands.CreateStudyResponse, error) {
	var resp commands.CreateStudyResponse
	if err := c.post(ctx, "/api/studies", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStudy fetches a study's metadata by ID.
func (c *Client) GetStudy(ctx context.Context, studyID string) (*commands.GetStudyResponse, error) {
	var resp commands.GetStudyResponse
	if err := c.get(ctx, "/api/studies/"+url.PathEscape(studyID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStudyMatrix fetches a study's full task matrix by ID.
func (c *Client) GetStudyMatrix(ctx context.Context, studyID string) (*commands.GetStudyMatrixResponse, error) {
	var resp commands.GetStudyMatrixResponse
	if err := c.get(ctx, "/api/studies/"+url.PathEscape(studyID)+"/matrix", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListStudies returns a page of studies. Resume with the continuation
// token of the previous response; an empty token in the response means
// the listing is exhausted.
func (c *Client) ListStudies(ctx context.Context, req *commands.ListStudiesRequest) (*commands.ListStudiesResponse, error) {
	query := url.Values{}
	if req.PageSize > 0 {
		query.Set("page_size", strconv.FormatInt(int64(req.PageSize), 10))
	}
	if req.ContinuationToken != "" {
		query.Set("continuation_token", req.ContinuationToken)
	}

	path := "/api/studies"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp commands.ListStudiesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteStudy deletes a study and its matrix.
func (c *Client) DeleteStudy(ctx context.Context, studyID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/studies/"+url.PathEscape(studyID), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newRequestError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

func newRequestError(resp *http.Response) error {
	reqErr := &RequestError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		reqErr.Code = body.Code
		reqErr.Message = body.Message
	}
	if reqErr.Code == "" {
		reqErr.Code = http.StatusText(resp.StatusCode)
	}
	return reqErr
}
