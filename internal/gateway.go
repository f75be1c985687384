package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Gateway is the remote analysis service
type Gateway interface {
	ListDatasets(ctx context.Context) ([]string, error)
	Query(ctx context.Context, text, datasetID string) (*QueryResponse, error)
	Upload(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error)
}

// QueryResponse is the answer payload for one query
type QueryResponse struct {
	Summary           string `json:"summary"`
	Table             Table  `json:"table,omitempty"`
	VisualizationHTML string `json:"visualizationHtml,omitempty"`
	VisualizationURL  string `json:"visualizationUrl,omitempty"`
}

// UploadResponse carries the identifier assigned to an uploaded dataset
type UploadResponse struct {
	DatasetID string `json:"dataset_id"`
}

type queryRequest struct {
	Query     string `json:"query"`
	DatasetID string `json:"dataset_id"`
}

type errorBody struct {
	Error string `json:"error"`
}

// maxErrorBody caps how much of a failed response is read into the error text
const maxErrorBody = 4 << 10

// HTTPGateway talks to the analysis service over its JSON API
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client. timeout bounds each request; zero means none.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured base address without a trailing slash
func (g *HTTPGateway) BaseURL() string {
	return g.baseURL
}

// ResolveVisualizationURL resolves a visualization reference against the base address
func (g *HTTPGateway) ResolveVisualizationURL(ref string) string {
	return ResolveVisualizationURL(g.baseURL, ref)
}

// ResolveVisualizationURL concatenates base and ref. Absolute references are returned unchanged.
func ResolveVisualizationURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + ref
}

// ListDatasets returns the identifiers of every dataset the service knows, in service order
func (g *HTTPGateway) ListDatasets(ctx context.Context) ([]string, error) {
	url := g.baseURL + "/api/datasets"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &GatewayError{Op: "list", URL: url, Err: err}
	}

	var ids []string
	if err := g.do(req, "list", &ids); err != nil {
		return nil, err
	}
	LogDebug("Listed %d dataset(s)", len(ids))
	return ids, nil
}

// Query asks a question about a dataset
func (g *HTTPGateway) Query(ctx context.Context, text, datasetID string) (*QueryResponse, error) {
	url := g.baseURL + "/api/query"
	body, err := json.Marshal(queryRequest{Query: text, DatasetID: datasetID})
	if err != nil {
		return nil, &GatewayError{Op: "query", URL: url, Err: fmt.Errorf("failed to marshal request body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Op: "query", URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var resp QueryResponse
	if err := g.do(req, "query", &resp); err != nil {
		return nil, err
	}
	LogDebug("Query on %s answered (%d table row(s))", datasetID, len(resp.Table))
	return &resp, nil
}

// Upload sends a dataset archive as the multipart field "file"
func (g *HTTPGateway) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	url := g.baseURL + "/api/upload"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &GatewayError{Op: "upload", URL: url, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &GatewayError{Op: "upload", URL: url, Err: fmt.Errorf("failed to read archive: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return nil, &GatewayError{Op: "upload", URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, &GatewayError{Op: "upload", URL: url, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp UploadResponse
	if err := g.do(req, "upload", &resp); err != nil {
		return nil, err
	}
	if resp.DatasetID == "" {
		return nil, &GatewayError{Op: "upload", URL: url, Err: errors.New("response is missing dataset_id")}
	}
	LogDebug("Uploaded %s as %s", filename, resp.DatasetID)
	return &resp, nil
}

// do sends req and decodes a 2xx JSON body into out
func (g *HTTPGateway) do(req *http.Request, op string, out any) error {
	url := req.URL.String()
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return &GatewayError{Op: op, URL: url, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &GatewayError{Op: op, URL: url, Status: resp.StatusCode, Err: errors.New(errorMessage(bodyBytes, resp.Status))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Op: op, URL: url, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorMessage prefers the service's {"error": "..."} text over the raw body
func errorMessage(body []byte, status string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return status
}
