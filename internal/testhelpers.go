package internal

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// StubGateway is an in-process Gateway for tests. Queries block while the
// gate is held; see Hold and Release.
type StubGateway struct {
	mu         sync.Mutex
	datasets   []string
	listErr    error
	queryErr   error
	uploadErr  error
	uploadID   string
	response   func(text, datasetID string) *QueryResponse
	gate       chan struct{}
	queryCalls int
	uploads    map[string][]byte
}

// NewStubGateway creates a stub that lists datasets and answers every query
// with a summary echoing the question
func NewStubGateway(datasets ...string) *StubGateway {
	return &StubGateway{
		datasets: datasets,
		uploadID: "uploaded",
		uploads:  make(map[string][]byte),
		response: func(text, datasetID string) *QueryResponse {
			return &QueryResponse{Summary: "answer: " + text}
		},
	}
}

// SetResponse replaces the query answer builder
func (g *StubGateway) SetResponse(fn func(text, datasetID string) *QueryResponse) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.response = fn
}

// FailList makes ListDatasets return err
func (g *StubGateway) FailList(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listErr = err
}

// FailQuery makes Query return err
func (g *StubGateway) FailQuery(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryErr = err
}

// FailUpload makes Upload return err
func (g *StubGateway) FailUpload(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploadErr = err
}

// SetUploadID sets the identifier returned by Upload
func (g *StubGateway) SetUploadID(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uploadID = id
}

// Hold makes subsequent queries block until Release
func (g *StubGateway) Hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
}

// Release unblocks held queries
func (g *StubGateway) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gate != nil {
		close(g.gate)
		g.gate = nil
	}
}

// QueryCalls returns how many times Query was invoked
func (g *StubGateway) QueryCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queryCalls
}

// Uploaded returns the bytes received for filename
func (g *StubGateway) Uploaded(filename string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.uploads[filename]
	return data, ok
}

func (g *StubGateway) ListDatasets(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, &GatewayError{Op: "list", Err: g.listErr}
	}
	return append([]string(nil), g.datasets...), nil
}

func (g *StubGateway) Query(ctx context.Context, text, datasetID string) (*QueryResponse, error) {
	g.mu.Lock()
	g.queryCalls++
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-time.After(5 * time.Second):
			return nil, &GatewayError{Op: "query", Err: errors.New("stub gate never released")}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.queryErr != nil {
		return nil, &GatewayError{Op: "query", Err: g.queryErr}
	}
	return g.response(text, datasetID), nil
}

func (g *StubGateway) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &GatewayError{Op: "upload", Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.uploadErr != nil {
		return nil, &GatewayError{Op: "upload", Err: g.uploadErr}
	}
	g.uploads[filename] = data
	return &UploadResponse{DatasetID: g.uploadID}, nil
}

// NoticeRecorder collects notices for assertions
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *NoticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns the notices received so far
func (r *NoticeRecorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// CreateTestTranscript creates a transcript with one answered question
func CreateTestTranscript(id string) *Transcript {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Transcript{
		ID:            id,
		StartedAt:     start,
		UpdatedAt:     start.Add(2 * time.Second),
		ActiveDataset: "sales_2024",
		Messages: []Message{
			{
				ID:        "1",
				Role:      RoleUser,
				Content:   "What is total revenue by region?",
				CreatedAt: start.Add(time.Second),
			},
			{
				ID:               "2",
				Role:             RoleAssistant,
				Content:          "North leads revenue.",
				Summary:          "North leads revenue.",
				Table:            Table{NewRow("region", "north", "revenue", 1200.5), NewRow("region", "south", "revenue", nil)},
				VisualizationURL: "/visualizations/chart_1.html",
				CreatedAt:        start.Add(2 * time.Second),
			},
		},
	}
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages
func CreateTestTranscriptWithMessages(id string, messages []Message) *Transcript {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Transcript{
		ID:        id,
		StartedAt: start,
		UpdatedAt: start,
		Messages:  messages,
	}
}
