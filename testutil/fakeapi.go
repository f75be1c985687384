package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// QueryRequest is what the fake API received on /api/query
type QueryRequest struct {
	Query     string `json:"query"`
	DatasetID string `json:"dataset_id"`
}

// FakeAPI is an httptest server speaking the analysis service's JSON API
type FakeAPI struct {
	Server *httptest.Server

	mu            sync.Mutex
	datasets      []string
	queryResponse string
	uploadID      string
	failStatus    int
	listStatus    int
	queries       []QueryRequest
	uploads       []string
	uploadBodies  map[string][]byte
}

// NewFakeAPI starts a fake service that lists datasets and answers every query with SampleQueryResponse
func NewFakeAPI(t *testing.T, datasets ...string) *FakeAPI {
	t.Helper()
	api := &FakeAPI{
		datasets:      datasets,
		queryResponse: SampleQueryResponse,
		uploadID:      "uploaded_dataset",
		uploadBodies:  make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/datasets", api.handleDatasets)
	mux.HandleFunc("/api/query", api.handleQuery)
	mux.HandleFunc("/api/upload", api.handleUpload)
	mux.HandleFunc("/visualizations/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><body>chart</body></html>")
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Server.Close)
	return api
}

// URL returns the server base address
func (a *FakeAPI) URL() string {
	return a.Server.URL
}

// SetQueryResponse replaces the JSON body returned from /api/query
func (a *FakeAPI) SetQueryResponse(body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queryResponse = body
}

// SetUploadID sets the dataset_id returned from /api/upload
func (a *FakeAPI) SetUploadID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploadID = id
}

// FailWith makes every endpoint answer with status and an {"error": ...} body; 0 restores normal answers
func (a *FakeAPI) FailWith(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failStatus = status
}

// FailListWith makes only /api/datasets answer with status; 0 restores it
func (a *FakeAPI) FailListWith(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listStatus = status
}

// Queries returns the query requests received so far
func (a *FakeAPI) Queries() []QueryRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]QueryRequest(nil), a.queries...)
}

// Uploads returns the filenames received on /api/upload
func (a *FakeAPI) Uploads() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.uploads...)
}

// UploadBody returns the bytes received for filename
func (a *FakeAPI) UploadBody(filename string) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uploadBodies[filename]
}

func (a *FakeAPI) fail(w http.ResponseWriter) bool {
	a.mu.Lock()
	status := a.failStatus
	a.mu.Unlock()
	if status == 0 {
		return false
	}
	writeJSON(w, status, map[string]string{"error": "service unavailable"})
	return true
}

func (a *FakeAPI) handleDatasets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.fail(w) {
		return
	}
	a.mu.Lock()
	status := a.listStatus
	ids := append([]string{}, a.datasets...)
	a.mu.Unlock()
	if status != 0 {
		writeJSON(w, status, map[string]string{"error": "listing unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (a *FakeAPI) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.fail(w) {
		return
	}
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" || req.DatasetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dataset_id and query are required"})
		return
	}

	a.mu.Lock()
	a.queries = append(a.queries, req)
	body := a.queryResponse
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (a *FakeAPI) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.fail(w) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file"})
		return
	}

	a.mu.Lock()
	a.uploads = append(a.uploads, header.Filename)
	a.uploadBodies[header.Filename] = data
	id := a.uploadID
	a.datasets = append([]string{id}, a.datasets...)
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"dataset_id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
