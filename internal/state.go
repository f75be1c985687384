package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// QueryResult is delivered once per submitted query, after the gateway call settles
type QueryResult struct {
	Question Message
	Answer   *Message // nil when Err is set
	Err      error
}

// StateOption configures a SessionState
type StateOption func(*SessionState)

// WithNotifier routes user-visible notices to n
func WithNotifier(n Notifier) StateOption {
	return func(s *SessionState) { s.notifier = n }
}

// WithClock overrides the time source used for message timestamps
func WithClock(now func() time.Time) StateOption {
	return func(s *SessionState) { s.now = now }
}

// SessionState owns one chat session: the message log, the known datasets,
// the active dataset and the in-flight gate. At most one query is in flight.
type SessionState struct {
	gateway  Gateway
	notifier Notifier
	now      func() time.Time

	mu        sync.Mutex
	id        string
	startedAt time.Time
	messages  []Message
	datasets  []Dataset
	active    string
	loading   bool
	seq       uint64
}

// NewSessionState creates an empty session bound to gw
func NewSessionState(gw Gateway, opts ...StateOption) *SessionState {
	s := &SessionState{
		gateway:  gw,
		notifier: NotifierFunc(func(Notice) {}),
		now:      time.Now,
		id:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// ID returns the session identifier used when archiving the transcript
func (s *SessionState) ID() string {
	return s.id
}

// Submit records text as a user message and sends it to the gateway for the
// active dataset. The returned channel yields exactly one QueryResult and is
// then closed.
//
// Blank text returns ErrBlankQuery, a missing dataset ErrNoDatasetSelected and
// an unsettled earlier query ErrQueryInFlight; none of them change the session.
// Cancelling ctx does not abort a submitted query.
func (s *SessionState) Submit(ctx context.Context, text string) (<-chan QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankQuery
	}

	s.mu.Lock()
	if s.active == "" {
		s.mu.Unlock()
		s.notify(noticeNoDataset)
		return nil, ErrNoDatasetSelected
	}
	if s.loading {
		s.mu.Unlock()
		LogDebug("Rejected query while another is in flight")
		return nil, ErrQueryInFlight
	}
	question := s.appendLocked(Message{Role: RoleUser, Content: text})
	datasetID := s.active
	s.loading = true
	s.mu.Unlock()

	LogDebug("Submitted query %s on dataset %s", question.ID, datasetID)

	results := make(chan QueryResult, 1)
	go s.dispatch(context.WithoutCancel(ctx), question, datasetID, results)
	return results, nil
}

func (s *SessionState) dispatch(ctx context.Context, question Message, datasetID string, results chan<- QueryResult) {
	defer close(results)

	resp, err := s.gateway.Query(ctx, question.Content, datasetID)
	if err == nil && resp == nil {
		err = &GatewayError{Op: "query", Err: errors.New("empty response")}
	}

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		LogWarn("Query %s failed: %v", question.ID, err)
		s.notify(noticeQueryFailed)
		results <- QueryResult{Question: question, Err: err}
		return
	}
	answer := s.appendLocked(Message{
		Role:              RoleAssistant,
		Content:           resp.Summary,
		Summary:           resp.Summary,
		Table:             resp.Table,
		VisualizationHTML: resp.VisualizationHTML,
		VisualizationURL:  resp.VisualizationURL,
	})
	s.mu.Unlock()

	results <- QueryResult{Question: question, Answer: &answer}
}

// Ask submits text and waits for the answer. If ctx ends first the query
// keeps running and ctx.Err() is returned.
func (s *SessionState) Ask(ctx context.Context, text string) (*Message, error) {
	results, err := s.Submit(ctx, text)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Answer, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// appendLocked assigns the next identifier and timestamp; callers hold s.mu
func (s *SessionState) appendLocked(msg Message) Message {
	s.seq++
	msg.ID = strconv.FormatUint(s.seq, 10)
	msg.CreatedAt = s.now()
	s.messages = append(s.messages, msg)
	return msg
}

// RegisterDataset puts a newly uploaded dataset at the front of the collection
// and makes it active. A known identifier is moved rather than duplicated.
func (s *SessionState) RegisterDataset(id string) Dataset {
	ds := NewDataset(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	rest := make([]Dataset, 0, len(s.datasets)+1)
	rest = append(rest, ds)
	for _, existing := range s.datasets {
		if existing.ID != id {
			rest = append(rest, existing)
		}
	}
	s.datasets = rest
	s.active = id
	LogDebug("Registered dataset %s", id)
	return ds
}

// SelectDataset makes id the active dataset. The message log is kept.
func (s *SessionState) SelectDataset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}
	s.active = id
	return nil
}

func (s *SessionState) indexLocked(id string) int {
	for i, ds := range s.datasets {
		if ds.ID == id {
			return i
		}
	}
	return -1
}

// FetchKnownDatasets loads the gateway's dataset listing in gateway order.
// A failure raises a notice and leaves the collection as it was.
func (s *SessionState) FetchKnownDatasets(ctx context.Context) error {
	ids, err := s.gateway.ListDatasets(ctx)
	if err != nil {
		LogWarn("Failed to list datasets: %v", err)
		s.notify(noticeListFailed)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]Dataset, 0, len(s.datasets)+len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, NewDataset(id))
	}
	// registered while the listing was in flight
	var early []Dataset
	for _, ds := range s.datasets {
		if !seen[ds.ID] {
			early = append(early, ds)
		}
	}
	s.datasets = append(early, merged...)
	LogDebug("Loaded %d dataset(s)", len(s.datasets))
	return nil
}

// UploadDataset sends the .zip archive at path to the gateway and registers
// the returned dataset. Other file types fail with ErrInvalidUploadFormat
// before anything is sent.
func (s *SessionState) UploadDataset(ctx context.Context, path string) (Dataset, error) {
	if !strings.HasSuffix(path, ".zip") {
		s.notify(noticeInvalidUpload)
		return Dataset{}, fmt.Errorf("%w: %s", ErrInvalidUploadFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		s.notify(noticeUploadFailed)
		return Dataset{}, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	resp, err := s.gateway.Upload(ctx, filepath.Base(path), f)
	if err == nil && (resp == nil || resp.DatasetID == "") {
		err = &GatewayError{Op: "upload", Err: errors.New("response is missing dataset_id")}
	}
	if err != nil {
		LogWarn("Upload of %s failed: %v", path, err)
		s.notify(noticeUploadFailed)
		return Dataset{}, err
	}

	ds := s.RegisterDataset(resp.DatasetID)
	s.notify(noticeUploaded)
	return ds, nil
}

func (s *SessionState) notify(n Notice) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

// Messages returns a copy of the message log in insertion order
func (s *SessionState) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Datasets returns a copy of the known datasets, most recently uploaded first
func (s *SessionState) Datasets() []Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Dataset(nil), s.datasets...)
}

// ActiveDataset returns the selected dataset identifier, if any
func (s *SessionState) ActiveDataset() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// Loading reports whether a query is in flight
func (s *SessionState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CanSend reports whether Submit(text) would be accepted right now
func (s *SessionState) CanSend(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loading && s.active != ""
}

// LastTable returns the most recent non-empty table in the log
func (s *SessionState) LastTable() (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if len(s.messages[i].Table) > 0 {
			return s.messages[i].Table, true
		}
	}
	return nil, false
}

// LastAnswer returns the most recent assistant message
func (s *SessionState) LastAnswer() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleAssistant {
			return s.messages[i], true
		}
	}
	return Message{}, false
}

// Transcript snapshots the session for archiving or export
func (s *SessionState) Transcript() *Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.startedAt
	if n := len(s.messages); n > 0 {
		updated = s.messages[n-1].CreatedAt
	}
	return &Transcript{
		ID:            s.id,
		StartedAt:     s.startedAt,
		UpdatedAt:     updated,
		ActiveDataset: s.active,
		Messages:      append([]Message(nil), s.messages...),
	}
}
