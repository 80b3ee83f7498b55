package testhelper

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/wavecastlabs/wavecast-cloud/internal/outbox"
)

// MockObjectStore is an in-memory object store with per-call failure
// injection for retry tests.
type MockObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte

	GetCalls int
	PutCalls []string

	// GetFailures fails the first N Get calls before succeeding.
	GetFailures int
	GetErr      error
	PutErr      error
}

func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{Objects: make(map[string][]byte)}
}

func (m *MockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetFailures > 0 {
		m.GetFailures--
		return nil, m.getErr()
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	data, ok := m.Objects[key]
	if !ok {
		return nil, errObjectMissing
	}
	return data, nil
}

func (m *MockObjectStore) getErr() error {
	if m.GetErr != nil {
		return m.GetErr
	}
	return errTransient
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	m.Objects[key] = data
	m.PutCalls = append(m.PutCalls, key)
	return "https://cdn.test/" + key, nil
}

// MockTextGenerator returns canned text and counts calls per method.
type MockTextGenerator struct {
	TitleText   string
	SummaryOut  string
	PromptOut   string
	TitleErr    error
	SummaryErr  error
	PromptErr   error
	TitleCalls  int
	SummCalls   int
	PromptCalls int
}

func (m *MockTextGenerator) Title(ctx context.Context, transcript string) (string, error) {
	m.TitleCalls++
	return m.TitleText, m.TitleErr
}

func (m *MockTextGenerator) Summary(ctx context.Context, transcript string) (string, error) {
	m.SummCalls++
	return m.SummaryOut, m.SummaryErr
}

func (m *MockTextGenerator) ImagePrompt(ctx context.Context, title, summary string) (string, error) {
	m.PromptCalls++
	return m.PromptOut, m.PromptErr
}

// MockImageGenerator returns canned image bytes.
type MockImageGenerator struct {
	Image []byte
	Err   error
	Calls int
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Image, nil
}

// MockEventEnqueuer records outbox events.
type MockEventEnqueuer struct {
	mu     sync.Mutex
	Events []*outbox.Event
	Err    error
}

func (m *MockEventEnqueuer) Enqueue(ctx context.Context, event *outbox.Event) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.Events = append(m.Events, &cp)
	return nil
}

// MockTaskEnqueuer records asynq tasks instead of hitting Redis.
type MockTaskEnqueuer struct {
	Tasks []*asynq.Task
	Err   error
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Tasks = append(m.Tasks, task)
	return &asynq.TaskInfo{ID: "test", Type: task.Type()}, nil
}

// MockContentProber returns a fixed probe answer.
type MockContentProber struct {
	HasContent bool
	Err        error
	Calls      int
}

func (m *MockContentProber) HasNewContent(ctx context.Context, configID string) (bool, error) {
	m.Calls++
	return m.HasContent, m.Err
}

// MockSender records outgoing mail.
type MockSender struct {
	mu         sync.Mutex
	Recipients []string
	Subjects   []string
	FailFor    map[string]error
}

func (m *MockSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailFor[to]; ok {
		return "", err
	}
	m.Recipients = append(m.Recipients, to)
	m.Subjects = append(m.Subjects, subject)
	return "msg-" + to, nil
}
