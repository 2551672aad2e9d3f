package git

import (
	"context"
	"fmt"
	"sync"
)

// MockOperations is a mock implementation of Operations for testing.
// Contents are keyed by "revision:path".
type MockOperations struct {
	Files        []ChangedFile
	FilesError   error
	Contents     map[string][]byte
	ContentError map[string]error
	Lines        map[string][]LineRange

	mu    sync.Mutex
	calls []string
}

// NewMockOperations creates an empty mock.
func NewMockOperations() *MockOperations {
	return &MockOperations{
		Contents:     map[string][]byte{},
		ContentError: map[string]error{},
		Lines:        map[string][]LineRange{},
	}
}

// SetContent registers content for path at revision.
func (m *MockOperations) SetContent(revision, path, content string) {
	m.Contents[revision+":"+path] = []byte(content)
}

func (m *MockOperations) ChangedFiles(ctx context.Context, base, head string) ([]ChangedFile, error) {
	m.record(fmt.Sprintf("files %s..%s", base, head))
	if m.FilesError != nil {
		return nil, m.FilesError
	}
	return m.Files, nil
}

func (m *MockOperations) Content(ctx context.Context, revision, path string) ([]byte, error) {
	key := revision + ":" + path
	m.record("content " + key)
	if err, ok := m.ContentError[key]; ok {
		return nil, err
	}
	content, ok := m.Contents[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return content, nil
}

func (m *MockOperations) ChangedLines(ctx context.Context, base, head, path string) ([]LineRange, error) {
	m.record("lines " + path)
	return m.Lines[path], nil
}

// Calls returns the recorded calls in order.
func (m *MockOperations) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockOperations) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// String returns a human-readable representation of the mock state.
func (m *MockOperations) String() string {
	return fmt.Sprintf("MockOperations{files=%d, contents=%d}", len(m.Files), len(m.Contents))
}
