// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
)

// MockProvider is a configurable test double for [services.Provider].
//
// Responses are keyed per section and per category/stream id; unset keys
// fall back to the Err fields so tests can script partial failures. Calls
// are counted so tests can assert that no network-shaped work happened.
type MockProvider struct {
	mu sync.Mutex

	Account    *services.Account
	AuthErr    error
	Categories map[models.Section][]services.Category
	CatErr     error
	Streams    map[string][]services.Stream     // keyed by category external id
	StreamErr  map[string]error                 // per-category failures
	Guide      map[string][]services.GuideEntry // keyed by stream id
	GuideErr   map[string]error

	AuthCalls   int
	ListCalls   int
	StreamCalls int
	GuideCalls  int
}

func (m *MockProvider) Authenticate(ctx context.Context, creds services.Credentials) (*services.Account, error) {
	m.mu.Lock()
	m.AuthCalls++
	m.mu.Unlock()

	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if m.Account != nil {
		return m.Account, nil
	}
	return &services.Account{Username: creds.Username, ExpiryDisplay: "Unlimited"}, nil
}

func (m *MockProvider) ListCategories(ctx context.Context, creds services.Credentials, section models.Section) ([]services.Category, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.CatErr != nil {
		return nil, m.CatErr
	}
	return m.Categories[section], nil
}

func (m *MockProvider) ListStreams(ctx context.Context, creds services.Credentials, section models.Section, categoryID string) ([]services.Stream, error) {
	m.mu.Lock()
	m.StreamCalls++
	m.mu.Unlock()

	if err := m.StreamErr[categoryID]; err != nil {
		return nil, err
	}
	return m.Streams[categoryID], nil
}

func (m *MockProvider) ListGuide(ctx context.Context, creds services.Credentials, streamID string, limit int) ([]services.GuideEntry, error) {
	m.mu.Lock()
	m.GuideCalls++
	m.mu.Unlock()

	if err := m.GuideErr[streamID]; err != nil {
		return nil, err
	}
	return m.Guide[streamID], nil
}

func (m *MockProvider) Name() string { return "mock" }

// TotalCalls reports every provider call made, for no-network assertions.
func (m *MockProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AuthCalls + m.ListCalls + m.StreamCalls + m.GuideCalls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
