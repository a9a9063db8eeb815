// package shared holds the logging, config and database plumbing used
// by every other package.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger builds the application [log.Logger] writing to w, with
// timestamps and caller reporting enabled. A nil writer falls back to
// [os.Stderr].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{ReportTimestamp: true, ReportCaller: true})
}

// WithLogger derives a child logger that stamps the given key-value
// pairs on every entry. Used to scope engine and repository logs.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel adjusts the minimum level emitted by l.
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID returns a fresh v4 UUID string, used for sync run ids.
func GenerateID() string {
	return uuid.New().String()
}
