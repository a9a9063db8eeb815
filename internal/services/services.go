// package services defines interface Provider for interacting with remote
// catalog APIs
package services

import (
	"context"
	"fmt"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
)

// Credentials is a fully-formed request scope: base URL plus the account
// the provider authenticates with. The caller supplies it on every call;
// this layer holds no session state.
type Credentials struct {
	ServerURL string
	Username  string
	Password  string
}

// Provider defines the stateless request/response client against a remote
// catalog provider. No retries happen at this layer; retry policy belongs
// to the synchronization engine.
type Provider interface {
	// Authenticate verifies the credentials against the provider.
	// The three failure shapes stay distinguishable for the login surface:
	// shared.ErrInvalidCredentials (rejected), shared.ErrNetwork
	// (unreachable) and shared.ErrNoAccountInfo (2xx without usable
	// account data).
	Authenticate(ctx context.Context, creds Credentials) (*Account, error)

	// ListCategories returns the provider's categories for one section, in
	// provider order.
	ListCategories(ctx context.Context, creds Credentials, section models.Section) ([]Category, error)

	// ListStreams returns the stream entries of one category, in provider
	// order. The section selects the provider action (live vs VOD listing).
	ListStreams(ctx context.Context, creds Credentials, section models.Section, categoryID string) ([]Stream, error)

	// ListGuide returns upcoming program-guide entries for one stream.
	ListGuide(ctx context.Context, creds Credentials, streamID string, limit int) ([]GuideEntry, error)

	// Name returns the name of the provider protocol (e.g. "Xtream")
	Name() string
}

// Account is the provider's view of an authenticated account.
type Account struct {
	Username      string
	ExpiryRaw     string // raw exp_date field, usually unix seconds
	ExpiryDisplay string // formatted for humans, "Unlimited" when absent
}

// Category represents one provider category inside a section.
type Category struct {
	ExternalID string
	Name       string
	ParentID   int
}

// Stream represents one channel or VOD entry as the provider lists it.
type Stream struct {
	ExternalID  string
	Name        string
	Logo        string
	CategoryID  string
	EpgID       string
	Extension   string // container extension for VOD playback URLs
	Rating      float64
	ReleaseDate string
}

// GuideEntry represents one program-guide entry as the provider lists it.
type GuideEntry struct {
	Title       string
	Description string
	StartTime   int64 // unix seconds
	EndTime     int64 // unix seconds
}

// ProviderError is a non-2xx reply from the provider, kept with its body so
// the login surface can show what the server actually said.
type ProviderError struct {
	Code int
	Body string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned status %d", e.Code)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.Code, e.Body)
}
