// package prefs persists provider credentials, the login flag, and the
// per-section category selections as durable key-value state.
//
// The whole store is one TOML document written atomically (temp file +
// rename), so a multi-key save is observed all-or-nothing and concurrent
// writers serialize with last-writer-wins per key. The login flag is also
// exposed as a live signal so dependent surfaces can react without polling.
package prefs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
)

// AccountInfo holds the stored provider credentials. Absent fields are
// zero-valued; the provider is never contacted with partial credentials.
type AccountInfo struct {
	ServerURL string
	Username  string
	Password  string
}

// Complete reports whether every field needed to form a request is present.
func (a AccountInfo) Complete() bool {
	return a.ServerURL != "" && a.Username != "" && a.Password != ""
}

type document struct {
	LoggedIn         bool     `toml:"is_logged_in"`
	ServerURL        string   `toml:"server_url"`
	Username         string   `toml:"username"`
	Password         string   `toml:"password"`
	ExpiryDisplay    string   `toml:"exp_date"`
	LiveCategories   []string `toml:"live_categories"`
	VodCategories    []string `toml:"vod_categories"`
	SeriesCategories []string `toml:"series_categories"`
}

// Store is the durable credential and selection store.
type Store struct {
	path string

	mu       sync.Mutex
	doc      document
	watchers []chan bool
}

// Open loads the store from path, treating a missing file as empty state.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read prefs file: %w", err)
	}

	if err := toml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse prefs file: %w", err)
	}

	return s, nil
}

// SetLoggedIn durably flips the login flag and notifies watchers.
func (s *Store) SetLoggedIn(loggedIn bool) error {
	return s.update(func(d *document) {
		d.LoggedIn = loggedIn
	})
}

// LoggedIn returns the current login flag.
func (s *Store) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LoggedIn
}

// WatchLoggedIn returns a channel that delivers the current login flag
// immediately and then every subsequent change until ctx is done. Slow
// receivers miss intermediate values; the latest value is always delivered.
func (s *Store) WatchLoggedIn(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	s.mu.Lock()
	ch <- s.doc.LoggedIn
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
	}()

	return ch
}

// SaveAccountInfo durably stores the provider credentials and the
// human-readable expiry string in one atomic write.
func (s *Store) SaveAccountInfo(serverURL, username, password, expiryDisplay string) error {
	return s.update(func(d *document) {
		d.ServerURL = serverURL
		d.Username = username
		d.Password = password
		d.ExpiryDisplay = expiryDisplay
	})
}

// AccountInfo returns the stored credentials; absent fields are empty.
func (s *Store) AccountInfo() AccountInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AccountInfo{
		ServerURL: s.doc.ServerURL,
		Username:  s.doc.Username,
		Password:  s.doc.Password,
	}
}

// ExpiryDisplay returns the stored account expiry as display text.
func (s *Store) ExpiryDisplay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.ExpiryDisplay == "" {
		return "Unknown"
	}
	return s.doc.ExpiryDisplay
}

// SaveCategorySelections durably stores the selected category external ids
// for all three sections in one atomic write. Selections are deduplicated
// and sorted so reads have set semantics.
func (s *Store) SaveCategorySelections(live, vod, series []string) error {
	return s.update(func(d *document) {
		d.LiveCategories = dedupe(live)
		d.VodCategories = dedupe(vod)
		d.SeriesCategories = dedupe(series)
	})
}

// SelectedCategories returns the selected category external ids for one
// section. The result is a copy; callers may not mutate stored state.
func (s *Store) SelectedCategories(section models.Section) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src []string
	switch section {
	case models.SectionLive:
		src = s.doc.LiveCategories
	case models.SectionVod:
		src = s.doc.VodCategories
	case models.SectionSeries:
		src = s.doc.SeriesCategories
	}

	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Logout clears every stored key in one atomic write and notifies watchers.
func (s *Store) Logout() error {
	return s.update(func(d *document) {
		*d = document{}
	})
}

// update applies fn to a copy of the document, persists it atomically, and
// only then commits it to memory. Watchers are notified when the login
// flag changed.
func (s *Store) update(fn func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc
	next.LiveCategories = append([]string(nil), s.doc.LiveCategories...)
	next.VodCategories = append([]string(nil), s.doc.VodCategories...)
	next.SeriesCategories = append([]string(nil), s.doc.SeriesCategories...)
	fn(&next)

	if err := s.persist(next); err != nil {
		return err
	}

	wasLoggedIn := s.doc.LoggedIn
	s.doc = next

	if next.LoggedIn != wasLoggedIn {
		for _, w := range s.watchers {
			// drain the stale value so the latest always lands
			select {
			case <-w:
			default:
			}
			select {
			case w <- next.LoggedIn:
			default:
			}
		}
	}

	return nil
}

func (s *Store) persist(d document) error {
	data, err := toml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp prefs file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp prefs file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace prefs file: %w", err)
	}

	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
