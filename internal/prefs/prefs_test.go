package prefs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs.toml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s, path
}

func TestStore(t *testing.T) {
	t.Run("AccountInfo round trip", func(t *testing.T) {
		s, path := openTestStore(t)

		if s.AccountInfo().Complete() {
			t.Error("fresh store should not report complete credentials")
		}

		if err := s.SaveAccountInfo("http://host:8080", "user", "pass", "01.01.2030"); err != nil {
			t.Fatalf("failed to save account info: %v", err)
		}

		// reopen to prove durability
		reopened, err := Open(path)
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}

		info := reopened.AccountInfo()
		if info.ServerURL != "http://host:8080" || info.Username != "user" || info.Password != "pass" {
			t.Errorf("unexpected account info %+v", info)
		}
		if !info.Complete() {
			t.Error("saved credentials should be complete")
		}
		if got := reopened.ExpiryDisplay(); got != "01.01.2030" {
			t.Errorf("expected expiry display 01.01.2030, got %s", got)
		}
	})

	t.Run("ExpiryDisplay default", func(t *testing.T) {
		s, _ := openTestStore(t)
		if got := s.ExpiryDisplay(); got != "Unknown" {
			t.Errorf("expected Unknown, got %s", got)
		}
	})

	t.Run("CategorySelections set semantics", func(t *testing.T) {
		s, _ := openTestStore(t)

		err := s.SaveCategorySelections([]string{"10", "7", "10", ""}, []string{"3"}, nil)
		if err != nil {
			t.Fatalf("failed to save selections: %v", err)
		}

		live := s.SelectedCategories(models.SectionLive)
		if len(live) != 2 || live[0] != "10" || live[1] != "7" {
			t.Errorf("expected deduplicated sorted selection [10 7], got %v", live)
		}

		if got := s.SelectedCategories(models.SectionVod); len(got) != 1 || got[0] != "3" {
			t.Errorf("expected vod selection [3], got %v", got)
		}
		if got := s.SelectedCategories(models.SectionSeries); len(got) != 0 {
			t.Errorf("expected empty series selection, got %v", got)
		}
	})

	t.Run("Logout clears all keys", func(t *testing.T) {
		s, path := openTestStore(t)

		if err := s.SaveAccountInfo("http://host", "u", "p", "exp"); err != nil {
			t.Fatalf("failed to save account info: %v", err)
		}
		if err := s.SaveCategorySelections([]string{"1"}, []string{"2"}, []string{"3"}); err != nil {
			t.Fatalf("failed to save selections: %v", err)
		}
		if err := s.SetLoggedIn(true); err != nil {
			t.Fatalf("failed to set logged in: %v", err)
		}

		if err := s.Logout(); err != nil {
			t.Fatalf("failed to logout: %v", err)
		}

		reopened, err := Open(path)
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		if reopened.LoggedIn() {
			t.Error("logout should clear the login flag")
		}
		if reopened.AccountInfo() != (AccountInfo{}) {
			t.Error("logout should clear credentials")
		}
		if got := reopened.SelectedCategories(models.SectionLive); len(got) != 0 {
			t.Errorf("logout should clear selections, got %v", got)
		}
	})

	t.Run("WatchLoggedIn delivers current then changes", func(t *testing.T) {
		s, _ := openTestStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := s.WatchLoggedIn(ctx)

		select {
		case v := <-ch:
			if v {
				t.Error("fresh store should report logged out")
			}
		case <-time.After(time.Second):
			t.Fatal("expected immediate value from watcher")
		}

		if err := s.SetLoggedIn(true); err != nil {
			t.Fatalf("failed to set logged in: %v", err)
		}

		select {
		case v := <-ch:
			if !v {
				t.Error("expected logged-in change to be delivered")
			}
		case <-time.After(time.Second):
			t.Fatal("expected change notification")
		}
	})

	t.Run("WatchLoggedIn latest wins for slow readers", func(t *testing.T) {
		s, _ := openTestStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := s.WatchLoggedIn(ctx)

		// do not read the initial value; flip twice
		if err := s.SetLoggedIn(true); err != nil {
			t.Fatalf("failed to set logged in: %v", err)
		}
		if err := s.SetLoggedIn(false); err != nil {
			t.Fatalf("failed to set logged out: %v", err)
		}

		select {
		case v := <-ch:
			if v {
				t.Error("slow reader should observe the final value")
			}
		case <-time.After(time.Second):
			t.Fatal("expected a value for slow reader")
		}
	})
}
