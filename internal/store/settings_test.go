package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	repo := newTestStore(t).Settings()

	t.Run("missing key", func(t *testing.T) {
		if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and overwrite", func(t *testing.T) {
		if err := repo.Set("voice", "en"); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		if err := repo.Set("voice", "en-gb"); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}

		got, err := repo.Get("voice")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if got != "en-gb" {
			t.Errorf("expected %q, got %q", "en-gb", got)
		}
	})

	t.Run("all", func(t *testing.T) {
		if err := repo.Set("alpha", "1"); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}

		all, err := repo.All()
		if err != nil {
			t.Fatalf("All() failed: %v", err)
		}
		if len(all) != 2 || all["alpha"] != "1" || all["voice"] != "en-gb" {
			t.Errorf("unexpected settings: %v", all)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete("alpha"); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if err := repo.Delete("alpha"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestSettingsRepository_Bool(t *testing.T) {
	repo := newTestStore(t).Settings()

	got, err := repo.GetBool("muted", true)
	if err != nil {
		t.Fatalf("GetBool() failed: %v", err)
	}
	if !got {
		t.Error("expected default for unset key")
	}

	if err := repo.SetBool("muted", false); err != nil {
		t.Fatalf("SetBool() failed: %v", err)
	}
	got, err = repo.GetBool("muted", true)
	if err != nil {
		t.Fatalf("GetBool() failed: %v", err)
	}
	if got {
		t.Error("expected stored false")
	}

	if err := repo.Set("muted", "maybe"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err = repo.GetBool("muted", true)
	if err == nil {
		t.Error("expected parse error for non-boolean value")
	}
	if !got {
		t.Error("expected default on parse error")
	}
}
