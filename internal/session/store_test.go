package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"expensync/internal/storage"
)

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(t.TempDir()),
		"sqlite": NewSQLiteStore(repo),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Load(ctx)
			if err != nil || got != nil {
				t.Fatalf("empty store Load = %v, %v; want nil, nil", got, err)
			}

			want := Session{UserID: "42", Username: "alice"}
			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err = store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got == nil || *got != want {
				t.Fatalf("Load = %+v, want %+v", got, want)
			}

			// overwrite
			next := Session{UserID: "7"}
			if err := store.Save(ctx, next); err != nil {
				t.Fatalf("Save overwrite: %v", err)
			}
			got, _ = store.Load(ctx)
			if got == nil || *got != next {
				t.Fatalf("Load after overwrite = %+v, want %+v", got, next)
			}
		})
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear on empty store: %v", err)
			}
			if err := store.Save(ctx, Session{UserID: "42"}); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("second Clear: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil || got != nil {
				t.Fatalf("Load after Clear = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestStoreRejectsPartialSession(t *testing.T) {
	ctx := context.Background()
	for name, store := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, Session{Username: "bob"})
			if err != ErrInvalidSession {
				t.Fatalf("Save partial = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestMalformedSessionIsCleared(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "{oops"},
		{"missing user id", `{"username":"bob"}`},
		{"blank user id", `{"user_id":"  "}`},
	}

	for _, tc := range cases {
		t.Run("memory/"+tc.name, func(t *testing.T) {
			store := NewMemoryStore()
			store.setRaw([]byte(tc.raw))
			got, err := store.Load(ctx)
			if err != nil || got != nil {
				t.Fatalf("Load = %v, %v; want nil, nil", got, err)
			}
			if store.data != nil {
				t.Fatalf("malformed data not cleared")
			}
		})

		t.Run("file/"+tc.name, func(t *testing.T) {
			store := NewFileStore(t.TempDir())
			if err := os.WriteFile(store.Path(), []byte(tc.raw), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil || got != nil {
				t.Fatalf("Load = %v, %v; want nil, nil", got, err)
			}
			if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
				t.Fatalf("malformed session file still present: %v", err)
			}
		})

		t.Run("sqlite/"+tc.name, func(t *testing.T) {
			repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "state.db"))
			if err != nil {
				t.Fatalf("NewSQLiteRepository: %v", err)
			}
			defer repo.Close()
			if err := repo.Put(ctx, Key, tc.raw); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := NewSQLiteStore(repo).Load(ctx)
			if err != nil || got != nil {
				t.Fatalf("Load = %v, %v; want nil, nil", got, err)
			}
			if _, ok, _ := repo.Get(ctx, Key); ok {
				t.Fatalf("malformed row not deleted")
			}
		})
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	for i := 0; i < 3; i++ {
		if err := store.Save(context.Background(), Session{UserID: "42"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != Key {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("directory contents = %v, want only %s", names, Key)
	}
}
