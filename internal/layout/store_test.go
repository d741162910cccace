package layout

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/inamate/inamate/layout-go/internal/auth"
	"github.com/inamate/inamate/layout-go/internal/document"
)

func sampleRecords() []document.LayoutRecord {
	return []document.LayoutRecord{
		{ID: "obj_1", Selector: "#header", Style: map[string]string{"left": "0px", "top": "0px"}},
		{ID: "obj_2", Selector: "div.card", Style: map[string]string{"left": "40px", "z-index": "2"}},
	}
}

func openSQLite(t *testing.T) Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "nested", "layouts.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestSQLiteStoreVersions(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	if _, err := store.Latest(ctx, "proj_a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() on empty store error = %v, want ErrNotFound", err)
	}

	first, err := store.Save(ctx, "proj_a", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Save(ctx, "proj_a", sampleRecords()[:1])
	if err != nil {
		t.Fatal(err)
	}
	other, err := store.Save(ctx, "proj_b", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Version != 1 || second.Version != 2 || other.Version != 1 {
		t.Errorf("versions = %d, %d, %d, want 1, 2, 1", first.Version, second.Version, other.Version)
	}

	latest, err := store.Latest(ctx, "proj_a")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != second.ID || latest.Version != 2 || !latest.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("Latest() = %+v, want %+v", latest, second)
	}
	if !reflect.DeepEqual(latest.Records, sampleRecords()[:1]) {
		t.Errorf("Latest().Records = %+v", latest.Records)
	}

	versions, err := store.List(ctx, "proj_a")
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 || versions[0].Version != 2 || versions[1].Records != 2 {
		t.Errorf("List() = %+v", versions)
	}

	empty, err := store.Latest(ctx, "proj_b")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Records == nil || len(empty.Records) != 0 {
		t.Errorf("empty layout records = %#v, want empty slice", empty.Records)
	}
}

func TestSQLiteStoreRejectsEmptyProject(t *testing.T) {
	store := openSQLite(t)
	if _, err := store.Save(context.Background(), "", sampleRecords()); !errors.Is(err, ErrEmptyProject) {
		t.Errorf("Save() error = %v, want ErrEmptyProject", err)
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "layouts.db")

	store, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	saved, err := store.Save(ctx, "proj_a", sampleRecords())
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	latest, err := store.Latest(ctx, "proj_a")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != saved.ID {
		t.Errorf("Latest().ID = %q, want %q", latest.ID, saved.ID)
	}
}

func TestSQLiteStoreUsers(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ada := &auth.Account{
		User:         auth.User{ID: "user_01", Email: "ada@example.com", DisplayName: "Ada"},
		PasswordHash: "$2a$04$hash",
		CreatedAt:    created,
	}
	if err := store.CreateUser(ctx, ada); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tests := []struct {
		name    string
		op      func() error
		wantErr error
	}{
		{"duplicate email", func() error {
			dup := *ada
			dup.ID = "user_02"
			return store.CreateUser(ctx, &dup)
		}, auth.ErrEmailTaken},
		{"unknown email", func() error {
			_, err := store.UserByEmail(ctx, "bob@example.com")
			return err
		}, auth.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, err := store.UserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if got.User != ada.User || got.PasswordHash != ada.PasswordHash || !got.CreatedAt.Equal(created) {
		t.Errorf("UserByEmail() = %+v, want %+v", got, ada)
	}
}
