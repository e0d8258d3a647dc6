package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/immal/internal/model"
)

func newTestIdentity(username, email string) *model.Identity {
	now := time.Now().UTC().Truncate(time.Microsecond)
	country := "Japan"
	birthdate := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	return &model.Identity{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Birthdate:    &birthdate,
		Country:      &country,
		Diseases:     []string{"Asthma", "Diabetes"},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresIdentityRepo_CreateAndFind(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostgresIdentityRepo(db)
	ctx := context.Background()

	identity := newTestIdentity("alice", "alice@example.com")
	if err := repo.Create(ctx, identity); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected identity, got nil")
	}
	if got.ID != identity.ID {
		t.Errorf("ID = %q, want %q", got.ID, identity.ID)
	}
	if len(got.Diseases) != 2 || got.Diseases[0] != "Asthma" {
		t.Errorf("Diseases = %v, want [Asthma Diabetes]", got.Diseases)
	}
	if got.Country == nil || *got.Country != "Japan" {
		t.Errorf("Country = %v, want Japan", got.Country)
	}
	if got.Birthdate == nil || got.Birthdate.Format("2006-01-02") != "1990-04-01" {
		t.Errorf("Birthdate = %v, want 1990-04-01", got.Birthdate)
	}

	byID, err := repo.FindByID(ctx, identity.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID == nil || byID.Username != "alice" {
		t.Errorf("FindByID returned %+v", byID)
	}

	missing, err := repo.FindByUsername(ctx, "nobody")
	if err != nil {
		t.Fatalf("FindByUsername failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown username, got %+v", missing)
	}
}

func TestPostgresIdentityRepo_Create_DuplicateKey(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostgresIdentityRepo(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newTestIdentity("bob", "bob@example.com")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name      string
		identity  *model.Identity
		wantField string
	}{
		{"username重複", newTestIdentity("bob", "other@example.com"), "username"},
		{"email重複", newTestIdentity("bobby", "bob@example.com"), "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.identity)
			if !errors.Is(err, model.ErrDuplicateKey) {
				t.Fatalf("expected ErrDuplicateKey, got %v", err)
			}
			var dup *model.DuplicateKeyError
			if !errors.As(err, &dup) || dup.Field != tt.wantField {
				t.Errorf("expected field %q, got %v", tt.wantField, err)
			}
		})
	}

	var count int
	if err := db.QueryRow(`SELECT count(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("users count = %d, want 1", count)
	}
}

func TestPostgresIdentityRepo_List_Scoped(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostgresIdentityRepo(db)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	var ids []string
	for i, name := range []string{"u1", "u2", "u3"} {
		identity := newTestIdentity(name, name+"@example.com")
		identity.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, identity); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, identity.ID)
	}

	all, total, err := repo.List(ctx, model.ScopeAll(), model.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("got %d items (total %d), want 3", len(all), total)
	}
	if all[0].Username != "u3" {
		t.Errorf("first item = %q, want u3 (updated_at desc)", all[0].Username)
	}

	own, total, err := repo.List(ctx, model.ScopeOwner(ids[0]), model.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(own) != 1 || own[0].ID != ids[0] {
		t.Errorf("owner scope returned %d items (total %d)", len(own), total)
	}

	second, _, err := repo.List(ctx, model.ScopeAll(), model.Page{Number: 2, Size: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(second) != 1 || second[0].Username != "u1" {
		t.Errorf("page 2 = %v, want [u1]", second)
	}
}

func TestPostgresIdentityRepo_UpdateLastLoginAndDelete(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostgresIdentityRepo(db)
	ctx := context.Background()

	identity := newTestIdentity("carol", "carol@example.com")
	if err := repo.Create(ctx, identity); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.UpdateLastLogin(ctx, identity.ID, at); err != nil {
		t.Fatalf("UpdateLastLogin failed: %v", err)
	}
	got, _ := repo.FindByID(ctx, identity.ID)
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Errorf("LastLogin = %v, want %v", got.LastLogin, at)
	}

	if err := repo.DeleteByID(ctx, identity.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if err := repo.DeleteByID(ctx, identity.ID); !errors.Is(err, ErrIdentityNotFound) {
		t.Errorf("err = %v, want ErrIdentityNotFound", err)
	}
}
