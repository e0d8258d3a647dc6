package repository

import (
	"context"
	"testing"
)

func TestPostgresDiseaseRepo_SearchByName(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostgresDiseaseRepo(db)
	ctx := context.Background()

	_, err := db.Exec(`
		INSERT INTO diseases (id, name, description, symptoms, treatments, image_path) VALUES
			(gen_random_uuid(), 'Asthma', 'd', 's', 't', 'diseases/asthma.png'),
			(gen_random_uuid(), 'Type 2 Diabetes', 'd', 's', 't', NULL),
			(gen_random_uuid(), '100% Fictional', 'd', 's', 't', NULL)
	`)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := repo.SearchByName(ctx, "ASTH")
	if err != nil {
		t.Fatalf("SearchByName failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Asthma" {
		t.Fatalf("got %v, want [Asthma]", got)
	}
	if got[0].ImagePath == nil || *got[0].ImagePath != "diseases/asthma.png" {
		t.Errorf("ImagePath = %v", got[0].ImagePath)
	}

	// ワイルドカードはリテラルとして扱う
	got, _ = repo.SearchByName(ctx, "%")
	if len(got) != 1 || got[0].Name != "100% Fictional" {
		t.Errorf("got %v, want [100%% Fictional]", got)
	}

	got, _ = repo.SearchByName(ctx, "cholera")
	if len(got) != 0 {
		t.Errorf("expected no results, got %d", len(got))
	}
}

func TestPostgresQuoteRepo_List(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewPostgresQuoteRepo(db)

	quotes, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(quotes) != 0 {
		t.Fatalf("expected empty list, got %d", len(quotes))
	}

	if _, err := db.Exec(`INSERT INTO quotes (id, text, holy_book, verse) VALUES (gen_random_uuid(), 'text', 'Book', '1:1')`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	quotes, err = repo.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(quotes) != 1 || quotes[0].HolyBook != "Book" {
		t.Errorf("got %+v", quotes)
	}
}
