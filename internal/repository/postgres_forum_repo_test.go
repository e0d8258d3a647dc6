package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/immal/internal/model"
)

func TestPostgresForumRepos_QuestionLifecycle(t *testing.T) {
	db := setupRepoDB(t)
	users := NewPostgresIdentityRepo(db)
	questions := NewPostgresQuestionRepo(db)
	answers := NewPostgresAnswerRepo(db)
	ctx := context.Background()

	owner := newTestIdentity("dave", "dave@example.com")
	if err := users.Create(ctx, owner); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	anon := &model.ForumQuestion{ID: uuid.New().String(), Title: "古い質問", Body: "本文", Category: model.CategoryAsthma, CreatedAt: now.Add(-time.Hour)}
	owned := &model.ForumQuestion{ID: uuid.New().String(), UserID: &owner.ID, Title: "新しい質問", Body: "本文", Category: model.CategoryCancer, CreatedAt: now}
	for _, q := range []*model.ForumQuestion{anon, owned} {
		if err := questions.Create(ctx, q); err != nil {
			t.Fatalf("Create question failed: %v", err)
		}
	}

	list, total, err := questions.List(ctx, model.Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("got %d questions (total %d), want 2", len(list), total)
	}
	if list[0].ID != owned.ID {
		t.Errorf("first question = %q, want newest", list[0].Title)
	}
	if list[0].Author() != "dave" {
		t.Errorf("Author() = %q, want dave", list[0].Author())
	}
	if list[1].Author() != model.AnonymousAuthor {
		t.Errorf("Author() = %q, want Anonymous", list[1].Author())
	}

	// 回答はcreated_at昇順
	first := &model.ForumAnswer{ID: uuid.New().String(), QuestionID: owned.ID, Body: "1", CreatedAt: now}
	second := &model.ForumAnswer{ID: uuid.New().String(), QuestionID: owned.ID, UserID: &owner.ID, Body: "2", CreatedAt: now.Add(time.Minute)}
	for _, a := range []*model.ForumAnswer{second, first} {
		if err := answers.Create(ctx, a); err != nil {
			t.Fatalf("Create answer failed: %v", err)
		}
	}
	byQuestion, err := answers.ListByQuestionIDs(ctx, []string{owned.ID, anon.ID})
	if err != nil {
		t.Fatalf("ListByQuestionIDs failed: %v", err)
	}
	got := byQuestion[owned.ID]
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("answers not ordered by created_at asc: %+v", got)
	}
	if len(byQuestion[anon.ID]) != 0 {
		t.Errorf("expected no answers for %s", anon.ID)
	}

	// 更新
	owned.Title = "更新後"
	ok, err := questions.Update(ctx, owned)
	if err != nil || !ok {
		t.Fatalf("Update = (%v, %v), want (true, nil)", ok, err)
	}
	reloaded, _ := questions.FindByID(ctx, owned.ID)
	if reloaded.Title != "更新後" {
		t.Errorf("Title = %q, want 更新後", reloaded.Title)
	}

	// 削除で回答もCASCADE削除される
	ok, err = questions.Delete(ctx, owned.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = (%v, %v), want (true, nil)", ok, err)
	}
	byQuestion, _ = answers.ListByQuestionIDs(ctx, []string{owned.ID})
	if len(byQuestion[owned.ID]) != 0 {
		t.Error("answers remain after question deletion")
	}

	ok, err = questions.Delete(ctx, owned.ID)
	if err != nil || ok {
		t.Errorf("second Delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestPostgresAnswerRepo_Create_MissingQuestion(t *testing.T) {
	db := setupRepoDB(t)
	answers := NewPostgresAnswerRepo(db)

	err := answers.Create(context.Background(), &model.ForumAnswer{
		ID:         uuid.New().String(),
		QuestionID: uuid.New().String(),
		Body:       "orphan",
		CreatedAt:  time.Now().UTC(),
	})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestPostgresIdentityRepo_Delete_NullsForumOwner(t *testing.T) {
	db := setupRepoDB(t)
	users := NewPostgresIdentityRepo(db)
	questions := NewPostgresQuestionRepo(db)
	ctx := context.Background()

	owner := newTestIdentity("erin", "erin@example.com")
	if err := users.Create(ctx, owner); err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	q := &model.ForumQuestion{ID: uuid.New().String(), UserID: &owner.ID, Title: "t", Body: "b", Category: model.CategoryDiabetes, CreatedAt: time.Now().UTC()}
	if err := questions.Create(ctx, q); err != nil {
		t.Fatalf("Create question failed: %v", err)
	}

	if err := users.DeleteByID(ctx, owner.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}

	got, err := questions.FindByID(ctx, q.ID)
	if err != nil || got == nil {
		t.Fatalf("question should survive owner deletion: %v", err)
	}
	if got.UserID != nil {
		t.Errorf("UserID = %v, want nil", *got.UserID)
	}
	if got.Author() != model.AnonymousAuthor {
		t.Errorf("Author() = %q, want Anonymous", got.Author())
	}
}
