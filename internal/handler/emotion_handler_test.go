package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/immal/internal/access"
	"github.com/hitoshi/immal/internal/emotion"
	"github.com/hitoshi/immal/internal/model"
)

// mockEmotionService はEmotionServiceInterfaceのモック実装。
type mockEmotionService struct {
	listFn   func(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.EmotionLogEntry], error)
	createFn func(ctx context.Context, auth access.AuthContext, input emotion.Input) (*model.EmotionLogEntry, error)
	getFn    func(ctx context.Context, auth access.AuthContext, id string) (*model.EmotionLogEntry, error)
	updateFn func(ctx context.Context, auth access.AuthContext, id string, input emotion.Input) (*model.EmotionLogEntry, error)
	patchFn  func(ctx context.Context, auth access.AuthContext, id string, patch emotion.Patch) (*model.EmotionLogEntry, error)
	deleteFn func(ctx context.Context, auth access.AuthContext, id string) error
	statsFn  func(ctx context.Context, auth access.AuthContext) (*model.EmotionStats, error)
}

func (m *mockEmotionService) List(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.EmotionLogEntry], error) {
	if m.listFn != nil {
		return m.listFn(ctx, auth, page)
	}
	return model.PageResult[*model.EmotionLogEntry]{Items: []*model.EmotionLogEntry{}, Page: page}, nil
}

func (m *mockEmotionService) Create(ctx context.Context, auth access.AuthContext, input emotion.Input) (*model.EmotionLogEntry, error) {
	if m.createFn != nil {
		return m.createFn(ctx, auth, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEmotionService) Get(ctx context.Context, auth access.AuthContext, id string) (*model.EmotionLogEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, auth, id)
	}
	return nil, model.NewEmotionLogNotFoundError(id)
}

func (m *mockEmotionService) Update(ctx context.Context, auth access.AuthContext, id string, input emotion.Input) (*model.EmotionLogEntry, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, auth, id, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEmotionService) Patch(ctx context.Context, auth access.AuthContext, id string, patch emotion.Patch) (*model.EmotionLogEntry, error) {
	if m.patchFn != nil {
		return m.patchFn(ctx, auth, id, patch)
	}
	return nil, errors.New("not implemented")
}

func (m *mockEmotionService) Delete(ctx context.Context, auth access.AuthContext, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, auth, id)
	}
	return nil
}

func (m *mockEmotionService) Stats(ctx context.Context, auth access.AuthContext) (*model.EmotionStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, auth)
	}
	return &model.EmotionStats{}, nil
}

var testLogTime = time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)

func TestEmotionHandler_List(t *testing.T) {
	svc := &mockEmotionService{
		listFn: func(ctx context.Context, auth access.AuthContext, page model.Page) (model.PageResult[*model.EmotionLogEntry], error) {
			return model.PageResult[*model.EmotionLogEntry]{
				Items: []*model.EmotionLogEntry{{ID: "e1", UserID: auth.SubjectID(), Emotion: model.EmotionHappy, CreatedAt: testLogTime}},
				Total: 1,
				Page:  page,
			}, nil
		},
	}
	h := NewEmotionHandler(svc, NewPaginator("http://api.example.com", 10))

	req := withAuth(httptest.NewRequest(http.MethodGet, "/faceai/log", nil), testIdentity("u1"))
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	results := decodeBody(t, w)["results"].([]any)
	entry := results[0].(map[string]any)
	if entry["emotion"] != "happy" {
		t.Errorf("emotion = %v, want happy", entry["emotion"])
	}
	if entry["timestamp"] != "2024-05-15T09:30:00Z" {
		t.Errorf("timestamp = %v", entry["timestamp"])
	}
	if _, exists := entry["user_id"]; exists {
		t.Error("owner should not be exposed")
	}
}

func TestEmotionHandler_Create(t *testing.T) {
	svc := &mockEmotionService{
		createFn: func(ctx context.Context, auth access.AuthContext, input emotion.Input) (*model.EmotionLogEntry, error) {
			if !model.IsValidEmotion(input.Emotion) {
				return nil, model.NewValidationError(map[string]string{"emotion": "invalid"})
			}
			return &model.EmotionLogEntry{ID: "e2", Emotion: model.Emotion(input.Emotion), CreatedAt: testLogTime}, nil
		},
	}
	h := NewEmotionHandler(svc, NewPaginator("http://api.example.com", 10))

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid", `{"emotion":"sad"}`, http.StatusCreated},
		{"unknown emotion", `{"emotion":"bored"}`, http.StatusBadRequest},
		{"wrong type", `{"emotion":1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withAuth(httptest.NewRequest(http.MethodPost, "/faceai/log", strings.NewReader(tt.body)), testIdentity("u1"))
			w := httptest.NewRecorder()

			h.Create(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestEmotionHandler_GetUpdatePatchDelete(t *testing.T) {
	svc := &mockEmotionService{
		getFn: func(ctx context.Context, auth access.AuthContext, id string) (*model.EmotionLogEntry, error) {
			if id != "e1" {
				return nil, model.NewEmotionLogNotFoundError(id)
			}
			return &model.EmotionLogEntry{ID: id, Emotion: model.EmotionAngry, CreatedAt: testLogTime}, nil
		},
		updateFn: func(ctx context.Context, auth access.AuthContext, id string, input emotion.Input) (*model.EmotionLogEntry, error) {
			return &model.EmotionLogEntry{ID: id, Emotion: model.Emotion(input.Emotion), CreatedAt: testLogTime}, nil
		},
		patchFn: func(ctx context.Context, auth access.AuthContext, id string, patch emotion.Patch) (*model.EmotionLogEntry, error) {
			e := model.EmotionNeutral
			if patch.Emotion != nil {
				e = model.Emotion(*patch.Emotion)
			}
			return &model.EmotionLogEntry{ID: id, Emotion: e, CreatedAt: testLogTime}, nil
		},
		deleteFn: func(ctx context.Context, auth access.AuthContext, id string) error {
			if id != "e1" {
				return model.NewEmotionLogNotFoundError(id)
			}
			return nil
		},
	}
	h := NewEmotionHandler(svc, NewPaginator("http://api.example.com", 10))

	newReq := func(method, id, body string) *http.Request {
		req := httptest.NewRequest(method, "/faceai/log/"+id, strings.NewReader(body))
		return withAuth(withChiURLParam(req, "id", id), testIdentity("u1"))
	}

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Get(w, newReq(http.MethodGet, "e1", ""))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("get other user's log", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Get(w, newReq(http.MethodGet, "e-other", ""))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("put", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Update(w, newReq(http.MethodPut, "e1", `{"emotion":"fearful"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := decodeBody(t, w); got["emotion"] != "fearful" {
			t.Errorf("emotion = %v, want fearful", got["emotion"])
		}
	})

	t.Run("patch without fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Patch(w, newReq(http.MethodPatch, "e1", `{}`))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := decodeBody(t, w); got["emotion"] != "neutral" {
			t.Errorf("emotion = %v, want neutral", got["emotion"])
		}
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Delete(w, newReq(http.MethodDelete, "e1", ""))
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
		}
	})

	t.Run("delete missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Delete(w, newReq(http.MethodDelete, "e2", ""))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestEmotionHandler_Stats_IncludesZeroCounts(t *testing.T) {
	svc := &mockEmotionService{
		statsFn: func(ctx context.Context, auth access.AuthContext) (*model.EmotionStats, error) {
			return &model.EmotionStats{
				Today:     model.EmotionCounts{model.EmotionHappy: 1},
				ThisWeek:  model.EmotionCounts{model.EmotionHappy: 2, model.EmotionSad: 1},
				ThisMonth: model.EmotionCounts{},
			}, nil
		},
	}
	h := NewEmotionHandler(svc, NewPaginator("http://api.example.com", 10))

	req := withAuth(httptest.NewRequest(http.MethodGet, "/faceai/log/stats", nil), testIdentity("u1"))
	w := httptest.NewRecorder()

	h.Stats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody(t, w)
	today := body["today"].(map[string]any)
	if today["happy"] != float64(1) || today["sad"] != float64(0) {
		t.Errorf("today = %v, want happy=1 sad=0", today)
	}
	if len(today) != len(model.Emotions) {
		t.Errorf("today has %d keys, want %d", len(today), len(model.Emotions))
	}
	week := body["this_week"].(map[string]any)
	if week["happy"] != float64(2) || week["sad"] != float64(1) {
		t.Errorf("this_week = %v", week)
	}
	month := body["this_month"].(map[string]any)
	if month["angry"] != float64(0) {
		t.Errorf("this_month = %v, want zero counts", month)
	}
}
