package editor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/apperr"
	"photoflow/internal/model"
	prefsrepo "photoflow/internal/repository/prefs"
)

func init() {
	zlog.Init()
}

// fakePrefsRepo is an in-memory prefsRepo for tests.
type fakePrefsRepo struct {
	prefs    map[string]model.Preferences
	projects []model.RecentProject
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{prefs: map[string]model.Preferences{}}
}

func (f *fakePrefsRepo) GetPreferences(_ context.Context, owner string) (model.Preferences, error) {
	p, ok := f.prefs[owner]
	if !ok {
		return model.Preferences{}, prefsrepo.ErrNotFound
	}
	return p, nil
}

func (f *fakePrefsRepo) UpsertPreferences(_ context.Context, p model.Preferences) error {
	f.prefs[p.Owner] = p
	return nil
}

func (f *fakePrefsRepo) AddRecentProject(_ context.Context, rp model.RecentProject) (uuid.UUID, error) {
	rp.ID = uuid.New()
	f.projects = append(f.projects, rp)
	return rp.ID, nil
}

func (f *fakePrefsRepo) ListRecentProjects(_ context.Context, owner string, limit int) ([]model.RecentProject, error) {
	var out []model.RecentProject
	for _, rp := range f.projects {
		if rp.Owner == owner {
			out = append(out, rp)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestSaveRecentProject(t *testing.T) {
	repo := newFakePrefsRepo()
	s := NewService(nil, nil, nil, nil, nil, repo, 0)

	rp := model.RecentProject{
		Owner:   "alice",
		ImageID: uuid.New(),
		JobID:   uuid.New(),
		Title:   "holiday.jpg",
	}

	saved, err := s.SaveRecentProject(context.Background(), rp)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == uuid.Nil {
		t.Fatal("SaveRecentProject did not assign an ID")
	}
	if saved.UpdatedAt.IsZero() {
		t.Fatal("SaveRecentProject did not set UpdatedAt")
	}

	listed, err := s.RecentProjects(context.Background(), "alice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Title != "holiday.jpg" {
		t.Fatalf("RecentProjects = %+v, want the saved entry", listed)
	}
}

func TestSaveRecentProjectValidation(t *testing.T) {
	s := NewService(nil, nil, nil, nil, nil, newFakePrefsRepo(), 0)

	_, err := s.SaveRecentProject(context.Background(), model.RecentProject{ImageID: uuid.New()})
	if apperr.CategoryOf(err) != apperr.CategoryInvalidInput {
		t.Fatalf("missing owner category = %v, want invalid_input", apperr.CategoryOf(err))
	}

	_, err = s.SaveRecentProject(context.Background(), model.RecentProject{Owner: "alice"})
	if apperr.CategoryOf(err) != apperr.CategoryInvalidInput {
		t.Fatalf("missing image category = %v, want invalid_input", apperr.CategoryOf(err))
	}
}

func TestPreferencesFallsBackToDefaults(t *testing.T) {
	s := NewService(nil, nil, nil, nil, nil, newFakePrefsRepo(), 0)

	p := s.Preferences(context.Background(), "nobody")
	if p.ExportFormat != "jpeg" || p.ExportQuality != 90 || !p.AutoOrient {
		t.Fatalf("Preferences = %+v, want defaults", p)
	}
}
