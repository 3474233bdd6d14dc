package clistore

import (
	"context"
	"testing"
)

func TestAddListAndUpdate(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	first := Project{JobID: "job-1", ImageID: "img-1", Title: "sunset.jpg", Status: "pending"}
	second := Project{JobID: "job-2", ImageID: "img-2", Title: "portrait.jpg", Status: "pending"}

	if err := store.Add(ctx, first); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := store.Add(ctx, second); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if err := store.SetStatus(ctx, "job-1", "completed", "processed/job-1.jpg"); err != nil {
		t.Fatalf("set status: %v", err)
	}

	projects, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}

	// job-1 was updated last, so it leads the listing.
	if projects[0].JobID != "job-1" {
		t.Errorf("first listed project = %s, want job-1", projects[0].JobID)
	}
	if projects[0].Status != "completed" {
		t.Errorf("status = %s, want completed", projects[0].Status)
	}
	if projects[0].Output != "processed/job-1.jpg" {
		t.Errorf("output = %s, want processed/job-1.jpg", projects[0].Output)
	}
}

func TestAddIsUpsert(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	p := Project{JobID: "job-1", ImageID: "img-1", Title: "a.jpg", Status: "pending"}
	if err := store.Add(ctx, p); err != nil {
		t.Fatalf("add: %v", err)
	}

	p.Status = "failed"
	if err := store.Add(ctx, p); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	projects, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(projects))
	}
	if projects[0].Status != "failed" {
		t.Errorf("status = %s, want failed", projects[0].Status)
	}
}

func TestSecondOpenIsLocked(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if _, err := Open(dir); err == nil {
		t.Fatal("second open succeeded, want ErrLocked")
	}
}
