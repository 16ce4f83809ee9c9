package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"kambaz-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	who := domain.Identity{UserID: "u1", Role: domain.RoleFaculty}

	if err := store.Save(ctx, "tok", who); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("session:tok") {
		t.Fatalf("expected redis key to be set")
	}

	got, err := store.Lookup(ctx, "tok")
	if err != nil || got != who {
		t.Fatalf("expected %+v, got %+v err=%v", who, got, err)
	}

	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("session:tok") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, err := store.Lookup(ctx, "tok"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	_ = store.Save(ctx, "tok", domain.Identity{UserID: "u1"})

	mr.FastForward(30 * time.Second)
	if _, err := store.Lookup(ctx, "tok"); err != nil {
		t.Fatalf("expected live session, got %v", err)
	}
	mr.FastForward(45 * time.Second)
	if _, err := store.Lookup(ctx, "tok"); err != nil {
		t.Fatalf("expected lookup to have extended the session, got %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Lookup(ctx, "tok"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}
