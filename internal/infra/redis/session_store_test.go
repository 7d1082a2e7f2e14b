package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"mindgate-service/internal/app"
	"mindgate-service/internal/infra/memory"
	"mindgate-service/internal/infra/simulated"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session, err := app.NewSession("session-1", memory.DefaultCatalog(), simulated.NewSubmissionService())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	store.Save(session)
	if !mr.Exists("mindgate:session:session-1") {
		t.Fatalf("expected redis key to be set")
	}
	live, err := store.Live(context.Background())
	if err != nil || live != 1 {
		t.Fatalf("expected one live session, got %d err=%v", live, err)
	}
	if _, ok := store.Get("session-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete("session-1")
	if mr.Exists("mindgate:session:session-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("session-1"); ok {
		t.Fatalf("expected session removed")
	}
}
