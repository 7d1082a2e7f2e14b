package app_test

import (
	"errors"
	"fmt"
	"testing"

	"mindgate-service/internal/app"
	"mindgate-service/internal/domain"
)

func TestNewProgressionActivatesFirstGame(t *testing.T) {
	for n := 1; n <= 5; n++ {
		p, err := app.NewProgression(catalogWithLevels(repeat(2, n)...))
		if err != nil {
			t.Fatalf("new progression: %v", err)
		}
		snap := p.Snapshot()
		if len(snap.GameStatuses) != n {
			t.Fatalf("expected %d statuses, got %d", n, len(snap.GameStatuses))
		}
		if snap.GameStatuses[0] != domain.StatusActive {
			t.Fatalf("expected first game active, got %s", snap.GameStatuses[0])
		}
		for i := 1; i < n; i++ {
			if snap.GameStatuses[i] != domain.StatusPending {
				t.Fatalf("expected game %d pending, got %s", i, snap.GameStatuses[i])
			}
		}
		if snap.CurrentGameIndex != 0 || snap.CurrentLevelIndex != 0 || snap.Complete {
			t.Fatalf("unexpected initial snapshot %+v", snap)
		}
	}
}

func TestNewProgressionRejectsGameWithoutLevels(t *testing.T) {
	_, err := app.NewProgression(catalogWithLevels(2, 0, 1))
	if !errors.Is(err, domain.ErrEmptyGame) {
		t.Fatalf("expected ErrEmptyGame, got %v", err)
	}
}

func TestProgressionScenarioTwoOneTwo(t *testing.T) {
	p, err := app.NewProgression(catalogWithLevels(2, 1, 2))
	if err != nil {
		t.Fatalf("new progression: %v", err)
	}

	mustComplete(t, p, false)
	assertSnapshot(t, p, 0, 1, domain.StatusActive, domain.StatusPending, domain.StatusPending)

	mustComplete(t, p, true)
	assertSnapshot(t, p, 1, 0, domain.StatusPassed, domain.StatusActive, domain.StatusPending)

	mustComplete(t, p, true)
	assertSnapshot(t, p, 2, 0, domain.StatusPassed, domain.StatusPassed, domain.StatusActive)

	mustComplete(t, p, false)
	mustComplete(t, p, true)
	snap := p.Snapshot()
	if snap.CurrentGameIndex != 3 || !snap.Complete || !p.Complete() {
		t.Fatalf("expected terminal state at index 3, got %+v", snap)
	}
	for i, status := range snap.GameStatuses {
		if status != domain.StatusPassed {
			t.Fatalf("expected game %d passed, got %s", i, status)
		}
	}
	if _, ok := p.CurrentGame(); ok {
		t.Fatalf("expected no current game in terminal state")
	}
}

func TestCompleteLevelAfterTerminalIsRejected(t *testing.T) {
	p, _ := app.NewProgression(catalogWithLevels(1))
	mustComplete(t, p, true)

	before := p.Snapshot()
	if err := p.CompleteLevel(true); !errors.Is(err, domain.ErrProgressionComplete) {
		t.Fatalf("expected ErrProgressionComplete, got %v", err)
	}
	if err := p.CompleteLevel(false); !errors.Is(err, domain.ErrProgressionComplete) {
		t.Fatalf("expected ErrProgressionComplete, got %v", err)
	}
	after := p.Snapshot()
	if after.CurrentGameIndex != before.CurrentGameIndex || after.GameStatuses[0] != domain.StatusPassed {
		t.Fatalf("terminal state changed: %+v", after)
	}
}

func TestCompleteLevelOverrunDoesNotMutate(t *testing.T) {
	p, _ := app.NewProgression(catalogWithLevels(2, 1))
	mustComplete(t, p, false)

	if err := p.CompleteLevel(false); !errors.Is(err, domain.ErrLevelOverrun) {
		t.Fatalf("expected ErrLevelOverrun, got %v", err)
	}
	assertSnapshot(t, p, 0, 1, domain.StatusActive, domain.StatusPending)
}

func TestSelectGameOnlyAllowsActive(t *testing.T) {
	p, _ := app.NewProgression(catalogWithLevels(1, 1, 1))
	mustComplete(t, p, true)

	cases := map[int]bool{-1: false, 0: false, 1: true, 2: false, 3: false}
	for index, want := range cases {
		if got := p.SelectGame(index); got != want {
			t.Fatalf("SelectGame(%d) = %v, want %v", index, got, want)
		}
	}
	assertSnapshot(t, p, 1, 0, domain.StatusPassed, domain.StatusActive, domain.StatusPending)
}

func TestStatusesStayMonotonic(t *testing.T) {
	levels := []int{3, 1, 2, 4}
	p, _ := app.NewProgression(catalogWithLevels(levels...))
	assertMonotonic(t, p.Snapshot().GameStatuses)

	for game, count := range levels {
		for level := 0; level < count; level++ {
			mustComplete(t, p, level == count-1)
			assertMonotonic(t, p.Snapshot().GameStatuses)
			p.SelectGame(game)
		}
	}
	if !p.Complete() {
		t.Fatalf("expected progression to be complete")
	}
}

func mustComplete(t *testing.T, p *app.Progression, finish bool) {
	t.Helper()
	if err := p.CompleteLevel(finish); err != nil {
		t.Fatalf("complete level (finish=%v): %v", finish, err)
	}
}

func assertSnapshot(t *testing.T, p *app.Progression, game, level int, statuses ...domain.GameStatus) {
	t.Helper()
	snap := p.Snapshot()
	if snap.CurrentGameIndex != game || snap.CurrentLevelIndex != level {
		t.Fatalf("expected game %d level %d, got game %d level %d", game, level, snap.CurrentGameIndex, snap.CurrentLevelIndex)
	}
	for i, want := range statuses {
		if snap.GameStatuses[i] != want {
			t.Fatalf("expected game %d %s, got %s", i, want, snap.GameStatuses[i])
		}
	}
}

func assertMonotonic(t *testing.T, statuses []domain.GameStatus) {
	t.Helper()
	for i := range statuses {
		for j := i + 1; j < len(statuses); j++ {
			if statuses[i] == domain.StatusPending && statuses[j] != domain.StatusPending {
				t.Fatalf("statuses not monotonic: %v", statuses)
			}
		}
	}
}

// catalogWithLevels builds a catalog with one game per entry, each with that many levels.
func catalogWithLevels(counts ...int) domain.Catalog {
	games := make([]domain.Game, len(counts))
	for i, n := range counts {
		game := domain.Game{ID: fmt.Sprintf("game-%d", i+1), Name: fmt.Sprintf("Game %d", i+1)}
		for j := 0; j < n; j++ {
			game.Levels = append(game.Levels, domain.Level{
				ID:    fmt.Sprintf("g%d-l%d", i+1, j+1),
				Title: fmt.Sprintf("Level %d", j+1),
			})
		}
		games[i] = game
	}
	return domain.Catalog{Games: games}
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
