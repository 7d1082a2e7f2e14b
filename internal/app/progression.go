package app

import (
	"fmt"

	"mindgate-service/internal/domain"
)

// Progression tracks which game and level a player is on and the status of every game.
// It is not safe for concurrent use; Session serializes access to it.
type Progression struct {
	catalog           domain.Catalog
	statuses          []domain.GameStatus
	currentGameIndex  int
	currentLevelIndex int
}

// NewProgression initializes progression for a catalog: the first game is active and the
// rest are pending. A game without levels is rejected up front so play can never stall on it.
func NewProgression(catalog domain.Catalog) (*Progression, error) {
	for _, game := range catalog.Games {
		if len(game.Levels) == 0 {
			return nil, fmt.Errorf("initialize progression: game %q: %w", game.ID, domain.ErrEmptyGame)
		}
	}
	statuses := make([]domain.GameStatus, len(catalog.Games))
	for i := range statuses {
		statuses[i] = domain.StatusPending
	}
	if len(statuses) > 0 {
		statuses[0] = domain.StatusActive
	}
	return &Progression{catalog: catalog, statuses: statuses}, nil
}

// Complete reports whether every game has been passed.
func (p *Progression) Complete() bool {
	return p.currentGameIndex >= len(p.catalog.Games)
}

// CompleteLevel advances after a successful submission. finishGame marks the current level
// as the last one of its game.
func (p *Progression) CompleteLevel(finishGame bool) error {
	if p.Complete() {
		return domain.ErrProgressionComplete
	}
	game := p.catalog.Games[p.currentGameIndex]

	if !finishGame {
		next := p.currentLevelIndex + 1
		if next >= len(game.Levels) {
			return fmt.Errorf("game %q level %d: %w", game.ID, p.currentLevelIndex, domain.ErrLevelOverrun)
		}
		p.currentLevelIndex = next
		return nil
	}

	p.statuses[p.currentGameIndex] = domain.StatusPassed
	p.currentGameIndex++
	p.currentLevelIndex = 0
	if p.currentGameIndex < len(p.statuses) {
		p.statuses[p.currentGameIndex] = domain.StatusActive
	}
	return nil
}

// SelectGame reports whether the game at index may be entered. Only the active game can;
// passed and pending games, and out-of-range indices, are ignored.
func (p *Progression) SelectGame(index int) bool {
	if index < 0 || index >= len(p.statuses) {
		return false
	}
	return p.statuses[index] == domain.StatusActive
}

// CurrentGame returns the active game, or false in the terminal state.
func (p *Progression) CurrentGame() (domain.Game, bool) {
	if p.Complete() {
		return domain.Game{}, false
	}
	return p.catalog.Games[p.currentGameIndex], true
}

// CurrentLevel returns the level being played.
func (p *Progression) CurrentLevel() (domain.Level, error) {
	game, ok := p.CurrentGame()
	if !ok {
		return domain.Level{}, domain.ErrProgressionComplete
	}
	if p.currentLevelIndex < 0 || p.currentLevelIndex >= len(game.Levels) {
		return domain.Level{}, fmt.Errorf("game %q level %d: %w", game.ID, p.currentLevelIndex, domain.ErrLevelNotFound)
	}
	return game.Levels[p.currentLevelIndex], nil
}

// GameIndex is the index of the active game; it equals the catalog length once complete.
func (p *Progression) GameIndex() int { return p.currentGameIndex }

// LevelIndex is the index of the current level within the active game.
func (p *Progression) LevelIndex() int { return p.currentLevelIndex }

// Snapshot copies the progression state.
func (p *Progression) Snapshot() domain.ProgressSnapshot {
	statuses := make([]domain.GameStatus, len(p.statuses))
	copy(statuses, p.statuses)
	return domain.ProgressSnapshot{
		GameStatuses:      statuses,
		CurrentGameIndex:  p.currentGameIndex,
		CurrentLevelIndex: p.currentLevelIndex,
		Complete:          p.Complete(),
	}
}
