package domain

import (
	"encoding/json"
	"fmt"
)

// GameStatus is the progression status of a single game in the catalog.
type GameStatus string

const (
	StatusPending GameStatus = "pending"
	StatusActive  GameStatus = "active"
	StatusPassed  GameStatus = "passed"
)

// GameKindMemoryGrid selects the memorize-the-pattern play surface.
const GameKindMemoryGrid = "memory-grid"

// Level is a single playable step of a game.
type Level struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Game is an ordered list of levels plus the text shown around it.
type Game struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Icon        string   `json:"icon" yaml:"icon"`
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Rules       []string `json:"rules" yaml:"rules"`
	Levels      []Level  `json:"levels" yaml:"levels"`
}

// Catalog is the ordered set of games a session plays through.
type Catalog struct {
	Games []Game `json:"games" yaml:"games"`
}

// Validate checks the structural rules a catalog must satisfy before play.
func (c Catalog) Validate() error {
	if len(c.Games) == 0 {
		return ErrCatalogEmpty
	}
	gameIDs := make(map[string]struct{}, len(c.Games))
	for i, game := range c.Games {
		if game.ID == "" {
			return fmt.Errorf("game %d: %w", i, ErrMissingID)
		}
		if _, dup := gameIDs[game.ID]; dup {
			return fmt.Errorf("game %q: %w", game.ID, ErrDuplicateID)
		}
		gameIDs[game.ID] = struct{}{}
		if len(game.Levels) == 0 {
			return fmt.Errorf("game %q: %w", game.ID, ErrEmptyGame)
		}
		levelIDs := make(map[string]struct{}, len(game.Levels))
		for j, level := range game.Levels {
			if level.ID == "" {
				return fmt.Errorf("game %q level %d: %w", game.ID, j, ErrMissingID)
			}
			if _, dup := levelIDs[level.ID]; dup {
				return fmt.Errorf("game %q level %q: %w", game.ID, level.ID, ErrDuplicateID)
			}
			levelIDs[level.ID] = struct{}{}
		}
	}
	return nil
}

// Game returns the game with the given ID.
func (c Catalog) Game(id string) (Game, bool) {
	for _, game := range c.Games {
		if game.ID == id {
			return game, true
		}
	}
	return Game{}, false
}

// LevelPhase is the lifecycle of one level instance.
type LevelPhase string

const (
	PhaseNotStarted LevelPhase = "not_started"
	PhasePlaying    LevelPhase = "playing"
	PhaseSubmitting LevelPhase = "submitting"
	PhaseCompleted  LevelPhase = "completed"
)

// SubmissionRequest asks the backend to record completion of a level.
type SubmissionRequest struct {
	SessionID string          `json:"sessionId,omitempty"`
	GameID    string          `json:"gameId"`
	LevelID   string          `json:"levelId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// FailureReason classifies an unsuccessful submission.
type FailureReason string

const (
	ReasonNone     FailureReason = ""
	ReasonRejected FailureReason = "rejected"
	ReasonTimeout  FailureReason = "timeout"
	ReasonCanceled FailureReason = "canceled"
)

// SubmissionResult is the outcome of a single submission call.
type SubmissionResult struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Reason  FailureReason `json:"reason,omitempty"`
}

// Err maps the result onto the sentinel error for its failure reason.
func (r SubmissionResult) Err() error {
	if r.Success {
		return nil
	}
	switch r.Reason {
	case ReasonTimeout:
		return ErrSubmissionTimeout
	case ReasonCanceled:
		return ErrSubmissionCanceled
	default:
		return ErrSubmissionRejected
	}
}

// ProgressSnapshot is a copy of the progression state safe to hand to callers.
type ProgressSnapshot struct {
	GameStatuses      []GameStatus `json:"gameStatuses"`
	CurrentGameIndex  int          `json:"currentGameIndex"`
	CurrentLevelIndex int          `json:"currentLevelIndex"`
	Complete          bool         `json:"complete"`
}

// GridView is what a client needs to draw the memory grid.
type GridView struct {
	Size            int    `json:"size"`
	CellsToRemember int    `json:"cellsToRemember"`
	Phase           string `json:"phase"`
	Pattern         []int  `json:"pattern,omitempty"`
	Selected        []int  `json:"selected"`
	DisplayMillis   int64  `json:"displayMillis"`
}

// PlayerView is the render tuple for one session.
type PlayerView struct {
	SessionID    string           `json:"sessionId"`
	Progress     ProgressSnapshot `json:"progress"`
	GameID       string           `json:"gameId,omitempty"`
	GameName     string           `json:"gameName,omitempty"`
	Level        *Level           `json:"level,omitempty"`
	LevelError   string           `json:"levelError,omitempty"`
	TotalLevels  int              `json:"totalLevels,omitempty"`
	Phase        LevelPhase       `json:"phase,omitempty"`
	Playing      bool             `json:"playing"`
	Completed    bool             `json:"completed"`
	Loading      bool             `json:"loading"`
	Error        string           `json:"error,omitempty"`
	IsFirstLevel bool             `json:"isFirstLevel"`
	IsLastLevel  bool             `json:"isLastLevel"`
	Grid         *GridView        `json:"grid,omitempty"`
}
