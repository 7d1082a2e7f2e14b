package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"mindgate-service/internal/domain"
)

const defaultSubmitError = "Failed to submit answer. Please try again."

// Submitter records level completion with the backend.
type Submitter interface {
	Submit(ctx context.Context, req domain.SubmissionRequest) domain.SubmissionResult
}

// LevelCompletion is reported upward once a level's submission succeeds.
type LevelCompletion struct {
	GameID     string
	LevelID    string
	FinishGame bool
}

type controllerHooks struct {
	// changed fires after a phase change that callers may want to render.
	changed func()
	// completed fires at most once per controller, after a successful submission.
	completed func(*LevelController, LevelCompletion)
}

// LevelController drives one (game, level) instance from not started to completed.
type LevelController struct {
	sessionID  string
	game       domain.Game
	levelIndex int
	submitter  Submitter
	hooks      controllerHooks

	mu        sync.Mutex
	phase     domain.LevelPhase
	errMsg    string
	submitted bool
}

func newLevelController(sessionID string, game domain.Game, levelIndex int, autoStart bool, submitter Submitter, hooks controllerHooks) *LevelController {
	phase := domain.PhaseNotStarted
	if autoStart {
		phase = domain.PhasePlaying
	}
	return &LevelController{
		sessionID:  sessionID,
		game:       game,
		levelIndex: levelIndex,
		submitter:  submitter,
		hooks:      hooks,
		phase:      phase,
	}
}

// Level returns the level this controller plays, or false if the index is out of range.
func (c *LevelController) Level() (domain.Level, bool) {
	if c.levelIndex < 0 || c.levelIndex >= len(c.game.Levels) {
		return domain.Level{}, false
	}
	return c.game.Levels[c.levelIndex], true
}

// IsLastLevel reports whether finishing this level finishes the game.
func (c *LevelController) IsLastLevel() bool {
	return c.levelIndex == len(c.game.Levels)-1
}

// Phase returns the current phase.
func (c *LevelController) Phase() domain.LevelPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *LevelController) state() (domain.LevelPhase, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase, c.errMsg
}

// Start moves a not-started level into play. It reports whether the phase changed.
func (c *LevelController) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted || c.phase != domain.PhaseNotStarted {
		return false
	}
	c.phase = domain.PhasePlaying
	return true
}

// Next submits a level that is not the last of its game.
func (c *LevelController) Next(ctx context.Context, payload json.RawMessage) (bool, error) {
	if c.IsLastLevel() {
		return false, domain.ErrIntentMismatch
	}
	return c.Submit(ctx, false, payload)
}

// Finish submits the last level of the game.
func (c *LevelController) Finish(ctx context.Context, payload json.RawMessage) (bool, error) {
	if !c.IsLastLevel() {
		return false, domain.ErrIntentMismatch
	}
	return c.Submit(ctx, true, payload)
}

// Submit sends the level to the backend and reports whether completion was reported upward.
// Calls made while a submission is in flight, or after one succeeded, are ignored.
func (c *LevelController) Submit(ctx context.Context, finishGame bool, payload json.RawMessage) (bool, error) {
	req, ok := c.beginSubmit(payload)
	if !ok {
		return false, nil
	}
	c.notify()
	return c.send(ctx, req, finishGame)
}

// send delivers a request claimed by beginSubmit and applies the outcome.
func (c *LevelController) send(ctx context.Context, req domain.SubmissionRequest, finishGame bool) (bool, error) {
	result := c.submitter.Submit(ctx, req)
	return c.resolve(result, finishGame)
}

func (c *LevelController) beginSubmit(payload json.RawMessage) (domain.SubmissionRequest, bool) {
	level, ok := c.Level()
	if !ok {
		return domain.SubmissionRequest{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted || c.phase == domain.PhaseSubmitting || c.phase == domain.PhaseCompleted {
		return domain.SubmissionRequest{}, false
	}
	c.phase = domain.PhaseSubmitting
	c.errMsg = ""
	return domain.SubmissionRequest{
		SessionID: c.sessionID,
		GameID:    c.game.ID,
		LevelID:   level.ID,
		Payload:   payload,
	}, true
}

func (c *LevelController) resolve(result domain.SubmissionResult, finishGame bool) (bool, error) {
	level, _ := c.Level()

	c.mu.Lock()
	if !result.Success {
		c.phase = domain.PhasePlaying
		c.errMsg = result.Error
		if c.errMsg == "" {
			c.errMsg = defaultSubmitError
		}
		c.mu.Unlock()
		log.Warn().
			Str("session", c.sessionID).
			Str("game", c.game.ID).
			Str("level", level.ID).
			Str("reason", string(result.Reason)).
			Msg("level submission failed")
		c.notify()
		return false, result.Err()
	}
	if c.submitted {
		c.mu.Unlock()
		return false, nil
	}
	c.submitted = true
	c.phase = domain.PhaseCompleted
	c.errMsg = ""
	c.mu.Unlock()

	if c.hooks.completed != nil {
		c.hooks.completed(c, LevelCompletion{GameID: c.game.ID, LevelID: level.ID, FinishGame: finishGame})
	}
	return true, nil
}

func (c *LevelController) notify() {
	if c.hooks.changed != nil {
		c.hooks.changed()
	}
}
