package app

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"mindgate-service/internal/domain"
	"mindgate-service/internal/memorygrid"
)

const levelNotFoundMessage = "Level data not found."

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithRand sets the source used to draw memory grid patterns. The source is not locked,
// so it must not be shared by sessions played concurrently.
func WithRand(rnd *rand.Rand) SessionOption {
	return func(s *Session) { s.rnd = rnd }
}

// Session is one player's run through the catalog: progression, the level being played
// and, for memory grid games, the round on the board.
type Session struct {
	id        string
	catalog   domain.Catalog
	submitter Submitter
	createdAt time.Time
	now       func() time.Time
	rnd       *rand.Rand

	mu          sync.Mutex
	progression *Progression
	controller  *LevelController
	round       *memorygrid.Round
	subscribers map[chan domain.PlayerView]struct{}
}

// NewSession initializes progression over the catalog. The first level of the first game
// waits for an explicit start.
func NewSession(id string, catalog domain.Catalog, submitter Submitter, opts ...SessionOption) (*Session, error) {
	progression, err := NewProgression(catalog)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:          id,
		catalog:     catalog,
		submitter:   submitter,
		now:         time.Now,
		progression: progression,
		subscribers: make(map[chan domain.PlayerView]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	s.createdAt = s.now()

	s.mu.Lock()
	s.controller = s.newControllerLocked(false)
	s.mu.Unlock()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Complete reports whether every game has been passed.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progression.Complete()
}

// View returns the current render tuple.
func (s *Session) View() domain.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Start begins the current level if it is waiting for the player.
func (s *Session) Start() domain.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.controller; c != nil && c.Start() {
		s.startRoundLocked(c)
		return s.broadcastLocked()
	}
	return s.viewLocked()
}

// Next submits a level that is not the last of its game.
func (s *Session) Next(ctx context.Context) (domain.PlayerView, error) {
	return s.submit(func(c *LevelController, payload json.RawMessage) (bool, error) {
		return c.Next(ctx, payload)
	})
}

// Finish submits the last level of the current game.
func (s *Session) Finish(ctx context.Context) (domain.PlayerView, error) {
	return s.submit(func(c *LevelController, payload json.RawMessage) (bool, error) {
		return c.Finish(ctx, payload)
	})
}

// Submit submits the current level, finishing the game when it is the last level.
func (s *Session) Submit(ctx context.Context) (domain.PlayerView, error) {
	return s.submit(func(c *LevelController, payload json.RawMessage) (bool, error) {
		return c.Submit(ctx, c.IsLastLevel(), payload)
	})
}

// SelectGame re-enters the game at index. Only the active game can be selected; anything
// else is ignored and reported as false.
func (s *Session) SelectGame(index int) (domain.PlayerView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(), s.progression.SelectGame(index)
}

// PendingSubmission is a full grid selection whose level already moved to submitting.
// It must be sent exactly once.
type PendingSubmission struct {
	session    *Session
	controller *LevelController
	req        domain.SubmissionRequest
	finishGame bool
}

// Send delivers the submission and returns the resulting view.
func (p *PendingSubmission) Send(ctx context.Context) (domain.PlayerView, error) {
	_, err := p.controller.send(ctx, p.req, p.finishGame)
	return p.session.View(), err
}

// ToggleCell toggles a memory grid cell. The toggle that fills the selection also claims
// the level for submission, freezing the payload; the returned PendingSubmission carries it.
func (s *Session) ToggleCell(cell int) (domain.PlayerView, *PendingSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.controller
	if s.round == nil || c == nil || c.Phase() != domain.PhasePlaying {
		return s.viewLocked(), nil, domain.ErrNoActiveRound
	}
	if err := s.round.Toggle(cell, s.now()); err != nil {
		return s.viewLocked(), nil, err
	}
	if !s.round.Full() {
		return s.broadcastLocked(), nil, nil
	}

	payload, err := s.roundPayloadLocked()
	if err != nil {
		return s.broadcastLocked(), nil, err
	}
	req, ok := c.beginSubmit(payload)
	if !ok {
		return s.broadcastLocked(), nil, nil
	}
	pending := &PendingSubmission{session: s, controller: c, req: req, finishGame: c.IsLastLevel()}
	return s.broadcastLocked(), pending, nil
}

// SelectCell toggles a memory grid cell. A full selection is submitted right away.
func (s *Session) SelectCell(ctx context.Context, cell int) (domain.PlayerView, error) {
	view, pending, err := s.ToggleCell(cell)
	if err != nil || pending == nil {
		return view, err
	}
	return pending.Send(ctx)
}

func (s *Session) submit(send func(*LevelController, json.RawMessage) (bool, error)) (domain.PlayerView, error) {
	s.mu.Lock()
	c := s.controller
	// Submitting a level that was never started starts it, round included.
	if c != nil && c.Start() {
		s.startRoundLocked(c)
	}
	payload, err := s.roundPayloadLocked()
	s.mu.Unlock()
	if err != nil {
		return s.View(), err
	}
	if c == nil {
		return s.View(), nil
	}

	_, err = send(c, payload)
	return s.View(), err
}

func (s *Session) roundPayloadLocked() (json.RawMessage, error) {
	if s.round == nil || !s.round.Full() {
		return nil, nil
	}
	return json.Marshal(s.round.Evaluate(s.now()))
}

// levelComplete applies a successful submission to the progression and moves on to
// the next level, which starts without waiting for the player.
func (s *Session) levelComplete(c *LevelController, completion LevelCompletion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controller != c {
		log.Warn().Str("session", s.id).Str("level", completion.LevelID).Msg("ignoring completion from stale level")
		return
	}
	if err := s.progression.CompleteLevel(completion.FinishGame); err != nil {
		log.Error().Err(err).
			Str("session", s.id).
			Str("game", completion.GameID).
			Str("level", completion.LevelID).
			Msg("progression rejected level completion")
		return
	}

	log.Info().
		Str("session", s.id).
		Str("game", completion.GameID).
		Str("level", completion.LevelID).
		Bool("gameFinished", completion.FinishGame).
		Bool("complete", s.progression.Complete()).
		Msg("level completed")

	s.controller = s.newControllerLocked(true)
	s.broadcastLocked()
}

func (s *Session) newControllerLocked(autoStart bool) *LevelController {
	s.round = nil
	game, ok := s.progression.CurrentGame()
	if !ok {
		return nil
	}
	c := newLevelController(s.id, game, s.progression.LevelIndex(), autoStart, s.submitter, controllerHooks{
		changed:   s.notify,
		completed: s.levelComplete,
	})
	if autoStart {
		s.startRoundLocked(c)
	}
	return c
}

func (s *Session) startRoundLocked(c *LevelController) {
	if c.game.Kind != domain.GameKindMemoryGrid {
		return
	}
	level, ok := c.Level()
	if !ok {
		return
	}
	s.round = memorygrid.NewRound(level.ID, s.rnd, s.now())
}

func (s *Session) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked()
}

func (s *Session) viewLocked() domain.PlayerView {
	view := domain.PlayerView{
		SessionID: s.id,
		Progress:  s.progression.Snapshot(),
	}
	c := s.controller
	if c == nil {
		return view
	}

	view.GameID = c.game.ID
	view.GameName = c.game.Name
	view.TotalLevels = len(c.game.Levels)
	view.IsFirstLevel = c.levelIndex == 0
	view.IsLastLevel = c.IsLastLevel()

	level, ok := c.Level()
	if !ok {
		view.LevelError = levelNotFoundMessage
		return view
	}
	view.Level = &level

	phase, errMsg := c.state()
	view.Phase = phase
	view.Playing = phase == domain.PhasePlaying || phase == domain.PhaseSubmitting
	view.Completed = phase == domain.PhaseCompleted
	view.Loading = phase == domain.PhaseSubmitting
	view.Error = errMsg

	if s.round != nil {
		grid := s.round.View(s.now())
		view.Grid = &grid
	}
	return view
}

// subscribe returns a channel of view updates seeded with the current view.
func (s *Session) subscribe() (<-chan domain.PlayerView, func()) {
	ch := make(chan domain.PlayerView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// close drops every subscriber.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() domain.PlayerView {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Slow subscriber: drop its oldest view so the latest one always lands.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}
