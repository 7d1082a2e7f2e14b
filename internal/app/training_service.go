package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"mindgate-service/internal/domain"
)

// SessionRepository abstracts where live training sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CatalogRepository loads the game catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// TrainingService contains the player-facing use cases.
type TrainingService struct {
	sessions    SessionRepository
	catalogs    CatalogRepository
	submitter   Submitter
	newID       func() string
	sessionOpts []SessionOption
}

func NewTrainingService(sessions SessionRepository, catalogs CatalogRepository, submitter Submitter, opts ...SessionOption) *TrainingService {
	return &TrainingService{
		sessions:    sessions,
		catalogs:    catalogs,
		submitter:   submitter,
		newID:       uuid.NewString,
		sessionOpts: opts,
	}
}

// Catalog returns the validated catalog new sessions are started with.
func (s *TrainingService) Catalog(ctx context.Context) (domain.Catalog, error) {
	catalog, err := s.catalogs.GetCatalog(ctx)
	if err != nil {
		return domain.Catalog{}, err
	}
	if err := catalog.Validate(); err != nil {
		return domain.Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}

// StartSession creates a session with the first game active.
func (s *TrainingService) StartSession(ctx context.Context) (domain.PlayerView, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return domain.PlayerView{}, err
	}
	session, err := NewSession(s.newID(), catalog, s.submitter, s.sessionOpts...)
	if err != nil {
		return domain.PlayerView{}, err
	}
	s.sessions.Save(session)
	log.Info().Str("session", session.ID()).Int("games", len(catalog.Games)).Msg("training session started")
	return session.View(), nil
}

// View returns the render tuple of a session.
func (s *TrainingService) View(_ context.Context, sessionID string) (domain.PlayerView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, err
	}
	return session.View(), nil
}

// Start begins the current level.
func (s *TrainingService) Start(_ context.Context, sessionID string) (domain.PlayerView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, err
	}
	return session.Start(), nil
}

// Next submits a non-final level.
func (s *TrainingService) Next(ctx context.Context, sessionID string) (domain.PlayerView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, err
	}
	return session.Next(ctx)
}

// Finish submits the final level of the current game.
func (s *TrainingService) Finish(ctx context.Context, sessionID string) (domain.PlayerView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, err
	}
	return session.Finish(ctx)
}

// Submit submits the current level, whichever position it has in its game.
func (s *TrainingService) Submit(ctx context.Context, sessionID string) (domain.PlayerView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, err
	}
	return session.Submit(ctx)
}

// SelectGame re-enters the active game; other indices are ignored.
func (s *TrainingService) SelectGame(_ context.Context, sessionID string, index int) (domain.PlayerView, bool, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, false, err
	}
	view, ok := session.SelectGame(index)
	return view, ok, nil
}

// SelectCell toggles a memory grid cell.
func (s *TrainingService) SelectCell(ctx context.Context, sessionID string, cell int) (domain.PlayerView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, err
	}
	return session.SelectCell(ctx, cell)
}

// ToggleCell toggles a memory grid cell without sending a full selection. Callers send
// the returned PendingSubmission, if any, whenever suits them.
func (s *TrainingService) ToggleCell(_ context.Context, sessionID string, cell int) (domain.PlayerView, *PendingSubmission, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.PlayerView{}, nil, err
	}
	return session.ToggleCell(cell)
}

// Subscribe returns a channel that receives view updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *TrainingService) Subscribe(_ context.Context, sessionID string) (<-chan domain.PlayerView, func(), error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// End discards a session and closes its subscriptions.
func (s *TrainingService) End(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.close()
	s.sessions.Delete(sessionID)
	log.Info().Str("session", sessionID).Bool("complete", session.Complete()).Msg("training session ended")
}

func (s *TrainingService) session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
