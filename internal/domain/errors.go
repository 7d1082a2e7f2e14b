package domain

import "errors"

var (
	// ErrCatalogEmpty is returned when a catalog has no games.
	ErrCatalogEmpty = errors.New("catalog has no games")
	// ErrEmptyGame is returned when a game has no levels to play.
	ErrEmptyGame = errors.New("game has no levels")
	// ErrMissingID indicates a game or level without an identifier.
	ErrMissingID = errors.New("missing id")
	// ErrDuplicateID indicates two games, or two levels of one game, share an id.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrCatalogNotFound indicates the catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")

	// ErrSessionNotFound is returned when a training session does not exist.
	ErrSessionNotFound = errors.New("training session not found")
	// ErrProgressionComplete is returned when progressing past the terminal state.
	ErrProgressionComplete = errors.New("all games already completed")
	// ErrLevelOverrun is returned when advancing past the last level without finishing the game.
	ErrLevelOverrun = errors.New("advanced past the last level without finishing the game")
	// ErrLevelNotFound indicates the progression indices do not resolve to a level.
	ErrLevelNotFound = errors.New("level data not found")
	// ErrIntentMismatch is returned for next on a last level or finish on a non-last level.
	ErrIntentMismatch = errors.New("intent does not match level position")
	// ErrNoActiveRound is returned when a grid action arrives with no grid in play.
	ErrNoActiveRound = errors.New("no memory grid round in play")

	// ErrSubmissionRejected means the backend declined the submission.
	ErrSubmissionRejected = errors.New("submission rejected")
	// ErrSubmissionTimeout means the submission did not resolve before its deadline.
	ErrSubmissionTimeout = errors.New("submission timed out")
	// ErrSubmissionCanceled means the caller canceled the submission.
	ErrSubmissionCanceled = errors.New("submission canceled")
)
