// Package memorygrid implements the memorize-the-pattern game: a pattern of cells is shown
// for a short time, hidden, and the player selects the cells they remember.
package memorygrid

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"mindgate-service/internal/domain"
)

var (
	// ErrPatternShowing is returned when a cell is selected before the pattern is hidden.
	ErrPatternShowing = errors.New("pattern is still on display")
	// ErrCellOutOfRange is returned for a cell index outside the grid.
	ErrCellOutOfRange = errors.New("cell out of range")
)

// Phase is the stage of a round.
type Phase string

const (
	PhaseDisplay Phase = "display"
	PhaseInput   Phase = "input"
)

// Settings sizes the grid and pattern for a difficulty.
type Settings struct {
	Size            int
	CellsToRemember int
	DisplayTime     time.Duration
}

// SettingsFor returns grid settings for a difficulty; anything above 3 is the expert grid.
func SettingsFor(difficulty int) Settings {
	switch difficulty {
	case 1:
		return Settings{Size: 4, CellsToRemember: 3, DisplayTime: 3 * time.Second}
	case 2:
		return Settings{Size: 5, CellsToRemember: 4, DisplayTime: 2500 * time.Millisecond}
	case 3:
		return Settings{Size: 6, CellsToRemember: 5, DisplayTime: 2 * time.Second}
	default:
		return Settings{Size: 6, CellsToRemember: 7, DisplayTime: 1500 * time.Millisecond}
	}
}

// DifficultyFromLevelID reads the level number from ids like "g7-l2". It falls back to 1.
func DifficultyFromLevelID(levelID string) int {
	_, after, ok := strings.Cut(levelID, "-l")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(after)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// Result is the analytics payload submitted with a finished round.
type Result struct {
	LevelID             string    `json:"levelId"`
	Score               int       `json:"score"`
	Success             bool      `json:"success"`
	DurationMillis      int64     `json:"duration"`
	Attempts            int       `json:"attempts"`
	PatternShown        []int     `json:"patternShown"`
	PatternSelected     []int     `json:"patternSelected"`
	ResponseTimesMillis []int64   `json:"responseTimes"`
	AverageResponseTime float64   `json:"averageResponseTime"`
	LevelDifficulty     int       `json:"levelDifficulty"`
	CellsToRemember     int       `json:"cellsToRemember"`
	GridSize            int       `json:"gridSize"`
	Timestamp           time.Time `json:"timestamp"`
}

// Round is one play of the grid for a level. It is not safe for concurrent use.
type Round struct {
	levelID       string
	difficulty    int
	settings      Settings
	pattern       []int
	selected      []int
	inputAt       time.Time
	responseTimes []time.Duration
}

// NewRound draws a fresh pattern for the level and starts the display phase at now.
func NewRound(levelID string, rnd *rand.Rand, now time.Time) *Round {
	difficulty := DifficultyFromLevelID(levelID)
	settings := SettingsFor(difficulty)
	total := settings.Size * settings.Size
	pattern := rnd.Perm(total)[:settings.CellsToRemember]
	return &Round{
		levelID:    levelID,
		difficulty: difficulty,
		settings:   settings,
		pattern:    pattern,
		selected:   []int{},
		inputAt:    now.Add(settings.DisplayTime),
	}
}

// Settings returns the grid settings of the round.
func (r *Round) Settings() Settings { return r.settings }

// Pattern returns a copy of the cells to remember.
func (r *Round) Pattern() []int {
	return append([]int(nil), r.pattern...)
}

// Phase reports whether the pattern is still shown at now.
func (r *Round) Phase(now time.Time) Phase {
	if now.Before(r.inputAt) {
		return PhaseDisplay
	}
	return PhaseInput
}

// Toggle selects or deselects a cell. Selections beyond the pattern size are ignored.
func (r *Round) Toggle(cell int, now time.Time) error {
	if cell < 0 || cell >= r.settings.Size*r.settings.Size {
		return ErrCellOutOfRange
	}
	if r.Phase(now) == PhaseDisplay {
		return ErrPatternShowing
	}
	r.responseTimes = append(r.responseTimes, now.Sub(r.inputAt))

	for i, c := range r.selected {
		if c == cell {
			r.selected = append(r.selected[:i], r.selected[i+1:]...)
			return nil
		}
	}
	if len(r.selected) >= r.settings.CellsToRemember {
		return nil
	}
	r.selected = append(r.selected, cell)
	return nil
}

// Full reports whether as many cells are selected as the pattern holds.
func (r *Round) Full() bool {
	return len(r.selected) == r.settings.CellsToRemember
}

// Evaluate scores the selection at now.
func (r *Round) Evaluate(now time.Time) Result {
	shown := make(map[int]struct{}, len(r.pattern))
	for _, c := range r.pattern {
		shown[c] = struct{}{}
	}
	correct := 0
	for _, c := range r.selected {
		if _, ok := shown[c]; ok {
			correct++
		}
	}

	times := make([]int64, len(r.responseTimes))
	var sum int64
	for i, d := range r.responseTimes {
		times[i] = d.Milliseconds()
		sum += times[i]
	}
	var avg float64
	if len(times) > 0 {
		avg = float64(sum) / float64(len(times))
	}

	return Result{
		LevelID:             r.levelID,
		Score:               int(math.Round(float64(correct) / float64(r.settings.CellsToRemember) * 100)),
		Success:             correct == len(r.pattern) && len(r.selected) == len(r.pattern),
		DurationMillis:      now.Sub(r.inputAt).Milliseconds(),
		Attempts:            1,
		PatternShown:        r.Pattern(),
		PatternSelected:     append([]int(nil), r.selected...),
		ResponseTimesMillis: times,
		AverageResponseTime: avg,
		LevelDifficulty:     r.difficulty,
		CellsToRemember:     r.settings.CellsToRemember,
		GridSize:            r.settings.Size,
		Timestamp:           now.UTC(),
	}
}

// View renders the round for a client. The pattern is only included while on display.
func (r *Round) View(now time.Time) domain.GridView {
	phase := r.Phase(now)
	view := domain.GridView{
		Size:            r.settings.Size,
		CellsToRemember: r.settings.CellsToRemember,
		Phase:           string(phase),
		Selected:        append([]int{}, r.selected...),
		DisplayMillis:   r.settings.DisplayTime.Milliseconds(),
	}
	if phase == PhaseDisplay {
		view.Pattern = r.Pattern()
	}
	return view
}
