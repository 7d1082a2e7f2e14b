package memory

import "mindgate-service/internal/domain"

// DefaultCatalog is the built-in demo catalog used when no file or database is configured.
func DefaultCatalog() domain.Catalog {
	return domain.Catalog{Games: []domain.Game{
		{
			ID:          "game-1",
			Name:        "Memory Grid",
			Icon:        "brain",
			Kind:        domain.GameKindMemoryGrid,
			Description: "Test and improve your memory by recreating highlighted patterns",
			Rules: []string{
				"Watch the highlighted cells",
				"Wait for the pattern to disappear",
				"Select the same cells from memory",
				"The level is submitted once every cell is chosen",
			},
			Levels: []domain.Level{
				{ID: "g7-l1", Title: "Level 1: Basic Pattern", Content: "Memorize the pattern of 3 highlighted cells in a 4x4 grid, then recreate it by clicking on the same cells."},
				{ID: "g7-l2", Title: "Level 2: Intermediate Pattern", Content: "Memorize the pattern of 4 highlighted cells in a 5x5 grid. The cells will be shown for less time than in Level 1."},
				{ID: "g7-l3", Title: "Level 3: Advanced Pattern", Content: "Memorize the pattern of 5 highlighted cells in a 6x6 grid. The cells will be shown for an even shorter time."},
				{ID: "g7-l4", Title: "Level 4: Expert Pattern", Content: "Memorize the pattern of 7 highlighted cells in a 6x6 grid with minimal display time. Good luck!"},
			},
		},
		{
			ID:          "game-2",
			Name:        "Sequence Order",
			Icon:        "puzzle",
			Description: "Remember and repeat sequences in the correct order",
			Rules: []string{
				"Watch the sequence carefully",
				"Repeat the sequence in the same order",
				"Each level adds more complexity",
				"Complete within the given attempts",
			},
			Levels: []domain.Level{
				{ID: "g2-l1", Title: "Level 1", Content: "Repeat the sequence."},
				{ID: "g2-l2", Title: "Level 2", Content: "Longer sequence!"},
				{ID: "g2-l3", Title: "Level 3", Content: "Reverse sequence."},
			},
		},
		{
			ID:          "game-3",
			Name:        "Word Find",
			Icon:        "search",
			Description: "Find hidden words in a grid of letters",
			Rules: []string{
				"Click and drag to select letters",
				"Words can be horizontal, vertical, or diagonal",
				"Find all words to complete the level",
				"Watch out for time limits",
			},
			Levels: []domain.Level{
				{ID: "g3-l1", Title: "Level 1", Content: "Find the hidden words."},
				{ID: "g3-l2", Title: "Level 2", Content: "More words, harder grid."},
				{ID: "g3-l3", Title: "Level 3", Content: "Themed words."},
			},
		},
		{
			ID:          "game-4",
			Name:        "Quick Math",
			Icon:        "calculator",
			Description: "Solve mathematical problems quickly and accurately",
			Rules: []string{
				"Solve equations within time limit",
				"Type your answer using number keys",
				"Press Enter to submit",
				"Accuracy matters more than speed",
			},
			Levels: []domain.Level{
				{ID: "g4-l1", Title: "Level 1", Content: "Solve basic addition."},
				{ID: "g4-l2", Title: "Level 2", Content: "Addition and subtraction."},
				{ID: "g4-l3", Title: "Level 3", Content: "Mixed operations."},
			},
		},
	}}
}
