package progression

import "github.com/superdayz/studio-api/internal/models"

// Achievement is a one-time-unlockable milestone. The predicate runs against
// the current user and history after every history-mutating action.
type Achievement struct {
	ID       string
	Title    string
	BonusXP  int
	Unlocked func(u *models.User, history []models.HistoryItem) bool
}

// Catalog is the static achievement set. IDs are stable: they are persisted
// on the user record and must never change meaning.
func Catalog() []Achievement {
	return []Achievement{
		{
			ID:      "first_step",
			Title:   "First Step",
			BonusXP: 25,
			Unlocked: func(_ *models.User, history []models.HistoryItem) bool {
				return len(history) >= 1
			},
		},
		{
			ID:      "creative_spark",
			Title:   "Creative Spark",
			BonusXP: 50,
			Unlocked: func(_ *models.User, history []models.HistoryItem) bool {
				return len(history) >= 10
			},
		},
		{
			ID:      "content_machine",
			Title:   "Content Machine",
			BonusXP: 150,
			Unlocked: func(_ *models.User, history []models.HistoryItem) bool {
				return len(history) >= 25
			},
		},
		{
			ID:      "video_pioneer",
			Title:   "Video Pioneer",
			BonusXP: 50,
			Unlocked: func(_ *models.User, history []models.HistoryItem) bool {
				return countTool(history, models.ToolVideo) >= 1
			},
		},
		{
			ID:      "logo_smith",
			Title:   "Logo Smith",
			BonusXP: 30,
			Unlocked: func(_ *models.User, history []models.HistoryItem) bool {
				return countTool(history, models.ToolLogo) >= 1
			},
		},
		{
			ID:      "idea_factory",
			Title:   "Idea Factory",
			BonusXP: 40,
			Unlocked: func(_ *models.User, history []models.HistoryItem) bool {
				return countTool(history, models.ToolIdea) >= 5
			},
		},
		{
			ID:      "rising_star",
			Title:   "Rising Star",
			BonusXP: 100,
			Unlocked: func(u *models.User, _ []models.HistoryItem) bool {
				return u.Level >= 5
			},
		},
	}
}

func countTool(history []models.HistoryItem, tool models.ToolType) int {
	count := 0
	for _, item := range history {
		if item.Tool == tool {
			count++
		}
	}
	return count
}
