package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdayz/studio-api/internal/models"
)

func newTestUser() *models.User {
	return &models.User{
		Email:        "user@example.com",
		Level:        1,
		XP:           0,
		Credits:      5,
		Achievements: []string{},
	}
}

func TestXPForNextLevel(t *testing.T) {
	assert.Equal(t, 100, XPForNextLevel(1))
	assert.Equal(t, 400, XPForNextLevel(4))
	assert.Equal(t, 1000, XPForNextLevel(10))
}

func TestGrantXPNoLevelUp(t *testing.T) {
	e := NewEngine()
	u := newTestUser()

	notes := e.GrantXP(u, nil, 40)

	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 40, u.XP)
	assert.Equal(t, 5, u.Credits)
	assert.Empty(t, notes)
}

func TestGrantXPLevelUpCarriesRemainder(t *testing.T) {
	e := NewEngine()
	u := newTestUser()
	u.XP = 95

	notes := e.GrantXP(u, nil, 10)

	assert.Equal(t, 2, u.Level)
	assert.Equal(t, 5, u.XP)
	// level 2 grants 2*5 credits
	assert.Equal(t, 15, u.Credits)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationLevelUp, notes[0].Kind)
}

func TestGrantXPMultipleLevelsInOneGrant(t *testing.T) {
	e := NewEngine()
	u := newTestUser()

	// 100 leaves level 1, 200 leaves level 2; 320 total lands at level 3 with 20 XP
	notes := e.GrantXP(u, nil, 320)

	assert.Equal(t, 3, u.Level)
	assert.Equal(t, 20, u.XP)
	assert.Equal(t, 5+10+15, u.Credits)
	assert.Len(t, notes, 2)
}

func TestGrantXPNegativeAmountIgnored(t *testing.T) {
	e := NewEngine()
	u := newTestUser()
	u.XP = 50

	notes := e.GrantXP(u, nil, -30)

	assert.Equal(t, 50, u.XP)
	assert.Empty(t, notes)
}

func TestGrantXPUnlocksFirstStep(t *testing.T) {
	e := NewEngine()
	u := newTestUser()
	history := []models.HistoryItem{{Tool: models.ToolImage}}

	notes := e.GrantXP(u, history, 5)

	assert.True(t, u.HasAchievement("first_step"))
	// 5 granted + 25 bonus
	assert.Equal(t, 30, u.XP)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationAchievement, notes[0].Kind)
}

func TestGrantXPAchievementNotUnlockedTwice(t *testing.T) {
	e := NewEngine()
	u := newTestUser()
	u.Achievements = []string{"first_step"}
	history := []models.HistoryItem{{Tool: models.ToolImage}}

	notes := e.GrantXP(u, history, 5)

	assert.Equal(t, 5, u.XP)
	assert.Empty(t, notes)
	assert.Equal(t, []string{"first_step"}, u.Achievements)
}

func TestGrantXPBonusCascadesIntoLevelAndFurtherUnlocks(t *testing.T) {
	e := NewEngine()
	u := newTestUser()
	u.Level = 4
	u.XP = 395
	history := []models.HistoryItem{{Tool: models.ToolVideo}}

	// 5 XP tips level 4's 400 threshold to land on level 5, so first_step,
	// video_pioneer and rising_star all unlock and their bonuses feed back
	// into the level loop.
	notes := e.GrantXP(u, history, 5)

	assert.True(t, u.HasAchievement("first_step"))
	assert.True(t, u.HasAchievement("video_pioneer"))
	assert.True(t, u.HasAchievement("rising_star"))
	assert.GreaterOrEqual(t, u.Level, 5)

	var kinds []models.NotificationKind
	for _, n := range notes {
		kinds = append(kinds, n.Kind)
	}
	// achievements are reported before level-ups
	assert.Equal(t, models.NotificationAchievement, kinds[0])
	assert.Contains(t, kinds, models.NotificationLevelUp)
}

func TestGrantXPHistoryCountAchievements(t *testing.T) {
	e := NewEngine()
	u := newTestUser()
	history := make([]models.HistoryItem, 10)
	for i := range history {
		history[i] = models.HistoryItem{Tool: models.ToolImage}
	}

	e.GrantXP(u, history, 0)

	assert.True(t, u.HasAchievement("first_step"))
	assert.True(t, u.HasAchievement("creative_spark"))
	assert.False(t, u.HasAchievement("content_machine"))
}
