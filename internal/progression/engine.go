package progression

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/superdayz/studio-api/internal/models"
)

// Engine owns XP accrual, level-ups and achievement unlocks. It mutates the
// user purely in memory and never fails; persisting the result is the
// caller's job.
type Engine struct {
	catalog []Achievement
}

func NewEngine() *Engine {
	return &Engine{catalog: Catalog()}
}

// XPForNextLevel is the XP threshold to leave the given level.
func XPForNextLevel(level int) int {
	return level * 100
}

// GrantXP adds XP to the user, resolves any level-ups (each one grants
// newLevel*5 credits), then re-evaluates the achievement catalog against the
// updated user and history. Achievement XP bonuses are fed back into the
// level loop until a fixed point: the catalog is finite and unlocks are
// append-only, so the loop terminates.
//
// The returned notifications put achievements ahead of level-ups so the two
// never race for the user's attention in the wrong order.
func (e *Engine) GrantXP(u *models.User, history []models.HistoryItem, amount int) []models.Notification {
	if amount < 0 {
		amount = 0
	}

	u.XP += amount
	levelUps := e.resolveLevels(u)

	var unlocked []models.Notification
	for {
		bonus := 0
		for _, a := range e.catalog {
			if u.HasAchievement(a.ID) {
				continue
			}
			if !a.Unlocked(u, history) {
				continue
			}
			u.Achievements = append(u.Achievements, a.ID)
			bonus += a.BonusXP
			unlocked = append(unlocked, newNotification(u.Email, models.NotificationAchievement,
				fmt.Sprintf("Achievement unlocked: %s (+%d XP)", a.Title, a.BonusXP)))
		}
		if bonus == 0 {
			break
		}
		u.XP += bonus
		levelUps = append(levelUps, e.resolveLevels(u)...)
	}

	return append(unlocked, levelUps...)
}

func (e *Engine) resolveLevels(u *models.User) []models.Notification {
	var notes []models.Notification
	for u.XP >= XPForNextLevel(u.Level) {
		u.XP -= XPForNextLevel(u.Level)
		u.Level++
		u.Credits += u.Level * 5
		notes = append(notes, newNotification(u.Email, models.NotificationLevelUp,
			fmt.Sprintf("Level up! You reached level %d and earned %d credits", u.Level, u.Level*5)))
	}
	return notes
}

func newNotification(email string, kind models.NotificationKind, message string) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		UserEmail: email,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
