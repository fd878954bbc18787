package service

import (
	"context"
	"time"

	"github.com/superdayz/studio-api/internal/gemini"
	"github.com/superdayz/studio-api/internal/models"
)

// Store interfaces are satisfied by the repository types. Services accept
// them instead of concrete repositories so tests can run against fakes.

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, email, name, avatarURL string) error
	SetProgression(ctx context.Context, email string, level, xp int, achievements []string) error
	ConsumeCredits(ctx context.Context, email string, amount int) (bool, error)
	AddCredits(ctx context.Context, email string, delta int) error
	GrantDailyFloor(ctx context.Context, email string, floor int) error
	SetLastLogin(ctx context.Context, email string, at time.Time) error
	UpdateSubscription(ctx context.Context, email string, plan models.PlanType, monthlyCredits int, nextBillingAt *time.Time) error
	Delete(ctx context.Context, email string) error
}

type historyStore interface {
	Insert(ctx context.Context, item *models.HistoryItem) error
	ListByEmail(ctx context.Context, email string, limit int) ([]models.HistoryItem, error)
	GetByID(ctx context.Context, id string) (*models.HistoryItem, error)
	UpdateTags(ctx context.Context, id string, tags []string) error
	AssignFolder(ctx context.Context, id, folderID string) error
	TrimToCap(ctx context.Context, email string, cap int) error
	DeleteByID(ctx context.Context, id string) error
}

type todoStore interface {
	Insert(ctx context.Context, item *models.ToDoItem) error
	GetByID(ctx context.Context, id string) (*models.ToDoItem, error)
	ListByEmail(ctx context.Context, email string) ([]models.ToDoItem, error)
	DueCandidates(ctx context.Context) ([]models.ToDoItem, error)
	Update(ctx context.Context, id, title string, dueDate time.Time, reminder models.ReminderSetting) error
	SetCompleted(ctx context.Context, id string, completed, xpGranted bool) error
	Delete(ctx context.Context, id string) error
}

type billingStore interface {
	AppendEntry(ctx context.Context, entry *models.BillingEntry) error
	ListEntries(ctx context.Context, email string) ([]models.BillingEntry, error)
	AddPaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	ListPaymentMethods(ctx context.Context, email string) ([]models.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, email string, id int64) error
}

type notificationStore interface {
	Append(ctx context.Context, n *models.Notification) error
	ListUnseen(ctx context.Context, email string) ([]models.Notification, error)
	MarkSeen(ctx context.Context, email string, ids []string) error
}

type sliceStore interface {
	Save(ctx context.Context, email, slice string, value any) error
	Load(ctx context.Context, email, slice string, dest any) (bool, error)
	Delete(ctx context.Context, email, slice string) error
}

type markerStore interface {
	MarkDailyGrant(ctx context.Context, email, day string) (bool, error)
	WasReminderShown(ctx context.Context, email, todoID string) (bool, error)
	MarkReminderShown(ctx context.Context, email, todoID string) error
	ClearUser(ctx context.Context, email string) error
}

type generator interface {
	GenerateImage(ctx context.Context, prompt string, refs []gemini.ImageRef) (*gemini.Media, error)
	GenerateVideo(ctx context.Context, prompt string) (*gemini.Media, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
	StreamText(ctx context.Context, prompt string, onChunk func(string)) error
	SuggestTags(ctx context.Context, description string) ([]string, error)
}

type mediaStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}
