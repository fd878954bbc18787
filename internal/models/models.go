package models

import "time"

type ToolType string

const (
	ToolPhotoshoot ToolType = "photoshoot"
	ToolMockup     ToolType = "mockup"
	ToolImage      ToolType = "image"
	ToolPose       ToolType = "pose"
	ToolGroup      ToolType = "group"
	ToolLogo       ToolType = "logo"
	ToolVideo      ToolType = "video"
	ToolEdit       ToolType = "edit"
	ToolIdea       ToolType = "idea"
	ToolCopy       ToolType = "copy"
	ToolStrategy   ToolType = "strategy"
	ToolTrend      ToolType = "trend"
	ToolSimulation ToolType = "predictiveSimulation"
)

type PlanType string

const (
	PlanFreemium PlanType = "freemium"
	PlanPro      PlanType = "pro"
)

type User struct {
	Email          string
	Name           string
	Role           string
	PasswordHash   string
	AvatarURL      string
	Level          int
	XP             int
	Credits        int
	Achievements   []string
	Plan           PlanType
	MonthlyCredits int
	NextBillingAt  *time.Time
	LastLoginAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasAchievement reports whether the given achievement id is already unlocked.
func (u *User) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

type HistoryItem struct {
	ID        string
	UserEmail string
	Tool      ToolType
	Prompt    string
	MediaURL  string
	Payload   string
	Tags      []string
	FolderID  string
	CreatedAt time.Time
}

type ReminderSetting string

const (
	ReminderNone      ReminderSetting = "none"
	ReminderSameDay   ReminderSetting = "same-day"
	ReminderOneDay    ReminderSetting = "1-day-before"
	ReminderThreeDays ReminderSetting = "3-days-before"
)

// OffsetDays returns how many days before the due date the reminder fires.
// Unknown settings behave like ReminderNone.
func (r ReminderSetting) OffsetDays() (int, bool) {
	switch r {
	case ReminderSameDay:
		return 0, true
	case ReminderOneDay:
		return 1, true
	case ReminderThreeDays:
		return 3, true
	default:
		return 0, false
	}
}

type ToDoItem struct {
	ID        string
	UserEmail string
	Title     string
	DueDate   time.Time
	Reminder  ReminderSetting
	Completed bool
	XPGranted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BillingEntry struct {
	ID          int64
	UserEmail   string
	Description string
	AmountCents int
	Currency    string
	CreatedAt   time.Time
}

type PaymentMethod struct {
	ID        int64
	UserEmail string
	Brand     string
	Last4     string
	ExpMonth  int
	ExpYear   int
	CreatedAt time.Time
}

type NotificationKind string

const (
	NotificationLevelUp     NotificationKind = "level_up"
	NotificationAchievement NotificationKind = "achievement"
	NotificationReminder    NotificationKind = "reminder"
	NotificationWarning     NotificationKind = "warning"
)

type Notification struct {
	ID        string
	UserEmail string
	Kind      NotificationKind
	Message   string
	Seen      bool
	CreatedAt time.Time
}

// Slice names used by the per-user key-value store. Each slice is persisted
// under its own record so a write to one slice never clobbers another.
const (
	SliceBrandKit  = "brand_kit"
	SliceModels    = "uploaded_models"
	SliceFolders   = "folders"
	SliceCampaigns = "campaigns"
)

type BrandKit struct {
	LogoURL string   `json:"logo_url"`
	Colors  []string `json:"colors"`
	Font    string   `json:"font"`
}

type UploadedModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal"`
	CreatedAt time.Time `json:"created_at"`
}
