package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/superdayz/studio-api/internal/gemini"
	"github.com/superdayz/studio-api/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		cp := *u
		s.users[u.Email] = &cp
	}
	return s
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.Achievements = append([]string(nil), u.Achievements...)
	return &cp, nil
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.Email] = &cp
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, email, name, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Name = name
		u.AvatarURL = avatarURL
	}
	return nil
}

func (s *fakeUserStore) SetProgression(_ context.Context, email string, level, xp int, achievements []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Level = level
		u.XP = xp
		u.Achievements = append([]string(nil), achievements...)
	}
	return nil
}

func (s *fakeUserStore) ConsumeCredits(_ context.Context, email string, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok || u.Credits < amount {
		return false, nil
	}
	u.Credits -= amount
	return true, nil
}

func (s *fakeUserStore) AddCredits(_ context.Context, email string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Credits += delta
		if u.Credits < 0 {
			u.Credits = 0
		}
	}
	return nil
}

func (s *fakeUserStore) GrantDailyFloor(_ context.Context, email string, floor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok && u.Credits < floor {
		u.Credits = floor
	}
	return nil
}

func (s *fakeUserStore) SetLastLogin(_ context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		t := at
		u.LastLoginAt = &t
	}
	return nil
}

func (s *fakeUserStore) UpdateSubscription(_ context.Context, email string, plan models.PlanType, monthlyCredits int, nextBillingAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Plan = plan
		u.MonthlyCredits = monthlyCredits
		u.NextBillingAt = nextBillingAt
	}
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
	return nil
}

func (s *fakeUserStore) get(email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[email]
}

type fakeHistoryStore struct {
	mu    sync.Mutex
	items []models.HistoryItem
}

func (s *fakeHistoryStore) Insert(_ context.Context, item *models.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *item)
	return nil
}

func (s *fakeHistoryStore) ListByEmail(_ context.Context, email string, limit int) ([]models.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HistoryItem
	for i := len(s.items) - 1; i >= 0 && len(out) < limit; i-- {
		if s.items[i].UserEmail == email {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}

func (s *fakeHistoryStore) GetByID(_ context.Context, id string) (*models.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			cp := s.items[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeHistoryStore) UpdateTags(_ context.Context, id string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Tags = append([]string(nil), tags...)
		}
	}
	return nil
}

func (s *fakeHistoryStore) AssignFolder(_ context.Context, id, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].FolderID = folderID
			return nil
		}
	}
	return errors.New("history item not found")
}

func (s *fakeHistoryStore) TrimToCap(_ context.Context, email string, cap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.HistoryItem
	count := 0
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].UserEmail == email {
			count++
			if count > cap {
				continue
			}
		}
		kept = append(kept, s.items[i])
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].CreatedAt.Before(kept[j].CreatedAt) })
	s.items = kept
	return nil
}

func (s *fakeHistoryStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeTodoStore struct {
	mu    sync.Mutex
	items []models.ToDoItem
}

func (s *fakeTodoStore) Insert(_ context.Context, item *models.ToDoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *item)
	return nil
}

func (s *fakeTodoStore) GetByID(_ context.Context, id string) (*models.ToDoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			cp := s.items[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeTodoStore) ListByEmail(_ context.Context, email string) ([]models.ToDoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ToDoItem
	for _, item := range s.items {
		if item.UserEmail == email {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeTodoStore) DueCandidates(_ context.Context) ([]models.ToDoItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ToDoItem
	for _, item := range s.items {
		if !item.Completed && item.Reminder != models.ReminderNone {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UserEmail < out[j].UserEmail })
	return out, nil
}

func (s *fakeTodoStore) Update(_ context.Context, id, title string, dueDate time.Time, reminder models.ReminderSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Title = title
			s.items[i].DueDate = dueDate
			s.items[i].Reminder = reminder
		}
	}
	return nil
}

func (s *fakeTodoStore) SetCompleted(_ context.Context, id string, completed, xpGranted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Completed = completed
			s.items[i].XPGranted = s.items[i].XPGranted || xpGranted
		}
	}
	return nil
}

func (s *fakeTodoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeBillingStore struct {
	mu      sync.Mutex
	entries []models.BillingEntry
	methods []models.PaymentMethod
	nextID  int64
}

func (s *fakeBillingStore) AppendEntry(_ context.Context, entry *models.BillingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeBillingStore) ListEntries(_ context.Context, email string) ([]models.BillingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BillingEntry
	for _, e := range s.entries {
		if e.UserEmail == email {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeBillingStore) AddPaymentMethod(_ context.Context, method *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	method.ID = s.nextID
	s.methods = append(s.methods, *method)
	return nil
}

func (s *fakeBillingStore) ListPaymentMethods(_ context.Context, email string) ([]models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentMethod
	for _, m := range s.methods {
		if m.UserEmail == email {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeBillingStore) DeletePaymentMethod(_ context.Context, email string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.methods {
		if m.UserEmail == email && m.ID == id {
			s.methods = append(s.methods[:i], s.methods[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeNotificationStore struct {
	mu    sync.Mutex
	notes []models.Notification
}

func (s *fakeNotificationStore) Append(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, *n)
	return nil
}

func (s *fakeNotificationStore) ListUnseen(_ context.Context, email string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notes {
		if n.UserEmail == email && !n.Seen {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkSeen(_ context.Context, email string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].UserEmail != email {
			continue
		}
		for _, id := range ids {
			if s.notes[i].ID == id {
				s.notes[i].Seen = true
			}
		}
	}
	return nil
}

func (s *fakeNotificationStore) all() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notes...)
}

type fakeSliceStore struct {
	mu   sync.Mutex
	data map[string]any
}

func newFakeSliceStore() *fakeSliceStore {
	return &fakeSliceStore{data: make(map[string]any)}
}

func (s *fakeSliceStore) Save(_ context.Context, email, slice string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[email+"/"+slice] = value
	return nil
}

func (s *fakeSliceStore) Load(_ context.Context, email, slice string, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[email+"/"+slice]
	if !ok {
		return false, nil
	}
	if kit, ok := value.(*models.BrandKit); ok {
		if target, ok := dest.(*models.BrandKit); ok {
			*target = *kit
			return true, nil
		}
	}
	return true, nil
}

func (s *fakeSliceStore) Delete(_ context.Context, email, slice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, email+"/"+slice)
	return nil
}

type fakeMarkerStore struct {
	mu     sync.Mutex
	grants map[string]bool
	shown  map[string]bool
}

func newFakeMarkerStore() *fakeMarkerStore {
	return &fakeMarkerStore{grants: make(map[string]bool), shown: make(map[string]bool)}
}

func (s *fakeMarkerStore) MarkDailyGrant(_ context.Context, email, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := email + "/" + day
	if s.grants[key] {
		return false, nil
	}
	s.grants[key] = true
	return true, nil
}

func (s *fakeMarkerStore) WasReminderShown(_ context.Context, email, todoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown[email+"/"+todoID], nil
}

func (s *fakeMarkerStore) MarkReminderShown(_ context.Context, email, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown[email+"/"+todoID] = true
	return nil
}

func (s *fakeMarkerStore) ClearUser(_ context.Context, email string) error {
	return nil
}

type fakeGenerator struct {
	mu        sync.Mutex
	imageErr  error
	videoErr  error
	tags      []string
	tagsErr   error
	imageData []byte
	imageMIME string
	videoHold chan struct{}
	calls     []string
}

func (g *fakeGenerator) record(name string) {
	g.mu.Lock()
	g.calls = append(g.calls, name)
	g.mu.Unlock()
}

func (g *fakeGenerator) GenerateImage(_ context.Context, _ string, _ []gemini.ImageRef) (*gemini.Media, error) {
	g.record("image")
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	mime := g.imageMIME
	if mime == "" {
		mime = "image/png"
	}
	data := g.imageData
	if data == nil {
		data = []byte("raw-image")
	}
	return &gemini.Media{Data: data, MIME: mime}, nil
}

func (g *fakeGenerator) GenerateVideo(_ context.Context, _ string) (*gemini.Media, error) {
	g.record("video")
	if g.videoHold != nil {
		g.videoHold <- struct{}{}
		<-g.videoHold
	}
	if g.videoErr != nil {
		return nil, g.videoErr
	}
	return &gemini.Media{Data: []byte("raw-video"), MIME: "video/mp4"}, nil
}

func (g *fakeGenerator) GenerateJSON(_ context.Context, _ string) (string, error) {
	g.record("json")
	return `{"title":"Campaign"}`, nil
}

func (g *fakeGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	g.record("text")
	return "Buy now.", nil
}

func (g *fakeGenerator) StreamText(_ context.Context, _ string, onChunk func(string)) error {
	g.record("stream")
	onChunk("Hello ")
	onChunk("there")
	return nil
}

func (g *fakeGenerator) SuggestTags(_ context.Context, _ string) ([]string, error) {
	g.record("tags")
	return g.tags, g.tagsErr
}

type fakeMediaStore struct {
	mu       sync.Mutex
	uploaded [][]byte
}

func (m *fakeMediaStore) Upload(_ context.Context, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded = append(m.uploaded, data)
	return "https://cdn.example.com/media/" + time.Now().Format("150405.000000000"), nil
}
