package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/models"
	"github.com/superdayz/studio-api/internal/service"
)

// memUsers is the minimal user store the account endpoints need.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.Email] = &cp
	return nil
}

func (s *memUsers) UpdateProfile(_ context.Context, email, name, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Name = name
		u.AvatarURL = avatarURL
	}
	return nil
}

func (s *memUsers) SetProgression(_ context.Context, email string, level, xp int, achievements []string) error {
	return nil
}

func (s *memUsers) ConsumeCredits(_ context.Context, email string, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok || u.Credits < amount {
		return false, nil
	}
	u.Credits -= amount
	return true, nil
}

func (s *memUsers) AddCredits(_ context.Context, email string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Credits += delta
	}
	return nil
}

func (s *memUsers) GrantDailyFloor(_ context.Context, email string, floor int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok && u.Credits < floor {
		u.Credits = floor
	}
	return nil
}

func (s *memUsers) SetLastLogin(_ context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		t := at
		u.LastLoginAt = &t
	}
	return nil
}

func (s *memUsers) UpdateSubscription(_ context.Context, email string, plan models.PlanType, monthlyCredits int, nextBillingAt *time.Time) error {
	return nil
}

func (s *memUsers) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, email)
	return nil
}

type memBilling struct{}

func (memBilling) AppendEntry(context.Context, *models.BillingEntry) error { return nil }
func (memBilling) ListEntries(context.Context, string) ([]models.BillingEntry, error) {
	return nil, nil
}
func (memBilling) AddPaymentMethod(context.Context, *models.PaymentMethod) error { return nil }
func (memBilling) ListPaymentMethods(context.Context, string) ([]models.PaymentMethod, error) {
	return nil, nil
}
func (memBilling) DeletePaymentMethod(context.Context, string, int64) error { return nil }

type memNotes struct{}

func (memNotes) Append(context.Context, *models.Notification) error { return nil }
func (memNotes) ListUnseen(context.Context, string) ([]models.Notification, error) {
	return []models.Notification{}, nil
}
func (memNotes) MarkSeen(context.Context, string, []string) error { return nil }

type memMarks struct{}

func (memMarks) MarkDailyGrant(context.Context, string, string) (bool, error) { return true, nil }
func (memMarks) WasReminderShown(context.Context, string, string) (bool, error) {
	return false, nil
}
func (memMarks) MarkReminderShown(context.Context, string, string) error { return nil }
func (memMarks) ClearUser(context.Context, string) error                 { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		SignupCredits:    5,
		FreeDailyCredits: 5,
		BillingCurrency:  "USD",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := &memUsers{users: make(map[string]*models.User)}

	locks := service.NewLocks()
	prog := service.NewProgressionService(log, users, memNotes{})
	ledger := service.NewLedgerService(cfg, log, users, memBilling{}, prog, locks, memMarks{})
	userSvc := service.NewUserService(cfg, log, users, ledger, memMarks{})
	notifSvc := service.NewNotificationService(log, memNotes{})

	srv := NewServer(cfg, log, userSvc, nil, ledger, nil, nil, notifSvc)
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"name":     "Ada",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var reg struct {
		Token string `json:"token"`
		User  struct {
			Email   string `json:"email"`
			Credits int    `json:"credits"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	resp.Body.Close()
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, 5, reg.User.Credits)

	resp = postJSON(t, ts.URL+"/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/profile/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	profileResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer profileResp.Body.Close()
	assert.Equal(t, http.StatusOK, profileResp.StatusCode)
}

func TestAuthRejections(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/profile/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/profile/", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong password maps to 401", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/auth/register", "", map[string]string{
			"email": "bob@example.com", "password": "password123",
		})
		resp.Body.Close()

		resp = postJSON(t, ts.URL+"/auth/login", "", map[string]string{
			"email": "bob@example.com", "password": "nope-nope-nope",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/auth/register", "", map[string]string{
			"email": "bob@example.com", "password": "password123",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
