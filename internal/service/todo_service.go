package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/models"
)

type TodoService struct {
	cfg     config.Config
	log     *slog.Logger
	todos   todoStore
	users   userStore
	history historyStore
	prog    *ProgressionService
	locks   *Locks
}

func NewTodoService(cfg config.Config, log *slog.Logger, todos todoStore, users userStore, history historyStore, prog *ProgressionService, locks *Locks) *TodoService {
	return &TodoService{
		cfg:     cfg,
		log:     log,
		todos:   todos,
		users:   users,
		history: history,
		prog:    prog,
		locks:   locks,
	}
}

func (s *TodoService) Create(ctx context.Context, email, title string, dueDate time.Time, reminder models.ReminderSetting) (*models.ToDoItem, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if reminder == "" {
		reminder = models.ReminderNone
	}
	item := &models.ToDoItem{
		ID:        uuid.NewString(),
		UserEmail: email,
		Title:     title,
		DueDate:   dueDate,
		Reminder:  reminder,
	}
	if err := s.todos.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *TodoService) List(ctx context.Context, email string) ([]models.ToDoItem, error) {
	return s.todos.ListByEmail(ctx, email)
}

func (s *TodoService) Update(ctx context.Context, email, id, title string, dueDate time.Time, reminder models.ReminderSetting) (*models.ToDoItem, error) {
	if _, err := s.owned(ctx, email, id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if err := s.todos.Update(ctx, id, title, dueDate, reminder); err != nil {
		return nil, err
	}
	return s.todos.GetByID(ctx, id)
}

// SetCompleted toggles completion. The first completion ever grants the
// completion XP; toggling afterwards never grants again and never claws XP
// back.
func (s *TodoService) SetCompleted(ctx context.Context, email, id string, completed bool) (*models.ToDoItem, error) {
	item, err := s.owned(ctx, email, id)
	if err != nil {
		return nil, err
	}

	grantXP := completed && !item.XPGranted
	if err := s.todos.SetCompleted(ctx, id, completed, grantXP); err != nil {
		return nil, err
	}

	if grantXP {
		unlock := s.locks.Lock(email)
		user, err := s.users.FindByEmail(ctx, email)
		if err == nil && user != nil {
			hist, histErr := s.history.ListByEmail(ctx, email, s.cfg.HistoryCap)
			if histErr != nil {
				s.log.Warn("history load for todo grant failed", "user", email, "err", histErr)
			}
			if err := s.prog.Grant(ctx, user, hist, s.cfg.TodoCompletionXP, "todo"); err != nil {
				s.log.Error("todo completion grant failed", "user", email, "err", err)
			}
		}
		unlock()
	}

	return s.todos.GetByID(ctx, id)
}

func (s *TodoService) Delete(ctx context.Context, email, id string) error {
	if _, err := s.owned(ctx, email, id); err != nil {
		return err
	}
	return s.todos.Delete(ctx, id)
}

func (s *TodoService) owned(ctx context.Context, email, id string) (*models.ToDoItem, error) {
	item, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserEmail != email {
		return nil, ErrNotFound
	}
	return item, nil
}
