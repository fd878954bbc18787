package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/gemini"
	"github.com/superdayz/studio-api/internal/models"
	"github.com/superdayz/studio-api/internal/watermark"
)

// GenerationService is the only component that talks to the generation
// collaborator. Every creative tool runs the same guard sequence before the
// external call: collaborator availability, type-specific inputs, credit
// balance. Nothing is mutated until the call has confirmed success, and the
// credit deduction is strictly the last step.
type GenerationService struct {
	cfg      config.Config
	log      *slog.Logger
	users    userStore
	history  historyStore
	slices   sliceStore
	ledger   *LedgerService
	gen      generator
	media    mediaStore
	locks    *Locks
	inflight *inflight
	tagDone  chan TagResult
}

// TagResult reports the outcome of one best-effort auto-tagging run.
type TagResult struct {
	ItemID string
	Tags   []string
	Err    error
}

// ToolRequest carries the user-supplied inputs for one creative action.
type ToolRequest struct {
	Tool        models.ToolType
	Prompt      string
	Refs        []gemini.ImageRef
	UseBrandKit bool
}

func NewGenerationService(cfg config.Config, log *slog.Logger, users userStore, history historyStore, slices sliceStore, ledger *LedgerService, gen generator, media mediaStore, locks *Locks) *GenerationService {
	return &GenerationService{
		cfg:      cfg,
		log:      log,
		users:    users,
		history:  history,
		slices:   slices,
		ledger:   ledger,
		gen:      gen,
		media:    media,
		locks:    locks,
		inflight: newInflight(),
		tagDone:  make(chan TagResult, 16),
	}
}

// TagResults exposes auto-tagging completions. The channel is buffered and
// lossy: a slow reader never blocks a generation.
func (s *GenerationService) TagResults() <-chan TagResult {
	return s.tagDone
}

// Cost returns the credit price of one run of the tool.
func (s *GenerationService) Cost(tool models.ToolType) int {
	if tool == models.ToolVideo {
		return s.cfg.VideoCost
	}
	return s.cfg.GenerationCost
}

// Generate runs one creative action end to end and returns the new history
// item. A failure anywhere before the deduction leaves the account
// untouched, and a deduction that fails removes the item again so the
// history never shows work the user did not pay for.
func (s *GenerationService) Generate(ctx context.Context, email string, req ToolRequest) (*models.HistoryItem, error) {
	if s.gen == nil {
		return nil, ErrGeneratorOffline
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	slot := email + ":" + string(req.Tool)
	if !s.inflight.Begin(slot) {
		return nil, ErrOperationInFlight
	}
	defer s.inflight.End(slot)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	cost := s.Cost(req.Tool)
	if user.Credits < cost {
		return nil, ErrInsufficientCredits
	}

	prompt := s.buildPrompt(ctx, email, req)

	item := &models.HistoryItem{
		ID:        uuid.NewString(),
		UserEmail: email,
		Tool:      req.Tool,
		Prompt:    req.Prompt,
		CreatedAt: time.Now().UTC(),
	}
	if item.Prompt == "" {
		item.Prompt = prompt
	}

	switch req.Tool {
	case models.ToolIdea, models.ToolStrategy, models.ToolTrend, models.ToolSimulation:
		payload, err := s.gen.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}
		item.Payload = payload
	case models.ToolCopy:
		text, err := s.gen.GenerateText(ctx, prompt)
		if err != nil {
			return nil, err
		}
		item.Payload = text
	case models.ToolVideo:
		media, err := s.gen.GenerateVideo(ctx, prompt)
		if err != nil {
			return nil, err
		}
		item.MediaURL = media.URL
		if len(media.Data) > 0 {
			url, err := s.media.Upload(ctx, media.Data, media.MIME)
			if err != nil {
				return nil, err
			}
			item.MediaURL = url
		}
	default:
		media, err := s.gen.GenerateImage(ctx, prompt, req.Refs)
		if err != nil {
			return nil, err
		}
		data := media.Data
		if user.Plan == models.PlanFreemium {
			if marked, wmErr := watermark.Apply(data, media.MIME, "superdayz"); wmErr != nil {
				s.log.Warn("watermark failed", "tool", req.Tool, "err", wmErr)
			} else {
				data = marked
			}
		}
		url, err := s.media.Upload(ctx, data, media.MIME)
		if err != nil {
			return nil, err
		}
		item.MediaURL = url
	}

	// The keyed lock serializes all spends for this user; the early balance
	// check above is only a cheap pre-flight. The item is visible to the
	// achievement predicates the deduction evaluates, so it goes in first
	// and comes back out if the conditional deduction loses the balance.
	unlock := s.locks.Lock(email)
	defer unlock()

	if err := s.history.Insert(ctx, item); err != nil {
		return nil, err
	}
	list, err := s.history.ListByEmail(ctx, email, s.cfg.HistoryCap)
	if err != nil {
		s.removeUnpaid(ctx, item.ID)
		return nil, err
	}
	if err := s.ledger.Deduct(ctx, user, list, cost); err != nil {
		s.removeUnpaid(ctx, item.ID)
		return nil, err
	}
	if err := s.history.TrimToCap(ctx, email, s.cfg.HistoryCap); err != nil {
		s.log.Warn("history trim failed", "user", email, "err", err)
	}

	s.autoTag(item)
	return item, nil
}

// removeUnpaid rolls back a history insert whose deduction did not go
// through.
func (s *GenerationService) removeUnpaid(ctx context.Context, itemID string) {
	if err := s.history.DeleteByID(ctx, itemID); err != nil {
		s.log.Error("remove unpaid history item", "item", itemID, "err", err)
	}
}

// Chat streams a conversational reply. Chat costs nothing and leaves no
// history item; it only shares the availability guard.
func (s *GenerationService) Chat(ctx context.Context, email, message string, onChunk func(string)) error {
	if s.gen == nil {
		return ErrGeneratorOffline
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message required", ErrInvalidInput)
	}
	prompt := "You are the Superdayz marketing assistant. Answer concisely and practically.\n\nUser: " + message
	return s.gen.StreamText(ctx, prompt, onChunk)
}

// UpdateTags and AssignFolder are the only in-place mutations a history
// item allows.
func (s *GenerationService) UpdateTags(ctx context.Context, email, itemID string, tags []string) error {
	item, err := s.history.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserEmail != email {
		return ErrNotFound
	}
	return s.history.UpdateTags(ctx, itemID, tags)
}

func (s *GenerationService) AssignFolder(ctx context.Context, email, itemID, folderID string) error {
	item, err := s.history.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserEmail != email {
		return ErrNotFound
	}
	return s.history.AssignFolder(ctx, itemID, folderID)
}

func (s *GenerationService) History(ctx context.Context, email string) ([]models.HistoryItem, error) {
	return s.history.ListByEmail(ctx, email, s.cfg.HistoryCap)
}

// autoTag runs fire-and-forget: a failure degrades to an untagged item. The
// outcome is published on the TagResults channel either way.
func (s *GenerationService) autoTag(item *models.HistoryItem) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tags, err := s.gen.SuggestTags(ctx, fmt.Sprintf("%s: %s", item.Tool, item.Prompt))
		if err == nil && len(tags) > 0 {
			err = s.history.UpdateTags(ctx, item.ID, tags)
		}
		if err != nil {
			s.log.Warn("auto-tagging failed", "item", item.ID, "err", err)
		}
		select {
		case s.tagDone <- TagResult{ItemID: item.ID, Tags: tags, Err: err}:
		default:
		}
	}()
}

func validateRequest(req ToolRequest) error {
	switch req.Tool {
	case models.ToolPhotoshoot:
		if len(req.Refs) < 2 {
			return fmt.Errorf("%w: photoshoot needs a product image and a model image", ErrInvalidInput)
		}
	case models.ToolGroup:
		if len(req.Refs) < 2 {
			return fmt.Errorf("%w: group photo needs at least two model images", ErrInvalidInput)
		}
	case models.ToolMockup, models.ToolEdit, models.ToolPose:
		if len(req.Refs) < 1 {
			return fmt.Errorf("%w: %s needs a source image", ErrInvalidInput, req.Tool)
		}
		if req.Tool != models.ToolMockup && strings.TrimSpace(req.Prompt) == "" {
			return fmt.Errorf("%w: %s needs a prompt", ErrInvalidInput, req.Tool)
		}
	case models.ToolImage, models.ToolLogo, models.ToolVideo, models.ToolIdea,
		models.ToolCopy, models.ToolStrategy, models.ToolTrend, models.ToolSimulation:
		if strings.TrimSpace(req.Prompt) == "" {
			return fmt.Errorf("%w: %s needs a prompt", ErrInvalidInput, req.Tool)
		}
	default:
		return fmt.Errorf("%w: unknown tool %q", ErrInvalidInput, req.Tool)
	}
	return nil
}

var promptTemplates = map[models.ToolType]string{
	models.ToolPhotoshoot: "Create a professional product photoshoot. The first image is the product, the second is the model. Place the product naturally with the model in a clean studio scene.",
	models.ToolMockup:     "Place this design onto a realistic product mockup with studio lighting.",
	models.ToolImage:      "Create a high quality marketing image:",
	models.ToolPose:       "Re-pose the person in the image as described, keeping identity and clothing consistent:",
	models.ToolGroup:      "Combine the people from the reference images into one natural group photo.",
	models.ToolLogo:       "Design a clean, modern vector-style logo on a plain background:",
	models.ToolVideo:      "Create a short promotional video:",
	models.ToolEdit:       "Edit the image as instructed, changing nothing else:",
	models.ToolIdea:       "Generate a structured marketing campaign idea as JSON with fields title, concept, channels (array), cta:",
	models.ToolCopy:       "Write persuasive marketing copy for:",
	models.ToolStrategy:   "Produce a marketing strategy as JSON with fields audience, positioning, channels (array), budget_split (object):",
	models.ToolTrend:      "Produce a trend report as JSON with fields summary, trends (array of {name, momentum, why_it_matters}):",
	models.ToolSimulation: "Predict campaign performance as JSON with fields expected_reach, expected_ctr, risks (array), recommendation:",
}

func (s *GenerationService) buildPrompt(ctx context.Context, email string, req ToolRequest) string {
	var b strings.Builder
	b.WriteString(promptTemplates[req.Tool])
	if p := strings.TrimSpace(req.Prompt); p != "" {
		b.WriteString(" ")
		b.WriteString(p)
	}

	if req.UseBrandKit {
		var kit models.BrandKit
		found, err := s.slices.Load(ctx, email, models.SliceBrandKit, &kit)
		if err != nil {
			s.log.Warn("brand kit load failed", "user", email, "err", err)
		} else if found {
			if len(kit.Colors) > 0 {
				fmt.Fprintf(&b, " Use the brand color palette: %s.", strings.Join(kit.Colors, ", "))
			}
			if kit.Font != "" {
				fmt.Fprintf(&b, " Any text should use a %s style font.", kit.Font)
			}
		}
	}
	return b.String()
}
