package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/superdayz/studio-api/internal/gemini"
	"github.com/superdayz/studio-api/internal/models"
	"github.com/superdayz/studio-api/internal/service"
)

// userResponse is the public view of an account. The password hash never
// crosses the wire.
type userResponse struct {
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	AvatarURL      string     `json:"avatar_url"`
	Level          int        `json:"level"`
	XP             int        `json:"xp"`
	Credits        int        `json:"credits"`
	Achievements   []string   `json:"achievements"`
	Plan           string     `json:"plan"`
	MonthlyCredits int        `json:"monthly_credits"`
	NextBillingAt  *time.Time `json:"next_billing_at,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	achievements := u.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	return userResponse{
		Email:          u.Email,
		Name:           u.Name,
		AvatarURL:      u.AvatarURL,
		Level:          u.Level,
		XP:             u.XP,
		Credits:        u.Credits,
		Achievements:   achievements,
		Plan:           string(u.Plan),
		MonthlyCredits: u.MonthlyCredits,
		NextBillingAt:  u.NextBillingAt,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	user, err := s.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	token, err := s.issueToken(user.Email, time.Now())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	user, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	token, err := s.issueToken(user.Email, time.Now())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

type profileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	email := userEmail(r)
	if err := s.users.UpdateProfile(r.Context(), email, req.Name, req.AvatarURL); err != nil {
		s.serviceError(w, err)
		return
	}
	user, err := s.users.Get(r.Context(), email)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), userEmail(r)); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type imageRef struct {
	Data []byte `json:"data"`
	MIME string `json:"mime"`
}

type generateRequest struct {
	Prompt      string     `json:"prompt"`
	Refs        []imageRef `json:"refs"`
	UseBrandKit bool       `json:"use_brand_kit"`
}

type historyItemResponse struct {
	ID        string    `json:"id"`
	Tool      string    `json:"tool"`
	Prompt    string    `json:"prompt"`
	MediaURL  string    `json:"media_url,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Tags      []string  `json:"tags"`
	FolderID  string    `json:"folder_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toHistoryResponse(item *models.HistoryItem) historyItemResponse {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return historyItemResponse{
		ID:        item.ID,
		Tool:      string(item.Tool),
		Prompt:    item.Prompt,
		MediaURL:  item.MediaURL,
		Payload:   item.Payload,
		Tags:      tags,
		FolderID:  item.FolderID,
		CreatedAt: item.CreatedAt,
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	tool := models.ToolType(chi.URLParam(r, "tool"))
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	refs := make([]gemini.ImageRef, 0, len(req.Refs))
	for _, ref := range req.Refs {
		refs = append(refs, gemini.ImageRef{Data: ref.Data, MIME: ref.MIME})
	}
	item, err := s.generations.Generate(r.Context(), userEmail(r), service.ToolRequest{
		Tool:        tool,
		Prompt:      req.Prompt,
		Refs:        refs,
		UseBrandKit: req.UseBrandKit,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toHistoryResponse(item))
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChat streams the assistant reply as plain text chunks.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	err := s.generations.Chat(r.Context(), userEmail(r), req.Message, func(chunk string) {
		_, _ = w.Write([]byte(chunk))
		flusher.Flush()
	})
	if err != nil {
		// headers are gone; the truncated stream is the best signal left
		s.log.Error("chat stream", "err", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.generations.History(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	resp := make([]historyItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toHistoryResponse(&items[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleUpdateTags(w http.ResponseWriter, r *http.Request) {
	var req tagsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.generations.UpdateTags(r.Context(), userEmail(r), chi.URLParam(r, "id"), req.Tags); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type folderRequest struct {
	FolderID string `json:"folder_id"`
}

func (s *Server) handleAssignFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.generations.AssignFolder(r.Context(), userEmail(r), chi.URLParam(r, "id"), req.FolderID); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type todoRequest struct {
	Title    string    `json:"title"`
	DueDate  time.Time `json:"due_date"`
	Reminder string    `json:"reminder"`
}

type todoResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"due_date"`
	Reminder  string    `json:"reminder"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func toTodoResponse(item *models.ToDoItem) todoResponse {
	return todoResponse{
		ID:        item.ID,
		Title:     item.Title,
		DueDate:   item.DueDate,
		Reminder:  string(item.Reminder),
		Completed: item.Completed,
		CreatedAt: item.CreatedAt,
	}
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	items, err := s.todos.List(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	resp := make([]todoResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toTodoResponse(&items[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	item, err := s.todos.Create(r.Context(), userEmail(r), req.Title, req.DueDate, models.ReminderSetting(req.Reminder))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toTodoResponse(item))
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var req todoRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	item, err := s.todos.Update(r.Context(), userEmail(r), chi.URLParam(r, "id"), req.Title, req.DueDate, models.ReminderSetting(req.Reminder))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTodoResponse(item))
}

type completedRequest struct {
	Completed bool `json:"completed"`
}

func (s *Server) handleCompleteTodo(w http.ResponseWriter, r *http.Request) {
	var req completedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	item, err := s.todos.SetCompleted(r.Context(), userEmail(r), chi.URLParam(r, "id"), req.Completed)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTodoResponse(item))
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := s.todos.Delete(r.Context(), userEmail(r), chi.URLParam(r, "id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type billingEntryResponse struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	AmountCents int       `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleBillingHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.History(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	resp := make([]billingEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, billingEntryResponse{
			ID:          e.ID,
			Description: e.Description,
			AmountCents: e.AmountCents,
			Currency:    e.Currency,
			CreatedAt:   e.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type buyCreditsRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleBuyCredits(w http.ResponseWriter, r *http.Request) {
	var req buyCreditsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	email := userEmail(r)
	// flat pack pricing, one dollar per credit
	if err := s.ledger.BuyCredits(r.Context(), email, req.Amount, req.Amount*100); err != nil {
		s.serviceError(w, err)
		return
	}
	user, err := s.users.Get(r.Context(), email)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

type subscriptionRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	user, err := s.ledger.UpdateSubscription(r.Context(), userEmail(r), models.PlanType(req.Plan))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

type paymentMethodRequest struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type paymentMethodResponse struct {
	ID       int64  `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.ledger.PaymentMethods(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	resp := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		resp = append(resp, paymentMethodResponse{
			ID:       m.ID,
			Brand:    m.Brand,
			Last4:    m.Last4,
			ExpMonth: m.ExpMonth,
			ExpYear:  m.ExpYear,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	method := &models.PaymentMethod{
		UserEmail: userEmail(r),
		Brand:     req.Brand,
		Last4:     req.Last4,
		ExpMonth:  req.ExpMonth,
		ExpYear:   req.ExpYear,
	}
	if err := s.ledger.AddPaymentMethod(r.Context(), method); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, paymentMethodResponse{
		ID:       method.ID,
		Brand:    method.Brand,
		Last4:    method.Last4,
		ExpMonth: method.ExpMonth,
		ExpYear:  method.ExpYear,
	})
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.ledger.RemovePaymentMethod(r.Context(), userEmail(r), id); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBrandKit(w http.ResponseWriter, r *http.Request) {
	kit, err := s.slices.BrandKit(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, kit)
}

func (s *Server) handleSaveBrandKit(w http.ResponseWriter, r *http.Request) {
	var kit models.BrandKit
	if err := decodeJSON(r, &kit); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.slices.SaveBrandKit(r.Context(), userEmail(r), &kit); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &kit)
}

func (s *Server) handleGetUploadedModels(w http.ResponseWriter, r *http.Request) {
	list, err := s.slices.UploadedModels(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveUploadedModels(w http.ResponseWriter, r *http.Request) {
	var list []models.UploadedModel
	if err := decodeJSON(r, &list); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.slices.SaveUploadedModels(r.Context(), userEmail(r), list); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetFolders(w http.ResponseWriter, r *http.Request) {
	list, err := s.slices.Folders(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveFolders(w http.ResponseWriter, r *http.Request) {
	var list []models.Folder
	if err := decodeJSON(r, &list); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.slices.SaveFolders(r.Context(), userEmail(r), list); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := s.slices.Campaigns(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSaveCampaigns(w http.ResponseWriter, r *http.Request) {
	var list []models.Campaign
	if err := decodeJSON(r, &list); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.slices.SaveCampaigns(r.Context(), userEmail(r), list); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := s.notifications.Unseen(r.Context(), userEmail(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type seenRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleMarkNotificationsSeen(w http.ResponseWriter, r *http.Request) {
	var req seenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceError(w, err)
		return
	}
	if err := s.notifications.MarkSeen(r.Context(), userEmail(r), req.IDs); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
