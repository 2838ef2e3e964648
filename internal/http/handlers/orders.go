package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"songforge/internal/domain"
	"songforge/internal/orders"
	"songforge/internal/sqlinline"
)

type orderRequest struct {
	Language  string `json:"language"`
	Genre     string `json:"genre"`
	Mood      string `json:"mood"`
	Tempo     string `json:"tempo"`
	Occasion  string `json:"occasion"`
	Recipient string `json:"recipient"`
	Notes     string `json:"notes"`
}

type orderDTO struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Language     string    `json:"language"`
	Genre        string    `json:"genre"`
	Mood         string    `json:"mood"`
	Tempo        string    `json:"tempo"`
	Occasion     string    `json:"occasion"`
	Recipient    string    `json:"recipient"`
	Notes        string    `json:"notes"`
	PriceCents   int64     `json:"price_cents"`
	Currency     string    `json:"currency"`
	PaymentState string    `json:"payment_state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type lyricsDTO struct {
	ID           string    `json:"id"`
	Version      int       `json:"version"`
	Text         string    `json:"text"`
	Model        string    `json:"model"`
	QualityScore *float64  `json:"quality_score"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type audioAssetDTO struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Provider    string    `json:"provider"`
	Status      string    `json:"status"`
	URLs        []string  `json:"urls"`
	DurationSec float64   `json:"duration_sec"`
	CreatedAt   time.Time `json:"created_at"`
}

func orderToDTO(o *domain.Order) orderDTO {
	return orderDTO{
		ID:           o.ID,
		Status:       string(o.Status),
		Language:     string(o.Language),
		Genre:        o.Genre,
		Mood:         o.Mood,
		Tempo:        o.Tempo,
		Occasion:     o.Occasion,
		Recipient:    o.Recipient,
		Notes:        o.Notes,
		PriceCents:   o.PriceCents,
		Currency:     o.Currency,
		PaymentState: string(o.PaymentState),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func lyricsToDTO(v *domain.LyricsVersion) lyricsDTO {
	return lyricsDTO{
		ID:           v.ID,
		Version:      v.Version,
		Text:         v.Text,
		Model:        v.Model,
		QualityScore: v.QualityScore,
		Status:       string(v.Status),
		CreatedAt:    v.CreatedAt,
	}
}

func assetToDTO(a *domain.AudioAsset) audioAssetDTO {
	return audioAssetDTO{
		ID:          a.ID,
		Kind:        string(a.Kind),
		Provider:    a.Provider,
		Status:      string(a.Status),
		URLs:        a.URLs,
		DurationSec: a.DurationSec,
		CreatedAt:   a.CreatedAt,
	}
}

func (in orderRequest) toInput() orders.CreateOrderInput {
	return orders.CreateOrderInput{
		Language:  domain.OrderLanguage(strings.ToLower(in.Language)),
		Genre:     in.Genre,
		Mood:      in.Mood,
		Tempo:     in.Tempo,
		Occasion:  in.Occasion,
		Recipient: in.Recipient,
		Notes:     in.Notes,
	}
}

func validLanguage(lang string) bool {
	switch domain.OrderLanguage(strings.ToLower(lang)) {
	case "", domain.LanguageRU, domain.LanguageKZ, domain.LanguageEN:
		return true
	}
	return false
}

func (a *App) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !validLanguage(req.Language) {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported language")
		return
	}
	order, err := a.Orders.Create(r.Context(), a.currentUserID(r), req.toInput())
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, orderToDTO(order))
}

func (a *App) OrdersList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")
	items, total, err := a.Orders.List(r.Context(), a.currentUserID(r), offset, limit, status)
	if err != nil {
		a.domainError(w, err)
		return
	}
	dtos := make([]orderDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, orderToDTO(&items[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": dtos, "total": total})
}

// loadOrder fetches the order addressed by the route, scoped to the
// requesting user. It writes the error response on failure.
func (a *App) loadOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	order, err := a.Orders.GetForUser(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.domainError(w, err)
		return nil, false
	}
	return order, true
}

func (a *App) OrdersGet(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, orderToDTO(order))
}

func (a *App) OrdersUpdate(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if !validLanguage(req.Language) {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported language")
		return
	}
	updated, err := a.Orders.Update(r.Context(), order, req.toInput())
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, orderToDTO(updated))
}

// OrdersRequestLyrics moves the order to pending_lyrics and enqueues the
// generation job for the background worker.
func (a *App) OrdersRequestLyrics(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	order, err := a.Orders.RequestLyrics(r.Context(), order, order.UserID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QEnqueueLyricsJob, order.ID)
	var jobID string
	if err := row.Scan(&jobID); err != nil {
		a.Logger.Error().Err(err).Str("order_id", order.ID).Msg("enqueue lyrics job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to enqueue generation")
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{"order": orderToDTO(order), "job_id": jobID})
}

func (a *App) LyricsGet(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	version, err := a.Orders.LatestLyrics(r.Context(), order.ID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, lyricsToDTO(version))
}

func (a *App) LyricsBeginEdit(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	order, err := a.Orders.BeginEdit(r.Context(), order, order.UserID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, orderToDTO(order))
}

type lyricsEditRequest struct {
	Text string `json:"text"`
}

func (a *App) LyricsSubmit(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	var req lyricsEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	version, err := a.Orders.SubmitEdit(r.Context(), order, req.Text, order.UserID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, lyricsToDTO(version))
}

func (a *App) OrdersApprove(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	order, err := a.Orders.Approve(r.Context(), order, order.UserID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, orderToDTO(order))
}

func (a *App) OrdersPay(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	payment, err := a.Orders.CreatePayment(r.Context(), order)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"id":           payment.ID,
		"provider":     payment.Provider,
		"amount_cents": payment.AmountCents,
		"currency":     payment.Currency,
		"status":       string(payment.Status),
	})
}

// OrdersStartAudio creates the audio asset, moves the order to
// generating and hands the job to the dispatcher. A dispatch failure is
// reported but leaves the order generating so the render can be retried.
func (a *App) OrdersStartAudio(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	version, err := a.Orders.LatestLyrics(r.Context(), order.ID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	asset, err := a.Orders.StartAudio(r.Context(), order, order.UserID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	taskID, err := a.Dispatcher.Dispatch(r.Context(), order, asset, version.Text)
	if err != nil {
		a.Logger.Error().Err(err).Str("order_id", order.ID).Msg("audio dispatch failed")
		a.error(w, http.StatusBadGateway, "provider_failure", "audio generation could not be started")
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"asset":   assetToDTO(asset),
		"task_id": taskID,
	})
}

func (a *App) OrdersAssets(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	assets, err := a.Orders.Assets(r.Context(), order.ID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	dtos := make([]audioAssetDTO, 0, len(assets))
	for i := range assets {
		dtos = append(dtos, assetToDTO(&assets[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": dtos})
}

func (a *App) OrdersCancel(w http.ResponseWriter, r *http.Request) {
	order, ok := a.loadOrder(w, r)
	if !ok {
		return
	}
	order, err := a.Orders.Cancel(r.Context(), order, order.UserID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, orderToDTO(order))
}
