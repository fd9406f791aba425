package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wilsonalvesmartins/grapaz/db"
	"github.com/wilsonalvesmartins/grapaz/models"
)

// ListBidsHandler trata GET /api/bids
func (h *Handler) ListBidsHandler(w http.ResponseWriter, r *http.Request) {
	bids, err := h.Store.GetAllBids(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

// SaveBidHandler trata POST /api/bids: cria um pregão ou substitui um
// existente (mantendo o contrato create/replace do painel original). A
// substituição ainda passa pela tabela de transições de status.
func (h *Handler) SaveBidHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var bid models.Bid
	if err := json.Unmarshal(body, &bid); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	if bid.Status == "" {
		bid.Status = models.StatusPending
	}
	if !bid.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status value")
		return
	}
	if bid.ID == "" {
		bid.ID = uuid.NewString()
	}

	// Valor só faz sentido depois da disputa
	if bid.Status == models.StatusPending || bid.Status == models.StatusLost {
		bid.Value = 0
	}
	bid.IsPaid = bid.Status == models.StatusPaid

	current, err := h.Store.GetBid(r.Context(), bid.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to load bid")
		return
	}
	if current != nil && !models.CanTransition(current.Status, bid.Status) {
		writeError(w, http.StatusBadRequest, "invalid status transition")
		return
	}

	if err := h.Store.PutBid(r.Context(), &bid); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save bid")
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

// UpdateBidHandler trata PUT /api/bids/{id}: atualização parcial com lista
// fixa de campos. Chaves desconhecidas são rejeitadas, nunca repassadas ao
// banco.
func (h *Handler) UpdateBidHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bid id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}

	// id é imutável; o front antigo mandava o registro inteiro de volta
	delete(fields, "id")

	if len(fields) == 0 {
		writeSuccess(w)
		return
	}

	if rawStatus, ok := fields["status"]; ok {
		statusStr, ok := rawStatus.(string)
		next := models.Status(statusStr)
		if !ok || !next.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status value")
			return
		}

		current, err := h.Store.GetBid(r.Context(), id)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, http.StatusNotFound, "bid not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load bid")
			return
		}
		if !models.CanTransition(current.Status, next) {
			writeError(w, http.StatusBadRequest, "invalid status transition")
			return
		}
		// Mantém a flag legada coerente com o status
		if next == models.StatusPaid {
			fields["isPaid"] = true
		}
	}

	if err := h.Store.PatchBid(r.Context(), id, fields); err != nil {
		var unknown *db.UnknownFieldError
		if errors.As(err, &unknown) {
			writeError(w, http.StatusBadRequest, unknown.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update bid")
		return
	}
	writeSuccess(w)
}

// DeleteBidHandler trata DELETE /api/bids/{id}. Idempotente: apagar um id
// inexistente também responde sucesso.
func (h *Handler) DeleteBidHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bid id")
		return
	}
	if err := h.Store.DeleteBid(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete bid")
		return
	}
	writeSuccess(w)
}

// StatsHandler trata GET /api/bids/stats com os totais do dashboard.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	bids, err := h.Store.GetAllBids(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	writeJSON(w, http.StatusOK, models.DashboardStats(bids))
}

// BidsByCityHandler trata GET /api/bids/by-city?status=won,partial e devolve
// os pregões filtrados agrupados por cidade, na ordem de inserção.
func (h *Handler) BidsByCityHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing status parameter")
		return
	}

	var statuses []models.Status
	for _, part := range strings.Split(raw, ",") {
		st := models.Status(strings.TrimSpace(part))
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status value")
			return
		}
		statuses = append(statuses, st)
	}

	bids, err := h.Store.GetAllBids(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	writeJSON(w, http.StatusOK, models.GroupByCity(bids, statuses...))
}
