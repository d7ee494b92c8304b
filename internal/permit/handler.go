package permit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/permitworks/permit-management/internal/auth"
	"github.com/permitworks/permit-management/internal/transport"
	"github.com/permitworks/permit-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service       *Service
	VerifyBaseURL string
}

func NewHandler(service *Service, verifyBaseURL string) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(lg),
		Service:       service,
		VerifyBaseURL: verifyBaseURL,
	}
}

func (h *Handler) CreatePermit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitPermitDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePermit: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.SubmitPermit(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPermits(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filters := parseListFilters(r)
	permits, err := h.Service.ListVisiblePermits(actor, filters)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"permits": permits,
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}

func (h *Handler) GetPermit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.GetPermit(actor, chi.URLParam(r, "permitID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ApprovePermit(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, ReviewActionApprove)
}

func (h *Handler) RejectPermit(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, ReviewActionReject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, action string) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ReviewPermitDTO
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && err.Error() != "EOF" {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	dto.Action = action

	p, err := h.Service.ReviewPermit(r.Context(), actor, chi.URLParam(r, "permitID"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CancelPermit(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.CancelPermit(r.Context(), actor, chi.URLParam(r, "permitID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) StartWork(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.StartWork(r.Context(), actor, chi.URLParam(r, "permitID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CompleteWork(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	p, err := h.Service.CompleteWork(r.Context(), actor, chi.URLParam(r, "permitID"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) GetQRPayload(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payload, err := h.Service.IssueQRPayload(actor, chi.URLParam(r, "permitID"), h.VerifyBaseURL)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) GetQRImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payload, err := h.Service.IssueQRPayload(actor, chi.URLParam(r, "permitID"), h.VerifyBaseURL)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	size := 256
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		if s, err := strconv.Atoi(sizeStr); err == nil && s >= 64 && s <= 1024 {
			size = s
		}
	}

	png, err := payload.RenderPNG(size)
	if err != nil {
		h.Logger.Error("GetQRImage: failed to render QR code", "permit_id", payload.PermitID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("GetQRImage: failed to write response", "error", err)
	}
}

func parseListFilters(r *http.Request) ListFilters {
	filters := ListFilters{Limit: 20, Offset: 0}

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filters.Status = status
	}
	if shopIDStr := q.Get("shop_id"); shopIDStr != "" {
		if shopID, err := strconv.ParseInt(shopIDStr, 10, 64); err == nil {
			filters.ShopID = shopID
		}
	}
	if from := q.Get("date_from"); from != "" {
		if parsed, err := time.Parse(dateLayout, from); err == nil {
			filters.DateFrom = parsed
		}
	}
	if to := q.Get("date_to"); to != "" {
		if parsed, err := time.Parse(dateLayout, to); err == nil {
			filters.DateTo = parsed
		}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filters.Limit = l
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filters.Offset = o
		}
	}

	return filters
}
