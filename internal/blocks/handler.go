package blocks

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/httpx"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in BlockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	b, err := h.svc.Create(r.Context(), auth.GetPrincipal(r), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	out, err := h.svc.List(r.Context(), auth.GetPrincipal(r), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	b, err := h.svc.Get(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in BlockInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	b, err := h.svc.Update(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.Delete(r.Context(), auth.GetPrincipal(r), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
