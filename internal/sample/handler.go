package sample

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/httpx"
)

// Handler exposes the sample and analysis endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func listParams(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in SampleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	smp, err := h.svc.Create(r.Context(), auth.GetPrincipal(r), terminalID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, smp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	smp, err := h.svc.Get(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, smp)
}

func (h *Handler) ListByTerminal(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListByTerminal(r.Context(), auth.GetPrincipal(r), terminalID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in SampleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	smp, err := h.svc.Update(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, smp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.Delete(r.Context(), auth.GetPrincipal(r), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	sampleID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in AnalysisInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	a, err := h.svc.CreateAnalysis(r.Context(), auth.GetPrincipal(r), sampleID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.svc.GetAnalysis(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	sampleID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	out, err := h.svc.ListAnalyses(r.Context(), auth.GetPrincipal(r), sampleID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in AnalysisInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	a, err := h.svc.UpdateAnalysis(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) AnalysisHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	out, err := h.svc.AnalysisHistory(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) SampleHistory(w http.ResponseWriter, r *http.Request) {
	sampleID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	out, err := h.svc.SampleHistory(r.Context(), auth.GetPrincipal(r), sampleID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
