package equipment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/httpx"
)

// Handler exposes the equipment-type catalog and equipment lifecycle
// endpoints.
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

func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	var in TypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := h.svc.CreateType(r.Context(), auth.GetPrincipal(r), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.svc.GetType(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	out, err := h.svc.ListTypes(r.Context(), limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in TypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := h.svc.UpdateType(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) AddVerificationItem(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in VerificationItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	it, err := h.svc.AddVerificationItem(r.Context(), auth.GetPrincipal(r), typeID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, it)
}

func (h *Handler) DeleteVerificationItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "item_id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeleteVerificationItem(r.Context(), auth.GetPrincipal(r), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in EquipmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	e, err := h.svc.Create(r.Context(), auth.GetPrincipal(r), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	e, err := h.svc.Get(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
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
	var in EquipmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	e, err := h.svc.Update(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

type changeTypeBody struct {
	EquipmentTypeID int64 `json:"equipment_type_id"`
}

func (h *Handler) ChangeType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in changeTypeBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.EquipmentTypeID <= 0 {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	changed, err := h.svc.ChangeType(r.Context(), auth.GetPrincipal(r), id, in.EquipmentTypeID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

type changeTerminalBody struct {
	TerminalID int64 `json:"terminal_id"`
}

func (h *Handler) ChangeTerminal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in changeTerminalBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.TerminalID <= 0 {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	changed, err := h.svc.ChangeTerminal(r.Context(), auth.GetPrincipal(r), id, in.TerminalID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (h *Handler) Dispose(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.Dispose(r.Context(), auth.GetPrincipal(r), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) TypeHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	out, err := h.svc.TypeHistory(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) TerminalHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	out, err := h.svc.TerminalHistory(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
