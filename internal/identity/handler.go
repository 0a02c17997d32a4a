package identity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/httpx"
)

// Handler exposes company, terminal and user endpoints.
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

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var in CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	c, err := h.svc.CreateCompany(r.Context(), auth.GetPrincipal(r), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.svc.GetCompany(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	c, err := h.svc.UpdateCompany(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateTerminal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in TerminalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := h.svc.CreateTerminal(r.Context(), auth.GetPrincipal(r), companyID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTerminals(w http.ResponseWriter, r *http.Request) {
	companyID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListTerminals(r.Context(), auth.GetPrincipal(r), companyID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetTerminal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.svc.GetTerminal(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateTerminal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in TerminalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := h.svc.UpdateTerminal(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	u, err := h.svc.CreateUser(r.Context(), auth.GetPrincipal(r), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	u, err := h.svc.GetUser(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	u, err := h.svc.UpdateUser(r.Context(), auth.GetPrincipal(r), id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.DeactivateUser(r.Context(), auth.GetPrincipal(r), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GrantTerminal(w http.ResponseWriter, r *http.Request) {
	userID, ok1 := pathID(r, "id")
	terminalID, ok2 := pathID(r, "terminal_id")
	if !ok1 || !ok2 {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.GrantTerminal(r.Context(), auth.GetPrincipal(r), userID, terminalID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) RevokeTerminal(w http.ResponseWriter, r *http.Request) {
	userID, ok1 := pathID(r, "id")
	terminalID, ok2 := pathID(r, "terminal_id")
	if !ok1 || !ok2 {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.RevokeTerminal(r.Context(), auth.GetPrincipal(r), userID, terminalID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
