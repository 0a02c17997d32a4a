package operations

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/httpx"
)

// Handler exposes the operational event endpoints.
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

func (h *Handler) CreateReading(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in ReadingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rd, err := h.svc.CreateReading(r.Context(), auth.GetPrincipal(r), equipmentID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rd)
}

func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListReadings(r.Context(), auth.GetPrincipal(r), equipmentID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in InspectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	insp, err := h.svc.CreateInspection(r.Context(), auth.GetPrincipal(r), equipmentID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, insp)
}

func (h *Handler) ListInspections(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListInspections(r.Context(), auth.GetPrincipal(r), equipmentID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateVerification(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in VerificationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	v, err := h.svc.CreateVerification(r.Context(), auth.GetPrincipal(r), equipmentID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	v, err := h.svc.GetVerification(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListVerifications(r.Context(), auth.GetPrincipal(r), equipmentID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateCalibration(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in CalibrationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	c, err := h.svc.CreateCalibration(r.Context(), auth.GetPrincipal(r), equipmentID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCalibration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.svc.GetCalibration(r.Context(), auth.GetPrincipal(r), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) ListCalibrations(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListCalibrations(r.Context(), auth.GetPrincipal(r), equipmentID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	equipmentID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	proj, err := h.svc.Status(r.Context(), auth.GetPrincipal(r), equipmentID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, proj)
}

func (h *Handler) CreateAnalysisType(w http.ResponseWriter, r *http.Request) {
	var in AnalysisTypeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	t, err := h.svc.CreateAnalysisType(r.Context(), auth.GetPrincipal(r), in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListAnalysisTypes(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListAnalysisTypes(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type frequencyBody struct {
	FrequencyDays int `json:"frequency_days"`
}

func (h *Handler) SetTerminalFrequency(w http.ResponseWriter, r *http.Request) {
	terminalID, ok1 := pathID(r, "id")
	analysisTypeID, ok2 := pathID(r, "type_id")
	if !ok1 || !ok2 {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in frequencyBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	o, err := h.svc.SetTerminalFrequency(r.Context(), auth.GetPrincipal(r), terminalID, analysisTypeID, in.FrequencyDays)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rec, err := h.svc.CreateRecord(r.Context(), auth.GetPrincipal(r), terminalID, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	terminalID, ok := pathID(r, "id")
	if !ok {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit, offset := listParams(r)
	out, err := h.svc.ListRecords(r.Context(), auth.GetPrincipal(r), terminalID, limit, offset)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) AnalysisDue(w http.ResponseWriter, r *http.Request) {
	terminalID, ok1 := pathID(r, "id")
	analysisTypeID, ok2 := pathID(r, "type_id")
	if !ok1 || !ok2 {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	due, err := h.svc.Due(r.Context(), auth.GetPrincipal(r), terminalID, analysisTypeID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, due)
}
