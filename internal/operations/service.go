// Package operations records what is done to each instrument: readings,
// inspections, verifications against the type checklist, calibrations, and
// external analyses with their cadence tracking.
package operations

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/petrolia/termlab/internal/auth"
	equipmententity "github.com/petrolia/termlab/internal/equipment/entity"
	equipmentrepo "github.com/petrolia/termlab/internal/equipment/repo"
	"github.com/petrolia/termlab/internal/fault"
	identityrepo "github.com/petrolia/termlab/internal/identity/repo"
	"github.com/petrolia/termlab/internal/operations/entity"
	"github.com/petrolia/termlab/internal/operations/repo"
)

type Service struct {
	events    *repo.EventRepo
	external  *repo.ExternalRepo
	equipment *equipmentrepo.EquipmentRepo
	types     *equipmentrepo.TypeRepo
	terminals *identityrepo.TerminalRepo
}

func NewService(
	events *repo.EventRepo,
	external *repo.ExternalRepo,
	equipment *equipmentrepo.EquipmentRepo,
	types *equipmentrepo.TypeRepo,
	terminals *identityrepo.TerminalRepo,
) *Service {
	return &Service{events: events, external: external, equipment: equipment, types: types, terminals: terminals}
}

// equipmentForWrite resolves the equipment and checks the principal may act
// on its terminal.
func (s *Service) equipmentForWrite(ctx context.Context, p *auth.Principal, equipmentID int64) (*equipmententity.Equipment, error) {
	e, err := s.equipmentForRead(ctx, p, equipmentID)
	if err != nil {
		return nil, err
	}
	t, err := s.terminals.GetByID(ctx, e.TerminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) equipmentForRead(ctx context.Context, p *auth.Principal, equipmentID int64) (*equipmententity.Equipment, error) {
	e, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, fault.FromStore(err, "equipment")
	}
	t, err := s.terminals.GetByID(ctx, e.TerminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("equipment")
	}
	return e, nil
}

// ---- readings ----

type ReadingInput struct {
	ValueCelsius float64    `json:"value_celsius"`
	MeasuredAt   *time.Time `json:"measured_at"`
}

func (s *Service) CreateReading(ctx context.Context, p *auth.Principal, equipmentID int64, in ReadingInput) (*entity.Reading, error) {
	if _, err := s.equipmentForWrite(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	measuredAt := time.Now().UTC()
	if in.MeasuredAt != nil {
		measuredAt = *in.MeasuredAt
	}
	rd := &entity.Reading{
		EquipmentID:     equipmentID,
		ValueCelsius:    in.ValueCelsius,
		MeasuredAt:      measuredAt,
		CreatedByUserID: p.UserID,
	}
	if err := s.events.CreateReading(ctx, rd); err != nil {
		return nil, fault.FromStore(err, "reading")
	}
	return rd, nil
}

func (s *Service) ListReadings(ctx context.Context, p *auth.Principal, equipmentID int64, limit, offset int) ([]*entity.Reading, error) {
	if _, err := s.equipmentForRead(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	return s.events.ListReadings(ctx, equipmentID, limit, offset)
}

// ---- inspections ----

type InspectionInput struct {
	InspectedAt *time.Time `json:"inspected_at"`
	Notes       *string    `json:"notes"`
	IsOK        *bool      `json:"is_ok"`
}

func (s *Service) CreateInspection(ctx context.Context, p *auth.Principal, equipmentID int64, in InspectionInput) (*entity.Inspection, error) {
	if _, err := s.equipmentForWrite(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	inspectedAt := time.Now().UTC()
	if in.InspectedAt != nil {
		inspectedAt = *in.InspectedAt
	}
	insp := &entity.Inspection{
		EquipmentID:     equipmentID,
		InspectedAt:     inspectedAt,
		Notes:           in.Notes,
		IsOK:            in.IsOK,
		CreatedByUserID: p.UserID,
	}
	if err := s.events.CreateInspection(ctx, insp); err != nil {
		return nil, fault.FromStore(err, "inspection")
	}
	return insp, nil
}

func (s *Service) ListInspections(ctx context.Context, p *auth.Principal, equipmentID int64, limit, offset int) ([]*entity.Inspection, error) {
	if _, err := s.equipmentForRead(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	return s.events.ListInspections(ctx, equipmentID, limit, offset)
}

// ---- verifications ----

type VerificationInput struct {
	VerifiedAt *time.Time      `json:"verified_at"`
	Notes      *string         `json:"notes"`
	Responses  []ResponseInput `json:"responses"`
}

type ResponseInput struct {
	VerificationItemID int64    `json:"verification_item_id"`
	ValueBool          *bool    `json:"value_bool"`
	ValueText          *string  `json:"value_text"`
	ValueNumber        *float64 `json:"value_number"`
}

// VerificationDetail bundles a verification with its responses.
type VerificationDetail struct {
	entity.Verification
	Responses []*entity.VerificationResponse `json:"responses"`
}

// CreateVerification evaluates the responses against the current type's
// checklist and persists everything in one transaction.
func (s *Service) CreateVerification(ctx context.Context, p *auth.Principal, equipmentID int64, in VerificationInput) (*VerificationDetail, error) {
	e, err := s.equipmentForWrite(ctx, p, equipmentID)
	if err != nil {
		return nil, err
	}
	items, err := s.types.VerificationItems(ctx, e.EquipmentTypeID)
	if err != nil {
		return nil, fault.FromStore(err, "verification items")
	}

	responses := make([]*entity.VerificationResponse, 0, len(in.Responses))
	for _, ri := range in.Responses {
		responses = append(responses, &entity.VerificationResponse{
			VerificationItemID: ri.VerificationItemID,
			ValueBool:          ri.ValueBool,
			ValueText:          ri.ValueText,
			ValueNumber:        ri.ValueNumber,
		})
	}
	overall, err := EvaluateVerification(items, responses, s.resolutionFor(ctx, e))
	if err != nil {
		return nil, err
	}

	verifiedAt := time.Now().UTC()
	if in.VerifiedAt != nil {
		verifiedAt = *in.VerifiedAt
	}
	v := &entity.Verification{
		EquipmentID:     equipmentID,
		VerifiedAt:      verifiedAt,
		CreatedByUserID: p.UserID,
		Notes:           in.Notes,
		IsOK:            overall,
	}
	if err := s.events.CreateVerification(ctx, v, responses); err != nil {
		return nil, fault.FromStore(err, "verification")
	}
	return &VerificationDetail{Verification: *v, Responses: responses}, nil
}

// resolutionFor picks the instrument resolution used for numeric equality
// checks: the equipment's single measure spec when it has exactly one with a
// resolution, nil otherwise.
func (s *Service) resolutionFor(ctx context.Context, e *equipmententity.Equipment) *float64 {
	specs, err := s.equipment.Specs(ctx, e.ID)
	if err != nil {
		return nil
	}
	var found *float64
	for _, sp := range specs {
		if sp.Resolution == nil {
			continue
		}
		if found != nil {
			return nil
		}
		found = sp.Resolution
	}
	return found
}

func (s *Service) GetVerification(ctx context.Context, p *auth.Principal, id int64) (*VerificationDetail, error) {
	v, err := s.events.GetVerification(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "verification")
	}
	if _, err := s.equipmentForRead(ctx, p, v.EquipmentID); err != nil {
		return nil, err
	}
	responses, err := s.events.VerificationResponses(ctx, id)
	if err != nil {
		return nil, err
	}
	return &VerificationDetail{Verification: *v, Responses: responses}, nil
}

func (s *Service) ListVerifications(ctx context.Context, p *auth.Principal, equipmentID int64, limit, offset int) ([]*entity.Verification, error) {
	if _, err := s.equipmentForRead(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	return s.events.ListVerifications(ctx, equipmentID, limit, offset)
}

// ---- calibrations ----

type CalibrationInput struct {
	CalibratedAt         *time.Time              `json:"calibrated_at"`
	CalibrationCompanyID *int64                  `json:"calibration_company_id"`
	CertificateNumber    string                  `json:"certificate_number"`
	CertificatePDFURL    *string                 `json:"certificate_pdf_url"`
	Notes                *string                 `json:"notes"`
	Results              []CalibrationResultInput `json:"results"`
}

type CalibrationResultInput struct {
	PointLabel       *string  `json:"point_label"`
	ReferenceValue   *float64 `json:"reference_value"`
	MeasuredValue    *float64 `json:"measured_value"`
	Unit             *string  `json:"unit"`
	ErrorValue       *float64 `json:"error_value"`
	ToleranceValue   *float64 `json:"tolerance_value"`
	VolumeValue      *float64 `json:"volume_value"`
	SystematicError  *float64 `json:"systematic_error"`
	SystematicEMP    *float64 `json:"systematic_emp"`
	RandomError      *float64 `json:"random_error"`
	RandomEMP        *float64 `json:"random_emp"`
	UncertaintyValue *float64 `json:"uncertainty_value"`
	KValue           *float64 `json:"k_value"`
}

// CalibrationDetail bundles a calibration with its result points.
type CalibrationDetail struct {
	entity.Calibration
	Results []*entity.CalibrationResult `json:"results"`
}

func (s *Service) CreateCalibration(ctx context.Context, p *auth.Principal, equipmentID int64, in CalibrationInput) (*CalibrationDetail, error) {
	if _, err := s.equipmentForWrite(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CertificateNumber) == "" {
		return nil, fault.MissingField("certificate_number")
	}
	calibratedAt := time.Now().UTC()
	if in.CalibratedAt != nil {
		calibratedAt = *in.CalibratedAt
	}

	results := make([]*entity.CalibrationResult, 0, len(in.Results))
	for _, ri := range in.Results {
		res := &entity.CalibrationResult{
			PointLabel:       ri.PointLabel,
			ReferenceValue:   ri.ReferenceValue,
			MeasuredValue:    ri.MeasuredValue,
			Unit:             ri.Unit,
			ErrorValue:       ri.ErrorValue,
			ToleranceValue:   ri.ToleranceValue,
			VolumeValue:      ri.VolumeValue,
			SystematicError:  ri.SystematicError,
			SystematicEMP:    ri.SystematicEMP,
			RandomError:      ri.RandomError,
			RandomEMP:        ri.RandomEMP,
			UncertaintyValue: ri.UncertaintyValue,
			KValue:           ri.KValue,
		}
		if res.ErrorValue == nil && res.ReferenceValue != nil && res.MeasuredValue != nil {
			e := *res.MeasuredValue - *res.ReferenceValue
			res.ErrorValue = &e
		}
		if res.ErrorValue != nil && res.ToleranceValue != nil {
			ok := math.Abs(*res.ErrorValue) <= *res.ToleranceValue
			res.IsOK = &ok
		}
		results = append(results, res)
	}

	c := &entity.Calibration{
		EquipmentID:          equipmentID,
		CalibratedAt:         calibratedAt,
		CreatedByUserID:      p.UserID,
		CalibrationCompanyID: in.CalibrationCompanyID,
		CertificateNumber:    in.CertificateNumber,
		CertificatePDFURL:    in.CertificatePDFURL,
		Notes:                in.Notes,
	}
	if err := s.events.CreateCalibration(ctx, c, results); err != nil {
		return nil, fault.FromStore(err, "calibration")
	}
	return &CalibrationDetail{Calibration: *c, Results: results}, nil
}

func (s *Service) GetCalibration(ctx context.Context, p *auth.Principal, id int64) (*CalibrationDetail, error) {
	c, err := s.events.GetCalibration(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "calibration")
	}
	if _, err := s.equipmentForRead(ctx, p, c.EquipmentID); err != nil {
		return nil, err
	}
	results, err := s.events.CalibrationResults(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CalibrationDetail{Calibration: *c, Results: results}, nil
}

func (s *Service) ListCalibrations(ctx context.Context, p *auth.Principal, equipmentID int64, limit, offset int) ([]*entity.Calibration, error) {
	if _, err := s.equipmentForRead(ctx, p, equipmentID); err != nil {
		return nil, err
	}
	return s.events.ListCalibrations(ctx, equipmentID, limit, offset)
}

// Status projects the derived calibration/verification standing of one
// equipment row from its persisted events.
func (s *Service) Status(ctx context.Context, p *auth.Principal, equipmentID int64) (*entity.StatusProjection, error) {
	e, err := s.equipmentForRead(ctx, p, equipmentID)
	if err != nil {
		return nil, err
	}
	t, err := s.types.GetByID(ctx, e.EquipmentTypeID)
	if err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	calibrated, verified, inspected, err := s.events.LastEventTimes(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	var latestResults []*entity.CalibrationResult
	if latest, err := s.events.LatestCalibration(ctx, equipmentID); err != nil {
		return nil, err
	} else if latest != nil {
		latestResults, err = s.events.CalibrationResults(ctx, latest.ID)
		if err != nil {
			return nil, err
		}
	}
	proj := ProjectStatus(equipmentID, e.CreatedAt, calibrated, verified, inspected,
		e.InspectionDaysOverride, t.InspectionDays, latestResults)
	return &proj, nil
}

// ---- external analyses ----

type AnalysisTypeInput struct {
	Name                 string `json:"name"`
	DefaultFrequencyDays int    `json:"default_frequency_days"`
}

func (s *Service) CreateAnalysisType(ctx context.Context, p *auth.Principal, in AnalysisTypeInput) (*entity.ExternalAnalysisType, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fault.Invalid("analysis type name required")
	}
	if in.DefaultFrequencyDays <= 0 {
		return nil, fault.Invalid("default_frequency_days must be positive")
	}
	t := &entity.ExternalAnalysisType{Name: in.Name, DefaultFrequencyDays: in.DefaultFrequencyDays}
	if err := s.external.CreateType(ctx, t); err != nil {
		return nil, fault.FromStore(err, "analysis type")
	}
	return t, nil
}

func (s *Service) ListAnalysisTypes(ctx context.Context) ([]*entity.ExternalAnalysisType, error) {
	return s.external.ListTypes(ctx)
}

// SetTerminalFrequency records a cadence override; zero resets the terminal
// to the type default.
func (s *Service) SetTerminalFrequency(ctx context.Context, p *auth.Principal, terminalID, analysisTypeID int64, frequencyDays int) (*entity.ExternalAnalysisTerminal, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if frequencyDays < 0 {
		return nil, fault.Invalid("frequency_days must not be negative")
	}
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	if _, err := s.external.GetType(ctx, analysisTypeID); err != nil {
		return nil, fault.FromStore(err, "analysis type")
	}
	o := &entity.ExternalAnalysisTerminal{TerminalID: terminalID, AnalysisTypeID: analysisTypeID, FrequencyDays: frequencyDays}
	if err := s.external.SetTerminalFrequency(ctx, o); err != nil {
		return nil, fault.FromStore(err, "analysis terminal")
	}
	return o, nil
}

type RecordInput struct {
	AnalysisTypeID    int64      `json:"analysis_type_id"`
	AnalysisCompanyID *int64     `json:"analysis_company_id"`
	PerformedAt       *time.Time `json:"performed_at"`
	ReportNumber      *string    `json:"report_number"`
	ReportPDFURL      *string    `json:"report_pdf_url"`
	ResultValue       *float64   `json:"result_value"`
	ResultUnit        *string    `json:"result_unit"`
	ResultUncertainty *float64   `json:"result_uncertainty"`
	Method            *string    `json:"method"`
}

func (s *Service) CreateRecord(ctx context.Context, p *auth.Principal, terminalID int64, in RecordInput) (*entity.ExternalAnalysisRecord, error) {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return nil, err
	}
	if _, err := s.external.GetType(ctx, in.AnalysisTypeID); err != nil {
		return nil, fault.FromStore(err, "analysis type")
	}
	performedAt := time.Now().UTC()
	if in.PerformedAt != nil {
		performedAt = *in.PerformedAt
	}
	rec := &entity.ExternalAnalysisRecord{
		TerminalID:        terminalID,
		AnalysisTypeID:    in.AnalysisTypeID,
		AnalysisCompanyID: in.AnalysisCompanyID,
		PerformedAt:       performedAt,
		ReportNumber:      in.ReportNumber,
		ReportPDFURL:      in.ReportPDFURL,
		ResultValue:       in.ResultValue,
		ResultUnit:        in.ResultUnit,
		ResultUncertainty: in.ResultUncertainty,
		Method:            in.Method,
	}
	if err := s.external.CreateRecord(ctx, rec); err != nil {
		return nil, fault.FromStore(err, "analysis record")
	}
	return rec, nil
}

func (s *Service) ListRecords(ctx context.Context, p *auth.Principal, terminalID int64, limit, offset int) ([]*entity.ExternalAnalysisRecord, error) {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	return s.external.ListRecords(ctx, terminalID, limit, offset)
}

// AnalysisDue reports the effective cadence and next due date for one
// (terminal, analysis type) pair.
type AnalysisDue struct {
	TerminalID             int64      `json:"terminal_id"`
	AnalysisTypeID         int64      `json:"analysis_type_id"`
	EffectiveFrequencyDays int        `json:"effective_frequency_days"`
	LastPerformedAt        *time.Time `json:"last_performed_at"`
	NextDueAt              time.Time  `json:"next_due_at"`
}

func (s *Service) Due(ctx context.Context, p *auth.Principal, terminalID, analysisTypeID int64) (*AnalysisDue, error) {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	at, err := s.external.GetType(ctx, analysisTypeID)
	if err != nil {
		return nil, fault.FromStore(err, "analysis type")
	}
	override, err := s.external.TerminalFrequency(ctx, terminalID, analysisTypeID)
	if err != nil {
		return nil, err
	}
	freq := at.DefaultFrequencyDays
	if override != nil {
		freq = EffectiveFrequencyDays(override.FrequencyDays, at.DefaultFrequencyDays)
	}
	last, err := s.external.LastPerformedAt(ctx, terminalID, analysisTypeID)
	if err != nil {
		return nil, err
	}
	return &AnalysisDue{
		TerminalID:             terminalID,
		AnalysisTypeID:         analysisTypeID,
		EffectiveFrequencyDays: freq,
		LastPerformedAt:        last,
		NextDueAt:              NextAnalysisDue(last, freq, time.Now().UTC()),
	}, nil
}
