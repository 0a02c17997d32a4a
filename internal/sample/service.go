// Package sample implements the crude-oil sample workflow: sequenced sample
// creation per terminal, lab analyses referencing the equipment used, and the
// field-level edit history of each analysis.
package sample

import (
	"context"
	"strings"
	"time"

	"github.com/petrolia/termlab/internal/auth"
	equipmententity "github.com/petrolia/termlab/internal/equipment/entity"
	equipmentrepo "github.com/petrolia/termlab/internal/equipment/repo"
	"github.com/petrolia/termlab/internal/fault"
	identityrepo "github.com/petrolia/termlab/internal/identity/repo"
	"github.com/petrolia/termlab/internal/sample/entity"
	"github.com/petrolia/termlab/internal/sample/repo"
	"github.com/petrolia/termlab/pkg/utilities"
)

type Service struct {
	samples   *repo.SampleRepo
	terminals *identityrepo.TerminalRepo
	equipment *equipmentrepo.EquipmentRepo
}

func NewService(samples *repo.SampleRepo, terminals *identityrepo.TerminalRepo, equipment *equipmentrepo.EquipmentRepo) *Service {
	return &Service{samples: samples, terminals: terminals, equipment: equipment}
}

type SampleInput struct {
	ProductName        string     `json:"product_name"`
	Identifier         *string    `json:"identifier"`
	AnalyzedAt         *time.Time `json:"analyzed_at"`
	LabHumidity        *float64   `json:"lab_humidity"`
	LabTemperature     *float64   `json:"lab_temperature"`
	ThermohygrometerID *int64     `json:"thermohygrometer_id"`
}

// Create allocates the next sequence on the terminal and derives the sample
// code. When no identifier is supplied one is generated.
func (s *Service) Create(ctx context.Context, p *auth.Principal, terminalID int64, in SampleInput) (*entity.Sample, error) {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return nil, err
	}
	if in.ThermohygrometerID != nil {
		if err := s.checkEquipmentRef(ctx, p, *in.ThermohygrometerID); err != nil {
			return nil, err
		}
	}
	identifier := in.Identifier
	if identifier == nil || strings.TrimSpace(*identifier) == "" {
		id := utilities.NewSnowflakeID()
		identifier = &id
	}
	smp := &entity.Sample{
		TerminalID:         terminalID,
		ProductName:        in.ProductName,
		Identifier:         identifier,
		AnalyzedAt:         in.AnalyzedAt,
		LabHumidity:        in.LabHumidity,
		LabTemperature:     in.LabTemperature,
		ThermohygrometerID: in.ThermohygrometerID,
		CreatedByUserID:    p.UserID,
	}
	if err := s.samples.Create(ctx, smp); err != nil {
		return nil, fault.FromStore(err, "sample")
	}
	return smp, nil
}

// checkEquipmentRef verifies an equipment reference exists and belongs to the
// caller's company.
func (s *Service) checkEquipmentRef(ctx context.Context, p *auth.Principal, equipmentID int64) error {
	e, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return fault.FromStore(err, "equipment")
	}
	t, err := s.terminals.GetByID(ctx, e.TerminalID)
	if err != nil {
		return fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return fault.NotFound("equipment")
	}
	return nil
}

func (s *Service) getScoped(ctx context.Context, p *auth.Principal, id int64) (*entity.Sample, error) {
	smp, err := s.samples.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "sample")
	}
	t, err := s.terminals.GetByID(ctx, smp.TerminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("sample")
	}
	return smp, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*entity.Sample, error) {
	return s.getScoped(ctx, p, id)
}

func (s *Service) ListByTerminal(ctx context.Context, p *auth.Principal, terminalID int64, limit, offset int) ([]*entity.Sample, error) {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	return s.samples.ListByTerminal(ctx, terminalID, limit, offset)
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, in SampleInput) (*entity.Sample, error) {
	smp, err := s.getScoped(ctx, p, id)
	if err != nil {
		return nil, err
	}
	t, err := s.terminals.GetByID(ctx, smp.TerminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return nil, err
	}
	if in.ThermohygrometerID != nil {
		if err := s.checkEquipmentRef(ctx, p, *in.ThermohygrometerID); err != nil {
			return nil, err
		}
		smp.ThermohygrometerID = in.ThermohygrometerID
	}
	if in.ProductName != "" {
		smp.ProductName = in.ProductName
	}
	if in.Identifier != nil {
		smp.Identifier = in.Identifier
	}
	if in.AnalyzedAt != nil {
		smp.AnalyzedAt = in.AnalyzedAt
	}
	if in.LabHumidity != nil {
		smp.LabHumidity = in.LabHumidity
	}
	if in.LabTemperature != nil {
		smp.LabTemperature = in.LabTemperature
	}
	out, err := s.samples.Update(ctx, smp)
	if err != nil {
		return nil, fault.FromStore(err, "sample")
	}
	return out, nil
}

// Delete removes a never-analyzed sample. Analyzed samples are kept forever.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	smp, err := s.getScoped(ctx, p, id)
	if err != nil {
		return err
	}
	t, err := s.terminals.GetByID(ctx, smp.TerminalID)
	if err != nil {
		return fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return err
	}
	return fault.FromStore(s.samples.Delete(ctx, id), "sample")
}

type AnalysisInput struct {
	AnalysisType          *string  `json:"analysis_type"`
	ProductName           *string  `json:"product_name"`
	TempObsF              *float64 `json:"temp_obs_f"`
	LecturaAPI            *float64 `json:"lectura_api"`
	API60F                *float64 `json:"api_60f"`
	WaterValue            *float64 `json:"water_value"`
	HydrometerID          *int64   `json:"hydrometer_id"`
	ThermometerID         *int64   `json:"thermometer_id"`
	KFEquipmentID         *int64   `json:"kf_equipment_id"`
	KFFactorAvg           *float64 `json:"kf_factor_avg"`
	WaterBalanceID        *int64   `json:"water_balance_id"`
	WaterSampleWeight     *float64 `json:"water_sample_weight"`
	WaterSampleWeightUnit *string  `json:"water_sample_weight_unit"`
	WaterVolumeConsumed   *float64 `json:"water_volume_consumed"`
	WaterVolumeUnit       *string  `json:"water_volume_unit"`
}

func (s *Service) checkAnalysisRefs(ctx context.Context, p *auth.Principal, in AnalysisInput) error {
	for _, ref := range []*int64{in.HydrometerID, in.ThermometerID, in.KFEquipmentID, in.WaterBalanceID} {
		if ref == nil {
			continue
		}
		if err := s.checkEquipmentRef(ctx, p, *ref); err != nil {
			return err
		}
	}
	if in.WaterSampleWeightUnit != nil && !equipmententity.MassUnit(*in.WaterSampleWeightUnit).Valid() {
		return fault.Invalid("unknown mass unit")
	}
	return nil
}

func (s *Service) CreateAnalysis(ctx context.Context, p *auth.Principal, sampleID int64, in AnalysisInput) (*entity.Analysis, error) {
	smp, err := s.getScoped(ctx, p, sampleID)
	if err != nil {
		return nil, err
	}
	t, err := s.terminals.GetByID(ctx, smp.TerminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return nil, err
	}
	if in.AnalysisType == nil || strings.TrimSpace(*in.AnalysisType) == "" {
		return nil, fault.MissingField("analysis_type")
	}
	if err := s.checkAnalysisRefs(ctx, p, in); err != nil {
		return nil, err
	}
	a := &entity.Analysis{
		SampleID:            sampleID,
		AnalysisType:        *in.AnalysisType,
		ProductName:         smp.ProductName,
		TempObsF:            in.TempObsF,
		LecturaAPI:          in.LecturaAPI,
		API60F:              in.API60F,
		WaterValue:          in.WaterValue,
		HydrometerID:        in.HydrometerID,
		ThermometerID:       in.ThermometerID,
		KFEquipmentID:       in.KFEquipmentID,
		KFFactorAvg:         in.KFFactorAvg,
		WaterBalanceID:      in.WaterBalanceID,
		WaterSampleWeight:   in.WaterSampleWeight,
		WaterVolumeConsumed: in.WaterVolumeConsumed,
		WaterVolumeUnit:     in.WaterVolumeUnit,
	}
	if in.ProductName != nil {
		a.ProductName = *in.ProductName
	}
	if in.WaterSampleWeightUnit != nil {
		u := equipmententity.MassUnit(*in.WaterSampleWeightUnit)
		a.WaterSampleWeightUnit = &u
	}
	if err := s.samples.CreateAnalysis(ctx, a); err != nil {
		return nil, fault.FromStore(err, "sample analysis")
	}
	return a, nil
}

func (s *Service) GetAnalysis(ctx context.Context, p *auth.Principal, id int64) (*entity.Analysis, error) {
	a, err := s.samples.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "sample analysis")
	}
	if _, err := s.getScoped(ctx, p, a.SampleID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAnalyses(ctx context.Context, p *auth.Principal, sampleID int64) ([]*entity.Analysis, error) {
	if _, err := s.getScoped(ctx, p, sampleID); err != nil {
		return nil, err
	}
	return s.samples.ListAnalyses(ctx, sampleID)
}

// UpdateAnalysis applies the edit and records the field diff; a no-op edit
// leaves the history untouched.
func (s *Service) UpdateAnalysis(ctx context.Context, p *auth.Principal, id int64, in AnalysisInput) (*entity.Analysis, error) {
	current, err := s.samples.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "sample analysis")
	}
	smp, err := s.getScoped(ctx, p, current.SampleID)
	if err != nil {
		return nil, err
	}
	t, err := s.terminals.GetByID(ctx, smp.TerminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if err := p.CanActOnTerminal(t.CompanyID, t.ID); err != nil {
		return nil, err
	}
	if err := s.checkAnalysisRefs(ctx, p, in); err != nil {
		return nil, err
	}

	apply := func(a *entity.Analysis) error {
		if in.AnalysisType != nil {
			if strings.TrimSpace(*in.AnalysisType) == "" {
				return fault.Invalid("analysis_type must not be empty")
			}
			a.AnalysisType = *in.AnalysisType
		}
		if in.ProductName != nil {
			a.ProductName = *in.ProductName
		}
		if in.TempObsF != nil {
			a.TempObsF = in.TempObsF
		}
		if in.LecturaAPI != nil {
			a.LecturaAPI = in.LecturaAPI
		}
		if in.API60F != nil {
			a.API60F = in.API60F
		}
		if in.WaterValue != nil {
			a.WaterValue = in.WaterValue
		}
		if in.HydrometerID != nil {
			a.HydrometerID = in.HydrometerID
		}
		if in.ThermometerID != nil {
			a.ThermometerID = in.ThermometerID
		}
		if in.KFEquipmentID != nil {
			a.KFEquipmentID = in.KFEquipmentID
		}
		if in.KFFactorAvg != nil {
			a.KFFactorAvg = in.KFFactorAvg
		}
		if in.WaterBalanceID != nil {
			a.WaterBalanceID = in.WaterBalanceID
		}
		if in.WaterSampleWeight != nil {
			a.WaterSampleWeight = in.WaterSampleWeight
		}
		if in.WaterSampleWeightUnit != nil {
			u := equipmententity.MassUnit(*in.WaterSampleWeightUnit)
			a.WaterSampleWeightUnit = &u
		}
		if in.WaterVolumeConsumed != nil {
			a.WaterVolumeConsumed = in.WaterVolumeConsumed
		}
		if in.WaterVolumeUnit != nil {
			a.WaterVolumeUnit = in.WaterVolumeUnit
		}
		return nil
	}
	out, err := s.samples.UpdateAnalysis(ctx, id, p.UserID, apply, DiffAnalysis)
	if err != nil {
		return nil, fault.FromStore(err, "sample analysis")
	}
	return out, nil
}

func (s *Service) AnalysisHistory(ctx context.Context, p *auth.Principal, analysisID int64) ([]*entity.AnalysisHistory, error) {
	a, err := s.samples.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, fault.FromStore(err, "sample analysis")
	}
	if _, err := s.getScoped(ctx, p, a.SampleID); err != nil {
		return nil, err
	}
	return s.samples.AnalysisHistory(ctx, analysisID)
}

func (s *Service) SampleHistory(ctx context.Context, p *auth.Principal, sampleID int64) ([]*entity.AnalysisHistory, error) {
	if _, err := s.getScoped(ctx, p, sampleID); err != nil {
		return nil, err
	}
	return s.samples.SampleHistory(ctx, sampleID)
}
