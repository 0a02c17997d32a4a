// Package equipment implements the instrument catalog and lifecycle: types
// with their measures, maximum errors and verification checklists;
// equipment rows with serials and measure specs; and the append-only type
// and terminal assignment histories.
package equipment

import (
	"context"
	"strings"
	"time"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/equipment/entity"
	"github.com/petrolia/termlab/internal/equipment/repo"
	"github.com/petrolia/termlab/internal/fault"
	identityrepo "github.com/petrolia/termlab/internal/identity/repo"

	"github.com/shopspring/decimal"
)

type Service struct {
	types     *repo.TypeRepo
	equipment *repo.EquipmentRepo
	terminals *identityrepo.TerminalRepo
}

func NewService(types *repo.TypeRepo, equipment *repo.EquipmentRepo, terminals *identityrepo.TerminalRepo) *Service {
	return &Service{types: types, equipment: equipment, terminals: terminals}
}

// ---- equipment types ----

type TypeInput struct {
	Name           string           `json:"name"`
	Role           entity.Role      `json:"role"`
	Observations   *string          `json:"observations"`
	InspectionDays *int             `json:"inspection_days"`
	Measures       []entity.Measure `json:"measures"`
	MaxErrors      []MaxErrorInput  `json:"max_errors"`
}

type MaxErrorInput struct {
	Measure       entity.Measure  `json:"measure"`
	MaxErrorValue decimal.Decimal `json:"max_error_value"`
}

func (s *Service) CreateType(ctx context.Context, p *auth.Principal, in TypeInput) (*entity.EquipmentType, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fault.Invalid("type name required")
	}
	if in.Role == "" {
		in.Role = entity.RoleWorking
	}
	if !in.Role.Valid() {
		return nil, fault.Invalid("unknown equipment role")
	}
	declared := map[entity.Measure]bool{}
	for _, m := range in.Measures {
		if !m.Valid() {
			return nil, fault.Invalid("unknown measure " + string(m))
		}
		declared[m] = true
	}
	maxErrors := make([]entity.TypeMaxError, 0, len(in.MaxErrors))
	for _, me := range in.MaxErrors {
		if !declared[me.Measure] {
			return nil, fault.Invalid("max error for undeclared measure " + string(me.Measure))
		}
		maxErrors = append(maxErrors, entity.TypeMaxError{Measure: me.Measure, MaxErrorValue: me.MaxErrorValue})
	}
	t := &entity.EquipmentType{
		Name:           in.Name,
		Role:           in.Role,
		Observations:   in.Observations,
		InspectionDays: in.InspectionDays,
	}
	if err := s.types.Create(ctx, t, in.Measures, maxErrors); err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	return t, nil
}

// TypeDetail bundles a type with its children for read endpoints.
type TypeDetail struct {
	entity.EquipmentType
	Measures          []entity.Measure           `json:"measures"`
	MaxErrors         []entity.TypeMaxError      `json:"max_errors"`
	VerificationItems []*entity.VerificationItem `json:"verification_items"`
}

func (s *Service) GetType(ctx context.Context, id int64) (*TypeDetail, error) {
	t, err := s.types.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	measures, err := s.types.Measures(ctx, id)
	if err != nil {
		return nil, err
	}
	maxErrors, err := s.types.MaxErrors(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.types.VerificationItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TypeDetail{EquipmentType: *t, Measures: measures, MaxErrors: maxErrors, VerificationItems: items}, nil
}

func (s *Service) ListTypes(ctx context.Context, limit, offset int) ([]*entity.EquipmentType, error) {
	return s.types.List(ctx, limit, offset)
}

func (s *Service) UpdateType(ctx context.Context, p *auth.Principal, id int64, in TypeInput) (*entity.EquipmentType, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	t, err := s.types.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	if in.Name != "" {
		t.Name = in.Name
	}
	if in.Role != "" {
		if !in.Role.Valid() {
			return nil, fault.Invalid("unknown equipment role")
		}
		t.Role = in.Role
	}
	if in.Observations != nil {
		t.Observations = in.Observations
	}
	if in.InspectionDays != nil {
		t.InspectionDays = in.InspectionDays
	}
	if _, err := s.types.Update(ctx, t); err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	if in.Measures != nil {
		for _, m := range in.Measures {
			if !m.Valid() {
				return nil, fault.Invalid("unknown measure " + string(m))
			}
		}
		if err := s.types.ReplaceMeasures(ctx, id, in.Measures); err != nil {
			return nil, fault.FromStore(err, "type measures")
		}
	}
	return t, nil
}

type VerificationItemInput struct {
	Item                string              `json:"item"`
	ResponseType        entity.ResponseType `json:"response_type"`
	IsRequired          bool                `json:"is_required"`
	SortOrder           int                 `json:"sort_order"`
	ExpectedBool        *bool               `json:"expected_bool"`
	ExpectedTextOptions []string            `json:"expected_text_options"`
	ExpectedNumber      *float64            `json:"expected_number"`
	ExpectedNumberMin   *float64            `json:"expected_number_min"`
	ExpectedNumberMax   *float64            `json:"expected_number_max"`
}

func (s *Service) AddVerificationItem(ctx context.Context, p *auth.Principal, typeID int64, in VerificationItemInput) (*entity.VerificationItem, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.types.GetByID(ctx, typeID); err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	if strings.TrimSpace(in.Item) == "" {
		return nil, fault.Invalid("item text required")
	}
	if !in.ResponseType.Valid() {
		return nil, fault.Invalid("unknown response type")
	}
	// expected fields must belong to the declared response family
	switch in.ResponseType {
	case entity.ResponseBool:
		if len(in.ExpectedTextOptions) > 0 || in.ExpectedNumber != nil || in.ExpectedNumberMin != nil || in.ExpectedNumberMax != nil {
			return nil, fault.Invalid("boolean item with non-boolean expectations")
		}
	case entity.ResponseText:
		if in.ExpectedBool != nil || in.ExpectedNumber != nil || in.ExpectedNumberMin != nil || in.ExpectedNumberMax != nil {
			return nil, fault.Invalid("text item with non-text expectations")
		}
	case entity.ResponseNumber:
		if in.ExpectedBool != nil || len(in.ExpectedTextOptions) > 0 {
			return nil, fault.Invalid("number item with non-number expectations")
		}
	}
	it := &entity.VerificationItem{
		EquipmentTypeID:     typeID,
		Item:                in.Item,
		ResponseType:        in.ResponseType,
		IsRequired:          in.IsRequired,
		SortOrder:           in.SortOrder,
		ExpectedBool:        in.ExpectedBool,
		ExpectedTextOptions: in.ExpectedTextOptions,
		ExpectedNumber:      in.ExpectedNumber,
		ExpectedNumberMin:   in.ExpectedNumberMin,
		ExpectedNumberMax:   in.ExpectedNumberMax,
	}
	if err := s.types.AddVerificationItem(ctx, it); err != nil {
		return nil, fault.FromStore(err, "verification item")
	}
	return it, nil
}

func (s *Service) DeleteVerificationItem(ctx context.Context, p *auth.Principal, id int64) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	n, err := s.types.DeleteVerificationItem(ctx, id)
	if err != nil {
		return fault.FromStore(err, "verification item")
	}
	if n == 0 {
		return fault.NotFound("verification item")
	}
	return nil
}

// ---- equipment ----

type EquipmentInput struct {
	EquipmentTypeID        int64                    `json:"equipment_type_id"`
	TerminalID             int64                    `json:"terminal_id"`
	InternalCode           *string                  `json:"internal_code"`
	Status                 entity.Status            `json:"status"`
	InspectionDaysOverride *int                     `json:"inspection_days_override"`
	WeightClass            *string                  `json:"weight_class"`
	NominalMassValue       *float64                 `json:"nominal_mass_value"`
	NominalMassUnit        *entity.MassUnit         `json:"nominal_mass_unit"`
	EMPValue               *decimal.Decimal         `json:"emp_value"`
	ComponentSerials       []ComponentSerialInput   `json:"component_serials"`
	MeasureSpecs           []MeasureSpecInput       `json:"measure_specs"`
}

type ComponentSerialInput struct {
	ComponentName string `json:"component_name"`
	Serial        string `json:"serial"`
}

type MeasureSpecInput struct {
	Measure    entity.Measure `json:"measure"`
	MinValue   *float64       `json:"min_value"`
	MaxValue   *float64       `json:"max_value"`
	Resolution *float64       `json:"resolution"`
}

// authorizeTerminal resolves the terminal and checks the principal may write
// to it.
func (s *Service) authorizeTerminal(ctx context.Context, p *auth.Principal, terminalID int64) error {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return fault.FromStore(err, "terminal")
	}
	return p.CanActOnTerminal(t.CompanyID, t.ID)
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, in EquipmentInput) (*entity.Equipment, error) {
	if err := s.authorizeTerminal(ctx, p, in.TerminalID); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = entity.StatusStored
	}
	if !in.Status.Valid() {
		return nil, fault.Invalid("unknown equipment status")
	}
	if in.NominalMassUnit != nil && !in.NominalMassUnit.Valid() {
		return nil, fault.Invalid("unknown mass unit")
	}
	declared, err := s.declaredMeasures(ctx, in.EquipmentTypeID)
	if err != nil {
		return nil, err
	}
	specs := make([]entity.MeasureSpec, 0, len(in.MeasureSpecs))
	for _, sp := range in.MeasureSpecs {
		if !declared[sp.Measure] {
			return nil, fault.Invalid("measure " + string(sp.Measure) + " not allowed for equipment type")
		}
		specs = append(specs, entity.MeasureSpec{
			Measure: sp.Measure, MinValue: sp.MinValue, MaxValue: sp.MaxValue, Resolution: sp.Resolution,
		})
	}
	serials := make([]entity.ComponentSerial, 0, len(in.ComponentSerials))
	for _, cs := range in.ComponentSerials {
		if cs.ComponentName == "" || cs.Serial == "" {
			return nil, fault.Invalid("component serial requires name and serial")
		}
		serials = append(serials, entity.ComponentSerial{ComponentName: cs.ComponentName, Serial: cs.Serial})
	}
	e := &entity.Equipment{
		EquipmentTypeID:        in.EquipmentTypeID,
		TerminalID:             in.TerminalID,
		CreatedByUserID:        p.UserID,
		InternalCode:           in.InternalCode,
		Status:                 in.Status,
		InspectionDaysOverride: in.InspectionDaysOverride,
		WeightClass:            in.WeightClass,
		NominalMassValue:       in.NominalMassValue,
		NominalMassUnit:        in.NominalMassUnit,
		EMPValue:               in.EMPValue,
	}
	if err := s.equipment.Create(ctx, e, serials, specs); err != nil {
		return nil, fault.FromStore(err, "equipment")
	}
	return e, nil
}

func (s *Service) declaredMeasures(ctx context.Context, typeID int64) (map[entity.Measure]bool, error) {
	measures, err := s.types.Measures(ctx, typeID)
	if err != nil {
		return nil, fault.FromStore(err, "equipment type")
	}
	declared := make(map[entity.Measure]bool, len(measures))
	for _, m := range measures {
		declared[m] = true
	}
	return declared, nil
}

// Detail bundles an equipment row with its serials and specs.
type Detail struct {
	entity.Equipment
	ComponentSerials []entity.ComponentSerial `json:"component_serials"`
	MeasureSpecs     []entity.MeasureSpec     `json:"measure_specs"`
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*Detail, error) {
	e, err := s.getScoped(ctx, p, id)
	if err != nil {
		return nil, err
	}
	serials, err := s.equipment.Serials(ctx, id)
	if err != nil {
		return nil, err
	}
	specs, err := s.equipment.Specs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Equipment: *e, ComponentSerials: serials, MeasureSpecs: specs}, nil
}

func (s *Service) getScoped(ctx context.Context, p *auth.Principal, id int64) (*entity.Equipment, error) {
	e, err := s.equipment.GetByID(ctx, id)
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

func (s *Service) ListByTerminal(ctx context.Context, p *auth.Principal, terminalID int64, limit, offset int) ([]*entity.Equipment, error) {
	t, err := s.terminals.GetByID(ctx, terminalID)
	if err != nil {
		return nil, fault.FromStore(err, "terminal")
	}
	if !p.SameCompany(t.CompanyID) {
		return nil, fault.NotFound("terminal")
	}
	return s.equipment.ListByTerminal(ctx, terminalID, limit, offset)
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, in EquipmentInput) (*entity.Equipment, error) {
	e, err := s.getScoped(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTerminal(ctx, p, e.TerminalID); err != nil {
		return nil, err
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, fault.Invalid("unknown equipment status")
		}
		e.Status = in.Status
	}
	if in.InternalCode != nil {
		e.InternalCode = in.InternalCode
	}
	if in.InspectionDaysOverride != nil {
		e.InspectionDaysOverride = in.InspectionDaysOverride
	}
	if in.WeightClass != nil {
		e.WeightClass = in.WeightClass
	}
	if in.NominalMassValue != nil {
		e.NominalMassValue = in.NominalMassValue
	}
	if in.NominalMassUnit != nil {
		if !in.NominalMassUnit.Valid() {
			return nil, fault.Invalid("unknown mass unit")
		}
		e.NominalMassUnit = in.NominalMassUnit
	}
	if in.EMPValue != nil {
		e.EMPValue = in.EMPValue
	}
	if _, err := s.equipment.Update(ctx, e); err != nil {
		return nil, fault.FromStore(err, "equipment")
	}
	return e, nil
}

// ChangeType reclassifies the equipment and records the history interval.
func (s *Service) ChangeType(ctx context.Context, p *auth.Principal, id, newTypeID int64) (bool, error) {
	e, err := s.getScoped(ctx, p, id)
	if err != nil {
		return false, err
	}
	if err := s.authorizeTerminal(ctx, p, e.TerminalID); err != nil {
		return false, err
	}
	if _, err := s.types.GetByID(ctx, newTypeID); err != nil {
		return false, fault.FromStore(err, "equipment type")
	}
	changed, err := s.equipment.ChangeType(ctx, id, newTypeID, p.UserID, time.Now().UTC())
	if err != nil {
		return false, fault.FromStore(err, "equipment type history")
	}
	return changed, nil
}

// ChangeTerminal relocates the equipment within the company and records the
// history interval.
func (s *Service) ChangeTerminal(ctx context.Context, p *auth.Principal, id, newTerminalID int64) (bool, error) {
	e, err := s.getScoped(ctx, p, id)
	if err != nil {
		return false, err
	}
	if err := s.authorizeTerminal(ctx, p, e.TerminalID); err != nil {
		return false, err
	}
	if err := s.authorizeTerminal(ctx, p, newTerminalID); err != nil {
		return false, err
	}
	from, err := s.terminals.GetByID(ctx, e.TerminalID)
	if err != nil {
		return false, fault.FromStore(err, "terminal")
	}
	to, err := s.terminals.GetByID(ctx, newTerminalID)
	if err != nil {
		return false, fault.FromStore(err, "terminal")
	}
	if from.CompanyID != to.CompanyID {
		return false, fault.Invalid("terminal belongs to another company")
	}
	changed, err := s.equipment.ChangeTerminal(ctx, id, newTerminalID, p.UserID, time.Now().UTC())
	if err != nil {
		return false, fault.FromStore(err, "equipment terminal history")
	}
	return changed, nil
}

// Dispose is the delete operation: equipment is never removed, its status
// becomes disposed.
func (s *Service) Dispose(ctx context.Context, p *auth.Principal, id int64) error {
	e, err := s.getScoped(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.authorizeTerminal(ctx, p, e.TerminalID); err != nil {
		return err
	}
	e.Status = entity.StatusDisposed
	_, err = s.equipment.Update(ctx, e)
	return fault.FromStore(err, "equipment")
}

func (s *Service) TypeHistory(ctx context.Context, p *auth.Principal, id int64) ([]*entity.TypeHistory, error) {
	if _, err := s.getScoped(ctx, p, id); err != nil {
		return nil, err
	}
	return s.equipment.TypeHistory(ctx, id)
}

func (s *Service) TerminalHistory(ctx context.Context, p *auth.Principal, id int64) ([]*entity.TerminalHistory, error) {
	if _, err := s.getScoped(ctx, p, id); err != nil {
		return nil, err
	}
	return s.equipment.TerminalHistory(ctx, id)
}
