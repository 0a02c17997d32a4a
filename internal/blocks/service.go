// Package blocks implements the company-block CRUD surface. The whole
// feature is admin-gated: non-admin callers get 403 on reads as well as
// writes.
package blocks

import (
	"context"
	"strings"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/blocks/entity"
	"github.com/petrolia/termlab/internal/blocks/repo"
	"github.com/petrolia/termlab/internal/fault"
)

type Service struct {
	blocks *repo.BlockRepo
}

func NewService(blocks *repo.BlockRepo) *Service { return &Service{blocks: blocks} }

// requireCompanyAdmin gates every block operation and resolves the acting
// company.
func requireCompanyAdmin(p *auth.Principal) (int64, error) {
	if !p.UserActive || !p.CompanyActive {
		return 0, fault.Forbidden("account inactive")
	}
	if !p.IsAdmin() {
		return 0, fault.Forbidden("admin role required")
	}
	if p.CompanyID == nil {
		return 0, fault.Forbidden("no company scope")
	}
	return *p.CompanyID, nil
}

type BlockInput struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, in BlockInput) (*entity.CompanyBlock, error) {
	companyID, err := requireCompanyAdmin(p)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fault.Invalid("block name required")
	}
	b := &entity.CompanyBlock{
		CompanyID:       companyID,
		Name:            in.Name,
		IsActive:        true,
		CreatedByUserID: p.UserID,
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if err := s.blocks.Create(ctx, b); err != nil {
		return nil, fault.FromStore(err, "block")
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, limit, offset int) ([]*entity.CompanyBlock, error) {
	companyID, err := requireCompanyAdmin(p)
	if err != nil {
		return nil, err
	}
	return s.blocks.ListByCompany(ctx, companyID, limit, offset)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id int64) (*entity.CompanyBlock, error) {
	companyID, err := requireCompanyAdmin(p)
	if err != nil {
		return nil, err
	}
	b, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return nil, fault.FromStore(err, "block")
	}
	if b.CompanyID != companyID {
		return nil, fault.NotFound("block")
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id int64, in BlockInput) (*entity.CompanyBlock, error) {
	b, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		b.Name = in.Name
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if _, err := s.blocks.Update(ctx, b); err != nil {
		return nil, fault.FromStore(err, "block")
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	n, err := s.blocks.Delete(ctx, id)
	if err != nil {
		return fault.FromStore(err, "block")
	}
	if n == 0 {
		return fault.NotFound("block")
	}
	return nil
}
