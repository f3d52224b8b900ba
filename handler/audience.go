package handler

import (
	"context"
	"crm/config"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/validator"
	"crm/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const resolvePageSize = 500

type AudienceHandler interface {
	PreviewAudience(ctx context.Context, req *PreviewAudienceRequest, res *PreviewAudienceResponse) error
	ResolveAudience(ctx context.Context, userID uint64, csvImportID string, filters *entity.Rule) ([]*entity.Customer, error)
}

type audienceHandler struct {
	customerRepo repo.CustomerRepo
}

func NewAudienceHandler(customerRepo repo.CustomerRepo) AudienceHandler {
	return &audienceHandler{
		customerRepo: customerRepo,
	}
}

type PreviewAudienceRequest struct {
	ContextInfo

	CSVImportID *string      `json:"csv_import_id,omitempty"`
	Filters     *entity.Rule `json:"filters,omitempty"`
}

func (r *PreviewAudienceRequest) GetCSVImportID() string {
	if r != nil && r.CSVImportID != nil {
		return *r.CSVImportID
	}
	return ""
}

type PreviewAudienceResponse struct {
	Customers []*entity.Customer `json:"customers,omitempty"`
	Count     *uint64            `json:"count,omitempty"`
	Fields    []string           `json:"fields,omitempty"`
}

var PreviewAudienceValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo":   ContextInfoValidator,
	"csv_import_id": &validator.String{},
})

func (h *audienceHandler) PreviewAudience(ctx context.Context, req *PreviewAudienceRequest, res *PreviewAudienceResponse) error {
	if err := PreviewAudienceValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	if _, err := uuid.Parse(req.GetCSVImportID()); err != nil {
		return errutil.ValidationError(err)
	}

	if err := req.Filters.Validate(); err != nil {
		return errutil.ValidationError(err)
	}

	customers, err := h.ResolveAudience(ctx, req.GetUserID(), req.GetCSVImportID(), req.Filters)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("resolve audience error: %v, csv_import_id: %s", err, req.GetCSVImportID())
		return err
	}

	res.Customers = customers
	res.Count = goutil.Uint64(uint64(len(customers)))
	if len(customers) > 0 {
		res.Fields = customers[0].FieldNames()
	}

	return nil
}

// ResolveAudience pages through one import batch evaluating the rule
// tree per record. Owner and batch scoping are applied before any rule
// evaluation. Output is capped so preview and dispatch always agree.
func (h *audienceHandler) ResolveAudience(ctx context.Context, userID uint64, csvImportID string, filters *entity.Rule) ([]*entity.Customer, error) {
	var (
		matched = make([]*entity.Customer, 0)
		page    = uint32(1)
	)

	for {
		customers, pagination, err := h.customerRepo.GetByCSVImportID(ctx, userID, csvImportID, &repo.Pagination{
			Page:  goutil.Uint32(page),
			Limit: goutil.Uint32(resolvePageSize),
		})
		if err != nil {
			return nil, err
		}

		for _, customer := range customers {
			if !filters.Eval(customer.ToRecord()) {
				continue
			}

			matched = append(matched, customer)
			if len(matched) >= config.MaxAudienceSize {
				return matched, nil
			}
		}

		if !pagination.GetHasNext() {
			break
		}
		page++
	}

	return matched, nil
}
