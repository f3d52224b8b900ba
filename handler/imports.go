package handler

import (
	"context"
	"crm/config"
	"crm/entity"
	"crm/pkg/csvutil"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/pkg/httputil"
	"crm/pkg/router"
	"crm/pkg/validator"
	"crm/repo"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	insertChunkSize   = 500
	maxConcurrentJobs = 5
)

// canonical columns lifted out of the open attribute map
var canonicalCustomerFields = map[string]struct{}{
	"email": {},
	"name":  {},
	"phone": {},
}

// nameFields is the derivation chain for a customer's display name.
var nameFields = []string{"name", "full_name", "fullname", "customer_name"}

// firstLastPairs are fallback column pairs joined with a space.
var firstLastPairs = [][2]string{
	{"first_name", "last_name"},
	{"firstname", "lastname"},
}

type ImportHandler interface {
	UploadCustomers(ctx context.Context, req *UploadCustomersRequest, res *UploadCustomersResponse) error
	UploadOrders(ctx context.Context, req *UploadOrdersRequest, res *UploadOrdersResponse) error
}

type importHandler struct {
	customerRepo repo.CustomerRepo
	orderRepo    repo.OrderRepo
}

func NewImportHandler(customerRepo repo.CustomerRepo, orderRepo repo.OrderRepo) ImportHandler {
	return &importHandler{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
	}
}

type UploadCustomersRequest struct {
	ContextInfo

	FileMeta *router.FileMeta
}

type UploadCustomersResponse struct {
	CSVImportID   *string            `json:"csv_import_id,omitempty"`
	ImportedCount *uint64            `json:"imported_count,omitempty"`
	ConflictCount *uint64            `json:"conflict_count,omitempty"`
	Fields        []string           `json:"fields,omitempty"`
	Preview       []*entity.Customer `json:"preview,omitempty"`
}

var UploadCustomersValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
	"FileMeta":    FileInfoValidator(false, httputil.MaxFileSize, []string{"text/csv", "application/vnd.ms-excel", "application/octet-stream"}),
})

func (h *importHandler) UploadCustomers(ctx context.Context, req *UploadCustomersRequest, res *UploadCustomersResponse) error {
	if err := UploadCustomersValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	b, err := io.ReadAll(req.FileMeta.File)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("read file error: %v", err)
		return errutil.BadRequestError(err)
	}

	rows, fields, err := csvutil.Parse(b)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("parse csv error: %v", err)
		return errutil.BadRequestError(err)
	}

	var (
		now         = uint64(time.Now().Unix())
		csvImportID = uuid.New().String()
		seenEmails  = make(map[string]struct{}, len(rows))

		customers     = make([]*entity.Customer, 0, len(rows))
		conflictCount uint64
	)

	for _, row := range rows {
		customer := &entity.Customer{
			UserID:      goutil.Uint64(req.GetUserID()),
			CSVImportID: goutil.String(csvImportID),
			Attrs:       make(map[string]interface{}),
			CreateTime:  goutil.Uint64(now),
			UpdateTime:  goutil.Uint64(now),
		}

		// email is optional; uniqueness applies only when one is present
		if email, ok := rowString(row, "email"); ok && email != "" {
			email = strings.ToLower(email)

			if _, ok := seenEmails[email]; ok {
				conflictCount++
				continue
			}
			seenEmails[email] = struct{}{}

			customer.Email = goutil.String(email)
		}

		if name := deriveName(row); name != "" {
			customer.Name = goutil.String(name)
		}

		if phone, ok := rowString(row, "phone"); ok {
			customer.Phone = goutil.String(phone)
		}

		for k, v := range row {
			if _, ok := canonicalCustomerFields[k]; ok {
				continue
			}
			customer.Attrs[k] = v
		}

		customers = append(customers, customer)
	}

	if err := h.insertCustomers(ctx, customers); err != nil {
		log.Ctx(ctx).Error().Msgf("insert customers error: %v, csv_import_id: %s", err, csvImportID)
		return err
	}

	preview := customers
	if len(preview) > config.MaxAudienceSize {
		preview = preview[:config.MaxAudienceSize]
	}

	res.CSVImportID = goutil.String(csvImportID)
	res.ImportedCount = goutil.Uint64(uint64(len(customers)))
	res.ConflictCount = goutil.Uint64(conflictCount)
	res.Fields = filterableFields(fields)
	res.Preview = preview

	return nil
}

func (h *importHandler) insertCustomers(ctx context.Context, customers []*entity.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	var (
		g  = new(errgroup.Group)
		ch = make(chan struct{}, maxConcurrentJobs)
	)

	for start := 0; start < len(customers); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(customers) {
			end = len(customers)
		}

		chunk := customers[start:end]
		ch <- struct{}{}

		g.Go(func() error {
			defer func() {
				<-ch
			}()

			_, err := h.customerRepo.CreateMany(ctx, chunk)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("bulk insert customers failed: %w", err)
	}

	return nil
}

type UploadOrdersRequest struct {
	ContextInfo

	FileMeta *router.FileMeta
}

type UploadOrdersResponse struct {
	UploadID      *string `json:"upload_id,omitempty"`
	ImportedCount *uint64 `json:"imported_count,omitempty"`
	SkippedCount  *uint64 `json:"skipped_count,omitempty"`
}

var UploadOrdersValidator = validator.MustForm(map[string]validator.Validator{
	"ContextInfo": ContextInfoValidator,
	"FileMeta":    FileInfoValidator(false, httputil.MaxFileSize, []string{"text/csv", "application/vnd.ms-excel", "application/octet-stream"}),
})

func (h *importHandler) UploadOrders(ctx context.Context, req *UploadOrdersRequest, res *UploadOrdersResponse) error {
	if err := UploadOrdersValidator.Validate(req); err != nil {
		return errutil.ValidationError(err)
	}

	b, err := io.ReadAll(req.FileMeta.File)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("read file error: %v", err)
		return errutil.BadRequestError(err)
	}

	rows, _, err := csvutil.Parse(b)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("parse csv error: %v", err)
		return errutil.BadRequestError(err)
	}

	var (
		now      = uint64(time.Now().Unix())
		uploadID = uuid.New().String()

		orders       = make([]*entity.Order, 0, len(rows))
		skippedCount uint64
	)

	for _, row := range rows {
		customerID, ok := rowString(row, "customer_id")
		if !ok || customerID == "" {
			skippedCount++
			continue
		}

		order := &entity.Order{
			UserID:     goutil.Uint64(req.GetUserID()),
			CustomerID: goutil.String(customerID),
			UploadID:   goutil.String(uploadID),
			CreateTime: goutil.Uint64(now),
			UpdateTime: goutil.Uint64(now),
		}

		if amount, ok := row["amount"].(float64); ok {
			order.Amount = goutil.Float64(amount)
		}

		if orderDate, ok := rowString(row, "order_date"); ok {
			if t, err := time.Parse("2006-01-02", orderDate); err == nil {
				order.OrderDate = goutil.Uint64(uint64(t.Unix()))
			}
		}

		if items, ok := rowString(row, "items"); ok {
			parts := strings.Split(items, ";")
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					order.Items = append(order.Items, p)
				}
			}
		}

		orders = append(orders, order)
	}

	if len(orders) > 0 {
		if _, err := h.orderRepo.CreateMany(ctx, orders); err != nil {
			log.Ctx(ctx).Error().Msgf("insert orders error: %v, upload_id: %s", err, uploadID)
			return err
		}
	}

	res.UploadID = goutil.String(uploadID)
	res.ImportedCount = goutil.Uint64(uint64(len(orders)))
	res.SkippedCount = goutil.Uint64(skippedCount)

	return nil
}

// deriveName resolves a display name from the first populated column of
// the derivation chain, falling back to first/last name pairs.
func deriveName(row csvutil.Row) string {
	for _, field := range nameFields {
		if name, ok := rowString(row, field); ok && name != "" {
			return name
		}
	}

	for _, pair := range firstLastPairs {
		first, _ := rowString(row, pair[0])
		last, _ := rowString(row, pair[1])
		if full := strings.TrimSpace(strings.Join([]string{first, last}, " ")); full != "" {
			return full
		}
	}

	return ""
}

func rowString(row csvutil.Row, key string) (string, bool) {
	v, ok := row[key]
	if !ok {
		return "", false
	}

	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", val)), true
	}
	return "", false
}

func filterableFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}
