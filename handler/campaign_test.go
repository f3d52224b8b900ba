package handler

import (
	"context"
	"crm/dep"
	"crm/entity"
	"crm/pkg/errutil"
	"crm/pkg/goutil"
	"crm/repo"
	"errors"
	"net/http"
	"testing"
)

const testImportID = "ec0df5b2-6a57-4c43-9c45-4c26a0b3c1ef"

func testCampaign(id uint64) *entity.Campaign {
	campaign := entity.NewCampaign(1, "summer", "summer launch")
	campaign.ID = goutil.Uint64(id)
	campaign.Message = goutil.String("Hi {{name}}, 10% off!")
	campaign.Filters = spendOver(50)
	campaign.CSVImportID = goutil.String(testImportID)
	return campaign
}

func TestCreateCampaign(t *testing.T) {
	var created *entity.Campaign

	campaignRepo := &mockCampaignRepo{
		create: func(_ context.Context, campaign *entity.Campaign) (uint64, error) {
			created = campaign
			return 42, nil
		},
	}

	h := NewCampaignHandler(campaignRepo, &mockCommLogRepo{}, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &CreateCampaignRequest{
		ContextInfo: testContextInfo(1),
		Name:        goutil.String("summer"),
		Message:     goutil.String("Hi {{name}}!"),
		Filters:     spendOver(50),
		CSVImportID: goutil.String(testImportID),
	}
	res := new(CreateCampaignResponse)

	if err := h.CreateCampaign(context.Background(), req, res); err != nil {
		t.Fatalf("create campaign error: %v", err)
	}

	if res.Campaign.GetID() != 42 {
		t.Errorf("unexpected campaign id: %d", res.Campaign.GetID())
	}
	if created.IsSent() {
		t.Errorf("new campaign should not be sent")
	}
}

func TestCreateCampaignBadImportID(t *testing.T) {
	h := NewCampaignHandler(&mockCampaignRepo{}, &mockCommLogRepo{}, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &CreateCampaignRequest{
		ContextInfo: testContextInfo(1),
		Name:        goutil.String("summer"),
		Message:     goutil.String("Hi {{name}}!"),
		CSVImportID: goutil.String("nope"),
	}

	err := h.CreateCampaign(context.Background(), req, new(CreateCampaignResponse))
	if code, _ := errutil.ParseHttpError(err); code != http.StatusBadRequest {
		t.Errorf("got code %d, want %d", code, http.StatusBadRequest)
	}
}

func TestSendCampaign(t *testing.T) {
	var (
		savedLogs []*entity.CommLog
		updated   *entity.Campaign
	)

	campaignRepo := &mockCampaignRepo{
		getByID: func(_ context.Context, userID, campaignID uint64) (*entity.Campaign, error) {
			return testCampaign(campaignID), nil
		},
		update: func(_ context.Context, campaign *entity.Campaign) error {
			updated = campaign
			return nil
		},
	}

	commLogRepo := &mockCommLogRepo{
		createMany: func(_ context.Context, commLogs []*entity.CommLog) error {
			savedLogs = commLogs
			return nil
		},
	}

	customerRepo := &mockCustomerRepo{
		getByCSVImportID: func(_ context.Context, _ uint64, csvImportID string, _ *repo.Pagination) ([]*entity.Customer, *repo.Pagination, error) {
			return []*entity.Customer{
				testCustomer(1, csvImportID, 120),
				testCustomer(2, csvImportID, 30),
				testCustomer(3, csvImportID, 80),
				testCustomer(4, csvImportID, 95),
			}, &repo.Pagination{HasNext: goutil.Bool(false)}, nil
		},
	}

	h := NewCampaignHandler(campaignRepo, commLogRepo, customerRepo,
		NewAudienceHandler(customerRepo), &mockVendor{}, nil)

	req := &SendCampaignRequest{
		ContextInfo: testContextInfo(1),
		CampaignID:  goutil.Uint64(42),
	}
	res := new(SendCampaignResponse)

	if err := h.SendCampaign(context.Background(), req, res); err != nil {
		t.Fatalf("send campaign error: %v", err)
	}

	// customer 2 fails the spend filter
	if len(savedLogs) != 3 {
		t.Fatalf("got %d comm logs, want 3", len(savedLogs))
	}
	for _, commLog := range savedLogs {
		if commLog.GetMessageID() == "" {
			t.Errorf("comm log missing message id")
		}
		if commLog.GetCampaignID() != 42 {
			t.Errorf("unexpected campaign id: %d", commLog.GetCampaignID())
		}
		if commLog.GetStatus() != entity.CommStatusSent {
			t.Errorf("unexpected status: %v", commLog.GetStatus())
		}
	}

	if !updated.IsSent() {
		t.Errorf("campaign should be marked sent")
	}
	if len(updated.GetCustomerIDs()) != 3 {
		t.Errorf("got %d customer ids, want 3", len(updated.GetCustomerIDs()))
	}

	if res.SentCount == nil || *res.SentCount != 3 {
		t.Errorf("unexpected sent count: %v", res.SentCount)
	}
	if res.FailedCount == nil || *res.FailedCount != 0 {
		t.Errorf("unexpected failed count: %v", res.FailedCount)
	}
}

func TestSendCampaignVendorError(t *testing.T) {
	var savedLogs []*entity.CommLog

	campaignRepo := &mockCampaignRepo{
		getByID: func(_ context.Context, _, campaignID uint64) (*entity.Campaign, error) {
			return testCampaign(campaignID), nil
		},
		update: func(_ context.Context, _ *entity.Campaign) error {
			return nil
		},
	}

	commLogRepo := &mockCommLogRepo{
		createMany: func(_ context.Context, commLogs []*entity.CommLog) error {
			savedLogs = commLogs
			return nil
		},
	}

	customerRepo := &mockCustomerRepo{
		getByCSVImportID: func(_ context.Context, _ uint64, csvImportID string, _ *repo.Pagination) ([]*entity.Customer, *repo.Pagination, error) {
			return []*entity.Customer{
				testCustomer(1, csvImportID, 120),
			}, &repo.Pagination{HasNext: goutil.Bool(false)}, nil
		},
	}

	vendor := &mockVendor{
		send: func(_ context.Context, _ *dep.SendMessage) (*dep.SendResult, error) {
			return nil, errors.New("vendor unavailable")
		},
	}

	h := NewCampaignHandler(campaignRepo, commLogRepo, customerRepo,
		NewAudienceHandler(customerRepo), vendor, nil)

	req := &SendCampaignRequest{
		ContextInfo: testContextInfo(1),
		CampaignID:  goutil.Uint64(42),
	}
	res := new(SendCampaignResponse)

	// a vendor outage records failures, it does not fail the send
	if err := h.SendCampaign(context.Background(), req, res); err != nil {
		t.Fatalf("send campaign error: %v", err)
	}

	if len(savedLogs) != 1 || savedLogs[0].GetStatus() != entity.CommStatusFailed {
		t.Errorf("vendor error should record a failed comm log")
	}
	if res.FailedCount == nil || *res.FailedCount != 1 {
		t.Errorf("unexpected failed count: %v", res.FailedCount)
	}
}

func TestSendCampaignAlreadySent(t *testing.T) {
	campaignRepo := &mockCampaignRepo{
		getByID: func(_ context.Context, _, campaignID uint64) (*entity.Campaign, error) {
			campaign := testCampaign(campaignID)
			campaign.SentTime = goutil.Uint64(1700000000)
			return campaign, nil
		},
	}

	h := NewCampaignHandler(campaignRepo, &mockCommLogRepo{}, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &SendCampaignRequest{
		ContextInfo: testContextInfo(1),
		CampaignID:  goutil.Uint64(42),
	}

	err := h.SendCampaign(context.Background(), req, new(SendCampaignResponse))
	if code, _ := errutil.ParseHttpError(err); code != http.StatusConflict {
		t.Errorf("got code %d, want %d", code, http.StatusConflict)
	}
}

func TestSendCampaignNotOwner(t *testing.T) {
	campaignRepo := &mockCampaignRepo{
		getByID: func(_ context.Context, _, _ uint64) (*entity.Campaign, error) {
			return nil, repo.ErrCampaignNotFound
		},
	}

	h := NewCampaignHandler(campaignRepo, &mockCommLogRepo{}, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &SendCampaignRequest{
		ContextInfo: testContextInfo(2),
		CampaignID:  goutil.Uint64(42),
	}

	// another user's campaign surfaces as not found, never forbidden
	err := h.SendCampaign(context.Background(), req, new(SendCampaignResponse))
	if code, _ := errutil.ParseHttpError(err); code != http.StatusNotFound {
		t.Errorf("got code %d, want %d", code, http.StatusNotFound)
	}
}

func TestGetCampaign(t *testing.T) {
	campaignRepo := &mockCampaignRepo{
		getByID: func(_ context.Context, _, campaignID uint64) (*entity.Campaign, error) {
			campaign := testCampaign(campaignID)
			campaign.CustomerIDs = []uint64{1, 3}
			campaign.SentTime = goutil.Uint64(1700000000)
			return campaign, nil
		},
	}

	commLogRepo := &mockCommLogRepo{
		getByCampaignID: func(_ context.Context, _, campaignID uint64) ([]*entity.CommLog, error) {
			return []*entity.CommLog{
				{
					CampaignID: goutil.Uint64(campaignID),
					CustomerID: goutil.Uint64(1),
					Status:     entity.CommStatusSent,
					MessageID:  goutil.String("m-1"),
				},
				{
					CampaignID: goutil.Uint64(campaignID),
					CustomerID: goutil.Uint64(3),
					Status:     entity.CommStatusFailed,
					MessageID:  goutil.String("m-2"),
				},
			}, nil
		},
	}

	customerRepo := &mockCustomerRepo{
		getByIDs: func(_ context.Context, _ uint64, customerIDs []uint64) ([]*entity.Customer, error) {
			customers := make([]*entity.Customer, 0, len(customerIDs))
			for _, id := range customerIDs {
				customers = append(customers, testCustomer(id, testImportID, 120))
			}
			return customers, nil
		},
	}

	h := NewCampaignHandler(campaignRepo, commLogRepo, customerRepo, nil, &mockVendor{}, nil)

	req := &GetCampaignRequest{
		ContextInfo: testContextInfo(1),
		CampaignID:  goutil.Uint64(42),
	}
	res := new(GetCampaignResponse)

	if err := h.GetCampaign(context.Background(), req, res); err != nil {
		t.Fatalf("get campaign error: %v", err)
	}

	if len(res.Recipients) != 2 {
		t.Fatalf("got %d recipients, want 2", len(res.Recipients))
	}
	if res.Recipients[0].Customer.GetID() != 1 {
		t.Errorf("recipient not joined with customer")
	}
	if *res.SentCount != 1 || *res.FailedCount != 1 {
		t.Errorf("unexpected counts: sent %d, failed %d", *res.SentCount, *res.FailedCount)
	}
}

func TestGetCampaigns(t *testing.T) {
	campaignRepo := &mockCampaignRepo{
		getByUserID: func(_ context.Context, _ uint64, p *repo.Pagination) ([]*entity.Campaign, *repo.Pagination, error) {
			return []*entity.Campaign{
				testCampaign(1),
				testCampaign(2),
			}, &repo.Pagination{HasNext: goutil.Bool(false)}, nil
		},
	}

	commLogRepo := &mockCommLogRepo{
		aggrByCampaignIDs: func(_ context.Context, _ uint64, campaignIDs []uint64) (map[uint64]*repo.CommLogAggr, error) {
			return map[uint64]*repo.CommLogAggr{
				1: {
					CampaignID:  1,
					Total:       10,
					SentCount:   9,
					FailedCount: 1,
				},
			}, nil
		},
	}

	h := NewCampaignHandler(campaignRepo, commLogRepo, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &GetCampaignsRequest{
		ContextInfo: testContextInfo(1),
	}
	res := new(GetCampaignsResponse)

	if err := h.GetCampaigns(context.Background(), req, res); err != nil {
		t.Fatalf("get campaigns error: %v", err)
	}

	if len(res.Campaigns) != 2 {
		t.Fatalf("got %d campaigns, want 2", len(res.Campaigns))
	}
	if *res.Campaigns[0].SentCount != 9 {
		t.Errorf("unexpected sent count: %d", *res.Campaigns[0].SentCount)
	}

	// a campaign with no comm logs still carries zeroed stats
	if *res.Campaigns[1].Total != 0 || *res.Campaigns[1].SentCount != 0 {
		t.Errorf("campaign without logs should have zeroed stats")
	}
}

func TestOnDeliveryReceipt(t *testing.T) {
	var (
		updatedID  string
		updatedLog *entity.CommLog
	)

	commLogRepo := &mockCommLogRepo{
		getByMessageID: func(_ context.Context, messageID string) (*entity.CommLog, error) {
			if messageID != "m-1" {
				return nil, repo.ErrCommLogNotFound
			}
			return &entity.CommLog{
				MessageID: goutil.String(messageID),
				Status:    entity.CommStatusSent,
			}, nil
		},
		updateByMessageID: func(_ context.Context, messageID string, commLog *entity.CommLog) error {
			updatedID = messageID
			updatedLog = commLog
			return nil
		},
	}

	h := NewCampaignHandler(&mockCampaignRepo{}, commLogRepo, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &OnDeliveryReceiptRequest{
		MessageID: goutil.String("m-1"),
		Status:    goutil.String("FAILED"),
		Timestamp: goutil.Uint64(1700000050),
	}

	if err := h.OnDeliveryReceipt(context.Background(), req, new(OnDeliveryReceiptResponse)); err != nil {
		t.Fatalf("on delivery receipt error: %v", err)
	}

	if updatedID != "m-1" {
		t.Errorf("unexpected message id: %s", updatedID)
	}
	if updatedLog.GetStatus() != entity.CommStatusFailed {
		t.Errorf("unexpected status: %v", updatedLog.GetStatus())
	}
	if updatedLog.GetDeliveredTime() != 1700000050 {
		t.Errorf("unexpected delivered time: %d", updatedLog.GetDeliveredTime())
	}

	// receipts are last-write-wins, a repeat just updates again
	req.Status = goutil.String("SENT")
	if err := h.OnDeliveryReceipt(context.Background(), req, new(OnDeliveryReceiptResponse)); err != nil {
		t.Fatalf("repeat receipt error: %v", err)
	}
	if updatedLog.GetStatus() != entity.CommStatusSent {
		t.Errorf("repeat receipt should overwrite status")
	}
}

func TestOnDeliveryReceiptUnknownStatus(t *testing.T) {
	h := NewCampaignHandler(&mockCampaignRepo{}, &mockCommLogRepo{}, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &OnDeliveryReceiptRequest{
		MessageID: goutil.String("m-1"),
		Status:    goutil.String("BOUNCED"),
	}

	err := h.OnDeliveryReceipt(context.Background(), req, new(OnDeliveryReceiptResponse))
	if code, _ := errutil.ParseHttpError(err); code != http.StatusBadRequest {
		t.Errorf("got code %d, want %d", code, http.StatusBadRequest)
	}
}

func TestOnDeliveryReceiptUnknownMessage(t *testing.T) {
	commLogRepo := &mockCommLogRepo{
		getByMessageID: func(_ context.Context, _ string) (*entity.CommLog, error) {
			return nil, repo.ErrCommLogNotFound
		},
	}

	h := NewCampaignHandler(&mockCampaignRepo{}, commLogRepo, &mockCustomerRepo{}, nil, &mockVendor{}, nil)

	req := &OnDeliveryReceiptRequest{
		MessageID: goutil.String("ghost"),
		Status:    goutil.String("SENT"),
	}

	err := h.OnDeliveryReceipt(context.Background(), req, new(OnDeliveryReceiptResponse))
	if code, _ := errutil.ParseHttpError(err); code != http.StatusNotFound {
		t.Errorf("got code %d, want %d", code, http.StatusNotFound)
	}
}
