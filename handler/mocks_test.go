package handler

import (
	"context"
	"crm/dep"
	"crm/entity"
	"crm/pkg/goutil"
	"crm/repo"
)

type mockUserRepo struct {
	create     func(ctx context.Context, user *entity.User) (uint64, error)
	getByID    func(ctx context.Context, userID uint64) (*entity.User, error)
	getByEmail func(ctx context.Context, email string) (*entity.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) (uint64, error) {
	return m.create(ctx, user)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uint64) (*entity.User, error) {
	return m.getByID(ctx, userID)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.getByEmail(ctx, email)
}

type mockSessionRepo struct {
	create         func(ctx context.Context, session *entity.Session) (uint64, error)
	getByTokenHash func(ctx context.Context, tokenHash string) (*entity.Session, error)
	deleteByUserID func(ctx context.Context, userID uint64) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *entity.Session) (uint64, error) {
	return m.create(ctx, session)
}

func (m *mockSessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.Session, error) {
	return m.getByTokenHash(ctx, tokenHash)
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	return m.deleteByUserID(ctx, userID)
}

type mockCustomerRepo struct {
	createMany       func(ctx context.Context, customers []*entity.Customer) ([]uint64, error)
	getByCSVImportID func(ctx context.Context, userID uint64, csvImportID string, p *repo.Pagination) ([]*entity.Customer, *repo.Pagination, error)
	getByIDs         func(ctx context.Context, userID uint64, customerIDs []uint64) ([]*entity.Customer, error)
	countByUserID    func(ctx context.Context, userID uint64) (uint64, error)
}

func (m *mockCustomerRepo) CreateMany(ctx context.Context, customers []*entity.Customer) ([]uint64, error) {
	return m.createMany(ctx, customers)
}

func (m *mockCustomerRepo) GetByCSVImportID(ctx context.Context, userID uint64, csvImportID string, p *repo.Pagination) ([]*entity.Customer, *repo.Pagination, error) {
	return m.getByCSVImportID(ctx, userID, csvImportID, p)
}

func (m *mockCustomerRepo) GetByIDs(ctx context.Context, userID uint64, customerIDs []uint64) ([]*entity.Customer, error) {
	return m.getByIDs(ctx, userID, customerIDs)
}

func (m *mockCustomerRepo) CountByUserID(ctx context.Context, userID uint64) (uint64, error) {
	return m.countByUserID(ctx, userID)
}

type mockOrderRepo struct {
	createMany    func(ctx context.Context, orders []*entity.Order) ([]uint64, error)
	countByUserID func(ctx context.Context, userID uint64) (uint64, error)
}

func (m *mockOrderRepo) CreateMany(ctx context.Context, orders []*entity.Order) ([]uint64, error) {
	return m.createMany(ctx, orders)
}

func (m *mockOrderRepo) CountByUserID(ctx context.Context, userID uint64) (uint64, error) {
	return m.countByUserID(ctx, userID)
}

type mockCampaignRepo struct {
	create            func(ctx context.Context, campaign *entity.Campaign) (uint64, error)
	update            func(ctx context.Context, campaign *entity.Campaign) error
	getByID           func(ctx context.Context, userID, campaignID uint64) (*entity.Campaign, error)
	getByUserID       func(ctx context.Context, userID uint64, p *repo.Pagination) ([]*entity.Campaign, *repo.Pagination, error)
	getLatestByUserID func(ctx context.Context, userID uint64) (*entity.Campaign, error)
	countByUserID     func(ctx context.Context, userID uint64) (uint64, error)
}

func (m *mockCampaignRepo) Create(ctx context.Context, campaign *entity.Campaign) (uint64, error) {
	return m.create(ctx, campaign)
}

func (m *mockCampaignRepo) Update(ctx context.Context, campaign *entity.Campaign) error {
	return m.update(ctx, campaign)
}

func (m *mockCampaignRepo) GetByID(ctx context.Context, userID, campaignID uint64) (*entity.Campaign, error) {
	return m.getByID(ctx, userID, campaignID)
}

func (m *mockCampaignRepo) GetByUserID(ctx context.Context, userID uint64, p *repo.Pagination) ([]*entity.Campaign, *repo.Pagination, error) {
	return m.getByUserID(ctx, userID, p)
}

func (m *mockCampaignRepo) GetLatestByUserID(ctx context.Context, userID uint64) (*entity.Campaign, error) {
	return m.getLatestByUserID(ctx, userID)
}

func (m *mockCampaignRepo) CountByUserID(ctx context.Context, userID uint64) (uint64, error) {
	return m.countByUserID(ctx, userID)
}

type mockCommLogRepo struct {
	createMany        func(ctx context.Context, commLogs []*entity.CommLog) error
	getByCampaignID   func(ctx context.Context, userID, campaignID uint64) ([]*entity.CommLog, error)
	getByMessageID    func(ctx context.Context, messageID string) (*entity.CommLog, error)
	updateByMessageID func(ctx context.Context, messageID string, commLog *entity.CommLog) error
	aggrByCampaignIDs func(ctx context.Context, userID uint64, campaignIDs []uint64) (map[uint64]*repo.CommLogAggr, error)
}

func (m *mockCommLogRepo) CreateMany(ctx context.Context, commLogs []*entity.CommLog) error {
	return m.createMany(ctx, commLogs)
}

func (m *mockCommLogRepo) GetByCampaignID(ctx context.Context, userID, campaignID uint64) ([]*entity.CommLog, error) {
	return m.getByCampaignID(ctx, userID, campaignID)
}

func (m *mockCommLogRepo) GetByMessageID(ctx context.Context, messageID string) (*entity.CommLog, error) {
	return m.getByMessageID(ctx, messageID)
}

func (m *mockCommLogRepo) UpdateByMessageID(ctx context.Context, messageID string, commLog *entity.CommLog) error {
	return m.updateByMessageID(ctx, messageID, commLog)
}

func (m *mockCommLogRepo) AggrByCampaignIDs(ctx context.Context, userID uint64, campaignIDs []uint64) (map[uint64]*repo.CommLogAggr, error) {
	return m.aggrByCampaignIDs(ctx, userID, campaignIDs)
}

type mockVendor struct {
	send func(ctx context.Context, msg *dep.SendMessage) (*dep.SendResult, error)
}

func (m *mockVendor) Send(ctx context.Context, msg *dep.SendMessage) (*dep.SendResult, error) {
	if m.send != nil {
		return m.send(ctx, msg)
	}
	return &dep.SendResult{
		MessageID: msg.MessageID,
		Status:    entity.CommStatusSent,
	}, nil
}

func (m *mockVendor) Close(_ context.Context) error {
	return nil
}

type mockCompletionService struct {
	chatCompletion func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *mockCompletionService) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.chatCompletion(ctx, systemPrompt, userPrompt)
}

func (m *mockCompletionService) Close(_ context.Context) error {
	return nil
}

func testContextInfo(userID uint64) ContextInfo {
	return ContextInfo{
		User: &entity.User{
			ID: goutil.Uint64(userID),
		},
	}
}
