package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dealnest/dealnest-backend/internal/domain/valueobject"
	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

type mockDealRepo struct {
	mock.Mock
}

func (m *mockDealRepo) Create(ctx context.Context, deal *models.Deal) error {
	args := m.Called(ctx, deal)
	return args.Error(0)
}

func (m *mockDealRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) GetBySlug(ctx context.Context, slug string) (*models.Deal, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) GetByReference(ctx context.Context, reference string) (*models.Deal, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Deal, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Deal), args.Error(1)
}

func (m *mockDealRepo) Delete(ctx context.Context, id, clientID uuid.UUID) error {
	args := m.Called(ctx, id, clientID)
	return args.Error(0)
}

func (m *mockDealRepo) Assign(ctx context.Context, dealID, freelancerID uuid.UUID) (*models.Deal, error) {
	args := m.Called(ctx, dealID, freelancerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) UpdateStatus(ctx context.Context, dealID uuid.UUID, from, to string, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, from, to, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) RequestRevision(ctx context.Context, dealID uuid.UUID, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) ListEvents(ctx context.Context, dealID uuid.UUID) ([]models.DealEvent, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]models.DealEvent), args.Error(1)
}

func (m *mockDealRepo) Fund(ctx context.Context, dealID, clientID uuid.UUID, breakdown valueobject.FeeBreakdown, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, clientID, breakdown, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) Deliver(ctx context.Context, dealID uuid.UUID, sub *models.Submission, windowExpires time.Time, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, sub, windowExpires, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) Release(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, fromStatuses, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) Refund(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, fromStatuses, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) OpenDispute(ctx context.Context, dealID uuid.UUID, dispute *models.Dispute, event *models.DealEvent) (*models.Deal, error) {
	args := m.Called(ctx, dealID, dispute, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDealRepo) ResolveDispute(ctx context.Context, dealID, adminID uuid.UUID, decision, notes string, event *models.DealEvent) (*models.Deal, *models.Dispute, error) {
	args := m.Called(ctx, dealID, adminID, decision, notes, event)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Deal), args.Get(1).(*models.Dispute), args.Error(2)
}

type mockSettingsProvider struct {
	mock.Mock
}

func (m *mockSettingsProvider) Get(ctx context.Context) (*models.PlatformSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformSettings), args.Error(1)
}

type mockSubmissionLister struct {
	mock.Mock
}

func (m *mockSubmissionLister) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Submission, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).([]models.Submission), args.Error(1)
}

func defaultSettings() *models.PlatformSettings {
	return &models.PlatformSettings{
		ID:                 1,
		PlatformFeePercent: 5,
		MinPlatformFee:     0,
		MaxPlatformFee:     0,
		FeePayer:           models.FeePayerClient,
		DisputeWindowDays:  5,
		AutoReleaseDays:    3,
	}
}

func dealFixture(status string) (*models.Deal, uuid.UUID, uuid.UUID) {
	clientID := uuid.New()
	freelancerID := uuid.New()
	deal := &models.Deal{
		ID:           uuid.New(),
		ReferenceID:  "DL-2026-0001",
		ClientID:     clientID,
		FreelancerID: &freelancerID,
		Title:        "Дизайн лендинга",
		Amount:       1000,
		Currency:     "USD",
		Status:       status,
	}
	return deal, clientID, freelancerID
}

func TestDealService_CreateDeal_Success(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()
	clientID := uuid.New()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Deal")).Return(nil)

	deal, err := svc.CreateDeal(ctx, clientID, CreateDealInput{
		Title:    "  Дизайн лендинга  ",
		Amount:   1000,
		Currency: "usd",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Дизайн лендинга", deal.Title)
	assert.Equal(t, "USD", deal.Currency)
	assert.Equal(t, models.DealStatusCreated, deal.Status)
	repo.AssertExpectations(t)
}

func TestDealService_CreateDeal_Invalid(t *testing.T) {
	svc := NewDealService(new(mockDealRepo), new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	_, err := svc.CreateDeal(ctx, uuid.New(), CreateDealInput{Title: "  ", Amount: 1000})
	assert.Error(t, err)

	_, err = svc.CreateDeal(ctx, uuid.New(), CreateDealInput{Title: "Работа", Amount: 0})
	assert.Error(t, err)
}

func TestDealService_Fund_Success(t *testing.T) {
	repo := new(mockDealRepo)
	settings := new(mockSettingsProvider)
	svc := NewDealService(repo, settings, new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusCreated)
	funded := *deal
	funded.Status = models.DealStatusFunded

	wantBreakdown := valueobject.FeeBreakdown{
		BaseAmount:      1000,
		ClientFee:       50,
		TotalToPay:      1050,
		TotalToReceive:  1000,
		PlatformRevenue: 50,
	}

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	settings.On("Get", ctx).Return(defaultSettings(), nil)
	repo.On("Fund", ctx, deal.ID, clientID, wantBreakdown, mock.AnythingOfType("*models.DealEvent")).Return(&funded, nil)

	got, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionFund, ActionInput{})
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusFunded, got.Status)
	repo.AssertExpectations(t)
	settings.AssertExpectations(t)
}

func TestDealService_Fund_OnlyClient(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, freelancerID := dealFixture(models.DealStatusCreated)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.PerformAction(ctx, deal.ID, freelancerID, models.DealActionFund, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDealService_Fund_RequiresFreelancer(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	// Сделка без назначенного исполнителя: деньги зависли бы в эскроу,
	// потому что принять профинансированную сделку уже нельзя.
	deal, clientID, _ := dealFixture(models.DealStatusCreated)
	deal.FreelancerID = nil
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionFund, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition,
		"фандинг до назначения исполнителя должен отклоняться")
	repo.AssertNotCalled(t, "Fund")
}

func TestDealService_Fund_WrongStatus(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusFunded)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionFund, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestDealService_Fund_InsufficientFunds(t *testing.T) {
	repo := new(mockDealRepo)
	settings := new(mockSettingsProvider)
	svc := NewDealService(repo, settings, new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusCreated)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	settings.On("Get", ctx).Return(defaultSettings(), nil)
	repo.On("Fund", ctx, deal.ID, clientID, mock.Anything, mock.Anything).Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionFund, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)
}

func TestDealService_StartWork_Success(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, freelancerID := dealFixture(models.DealStatusFunded)
	inProgress := *deal
	inProgress.Status = models.DealStatusInProgress

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("UpdateStatus", ctx, deal.ID, models.DealStatusFunded, models.DealStatusInProgress,
		mock.AnythingOfType("*models.DealEvent")).Return(&inProgress, nil)

	got, err := svc.PerformAction(ctx, deal.ID, freelancerID, models.DealActionStartWork, ActionInput{})
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusInProgress, got.Status)
}

func TestDealService_Deliver_Success(t *testing.T) {
	repo := new(mockDealRepo)
	settings := new(mockSettingsProvider)
	svc := NewDealService(repo, settings, new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, freelancerID := dealFixture(models.DealStatusInProgress)
	delivered := *deal
	delivered.Status = models.DealStatusDelivered

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	settings.On("Get", ctx).Return(defaultSettings(), nil)
	repo.On("Deliver", ctx, deal.ID, mock.MatchedBy(func(sub *models.Submission) bool {
		return sub.FreelancerID == freelancerID && sub.Notes == "готово"
	}), mock.MatchedBy(func(expires time.Time) bool {
		// Окно спора — 5 дней от текущего момента.
		want := time.Now().Add(5 * 24 * time.Hour)
		return expires.Sub(want) < time.Minute && want.Sub(expires) < time.Minute
	}), mock.AnythingOfType("*models.DealEvent")).Return(&delivered, nil)

	got, err := svc.PerformAction(ctx, deal.ID, freelancerID, models.DealActionDeliver, ActionInput{Notes: "готово"})
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusDelivered, got.Status)
	repo.AssertExpectations(t)
}

func TestDealService_Deliver_OnlyFreelancer(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusInProgress)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionDeliver, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDealService_Approve_Success(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusDelivered)
	completed := *deal
	completed.Status = models.DealStatusCompleted

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("Release", ctx, deal.ID, []string{models.DealStatusDelivered},
		mock.AnythingOfType("*models.DealEvent")).Return(&completed, nil)

	got, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionApprove, ActionInput{})
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, got.Status)
}

func TestDealService_Approve_ConcurrentConflict(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusDelivered)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("Release", ctx, deal.ID, mock.Anything, mock.Anything).Return(nil, repository.ErrStatusConflict)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionApprove, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrConflictingState)
}

func TestDealService_RequestRevision_Limit(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusDelivered)
	deal.RevisionCount = models.MaxRevisions
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("RequestRevision", ctx, deal.ID, mock.Anything).Return(nil, repository.ErrRevisionLimit)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionRequestRevision, ActionInput{Notes: "поправить шапку"})
	assert.ErrorIs(t, err, apperror.ErrRevisionLimit)
}

func TestDealService_Dispute_RequiresReason(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusDelivered)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionDispute, ActionInput{Reason: "   "})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "причину спора")
}

func TestDealService_Dispute_Success(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, freelancerID := dealFixture(models.DealStatusInProgress)
	disputed := *deal
	disputed.Status = models.DealStatusDisputed

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("OpenDispute", ctx, deal.ID, mock.MatchedBy(func(d *models.Dispute) bool {
		return d.OpenedBy == freelancerID && d.Reason == "клиент не выходит на связь"
	}), mock.AnythingOfType("*models.DealEvent")).Return(&disputed, nil)

	got, err := svc.PerformAction(ctx, deal.ID, freelancerID, models.DealActionDispute,
		ActionInput{Reason: "клиент не выходит на связь"})
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusDisputed, got.Status)
}

func TestDealService_Dispute_AlreadyExists(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusDelivered)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("OpenDispute", ctx, deal.ID, mock.Anything, mock.Anything).Return(nil, repository.ErrDisputeExists)

	_, err := svc.PerformAction(ctx, deal.ID, clientID, models.DealActionDispute, ActionInput{Reason: "результат не принят"})
	assert.True(t, apperror.IsConflictingState(err))
}

func TestDealService_PerformAction_UnknownAction(t *testing.T) {
	svc := NewDealService(new(mockDealRepo), new(mockSettingsProvider), new(mockSubmissionLister))

	_, err := svc.PerformAction(context.Background(), uuid.New(), uuid.New(), "archive", ActionInput{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неизвестное действие")
}

func TestDealService_PerformAction_Stranger(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusFunded)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.PerformAction(ctx, deal.ID, uuid.New(), models.DealActionStartWork, ActionInput{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDealService_DeleteDeal_OnlyBeforeFunding(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusFunded)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	err := svc.DeleteDeal(ctx, deal.ID, clientID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}

func TestDealService_GetDeal_Forbidden(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusFunded)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.GetDeal(ctx, deal.ID, uuid.New(), models.RoleClient)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Администратор видит любую сделку.
	got, err := svc.GetDeal(ctx, deal.ID, uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)
	assert.Equal(t, deal.ID, got.ID)
}

func TestDealService_AdminOverride_ForceComplete(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusDelivered)
	completed := *deal
	completed.Status = models.DealStatusCompleted

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("Release", ctx, deal.ID, []string{
		models.DealStatusFunded, models.DealStatusInProgress, models.DealStatusDelivered,
	}, mock.AnythingOfType("*models.DealEvent")).Return(&completed, nil)

	got, err := svc.AdminOverride(ctx, deal.ID, uuid.New(), models.AdminActionForceComplete, "ручное завершение")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, got.Status)
}

func TestDealService_AdminOverride_ForceCompleteDisputed_ResolvesDispute(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()
	adminID := uuid.New()

	deal, _, _ := dealFixture(models.DealStatusDisputed)
	completed := *deal
	completed.Status = models.DealStatusCompleted
	resolved := &models.Dispute{DealID: deal.ID, Status: models.DisputeStatusResolved}

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("ResolveDispute", ctx, deal.ID, adminID, models.DecisionReleaseToFreelancer, "приоритет исполнителю",
		mock.AnythingOfType("*models.DealEvent")).Return(&completed, resolved, nil)

	got, err := svc.AdminOverride(ctx, deal.ID, adminID, models.AdminActionForceComplete, "приоритет исполнителю")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, got.Status)
	// Спор закрывается вердиктом, а не остаётся открытым после выплаты.
	repo.AssertNotCalled(t, "Release")
}

func TestDealService_AdminOverride_CancelDisputed_ResolvesDispute(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()
	adminID := uuid.New()

	deal, _, _ := dealFixture(models.DealStatusDisputed)
	refunded := *deal
	refunded.Status = models.DealStatusRefunded
	resolved := &models.Dispute{DealID: deal.ID, Status: models.DisputeStatusResolved}

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("ResolveDispute", ctx, deal.ID, adminID, models.DecisionFullRefund, "",
		mock.AnythingOfType("*models.DealEvent")).Return(&refunded, resolved, nil)

	got, err := svc.AdminOverride(ctx, deal.ID, adminID, models.AdminActionCancelDeal, "")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusRefunded, got.Status)
	repo.AssertNotCalled(t, "Refund")
}

func TestDealService_AdminOverride_CancelTerminal_Rejected(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusCompleted)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.AdminOverride(ctx, deal.ID, uuid.New(), models.AdminActionCancelDeal, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
	repo.AssertNotCalled(t, "Refund")
	repo.AssertNotCalled(t, "UpdateStatus")
}

func TestDealService_AdminOverride_ForceComplete_NoFreelancer(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusFunded)
	deal.FreelancerID = nil
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.AdminOverride(ctx, deal.ID, uuid.New(), models.AdminActionForceComplete, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "без исполнителя")
}

func TestDealService_AdminOverride_CancelCreated(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusCreated)
	cancelled := *deal
	cancelled.Status = models.DealStatusCancelled

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("UpdateStatus", ctx, deal.ID, models.DealStatusCreated, models.DealStatusCancelled,
		mock.AnythingOfType("*models.DealEvent")).Return(&cancelled, nil)

	got, err := svc.AdminOverride(ctx, deal.ID, uuid.New(), models.AdminActionCancelDeal, "")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusCancelled, got.Status)
}

func TestDealService_AdminOverride_CancelFunded_Refunds(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusInProgress)
	refunded := *deal
	refunded.Status = models.DealStatusRefunded

	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)
	repo.On("Refund", ctx, deal.ID, mock.Anything, mock.AnythingOfType("*models.DealEvent")).Return(&refunded, nil)

	got, err := svc.AdminOverride(ctx, deal.ID, uuid.New(), models.AdminActionCancelDeal, "спорная сделка")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusRefunded, got.Status)
}

func TestDealService_AcceptDeal_OwnDeal(t *testing.T) {
	repo := new(mockDealRepo)
	svc := NewDealService(repo, new(mockSettingsProvider), new(mockSubmissionLister))
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusCreated)
	repo.On("GetByID", ctx, deal.ID).Return(deal, nil)

	_, err := svc.AcceptDeal(ctx, deal.ID, clientID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "собственную сделку")
}

func TestDealService_PreviewFees(t *testing.T) {
	settings := new(mockSettingsProvider)
	svc := NewDealService(new(mockDealRepo), settings, new(mockSubmissionLister))
	ctx := context.Background()

	cfg := defaultSettings()
	cfg.MaxPlatformFee = 5000
	settings.On("Get", ctx).Return(cfg, nil)

	fb, err := svc.PreviewFees(ctx, 100000)
	assert.NoError(t, err)
	assert.Equal(t, 5000.0, fb.ClientFee)
	assert.Equal(t, 105000.0, fb.TotalToPay)
}
