package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

type mockDisputeResolver struct {
	mock.Mock
}

func (m *mockDisputeResolver) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *mockDisputeResolver) ResolveDispute(ctx context.Context, dealID, adminID uuid.UUID, decision, notes string, event *models.DealEvent) (*models.Deal, *models.Dispute, error) {
	args := m.Called(ctx, dealID, adminID, decision, notes, event)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Deal), args.Get(1).(*models.Dispute), args.Error(2)
}

func TestDisputeService_Resolve_ReleaseToFreelancer(t *testing.T) {
	disputes := new(mockDisputeRepo)
	resolver := new(mockDisputeResolver)
	svc := NewDisputeService(disputes, resolver)
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusDisputed)
	adminID := uuid.New()
	completed := *deal
	completed.Status = models.DealStatusCompleted
	resolved := &models.Dispute{ID: uuid.New(), DealID: deal.ID, Status: "resolved"}

	resolver.On("GetByID", ctx, deal.ID).Return(deal, nil)
	resolver.On("ResolveDispute", ctx, deal.ID, adminID, models.DecisionReleaseToFreelancer, "работа выполнена",
		mock.MatchedBy(func(event *models.DealEvent) bool {
			return event.ActorRole == models.RoleAdmin && event.FromStatus == models.DealStatusDisputed
		})).Return(&completed, resolved, nil)

	gotDeal, gotDispute, err := svc.Resolve(ctx, deal.ID, adminID, models.DecisionReleaseToFreelancer, "работа выполнена")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusCompleted, gotDeal.Status)
	assert.Equal(t, resolved.ID, gotDispute.ID)
	resolver.AssertExpectations(t)
}

func TestDisputeService_Resolve_FullRefund(t *testing.T) {
	resolver := new(mockDisputeResolver)
	svc := NewDisputeService(new(mockDisputeRepo), resolver)
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusDisputed)
	adminID := uuid.New()
	refunded := *deal
	refunded.Status = models.DealStatusRefunded
	resolved := &models.Dispute{ID: uuid.New(), DealID: deal.ID, Status: "resolved"}

	resolver.On("GetByID", ctx, deal.ID).Return(deal, nil)
	resolver.On("ResolveDispute", ctx, deal.ID, adminID, models.DecisionFullRefund, "", mock.Anything).
		Return(&refunded, resolved, nil)

	gotDeal, _, err := svc.Resolve(ctx, deal.ID, adminID, models.DecisionFullRefund, "")
	assert.NoError(t, err)
	assert.Equal(t, models.DealStatusRefunded, gotDeal.Status)
}

func TestDisputeService_Resolve_UnknownDecision(t *testing.T) {
	svc := NewDisputeService(new(mockDisputeRepo), new(mockDisputeResolver))

	_, _, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), "split_evenly", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неизвестное решение")
}

func TestDisputeService_Resolve_AlreadyResolved(t *testing.T) {
	resolver := new(mockDisputeResolver)
	svc := NewDisputeService(new(mockDisputeRepo), resolver)
	ctx := context.Background()

	deal, _, _ := dealFixture(models.DealStatusCompleted)
	resolver.On("GetByID", ctx, deal.ID).Return(deal, nil)
	resolver.On("ResolveDispute", ctx, deal.ID, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, repository.ErrDisputeResolved)

	_, _, err := svc.Resolve(ctx, deal.ID, uuid.New(), models.DecisionFullRefund, "")
	assert.ErrorIs(t, err, apperror.ErrAlreadyResolved)
}

func TestDisputeService_GetDispute_Access(t *testing.T) {
	disputes := new(mockDisputeRepo)
	resolver := new(mockDisputeResolver)
	svc := NewDisputeService(disputes, resolver)
	ctx := context.Background()

	deal, clientID, _ := dealFixture(models.DealStatusDisputed)
	dispute := &models.Dispute{ID: uuid.New(), DealID: deal.ID, OpenedBy: clientID, Status: "open"}

	disputes.On("GetByID", ctx, dispute.ID).Return(dispute, nil)
	resolver.On("GetByID", ctx, deal.ID).Return(deal, nil)

	got, err := svc.GetDispute(ctx, dispute.ID, clientID, models.RoleClient)
	assert.NoError(t, err)
	assert.Equal(t, dispute.ID, got.ID)

	_, err = svc.GetDispute(ctx, dispute.ID, uuid.New(), models.RoleClient)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// Администратор не проверяется на участие в сделке.
	_, err = svc.GetDispute(ctx, dispute.ID, uuid.New(), models.RoleAdmin)
	assert.NoError(t, err)
}

func TestDisputeService_ListOpenDisputes_LimitClamp(t *testing.T) {
	disputes := new(mockDisputeRepo)
	svc := NewDisputeService(disputes, new(mockDisputeResolver))
	ctx := context.Background()

	disputes.On("ListOpen", ctx, 20, 0).Return([]models.Dispute{}, nil)

	_, err := svc.ListOpenDisputes(ctx, 500, -3)
	assert.NoError(t, err)
	disputes.AssertExpectations(t)
}
