package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
)

// DisputeRepository описывает чтение споров из хранилища.
type DisputeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
}

// DisputeResolver описывает применение вердикта администратора к сделке.
type DisputeResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	ResolveDispute(ctx context.Context, dealID, adminID uuid.UUID, decision, notes string, event *models.DealEvent) (*models.Deal, *models.Dispute, error)
}

// DisputeService содержит бизнес-логику работы со спорами.
type DisputeService struct {
	disputes DisputeRepository
	deals    DisputeResolver
	hub      WSNotifier
}

// NewDisputeService создаёт новый сервис споров.
func NewDisputeService(disputes DisputeRepository, deals DisputeResolver) *DisputeService {
	return &DisputeService{disputes: disputes, deals: deals}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *DisputeService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// GetDispute возвращает спор; доступ есть у участников сделки и администратора.
func (s *DisputeService) GetDispute(ctx context.Context, disputeID, userID uuid.UUID, role string) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	if role == models.RoleAdmin {
		return dispute, nil
	}
	deal, err := s.deals.GetByID(ctx, dispute.DealID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	if !isParticipant(deal, userID) {
		return nil, apperror.ErrForbidden
	}
	return dispute, nil
}

// GetDisputeForDeal возвращает спор по сделке, если он есть.
func (s *DisputeService) GetDisputeForDeal(ctx context.Context, dealID, userID uuid.UUID, role string) (*models.Dispute, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	if role != models.RoleAdmin && !isParticipant(deal, userID) {
		return nil, apperror.ErrForbidden
	}
	dispute, err := s.disputes.GetByDealID(ctx, dealID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	return dispute, nil
}

// ListOpenDisputes возвращает очередь открытых споров для администратора.
func (s *DisputeService) ListOpenDisputes(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.disputes.ListOpen(ctx, limit, offset)
}

// ListMyDisputes возвращает споры по сделкам пользователя.
func (s *DisputeService) ListMyDisputes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.disputes.ListByUser(ctx, userID, limit, offset)
}

// Resolve применяет вердикт администратора. Спор разрешается ровно один раз:
// повторный вызов возвращает ошибку, деньги не двигаются.
func (s *DisputeService) Resolve(ctx context.Context, dealID, adminID uuid.UUID, decision, notes string) (*models.Deal, *models.Dispute, error) {
	if _, ok := models.ValidDecisions[decision]; !ok {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "неизвестное решение по спору: "+decision)
	}
	notes = strings.TrimSpace(notes)

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, nil, mapDealErr(err)
	}
	event := &models.DealEvent{
		ActorID:    &adminID,
		ActorRole:  models.RoleAdmin,
		Action:     "resolve_dispute",
		FromStatus: deal.Status,
		Note:       optNote(notes),
	}

	deal, dispute, err := s.deals.ResolveDispute(ctx, dealID, adminID, decision, notes, event)
	if err != nil {
		return nil, nil, mapDealErr(err)
	}

	s.notifyParties(deal)
	return deal, dispute, nil
}

func (s *DisputeService) notifyParties(deal *models.Deal) {
	if s.hub == nil {
		return
	}
	_ = s.hub.BroadcastToUser(deal.ClientID, models.EventDisputeResolved, deal)
	if deal.FreelancerID != nil {
		_ = s.hub.BroadcastToUser(*deal.FreelancerID, models.EventDisputeResolved, deal)
	}
}
