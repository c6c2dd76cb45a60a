package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealnest/dealnest-backend/internal/domain/valueobject"
	"github.com/dealnest/dealnest-backend/internal/logger"
	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

// DealRepository описывает взаимодействие сервиса с хранилищем сделок.
type DealRepository interface {
	Create(ctx context.Context, deal *models.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	GetBySlug(ctx context.Context, slug string) (*models.Deal, error)
	GetByReference(ctx context.Context, reference string) (*models.Deal, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Deal, error)
	Delete(ctx context.Context, id, clientID uuid.UUID) error
	Assign(ctx context.Context, dealID, freelancerID uuid.UUID) (*models.Deal, error)
	UpdateStatus(ctx context.Context, dealID uuid.UUID, from, to string, event *models.DealEvent) (*models.Deal, error)
	RequestRevision(ctx context.Context, dealID uuid.UUID, event *models.DealEvent) (*models.Deal, error)
	ListEvents(ctx context.Context, dealID uuid.UUID) ([]models.DealEvent, error)

	Fund(ctx context.Context, dealID, clientID uuid.UUID, breakdown valueobject.FeeBreakdown, event *models.DealEvent) (*models.Deal, error)
	Deliver(ctx context.Context, dealID uuid.UUID, sub *models.Submission, windowExpires time.Time, event *models.DealEvent) (*models.Deal, error)
	Release(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error)
	Refund(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error)
	OpenDispute(ctx context.Context, dealID uuid.UUID, dispute *models.Dispute, event *models.DealEvent) (*models.Deal, error)
	ResolveDispute(ctx context.Context, dealID, adminID uuid.UUID, decision, notes string, event *models.DealEvent) (*models.Deal, *models.Dispute, error)
}

// SettingsProvider отдаёт текущие настройки платформы.
type SettingsProvider interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
}

// SubmissionLister описывает чтение сдач работы по сделке.
type SubmissionLister interface {
	ListByDeal(ctx context.Context, dealID uuid.UUID) ([]models.Submission, error)
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// CreateDealInput параметры создания сделки.
type CreateDealInput struct {
	Title       string
	Description string
	JobType     *string
	Amount      float64
	Currency    string
	Attachments []string
	Deadline    *time.Time
}

// ActionInput полезная нагрузка действия над сделкой. Значимые поля
// зависят от действия: deliver читает Notes/Links/Files, dispute — Reason/Evidence.
type ActionInput struct {
	Notes    string
	Links    []string
	Files    []string
	Reason   string
	Evidence []string
}

// DealService содержит бизнес-логику жизненного цикла сделок.
type DealService struct {
	deals       DealRepository
	settings    SettingsProvider
	submissions SubmissionLister
	hub         WSNotifier
}

// NewDealService создаёт новый сервис сделок.
func NewDealService(deals DealRepository, settings SettingsProvider, submissions SubmissionLister) *DealService {
	return &DealService{
		deals:       deals,
		settings:    settings,
		submissions: submissions,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *DealService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateDeal создаёт новую сделку в статусе created.
func (s *DealService) CreateDeal(ctx context.Context, clientID uuid.UUID, input CreateDealInput) (*models.Deal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название сделки не может быть пустым")
	}
	if input.Amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма сделки должна быть больше нуля")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	deal := &models.Deal{
		ClientID:    clientID,
		JobType:     input.JobType,
		Title:       title,
		Description: input.Description,
		Amount:      input.Amount,
		Currency:    currency,
		Attachments: input.Attachments,
		Status:      models.DealStatusCreated,
		Deadline:    input.Deadline,
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// GetDeal возвращает сделку; доступ есть только у участников и администратора.
func (s *DealService) GetDeal(ctx context.Context, dealID, userID uuid.UUID, role string) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	if role != models.RoleAdmin && !isParticipant(deal, userID) {
		return nil, apperror.ErrForbidden
	}
	return deal, nil
}

// GetDealBySlug возвращает публичное представление сделки по slug.
// Денежные детали и привязка к пользователям скрываются на уровне DTO.
func (s *DealService) GetDealBySlug(ctx context.Context, slug string) (*models.Deal, error) {
	deal, err := s.deals.GetBySlug(ctx, slug)
	if err != nil {
		return nil, mapDealErr(err)
	}
	return deal, nil
}

// GetDealByReference возвращает сделку по человекочитаемому номеру.
func (s *DealService) GetDealByReference(ctx context.Context, reference string, userID uuid.UUID, role string) (*models.Deal, error) {
	deal, err := s.deals.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
	if err != nil {
		return nil, mapDealErr(err)
	}
	if role != models.RoleAdmin && !isParticipant(deal, userID) {
		return nil, apperror.ErrForbidden
	}
	return deal, nil
}

// ListDeals возвращает сделки, где пользователь является клиентом или исполнителем.
func (s *DealService) ListDeals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Deal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.deals.ListForUser(ctx, userID, limit, offset)
}

// ListEvents возвращает журнал переходов сделки.
func (s *DealService) ListEvents(ctx context.Context, dealID, userID uuid.UUID, role string) ([]models.DealEvent, error) {
	if _, err := s.GetDeal(ctx, dealID, userID, role); err != nil {
		return nil, err
	}
	return s.deals.ListEvents(ctx, dealID)
}

// ListSubmissions возвращает сдачи работы по сделке, новые первыми.
func (s *DealService) ListSubmissions(ctx context.Context, dealID, userID uuid.UUID, role string) ([]models.Submission, error) {
	if _, err := s.GetDeal(ctx, dealID, userID, role); err != nil {
		return nil, err
	}
	return s.submissions.ListByDeal(ctx, dealID)
}

// AcceptDeal закрепляет фрилансера за сделкой. Сделка должна быть в статусе
// created и без назначенного исполнителя.
func (s *DealService) AcceptDeal(ctx context.Context, dealID, freelancerID uuid.UUID) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	if deal.ClientID == freelancerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя принять собственную сделку")
	}

	deal, err = s.deals.Assign(ctx, dealID, freelancerID)
	if err != nil {
		return nil, mapDealErr(err)
	}

	s.notify(deal.ClientID, models.EventDealAccepted, deal)
	return deal, nil
}

// PerformAction выполняет действие участника над сделкой. Неизвестные
// действия отклоняются, допустимость перехода проверяется по текущему
// статусу, роль актёра выводится из состава сделки.
func (s *DealService) PerformAction(ctx context.Context, dealID, actorID uuid.UUID, action string, input ActionInput) (*models.Deal, error) {
	if _, ok := models.ValidDealActions[action]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестное действие: "+action)
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealErr(err)
	}
	role, err := actorRole(deal, actorID)
	if err != nil {
		return nil, err
	}

	switch action {
	case models.DealActionFund:
		return s.fund(ctx, deal, actorID, role)
	case models.DealActionStartWork:
		return s.startWork(ctx, deal, actorID, role)
	case models.DealActionDeliver:
		return s.deliver(ctx, deal, actorID, role, input)
	case models.DealActionApprove:
		return s.approve(ctx, deal, actorID, role)
	case models.DealActionRequestRevision:
		return s.requestRevision(ctx, deal, actorID, role, input)
	case models.DealActionDispute:
		return s.openDispute(ctx, deal, actorID, role, input)
	case models.DealActionDelete:
		return nil, s.DeleteDeal(ctx, deal.ID, actorID)
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестное действие: "+action)
	}
}

// DeleteDeal удаляет сделку. Допустимо только для клиента и только до фандинга.
func (s *DealService) DeleteDeal(ctx context.Context, dealID, clientID uuid.UUID) error {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return mapDealErr(err)
	}
	if deal.ClientID != clientID {
		return apperror.ErrForbidden
	}
	if deal.Status != models.DealStatusCreated {
		return apperror.ErrInvalidTransition
	}
	if err := s.deals.Delete(ctx, dealID, clientID); err != nil {
		return mapDealErr(err)
	}
	return nil
}

// AdminOverride выполняет административное действие над сделкой:
// принудительное завершение с выплатой либо отмену с возвратом средств.
func (s *DealService) AdminOverride(ctx context.Context, dealID, adminID uuid.UUID, action string, note string) (*models.Deal, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, mapDealErr(err)
	}

	event := newEvent(&adminID, models.RoleAdmin, action, deal.Status, optNote(note))

	switch action {
	case models.AdminActionForceComplete:
		if deal.FreelancerID == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "нельзя завершить сделку без исполнителя")
		}
		if deal.Status == models.DealStatusDisputed {
			// Спорная сделка закрывается через вердикт: спор резолвится
			// той же транзакцией, что и выплата.
			deal, _, err = s.deals.ResolveDispute(ctx, deal.ID, adminID, models.DecisionReleaseToFreelancer, note, event)
		} else {
			deal, err = s.deals.Release(ctx, deal.ID, []string{
				models.DealStatusFunded, models.DealStatusInProgress, models.DealStatusDelivered,
			}, event)
		}
	case models.AdminActionCancelDeal:
		st, stErr := valueobject.NewDealStatus(deal.Status)
		if stErr != nil {
			return nil, stErr
		}
		switch {
		case deal.Status == models.DealStatusCreated:
			deal, err = s.deals.UpdateStatus(ctx, deal.ID, models.DealStatusCreated, models.DealStatusCancelled, event)
		case deal.Status == models.DealStatusDisputed:
			deal, _, err = s.deals.ResolveDispute(ctx, deal.ID, adminID, models.DecisionFullRefund, note, event)
		case st.IsFunded():
			deal, err = s.deals.Refund(ctx, deal.ID, []string{
				models.DealStatusFunded, models.DealStatusInProgress, models.DealStatusDelivered,
			}, event)
		default:
			return nil, apperror.ErrInvalidTransition
		}
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестное действие администратора: "+action)
	}
	if err != nil {
		return nil, mapDealErr(err)
	}

	s.notifyParticipants(deal, eventForStatus(deal.Status), deal)
	return deal, nil
}

// PreviewFees рассчитывает разбивку комиссии для суммы по текущим настройкам,
// не создавая сделку.
func (s *DealService) PreviewFees(ctx context.Context, amount float64) (valueobject.FeeBreakdown, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return valueobject.FeeBreakdown{}, err
	}
	fb, err := valueobject.ComputeFees(amount, settings.PlatformFeePercent,
		settings.MinPlatformFee, settings.MaxPlatformFee, settings.FeePayer)
	if err != nil {
		return valueobject.FeeBreakdown{}, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return fb, nil
}

func (s *DealService) fund(ctx context.Context, deal *models.Deal, actorID uuid.UUID, role string) (*models.Deal, error) {
	if role != models.RoleClient {
		return nil, apperror.ErrForbidden
	}
	// Фандинг возможен только после закрепления исполнителя, иначе деньги
	// зависнут в эскроу: принять профинансированную сделку уже нельзя.
	if deal.FreelancerID == nil {
		return nil, apperror.ErrInvalidTransition
	}
	if err := guardTransition(deal, models.DealStatusCreated, valueobject.DealStatusFunded); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := valueobject.ComputeFees(deal.Amount, settings.PlatformFeePercent,
		settings.MinPlatformFee, settings.MaxPlatformFee, settings.FeePayer)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	event := newEvent(&actorID, role, models.DealActionFund, deal.Status, nil)
	deal, err = s.deals.Fund(ctx, deal.ID, actorID, breakdown, event)
	if err != nil {
		return nil, mapDealErr(err)
	}

	s.notifyParticipants(deal, models.EventDealFunded, deal)
	return deal, nil
}

func (s *DealService) startWork(ctx context.Context, deal *models.Deal, actorID uuid.UUID, role string) (*models.Deal, error) {
	if role != models.RoleFreelancer {
		return nil, apperror.ErrForbidden
	}
	if err := guardTransition(deal, models.DealStatusFunded, valueobject.DealStatusInProgress); err != nil {
		return nil, err
	}

	event := newEvent(&actorID, role, models.DealActionStartWork, deal.Status, nil)
	deal, err := s.deals.UpdateStatus(ctx, deal.ID, models.DealStatusFunded, models.DealStatusInProgress, event)
	if err != nil {
		return nil, mapDealErr(err)
	}

	s.notify(deal.ClientID, models.EventWorkStarted, deal)
	return deal, nil
}

func (s *DealService) deliver(ctx context.Context, deal *models.Deal, actorID uuid.UUID, role string, input ActionInput) (*models.Deal, error) {
	if role != models.RoleFreelancer {
		return nil, apperror.ErrForbidden
	}
	if err := guardTransition(deal, models.DealStatusInProgress, valueobject.DealStatusDelivered); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	windowExpires := time.Now().Add(time.Duration(settings.DisputeWindowDays) * 24 * time.Hour)

	sub := &models.Submission{
		FreelancerID: actorID,
		Notes:        input.Notes,
		Links:        input.Links,
		Files:        input.Files,
	}
	event := newEvent(&actorID, role, models.DealActionDeliver, deal.Status, optNote(input.Notes))
	deal, err = s.deals.Deliver(ctx, deal.ID, sub, windowExpires, event)
	if err != nil {
		return nil, mapDealErr(err)
	}

	s.notify(deal.ClientID, models.EventWorkDelivered, deal)
	return deal, nil
}

func (s *DealService) approve(ctx context.Context, deal *models.Deal, actorID uuid.UUID, role string) (*models.Deal, error) {
	if role != models.RoleClient {
		return nil, apperror.ErrForbidden
	}
	if err := guardTransition(deal, models.DealStatusDelivered, valueobject.DealStatusCompleted); err != nil {
		return nil, err
	}

	event := newEvent(&actorID, role, models.DealActionApprove, deal.Status, nil)
	deal, err := s.deals.Release(ctx, deal.ID, []string{models.DealStatusDelivered}, event)
	if err != nil {
		return nil, mapDealErr(err)
	}

	if deal.FreelancerID != nil {
		s.notify(*deal.FreelancerID, models.EventDealCompleted, deal)
	}
	return deal, nil
}

func (s *DealService) requestRevision(ctx context.Context, deal *models.Deal, actorID uuid.UUID, role string, input ActionInput) (*models.Deal, error) {
	if role != models.RoleClient {
		return nil, apperror.ErrForbidden
	}
	if err := guardTransition(deal, models.DealStatusDelivered, valueobject.DealStatusInProgress); err != nil {
		return nil, err
	}

	event := newEvent(&actorID, role, models.DealActionRequestRevision, deal.Status, optNote(input.Notes))
	deal, err := s.deals.RequestRevision(ctx, deal.ID, event)
	if err != nil {
		return nil, mapDealErr(err)
	}

	if deal.FreelancerID != nil {
		s.notify(*deal.FreelancerID, models.EventRevisionAsked, deal)
	}
	return deal, nil
}

func (s *DealService) openDispute(ctx context.Context, deal *models.Deal, actorID uuid.UUID, role string, input ActionInput) (*models.Deal, error) {
	// Спор открывается из любого статуса, откуда таблица переходов
	// допускает disputed.
	if st, stErr := valueobject.NewDealStatus(deal.Status); stErr != nil || !st.CanTransitionTo(valueobject.DealStatusDisputed) {
		return nil, apperror.ErrInvalidTransition
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "необходимо указать причину спора")
	}

	dispute := &models.Dispute{
		OpenedBy: actorID,
		Reason:   reason,
		Evidence: input.Evidence,
	}
	event := newEvent(&actorID, role, models.DealActionDispute, deal.Status, optNote(reason))
	deal, err := s.deals.OpenDispute(ctx, deal.ID, dispute, event)
	if err != nil {
		return nil, mapDealErr(err)
	}

	// Уведомляем вторую сторону спора.
	if role == models.RoleClient && deal.FreelancerID != nil {
		s.notify(*deal.FreelancerID, models.EventDisputeOpened, deal)
	} else if role == models.RoleFreelancer {
		s.notify(deal.ClientID, models.EventDisputeOpened, deal)
	}
	return deal, nil
}

func (s *DealService) notify(userID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.WithError(err).Warn("deal service: не удалось отправить уведомление")
	}
}

func (s *DealService) notifyParticipants(deal *models.Deal, event string, data interface{}) {
	s.notify(deal.ClientID, event, data)
	if deal.FreelancerID != nil {
		s.notify(*deal.FreelancerID, event, data)
	}
}

// guardTransition проверяет, что сделка находится в ожидаемом для действия
// статусе и что сам переход допустим по таблице статусов. Таблица —
// единственный источник истины о допустимых переходах.
func guardTransition(deal *models.Deal, from string, to valueobject.DealStatus) error {
	if deal.Status != from {
		return apperror.ErrInvalidTransition
	}
	current, err := valueobject.NewDealStatus(deal.Status)
	if err != nil || !current.CanTransitionTo(to) {
		return apperror.ErrInvalidTransition
	}
	return nil
}

func isParticipant(deal *models.Deal, userID uuid.UUID) bool {
	if deal.ClientID == userID {
		return true
	}
	return deal.FreelancerID != nil && *deal.FreelancerID == userID
}

func actorRole(deal *models.Deal, actorID uuid.UUID) (string, error) {
	switch {
	case deal.ClientID == actorID:
		return models.RoleClient, nil
	case deal.FreelancerID != nil && *deal.FreelancerID == actorID:
		return models.RoleFreelancer, nil
	default:
		return "", apperror.ErrForbidden
	}
}

func newEvent(actorID *uuid.UUID, role, action, fromStatus string, note *string) *models.DealEvent {
	return &models.DealEvent{
		ActorID:    actorID,
		ActorRole:  role,
		Action:     action,
		FromStatus: fromStatus,
		Note:       note,
	}
}

func optNote(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func eventForStatus(status string) string {
	switch status {
	case models.DealStatusCompleted:
		return models.EventDealCompleted
	case models.DealStatusRefunded:
		return models.EventDealRefunded
	default:
		return "deal_updated"
	}
}

// mapDealErr переводит ошибки хранилища в доменные ошибки API.
func mapDealErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDealNotFound):
		return apperror.ErrDealNotFound
	case errors.Is(err, repository.ErrDisputeNotFound):
		return apperror.ErrDisputeNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return apperror.ErrConflictingState
	case errors.Is(err, repository.ErrRevisionLimit):
		return apperror.ErrRevisionLimit
	case errors.Is(err, repository.ErrDisputeExists):
		return apperror.New(apperror.ErrCodeConflictingState, "по сделке уже открыт спор")
	case errors.Is(err, repository.ErrDisputeResolved):
		return apperror.ErrAlreadyResolved
	case errors.Is(err, repository.ErrDealAssigned):
		return apperror.New(apperror.ErrCodeConflictingState, "исполнитель уже назначен")
	case errors.Is(err, repository.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds
	default:
		return err
	}
}
