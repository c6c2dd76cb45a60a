package service

import (
	"context"
	"math"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/pkg/apperror"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

// SchedulerDealRepository описывает операции сделок, нужные планировщику.
type SchedulerDealRepository interface {
	ListAutoReleasable(ctx context.Context, now time.Time, autoReleaseDays int) ([]models.Deal, error)
	Release(ctx context.Context, dealID uuid.UUID, fromStatuses []string, event *models.DealEvent) (*models.Deal, error)
	Reconcile(ctx context.Context) ([]repository.ReconcileIssue, error)
}

// SchedulerWalletRepository описывает чтение кошельков для сверки балансов.
type SchedulerWalletRepository interface {
	ListBalances(ctx context.Context) ([]models.UserBalance, error)
	SumEntries(ctx context.Context, userID uuid.UUID) (float64, error)
}

// EscrowScheduler периодически выплачивает доставленные сделки с истёкшим
// окном спора. Выплата идёт тем же путём, что и одобрение клиентом, поэтому
// конкурентный approve или dispute безопасен: проигравший получает конфликт
// статуса, деньги двигаются один раз.
type EscrowScheduler struct {
	deals    SchedulerDealRepository
	wallets  SchedulerWalletRepository
	settings SettingsProvider
	hub      WSNotifier
	log      *logrus.Logger
	interval time.Duration
}

// NewEscrowScheduler создаёт планировщик автовыплат.
func NewEscrowScheduler(deals SchedulerDealRepository, wallets SchedulerWalletRepository, settings SettingsProvider, log *logrus.Logger, interval time.Duration) *EscrowScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &EscrowScheduler{
		deals:    deals,
		wallets:  wallets,
		settings: settings,
		log:      log,
		interval: interval,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *EscrowScheduler) SetHub(hub WSNotifier) {
	s.hub = hub
}

// Run запускает цикл планировщика и блокируется до отмены контекста.
// Первая сверка выполняется сразу при старте.
func (s *EscrowScheduler) Run(ctx context.Context) {
	s.reconcile(ctx)
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// RunOnce выполняет один проход автовыплат; используется в тестах и при
// ручном запуске из админки.
func (s *EscrowScheduler) RunOnce(ctx context.Context) (released int, err error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}

	deals, err := s.deals.ListAutoReleasable(ctx, time.Now(), settings.AutoReleaseDays)
	if err != nil {
		return 0, err
	}

	for i := range deals {
		deal := &deals[i]
		if err := s.release(ctx, deal); err != nil {
			// Ошибка одной сделки не останавливает проход.
			s.log.WithError(err).WithField("deal_id", deal.ID).Warn("scheduler: автовыплата не выполнена")
			continue
		}
		released++
	}
	return released, nil
}

func (s *EscrowScheduler) release(ctx context.Context, deal *models.Deal) error {
	event := &models.DealEvent{
		ActorRole:  "system",
		Action:     "auto_release",
		FromStatus: deal.Status,
	}
	updated, err := s.deals.Release(ctx, deal.ID, []string{models.DealStatusDelivered}, event)
	if err != nil {
		// Кто-то успел раньше: клиент одобрил или открыл спор. Не ошибка.
		if apperror.IsConflictingState(mapDealErr(err)) {
			return nil
		}
		return err
	}

	s.log.WithFields(logrus.Fields{
		"deal_id":   updated.ID,
		"reference": updated.ReferenceID,
	}).Info("scheduler: автовыплата по истечении окна спора")

	if s.hub != nil {
		_ = s.hub.BroadcastToUser(updated.ClientID, models.EventDealCompleted, updated)
		if updated.FreelancerID != nil {
			_ = s.hub.BroadcastToUser(*updated.FreelancerID, models.EventDealCompleted, updated)
		}
	}
	return nil
}

func (s *EscrowScheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("scheduler: паника в проходе автовыплат: %v\n%s", r, debug.Stack())
		}
	}()

	released, err := s.RunOnce(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduler: проход автовыплат завершился с ошибкой")
		return
	}
	if released > 0 {
		s.log.WithField("released", released).Info("scheduler: автовыплаты выполнены")
	}
}

// reconcile сверяет статусы сделок с леджером после рестарта. Статус —
// источник истины; расхождения только логируются для ручного разбора.
func (s *EscrowScheduler) reconcile(ctx context.Context) {
	issues, err := s.deals.Reconcile(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduler: сверка статусов с леджером не выполнена")
		return
	}
	for _, issue := range issues {
		s.log.WithFields(logrus.Fields{
			"deal_id":   issue.DealID,
			"reference": issue.ReferenceID,
			"status":    issue.Status,
			"problem":   issue.Problem,
		}).Error("scheduler: расхождение статуса сделки и леджера")
	}
	if len(issues) == 0 {
		s.log.Debug("scheduler: сверка статусов с леджером без расхождений")
	}

	mismatched, err := s.ReconcileBalances(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduler: сверка балансов с леджером не выполнена")
		return
	}
	if mismatched == 0 {
		s.log.Debug("scheduler: балансы кошельков совпадают с леджером")
	}
}

// ReconcileBalances сверяет баланс каждого кошелька с суммой его записей
// леджера и возвращает число расхождений. Кредиты минус дебеты обязаны
// давать ровно текущий available; расхождение означает правку баланса
// мимо леджера и логируется для ручного разбора.
func (s *EscrowScheduler) ReconcileBalances(ctx context.Context) (int, error) {
	balances, err := s.wallets.ListBalances(ctx)
	if err != nil {
		return 0, err
	}

	mismatched := 0
	for i := range balances {
		balance := &balances[i]
		sum, err := s.wallets.SumEntries(ctx, balance.UserID)
		if err != nil {
			return mismatched, err
		}
		// Допуск в полкопейки на накопленную ошибку округления.
		if math.Abs(sum-balance.Available) >= 0.005 {
			mismatched++
			s.log.WithFields(logrus.Fields{
				"user_id":    balance.UserID,
				"available":  balance.Available,
				"ledger_sum": sum,
			}).Error("scheduler: баланс кошелька расходится с леджером")
		}
	}
	return mismatched, nil
}
