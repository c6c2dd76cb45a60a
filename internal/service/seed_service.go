package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dealnest/dealnest-backend/internal/models"
	"github.com/dealnest/dealnest-backend/internal/repository"
)

// SeedPassword пароль всех демо-аккаунтов.
const SeedPassword = "Demo1234pass"

// SeedService генерирует демо-данные для разработки: пары клиент/фрилансер,
// пополненные кошельки и сделки на разных стадиях жизненного цикла.
// Сделки проводятся через обычные действия сервиса, минуя прямую запись
// статусов, чтобы демо-данные не расходились с леджером.
type SeedService struct {
	users  *repository.UserRepository
	wallet *WalletService
	deals  *DealService
}

// SeedAccount учётные данные созданного демо-аккаунта.
type SeedAccount struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SeedSummary итог генерации демо-данных.
type SeedSummary struct {
	Users    int           `json:"users"`
	Deals    int           `json:"deals"`
	Accounts []SeedAccount `json:"accounts"`
}

// NewSeedService создаёт сервис генерации демо-данных.
func NewSeedService(users *repository.UserRepository, wallet *WalletService, deals *DealService) *SeedService {
	return &SeedService{users: users, wallet: wallet, deals: deals}
}

var seedTitles = []string{
	"Дизайн лендинга",
	"Логотип и фирменный стиль",
	"Настройка CI/CD",
	"Верстка email-рассылки",
	"Перевод документации",
	"Telegram-бот для записи",
	"Аудит производительности сайта",
	"Иллюстрации для блога",
}

// SeedDemo создаёт numDeals сделок между свежими демо-пользователями.
// Каждая сделка продвигается на случайную глубину жизненного цикла.
func (s *SeedService) SeedDemo(ctx context.Context, numDeals int) (*SeedSummary, error) {
	if numDeals < 1 {
		numDeals = 5
	}
	if numDeals > 50 {
		numDeals = 50
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed service: не удалось захешировать пароль: %w", err)
	}

	summary := &SeedSummary{}
	suffix := rand.Intn(100000)

	client, err := s.createUser(ctx, fmt.Sprintf("demo.client.%d@dealnest.dev", suffix), models.RoleClient, string(passHash))
	if err != nil {
		return nil, err
	}
	freelancer, err := s.createUser(ctx, fmt.Sprintf("demo.freelancer.%d@dealnest.dev", suffix), models.RoleFreelancer, string(passHash))
	if err != nil {
		return nil, err
	}
	summary.Users = 2
	summary.Accounts = []SeedAccount{
		{Email: client.Email, Password: SeedPassword, Role: client.Role},
		{Email: freelancer.Email, Password: SeedPassword, Role: freelancer.Role},
	}

	// Кошелька клиента должно хватить на все фандинги с комиссией.
	if _, err := s.wallet.Deposit(ctx, client.ID, float64(numDeals)*5000, ""); err != nil {
		return nil, fmt.Errorf("seed service: не удалось пополнить кошелёк клиента: %w", err)
	}

	for i := 0; i < numDeals; i++ {
		if err := s.seedDeal(ctx, client.ID, freelancer.ID, i); err != nil {
			return summary, fmt.Errorf("seed service: сделка %d: %w", i+1, err)
		}
		summary.Deals++
	}
	return summary, nil
}

func (s *SeedService) createUser(ctx context.Context, email, role, passHash string) (*models.User, error) {
	user := &models.User{
		Email:        email,
		Username:     deriveUsername(email),
		PasswordHash: passHash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("seed service: не удалось создать пользователя %s: %w", email, err)
	}
	return user, nil
}

// seedDeal создаёт сделку и проводит её через 0..4 шага жизненного цикла.
func (s *SeedService) seedDeal(ctx context.Context, clientID, freelancerID uuid.UUID, n int) error {
	deal, err := s.deals.CreateDeal(ctx, clientID, CreateDealInput{
		Title:       seedTitles[n%len(seedTitles)],
		Description: "Демо-сделка для разработки",
		Amount:      float64(500 + rand.Intn(3000)),
		Currency:    "USD",
	})
	if err != nil {
		return err
	}

	if _, err := s.deals.AcceptDeal(ctx, deal.ID, freelancerID); err != nil {
		return err
	}

	steps := []struct {
		actor  uuid.UUID
		action string
		input  ActionInput
	}{
		{clientID, models.DealActionFund, ActionInput{}},
		{freelancerID, models.DealActionStartWork, ActionInput{}},
		{freelancerID, models.DealActionDeliver, ActionInput{Notes: "Работа готова, ссылки в описании"}},
		{clientID, models.DealActionApprove, ActionInput{}},
	}
	depth := rand.Intn(len(steps) + 1)
	for _, step := range steps[:depth] {
		if _, err := s.deals.PerformAction(ctx, deal.ID, step.actor, step.action, step.input); err != nil {
			return err
		}
	}
	return nil
}
