package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trustbank/lending-engine/internal/config"
	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/repository"
	customError "github.com/trustbank/lending-engine/pkg/errors"
)

const partialPaymentNote = " - Pago parcial"

// PaymentService manages quick cash movements and their retention cleanup.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	userRepo    repository.UserRepository
	config      *config.Config
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	userRepo repository.UserRepository,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		config:      cfg,
		now:         time.Now,
	}
}

// CreatePayment records a cash movement for an existing user. Partial
// payments get a marker appended to the description once.
func (s *PaymentService) CreatePayment(ctx context.Context, request *domain.CreatePaymentRequest) (*domain.Payment, error) {
	if _, err := s.userRepo.GetByID(ctx, request.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapUserNotFound(request.UserID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	description := request.Description
	if request.Partial && !strings.Contains(description, partialPaymentNote) {
		description += partialPaymentNote
	}

	payment := &domain.Payment{
		ID:              uuid.New(),
		UserID:          request.UserID,
		Amount:          request.Amount,
		DebtPayment:     request.DebtPayment,
		InterestPayment: request.InterestPayment,
		PaymentMethod:   request.PaymentMethod,
		Description:     description,
		PaymentDate:     s.now(),
		Registered:      request.Registered,
		Outgoing:        request.Outgoing,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapPaymentNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return payment, nil
}

func (s *PaymentService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

func (s *PaymentService) ListPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetPayment(ctx, id); err != nil {
		return err
	}
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// DeleteOldRegistered is the retention job: registered payments older than
// the configured window are dropped. Returns how many were removed.
func (s *PaymentService) DeleteOldRegistered(ctx context.Context) (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.config.Retention.RegisteredPaymentDays)

	removed, err := s.paymentRepo.DeleteRegisteredBefore(ctx, cutoff)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	if removed > 0 {
		log.Printf("retention: removed %d registered payments older than %s", removed, cutoff.Format("2006-01-02"))
	}

	return removed, nil
}
