package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/trustbank/lending-engine/internal/config"
	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/tests/mocks"
)

func newPaymentService(paymentRepo *mocks.MockPaymentRepository, userRepo *mocks.MockUserRepository, now time.Time) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		config: &config.Config{
			Retention: config.RetentionConfig{RegisteredPaymentDays: 15},
		},
		now: func() time.Time { return now },
	}
}

func TestCreatePayment_AppendsPartialMarker(t *testing.T) {
	paymentRepo := &mocks.MockPaymentRepository{}
	userRepo := &mocks.MockUserRepository{}

	service := newPaymentService(paymentRepo, userRepo, time.Now())

	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)
	paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)

	payment, err := service.CreatePayment(context.Background(), &domain.CreatePaymentRequest{
		UserID:      userID,
		Amount:      decimal.NewFromInt(500),
		Description: "Abono semanal",
		Partial:     true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Abono semanal - Pago parcial", payment.Description)
}

func TestCreatePayment_MarkerNotDuplicated(t *testing.T) {
	paymentRepo := &mocks.MockPaymentRepository{}
	userRepo := &mocks.MockUserRepository{}

	service := newPaymentService(paymentRepo, userRepo, time.Now())

	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)
	paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)

	payment, err := service.CreatePayment(context.Background(), &domain.CreatePaymentRequest{
		UserID:      userID,
		Amount:      decimal.NewFromInt(500),
		Description: "Abono semanal - Pago parcial",
		Partial:     true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Abono semanal - Pago parcial", payment.Description)
}

func TestCreatePayment_FullPaymentUntouched(t *testing.T) {
	paymentRepo := &mocks.MockPaymentRepository{}
	userRepo := &mocks.MockUserRepository{}

	service := newPaymentService(paymentRepo, userRepo, time.Now())

	userID := uuid.New()
	userRepo.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)
	paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Payment")).Return(nil)

	payment, err := service.CreatePayment(context.Background(), &domain.CreatePaymentRequest{
		UserID:      userID,
		Amount:      decimal.NewFromInt(500),
		Description: "Cuota completa",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Cuota completa", payment.Description)
}

func TestDeleteOldRegistered_CutoffFromConfig(t *testing.T) {
	paymentRepo := &mocks.MockPaymentRepository{}

	now := time.Date(2025, 3, 20, 2, 0, 0, 0, time.UTC)
	service := newPaymentService(paymentRepo, &mocks.MockUserRepository{}, now)

	expectedCutoff := time.Date(2025, 3, 5, 2, 0, 0, 0, time.UTC)
	paymentRepo.On("DeleteRegisteredBefore", mock.Anything, expectedCutoff).Return(3, nil)

	removed, err := service.DeleteOldRegistered(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, removed)

	paymentRepo.AssertExpectations(t)
}
