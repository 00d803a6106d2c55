package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/trustbank/lending-engine/internal/domain"
	"github.com/trustbank/lending-engine/internal/repository"
	customError "github.com/trustbank/lending-engine/pkg/errors"
)

// UserService manages borrowers and their cascade deletion.
type UserService struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// CreateUser registers a borrower. An explicit user code must be unused;
// absent one, a random unique code is generated.
func (s *UserService) CreateUser(ctx context.Context, request *domain.CreateUserRequest) (*domain.User, error) {
	code := request.UserCode
	if code == "" {
		generated, err := s.generateUserCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		taken, err := s.userRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if taken {
			return nil, customError.WrapDuplicateUserCode(code)
		}
	}

	user := &domain.User{
		ID:               uuid.New(),
		Name:             request.Name,
		UserCode:         code,
		Phone:            request.Phone,
		Address:          request.Address,
		RegistrationDate: s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return user, nil
}

// UpdateUser saves borrower changes, re-validating the code only when it
// actually changed.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, request *domain.CreateUserRequest) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.UserCode != "" && request.UserCode != user.UserCode {
		taken, err := s.userRepo.ExistsByCode(ctx, request.UserCode)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		if taken {
			return nil, customError.WrapDuplicateUserCode(request.UserCode)
		}
		user.UserCode = request.UserCode
	}

	user.Name = request.Name
	user.Phone = request.Phone
	user.Address = request.Address

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapUserNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return user, nil
}

// ListUsers returns borrowers ordered by user code, numerically where the
// codes parse as numbers so USR2 sorts before USR10.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	sort.SliceStable(users, func(i, j int) bool {
		a, errA := strconv.Atoi(numericPart(users[i].UserCode))
		b, errB := strconv.Atoi(numericPart(users[j].UserCode))
		if errA == nil && errB == nil {
			return a < b
		}
		return users[i].UserCode < users[j].UserCode
	})

	return users, nil
}

// DeleteUser removes the borrower and everything they own: ledger entries,
// loans, quick payments, then the user row, atomically.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapUserNotFound(id.String())
		}
		return customError.WrapDatabaseError(err)
	}
	return nil
}

// generateUserCode retries random codes until one is free.
func (s *UserService) generateUserCode(ctx context.Context) (string, error) {
	for {
		code := fmt.Sprintf("USR%04d", rand.Intn(10000))
		taken, err := s.userRepo.ExistsByCode(ctx, code)
		if err != nil {
			return "", customError.WrapDatabaseError(err)
		}
		if !taken {
			return code, nil
		}
	}
}

// numericPart strips a leading "USR" prefix so generated codes compare by
// their number.
func numericPart(code string) string {
	if len(code) > 3 && code[:3] == "USR" {
		return code[3:]
	}
	return code
}
