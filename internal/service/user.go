package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/spendwise/backend/internal/model"
)

// UserStore is implemented by *repository.Repository.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Profile carries the identity fields supplied by the auth layer.
type Profile struct {
	ID        int64
	Email     *string
	FirstName *string
	LastName  *string
}

// GetOrCreate upserts the user on first authenticated contact. A fresh user
// gets a random referral code; an existing one keeps the code it has.
func (s *UserService) GetOrCreate(ctx context.Context, profile Profile) (*model.User, error) {
	referralCode, err := generateReferralCode()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           profile.ID,
		Email:        profile.Email,
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		ReferralCode: referralCode,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

func generateReferralCode() (string, error) {
	bytes := make([]byte, 5)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := base32.StdEncoding.EncodeToString(bytes)
	code = strings.TrimRight(code, "=")
	return strings.ToLower(code[:8]), nil
}
