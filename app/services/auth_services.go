package services

import (
	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/auth"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/event"
	"github.com/tradeyard/tradeyard/pkg/rbac"
)

// AuthService registers accounts and issues token pairs.
type AuthService struct {
	Users *repositories.UserRepository
}

func NewAuthService() *AuthService {
	return &AuthService{Users: repositories.NewUserRepository()}
}

// TokenPair is the issued access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string  `json:"name" validate:"required,min=2,max=255"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone"`
	Password string  `json:"password" validate:"required,min=8"`
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(in RegisterInput) (models.User, TokenPair, error) {
	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, TokenPair{}, errs.Wrap(errs.KindInternal, err, "hash password")
	}

	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hashed,
		Role:     string(rbac.RoleCustomer),
	}
	if err := s.Users.Create(&user); err != nil {
		return models.User{}, TokenPair{}, err
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}

	event.FireAsync("auth.user.registered", user.ID)
	return user, pair, nil
}

// Login verifies credentials and issues a fresh token pair.
func (s *AuthService) Login(email, password string) (models.User, TokenPair, error) {
	user, err := s.Users.FindByEmail(email)
	if err != nil {
		if errs.IsNotFound(err) {
			return models.User{}, TokenPair{}, errs.Unauthorized("invalid email or password")
		}
		return models.User{}, TokenPair{}, err
	}

	if !auth.CheckPassword(user.Password, password) {
		return models.User{}, TokenPair{}, errs.Unauthorized("invalid email or password")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The user record
// is re-read so a role change since issuance is reflected immediately.
func (s *AuthService) Refresh(refreshToken string) (TokenPair, error) {
	claims, err := auth.ValidateToken(refreshToken)
	if err != nil {
		return TokenPair{}, errs.Unauthorized("invalid refresh token")
	}

	user, err := s.Users.FindByID(claims.UserID)
	if err != nil {
		if errs.IsNotFound(err) {
			return TokenPair{}, errs.Unauthorized("account no longer exists")
		}
		return TokenPair{}, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user models.User) (TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, errs.Wrap(errs.KindInternal, err, "issue access token")
	}
	refresh, err := auth.GenerateRefreshToken(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, errs.Wrap(errs.KindInternal, err, "issue refresh token")
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// UpdateProfileInput carries the self-service profile fields. Absent fields
// stay unchanged.
type UpdateProfileInput struct {
	Name      *string           `json:"name" validate:"nullable,min=2,max=255"`
	Phone     *string           `json:"phone"`
	Addresses *[]models.Address `json:"addresses"`
}

// UpdateProfile applies a partial self-service edit to the user record.
func (s *AuthService) UpdateProfile(userID string, in UpdateProfileInput) (models.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return models.User{}, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Phone != nil {
		user.Phone = in.Phone
	}
	if in.Addresses != nil {
		user.Addresses = *in.Addresses
	}

	if err := s.Users.Update(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
