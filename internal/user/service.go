package user

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	emailService "github.com/sebuszqo/ExpenseFlow/internal/email"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxEmailLength     = 64
	minEmailLength     = 3
	maxLoginLength     = 30
	minLoginLength     = 5
	bcryptCost         = 12
	defaultCodeTimeout = 15 * time.Minute
)

var (
	ErrInvalidEmail            = errors.New("email address is not valid")
	ErrEmailLength             = fmt.Errorf("email address length must be between %d and %d", minEmailLength, maxEmailLength)
	ErrLoginLength             = fmt.Errorf("login length must be between %d and %d", minLoginLength, maxLoginLength)
	ErrWeakPassword            = errors.New("password must be at least 8 characters long")
	ErrEmailAlreadyExists      = errors.New("email already exists")
	ErrLoginAlreadyExists      = errors.New("login already exists")
	ErrInternalError           = errors.New("internal Server Error")
	ErrUserAlreadyVerified     = errors.New("user already verified")
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	ErrVerificationCodeExpired = errors.New("verification code expired")
	ErrInvalidOldPassword      = errors.New("invalid old password")
)

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Login            string    `json:"login"`
	PasswordHash     string    `json:"-"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorSecret  string    `json:"-"`
	HashToken        string    `json:"-"`
	IsVerified       bool      `json:"is_verified"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Service interface {
	Register(email, login, password string) (*User, error)
	VerifyRegistrationCode(email, code string) error
	GetUserByID(userID string) (*User, error)
	GetUserByLoginOrEmail(loginOrEmail string) (*User, error)
	ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error
	SetTwoFactor(userID string, enabled bool, secret string) error
}

type service struct {
	repo         Repository
	emailService emailService.EmailSender
}

func NewUserService(repo Repository, emailService emailService.EmailSender) Service {
	return &service{
		repo:         repo,
		emailService: emailService,
	}
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashedPasswordBytes), err
}

// GenerateVerificationCode returns a random 6 digit code.
func GenerateVerificationCode() (string, error) {
	code := make([]byte, 6)
	_, err := rand.Read(code)
	if err != nil {
		return "", fmt.Errorf("could not generate verification code: %v", err)
	}
	for i := range code {
		code[i] = '0' + (code[i] % 10)
	}
	return string(code), nil
}

func generateHashToken() (string, error) {
	token := make([]byte, 32)
	_, err := rand.Read(token)
	if err != nil {
		return "", fmt.Errorf("could not generate hash token: %v", err)
	}
	return hex.EncodeToString(token), nil
}

func validateEmailAddress(email string) error {
	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return ErrEmailLength
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func (s *service) Register(email, login, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	login = strings.TrimSpace(login)

	if err := validateEmailAddress(email); err != nil {
		return nil, err
	}
	if len(login) < minLoginLength || len(login) > maxLoginLength {
		return nil, ErrLoginLength
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	existing, err := s.repo.userExistsByLoginOrEmail(login, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, ErrInternalError
	}
	if existing != nil {
		if strings.EqualFold(existing.Email, email) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, ErrLoginAlreadyExists
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, ErrInternalError
	}
	hashToken, err := generateHashToken()
	if err != nil {
		return nil, ErrInternalError
	}

	newUser := &User{
		Email:        email,
		Login:        login,
		PasswordHash: passwordHash,
		HashToken:    hashToken,
	}
	if err := s.repo.createUser(newUser); err != nil {
		return nil, ErrInternalError
	}

	if err := s.sendVerificationCode(newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

func (s *service) sendVerificationCode(u *User) error {
	code, err := GenerateVerificationCode()
	if err != nil {
		return ErrInternalError
	}
	expiresAt := time.Now().Add(defaultCodeTimeout)
	if err := s.repo.saveEmailVerificationCode(u.ID, code, expiresAt); err != nil {
		return ErrInternalError
	}
	s.emailService.QueueEmail(u.Email, emailService.RegistrationConfirmationData{
		UserName: u.Login,
		Code:     code,
	})
	return nil
}

func (s *service) VerifyRegistrationCode(email, code string) error {
	existing, err := s.repo.getUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if existing.IsVerified {
		return ErrUserAlreadyVerified
	}

	storedCode, expiresAt, err := s.repo.getEmailVerificationCode(existing.ID)
	if err != nil {
		return err
	}
	if time.Now().After(expiresAt) {
		return ErrVerificationCodeExpired
	}
	if storedCode != code {
		return ErrInvalidVerificationCode
	}

	if err := s.repo.updateEmailVerified(existing.ID, true); err != nil {
		return ErrInternalError
	}
	return s.repo.deleteEmailVerificationCode(existing.ID)
}

func (s *service) GetUserByID(userID string) (*User, error) {
	return s.repo.getUserByID(userID)
}

func (s *service) GetUserByLoginOrEmail(loginOrEmail string) (*User, error) {
	return s.repo.getUserByLoginOrEmail(strings.TrimSpace(loginOrEmail))
}

func (s *service) ChangePasswordWithOldPassword(userID, oldPassword, newPassword string) error {
	existing, err := s.repo.getUserByID(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidOldPassword
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return ErrInternalError
	}
	// Rotating the hash token invalidates every outstanding refresh token.
	hashToken, err := generateHashToken()
	if err != nil {
		return ErrInternalError
	}
	return s.repo.updateUserPasswordAndHashToken(userID, passwordHash, hashToken)
}

func (s *service) SetTwoFactor(userID string, enabled bool, secret string) error {
	return s.repo.updateTwoFactor(userID, enabled, secret)
}
