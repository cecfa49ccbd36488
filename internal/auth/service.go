package auth

import (
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/sebuszqo/ExpenseFlow/internal/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInternalError         = errors.New("internal Server Error")
	ErrUser2FANotEnabled     = errors.New("two factor auth is not enabled")
	ErrUser2FAAlreadyEnabled = errors.New("2fa auth already enabled")
	ErrInvalid2FACode        = errors.New("2fa code is invalid")
	ErrUserNotVerified       = errors.New("user has not been verified")
	ErrNo2FAEnrollment       = errors.New("no pending 2fa enrollment")
)

// DefaultsSeeder re-creates any missing default categories for a user.
// It runs on every successful login so a fresh or partially wiped account
// always has the standard category set.
type DefaultsSeeder interface {
	EnsureDefaults(userID string) (int, error)
}

type Service interface {
	Login(emailOrLogin, password string) (*user.User, string, string, error)
	VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error)
	EnableTwoFactor(userID string) (string, error)
	ConfirmTwoFactor(userID, code string) error
	DisableTwoFactor(userID, code string) error
	RefreshAccessToken(refreshToken string) (string, error)
	JWTRefreshTokenMiddleware() func(http.Handler) http.Handler
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	userService    user.Service
	sessionManager SessionManagerInterface
	jwtManager     JWTManagerInterface
	authenticator  Authenticator
	seeder         DefaultsSeeder

	mu             sync.Mutex
	pendingSecrets map[string]string
}

func NewAuthService(userService user.Service, sessionManager SessionManagerInterface, jwtManager JWTManagerInterface, authenticator Authenticator, seeder DefaultsSeeder) Service {
	return &service{
		userService:    userService,
		sessionManager: sessionManager,
		jwtManager:     jwtManager,
		authenticator:  authenticator,
		seeder:         seeder,
		pendingSecrets: make(map[string]string),
	}
}

func doPasswordsMatch(hashedPassword, currPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(currPassword))
	return err == nil
}

func (s *service) seedDefaults(userID string) {
	if s.seeder == nil {
		return
	}
	if _, err := s.seeder.EnsureDefaults(userID); err != nil {
		log.Printf("could not ensure default categories for user %s: %v", userID, err)
	}
}

func (s *service) Login(emailOrLogin, password string) (*user.User, string, string, error) {
	existingUser, err := s.userService.GetUserByLoginOrEmail(emailOrLogin)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", ErrInternalError
	}

	if !doPasswordsMatch(existingUser.PasswordHash, password) {
		return nil, "", "", ErrInvalidCredentials
	}

	if !existingUser.IsVerified {
		return nil, "", "", ErrUserNotVerified
	}

	if existingUser.TwoFactorEnabled {
		sessionToken, err := s.sessionManager.GenerateSessionToken(existingUser.ID, defaultSessionTokenDuration)
		if err != nil {
			return nil, "", "", ErrInternalError
		}
		return existingUser, sessionToken, "", nil
	}

	jwtToken, err := s.jwtManager.GenerateAccessJWT(existingUser.ID, defaultJWTDuration)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(existingUser.ID, existingUser.HashToken, defaultJWTRefreshDuration)
	if err != nil {
		return nil, "", "", ErrInternalError
	}

	s.seedDefaults(existingUser.ID)
	return existingUser, jwtToken, refreshToken, nil
}

func (s *service) VerifyTwoFactor(sessionToken, code string) (*user.User, string, string, error) {
	userID, err := s.sessionManager.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, "", "", err
	}
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, "", "", ErrUserNotFound
		}
		return nil, "", "", ErrInternalError
	}
	if !existingUser.TwoFactorEnabled {
		return nil, "", "", ErrUser2FANotEnabled
	}

	if !s.authenticator.VerifyCode(existingUser.TwoFactorSecret, code) {
		return nil, "", "", ErrInvalid2FACode
	}
	s.sessionManager.DeleteSessionToken(sessionToken)

	jwtToken, err := s.jwtManager.GenerateAccessJWT(existingUser.ID, defaultJWTDuration)
	if err != nil {
		return nil, "", "", ErrInternalError
	}
	refreshToken, err := s.jwtManager.GenerateRefreshJWT(existingUser.ID, existingUser.HashToken, defaultJWTRefreshDuration)
	if err != nil {
		return nil, "", "", ErrInternalError
	}

	s.seedDefaults(existingUser.ID)
	return existingUser, jwtToken, refreshToken, nil
}

// EnableTwoFactor generates a TOTP secret and returns the otpauth URI. The
// secret only becomes active once ConfirmTwoFactor validates the first code.
func (s *service) EnableTwoFactor(userID string) (string, error) {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ErrInternalError
	}
	if existingUser.TwoFactorEnabled {
		return "", ErrUser2FAAlreadyEnabled
	}

	otpURI, secret, err := s.authenticator.GenerateSecret(existingUser.Email)
	if err != nil {
		return "", ErrInternalError
	}
	s.mu.Lock()
	s.pendingSecrets[userID] = secret
	s.mu.Unlock()
	return otpURI, nil
}

func (s *service) ConfirmTwoFactor(userID, code string) error {
	s.mu.Lock()
	secret, ok := s.pendingSecrets[userID]
	s.mu.Unlock()
	if !ok {
		return ErrNo2FAEnrollment
	}
	if !s.authenticator.VerifyCode(secret, code) {
		return ErrInvalid2FACode
	}
	if err := s.userService.SetTwoFactor(userID, true, secret); err != nil {
		return ErrInternalError
	}
	s.mu.Lock()
	delete(s.pendingSecrets, userID)
	s.mu.Unlock()
	return nil
}

func (s *service) DisableTwoFactor(userID, code string) error {
	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ErrInternalError
	}
	if !existingUser.TwoFactorEnabled {
		return ErrUser2FANotEnabled
	}
	if !s.authenticator.VerifyCode(existingUser.TwoFactorSecret, code) {
		return ErrInvalid2FACode
	}
	return s.userService.SetTwoFactor(userID, false, "")
}

func (s *service) RefreshAccessToken(refreshToken string) (string, error) {
	userID, err := s.jwtManager.ExtractUserIDFromRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	existingUser, err := s.userService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ErrInternalError
	}

	if err := s.jwtManager.ValidateRefreshToken(refreshToken, existingUser.HashToken); err != nil {
		return "", ErrInvalidJWTRefreshToken
	}

	return s.jwtManager.GenerateAccessJWT(userID, defaultJWTDuration)
}
