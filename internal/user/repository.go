package user

import (
	"database/sql"
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	createUser(user *User) error
	getUserByID(userID string) (*User, error)
	getUserByEmail(email string) (*User, error)
	getUserByLoginOrEmail(loginOrEmail string) (*User, error)
	userExistsByLoginOrEmail(login, email string) (*User, error)
	updateEmailVerified(userID string, verified bool) error
	updateUserPasswordAndHashToken(userID, passwordHash, hashToken string) error
	updateTwoFactor(userID string, enabled bool, secret string) error
	saveEmailVerificationCode(userID, code string, expiresAt time.Time) error
	getEmailVerificationCode(userID string) (string, time.Time, error)
	deleteEmailVerificationCode(userID string) error
}

type repository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, login, password_hash, two_factor_enabled, two_factor_secret, hash_token, is_verified, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var secret sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Login, &u.PasswordHash, &u.TwoFactorEnabled, &secret, &u.HashToken, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.TwoFactorSecret = secret.String
	return &u, nil
}

func (r *repository) createUser(user *User) error {
	query := `
		INSERT INTO users (email, login, password_hash, hash_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query, user.Email, user.Login, user.PasswordHash, user.HashToken).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *repository) getUserByID(userID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(query, userID))
}

func (r *repository) getUserByEmail(email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(query, email))
}

func (r *repository) getUserByLoginOrEmail(loginOrEmail string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 OR email = LOWER($1)`
	return scanUser(r.db.QueryRow(query, loginOrEmail))
}

func (r *repository) userExistsByLoginOrEmail(login, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 OR email = $2`
	return scanUser(r.db.QueryRow(query, login, email))
}

func (r *repository) updateEmailVerified(userID string, verified bool) error {
	query := `UPDATE users SET is_verified = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(query, verified, userID)
	return err
}

func (r *repository) updateUserPasswordAndHashToken(userID, passwordHash, hashToken string) error {
	query := `UPDATE users SET password_hash = $1, hash_token = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.Exec(query, passwordHash, hashToken, userID)
	return err
}

func (r *repository) updateTwoFactor(userID string, enabled bool, secret string) error {
	query := `UPDATE users SET two_factor_enabled = $1, two_factor_secret = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.Exec(query, enabled, sql.NullString{String: secret, Valid: secret != ""}, userID)
	return err
}

func (r *repository) saveEmailVerificationCode(userID, code string, expiresAt time.Time) error {
	query := `
		INSERT INTO email_verification_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.Exec(query, userID, code, expiresAt)
	return err
}

func (r *repository) getEmailVerificationCode(userID string) (string, time.Time, error) {
	query := `SELECT code, expires_at FROM email_verification_codes WHERE user_id = $1`
	var code string
	var expiresAt time.Time
	err := r.db.QueryRow(query, userID).Scan(&code, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, ErrInvalidVerificationCode
		}
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

func (r *repository) deleteEmailVerificationCode(userID string) error {
	_, err := r.db.Exec(`DELETE FROM email_verification_codes WHERE user_id = $1`, userID)
	return err
}
