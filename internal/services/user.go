package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/HammerMeetNail/socialcore/internal/models"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
)

// bcryptCost is a variable so tests can lower it.
var bcryptCost = 12

const userColumns = `id, username, password_hash, status, created_at, updated_at`

// SessionInvalidator ends every session of a user.
type SessionInvalidator interface {
	InvalidateAll(ctx context.Context, userID int64) bool
}

// UserService is the identity provider for the social core: existence
// checks, username lookup and login.
type UserService struct {
	db       DBConn
	sessions SessionInvalidator
}

func NewUserService(db DBConn, sessions SessionInvalidator) *UserService {
	return &UserService{db: db, sessions: sessions}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func scanUser(row Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *UserService) Create(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return nil, ErrInvalidPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		username, hash, models.UserStatusActive,
	))
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return exists, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords produce the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUsernameRequired) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusSuspended {
		return nil, ErrUserSuspended
	}

	return user, nil
}

// SetStatus changes a user's account status. Suspending a user also ends all
// of their sessions.
func (s *UserService) SetStatus(ctx context.Context, id int64, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	user, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET status = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, status,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating user status: %w", err)
	}

	if status == models.UserStatusSuspended && s.sessions != nil {
		s.sessions.InvalidateAll(ctx, id)
	}

	return user, nil
}
