package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound means no user matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicatePhone means the unique index on phone rejected a create.
	ErrDuplicatePhone = errors.New("phone number already registered")
	// ErrDuplicateEmail means the unique index on email rejected a create.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Store persists user accounts. Uniqueness of phone and email is the
// store's responsibility; concurrent duplicate creates must resolve to
// one success and one duplicate error.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)

	// SetResetToken stores a reset-token hash and its expiry on a user.
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error

	// ConsumeResetToken atomically finds the user holding an unexpired
	// matching token hash, swaps in the new password hash, and clears
	// both reset fields. ErrNotFound when no unexpired match exists.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (*User, error)
}

// PG is the Postgres-backed Store.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG returns a Store backed by the given pool.
func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

const userColumns = `id,name,email,phone,password_hash,role,rating,verified,tier,
	vehicle_type,driver_details,reset_token_hash,reset_token_expires,created_at`

func (s *PG) Create(ctx context.Context, u *User) error {
	var details []byte
	if u.Driver != nil {
		var err error
		details, err = json.Marshal(u.Driver)
		if err != nil {
			return fmt.Errorf("marshal driver details: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id,name,email,phone,password_hash,role,rating,verified,tier,vehicle_type,driver_details,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Rating,
		u.Verified, u.Tier, u.VehicleType, details, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_email_key" {
				return ErrDuplicateEmail
			}
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

func (s *PG) GetByID(ctx context.Context, id string) (*User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *PG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *PG) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return s.getBy(ctx, "phone", phone)
}

func (s *PG) getBy(ctx context.Context, column, value string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+`=$1`, value)
	return scanUser(row)
}

func (s *PG) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET reset_token_hash=$1, reset_token_expires=$2 WHERE id=$3`,
		tokenHash, expires, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PG) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET password_hash=$1, reset_token_hash=NULL, reset_token_expires=NULL
		 WHERE reset_token_hash=$2 AND reset_token_expires > $3
		 RETURNING `+userColumns, newPasswordHash, tokenHash, now)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var details []byte
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.Rating, &u.Verified, &u.Tier, &u.VehicleType,
		&details, &u.ResetTokenHash, &u.ResetTokenExpires, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		u.Driver = &DriverDetails{}
		if err := json.Unmarshal(details, u.Driver); err != nil {
			return nil, fmt.Errorf("unmarshal driver details: %w", err)
		}
	}
	return &u, nil
}
