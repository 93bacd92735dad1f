package trips

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound means no trip matched the lookup.
	ErrNotFound = errors.New("trip not found")
	// ErrNotCancellable means the trip exists but is past pending.
	ErrNotCancellable = errors.New("trip can no longer be cancelled")
)

// Store persists trips.
type Store interface {
	Create(ctx context.Context, t *Trip) error
	GetByID(ctx context.Context, id string) (*Trip, error)

	// ListByRider returns the rider's newest trips first, capped at
	// limit, with the driver id withheld.
	ListByRider(ctx context.Context, riderID string, limit int) ([]Trip, error)

	// Cancel moves a pending trip owned by riderID to cancelled.
	Cancel(ctx context.Context, id, riderID string) (*Trip, error)
}

// PG is the Postgres-backed Store.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG returns a Store backed by the given pool.
func NewPG(pool *pgxpool.Pool) *PG { return &PG{pool: pool} }

func (s *PG) Create(ctx context.Context, t *Trip) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO trips (id,rider_id,mode,start_coords,end_coords,start_address,end_address,fare,otp,status,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.RiderID, t.Mode, t.StartCoords, t.EndCoords,
		t.StartAddress, t.EndAddress, t.Fare, t.OTP, t.Status, t.CreatedAt)
	return err
}

func (s *PG) GetByID(ctx context.Context, id string) (*Trip, error) {
	var t Trip
	err := s.pool.QueryRow(ctx,
		`SELECT id,rider_id,driver_id,mode,start_coords,end_coords,
		        COALESCE(start_address,''),COALESCE(end_address,''),fare,COALESCE(otp,''),status,created_at
		 FROM trips WHERE id=$1`, id).
		Scan(&t.ID, &t.RiderID, &t.DriverID, &t.Mode, &t.StartCoords, &t.EndCoords,
			&t.StartAddress, &t.EndAddress, &t.Fare, &t.OTP, &t.Status, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PG) ListByRider(ctx context.Context, riderID string, limit int) ([]Trip, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id,rider_id,mode,start_coords,end_coords,
		        COALESCE(start_address,''),COALESCE(end_address,''),fare,COALESCE(otp,''),status,created_at
		 FROM trips WHERE rider_id=$1 ORDER BY created_at DESC LIMIT $2`, riderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []Trip{}
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.RiderID, &t.Mode, &t.StartCoords, &t.EndCoords,
			&t.StartAddress, &t.EndAddress, &t.Fare, &t.OTP, &t.Status, &t.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (s *PG) Cancel(ctx context.Context, id, riderID string) (*Trip, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE trips SET status=$1 WHERE id=$2 AND rider_id=$3 AND status=$4`,
		StatusCancelled, id, riderID, StatusPending)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from non-cancellable for the handler.
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, ErrNotFound
		}
		return nil, ErrNotCancellable
	}
	return s.GetByID(ctx, id)
}
