package trips

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Faith-tech-code/safemove/internal/events"
	"github.com/Faith-tech-code/safemove/pkg/kafka"
	"github.com/Faith-tech-code/safemove/pkg/validation"
)

var (
	// ErrInvalidMode means the requested transport mode has no fare.
	ErrInvalidMode = errors.New("Invalid transport mode")
	// ErrInvalidCoords means a coordinate pair was missing or out of range.
	ErrInvalidCoords = errors.New("Invalid coordinates")
	// ErrNotAuthorized means the trip belongs to someone else.
	ErrNotAuthorized = errors.New("Not authorized")
)

// Publisher sends trip events downstream. *kafka.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Service contains trip business logic.
type Service struct {
	store Store
	pub   Publisher // may be nil
}

// NewService creates a trip service. pub may be nil.
func NewService(store Store, pub Publisher) *Service {
	return &Service{store: store, pub: pub}
}

// Book prices the trip off the fare table, issues a one-time code and
// persists the booking as pending. The trip.requested event goes out
// asynchronously; a publish failure never fails the booking.
func (s *Service) Book(ctx context.Context, riderID string, req BookRequest) (*Trip, error) {
	fare, ok := Fares[req.Mode]
	if !ok {
		return nil, ErrInvalidMode
	}
	if !validation.ValidateCoords(req.StartCoords) || !validation.ValidateCoords(req.EndCoords) {
		return nil, ErrInvalidCoords
	}

	otp, err := generateOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	now := time.Now()
	trip := &Trip{
		ID:           uuid.New().String(),
		RiderID:      riderID,
		Mode:         req.Mode,
		StartCoords:  req.StartCoords,
		EndCoords:    req.EndCoords,
		StartAddress: req.StartAddress,
		EndAddress:   req.EndAddress,
		Fare:         fare,
		OTP:          otp,
		Status:       StatusPending,
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, trip); err != nil {
		return nil, err
	}

	if s.pub != nil {
		go func() {
			ev := events.TripRequestedEvent{
				TripID:      trip.ID,
				RiderID:     riderID,
				Mode:        trip.Mode,
				Fare:        fare,
				StartCoords: trip.StartCoords,
				EndCoords:   trip.EndCoords,
				RequestedAt: now.Format(time.RFC3339),
			}
			if err := s.pub.Publish(context.Background(), kafka.TopicTripRequested, trip.ID, ev); err != nil {
				log.Printf("[trips] failed to publish trip.requested: %v", err)
			}
		}()
	}

	return trip, nil
}

// ListMine returns the rider's ten newest trips, driver withheld.
func (s *Service) ListMine(ctx context.Context, riderID string) ([]Trip, error) {
	return s.store.ListByRider(ctx, riderID, 10)
}

// Get fetches a single trip the rider owns.
func (s *Service) Get(ctx context.Context, riderID, tripID string) (*Trip, error) {
	t, err := s.store.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.RiderID != riderID {
		return nil, ErrNotAuthorized
	}
	return t, nil
}

// Cancel moves a pending trip to cancelled and publishes trip.cancelled.
func (s *Service) Cancel(ctx context.Context, riderID, tripID string) (*Trip, error) {
	t, err := s.store.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if t.RiderID != riderID {
		return nil, ErrNotAuthorized
	}

	t, err = s.store.Cancel(ctx, tripID, riderID)
	if err != nil {
		return nil, err
	}

	if s.pub != nil {
		go func() {
			ev := events.TripCancelledEvent{
				TripID:      tripID,
				RiderID:     riderID,
				CancelledAt: time.Now().Format(time.RFC3339),
			}
			if err := s.pub.Publish(context.Background(), kafka.TopicTripCancelled, tripID, ev); err != nil {
				log.Printf("[trips] failed to publish trip.cancelled: %v", err)
			}
		}()
	}
	return t, nil
}

// generateOTP returns a 4-digit numeric code in [1000, 9999].
func generateOTP() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 9000
	return fmt.Sprintf("%d", 1000+n), nil
}
