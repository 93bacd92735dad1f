package trips

import "time"

// Trip lifecycle states.
const (
	StatusPending    = "pending"
	StatusAccepted   = "accepted"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Fares maps a transport mode to its flat price. An unknown mode is a
// validation failure, never a default fare.
var Fares = map[string]float64{
	"boda":  5,
	"taxi":  15,
	"car":   25,
	"bus":   10,
	"train": 35,
}

// Trip represents a booked ride.
type Trip struct {
	ID           string    `json:"id"`
	RiderID      string    `json:"rider_id"`
	DriverID     *string   `json:"driver_id,omitempty"`
	Mode         string    `json:"mode"`
	StartCoords  []float64 `json:"startCoords"`
	EndCoords    []float64 `json:"endCoords"`
	StartAddress string    `json:"startAddress,omitempty"`
	EndAddress   string    `json:"endAddress,omitempty"`
	Fare         float64   `json:"fare"`
	OTP          string    `json:"otp,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// BookRequest is the body for POST /trips.
type BookRequest struct {
	Mode         string    `json:"mode"`
	StartCoords  []float64 `json:"startCoords"`
	EndCoords    []float64 `json:"endCoords"`
	StartAddress string    `json:"startAddress"`
	EndAddress   string    `json:"endAddress"`
}

// BookResponse is returned on a successful booking.
type BookResponse struct {
	Message string  `json:"message"`
	TripID  string  `json:"tripId"`
	Fare    float64 `json:"fare"`
	OTP     string  `json:"otp"`
}
