package events

// TripRequestedEvent is published to trip.requested when a booking
// lands.
type TripRequestedEvent struct {
	TripID      string    `json:"trip_id"`
	RiderID     string    `json:"rider_id"`
	Mode        string    `json:"mode"`
	Fare        float64   `json:"fare"`
	StartCoords []float64 `json:"start_coords"`
	EndCoords   []float64 `json:"end_coords"`
	RequestedAt string    `json:"requested_at"`
}

// TripCancelledEvent is published to trip.cancelled.
type TripCancelledEvent struct {
	TripID      string `json:"trip_id"`
	RiderID     string `json:"rider_id"`
	CancelledAt string `json:"cancelled_at"`
}
