package users

import "time"

// Roles a user account can hold.
const (
	RoleRider  = "rider"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// Driver verification states.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// User represents an account. Riders, drivers and admins share the one
// record; drivers additionally carry a DriverDetails sub-record.
type User struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	PasswordHash string         `json:"-"`
	Role         string         `json:"role"`
	Rating       float64        `json:"rating"`
	Verified     bool           `json:"verified"`
	Tier         string         `json:"tier"`
	VehicleType  *string        `json:"vehicle_type,omitempty"`
	Driver       *DriverDetails `json:"driver_details,omitempty"`

	// Reset token state: either both nil or both set. The plaintext
	// token is never stored, only its hash.
	ResetTokenHash    *string    `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// DriverDetails holds the verification sub-record for driver accounts.
type DriverDetails struct {
	NationalID          string     `json:"national_id"`
	DrivingLicense      string     `json:"driving_license"`
	VehicleRegistration string     `json:"vehicle_registration"`
	VehicleMake         string     `json:"vehicle_make,omitempty"`
	VehicleColor        string     `json:"vehicle_color,omitempty"`
	Documents           []Document `json:"documents,omitempty"`
	Verified            bool       `json:"is_verified"`
	VerificationStatus  string     `json:"verification_status"`
}

// Document is one uploaded verification file.
type Document struct {
	FieldName string `json:"fieldname,omitempty"`
	FileName  string `json:"filename"`
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
}

// Projection is the minimal user shape returned with auth responses.
type Projection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Project returns the minimal projection of u.
func (u *User) Project() Projection {
	return Projection{ID: u.ID, Name: u.Name, Role: u.Role}
}
