package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Faith-tech-code/safemove/internal/users"
	"github.com/Faith-tech-code/safemove/pkg/jwt"
	"github.com/Faith-tech-code/safemove/pkg/validation"
)

// genericResetMessage goes back for every forgot-password request,
// existing account or not, so responses don't enumerate accounts.
const genericResetMessage = "If an account with that email exists, a password reset link has been sent."

// cacheEvictor drops a cached auth user, e.g. after a password reset.
type cacheEvictor interface {
	DropAuthUser(ctx context.Context, userID string) error
}

// Service orchestrates registration, login and the password-reset
// lifecycle.
type Service struct {
	store  users.Store
	signer *jwt.Signer
	resets *ResetTokens
	cache  cacheEvictor // optional
	dev    bool         // surface reset tokens in responses
}

// NewService wires the auth flows. cache may be nil.
func NewService(store users.Store, signer *jwt.Signer, cache cacheEvictor, dev bool) *Service {
	return &Service{
		store:  store,
		signer: signer,
		resets: NewResetTokens(store),
		cache:  cache,
		dev:    dev,
	}
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Phone    string                `json:"phone"`
	Password string                `json:"password"`
	Role     string                `json:"role"`
	Driver   *DriverDetailsRequest `json:"driverDetails"`
}

// DriverDetailsRequest carries the driver verification sub-fields.
type DriverDetailsRequest struct {
	NationalID          string `json:"nationalId"`
	DrivingLicense      string `json:"drivingLicense"`
	VehicleType         string `json:"vehicleType"`
	VehicleRegistration string `json:"vehicleRegistration"`
	VehicleMake         string `json:"vehicleMake"`
	VehicleColor        string `json:"vehicleColor"`
}

// RegisterResponse is returned on a successful registration.
type RegisterResponse struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// LoginRequest is the body for POST /auth/login. LoginInput is either
// an email address or a phone number.
type LoginRequest struct {
	LoginInput string `json:"loginInput"`
	Password   string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        users.Projection `json:"user"`
}

// ForgotPasswordResponse is returned for every forgot-password call.
// ResetToken is set only in development builds.
type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

// Register validates the request, hashes the password and persists the
// account. Role defaults to rider; driver registrations must carry the
// verification sub-fields.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	// Store what login looks up: identifiers are trimmed once here.
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		return nil, validationErr("Missing required fields")
	}
	if !validation.ValidateEmail(req.Email) {
		return nil, validationErr("Invalid email address")
	}
	if !validation.ValidatePhone(req.Phone) {
		return nil, validationErr("Invalid phone number")
	}
	if !validation.ValidatePassword(req.Password) {
		return nil, validationErr("Password must be at least 6 characters long")
	}

	role := req.Role
	if role == "" {
		role = users.RoleRider
	}
	switch role {
	case users.RoleRider, users.RoleDriver, users.RoleAdmin:
	default:
		return nil, validationErr("Invalid role")
	}

	var details *users.DriverDetails
	var vehicleType *string
	if role == users.RoleDriver {
		if req.Driver == nil {
			return nil, validationErr("Driver details are required for driver registration")
		}
		d := req.Driver
		if d.NationalID == "" || d.DrivingLicense == "" || d.VehicleType == "" || d.VehicleRegistration == "" {
			return nil, validationErr("All driver verification fields are required")
		}
		details = &users.DriverDetails{
			NationalID:          d.NationalID,
			DrivingLicense:      d.DrivingLicense,
			VehicleRegistration: d.VehicleRegistration,
			VehicleMake:         d.VehicleMake,
			VehicleColor:        d.VehicleColor,
			VerificationStatus:  users.VerificationPending,
		}
		vehicleType = &d.VehicleType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &users.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
		Rating:       5.0,
		Tier:         "Silver",
		VehicleType:  vehicleType,
		Driver:       details,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	msg := "Registered successfully"
	if role == users.RoleDriver {
		msg = "Registered successfully. Driver verification documents are pending review."
	}
	return &RegisterResponse{ID: u.ID, Role: u.Role, Message: msg}, nil
}

// Login authenticates by email or phone and returns a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.LoginInput == "" || req.Password == "" {
		return nil, validationErr("Email/Phone and password are required")
	}

	var u *users.User
	var err error
	ident := ParseIdentifier(req.LoginInput)
	switch ident.Kind {
	case IdentifierEmail:
		u, err = s.store.GetByEmail(ctx, ident.Value)
	case IdentifierPhone:
		u, err = s.store.GetByPhone(ctx, ident.Value)
	case IdentifierInvalid:
		return nil, validationErr("Please provide a valid email or phone number")
	}
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidPassword
	}

	token, err := s.signer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResponse{AccessToken: token, TokenType: "Bearer", User: u.Project()}, nil
}

// ForgotPassword starts the reset flow. Unknown emails get the same
// response as known ones.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationErr("Email is required")
	}

	u, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		return &ForgotPasswordResponse{Message: genericResetMessage}, nil
	}
	if err != nil {
		return nil, err
	}

	token, err := s.resets.Generate(ctx, u)
	if err != nil {
		return nil, err
	}

	resp := &ForgotPasswordResponse{Message: genericResetMessage}
	if s.dev {
		resp.ResetToken = token
	}
	return resp, nil
}

// ResetPassword consumes a reset token and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return validationErr("Token and new password are required")
	}

	u, err := s.resets.Consume(ctx, token, newPassword)
	if err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DropAuthUser(ctx, u.ID)
	}
	return nil
}
