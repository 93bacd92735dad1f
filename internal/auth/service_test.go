package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Faith-tech-code/safemove/internal/users"
	"github.com/Faith-tech-code/safemove/pkg/jwt"
)

// memStore is an in-memory users.Store for tests.
type memStore struct {
	mu   sync.Mutex
	byID map[string]*users.User
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]*users.User{}}
}

func (s *memStore) Create(_ context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Phone == u.Phone {
			return users.ErrDuplicatePhone
		}
		if existing.Email == u.Email {
			return users.ErrDuplicateEmail
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, users.ErrNotFound
}

func (s *memStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	return s.find(func(u *users.User) bool { return u.Email == email })
}

func (s *memStore) GetByPhone(_ context.Context, phone string) (*users.User, error) {
	return s.find(func(u *users.User) bool { return u.Phone == phone })
}

func (s *memStore) find(match func(*users.User) bool) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *memStore) SetResetToken(_ context.Context, userID, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return users.ErrNotFound
	}
	exp := expires
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpires = &exp
	return nil
}

func (s *memStore) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, newPasswordHash string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpires != nil && u.ResetTokenExpires.After(now) {
			u.PasswordHash = newPasswordHash
			u.ResetTokenHash = nil
			u.ResetTokenExpires = nil
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (s *memStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

func newTestService(t *testing.T, dev bool) (*Service, *memStore, *jwt.Signer) {
	t.Helper()
	signer, err := jwt.NewSigner("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore()
	return NewService(store, signer, nil, dev), store, signer
}

func riderRequest() RegisterRequest {
	return RegisterRequest{
		Name:     "A",
		Email:    "a@example.com",
		Phone:    "256700000001",
		Password: "secret1",
	}
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, signer := newTestService(t, false)
	ctx := context.Background()

	reg, err := svc.Register(ctx, riderRequest())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Role != users.RoleRider {
		t.Fatalf("role = %q, want rider", reg.Role)
	}
	if reg.ID == "" {
		t.Fatal("empty id")
	}

	// Login by phone.
	resp, err := svc.Login(ctx, LoginRequest{LoginInput: "256700000001", Password: "secret1"})
	if err != nil {
		t.Fatalf("login by phone: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("empty token")
	}
	claims, err := signer.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Role != users.RoleRider || claims.UserID != reg.ID {
		t.Fatalf("claims = %+v, want rider %s", claims, reg.ID)
	}

	// Login by email too.
	if _, err := svc.Login(ctx, LoginRequest{LoginInput: "a@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestRegisterTrimsIdentifiers(t *testing.T) {
	svc, store, _ := newTestService(t, true)
	ctx := context.Background()

	req := riderRequest()
	req.Email = " a@example.com "
	req.Phone = " 256700000001 "
	reg, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := store.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "a@example.com" || u.Phone != "256700000001" {
		t.Fatalf("stored identifiers not trimmed: email=%q phone=%q", u.Email, u.Phone)
	}

	// The padded credentials still log in afterwards.
	if _, err := svc.Login(ctx, LoginRequest{LoginInput: " 256700000001 ", Password: "secret1"}); err != nil {
		t.Fatalf("login by padded phone: %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{LoginInput: " a@example.com ", Password: "secret1"}); err != nil {
		t.Fatalf("login by padded email: %v", err)
	}

	// Forgot-password finds the account through a padded email too;
	// in dev mode a found account surfaces its reset token.
	forgot, err := svc.ForgotPassword(ctx, " a@example.com ")
	if err != nil {
		t.Fatalf("forgot by padded email: %v", err)
	}
	if forgot.ResetToken == "" {
		t.Fatal("padded email did not resolve to the account")
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()

	if _, err := svc.Register(ctx, riderRequest()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	req := riderRequest()
	req.Email = "other@example.com"
	_, err := svc.Register(ctx, req)
	if err != users.ErrDuplicatePhone {
		t.Fatalf("second register err = %v, want ErrDuplicatePhone", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"missing name", func(r *RegisterRequest) { r.Name = "" }},
		{"missing email", func(r *RegisterRequest) { r.Email = "" }},
		{"missing phone", func(r *RegisterRequest) { r.Phone = "" }},
		{"missing password", func(r *RegisterRequest) { r.Password = "" }},
		{"bad email", func(r *RegisterRequest) { r.Email = "nope" }},
		{"bad phone", func(r *RegisterRequest) { r.Phone = "070000" }},
		{"short password", func(r *RegisterRequest) { r.Password = "12345" }},
		{"unknown role", func(r *RegisterRequest) { r.Role = "pilot" }},
		{"driver without details", func(r *RegisterRequest) { r.Role = "driver" }},
		{"driver missing sub-fields", func(r *RegisterRequest) {
			r.Role = "driver"
			r.Driver = &DriverDetailsRequest{NationalID: "CM123"}
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := riderRequest()
			c.mutate(&req)
			_, err := svc.Register(ctx, req)
			var ve *ValidationError
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !asValidation(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestRegisterDriver(t *testing.T) {
	svc, store, _ := newTestService(t, false)
	ctx := context.Background()

	req := riderRequest()
	req.Role = users.RoleDriver
	req.Driver = &DriverDetailsRequest{
		NationalID:          "CM9001",
		DrivingLicense:      "DL-44",
		VehicleType:         "boda",
		VehicleRegistration: "UBE 123X",
	}
	reg, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register driver: %v", err)
	}
	if reg.Role != users.RoleDriver {
		t.Fatalf("role = %q", reg.Role)
	}

	u, err := store.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Driver == nil || u.Driver.VerificationStatus != users.VerificationPending {
		t.Fatalf("driver details = %+v, want pending verification", u.Driver)
	}
	if u.VehicleType == nil || *u.VehicleType != "boda" {
		t.Fatalf("vehicle type = %v, want boda", u.VehicleType)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()
	if _, err := svc.Register(ctx, riderRequest()); err != nil {
		t.Fatal(err)
	}

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{LoginInput: "256700000001", Password: "wrong-1"})
		if err != ErrInvalidPassword {
			t.Fatalf("err = %v, want ErrInvalidPassword", err)
		}
	})

	t.Run("unknown phone", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{LoginInput: "256700000099", Password: "secret1"})
		if err != ErrUserNotFound {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("invalid identifier shape", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{LoginInput: "not-a-thing", Password: "secret1"})
		var ve *ValidationError
		if !asValidation(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})

	t.Run("empty fields", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{})
		var ve *ValidationError
		if !asValidation(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})
}

func TestForgotPasswordDoesNotEnumerate(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	ctx := context.Background()
	if _, err := svc.Register(ctx, riderRequest()); err != nil {
		t.Fatal(err)
	}

	known, err := svc.ForgotPassword(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("known email: %v", err)
	}
	unknown, err := svc.ForgotPassword(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("unknown email: %v", err)
	}

	if known.Message != unknown.Message {
		t.Fatalf("messages differ: %q vs %q", known.Message, unknown.Message)
	}
	if known.ResetToken != "" || unknown.ResetToken != "" {
		t.Fatal("reset token must not surface outside development mode")
	}
}

func TestForgotPasswordSurfacesTokenInDev(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	ctx := context.Background()
	if _, err := svc.Register(ctx, riderRequest()); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.ForgotPassword(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.ResetToken) != 64 { // 32 random bytes, hex-encoded
		t.Fatalf("token length = %d, want 64", len(resp.ResetToken))
	}
}

func TestResetPasswordSingleUse(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	ctx := context.Background()
	if _, err := svc.Register(ctx, riderRequest()); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.ForgotPassword(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	token := resp.ResetToken

	if err := svc.ResetPassword(ctx, token, "newpass1"); err != nil {
		t.Fatalf("first consume: %v", err)
	}

	// Old password dead, new one works.
	if _, err := svc.Login(ctx, LoginRequest{LoginInput: "a@example.com", Password: "secret1"}); err != ErrInvalidPassword {
		t.Fatalf("old password err = %v, want ErrInvalidPassword", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{LoginInput: "a@example.com", Password: "newpass1"}); err != nil {
		t.Fatalf("new password: %v", err)
	}

	// Second consume of the same token fails.
	if err := svc.ResetPassword(ctx, token, "another1"); err != ErrInvalidOrExpiredToken {
		t.Fatalf("second consume err = %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestResetPasswordExpiry(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	ctx := context.Background()
	if _, err := svc.Register(ctx, riderRequest()); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.ForgotPassword(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	// Jump the manager's clock past the 10-minute window.
	svc.resets.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if err := svc.ResetPassword(ctx, resp.ResetToken, "newpass1"); err != ErrInvalidOrExpiredToken {
		t.Fatalf("err = %v, want ErrInvalidOrExpiredToken", err)
	}
}

func TestResetPasswordValidation(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	ctx := context.Background()

	var ve *ValidationError
	if err := svc.ResetPassword(ctx, "", "newpass1"); !asValidation(err, &ve) {
		t.Fatalf("missing token err = %v, want ValidationError", err)
	}
	if err := svc.ResetPassword(ctx, "sometoken", "12345"); !asValidation(err, &ve) {
		t.Fatalf("short password err = %v, want ValidationError", err)
	}
	if _, err := svc.ForgotPassword(ctx, ""); !asValidation(err, &ve) {
		t.Fatalf("missing email err = %v, want ValidationError", err)
	}
}

func asValidation(err error, target **ValidationError) bool {
	if err == nil {
		return false
	}
	ve, ok := err.(*ValidationError)
	if ok {
		*target = ve
	}
	return ok
}
