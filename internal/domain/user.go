package domain

import (
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID              int64      `json:"id"`
	Role            string     `json:"role"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	City            string     `json:"city"`
	Address         string     `json:"address"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"verification_code"`
}

type SendVerificationRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	City    *string `json:"city,omitempty"`
	Address *string `json:"address,omitempty"`
}

type AuthResponse struct {
	Message      string    `json:"message"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *UserInfo `json:"user"`
}

type UserInfo struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	Address    string `json:"address"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

// Valid user roles. Admin is assigned out-of-band, never at sign-up.
const (
	RoleRegular = "regular"
	RoleDriver  = "driver"
	RoleAdmin   = "admin"
)

var signUpRoles = map[string]bool{
	RoleRegular: true,
	RoleDriver:  true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^[\+]?[\d\s\-\(\)]+$`)

func (r *SignUpRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.City = strings.TrimSpace(r.City)
	r.Address = strings.TrimSpace(r.Address)
	if r.Role == "" {
		r.Role = RoleRegular
	}
}

func (r *SignUpRequest) Validate() error {
	if r.Name == "" {
		return Validationf("name is required")
	}
	if r.Email == "" {
		return Validationf("email is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return Validationf("invalid email format")
	}
	if r.Password == "" {
		return Validationf("password is required")
	}
	if len(r.Password) < 8 {
		return Validationf("password must be at least 8 characters")
	}
	if r.Phone == "" {
		return Validationf("phone is required")
	}
	if !isValidPhone(r.Phone) {
		return Validationf("invalid phone format")
	}
	if !signUpRoles[r.Role] {
		return Validationf("role must be either 'regular' or 'driver'")
	}
	return nil
}

func (r *SignInRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SignInRequest) Validate() error {
	if r.Email == "" {
		return Validationf("email is required")
	}
	if !emailRegex.MatchString(r.Email) {
		return Validationf("invalid email format")
	}
	if r.Password == "" {
		return Validationf("password is required")
	}
	return nil
}

func (r *VerifyEmailRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyEmailRequest) Validate() error {
	if r.Email == "" || !emailRegex.MatchString(r.Email) {
		return Validationf("a valid email is required")
	}
	if len(r.Code) != 4 {
		return Validationf("verification code must be 4 digits")
	}
	return nil
}

func (r *ResetPasswordRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Token = strings.TrimSpace(r.Token)
}

func (r *ResetPasswordRequest) Validate() error {
	if r.Token == "" {
		return Validationf("token is required")
	}
	if r.Email == "" || !emailRegex.MatchString(r.Email) {
		return Validationf("a valid email is required")
	}
	if len(r.Password) < 8 {
		return Validationf("password must be at least 8 characters")
	}
	return nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return Validationf("name cannot be empty")
	}
	if r.Phone != nil && !isValidPhone(*r.Phone) {
		return Validationf("invalid phone format")
	}
	return nil
}

func isValidPhone(phone string) bool {
	return phoneRegex.MatchString(phone) && len(phone) >= 7
}

// ToUserInfo strips sensitive fields for API responses.
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		City:       u.City,
		Address:    u.Address,
		Role:       u.Role,
		IsVerified: u.IsVerified(),
	}
}
