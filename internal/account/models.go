package account

import "errors"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrInvalidRole        = errors.New("invalid role")
	ErrLastAdmin          = errors.New("cannot demote the last admin")
	ErrAdminSignup        = errors.New("admin accounts cannot self-register")
)

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserWithFeedback is a row of the admin users table.
type UserWithFeedback struct {
	User
	FeedbackCount  int    `json:"feedback_count"`
	VerifiedCount  int    `json:"verified_count"`
	LastFeedbackAt *int64 `json:"last_feedback_at,omitempty"`
}

type SignupInput struct {
	Fullname string `json:"fullname" validate:"required,max=100"`
	Username string `json:"username" validate:"omitempty,min=3,max=20,alphanumunderscore"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func ValidRole(r string) bool { return r == RoleUser || r == RoleAdmin }
