package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// User represents a registered user of the email filter.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"` // "password" or "google"
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is set by the repository on create.
func NewUser(email, name, provider string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:     email,
		Name:      name,
		Provider:  provider,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// OAuthIdentity is the subset of an OAuth provider's userinfo the service cares about.
type OAuthIdentity struct {
	Email string
	Name  string
}

// OAuthExchanger handles the provider side of the OAuth authorization-code flow.
type OAuthExchanger interface {
	// AuthCodeURL returns the provider consent URL carrying the given state.
	AuthCodeURL(state string) string
	// Exchange trades the authorization code for the user's identity.
	Exchange(ctx context.Context, code string) (*OAuthIdentity, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// AuthResult is what a successful login yields.
type AuthResult struct {
	Token string
	User  *User
}

// UserService defines the business logic for authentication and profiles.
type UserService interface {
	SignUp(ctx context.Context, email, password, name string) (*User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// OAuthLoginURL returns the provider consent URL with a fresh one-time state.
	OAuthLoginURL(ctx context.Context) (string, error)
	// OAuthCallback validates state, exchanges the code, and signs the user in,
	// creating the account on first login.
	OAuthCallback(ctx context.Context, state, code string) (*AuthResult, error)
	GetByID(ctx context.Context, id string) (*User, error)
}
