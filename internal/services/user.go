package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

const (
	minPasswordLength = 8
	oauthStateTTL     = 10 * time.Minute

	providerPassword = "password"
	providerGoogle   = "google"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ErrInvalidCredentials is returned on login with a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidOAuthState is returned when the OAuth callback carries an unknown
// or expired state value.
var ErrInvalidOAuthState = errors.New("invalid or expired oauth state")

// stateStore holds one-time OAuth state values with a TTL.
type stateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: make(map[string]time.Time)}
}

func (s *stateStore) Issue() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := hex.EncodeToString(b)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(oauthStateTTL)
	return state, nil
}

// Consume removes the state and reports whether it was valid and unexpired.
func (s *stateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Now().Before(exp)
}

type userService struct {
	userRepo      domain.UserRepository
	prefRepo      domain.PreferenceRepository
	hasher        domain.PasswordHasher
	tokenIssuer   domain.TokenIssuer
	tokenExpiry   time.Duration
	oauth         domain.OAuthExchanger
	states        *stateStore
	notifications domain.NotificationService
	logger        *slog.Logger
}

// NewUserService creates a UserService with the given repositories and auth ports.
// oauth and notifications may be nil; the matching features are then disabled.
func NewUserService(
	userRepo domain.UserRepository,
	prefRepo domain.PreferenceRepository,
	hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	oauth domain.OAuthExchanger,
	notifications domain.NotificationService,
	logger *slog.Logger,
) domain.UserService {
	return &userService{
		userRepo:      userRepo,
		prefRepo:      prefRepo,
		hasher:        hasher,
		tokenIssuer:   tokenIssuer,
		tokenExpiry:   tokenExpiry,
		oauth:         oauth,
		states:        newStateStore(),
		notifications: notifications,
		logger:        logger,
	}
}

func (s *userService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("invalid email format")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, strings.TrimSpace(name), providerPassword, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.prefRepo.Put(ctx, defaultPrefsNow(user.ID, now)); err != nil {
		s.logger.Warn("failed to store default preferences", "user_id", user.ID, "error", err)
	}
	s.welcome(ctx, user)
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Provider != providerPassword || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &domain.AuthResult{Token: token, User: user}, nil
}

func (s *userService) OAuthLoginURL(ctx context.Context) (string, error) {
	if s.oauth == nil {
		return "", fmt.Errorf("oauth login is not configured")
	}
	state, err := s.states.Issue()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

func (s *userService) OAuthCallback(ctx context.Context, state, code string) (*domain.AuthResult, error) {
	if s.oauth == nil {
		return nil, fmt.Errorf("oauth login is not configured")
	}
	if !s.states.Consume(state) {
		return nil, ErrInvalidOAuthState
	}
	identity, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	email := strings.TrimSpace(strings.ToLower(identity.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		// First login: create the account.
		now := time.Now()
		user = domain.NewUser(email, identity.Name, providerGoogle, now, now)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.prefRepo.Put(ctx, defaultPrefsNow(user.ID, now)); err != nil {
			s.logger.Warn("failed to store default preferences", "user_id", user.ID, "error", err)
		}
		s.welcome(ctx, user)
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &domain.AuthResult{Token: token, User: user}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// welcome sends the welcome email without failing the signup.
func (s *userService) welcome(ctx context.Context, user *domain.User) {
	if s.notifications == nil {
		return
	}
	data := &domain.WelcomeMessageEmailData{Email: user.Email, Name: user.Name}
	if err := s.notifications.SendWelcomeMessage(ctx, data); err != nil {
		s.logger.Warn("failed to send welcome email", "user_id", user.ID, "error", err)
	}
}

func defaultPrefsNow(userID string, now time.Time) *domain.Preferences {
	prefs := domain.DefaultPreferences(userID)
	prefs.UpdatedAt = now
	return prefs
}
