package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vault-backend/internal/shared/auth"
)

// Challenges expire this long after creation.
const challengeTTL = 5 * time.Minute

const codeDigits = 6

// Service contains business logic for the identity gateway.
type Service struct {
	Users      Repo
	Challenges ChallengeRepo
	SMS        CodeSender

	// Now is swappable in tests.
	Now func() time.Time
}

// RegisterRequest carries everything needed to open an account. The phone
// must have been verified through a register-purpose challenge.
type RegisterRequest struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	ChallengeID string
	Code        string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// RequestCode opens a phone challenge and delivers its code out of band.
// Phone-change challenges bind to the requesting user; login challenges
// require the phone to belong to an account.
func (s *Service) RequestCode(ctx context.Context, phone string, purpose Purpose, requesterID string) (string, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return "", fmt.Errorf("%w: phone number required", ErrInvalidInput)
	}

	switch purpose {
	case PurposeLogin:
		if _, err := s.Users.GetByPhone(ctx, phone); err != nil {
			if errors.Is(err, ErrNotFound) {
				return "", ErrAuth
			}
			return "", err
		}
	case PurposePhoneChange:
		if requesterID == "" {
			return "", fmt.Errorf("%w: phone change requires an authenticated user", ErrInvalidInput)
		}
	case PurposeRegister:
		// Phone availability is enforced at account creation.
	default:
		return "", fmt.Errorf("%w: unknown purpose %q", ErrInvalidInput, purpose)
	}

	code, err := newCode()
	if err != nil {
		return "", err
	}

	now := s.now()
	ch := Challenge{
		ID:        uuid.NewString(),
		Phone:     phone,
		Purpose:   purpose,
		CodeHash:  hashCode(code),
		ExpiresAt: now.Add(challengeTTL),
		CreatedAt: now,
	}
	if purpose == PurposePhoneChange {
		ch.UserID = requesterID
	}

	if err := s.Challenges.Create(ctx, ch); err != nil {
		return "", err
	}
	if err := s.SMS.SendCode(ctx, phone, code); err != nil {
		return "", err
	}
	return ch.ID, nil
}

// redeem checks a challenge's purpose, expiry and code, then consumes it.
// The consume step is a compare-and-set so a challenge is redeemed at most
// once even under concurrent attempts. A wrong code leaves the challenge
// open for another try within its TTL.
func (s *Service) redeem(ctx context.Context, challengeID, code string, purpose Purpose) (Challenge, error) {
	ch, err := s.Challenges.GetByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Challenge{}, ErrAuth
		}
		return Challenge{}, err
	}
	if ch.Purpose != purpose || ch.Used || !s.now().Before(ch.ExpiresAt) {
		return Challenge{}, ErrAuth
	}
	if subtle.ConstantTimeCompare([]byte(hashCode(code)), []byte(ch.CodeHash)) != 1 {
		return Challenge{}, ErrAuth
	}
	won, err := s.Challenges.MarkUsed(ctx, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	if !won {
		return Challenge{}, ErrAuth
	}
	return ch, nil
}

// Register opens an account after verifying the phone challenge.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, string, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, "", fmt.Errorf("%w: valid email required", ErrInvalidInput)
	}
	if len(req.Password) < 6 {
		return User{}, "", fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	phone := normalizePhone(req.Phone)

	ch, err := s.redeem(ctx, req.ChallengeID, req.Code, PurposeRegister)
	if err != nil {
		return User{}, "", err
	}
	if ch.Phone != phone {
		return User{}, "", ErrAuth
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", err
	}

	now := s.now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Phone:        phone,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return User{}, "", err
	}

	token, err := s.signToken(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Login authenticates with a password. The identifier is an email when it
// contains '@', otherwise a phone number. Every failure is ErrAuth; callers
// learn nothing about which part was wrong.
func (s *Service) Login(ctx context.Context, identifier, password string) (User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return User{}, "", ErrAuth
	}

	var user User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.Users.GetByEmail(ctx, identifier)
	} else {
		user, err = s.Users.GetByPhone(ctx, normalizePhone(identifier))
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrAuth
		}
		return User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, "", ErrAuth
	}

	token, err := s.signToken(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// LoginWithCode authenticates by redeeming a login-purpose challenge.
func (s *Service) LoginWithCode(ctx context.Context, challengeID, code string) (User, string, error) {
	ch, err := s.redeem(ctx, challengeID, code, PurposeLogin)
	if err != nil {
		return User{}, "", err
	}
	user, err := s.Users.GetByPhone(ctx, ch.Phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, "", ErrAuth
		}
		return User{}, "", err
	}
	token, err := s.signToken(user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.Users.GetByID(ctx, userID)
}

// ProfileUpdate carries the directly editable profile fields. Nil means
// "leave unchanged"; phone changes go through ChangePhone instead.
type ProfileUpdate struct {
	Name     *string
	Password *string
}

// UpdateProfile changes the display name and/or password.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req ProfileUpdate) (User, error) {
	if req.Name == nil && req.Password == nil {
		return User{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return User{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		user.Name = name
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = s.now()
	if err := s.Users.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ChangePhone moves the account to the challenge's verified phone number.
// The challenge must have been opened by this user.
func (s *Service) ChangePhone(ctx context.Context, userID, challengeID, code string) (User, error) {
	ch, err := s.redeem(ctx, challengeID, code, PurposePhoneChange)
	if err != nil {
		return User{}, err
	}
	if ch.UserID != userID {
		return User{}, ErrAuth
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	user.Phone = ch.Phone
	user.UpdatedAt = s.now()
	if err := s.Users.Update(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) signToken(user User) (string, error) {
	return auth.SignJWT(auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
	})
}

func newCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
