package httpapi

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"stocksight/backend/internal/domain"
	"stocksight/backend/internal/service"
)

// RepStore is the slice of the repository the auth manager needs to
// verify sales rep PIN logins.
type RepStore interface {
	GetSalesRep(ctx context.Context, id string) (*domain.SalesRep, error)
	ListSalesReps(ctx context.Context) ([]domain.SalesRep, error)
}

type AuthManager struct {
	secret        []byte
	tokenTTL      time.Duration
	ownerEmail    string
	ownerPassword string
	reps          RepStore
}

type storeCustomClaims struct {
	jwtlib.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// NewAuthManager accepts the owner password either as plaintext or as a
// bcrypt hash. Plaintext is hashed at startup so only the hash stays in
// memory.
func NewAuthManager(secret string, tokenTTL time.Duration, ownerEmail string, ownerPassword string, reps RepStore) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	ownerPassword = strings.TrimSpace(ownerPassword)
	if !isPasswordHash(ownerPassword) && ownerPassword != "" {
		if hashed, err := hashPassword(ownerPassword); err == nil {
			ownerPassword = hashed
		}
	}

	return &AuthManager{
		secret:        []byte(secret),
		tokenTTL:      tokenTTL,
		ownerEmail:    ownerEmail,
		ownerPassword: ownerPassword,
		reps:          reps,
	}
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || email != a.ownerEmail {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !verifyPassword(a.ownerPassword, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(domain.OwnerActor.ID, domain.OwnerActor.Name, domain.RoleOwner, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        domain.RoleOwner,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

// RepLogin verifies a sales rep's PIN and issues a rep token. The actor is
// returned alongside the response so the caller can record the login
// activity under the rep's identity.
func (a *AuthManager) RepLogin(ctx context.Context, req domain.RepLoginRequest) (domain.LoginResponse, domain.Actor, error) {
	if a.reps == nil {
		return domain.LoginResponse{}, domain.Actor{}, errors.New("rep login unavailable")
	}
	repID := strings.TrimSpace(req.SalesRepID)
	if repID == "" || strings.TrimSpace(req.PIN) == "" {
		return domain.LoginResponse{}, domain.Actor{}, errors.New("invalid credentials")
	}

	rep, err := a.reps.GetSalesRep(ctx, repID)
	if err != nil {
		return domain.LoginResponse{}, domain.Actor{}, errors.New("invalid credentials")
	}
	if !rep.IsActive {
		return domain.LoginResponse{}, domain.Actor{}, errors.New("account is inactive")
	}
	if !service.VerifyPIN(rep.PINHash, req.PIN) {
		return domain.LoginResponse{}, domain.Actor{}, errors.New("invalid credentials")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(rep.ID, rep.Name, domain.RoleRep, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, domain.Actor{}, err
	}

	actor := domain.Actor{ID: rep.ID, Name: rep.Name, Role: domain.RoleRep}
	return domain.LoginResponse{
		AccessToken: token,
		Role:        domain.RoleRep,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, actor, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &storeCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{ID: sub, Name: claims.Name, Role: claims.Role}, nil
}

func (a *AuthManager) sign(subject string, name string, role string, expiresAt time.Time) (string, error) {
	claims := storeCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "stocksight",
		},
		Name: name,
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
