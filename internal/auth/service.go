package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/identity/entity"
	"github.com/petrolia/termlab/internal/identity/repo"
	"github.com/petrolia/termlab/pkg/utilities"
)

// Config carries the token signing parameters.
type Config struct {
	Secret    string
	Issuer    string
	AccessTTL time.Duration
}

// ConfigFromEnv reads auth config from environment variables.
func ConfigFromEnv() (Config, error) {
	secret := os.Getenv("AUTH_SECRET")
	if secret == "" {
		return Config{}, errors.New("AUTH_SECRET must be set")
	}
	ttl := 15 * time.Minute
	if v := os.Getenv("AUTH_ACCESS_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Minute
		}
	}
	issuer := os.Getenv("AUTH_ISSUER")
	if issuer == "" {
		issuer = "termlab"
	}
	return Config{Secret: secret, Issuer: issuer, AccessTTL: ttl}, nil
}

// Service authenticates users and issues/rotates tokens.
type Service struct {
	users     *repo.UserRepo
	companies *repo.CompanyRepo
	hasher    PasswordHasher
	cfg       Config
}

func NewService(users *repo.UserRepo, companies *repo.CompanyRepo, hasher PasswordHasher, cfg Config) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{users: users, companies: companies, hasher: hasher, cfg: cfg}
}

// TokenPair is what login and refresh return.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords both return ErrUnauthenticated so responses do not reveal
// which accounts exist. Inactive accounts and accounts of inactive companies
// return ErrForbidden instead, matching the policy that gates their writes.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrUnauthenticated // avoid user enumeration
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, fault.ErrUnauthenticated
	}
	if !u.IsActive {
		return nil, fault.Forbidden("account inactive")
	}
	if u.CompanyID != nil {
		c, err := s.companies.GetByID(ctx, *u.CompanyID)
		if err != nil {
			return nil, fault.FromStore(err, "company")
		}
		if !c.IsActive {
			return nil, fault.Forbidden("company inactive")
		}
	}
	return s.issue(ctx, u)
}

// Refresh rotates the opaque refresh token and issues a fresh access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fault.ErrUnauthenticated
	}
	u, err := s.users.GetByRefreshTokenHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrUnauthenticated
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, fault.Forbidden("account inactive")
	}
	return s.issue(ctx, u)
}

// Logout revokes the stored refresh token.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.users.SetRefreshTokenHash(ctx, userID, nil)
}

// ChangePassword verifies the current password and stores a new hash,
// clearing the forced-reset flag.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fault.FromStore(err, "user")
	}
	if !s.hasher.Verify(u.PasswordHash, current) {
		return fault.ErrUnauthenticated
	}
	if len(next) < 8 {
		return fault.Invalid("password too short")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, hash)
}

func (s *Service) issue(ctx context.Context, u *entity.User) (*TokenPair, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  s.cfg.Issuer,
		"sub":  fmt.Sprintf("%d", u.ID),
		"exp":  now.Add(s.cfg.AccessTTL).Unix(),
		"iat":  now.Unix(),
		"role": string(u.Role),
	}
	if u.CompanyID != nil {
		claims["company_id"] = *u.CompanyID
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	access, err := tok.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, err
	}

	refresh := utilities.NewKSUID()
	hash := HashRefreshToken(refresh)
	if err := s.users.SetRefreshTokenHash(ctx, u.ID, &hash); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, TokenType: "bearer", RefreshToken: refresh}, nil
}

// ParseAccessToken validates the JWT and returns the user id.
func (s *Service) ParseAccessToken(token string) (int64, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return 0, fault.ErrUnauthenticated
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, fault.ErrUnauthenticated
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fault.ErrUnauthenticated
	}
	return id, nil
}

// LoadPrincipal hydrates the Principal for an authenticated user id.
func (s *Service) LoadPrincipal(ctx context.Context, userID int64) (*Principal, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.ErrUnauthenticated
		}
		return nil, err
	}
	companyActive := true
	if u.CompanyID != nil {
		c, err := s.companies.GetByID(ctx, *u.CompanyID)
		if err != nil {
			return nil, fault.FromStore(err, "company")
		}
		companyActive = c.IsActive
	}
	terminals, err := s.users.TerminalIDs(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Principal{
		UserID:             u.ID,
		Role:               u.Role,
		CompanyID:          u.CompanyID,
		UserActive:         u.IsActive,
		CompanyActive:      companyActive,
		MustChangePassword: u.MustChangePassword,
		TerminalIDs:        terminals,
	}, nil
}
