package mockapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"spareparts/internal/core/apperror"
	appctx "spareparts/internal/core/context"
	"spareparts/internal/core/id"
)

// Messages match the token framework the real backend uses.
const (
	msgBadCredentials = "No active account found with the given credentials"
	msgInvalidToken   = "Given token not valid for any token type"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:          secret,
		Issuer:          "spareparts-mockapi",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id"`
}

// TokenPair is the login response.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// JWTService issues and validates tokens.
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// Issue signs an access and a refresh token for userID.
func (s *JWTService) Issue(userID id.ID) (TokenPair, error) {
	access, err := s.sign(userID, "access", s.config.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, "refresh", s.config.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *JWTService) sign(userID id.ID, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		UserID:    userID.String(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates an access token and returns the caller's identity.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != "access" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &appctx.UserContext{UserID: claims.UserID}, nil
}

// Authenticate checks a username/password pair.
func (b *Backend) Authenticate(username, password string) (*User, error) {
	b.mu.RLock()
	var found *User
	for _, u := range b.users {
		if u.Username == username {
			found = u
			break
		}
	}
	b.mu.RUnlock()

	if found == nil || !found.IsActive {
		return nil, apperror.NewUnauthorized(msgBadCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.NewUnauthorized(msgBadCredentials)
	}
	cp := *found
	return &cp, nil
}

// User returns the account with userID. Unknown or disabled accounts are
// reported as an invalid token, since the id always comes from one.
func (b *Backend) User(userID id.ID) (*User, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	u, ok := b.users[userID]
	if !ok || !u.IsActive {
		return nil, apperror.NewUnauthorized(msgInvalidToken)
	}
	cp := *u
	return &cp, nil
}

// SiteName returns the name of the user's site, "" when none.
func (b *Backend) SiteName(u *User) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if s, ok := b.site(u.SiteID); ok {
		return s.Name
	}
	return ""
}
