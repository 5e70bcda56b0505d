package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const clientTokenType = "client"

// JWTService emite y valida los tokens de cliente del API JSON.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  TokenRevocationStore
}

type Claims struct {
	ClientID  string `json:"cid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
	ErrJWTRevoked = errors.New("jwt revoked")
)

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "text-stock-tracker",
		store:  NewMemoryTokenRevocationStore(),
	}
}

func NewJWTServiceWithStore(secret string, ttl time.Duration, store TokenRevocationStore) *JWTService {
	svc := NewJWTService(secret, ttl)
	if store != nil {
		svc.store = store
	}
	return svc
}

// IssueClientToken firma un token para un integrador del API.
func (s *JWTService) IssueClientToken(clientID string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", ErrJWTInvalid
	}
	now := time.Now().UTC()
	claims := Claims{
		ClientID:  clientID,
		TokenType: clientTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != clientTokenType || !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	if s.store != nil && claims.ID != "" {
		revoked, err := s.store.IsRevoked(claims.ID)
		if err != nil {
			return Claims{}, ErrJWTInvalid
		}
		if revoked {
			return Claims{}, ErrJWTRevoked
		}
	}
	return claims, nil
}

// Revoke invalida un token hasta su expiración natural.
func (s *JWTService) Revoke(accessToken string) error {
	claims, err := s.ParseAccessToken(accessToken)
	if err != nil {
		return err
	}
	if s.store == nil || claims.ID == "" {
		return ErrJWTInvalid
	}
	ttl := s.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.store.Revoke(claims.ID, ttl)
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.ClientID) == "" {
		return false
	}
	if claims.Subject != claims.ClientID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
