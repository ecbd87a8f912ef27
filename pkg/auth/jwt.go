package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/model"
)

type JWTService interface {
	GenerateAccessToken(account *model.Account) (string, time.Time, error)
	GenerateRefreshToken(account *model.Account) (string, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
}

type Config struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateAccessToken(account *model.Account) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.cfg.Expiry)
	token, err := s.generate(account, expiresAt, s.cfg.Secret)
	return token, expiresAt, err
}

func (s *jwtService) GenerateRefreshToken(account *model.Account) (string, error) {
	token, err := s.generate(account, time.Now().Add(s.cfg.RefreshExpiry), s.cfg.RefreshSecret)
	return token, err
}

func (s *jwtService) generate(account *model.Account, expiresAt time.Time, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   account.ID.String(),
		"email": account.Email,
		"role":  string(account.Role),
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.Secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.validate(token, s.cfg.RefreshSecret)
}

func (s *jwtService) validate(tokenString, secret string) (*model.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	accountID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid account ID in token")
	}

	email, ok := claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	role, _ := claims["role"].(string)

	var expiresAt time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0)
	}

	return &model.TokenClaims{
		AccountID: accountID,
		Email:     email,
		Role:      model.Role(role),
		ExpiresAt: expiresAt,
	}, nil
}
