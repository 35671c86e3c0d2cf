package jwt

import (
	"errors"
	"fmt"
	"time"

	"recipe-share/domain"

	"github.com/golang-jwt/jwt/v4"
)

type (
	// JWTService issues the single-purpose tokens embedded in emailed links
	// (address verification, password reset). Sessions do not use JWTs.
	JWTService interface {
		GenerateEmailToken(userID, email, purpose string, duration time.Duration) (string, error)
		ValidateEmailToken(token, purpose string) (*EmailClaims, error)
	}

	EmailClaims struct {
		UserID  string `json:"user_id"`
		Email   string `json:"email"`
		Purpose string `json:"purpose"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey []byte
		issuer    string
	}
)

func NewJWTService(secretKey string) JWTService {
	return &jwtService{
		secretKey: []byte(secretKey),
		issuer:    "RECIPE-SHARE",
	}
}

func (j *jwtService) GenerateEmailToken(userID, email, purpose string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := EmailClaims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return j.secretKey, nil
}

func (j *jwtService) ValidateEmailToken(token, purpose string) (*EmailClaims, error) {
	claims := &EmailClaims{}
	t_Token, err := jwt.ParseWithClaims(token, claims, j.parseToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !t_Token.Valid || claims.Issuer != j.issuer || claims.Purpose != purpose {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
