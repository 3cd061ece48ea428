package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"myvetstudy/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

var (
	ErrMissingToken = errors.New("authorization token is missing")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type TokenParams struct {
	UserID string
	Role   domain.Role
}

// GenerateToken signs a token for the user. The returned token ID is the
// value to revoke on logout.
func GenerateToken(params TokenParams, secretKey string, ttl time.Duration) (token string, tokenID string, err error) {
	tokenID = uuid.NewString()
	now := time.Now()
	claims := &Claims{
		UserID: params.UserID,
		Role:   string(params.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	return token, tokenID, err
}

// ParseAndValidateToken checks the signature and expiry of tokenString and
// that it carries a known role. A token with an unknown role is rejected
// here so nothing downstream ever sees one.
func ParseAndValidateToken(tokenString string, secretKey string, options ...jwt.ParserOption) (*Claims, domain.Role, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, options...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, "", ErrInvalidToken
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, role, nil
}

func ExtractTokenFromContext(ctx context.Context) (string, error) {
	headers, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ErrMissingToken
	}

	authHeaders := headers.Get("Authorization")
	if len(authHeaders) == 0 {
		return "", ErrMissingToken
	}

	return bearerToken(authHeaders[0])
}

func ExtractTokenFromRequest(r *http.Request) (string, error) {
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("%w: invalid authorization header format", ErrInvalidToken)
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" {
		return "", ErrMissingToken
	}
	return tokenString, nil
}
