package utils

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"myvetstudy/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"google.golang.org/grpc/metadata"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, tokenID, err := GenerateToken(TokenParams{UserID: "user-1", Role: domain.Veterinarian}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, role, err := ParseAndValidateToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseAndValidateToken() error = %v", err)
	}
	if claims.UserID != "user-1" || role != domain.Veterinarian || claims.ID != tokenID {
		t.Errorf("claims = %+v role = %s, want user-1/veterinarian/%s", claims, role, tokenID)
	}
}

func TestParseAndValidateToken_Rejects(t *testing.T) {
	expired, _, _ := GenerateToken(TokenParams{UserID: "user-1", Role: domain.PetOwner}, testSecret, -time.Minute)
	wrongKey, _, _ := GenerateToken(TokenParams{UserID: "user-1", Role: domain.PetOwner}, "other-secret", time.Hour)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "user-1",
		Role:   "groomer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"unknown role", badRole},
		{"garbage", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseAndValidateToken(tt.token, testSecret)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseAndValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestExtractTokenFromContext(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		want    string
		wantErr error
	}{
		{"no metadata", context.Background(), "", ErrMissingToken},
		{"no header", metadata.NewIncomingContext(context.Background(), metadata.Pairs("x", "y")), "", ErrMissingToken},
		{"wrong scheme", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic abc")), "", ErrInvalidToken},
		{"bearer", metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc")), "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTokenFromContext(tt.ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/me", nil)
	if _, err := ExtractTokenFromRequest(r); !errors.Is(err, ErrMissingToken) {
		t.Errorf("error = %v, want ErrMissingToken", err)
	}
	r.Header.Set("Authorization", "Bearer xyz")
	if got, err := ExtractTokenFromRequest(r); err != nil || got != "xyz" {
		t.Errorf("ExtractTokenFromRequest() = %q, %v", got, err)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Error("empty context should carry no principal")
	}
	ctx := WithPrincipal(context.Background(), Principal{UserID: "u", Role: domain.Receptionist})
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.Role != domain.Receptionist {
		t.Errorf("PrincipalFromContext() = %+v, %t", p, ok)
	}
}
