package blacklist

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	var b Blacklist = NewMemory()

	if err := b.CheckUser(ctx, "u1"); err != nil {
		t.Fatalf("CheckUser() before ban = %v", err)
	}
	if err := b.BanUser(ctx, "u1", time.Hour); err != nil {
		t.Fatalf("BanUser() = %v", err)
	}
	if err := b.CheckUser(ctx, "u1"); !errors.Is(err, ErrUserBanned) {
		t.Errorf("CheckUser() after ban = %v, want ErrUserBanned", err)
	}
	if err := b.CheckUser(ctx, "u2"); err != nil {
		t.Errorf("CheckUser(u2) = %v, want nil", err)
	}

	if err := b.RevokeToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("RevokeToken() = %v", err)
	}
	if err := b.CheckToken(ctx, "jti-1"); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("CheckToken() after revoke = %v, want ErrTokenRevoked", err)
	}
}
