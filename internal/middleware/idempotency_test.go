package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/utils"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memoryCache) GetBytes(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memoryCache) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func TestIdempotencyInterceptor_ReplaysResponse(t *testing.T) {
	cache := &memoryCache{data: map[string][]byte{}}
	const method = "/svc/CreateStaffMember"
	interceptor := IdempotencyInterceptor(cache, map[string]bool{method: true})

	calls := 0
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		calls++
		return structpb.NewStruct(map[string]interface{}{"user_id": "u-1"})
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "abc"))
	ctx = utils.WithPrincipal(ctx, utils.Principal{UserID: "m1", Role: domain.PracticeManager})
	info := &grpc.UnaryServerInfo{FullMethod: method}

	first, err := interceptor(ctx, nil, info, handler)
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	second, err := interceptor(ctx, nil, info, handler)
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
	got := second.(*structpb.Struct).Fields["user_id"].GetStringValue()
	if got != first.(*structpb.Struct).Fields["user_id"].GetStringValue() {
		t.Errorf("replayed user_id = %q, want u-1", got)
	}
}

func TestIdempotencyInterceptor_SkipsOtherMethodsAndMissingKey(t *testing.T) {
	cache := &memoryCache{data: map[string][]byte{}}
	interceptor := IdempotencyInterceptor(cache, map[string]bool{"/svc/Create": true})

	calls := 0
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		calls++
		return structpb.NewStruct(nil)
	}

	withKey := metadata.NewIncomingContext(context.Background(), metadata.Pairs("idempotency-key", "abc"))
	noKey := metadata.NewIncomingContext(context.Background(), metadata.MD{})

	for i := 0; i < 2; i++ {
		_, _ = interceptor(withKey, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Other"}, handler)
		_, _ = interceptor(noKey, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Create"}, handler)
	}

	if calls != 4 {
		t.Errorf("handler called %d times, want 4", calls)
	}
	if len(cache.data) != 0 {
		t.Errorf("cache has %d entries, want 0", len(cache.data))
	}
}
