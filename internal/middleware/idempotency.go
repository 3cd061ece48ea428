package middleware

import (
	"context"
	"time"

	"myvetstudy/internal/utils"
	"myvetstudy/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

const idempotencyTTL = 24 * time.Hour

type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		logger.Logger.Error("Redis get error", zap.Error(err))
		return nil, false
	}
	return val, true
}

func (c *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		logger.Logger.Error("Redis set error", zap.Error(err))
	}
}

// IdempotencyInterceptor replays the stored response when a request to one
// of methods carries an Idempotency-Key it has already seen from the same
// caller. Only successful responses are stored.
func IdempotencyInterceptor(cache Cache, methods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !methods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}
		keys := md.Get("Idempotency-Key")
		if len(keys) == 0 || keys[0] == "" {
			return handler(ctx, req)
		}

		key := info.FullMethod + ":" + keys[0]
		if principal, ok := utils.PrincipalFromContext(ctx); ok {
			key = principal.UserID + ":" + key
		}

		if cached, ok := cache.GetBytes(ctx, key); ok {
			logger.Logger.Info("Returning cached response", zap.String("key", key))

			var anyResp anypb.Any
			if err := proto.Unmarshal(cached, &anyResp); err != nil {
				logger.Logger.Error("Failed to unmarshal Any response", zap.Error(err))
				return handler(ctx, req)
			}

			resp, err := anyResp.UnmarshalNew()
			if err != nil {
				logger.Logger.Error("Failed to unpack Any response", zap.Error(err))
				return handler(ctx, req)
			}

			return resp, nil
		}

		res, err := handler(ctx, req)
		if err != nil {
			return res, err
		}

		msg, ok := res.(proto.Message)
		if !ok {
			return res, nil
		}
		anyRes, err := anypb.New(msg)
		if err != nil {
			logger.Logger.Error("Failed to pack response to Any", zap.Error(err))
			return res, nil
		}

		data, err := proto.Marshal(anyRes)
		if err != nil {
			logger.Logger.Error("Failed to marshal Any response", zap.Error(err))
			return res, nil
		}

		cache.SetBytes(ctx, key, data, idempotencyTTL)
		logger.Logger.Debug("Stored idempotent response", zap.String("key", key))

		return res, nil
	}
}
