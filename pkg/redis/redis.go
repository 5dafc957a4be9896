package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daeyeo/daeyeo-backend/config"
	"github.com/daeyeo/daeyeo-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var client *redis.Client

var (
	// ErrCodeNotFound 저장된 인증 코드가 없거나 만료됨
	ErrCodeNotFound = errors.New("verification code not found or expired")

	// ErrCodeMismatch 인증 코드 불일치
	ErrCodeMismatch = errors.New("verification code does not match")

	// ErrTooManyAttempts 시도 횟수 초과
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

func codeKey(kind string, userID uint) string {
	return fmt.Sprintf("verification:%s:%d", kind, userID)
}

func attemptsKey(kind string, userID uint) string {
	return fmt.Sprintf("verification:%s:%d:attempts", kind, userID)
}

// StoreVerificationCode stores a bcrypt hash of the code with the given TTL.
// 평문 코드는 저장하지 않음
func StoreVerificationCode(ctx context.Context, kind string, userID uint, code string, ttl time.Duration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pipe := client.TxPipeline()
	pipe.Set(ctx, codeKey(kind, userID), string(hash), ttl)
	pipe.Set(ctx, attemptsKey(kind, userID), 0, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Failed to store verification code", err, map[string]interface{}{
			"kind":    kind,
			"user_id": userID,
		})
		return err
	}

	logger.Debug("Verification code stored", map[string]interface{}{
		"kind":    kind,
		"user_id": userID,
		"ttl":     ttl.String(),
	})
	return nil
}

// CheckVerificationCode compares the submitted code against the stored hash.
// 성공 시 코드를 즉시 삭제하여 재사용 방지
func CheckVerificationCode(ctx context.Context, kind string, userID uint, code string, maxAttempts int) error {
	attempts, err := client.Incr(ctx, attemptsKey(kind, userID)).Result()
	if err != nil {
		return err
	}
	if maxAttempts > 0 && attempts > int64(maxAttempts) {
		return ErrTooManyAttempts
	}

	hash, err := client.Get(ctx, codeKey(kind, userID)).Result()
	if err == redis.Nil {
		return ErrCodeNotFound
	}
	if err != nil {
		logger.Error("Failed to read verification code", err, map[string]interface{}{
			"kind":    kind,
			"user_id": userID,
		})
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		return ErrCodeMismatch
	}

	// Delete the code after successful verification
	client.Del(ctx, codeKey(kind, userID), attemptsKey(kind, userID))
	return nil
}

// DeleteVerificationCode removes any outstanding code for the user
func DeleteVerificationCode(ctx context.Context, kind string, userID uint) error {
	return client.Del(ctx, codeKey(kind, userID), attemptsKey(kind, userID)).Err()
}
