package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bukinn/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Sender hands a freshly generated code to the user.
type Sender interface {
	Deliver(ctx context.Context, phone, code string) error
}

// LogSender writes codes to the log. Development only.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Deliver(_ context.Context, phone, code string) error {
	s.Logger.Info("otp issued", zap.String("phone", logger.MaskPhone(phone)), zap.String("code", code))
	return nil
}

// A challenge is a hash holding the bcrypt hash of the code and the number
// of checks made against it.
const (
	fieldHash     = "hash"
	fieldAttempts = "attempts"
)

// reserveAttempt counts a check before the code is compared, so parallel
// guesses cannot share one attempt. It never recreates a deleted challenge.
var reserveAttempt = redis.NewScript(`
local hash = redis.call('HGET', KEYS[1], 'hash')
if not hash then
	return false
end
local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
return {hash, attempts}
`)

// RedisProvider keeps bcrypt-hashed codes in Redis, one live challenge per phone.
type RedisProvider struct {
	client      *redis.Client
	sender      Sender
	keyPrefix   string
	codeTTL     time.Duration
	resendAfter time.Duration
	maxAttempts int
}

func NewRedisProvider(client *redis.Client, sender Sender) *RedisProvider {
	return &RedisProvider{
		client:      client,
		sender:      sender,
		keyPrefix:   "otp",
		codeTTL:     10 * time.Minute,
		resendAfter: time.Minute,
		maxAttempts: 5,
	}
}

func (p *RedisProvider) Send(ctx context.Context, phone string) error {
	resendKey := p.resendKey(phone)
	allowed, err := p.client.SetNX(ctx, resendKey, "1", p.resendAfter).Result()
	if err != nil {
		return err
	}
	if !allowed {
		return ErrSendRateLimited
	}

	code, err := generateNumericCode(6)
	if err != nil {
		_ = p.client.Del(ctx, resendKey).Err()
		return fmt.Errorf("generate otp code: %w", err)
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		_ = p.client.Del(ctx, resendKey).Err()
		return fmt.Errorf("hash otp code: %w", err)
	}
	key := p.challengeKey(phone)
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldHash, string(codeHash), fieldAttempts, 0)
		pipe.Expire(ctx, key, p.codeTTL)
		return nil
	})
	if err != nil {
		_ = p.client.Del(ctx, resendKey).Err()
		return err
	}
	return p.sender.Deliver(ctx, phone, code)
}

func (p *RedisProvider) Check(ctx context.Context, phone, code string) (bool, error) {
	key := p.challengeKey(phone)
	res, err := reserveAttempt.Run(ctx, p.client, []string{key}).Slice()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(res) != 2 {
		return false, fmt.Errorf("unexpected otp challenge reply: %v", res)
	}
	codeHash, _ := res[0].(string)
	attempts, _ := res[1].(int64)

	if attempts > int64(p.maxAttempts) {
		_ = p.client.Del(ctx, key).Err()
		return false, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(code)) != nil {
		if attempts >= int64(p.maxAttempts) {
			_ = p.client.Del(ctx, key).Err()
		}
		return false, nil
	}

	// single use
	if err := p.client.Del(ctx, key, p.resendKey(phone)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *RedisProvider) challengeKey(phone string) string {
	return fmt.Sprintf("%s:challenge:%s", p.keyPrefix, phone)
}

func (p *RedisProvider) resendKey(phone string) string {
	return fmt.Sprintf("%s:resend:%s", p.keyPrefix, phone)
}

func generateNumericCode(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
