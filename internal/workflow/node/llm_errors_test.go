package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(errors.New("401 Unauthorized")))
	assert.True(t, IsAuthError(errors.New("Incorrect API key provided")))
	assert.True(t, IsAuthError(errors.New("error code invalid_api_key")))
	assert.False(t, IsAuthError(errors.New("429 rate limit")))
	assert.False(t, IsAuthError(nil))
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, IsQuotaError(errors.New("insufficient_quota: upgrade your plan")))
	assert.True(t, IsQuotaError(errors.New("billing hard limit reached")))
	assert.False(t, IsQuotaError(errors.New("429 rate limit exceeded")))
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("rate_limit_exceeded")))
	// 配额耗尽不是限流：等待不能恢复
	assert.False(t, IsRateLimitError(errors.New("429 insufficient_quota")))
}

func TestIsTimeoutError(t *testing.T) {
	assert.True(t, IsTimeoutError(context.DeadlineExceeded))
	assert.True(t, IsTimeoutError(errors.New("request timeout after 30s")))
	assert.False(t, IsTimeoutError(errors.New("connection refused")))
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(errors.New("502 Bad Gateway")))
	assert.True(t, IsRetryableError(errors.New("connection reset by peer")))
	assert.True(t, IsRetryableError(errors.New("429 rate limit")))
	assert.False(t, IsRetryableError(errors.New("401 unauthorized")))
	assert.False(t, IsRetryableError(errors.New("insufficient_quota")))
	assert.False(t, IsRetryableError(errors.New("model not found")))
	assert.False(t, IsRetryableError(nil))
}
