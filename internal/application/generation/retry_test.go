package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-docs-api/internal/config"
	apperrors "prism-docs-api/pkg/errors"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth failed", apperrors.New(apperrors.CodeProviderAuthFailed, "bad key"), false},
		{"quota exceeded", apperrors.New(apperrors.CodeProviderQuotaExceeded, "out of credits"), false},
		{"missing key", apperrors.New(apperrors.CodeAPIKeyMissing, "no key"), false},
		{"bad source", apperrors.New(apperrors.CodeUnsupportedSource, "bad source"), false},
		{"extraction failed", apperrors.New(apperrors.CodeExtractionFailed, "url unreachable"), false},
		{"renderer error", apperrors.New(apperrors.CodeRendererError, "gateway down"), true},
		{"llm timeout", apperrors.New(apperrors.CodeLLMTimeout, "slow"), true},
		{"plain rate limit", errors.New("429 rate limit exceeded"), true},
		{"plain 503", errors.New("503 service unavailable"), true},
		{"plain unauthorized", errors.New("401 unauthorized"), false},
		{"plain quota", errors.New("insufficient_quota"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestClassifyLLMError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorCode
	}{
		{"auth", errors.New("401 unauthorized: incorrect api key"), apperrors.CodeProviderAuthFailed},
		{"quota", errors.New("you have exceeded your current quota"), apperrors.CodeProviderQuotaExceeded},
		{"timeout", context.DeadlineExceeded, apperrors.CodeLLMTimeout},
		{"other", errors.New("model exploded"), apperrors.CodeLLMProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := classifyLLMError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.want, appErr.Code)
		})
	}
}

func TestRetryReasonFor(t *testing.T) {
	assert.Equal(t, "malformed_output", retryReasonFor(apperrors.New(apperrors.CodeTransformFailed, "bad json")))
	assert.Equal(t, "validation", retryReasonFor(apperrors.New(apperrors.CodeValidationFailed, "no magic")))
	assert.Equal(t, "rate_limit", retryReasonFor(errors.New("429 rate limit")))
	assert.Equal(t, "timeout", retryReasonFor(errors.New("request timeout")))
	assert.Equal(t, "provider_error", retryReasonFor(errors.New("boom")))
}

func TestBackoffWaitGrows(t *testing.T) {
	cfg := &config.BackoffConfig{Initial: time.Millisecond, Max: 4 * time.Millisecond, Multiplier: 2.0}

	start := time.Now()
	require.NoError(t, backoffWait(context.Background(), cfg, 1))
	require.NoError(t, backoffWait(context.Background(), cfg, 3))
	// 1ms + 4ms，留出调度余量
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestBackoffWaitCancel(t *testing.T) {
	cfg := &config.BackoffConfig{Initial: time.Minute, Max: time.Minute, Multiplier: 2.0}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := backoffWait(ctx, cfg, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
