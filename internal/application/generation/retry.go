package generation

import (
	"context"
	"time"

	"prism-docs-api/internal/config"
	wfnode "prism-docs-api/internal/workflow/node"
	apperrors "prism-docs-api/pkg/errors"
)

// retryReason 把错误归类为指标用的稳定标签
func retryReason(err error) string {
	switch {
	case wfnode.IsTimeoutError(err):
		return "timeout"
	case wfnode.IsRateLimitError(err):
		return "rate_limit"
	default:
		return "provider_error"
	}
}

// isRetryable 判定流水线级可重试性
// 鉴权/配额立即上报，输入类错误不重试，其余按瞬时故障规则。
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if appErr := extractAppError(err); appErr != nil {
		switch appErr.Code {
		case apperrors.CodeProviderAuthFailed, apperrors.CodeProviderQuotaExceeded,
			apperrors.CodeAPIKeyMissing, apperrors.CodeUnsupportedSource,
			apperrors.CodeUnsupportedOutput, apperrors.CodeExtractionFailed:
			return false
		case apperrors.CodeRendererError, apperrors.CodeLLMTimeout:
			return true
		}
	}
	return wfnode.IsRetryableError(err)
}

func extractAppError(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return nil
}

// classifyLLMError 把模型调用错误映射到稳定错误码
func classifyLLMError(err error) *apperrors.AppError {
	switch {
	case wfnode.IsAuthError(err):
		return apperrors.Wrap(err, apperrors.CodeProviderAuthFailed, "provider rejected credentials")
	case wfnode.IsQuotaError(err):
		return apperrors.Wrap(err, apperrors.CodeProviderQuotaExceeded, "provider quota exceeded")
	case wfnode.IsTimeoutError(err):
		return apperrors.Wrap(err, apperrors.CodeLLMTimeout, "provider call timed out")
	default:
		return apperrors.Wrap(err, apperrors.CodeLLMProviderError, "provider call failed")
	}
}

// backoffWait 指数退避等待，ctx 取消时立即返回
func backoffWait(ctx context.Context, cfg *config.BackoffConfig, attempt int) error {
	delay := cfg.Initial
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay >= cfg.Max {
			delay = cfg.Max
			break
		}
	}
	if delay > cfg.Max {
		delay = cfg.Max
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
