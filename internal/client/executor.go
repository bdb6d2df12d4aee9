package client

import (
	"context"
	"fmt"

	"GoAnoBBSClient/internal/network"
)

// requestFunc は、正確に一回のネットワークラウンドトリップを実行する操作です。
// 失敗した場合でも、その試行で消費した帯域使用量を返します。
type requestFunc func() (network.BandwidthUsage, error)

// withRetries は、fnを最大maxAttempts回実行します。
// リトライ可能な失敗のみ再試行し、致命的な失敗は残りの試行を消費せず
// 即座に伝播します。帯域使用量は失敗した試行も含めて全試行分を合算します。
func (c *Client) withRetries(ctx context.Context, operation string, maxAttempts int, fn requestFunc) (network.BandwidthUsage, error) {
	var total network.BandwidthUsage

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		usage, err := fn()
		total.Add(usage)
		if err == nil {
			return total, nil
		}

		if !IsRetryableError(err) {
			return total, err
		}

		if attempt < maxAttempts {
			c.logger.Printf("WARNING: %sに失敗しました (試行 %d/%d): %v", operation, attempt, maxAttempts, err)
			continue
		}

		c.logger.Printf("ERROR: %sに失敗しました。%d回試行しましたが成功しませんでした。中断します: %v", operation, maxAttempts, err)
		return total, &RetryExhaustedError{Operation: operation, Attempts: maxAttempts, Err: err}
	}

	// maxAttemptsは1以上に正規化済みのため、ここには到達しない
	return total, fmt.Errorf("到達しないはずの分岐に到達しました (operation=%s, max_attempts=%d)", operation, maxAttempts)
}
