package client

import (
	"errors"
	"fmt"
)

// retryable は、リトライ可能かどうかを自己申告するエラーの能力インターフェースです。
// network.HTTPError / network.TransportError もこれを実装しています。
type retryable interface {
	IsRetryable() bool
}

// IsRetryableError は、エラーがリトライ可能かどうかを判定します。
// 能力を申告しないエラー（ドメインエラーを含む）は全て致命的として扱います。
func IsRetryableError(err error) bool {
	var r retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return false
}

// LoginRequiredError は、操作にログインが必要なのに饼干が設定されていない場合の
// エラーです。ネットワークリクエストを行う前に検出されます。
type LoginRequiredError struct{}

func (e *LoginRequiredError) Error() string {
	return "操作には有効な饼干が必要ですが、クライアントに饼干が設定されていません"
}

// GatekeptError は、板のゲートキーパーページを超えるリクエストを拒否した
// ことを表します。超過ページはログインしていても古い内容の繰り返しが返る
// （「卡99」現象）ため、リクエスト自体が無意味です。
type GatekeptError struct {
	Context              string
	PageNumber           int
	GatekeeperPageNumber int
}

func (e *GatekeptError) Error() string {
	return fmt.Sprintf("「卡99」現象のため要求を拒否しました (context=%s, page=%d, gatekeeper_page=%d)",
		e.Context, e.PageNumber, e.GatekeeperPageNumber)
}

// NoPermissionError は、饼干を添付したにもかかわらずサーバーがアクセスを
// 拒否したことを表します。
type NoPermissionError struct {
	StatusCode int
}

func (e *NoPermissionError) Error() string {
	return fmt.Sprintf("操作権限がありません (HTTP %d)", e.StatusCode)
}

// ResourceNotFoundError は、対象のリソース（串）が存在しないことを表します。
// HTTPエラーではなく、レスポンス本文の番兵値によって検出されます。
type ResourceNotFoundError struct{}

func (e *ResourceNotFoundError) Error() string {
	return "対象のリソースは存在しません"
}

// UnknownResponseError は、レスポンスが既知のどの形にも一致しなかったことを
// 表します。診断のために生のボディを保持します。
type UnknownResponseError struct {
	Body []byte
}

func (e *UnknownResponseError) Error() string {
	return fmt.Sprintf("レスポンスの形式を解釈できませんでした (size=%d bytes)", len(e.Body))
}

// ReplyRejectedError は、サーバーが返信の投稿を明示的に拒否したことを表します。
// Detail は補足説明で、空文字列の場合は「なし」を意味します。
type ReplyRejectedError struct {
	Message string
	Detail  string
}

func (e *ReplyRejectedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("サーバーが返信を拒否しました: %s (%s)", e.Message, e.Detail)
	}
	return fmt.Sprintf("サーバーが返信を拒否しました: %s", e.Message)
}

// DecodeError は、レスポンスボディの解読に失敗したことを表します。
// 切断などで本文が破損した可能性があるため、リトライ可能として扱います。
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("レスポンスの解読に失敗しました: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsRetryable は常にtrueを返します。
func (e *DecodeError) IsRetryable() bool { return true }

// RetryExhaustedError は、リトライ上限まで試行しても操作が成功しなかった
// ことを表します。最後に発生したリトライ可能なエラーを内包します。
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("リトライ上限に達しました (operation=%s, attempts=%d): %v", e.Operation, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }
