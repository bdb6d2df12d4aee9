// Package network は、AnoBBSクライアントのHTTP通信に関する機能を提供します。
// 饼干（ログイン用クッキー）の添付と帯域使用量の計測をカプセル化した、
// より高レベルなHTTPクライアントを実装しています。
package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"time"

	"GoAnoBBSClient/internal/config"

	"golang.org/x/time/rate"
)

// HTTPError は、HTTPリクエストで発生したエラーとステータスコードを保持します。
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsRetryable は、このエラーがリトライ可能かどうかを判定します。
// 4xxエラー（クライアントエラー）はリトライ不可、5xxエラー（サーバーエラー）はリトライ可能とします。
func (e *HTTPError) IsRetryable() bool {
	// 400番台のエラーはクライアント側の問題なのでリトライしても無駄
	// 404 Not Found, 403 Forbidden, 410 Gone など
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return false
	}
	// 500番台のエラーはサーバー側の一時的な問題の可能性があるのでリトライ可能
	return true
}

// TransportError は、レスポンスを受け取る前に発生した通信エラーを保持します。
// 接続断やタイムアウトなど一時的な障害の可能性があるため、常にリトライ可能です。
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("通信エラー (URL: %s): %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRetryable は常にtrueを返します。
func (e *TransportError) IsRetryable() bool { return true }

// FormField は、multipartフォームの単一フィールドです。
// サーバーのフィールド順序への依存を避けるため、mapではなくスライスで渡します。
type FormField struct {
	Name  string
	Value string
}

// Client は、Cookie Jarを内包し、HTTPセッションを管理するクライアントです。
// 饼干はセッションに保存せず、リクエストごとに添付の有無を切り替えます。
type Client struct {
	httpClient     *http.Client
	jar            *cookiejar.Jar
	userAgent      string
	defaultHeaders map[string]string
	limiter        *rate.Limiter
}

// NewClient は NetworkSettings に基づいて HTTP クライアントを初期化します。
func NewClient(settings config.NetworkSettings) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}

	timeout := time.Duration(settings.RequestTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second // デフォルトタイムアウト
	}

	httpClient := &http.Client{
		Jar:     jar,
		Timeout: timeout,
	}

	// request_interval_ms 毎に 1 リクエストを許可する limiter。
	// 未設定なら制限しない。
	limit := rate.Inf
	if settings.RequestIntervalMillis > 0 {
		limit = rate.Every(time.Duration(settings.RequestIntervalMillis) * time.Millisecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	return &Client{
		httpClient:     httpClient,
		jar:            jar,
		userAgent:      settings.UserAgent,
		defaultHeaders: settings.DefaultHeaders,
		limiter:        limiter,
	}, nil
}

// Get は、指定されたURLにGETリクエストを送信し、レスポンスボディと帯域使用量を返します。
// credが非nilの場合、饼干をリクエストに添付します。
func (c *Client) Get(ctx context.Context, reqURL string, cred *config.UserCookie) ([]byte, BandwidthUsage, error) {
	return c.do(ctx, http.MethodGet, reqURL, "", nil, cred)
}

// PostMultipart は、指定されたURLにmultipart/form-dataのPOSTリクエストを送信します。
// フィールドはfieldsの順序で書き込まれます。
func (c *Client) PostMultipart(ctx context.Context, reqURL string, fields []FormField, cred *config.UserCookie) ([]byte, BandwidthUsage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, field := range fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, BandwidthUsage{}, fmt.Errorf("フォームフィールドの書き込みに失敗しました (field=%s): %w", field.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, BandwidthUsage{}, fmt.Errorf("multipartフォームの終端処理に失敗しました: %w", err)
	}

	return c.do(ctx, http.MethodPost, reqURL, writer.FormDataContentType(), buf.Bytes(), cred)
}

// do は、単一のHTTPラウンドトリップを実行します。
// 失敗した場合でも、推定できた範囲の帯域使用量を返します。
func (c *Client) do(ctx context.Context, method, reqURL, contentType string, body []byte, cred *config.UserCookie) ([]byte, BandwidthUsage, error) {
	var usage BandwidthUsage

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, usage, fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, usage, fmt.Errorf("リクエストの作成に失敗しました (%s %s): %w", method, reqURL, err)
	}

	// デフォルトヘッダーを全て設定
	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-us")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cred != nil {
		req.AddCookie(&http.Cookie{Name: "userhash", Value: cred.Userhash})
	}

	usage.Sent = estimateRequestSize(req, len(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, usage, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, usage, &TransportError{URL: reqURL, Err: err}
	}
	usage.Received = estimateResponseSize(resp, len(respBody))

	if resp.StatusCode != http.StatusOK {
		return respBody, usage, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	return respBody, usage, nil
}
