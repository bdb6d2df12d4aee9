package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"GoAnoBBSClient/internal/config"
)

func newTestClient(t *testing.T, settings config.NetworkSettings) *Client {
	t.Helper()
	if settings.UserAgent == "" {
		settings.UserAgent = "GoAnoBBSClient-test/1.0"
	}
	c, err := NewClient(settings)
	if err != nil {
		t.Fatalf("テスト用クライアントの生成に失敗しました: %v", err)
	}
	return c
}

// TestGet_SetsHeaders は、GETリクエストに既定ヘッダーとUser-Agentが
// 設定されることを検証します。
func TestGet_SetsHeaders(t *testing.T) {
	// 1. Arrange (準備)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "GoAnoBBSClient-test/1.0" {
			t.Errorf("User-Agentが期待値と異なります: %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Acceptが期待値と異なります: %q", got)
		}
		if got := r.Header.Get("X-Custom"); got != "custom-value" {
			t.Errorf("既定ヘッダーが設定されていません: %q", got)
		}
		w.Write([]byte(`"ok"`))
	}))
	defer server.Close()
	c := newTestClient(t, config.NetworkSettings{
		DefaultHeaders: map[string]string{"X-Custom": "custom-value"},
	})

	// 2. Act (実行)
	body, _, err := c.Get(context.Background(), server.URL+"/Api/thread/id/1?page=1", nil)

	// 3. Assert (検証)
	if err != nil {
		t.Fatalf("Getが予期せぬエラーを返しました: %v", err)
	}
	if string(body) != `"ok"` {
		t.Errorf("レスポンスボディが期待値と異なります: %q", body)
	}
}

// TestGet_AttachesCookieOnlyWhenProvided は、饼干がリクエスト単位で
// 添付・非添付を切り替えられることを検証します。
func TestGet_AttachesCookieOnlyWhenProvided(t *testing.T) {
	var sawCookie bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("userhash")
		sawCookie = err == nil
		w.Write([]byte(`"ok"`))
	}))
	defer server.Close()
	c := newTestClient(t, config.NetworkSettings{})

	if _, _, err := c.Get(context.Background(), server.URL, nil); err != nil {
		t.Fatalf("Getが予期せぬエラーを返しました: %v", err)
	}
	if sawCookie {
		t.Error("credがnilなのに饼干が添付されました")
	}

	cred := &config.UserCookie{Userhash: "testhash"}
	if _, _, err := c.Get(context.Background(), server.URL, cred); err != nil {
		t.Fatalf("Getが予期せぬエラーを返しました: %v", err)
	}
	if !sawCookie {
		t.Error("credが指定されているのに饼干が添付されませんでした")
	}
}

// TestGet_BandwidthAccounting は、送受信の帯域使用量が推定されることを検証します。
func TestGet_BandwidthAccounting(t *testing.T) {
	responseBody := strings.Repeat("x", 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, responseBody)
	}))
	defer server.Close()
	c := newTestClient(t, config.NetworkSettings{})

	_, usage, err := c.Get(context.Background(), server.URL+"/Api/showf/id/4?page=1", nil)

	if err != nil {
		t.Fatalf("Getが予期せぬエラーを返しました: %v", err)
	}
	if usage.Sent <= 0 {
		t.Errorf("送信量が推定されていません: %d", usage.Sent)
	}
	// 受信量は少なくともボディの長さ以上になる
	if usage.Received < int64(len(responseBody)) {
		t.Errorf("受信量の推定が小さすぎます: %d", usage.Received)
	}
}

// TestGet_NonOKStatus は、200以外のステータスコードがHTTPErrorとして
// 報告され、リトライ可否が正しく分類されることを検証します。
func TestGet_NonOKStatus(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"サーバーエラー", http.StatusServiceUnavailable, true},
		{"クライアントエラー", http.StatusNotFound, false},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := newTestClient(t, config.NetworkSettings{})

		_, usage, err := c.Get(context.Background(), server.URL, nil)
		server.Close()

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) {
			t.Fatalf("%s: HTTPErrorが返されるべきところ、実際は: %v", tc.name, err)
		}
		if httpErr.StatusCode != tc.status {
			t.Errorf("%s: ステータスコードが期待値と異なります: %d", tc.name, httpErr.StatusCode)
		}
		if httpErr.IsRetryable() != tc.retryable {
			t.Errorf("%s: リトライ可否の分類が期待値と異なります: %v", tc.name, httpErr.IsRetryable())
		}
		if usage.Sent <= 0 {
			t.Errorf("%s: 失敗したリクエストの送信量も記録されるべきです: %d", tc.name, usage.Sent)
		}
	}
}

// TestGet_ConnectionFailure は、接続自体の失敗がリトライ可能な
// TransportErrorとして報告されることを検証します。
func TestGet_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 接続拒否を発生させるため先に閉じる
	c := newTestClient(t, config.NetworkSettings{})

	_, _, err := c.Get(context.Background(), server.URL, nil)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("TransportErrorが返されるべきところ、実際は: %v", err)
	}
	if !transportErr.IsRetryable() {
		t.Error("通信エラーはリトライ可能として分類されるべきです")
	}
}

// TestPostMultipart_WritesFieldsInOrder は、multipartフォームのフィールドが
// 指定された順序で書き込まれることを検証します。
func TestPostMultipart_WritesFieldsInOrder(t *testing.T) {
	var fieldOrder []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reader, err := r.MultipartReader()
		if err != nil {
			t.Errorf("multipartフォームの解析に失敗しました: %v", err)
			return
		}
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			fieldOrder = append(fieldOrder, part.FormName())
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()
	c := newTestClient(t, config.NetworkSettings{})

	fields := []FormField{
		{Name: "content", Value: "本文"},
		{Name: "name", Value: ""},
		{Name: "resto", Value: "8001"},
	}
	_, _, err := c.PostMultipart(context.Background(), server.URL, fields, nil)

	if err != nil {
		t.Fatalf("PostMultipartが予期せぬエラーを返しました: %v", err)
	}
	expected := []string{"content", "name", "resto"}
	if len(fieldOrder) != len(expected) {
		t.Fatalf("フィールド数が期待値と異なります: %v", fieldOrder)
	}
	for i, name := range expected {
		if fieldOrder[i] != name {
			t.Errorf("フィールドの順序が期待値と異なります。位置 %d: 期待値 %q, 実際値 %q", i, name, fieldOrder[i])
		}
	}
}

// TestEstimateRequestSize は、リクエストサイズの推定式を検証します。
func TestEstimateRequestSize(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.org/path?q=1", nil)
	if err != nil {
		t.Fatalf("リクエストの作成に失敗しました: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	got := estimateRequestSize(req, 0)

	// "GET" + "/path?q=1" + 12 = 24、ヘッダー "Accept: application/json\r\n" + 空行 = 36
	expected := int64(3 + 9 + 12 + (6 + 16 + 4) + 2)
	if got != expected {
		t.Errorf("推定サイズが期待値と異なります。期待値: %d, 実際値: %d", expected, got)
	}
}
