package network

import (
	"net/http"
	"strings"
)

// BandwidthUsage は、一つの論理的な操作（リトライを含む）で送受信した
// 推定バイト数を保持します。値は加算されるのみで、減少することはありません。
type BandwidthUsage struct {
	Sent     int64
	Received int64
}

// Add は、otherの値をこの使用量に加算します。
func (u *BandwidthUsage) Add(other BandwidthUsage) {
	u.Sent += other.Sent
	u.Received += other.Received
}

// estimateRequestSize は、リクエストの送信バイト数を推定します。
// リクエストライン + ヘッダー + ボディの合計です。
// 参考: https://stackoverflow.com/a/33217154
func estimateRequestSize(req *http.Request, bodyLen int) int64 {
	// "GET /path HTTP/1.1\r\n" 相当: メソッド + パス + 空白2つ + "HTTP/1.1" + CRLF
	lineSize := len(req.Method) + len(req.URL.RequestURI()) + 12
	return int64(lineSize + headerSize(req.Header) + bodyLen)
}

// estimateResponseSize は、レスポンスの受信バイト数を推定します。
func estimateResponseSize(resp *http.Response, bodyLen int) int64 {
	reason := resp.Status
	if i := strings.IndexByte(reason, ' '); i >= 0 {
		reason = reason[i+1:]
	}
	// "HTTP/1.1 200 OK\r\n" 相当: "HTTP/1.1" + ステータスコード + 空白2つ + 理由句 + CRLF
	lineSize := len(reason) + 15
	return int64(lineSize + headerSize(resp.Header) + bodyLen)
}

// headerSize は、"Key: Value\r\n" の列と末尾の空行のバイト数を計算します。
func headerSize(h http.Header) int {
	size := 2
	for key, values := range h {
		for _, value := range values {
			size += len(key) + len(value) + 4
		}
	}
	return size
}
