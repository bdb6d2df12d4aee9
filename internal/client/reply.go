package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"GoAnoBBSClient/internal/config"
	"GoAnoBBSClient/internal/network"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ReplyRequest は、返信の投稿内容です。
// Name/Email/Title は空文字列の場合「未設定」としてそのまま送信されます。
type ReplyRequest struct {
	ToThreadID int64
	Content    string
	Name       string
	Email      string
	Title      string
}

// ReplyThread は、串への返信を投稿します。書き込みには常に饼干が必要です。
// サーバーの確認ページを解釈し、成功・明示的な拒否(ReplyRejectedError)・
// 解釈不能(UnknownResponseError)のいずれかの結果を返します。
func (c *Client) ReplyThread(ctx context.Context, req ReplyRequest, patch *config.RequestOptionsPatch) (network.BandwidthUsage, error) {
	var usage network.BandwidthUsage

	opts, err := c.resolveOptions(patch)
	if err != nil {
		return usage, err
	}
	if !opts.HasUserCookie() {
		return usage, &LoginRequiredError{}
	}

	var fields []network.FormField
	if c.appid != "" {
		fields = append(fields, network.FormField{Name: "appid", Value: c.appid})
	}
	fields = append(fields,
		network.FormField{Name: "content", Value: req.Content},
		network.FormField{Name: "name", Value: req.Name},
		network.FormField{Name: "email", Value: req.Email},
		network.FormField{Name: "title", Value: req.Title},
		network.FormField{Name: "resto", Value: strconv.FormatInt(req.ToThreadID, 10)},
	)

	c.logger.Printf("INFO: 串 %d に返信を投稿します (content=%dバイト)", req.ToThreadID, len(req.Content))

	operation := fmt.Sprintf("串 %d への返信の投稿", req.ToThreadID)
	usage, err = c.withRetries(ctx, operation, opts.MaxAttempts, func() (network.BandwidthUsage, error) {
		body, u, err := c.http.PostMultipart(ctx, c.replyURL(), fields, opts.UserCookie)
		if err != nil {
			return u, mapHTTPError(err)
		}
		return u, interpretReplyResponse(body)
	})
	return usage, err
}

// interpretReplyResponse は、返信投稿後の確認ページを解釈します。
// 確認ページには形式的なスキーマがなく、「システムメッセージ」コンテナ内の
// マーカー要素の有無によって3状態（成功・構造化エラー・解釈不能）に分類します。
//   - div.system-message が存在しない → UnknownResponseError
//   - コンテナ内に p.success がある → 成功
//   - コンテナ内に p.error がある → ReplyRejectedError
//     （p.detail の本文を補足として添付。空文字列は「なし」に正規化）
//   - どちらのマーカーもない → UnknownResponseError
func interpretReplyResponse(body []byte) error {
	htmlText, err := decodeResponseText(body)
	if err != nil {
		return &DecodeError{Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return &DecodeError{Err: fmt.Errorf("確認ページの解析に失敗しました: %w", err)}
	}

	container := doc.Find("div.system-message").First()
	if container.Length() == 0 {
		return &UnknownResponseError{Body: body}
	}

	if container.Find("p.success").Length() > 0 {
		return nil
	}

	if errorNode := container.Find("p.error").First(); errorNode.Length() > 0 {
		detail := strings.TrimSpace(container.Find("p.detail").First().Text())
		return &ReplyRejectedError{
			Message: strings.TrimSpace(errorNode.Text()),
			Detail:  detail,
		}
	}

	return &UnknownResponseError{Body: body}
}

// decodeResponseText は、確認ページの本文をUTF-8の文字列に正規化します。
// UTF-8として不正なバイト列はGB18030として変換を試みます。
func decodeResponseText(body []byte) (string, error) {
	if utf8.Valid(body) {
		return string(body), nil
	}
	reader := transform.NewReader(bytes.NewReader(body), simplifiedchinese.GB18030.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("文字コード変換に失敗しました: %w", err)
	}
	return string(decoded), nil
}
