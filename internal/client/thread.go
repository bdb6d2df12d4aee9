package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"GoAnoBBSClient/internal/config"
	"GoAnoBBSClient/internal/model"
	"GoAnoBBSClient/internal/network"
)

// threadNotFoundSentinel は、串が存在しないことを表すレスポンス本文です。
// HTTPエラーではなく、JSON文字列としてこの値がそのまま返されます。
const threadNotFoundSentinel = "该串不存在"

// reservedSystemUserID は、運営の予約済み投稿者識別子です。
// 分析用途の取得では、この識別子による返信を除外します。
const reservedSystemUserID = "芦苇"

// GetThreadPage は、串の指定ページを取得します。
//
// forAnalysisが真の場合、予約済みの運営識別子による返信を実体化後の返信列から
// 除外します（分析の邪魔になる非コンテンツを取り除くためで、正規のデータを
// 変更するものではありません）。
func (c *Client) GetThreadPage(ctx context.Context, id int64, page int, patch *config.RequestOptionsPatch, forAnalysis bool) (*model.Thread, network.BandwidthUsage, error) {
	var usage network.BandwidthUsage

	opts, err := c.resolveOptions(patch)
	if err != nil {
		return nil, usage, err
	}

	withLogin, err := ThreadPageRequiresLogin(page, opts)
	if err != nil {
		return nil, usage, err
	}
	if withLogin && !opts.HasUserCookie() {
		return nil, usage, &LoginRequiredError{}
	}

	var cred *config.UserCookie
	if withLogin {
		cred = opts.UserCookie
	}

	c.logger.Printf("INFO: 串 %d の第 %d ページを取得します (ログイン: %v)", id, page, withLogin)

	var thread *model.Thread
	operation := fmt.Sprintf("串 %d 第 %d ページの取得", id, page)
	usage, err = c.withRetries(ctx, operation, opts.MaxAttempts, func() (network.BandwidthUsage, error) {
		body, u, err := c.http.Get(ctx, c.threadPageURL(id, page), cred)
		if err != nil {
			return u, mapHTTPError(err)
		}
		decoded, err := decodeThreadPage(body)
		if err != nil {
			return u, err
		}
		thread = decoded
		return u, nil
	})
	if err != nil {
		return nil, usage, err
	}

	if forAnalysis {
		filterRepliesForAnalysis(thread)
	}

	return thread, usage, nil
}

// decodeThreadPage は、串ページのレスポンス本文を解釈します。
// 本文は串レコード（JSONオブジェクト）か、「串が存在しない」を表す
// 番兵の文字列のどちらかです。
func decodeThreadPage(body []byte) (*model.Thread, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("レスポンス本文が空です")}
	}

	switch trimmed[0] {
	case '{':
		thread, err := model.DecodeThreadRecord(trimmed)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return thread, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, &DecodeError{Err: err}
		}
		if s == threadNotFoundSentinel {
			return nil, &ResourceNotFoundError{}
		}
		return nil, &UnknownResponseError{Body: body}
	}

	if json.Valid(trimmed) {
		// 整形式だが未知の形のJSON
		return nil, &UnknownResponseError{Body: body}
	}
	return nil, &DecodeError{Err: fmt.Errorf("JSONとして解析できません (size=%d bytes)", len(body))}
}

// filterRepliesForAnalysis は、予約済みの運営識別子による返信を除外します。
// 残った返信の相対順序は保持されます。
func filterRepliesForAnalysis(thread *model.Thread) {
	replies := thread.Replies()
	if replies == nil {
		return
	}
	filtered := make([]*model.Post, 0, len(replies))
	for _, reply := range replies {
		if reply.UserID() == reservedSystemUserID {
			continue
		}
		filtered = append(filtered, reply)
	}
	thread.SetReplies(filtered)
}
