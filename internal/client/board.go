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

// GetBoardPage は、板の一覧ページ（串の列）を取得します。
// 板のゲートキーパーページを超えるページを要求した場合、饼干の有無にかかわらず
// ネットワークリクエストを行わずに GatekeptError で失敗します。
func (c *Client) GetBoardPage(ctx context.Context, id int64, page int, patch *config.RequestOptionsPatch) (model.Board, network.BandwidthUsage, error) {
	var usage network.BandwidthUsage

	opts, err := c.resolveOptions(patch)
	if err != nil {
		return nil, usage, err
	}

	withLogin, err := BoardPageRequiresLogin(page, opts)
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

	c.logger.Printf("INFO: 板 %d の第 %d ページを取得します (ログイン: %v)", id, page, withLogin)

	var board model.Board
	operation := fmt.Sprintf("板 %d 第 %d ページの取得", id, page)
	usage, err = c.withRetries(ctx, operation, opts.MaxAttempts, func() (network.BandwidthUsage, error) {
		body, u, err := c.http.Get(ctx, c.boardPageURL(id, page), cred)
		if err != nil {
			return u, mapHTTPError(err)
		}
		decoded, err := decodeBoardPage(body)
		if err != nil {
			return u, err
		}
		board = decoded
		return u, nil
	})
	if err != nil {
		return nil, usage, err
	}

	return board, usage, nil
}

// decodeBoardPage は、板一覧ページのレスポンス本文を解釈します。
// 本文は串レコードのJSON配列であることが期待されます。
func decodeBoardPage(body []byte) (model.Board, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("レスポンス本文が空です")}
	}

	if trimmed[0] == '[' {
		board, err := model.DecodeBoardPage(trimmed)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		return board, nil
	}

	if json.Valid(trimmed) {
		// 整形式だが未知の形のJSON
		return nil, &UnknownResponseError{Body: body}
	}
	return nil, &DecodeError{Err: fmt.Errorf("JSONとして解析できません (size=%d bytes)", len(body))}
}
