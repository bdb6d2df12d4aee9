// Package client は、AnoBBS APIへのリクエストオーケストレーションを実装します。
// ログイン要否の判定、リトライ付きのリクエスト実行、帯域使用量の集計、
// そして読み取り・書き込みの各ワークフローを提供します。
package client

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"GoAnoBBSClient/internal/config"
	"GoAnoBBSClient/internal/network"
)

// Client は、単一のAnoBBSサーバーに対するAPIクライアントです。
// ワークフローの同時呼び出しで共有される可変状態は持ちません。
type Client struct {
	baseURL  string
	appid    string
	http     *network.Client
	defaults config.RequestOptions
	logger   *log.Logger
}

// New は、設定に基づいてクライアントを生成します。
// 既定のリクエスト設定はここで検証され、未知のログインポリシーなどは
// この時点で拒否されます。loggerがnilの場合は標準のロガーを使用します。
func New(cfg *config.Config, logger *log.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("APIサーバーのホストが設定されていません")
	}

	defaults := cfg.DefaultOptions
	if err := defaults.Normalize(); err != nil {
		return nil, fmt.Errorf("既定のリクエスト設定が不正です: %w", err)
	}

	httpClient, err := network.NewClient(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("ネットワーククライアントの初期化に失敗しました: %w", err)
	}

	baseURL := cfg.Host
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		baseURL:  baseURL,
		appid:    cfg.AppID,
		http:     httpClient,
		defaults: defaults,
		logger:   logger,
	}, nil
}

// HasUserCookie は、既定のリクエスト設定に饼干が含まれているかどうかを返します。
func (c *Client) HasUserCookie() bool {
	return c.defaults.HasUserCookie()
}

// resolveOptions は、既定のリクエスト設定に呼び出し単位のパッチを適用し、
// 検証済みの設定を返します。
func (c *Client) resolveOptions(patch *config.RequestOptionsPatch) (config.RequestOptions, error) {
	opts := c.defaults
	patch.Apply(&opts)
	if err := opts.Normalize(); err != nil {
		return config.RequestOptions{}, fmt.Errorf("リクエスト設定が不正です: %w", err)
	}
	return opts, nil
}

// mapHTTPError は、HTTP層のエラーをドメインのエラーに写像します。
// 認証・権限系のステータスコードは NoPermissionError になります。
func mapHTTPError(err error) error {
	var httpErr *network.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 401 || httpErr.StatusCode == 403 {
			return &NoPermissionError{StatusCode: httpErr.StatusCode}
		}
	}
	return err
}

// threadPageURL は、串の指定ページを取得するURLを構築します。
func (c *Client) threadPageURL(id int64, page int) string {
	return c.apiURL(fmt.Sprintf("/Api/thread/id/%d", id), page)
}

// boardPageURL は、板の一覧ページを取得するURLを構築します。
func (c *Client) boardPageURL(id int64, page int) string {
	return c.apiURL(fmt.Sprintf("/Api/showf/id/%d", id), page)
}

// replyURL は、返信を投稿するURLを返します。
func (c *Client) replyURL() string {
	return c.baseURL + "/Home/Forum/doReplyThread.html"
}

func (c *Client) apiURL(path string, page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if c.appid != "" {
		q.Set("appid", c.appid)
	}
	q.Set("__t", strconv.FormatInt(currentTimestampMSUTC8(), 10))
	return c.baseURL + path + "?" + q.Encode()
}

// currentTimestampMSUTC8 は、UTC+8にオフセットした現在時刻のミリ秒を返します。
// サーバーのキャッシュ回避パラメータ __t に使用します。
func currentTimestampMSUTC8() int64 {
	return time.Now().Add(8 * time.Hour).UnixMilli()
}
