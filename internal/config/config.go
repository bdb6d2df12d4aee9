// Package config は、AnoBBSクライアントの設定ファイル(config.json)の構造定義と、
// その読み込み、検証、リクエスト単位での上書き（パッチ）に関する機能を提供します。
package config

import "fmt"

// LoginPolicy は、いつ饼干（クッキー）を付与してリクエストするかを選択する設定値です。
type LoginPolicy string

const (
	// LoginPolicyEnforce は、常にログイン状態でリクエストします。
	LoginPolicyEnforce LoginPolicy = "enforce"
	// LoginPolicyWhenHasCookie は、饼干を持っている場合にログイン状態でリクエストします。
	LoginPolicyWhenHasCookie LoginPolicy = "when_has_cookie"
	// LoginPolicyAlwaysNo は、原文ママの設定値です。名前に反して when_required と
	// 同じ挙動になります（ゲートキーパーページ超過時はログインを要求する）。
	LoginPolicyAlwaysNo LoginPolicy = "always_no"
	// LoginPolicyWhenRequired は、必要な場合（ゲートキーパーページ超過時）のみ
	// ログイン状態でリクエストします。既定値です。
	LoginPolicyWhenRequired LoginPolicy = "when_required"
)

// Valid は、このポリシーが認識可能な値かどうかを返します。
func (p LoginPolicy) Valid() bool {
	switch p {
	case LoginPolicyEnforce, LoginPolicyWhenHasCookie, LoginPolicyAlwaysNo, LoginPolicyWhenRequired:
		return true
	}
	return false
}

// 各設定値の既定値。
const (
	DefaultLoginPolicy                = LoginPolicyWhenRequired
	DefaultThreadGatekeeperPageNumber = 100
	DefaultBoardGatekeeperPageNumber  = 100
	DefaultMaxAttempts                = 3
)

// UserCookie は、饼干（ログイン用クッキー）を表します。
// 饼干の取得や永続化はこのパッケージの範囲外で、値の保持のみを行います。
type UserCookie struct {
	Userhash string `json:"userhash"`
}

// RequestOptions は、各ワークフローが参照するリクエスト設定です。
// 一度構築した後は変更せず、呼び出しごとに値渡しで使用します。
type RequestOptions struct {
	// LoginPolicy は、ログイン要否の判定ポリシーです。
	LoginPolicy LoginPolicy `json:"login_policy,omitempty"`
	// ThreadGatekeeperPageNumber は、スレッドをログインなしで閲覧できる最終ページです。
	ThreadGatekeeperPageNumber int `json:"thread_gatekeeper_page_number,omitempty"`
	// BoardGatekeeperPageNumber は、板をログインなしで閲覧できる最終ページです。
	// これを超えるページはログインしても無意味なコンテンツが返るため、
	// リクエスト自体が拒否されます（「卡99」現象）。
	BoardGatekeeperPageNumber int `json:"board_gatekeeper_page_number,omitempty"`
	// MaxAttempts は、リトライを含めた最大試行回数です。
	MaxAttempts int `json:"max_attempts,omitempty"`
	// UserCookie は、設定されていれば饼干として各リクエストに添付されます。
	UserCookie *UserCookie `json:"user_cookie,omitempty"`
}

// HasUserCookie は、使用可能な饼干が設定されているかどうかを返します。
func (o RequestOptions) HasUserCookie() bool {
	return o.UserCookie != nil && o.UserCookie.Userhash != ""
}

// Normalize は、ゼロ値のフィールドに既定値を適用し、その後に検証を行います。
// 未知のログインポリシーはここで拒否されるため、
// ワークフロー側で「到達しないはず」の分岐に入ることはありません。
func (o *RequestOptions) Normalize() error {
	if o.LoginPolicy == "" {
		o.LoginPolicy = DefaultLoginPolicy
	}
	if o.ThreadGatekeeperPageNumber == 0 {
		o.ThreadGatekeeperPageNumber = DefaultThreadGatekeeperPageNumber
	}
	if o.BoardGatekeeperPageNumber == 0 {
		o.BoardGatekeeperPageNumber = DefaultBoardGatekeeperPageNumber
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o.validate()
}

func (o *RequestOptions) validate() error {
	if !o.LoginPolicy.Valid() {
		return fmt.Errorf("未知のログインポリシーです (login_policy=%q)", o.LoginPolicy)
	}
	if o.ThreadGatekeeperPageNumber < 1 {
		return fmt.Errorf("thread_gatekeeper_page_number は1以上である必要があります (実際値: %d)", o.ThreadGatekeeperPageNumber)
	}
	if o.BoardGatekeeperPageNumber < 1 {
		return fmt.Errorf("board_gatekeeper_page_number は1以上である必要があります (実際値: %d)", o.BoardGatekeeperPageNumber)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts は1以上である必要があります (実際値: %d)", o.MaxAttempts)
	}
	return nil
}

// RequestOptionsPatch は、呼び出し単位で RequestOptions を上書きするための
// 中間ヘルパー構造体です。非nilのフィールドのみが既定値を上書きします。
type RequestOptionsPatch struct {
	LoginPolicy                *LoginPolicy `json:"login_policy,omitempty"`
	ThreadGatekeeperPageNumber *int         `json:"thread_gatekeeper_page_number,omitempty"`
	BoardGatekeeperPageNumber  *int         `json:"board_gatekeeper_page_number,omitempty"`
	MaxAttempts                *int         `json:"max_attempts,omitempty"`
	UserCookie                 *UserCookie  `json:"user_cookie,omitempty"`
}

// Apply は、patchの非nilフィールドをtargetに上書きします。
func (p *RequestOptionsPatch) Apply(target *RequestOptions) {
	if p == nil {
		return
	}
	if p.LoginPolicy != nil {
		target.LoginPolicy = *p.LoginPolicy
	}
	if p.ThreadGatekeeperPageNumber != nil {
		target.ThreadGatekeeperPageNumber = *p.ThreadGatekeeperPageNumber
	}
	if p.BoardGatekeeperPageNumber != nil {
		target.BoardGatekeeperPageNumber = *p.BoardGatekeeperPageNumber
	}
	if p.MaxAttempts != nil {
		target.MaxAttempts = *p.MaxAttempts
	}
	if p.UserCookie != nil {
		target.UserCookie = p.UserCookie
	}
}

// NetworkSettings は、HTTPリクエストに関するグローバルな設定を保持します。
type NetworkSettings struct {
	UserAgent             string            `json:"user_agent"`
	DefaultHeaders        map[string]string `json:"default_headers,omitempty"`
	RequestTimeoutMillis  int               `json:"request_timeout_ms,omitempty"`
	RequestIntervalMillis int               `json:"request_interval_ms,omitempty"`
}

// Config は config.json ファイル全体を表すルート構造体です。
type Config struct {
	ConfigVersion string `json:"config_version"`
	// Host は、APIサーバーのホスト名です。テストの便宜上、
	// "http://..." 形式の完全なベースURLも受け付けます。
	Host string `json:"host"`
	// AppID は、サーバーに渡すクライアント識別子です。省略可能です。
	AppID          string          `json:"appid,omitempty"`
	Network        NetworkSettings `json:"network"`
	DefaultOptions RequestOptions  `json:"request_options"`
}
