package config

import (
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadAndResolve_FromFile は、設定ファイルの読み込みと全フィールドの解決を検証します。
func TestLoadAndResolve_FromFile(t *testing.T) {
	// 1. Arrange (準備)
	path := filepath.Join("testdata", "test_config.json")

	// 2. Act (実行)
	cfg, err := LoadAndResolve(path)

	// 3. Assert (検証)
	if err != nil {
		t.Fatalf("LoadAndResolveが予期せぬエラーを返しました: %v", err)
	}
	if cfg.Host != "adnmb3.com" {
		t.Errorf("hostが期待値と異なります: %q", cfg.Host)
	}
	if cfg.AppID != "testclient" {
		t.Errorf("appidが期待値と異なります: %q", cfg.AppID)
	}
	if cfg.Network.UserAgent != "GoAnoBBSClient-test/1.0" {
		t.Errorf("user_agentが期待値と異なります: %q", cfg.Network.UserAgent)
	}
	if cfg.Network.RequestIntervalMillis != 500 {
		t.Errorf("request_interval_msが期待値と異なります: %d", cfg.Network.RequestIntervalMillis)
	}
	if cfg.DefaultOptions.LoginPolicy != LoginPolicyWhenHasCookie {
		t.Errorf("login_policyが期待値と異なります: %q", cfg.DefaultOptions.LoginPolicy)
	}
	if cfg.DefaultOptions.MaxAttempts != 5 {
		t.Errorf("max_attemptsが期待値と異なります: %d", cfg.DefaultOptions.MaxAttempts)
	}
	if !cfg.DefaultOptions.HasUserCookie() {
		t.Error("饼干が読み込まれていません")
	}
}

// TestParseAndResolve_Defaults は、省略されたリクエスト設定に既定値が
// 適用されることを検証します。
func TestParseAndResolve_Defaults(t *testing.T) {
	data := []byte(`{
		"config_version": "1.0",
		"host": "adnmb3.com",
		"network": {"user_agent": "ua"}
	}`)

	cfg, err := ParseAndResolve(data)
	if err != nil {
		t.Fatalf("ParseAndResolveが予期せぬエラーを返しました: %v", err)
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalizeが予期せぬエラーを返しました: %v", err)
	}

	opts := cfg.DefaultOptions
	if opts.LoginPolicy != LoginPolicyWhenRequired {
		t.Errorf("login_policyの既定値が不正です: %q", opts.LoginPolicy)
	}
	if opts.ThreadGatekeeperPageNumber != 100 || opts.BoardGatekeeperPageNumber != 100 {
		t.Errorf("ゲートキーパーページの既定値が不正です: %d, %d", opts.ThreadGatekeeperPageNumber, opts.BoardGatekeeperPageNumber)
	}
	if opts.MaxAttempts != 3 {
		t.Errorf("max_attemptsの既定値が不正です: %d", opts.MaxAttempts)
	}
	if opts.HasUserCookie() {
		t.Error("饼干は既定では設定されないべきです")
	}
}

// TestParseAndResolve_UnsupportedVersion は、互換性のないバージョンの設定が
// 拒否されることを検証します。
func TestParseAndResolve_UnsupportedVersion(t *testing.T) {
	data := []byte(`{"config_version": "2.0", "host": "h", "network": {"user_agent": "ua"}}`)

	if _, err := ParseAndResolve(data); err == nil {
		t.Fatal("サポート外のバージョンは拒否されるべきです")
	}
}

// TestParseAndResolve_SyntaxErrorReportsPosition は、JSON構文エラーの報告に
// 行番号と列番号が含まれることを検証します。
func TestParseAndResolve_SyntaxErrorReportsPosition(t *testing.T) {
	data := []byte("{\n  \"config_version\": \"1.0\",\n  \"host\": adnmb3.com\n}")

	_, err := ParseAndResolve(data)
	if err == nil {
		t.Fatal("構文エラーが報告されるべきです")
	}
	if !strings.Contains(err.Error(), "行 3") {
		t.Errorf("エラーメッセージに行番号が含まれていません: %v", err)
	}
}

// TestApplyEnvOverrides は、環境変数による設定の上書きを検証します。
func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ANOBBS_HOST", "env.example.org")
	t.Setenv("ANOBBS_CLIENT_USER_AGENT", "env-agent/2.0")
	t.Setenv("ANOBBS_CLIENT_APPID", "envapp")
	t.Setenv("ANOBBS_USERHASH", "envhash")

	cfg := &Config{
		Host:    "file.example.org",
		Network: NetworkSettings{UserAgent: "file-agent/1.0"},
	}
	ApplyEnvOverrides(cfg)

	if cfg.Host != "env.example.org" {
		t.Errorf("hostが環境変数で上書きされていません: %q", cfg.Host)
	}
	if cfg.Network.UserAgent != "env-agent/2.0" {
		t.Errorf("user_agentが環境変数で上書きされていません: %q", cfg.Network.UserAgent)
	}
	if cfg.AppID != "envapp" {
		t.Errorf("appidが環境変数で上書きされていません: %q", cfg.AppID)
	}
	if cfg.DefaultOptions.UserCookie == nil || cfg.DefaultOptions.UserCookie.Userhash != "envhash" {
		t.Errorf("饼干が環境変数で設定されていません: %+v", cfg.DefaultOptions.UserCookie)
	}
}

// TestRequestOptions_RejectsUnknownPolicy は、未知のログインポリシーが
// 構築時点で拒否されることを検証します。
func TestRequestOptions_RejectsUnknownPolicy(t *testing.T) {
	opts := RequestOptions{LoginPolicy: "sometimes_maybe"}
	if err := opts.Normalize(); err == nil {
		t.Fatal("未知のログインポリシーは拒否されるべきです")
	}
}

// TestRequestOptionsPatch_Apply は、パッチの非nilフィールドのみが
// 既定値を上書きすることを検証します。
func TestRequestOptionsPatch_Apply(t *testing.T) {
	target := RequestOptions{
		LoginPolicy:                LoginPolicyWhenRequired,
		ThreadGatekeeperPageNumber: 100,
		BoardGatekeeperPageNumber:  100,
		MaxAttempts:                3,
	}
	policy := LoginPolicyEnforce
	attempts := 7
	patch := &RequestOptionsPatch{
		LoginPolicy: &policy,
		MaxAttempts: &attempts,
		UserCookie:  &UserCookie{Userhash: "patchhash"},
	}

	patch.Apply(&target)

	if target.LoginPolicy != LoginPolicyEnforce {
		t.Errorf("login_policyが上書きされていません: %q", target.LoginPolicy)
	}
	if target.MaxAttempts != 7 {
		t.Errorf("max_attemptsが上書きされていません: %d", target.MaxAttempts)
	}
	if target.ThreadGatekeeperPageNumber != 100 {
		t.Errorf("nilフィールドが上書きされています: %d", target.ThreadGatekeeperPageNumber)
	}
	if !target.HasUserCookie() {
		t.Error("饼干が上書きされていません")
	}

	// nilパッチは何もしない
	var nilPatch *RequestOptionsPatch
	nilPatch.Apply(&target)
	if target.MaxAttempts != 7 {
		t.Error("nilパッチで設定が変化しました")
	}
}
