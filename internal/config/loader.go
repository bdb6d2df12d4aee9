package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// 環境変数による上書きに使用する変数名。
const (
	envHost      = "ANOBBS_HOST"
	envUserAgent = "ANOBBS_CLIENT_USER_AGENT"
	envAppID     = "ANOBBS_CLIENT_APPID"
	envUserhash  = "ANOBBS_USERHASH"
)

// LoadAndResolve は、指定されたパスから設定ファイルを読み込み、
// 解析・環境変数による上書き・検証を行います。
func LoadAndResolve(path string) (*Config, error) {
	absPath, _ := filepath.Abs(path)
	cwd, _ := os.Getwd()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル '%s' の読み込みに失敗しました (Abs: '%s', Cwd: '%s'): %w", path, absPath, cwd, err)
	}
	cfg, err := ParseAndResolve(data)
	if err != nil {
		return nil, err
	}
	ApplyEnvOverrides(cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseAndResolve は、設定データのバイトスライスを解析して設定を返します。
// 環境変数の上書きと検証は行いません。この関数はテストのために分離されています。
func ParseAndResolve(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError

		if errors.As(err, &syntaxErr) {
			line, col := computeLineAndColumn(data, syntaxErr.Offset)
			return nil, fmt.Errorf("設定ファイルのJSON構文エラー (行 %d, 列 %d): %w", line, col, err)
		}
		if errors.As(err, &typeErr) {
			line, col := computeLineAndColumn(data, typeErr.Offset)
			return nil, fmt.Errorf("設定ファイルの型エラー (行 %d, 列 %d, フィールド '%s'): 期待値 %v, 実際 %v - %w",
				line, col, typeErr.Field, typeErr.Type, typeErr.Value, err)
		}
		return nil, fmt.Errorf("設定ファイルの解析に失敗しました: %w", err)
	}

	const compatibleVersion = "1.0"
	if cfg.ConfigVersion != compatibleVersion {
		return nil, fmt.Errorf("サポートされていない設定バージョン '%s' です。'%s' が必要です。", cfg.ConfigVersion, compatibleVersion)
	}

	return &cfg, nil
}

// ApplyEnvOverrides は、環境変数が設定されていれば対応するフィールドを上書きします。
// 変数名は元のAnoBBSクライアントのテストスイートと互換です。
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(envUserAgent); v != "" {
		cfg.Network.UserAgent = v
	}
	if v := os.Getenv(envAppID); v != "" {
		cfg.AppID = v
	}
	if v := os.Getenv(envUserhash); v != "" {
		cfg.DefaultOptions.UserCookie = &UserCookie{Userhash: v}
	}
}

// Normalize は、必須フィールドの検証とリクエスト設定への既定値の適用を行います。
func (c *Config) Normalize() error {
	if c.Host == "" {
		return fmt.Errorf("host が設定されていません (設定ファイルまたは環境変数 %s で指定してください)", envHost)
	}
	if c.Network.UserAgent == "" {
		return fmt.Errorf("network.user_agent が設定されていません (設定ファイルまたは環境変数 %s で指定してください)", envUserAgent)
	}
	if err := c.DefaultOptions.Normalize(); err != nil {
		return fmt.Errorf("request_options が不正です: %w", err)
	}
	return nil
}

// computeLineAndColumn は、バイトオフセットから行番号と列番号（1始まり）を計算します。
func computeLineAndColumn(data []byte, offset int64) (int, int) {
	if offset < 0 || int(offset) > len(data) {
		return 0, 0
	}
	line := 1
	lastLineStart := 0
	for i, b := range data {
		if int64(i) == offset {
			return line, i - lastLineStart + 1
		}
		if b == '\n' {
			line++
			lastLineStart = i + 1
		}
	}
	return line, int(offset) - lastLineStart + 1
}
