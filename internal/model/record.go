// Package model は、APIレスポンスの生レコードに対する型付きの投影
// (Post/Thread/Board)を提供します。生レコードはフィールドの出現順序を保持し、
// 再シリアライズ時に元の順序を再現します。
package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iancoleman/orderedmap"
)

// repliesKey は、スレッドレコード内の返信コレクションのフィールド名です。
const repliesKey = "replys"

// stringField は、生レコードの値を文字列として取り出します。
// フィールドが存在しない場合は空文字列と false を返します。
func stringField(raw *orderedmap.OrderedMap, key string) (string, bool) {
	v, ok := raw.Get(key)
	if !ok {
		return "", false
	}
	return asString(v), true
}

// asString は、JSONデコード結果の値を文字列表現に変換します。
// APIは同じフィールドを文字列で返す場合と数値で返す場合があるため、両方を受け付けます。
func asString(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}

// asInt64 は、JSONデコード結果の値を整数に変換します。
func asInt64(v interface{}) (int64, error) {
	switch value := v.(type) {
	case json.Number:
		return value.Int64()
	case float64:
		return int64(value), nil
	case string:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("数値フィールドの解析に失敗しました (実際値: %q): %w", value, err)
		}
		return n, nil
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	default:
		return 0, fmt.Errorf("数値フィールドの型が不正です (実際型: %T)", v)
	}
}

// noneIf は、サーバーが「未設定」を表すために使う番兵値を「値なし」に写像します。
func noneIf(value, noneMark string) (string, bool) {
	if value == noneMark {
		return "", false
	}
	return value, true
}
