package model

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"
)

// Thread は、串（スレッド）のレコードに対する投影です。Postの全フィールドに加え、
// 返信の列と総返信数を持ちます。
//
// 返信コレクションは遅延して型付きのPostに実体化されます。実体化は一度だけ行われ、
// その際に生レコード側の値は順序保持のための占位値(null)に置き換えられます。
// 実体化前にシリアライズした場合、生レコードがそのまま（返信を含めて）出力されます。
type Thread struct {
	Post

	replies             []*Post
	repliesMaterialized bool
}

// NewThread は、生レコードを所有するThreadを生成します。
func NewThread(raw *orderedmap.OrderedMap) *Thread {
	return &Thread{Post: Post{raw: raw}}
}

// DecodeThreadRecord は、単一の串レコードのJSONをThreadにデコードします。
func DecodeThreadRecord(data []byte) (*Thread, error) {
	var raw orderedmap.OrderedMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("串レコードの解析に失敗しました (size=%d bytes): %w", len(data), err)
	}
	if err := validateRepliesShape(&raw); err != nil {
		return nil, err
	}
	return NewThread(&raw), nil
}

// validateRepliesShape は、返信コレクションが「オブジェクトの配列」であることを
// デコード時点で確認します。以降の遅延実体化はこの形を前提とします。
func validateRepliesShape(raw *orderedmap.OrderedMap) error {
	v, ok := raw.Get(repliesKey)
	if !ok || v == nil {
		return nil
	}
	entries, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("返信コレクションの型が不正です (実際型: %T)", v)
	}
	for i, entry := range entries {
		if _, ok := entry.(orderedmap.OrderedMap); !ok {
			return fmt.Errorf("返信コレクションの第%d要素の型が不正です (実際型: %T)", i, entry)
		}
	}
	return nil
}

// Replies は、返信の列を返します。初回アクセス時に生レコードから実体化し、
// レコード側の値を占位値に置き換えます。レコードに返信コレクションが
// 含まれていない場合はnilを返します。
func (t *Thread) Replies() []*Post {
	t.materializeReplies()
	return t.replies
}

// SetReplies は、実体化済みの返信列を置き換えます（フィルタリングなどに使用）。
func (t *Thread) SetReplies(replies []*Post) {
	t.materializeReplies()
	t.replies = replies
	t.repliesMaterialized = true
}

func (t *Thread) materializeReplies() {
	if t.repliesMaterialized {
		return
	}
	v, ok := t.raw.Get(repliesKey)
	if !ok {
		return
	}

	entries, _ := v.([]interface{})
	posts := make([]*Post, 0, len(entries))
	for _, entry := range entries {
		record, ok := entry.(orderedmap.OrderedMap)
		if !ok {
			continue
		}
		posts = append(posts, NewPost(&record))
	}

	// popせず占位値に置き換えることで、元のフィールド順序を保持する
	t.raw.Set(repliesKey, nil)
	t.replies = posts
	t.repliesMaterialized = true
}

// TotalReplyCount は、総返信数（数値文字列フィールド）を解析して返します。
func (t *Thread) TotalReplyCount() (int64, error) {
	v, ok := t.raw.Get("replyCount")
	if !ok {
		return 0, fmt.Errorf("replyCount フィールドが存在しません")
	}
	n, err := asInt64(v)
	if err != nil {
		return 0, fmt.Errorf("replyCount の解析に失敗しました: %w", err)
	}
	return n, nil
}

// MarshalJSON は、元のフィールド順序を再現する正規のレコードを構築します。
// 返信が実体化済みの場合は、現在の返信列を元の位置に差し戻して出力します。
func (t *Thread) MarshalJSON() ([]byte, error) {
	if !t.repliesMaterialized {
		return json.Marshal(t.raw)
	}

	replyRecords := make([]interface{}, 0, len(t.replies))
	for _, reply := range t.replies {
		replyRecords = append(replyRecords, reply.raw)
	}

	out := orderedmap.New()
	substituted := false
	for _, key := range t.raw.Keys() {
		if key == repliesKey {
			out.Set(key, replyRecords)
			substituted = true
			continue
		}
		v, _ := t.raw.Get(key)
		out.Set(key, v)
	}
	// 元レコードに返信コレクションがなく、後からSetRepliesされた場合は末尾に追加する
	if !substituted {
		out.Set(repliesKey, replyRecords)
	}
	return json.Marshal(out)
}
