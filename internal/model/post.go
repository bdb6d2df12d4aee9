package model

import (
	"encoding/json"

	"github.com/iancoleman/orderedmap"
)

// サーバーが「未設定」を表すために使う番兵値。
const (
	noneMarkEmpty = ""
	noneMarkName  = "无名氏"
	noneMarkTitle = "无标题"
)

// Post は、単一の投稿（串またはその返信）の生レコードに対する読み取り専用の投影です。
// 生レコードはPostが排他的に所有し、他のオブジェクトと共有しません。
type Post struct {
	raw *orderedmap.OrderedMap
}

// NewPost は、生レコードを所有するPostを生成します。
func NewPost(raw *orderedmap.OrderedMap) *Post {
	return &Post{raw: raw}
}

// ID は、投稿ごとに一意な番号を返します。
func (p *Post) ID() int64 {
	v, ok := p.raw.Get("id")
	if !ok {
		return 0
	}
	id, err := asInt64(v)
	if err != nil {
		return 0
	}
	return id
}

// AttachmentBase は、添付画像のベース名を返します。未添付の場合は ok=false です。
func (p *Post) AttachmentBase() (string, bool) {
	v, _ := stringField(p.raw, "img")
	return noneIf(v, noneMarkEmpty)
}

// AttachmentExtension は、添付画像の拡張子を返します。未添付の場合は ok=false です。
func (p *Post) AttachmentExtension() (string, bool) {
	v, _ := stringField(p.raw, "ext")
	return noneIf(v, noneMarkEmpty)
}

// CreatedAtRawText は、投稿日時をサーバーの元表記のまま返します。
func (p *Post) CreatedAtRawText() string {
	v, _ := stringField(p.raw, "now")
	return v
}

// UserID は、投稿者の識別子を返します。
func (p *Post) UserID() string {
	v, _ := stringField(p.raw, "userid")
	return v
}

// Name は、投稿者名を返します。番兵値「无名氏」の場合は ok=false で、
// 既定名の適用は呼び出し側に委ねます。
func (p *Post) Name() (string, bool) {
	v, _ := stringField(p.raw, "name")
	return noneIf(v, noneMarkName)
}

// Email は、メール欄の値を返します。未設定の場合は ok=false です。
func (p *Post) Email() (string, bool) {
	v, _ := stringField(p.raw, "email")
	return noneIf(v, noneMarkEmpty)
}

// Title は、タイトルを返します。番兵値「无标题」の場合は ok=false です。
func (p *Post) Title() (string, bool) {
	v, _ := stringField(p.raw, "title")
	return noneIf(v, noneMarkTitle)
}

// Content は、本文を返します。
func (p *Post) Content() string {
	v, _ := stringField(p.raw, "content")
	return v
}

// MarkedSage は、sage指定されているかどうかを返します。
// フラグフィールドは "0" か否かで判定します。
func (p *Post) MarkedSage() bool {
	return p.flag("sage")
}

// MarkedAdmin は、管理者投稿としてマークされているかどうかを返します。
func (p *Post) MarkedAdmin() bool {
	return p.flag("admin")
}

func (p *Post) flag(key string) bool {
	v, ok := stringField(p.raw, key)
	if !ok {
		return false
	}
	return v != "0"
}

// MarshalJSON は、生レコードを元のフィールド順序のままシリアライズします。
func (p *Post) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.raw)
}
