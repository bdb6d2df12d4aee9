package model

import (
	"encoding/json"
	"fmt"

	"github.com/iancoleman/orderedmap"
)

// Board は、板の一覧ページに含まれる串の列です。サーバーの返却順を保持します。
type Board []*Thread

// DecodeBoardPage は、板一覧ページのJSON（串レコードの配列）をBoardにデコードします。
func DecodeBoardPage(data []byte) (Board, error) {
	var records []orderedmap.OrderedMap
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("板一覧の解析に失敗しました (size=%d bytes): %w", len(data), err)
	}

	board := make(Board, 0, len(records))
	for i := range records {
		if err := validateRepliesShape(&records[i]); err != nil {
			return nil, fmt.Errorf("板一覧の第%d要素が不正です: %w", i, err)
		}
		board = append(board, NewThread(&records[i]))
	}
	return board, nil
}
