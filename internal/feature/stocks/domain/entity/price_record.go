// Package entity はstocksフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// PriceRecord は1回の株価観測を表す不変のレコードです。
// 挿入と削除のみ行われ、更新されることはありません。
// 内部ID（ストレージの主キー）はドメイン層には公開しません。
type PriceRecord struct {
	Symbol    string    // 銘柄シンボル（1〜20文字、大文字小文字を区別）
	Price     float64   // 観測時点の株価（常に正の値）
	CreatedAt time.Time // 観測が永続化された時刻
}
