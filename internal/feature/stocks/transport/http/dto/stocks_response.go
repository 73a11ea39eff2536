// Package dto defines data transfer objects for the stocks HTTP API.
package dto

// StocksResponse は銘柄の現在状態のレスポンスDTOです。
type StocksResponse struct {
	Price         float64 `json:"price"`         // 最新の観測価格
	MovingAverage float64 `json:"movingAverage"` // 直近最大10件の移動平均
	LastUpdated   string  `json:"lastUpdated"`   // 最新レコードの時刻（ISO-8601）
}

// CheckResponse は価格チェックで作成されたレコードのレスポンスDTOです。
// ストレージの内部IDは含めません。
type CheckResponse struct {
	Symbol    string  `json:"symbol"`    // 銘柄シンボル
	Price     float64 `json:"price"`     // 観測価格
	CreatedAt string  `json:"createdAt"` // 作成時刻（ISO-8601）
}
