// Package adapters はstocksフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"stock_watcher/internal/feature/stocks/domain/entity"
	"stock_watcher/internal/feature/stocks/usecase"
)

type priceMySQL struct {
	db *gorm.DB
}

var _ usecase.PriceRepository = (*priceMySQL)(nil)

// NewPriceRepository は指定されたDB接続でpriceMySQLリポジトリの新しいインスタンスを生成します。
func NewPriceRepository(db *gorm.DB) *priceMySQL {
	return &priceMySQL{db: db}
}

// PriceModel は追記専用のstock_pricesテーブルの1行です。
type PriceModel struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:20;not null;index:idx_price_symbol_created,priority:1"`
	Price     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_price_symbol_created,priority:2"`
}

func (PriceModel) TableName() string {
	return "stock_prices"
}

func toEntity(m PriceModel) entity.PriceRecord {
	return entity.PriceRecord{
		Symbol:    m.Symbol,
		Price:     m.Price,
		CreatedAt: m.CreatedAt,
	}
}

func (r *priceMySQL) InsertOne(ctx context.Context, symbol string, price float64) (entity.PriceRecord, error) {
	m := PriceModel{Symbol: symbol, Price: price}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return entity.PriceRecord{}, err
	}
	return toEntity(m), nil
}

func (r *priceMySQL) InsertMany(ctx context.Context, records []entity.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}
	ms := make([]PriceModel, 0, len(records))
	for _, e := range records {
		ms = append(ms, PriceModel{Symbol: e.Symbol, Price: e.Price})
	}
	return r.db.WithContext(ctx).Create(&ms).Error
}

// MostRecent は指定銘柄の最新レコードを返します。
// 同時刻のレコードはIDの大きい方（後に挿入された方）を優先します。
// レコードが存在しない場合はusecase.ErrStockNotAddedを返します。
func (r *priceMySQL) MostRecent(ctx context.Context, symbol string) (entity.PriceRecord, error) {
	var m PriceModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.PriceRecord{}, usecase.ErrStockNotAdded
		}
		return entity.PriceRecord{}, err
	}
	return toEntity(m), nil
}

func (r *priceMySQL) MostRecentN(ctx context.Context, symbol string, n int) ([]entity.PriceRecord, error) {
	var rows []PriceModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]entity.PriceRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, toEntity(m))
	}
	return out, nil
}

// DistinctSymbols はレコードが1件以上残っている銘柄の一覧を返します。
// トラッキング対象の銘柄集合はこのクエリそのものであり、別テーブルや
// キャッシュされた集合としては保持しません。
func (r *priceMySQL) DistinctSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := r.db.WithContext(ctx).
		Model(&PriceModel{}).
		Distinct().
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

func (r *priceMySQL) DeleteBySymbol(ctx context.Context, symbol string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Delete(&PriceModel{})
	return res.RowsAffected, res.Error
}

func (r *priceMySQL) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&PriceModel{})
	return res.RowsAffected, res.Error
}
