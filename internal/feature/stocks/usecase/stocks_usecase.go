package usecase

import (
	"context"
	"time"

	"stock_watcher/internal/feature/stocks/domain/entity"
)

// PriceRepository は株価レコードの永続化レイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PriceRepository interface {
	// InsertOne は1件の観測を現在時刻で永続化し、作成されたレコードを返します。
	InsertOne(ctx context.Context, symbol string, price float64) (entity.PriceRecord, error)
	// InsertMany は複数の観測を一括で永続化します。バッチ全体の原子性は保証しません。
	InsertMany(ctx context.Context, records []entity.PriceRecord) error
	// MostRecent は指定銘柄の最新レコードを返します。
	// レコードが存在しない場合はErrStockNotAddedを返します。
	MostRecent(ctx context.Context, symbol string) (entity.PriceRecord, error)
	// MostRecentN は指定銘柄の最新n件を新しい順に返します。n件未満でもエラーにしません。
	MostRecentN(ctx context.Context, symbol string, n int) ([]entity.PriceRecord, error)
	// DistinctSymbols はレコードが1件以上残っている全銘柄を返します。
	DistinctSymbols(ctx context.Context) ([]string, error)
	// DeleteBySymbol は指定銘柄の全レコードを削除し、削除件数を返します。
	DeleteBySymbol(ctx context.Context, symbol string) (int64, error)
	// DeleteOlderThan はcutoffより古い（厳密に小さい）レコードを全銘柄横断で削除します。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// QuoteRepository は外部の株価クオートプロバイダを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type QuoteRepository interface {
	// FetchQuote は指定銘柄の現在価格を取得します。価格は常に正の値です。
	FetchQuote(ctx context.Context, symbol string) (float64, error)
}

// StockSummary はGetStocksが返す銘柄の現在状態です。
type StockSummary struct {
	Price         float64   // 最新の観測価格
	MovingAverage float64   // 直近最大10件の移動平均
	LastUpdated   time.Time // 最新レコードのタイムスタンプ
}

// StocksUsecase は銘柄の参照・チェック・削除のビジネスロジックを提供します。
type StocksUsecase struct {
	price PriceRepository
	quote QuoteRepository
}

// NewStocksUsecase はStocksUsecaseの新しいインスタンスを生成します。
func NewStocksUsecase(price PriceRepository, quote QuoteRepository) *StocksUsecase {
	return &StocksUsecase{price: price, quote: quote}
}

// GetStocks は指定銘柄の最新価格・移動平均・最終更新時刻を返します。
// レコードが1件もない場合はErrStockNotAddedを返し、移動平均の計算は行いません。
// 最新レコードの読み取りと移動平均ウィンドウの読み取りはトランザクションで
// 括られないため、並行する挿入の下では僅かに異なるスナップショットを
// 反映することがあります。これは許容された挙動です。
func (u *StocksUsecase) GetStocks(ctx context.Context, symbol string) (StockSummary, error) {
	latest, err := u.price.MostRecent(ctx, symbol)
	if err != nil {
		return StockSummary{}, err
	}

	avg, err := movingAverage(ctx, u.price, symbol)
	if err != nil {
		return StockSummary{}, err
	}

	return StockSummary{
		Price:         latest.Price,
		MovingAverage: avg,
		LastUpdated:   latest.CreatedAt,
	}, nil
}

// AddCheck はプロバイダから現在価格を取得して観測として追記し、
// 作成されたレコードを返します。
// 既にトラッキング中かどうかは意図的に確認しません。呼び出しごとに
// 新しい観測が追記され、これが新規銘柄をリフレッシュ対象に載せる唯一の
// 仕組みです。プロバイダのエラーはそのまま呼び出し元へ伝播します。
func (u *StocksUsecase) AddCheck(ctx context.Context, symbol string) (entity.PriceRecord, error) {
	price, err := u.quote.FetchQuote(ctx, symbol)
	if err != nil {
		return entity.PriceRecord{}, err
	}

	return u.price.InsertOne(ctx, symbol, price)
}

// DeleteStock は指定銘柄の全レコードを削除します。
// 1件も削除されなかった場合はErrStockNotFoundを返します。
// 最後のレコードの削除により、銘柄は暗黙的にトラッキング対象から外れます。
func (u *StocksUsecase) DeleteStock(ctx context.Context, symbol string) error {
	count, err := u.price.DeleteBySymbol(ctx, symbol)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStockNotFound
	}
	return nil
}
