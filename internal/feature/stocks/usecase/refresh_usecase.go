package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"stock_watcher/internal/feature/stocks/domain/entity"
	"stock_watcher/internal/shared/ratelimiter"
)

// refreshFanOutLimit は1tickで同時に実行するクオート取得の上限です。
const refreshFanOutLimit = 8

// RefreshUsecase はトラッキング中の全銘柄の価格を定期的に取り直し、
// 古いレコードを削除するユースケースを定義します。
type RefreshUsecase struct {
	quote       QuoteRepository
	price       PriceRepository
	rateLimiter ratelimiter.RateLimiterInterface
	retention   time.Duration
}

// NewRefreshUsecase は新しいRefreshUsecaseを作成します。
// retentionはレコードの最大保持期間です。
func NewRefreshUsecase(quote QuoteRepository, price PriceRepository, rateLimiter ratelimiter.RateLimiterInterface, retention time.Duration) *RefreshUsecase {
	return &RefreshUsecase{quote: quote, price: price, rateLimiter: rateLimiter, retention: retention}
}

// RefreshAll は1tick分のリフレッシュを実行します。
//
//  1. レコードが残っている全銘柄を列挙する（0件ならno-opで終了）
//  2. 銘柄ごとに並行してクオートを取得する。1銘柄の失敗は他の銘柄を
//     中断させず、成功と失敗を別々に集計する
//  3. 成功分を1回のバッチ挿入で永続化し、成功・失敗件数をログに出す
//     （失敗銘柄はログのみで、このtick内で再試行しない）
//  4. 保持期間より古いレコードを全銘柄横断で削除する。取得の成否に
//     かかわらず毎tick実行する
func (ru *RefreshUsecase) RefreshAll(ctx context.Context) error {
	symbols, err := ru.price.DistinctSymbols(ctx)
	if err != nil {
		return fmt.Errorf("list tracked symbols: %w", err)
	}

	if len(symbols) == 0 {
		slog.Info("no symbols to update")
		return nil
	}

	var (
		mu      sync.Mutex
		updated []entity.PriceRecord
		failed  []string
	)

	g := new(errgroup.Group)
	g.SetLimit(refreshFanOutLimit)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			ru.rateLimiter.WaitIfNeeded()
			price, err := ru.quote.FetchQuote(ctx, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// 失敗した銘柄は記録だけして他の銘柄の処理を続ける
				slog.Error("failed to refresh quote", "symbol", symbol, "error", err)
				failed = append(failed, symbol)
				return nil
			}
			updated = append(updated, entity.PriceRecord{Symbol: symbol, Price: price})
			return nil
		})
	}
	// 各ワーカーはエラーを返さないため、Waitは集計完了の同期のみを担う
	_ = g.Wait()

	if len(updated) > 0 {
		if err := ru.price.InsertMany(ctx, updated); err != nil {
			return fmt.Errorf("insert refreshed prices: %w", err)
		}
	}

	slog.Info("updated stock prices", "updated", len(updated), "failed", len(failed))
	if len(failed) > 0 {
		slog.Warn("failed symbols", "symbols", failed)
	}

	return ru.prune(ctx)
}

// prune は保持期間を超えたレコードを削除します。
func (ru *RefreshUsecase) prune(ctx context.Context) error {
	cutoff := time.Now().Add(-ru.retention)
	count, err := ru.price.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune stale prices: %w", err)
	}
	if count > 0 {
		slog.Info("pruned stale price records", "deleted", count, "cutoff", cutoff)
	}
	return nil
}
