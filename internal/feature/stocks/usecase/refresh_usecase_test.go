package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"stock_watcher/internal/feature/stocks/domain/entity"
	"stock_watcher/internal/feature/stocks/usecase"
)

// noopLimiter はテスト用の待機しないレートリミッタです。
type noopLimiter struct{}

func (noopLimiter) WaitIfNeeded() {}

// TestRefreshUsecase_RefreshAll_MixedResults は一部の銘柄が失敗しても
// 成功分だけが挿入され、tickがエラーなく完了することを検証します。
func TestRefreshUsecase_RefreshAll_MixedResults(t *testing.T) {
	ctx := context.Background()

	var (
		mu       sync.Mutex
		inserted []entity.PriceRecord
		pruned   bool
	)

	mockRepo := &mockPriceRepository{
		DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"A", "B"}, nil
		},
		InsertManyFunc: func(ctx context.Context, records []entity.PriceRecord) error {
			mu.Lock()
			defer mu.Unlock()
			inserted = append(inserted, records...)
			return nil
		},
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			pruned = true
			return 0, nil
		},
	}
	mockQuote := &mockQuoteRepository{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (float64, error) {
			if symbol == "B" {
				return 0, usecase.ErrQuoteProvider
			}
			return 10, nil
		},
	}

	ru := usecase.NewRefreshUsecase(mockQuote, mockRepo, noopLimiter{}, time.Hour)

	if err := ru.RefreshAll(ctx); err != nil {
		t.Fatalf("tick must not raise on per-symbol failures: %v", err)
	}

	if len(inserted) != 1 {
		t.Fatalf("expected exactly 1 inserted record, got %d", len(inserted))
	}
	if inserted[0].Symbol != "A" || inserted[0].Price != 10 {
		t.Errorf("unexpected record: %+v", inserted[0])
	}
	if !pruned {
		t.Error("pruning must run even when some fetches fail")
	}
}

// TestRefreshUsecase_RefreshAll_NoSymbols は銘柄が0件のtickがno-opで
// 終わることを検証します。
func TestRefreshUsecase_RefreshAll_NoSymbols(t *testing.T) {
	ctx := context.Background()

	fetchCalled := false
	mockRepo := &mockPriceRepository{
		DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
			return nil, nil
		},
	}
	mockQuote := &mockQuoteRepository{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (float64, error) {
			fetchCalled = true
			return 1, nil
		},
	}

	ru := usecase.NewRefreshUsecase(mockQuote, mockRepo, noopLimiter{}, time.Hour)

	if err := ru.RefreshAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetchCalled {
		t.Error("no fetch must happen when there are no tracked symbols")
	}
}

// TestRefreshUsecase_RefreshAll_AllFail は全銘柄の取得が失敗しても
// 挿入は行われず、削除だけは実行されることを検証します。
func TestRefreshUsecase_RefreshAll_AllFail(t *testing.T) {
	ctx := context.Background()

	var (
		mu           sync.Mutex
		insertCalled bool
		pruned       bool
	)

	mockRepo := &mockPriceRepository{
		DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"A", "B", "C"}, nil
		},
		InsertManyFunc: func(ctx context.Context, records []entity.PriceRecord) error {
			mu.Lock()
			defer mu.Unlock()
			insertCalled = true
			return nil
		},
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			pruned = true
			return 5, nil
		},
	}
	mockQuote := &mockQuoteRepository{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (float64, error) {
			return 0, usecase.ErrQuoteProvider
		},
	}

	ru := usecase.NewRefreshUsecase(mockQuote, mockRepo, noopLimiter{}, time.Hour)

	if err := ru.RefreshAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if insertCalled {
		t.Error("InsertMany must not be called when nothing succeeded")
	}
	if !pruned {
		t.Error("pruning must run regardless of how fetching went")
	}
}

// TestRefreshUsecase_RefreshAll_FetchesEverySymbol は列挙された全銘柄が
// ちょうど1回ずつ取得されることを検証します。
func TestRefreshUsecase_RefreshAll_FetchesEverySymbol(t *testing.T) {
	ctx := context.Background()
	symbols := []string{"AAPL", "GOOG", "MSFT", "TSLA", "AMZN"}

	var (
		mu      sync.Mutex
		fetched []string
	)

	mockRepo := &mockPriceRepository{
		DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
			return symbols, nil
		},
		InsertManyFunc: func(ctx context.Context, records []entity.PriceRecord) error {
			if len(records) != len(symbols) {
				t.Errorf("expected %d records in the batch, got %d", len(symbols), len(records))
			}
			return nil
		},
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			return 0, nil
		},
	}
	mockQuote := &mockQuoteRepository{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (float64, error) {
			mu.Lock()
			defer mu.Unlock()
			fetched = append(fetched, symbol)
			return 42, nil
		},
	}

	ru := usecase.NewRefreshUsecase(mockQuote, mockRepo, noopLimiter{}, time.Hour)

	if err := ru.RefreshAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Strings(fetched)
	want := append([]string(nil), symbols...)
	sort.Strings(want)
	if len(fetched) != len(want) {
		t.Fatalf("expected %d fetches, got %d", len(want), len(fetched))
	}
	for i := range want {
		if fetched[i] != want[i] {
			t.Errorf("fetched[%d]=%q, want %q", i, fetched[i], want[i])
		}
	}
}

// TestRefreshUsecase_RefreshAll_RetentionCutoff は削除のカットオフが
// 保持期間に対応することを検証します。
func TestRefreshUsecase_RefreshAll_RetentionCutoff(t *testing.T) {
	ctx := context.Background()
	retention := time.Hour

	mockRepo := &mockPriceRepository{
		DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"A"}, nil
		},
		InsertManyFunc: func(ctx context.Context, records []entity.PriceRecord) error {
			return nil
		},
		DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
			want := time.Now().Add(-retention)
			if diff := want.Sub(cutoff); diff < -time.Minute || diff > time.Minute {
				t.Errorf("cutoff %v not near now-retention %v", cutoff, want)
			}
			return 1, nil
		},
	}
	mockQuote := &mockQuoteRepository{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (float64, error) {
			return 7, nil
		},
	}

	ru := usecase.NewRefreshUsecase(mockQuote, mockRepo, noopLimiter{}, retention)

	if err := ru.RefreshAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestRefreshUsecase_RefreshAll_StoreErrors はストア障害がtickのエラーとして
// 返ることを検証します（スケジューラ側でログされ、伝播はしない）。
func TestRefreshUsecase_RefreshAll_StoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("listing failure", func(t *testing.T) {
		mockRepo := &mockPriceRepository{
			DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
				return nil, ErrDB
			},
		}
		ru := usecase.NewRefreshUsecase(&mockQuoteRepository{}, mockRepo, noopLimiter{}, time.Hour)
		if err := ru.RefreshAll(ctx); !errors.Is(err, ErrDB) {
			t.Fatalf("expected %v, got %v", ErrDB, err)
		}
	})

	t.Run("insert failure ends the tick", func(t *testing.T) {
		pruned := false
		mockRepo := &mockPriceRepository{
			DistinctSymbolsFunc: func(ctx context.Context) ([]string, error) {
				return []string{"A"}, nil
			},
			InsertManyFunc: func(ctx context.Context, records []entity.PriceRecord) error {
				return ErrDB
			},
			DeleteOlderThanFunc: func(ctx context.Context, cutoff time.Time) (int64, error) {
				pruned = true
				return 0, nil
			},
		}
		mockQuote := &mockQuoteRepository{
			FetchQuoteFunc: func(ctx context.Context, symbol string) (float64, error) {
				return 5, nil
			},
		}
		ru := usecase.NewRefreshUsecase(mockQuote, mockRepo, noopLimiter{}, time.Hour)
		if err := ru.RefreshAll(ctx); !errors.Is(err, ErrDB) {
			t.Fatalf("expected %v, got %v", ErrDB, err)
		}
		if pruned {
			t.Error("a failed persist ends the tick before pruning")
		}
	})
}
