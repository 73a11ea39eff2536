package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"stock_watcher/internal/feature/stocks/usecase"
)

// FinnhubQuote はFinnhub外部APIから現在株価を取得するQuoteRepository実装です。
type FinnhubQuote struct {
	cfg    Config
	client *http.Client
}

// FinnhubQuoteがQuoteRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.QuoteRepository = (*FinnhubQuote)(nil)

// NewFinnhubQuote は指定された設定とHTTPクライアントでFinnhubQuoteの新しいインスタンスを生成します。
func NewFinnhubQuote(cfg Config, client *http.Client) *FinnhubQuote {
	return &FinnhubQuote{cfg: cfg, client: client}
}

// quoteResponse はFinnhubの /quote レスポンスのうち利用するフィールドです。
type quoteResponse struct {
	Current *float64 `json:"c"` // 現在価格。銘柄が未知の場合は0
}

// FetchQuote はFinnhub APIから指定銘柄の現在価格を取得します。
//
// プロバイダのレスポンスは以下のとおり分類されます。
//   - APIキー未設定           → usecase.ErrQuoteAPIKeyMissing（リトライ不可の設定エラー）
//   - 401                     → usecase.ErrQuoteUnauthorized
//   - 404                     → usecase.ErrStockNotFound
//   - その他の非成功レスポンス → usecase.ErrQuoteProvider
//   - 価格フィールド欠落      → usecase.ErrQuoteMalformed
//   - 価格が0                 → usecase.ErrStockNotFound（0はプロバイダの「未知の銘柄」規約）
//
// この層ではリトライしません。リトライ方針は呼び出し元が決めます。
func (f *FinnhubQuote) FetchQuote(ctx context.Context, symbol string) (float64, error) {
	if f.cfg.APIKey == "" {
		return 0, usecase.ErrQuoteAPIKeyMissing
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", f.cfg.APIKey)

	u := fmt.Sprintf("%s/quote?%s", f.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", usecase.ErrQuoteProvider, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return 0, usecase.ErrQuoteUnauthorized
	case res.StatusCode == http.StatusNotFound:
		return 0, usecase.ErrStockNotFound
	case res.StatusCode >= 300:
		return 0, fmt.Errorf("%w: finnhub http %d", usecase.ErrQuoteProvider, res.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %w", usecase.ErrQuoteMalformed, err)
	}
	if body.Current == nil {
		return 0, usecase.ErrQuoteMalformed
	}
	if *body.Current == 0 {
		return 0, usecase.ErrStockNotFound
	}

	return *body.Current, nil
}
