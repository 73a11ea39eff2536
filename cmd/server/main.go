package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"stock_watcher/internal/app/di"
	"stock_watcher/internal/app/router"
	stocksadapters "stock_watcher/internal/feature/stocks/adapters"
	stockshandler "stock_watcher/internal/feature/stocks/transport/handler"
	stocksusecase "stock_watcher/internal/feature/stocks/usecase"
	"stock_watcher/internal/platform/cache"
	infradb "stock_watcher/internal/platform/db"
	"stock_watcher/internal/platform/scheduler"
	"stock_watcher/internal/shared/ratelimiter"
)

const (
	defaultRefreshInterval = time.Minute
	defaultRetention       = time.Hour
	cacheTTL               = 30 * time.Second
	// Finnhub無料プランの上限（60calls/min）
	quoteCallsPerMinute = 60
)

func main() {
	// db
	db := infradb.OpenDB()

	// Redis（未設定・接続不可ならキャッシュなしで動作）
	var rdb *redisv9.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		tmp := redisv9.NewClient(&redisv9.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := tmp.Ping(context.Background()).Err(); err != nil {
			log.Println("[WARN] Redis unavailable. Running without cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Println("[ERROR] Failed to close Redis client:", err)
				}
			}()
		}
	}

	// Repository
	priceRepo := stocksadapters.NewPriceRepository(db)
	cachedPriceRepo := cache.NewCachingPriceRepository(rdb, cacheTTL, priceRepo, "stocks")
	quoteRepo := di.NewQuote()

	// Usecase
	limiter := ratelimiter.NewRateLimiter(quoteCallsPerMinute, time.Minute)
	stocksUC := stocksusecase.NewStocksUsecase(cachedPriceRepo, quoteRepo)
	refreshUC := stocksusecase.NewRefreshUsecase(quoteRepo, cachedPriceRepo, limiter, envDuration("RETENTION_WINDOW", defaultRetention))

	// Handler
	stocksH := stockshandler.NewStocksHandler(stocksUC)

	// ルータ生成
	r := router.NewRouter(stocksH)

	// FINNHUB_API_KEYチェック（起動は続行し、フェッチは設定エラーになる）
	if os.Getenv("FINNHUB_API_KEY") == "" {
		log.Println("[WARN] FINNHUB_API_KEY is not set. Quote fetches will fail until it is configured.")
	}

	// リフレッシュスケジューラ起動
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched := scheduler.New("stock-refresh", envDuration("REFRESH_INTERVAL", defaultRefreshInterval), refreshUC.RefreshAll)
	sched.Start(ctx)
	defer sched.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// envDuration は環境変数をDurationとして読み、未設定・不正ならデフォルトを返します。
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[WARN] invalid %s=%q, using default %v", key, v, def)
		return def
	}
	return d
}
