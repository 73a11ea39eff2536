package router

import (
	"github.com/gin-gonic/gin"

	stockshandler "stock_watcher/internal/feature/stocks/transport/handler"
	"stock_watcher/internal/platform/http/handler"
)

func NewRouter(stocks *stockshandler.StocksHandler) *gin.Engine {
	r := gin.Default()

	// 導通確認用
	r.GET("/healthz", handler.Health)

	// 銘柄の参照・チェック・削除
	r.GET("/stocks/:symbol", stocks.GetStocks)
	r.PUT("/stocks/:symbol", stocks.AddCheck)
	r.DELETE("/stocks/:symbol", stocks.DeleteStock)

	return r
}
