// Package handler はstocksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock_watcher/internal/feature/stocks/domain/entity"
	"stock_watcher/internal/feature/stocks/transport/http/dto"
	"stock_watcher/internal/feature/stocks/usecase"
)

// maxSymbolLength はシンボルパスパラメータの最大長です。
const maxSymbolLength = 20

// StocksUsecase は銘柄操作のユースケースインターフェースを定義します。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type StocksUsecase interface {
	GetStocks(ctx context.Context, symbol string) (usecase.StockSummary, error)
	AddCheck(ctx context.Context, symbol string) (entity.PriceRecord, error)
	DeleteStock(ctx context.Context, symbol string) error
}

// StocksHandler は銘柄のHTTPリクエストを処理します。
type StocksHandler struct {
	uc StocksUsecase
}

// NewStocksHandler は指定されたusecaseでStocksHandlerの新しいインスタンスを生成します。
func NewStocksHandler(uc StocksUsecase) *StocksHandler {
	return &StocksHandler{uc: uc}
}

// symbolParam はシンボルパスパラメータを検証して返します。
// 不正な場合は400を書き込み、falseを返します。
func symbolParam(c *gin.Context) (string, bool) {
	symbol := c.Param("symbol")
	if symbol == "" || len(symbol) > maxSymbolLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol must be 1-20 characters"})
		return "", false
	}
	return symbol, true
}

// GetStocks は銘柄の最新価格と移動平均を返します。
//
// GET /stocks/:symbol
func (h *StocksHandler) GetStocks(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	summary, err := h.uc.GetStocks(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, usecase.ErrStockNotAdded) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock not added yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.StocksResponse{
		Price:         summary.Price,
		MovingAverage: summary.MovingAverage,
		LastUpdated:   summary.LastUpdated.UTC().Format(time.RFC3339),
	})
}

// AddCheck はプロバイダから現在価格を取得して観測として追記します。
// プロバイダのエラーはステータスコードに変換して返します。
//
// PUT /stocks/:symbol
func (h *StocksHandler) AddCheck(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	record, err := h.uc.AddCheck(c.Request.Context(), symbol)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrQuoteUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		case errors.Is(err, usecase.ErrStockNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		default:
			// 設定エラー・不正なレスポンス・プロバイダ障害・ストア障害はすべて500
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto.CheckResponse{
		Symbol:    record.Symbol,
		Price:     record.Price,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// DeleteStock は銘柄の全レコードを削除します。
//
// DELETE /stocks/:symbol
func (h *StocksHandler) DeleteStock(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	if err := h.uc.DeleteStock(c.Request.Context(), symbol); err != nil {
		if errors.Is(err, usecase.ErrStockNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
