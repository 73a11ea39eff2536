// Package usecase implements the business logic for the stocks feature.
package usecase

import "errors"

var (
	// ErrStockNotAdded is returned when a symbol has no persisted price records yet.
	// A symbol only becomes tracked once its first price check is stored.
	ErrStockNotAdded = errors.New("stock not added yet")

	// ErrStockNotFound is returned when a delete targets a symbol with no records,
	// or when the quote provider does not know the symbol (including the
	// zero-price convention for unknown symbols).
	ErrStockNotFound = errors.New("stock not found")

	// ErrQuoteAPIKeyMissing is returned when no provider API key is configured.
	// This is a configuration problem, not a per-call failure worth retrying.
	ErrQuoteAPIKeyMissing = errors.New("quote provider api key is not configured")

	// ErrQuoteUnauthorized is returned when the quote provider rejects the credentials.
	ErrQuoteUnauthorized = errors.New("quote provider rejected credentials")

	// ErrQuoteProvider is returned for any other non-success provider response.
	ErrQuoteProvider = errors.New("failed to fetch stock data")

	// ErrQuoteMalformed is returned when a success response lacks a numeric price field.
	ErrQuoteMalformed = errors.New("price missing from quote response")
)
