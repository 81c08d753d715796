package collector

import (
	"context"
	"errors"

	"TradeSentinel/internal/model"
)

var (
	// ErrNoData means the upstream answered but had no usable candles.
	ErrNoData = errors.New("no data")
	// ErrMalformed means the upstream payload could not be turned into a series.
	ErrMalformed = errors.New("malformed data")
)

// Source fetches recent candles for one symbol. Implementations return an
// empty series together with ErrNoData or ErrMalformed when the upstream
// answered but the payload is unusable, and any other error for transport
// failures.
type Source interface {
	FetchSeries(ctx context.Context, symbol string) (model.PriceSeries, error)
	Name() string
}

// IsDataError reports whether err describes an unusable payload rather
// than a transport failure.
func IsDataError(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrMalformed)
}
