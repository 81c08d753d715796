package recorder

import "context"

// NoopRecorder is a no-op implementation used when no trade log is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ TradeRecord) error { return nil }
func (n *NoopRecorder) Close() error                                  { return nil }
