package pgwire

import "log/slog"

// EngineOption configures an Engine at construction time, mirroring the
// teacher's functional-options pattern (`OptionFn`) for `*Server`.
type EngineOption func(*Engine)

// WithLogger sets the structured logger used for frame, cache-eviction and
// auth-step debug lines. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStatementCache sets the prepared-statement cache size and the
// execution-count threshold at which an entry is promoted to prepared
// (§4.3). A threshold of 0 disables caching entirely.
func WithStatementCache(size, threshold int) EngineOption {
	return func(e *Engine) {
		e.cacheSize = size
		e.cacheThreshold = threshold
	}
}

// WithDefaultResultFormat overrides the result format Extended Query
// requests when the caller hasn't specified one; §4.4 defaults this to
// binary.
func WithDefaultResultFormat(format FormatCode) EngineOption {
	return func(e *Engine) {
		e.defaultResultFormat = format
	}
}

// WithOnNotice installs a hook invoked for every NoticeResponse (`N`),
// SUPPLEMENTED FEATURES #1.
func WithOnNotice(fn func(Notice)) EngineOption {
	return func(e *Engine) { e.onNotice = fn }
}

// WithOnNotification installs a hook invoked for every NotificationResponse
// (`A`), SUPPLEMENTED FEATURES #2.
func WithOnNotification(fn func(Notification)) EngineOption {
	return func(e *Engine) { e.onNotification = fn }
}

// WithScramClientFactory overrides how the engine constructs a SCRAM-
// SHA-256 client for a given (user, password) pair; tests substitute a
// fake to avoid exercising the real exchange math.
func WithScramClientFactory(fn ScramClientFactory) EngineOption {
	return func(e *Engine) { e.scramFactory = fn }
}
