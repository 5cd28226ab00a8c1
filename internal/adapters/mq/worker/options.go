package worker

import "golang.org/x/time/rate"

// Option applies a configuration option to a single worker.
type Option func(*InMemoryWorker)

// WithName names the worker for log attribution.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLimiter shares an oracle rate limiter across workers.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.limiter = l
		}
	}
}

type poolConfig struct {
	oracleRate  rate.Limit
	oracleBurst int
	resultsBuf  int
}

// PoolOption applies a configuration option to the pool.
type PoolOption func(*poolConfig)

// WithOracleRate caps oracle lookups per second across the pool.
func WithOracleRate(perSecond float64, burst int) PoolOption {
	return func(c *poolConfig) {
		if perSecond > 0 {
			c.oracleRate = rate.Limit(perSecond)
		}
		if burst > 0 {
			c.oracleBurst = burst
		}
	}
}

// WithResultsBuffer sizes the shared results channel.
func WithResultsBuffer(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.resultsBuf = n
		}
	}
}
