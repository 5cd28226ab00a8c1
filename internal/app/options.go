package service

import (
	"github.com/bozoleague/propline/internal/adapters/catalog"
	workerpool "github.com/bozoleague/propline/internal/adapters/mq/worker"
	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/adapters/schedule"
	"github.com/bozoleague/propline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects the persistence backend. Defaults to the in-memory
// store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog injects the line catalog.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.lines = c
		}
	}
}

// WithOracle injects the outcome oracle.
func WithOracle(settler workerpool.Settler) Option {
	return func(s *Service) {
		if settler != nil {
			s.settler = settler
		}
	}
}

// WithGate injects the resolution schedule gate.
func WithGate(g schedule.Gate) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithWorkerCount sets the number of resolution workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the resolution queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithOracleRate caps oracle lookups per second across the pool.
func WithOracleRate(perSecond float64, burst int) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.oracleRate = perSecond
		}
		if burst > 0 {
			s.oracleBurst = burst
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
