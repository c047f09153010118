// Package persistence provides cross-cutting decorators for the repository
// implementations.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
)

// BreakerConfig holds configuration for the repository circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// ReadyToTrip inputs
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// newBreaker builds a gobreaker instance that only counts infrastructure
// failures. Domain outcomes such as NOT_FOUND or DUPLICATE_NAME are correct
// answers from a healthy store and must never trip the circuit.
func newBreaker(config BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !pkgerrors.IsTransient(err) && !pkgerrors.IsInternal(err)
		},
	})
}

// mapBreakerError converts breaker rejections into transient errors so the
// retry layer backs off instead of failing the operation outright.
func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewTransient("storage circuit open", err)
	}
	return err
}

// NodeRepositoryBreaker wraps a NodeRepository with circuit breaker protection
type NodeRepositoryBreaker struct {
	inner ports.NodeRepository
	cb    *gobreaker.CircuitBreaker
}

var _ ports.NodeRepository = (*NodeRepositoryBreaker)(nil)

// NewNodeRepositoryBreaker decorates a NodeRepository
func NewNodeRepositoryBreaker(inner ports.NodeRepository, config BreakerConfig, logger *zap.Logger) *NodeRepositoryBreaker {
	return &NodeRepositoryBreaker{
		inner: inner,
		cb:    newBreaker(config, logger),
	}
}

func (d *NodeRepositoryBreaker) Put(ctx context.Context, node *entities.Node) error {
	_, err := d.cb.Execute(func() (any, error) {
		return nil, d.inner.Put(ctx, node)
	})
	return mapBreakerError(err)
}

func (d *NodeRepositoryBreaker) Get(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.Get(ctx, id)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return result.(*entities.Node), nil
}

func (d *NodeRepositoryBreaker) GetByName(ctx context.Context, category entities.Category, name string) (*entities.Node, error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.GetByName(ctx, category, name)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return result.(*entities.Node), nil
}

func (d *NodeRepositoryBreaker) Query(ctx context.Context, q ports.NodeQuery) (ports.Page[*entities.Node], error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.Query(ctx, q)
	})
	if err != nil {
		return ports.Page[*entities.Node]{}, mapBreakerError(err)
	}
	return result.(ports.Page[*entities.Node]), nil
}

func (d *NodeRepositoryBreaker) UpdateProperties(ctx context.Context, id valueobjects.NodeID, delta map[string]string) (*entities.Node, error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.UpdateProperties(ctx, id, delta)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return result.(*entities.Node), nil
}

func (d *NodeRepositoryBreaker) Delete(ctx context.Context, id valueobjects.NodeID) error {
	_, err := d.cb.Execute(func() (any, error) {
		return nil, d.inner.Delete(ctx, id)
	})
	return mapBreakerError(err)
}

// AssociationRepositoryBreaker wraps an AssociationRepository with circuit
// breaker protection
type AssociationRepositoryBreaker struct {
	inner ports.AssociationRepository
	cb    *gobreaker.CircuitBreaker
}

var _ ports.AssociationRepository = (*AssociationRepositoryBreaker)(nil)

// NewAssociationRepositoryBreaker decorates an AssociationRepository
func NewAssociationRepositoryBreaker(inner ports.AssociationRepository, config BreakerConfig, logger *zap.Logger) *AssociationRepositoryBreaker {
	return &AssociationRepositoryBreaker{
		inner: inner,
		cb:    newBreaker(config, logger),
	}
}

func (d *AssociationRepositoryBreaker) PutEdge(ctx context.Context, assoc *entities.Association) (*entities.Association, error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.PutEdge(ctx, assoc)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return result.(*entities.Association), nil
}

func (d *AssociationRepositoryBreaker) GetEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) (*entities.Association, error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.GetEdge(ctx, sourceID, destID)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	return result.(*entities.Association), nil
}

func (d *AssociationRepositoryBreaker) QueryEdges(ctx context.Context, q ports.EdgeQuery) (ports.Page[*entities.Association], error) {
	result, err := d.cb.Execute(func() (any, error) {
		return d.inner.QueryEdges(ctx, q)
	})
	if err != nil {
		return ports.Page[*entities.Association]{}, mapBreakerError(err)
	}
	return result.(ports.Page[*entities.Association]), nil
}

func (d *AssociationRepositoryBreaker) DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error {
	_, err := d.cb.Execute(func() (any, error) {
		return nil, d.inner.DeleteEdge(ctx, sourceID, destID)
	})
	return mapBreakerError(err)
}
