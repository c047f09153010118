package observability

import (
	"context"
	"time"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
)

// MeteredNodeRepository records operation counts and latencies for every
// node provider call.
type MeteredNodeRepository struct {
	inner   ports.NodeRepository
	metrics *Collector
}

var _ ports.NodeRepository = (*MeteredNodeRepository)(nil)

// NewMeteredNodeRepository decorates a NodeRepository with metrics
func NewMeteredNodeRepository(inner ports.NodeRepository, metrics *Collector) *MeteredNodeRepository {
	return &MeteredNodeRepository{inner: inner, metrics: metrics}
}

func (m *MeteredNodeRepository) observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
	m.metrics.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *MeteredNodeRepository) Put(ctx context.Context, node *entities.Node) error {
	start := time.Now()
	err := m.inner.Put(ctx, node)
	m.observe("node_put", start, err)
	if err == nil {
		m.metrics.NodesCreated.Inc()
	}
	return err
}

func (m *MeteredNodeRepository) Get(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	start := time.Now()
	node, err := m.inner.Get(ctx, id)
	m.observe("node_get", start, err)
	return node, err
}

func (m *MeteredNodeRepository) GetByName(ctx context.Context, category entities.Category, name string) (*entities.Node, error) {
	start := time.Now()
	node, err := m.inner.GetByName(ctx, category, name)
	m.observe("node_get_by_name", start, err)
	return node, err
}

func (m *MeteredNodeRepository) Query(ctx context.Context, q ports.NodeQuery) (ports.Page[*entities.Node], error) {
	start := time.Now()
	page, err := m.inner.Query(ctx, q)
	m.observe("node_query", start, err)
	return page, err
}

func (m *MeteredNodeRepository) UpdateProperties(ctx context.Context, id valueobjects.NodeID, delta map[string]string) (*entities.Node, error) {
	start := time.Now()
	node, err := m.inner.UpdateProperties(ctx, id, delta)
	m.observe("node_update_properties", start, err)
	return node, err
}

func (m *MeteredNodeRepository) Delete(ctx context.Context, id valueobjects.NodeID) error {
	start := time.Now()
	err := m.inner.Delete(ctx, id)
	m.observe("node_delete", start, err)
	if err == nil {
		m.metrics.NodesDeleted.Inc()
	}
	return err
}

// MeteredAssociationRepository records operation counts and latencies for
// every association provider call.
type MeteredAssociationRepository struct {
	inner   ports.AssociationRepository
	metrics *Collector
}

var _ ports.AssociationRepository = (*MeteredAssociationRepository)(nil)

// NewMeteredAssociationRepository decorates an AssociationRepository with metrics
func NewMeteredAssociationRepository(inner ports.AssociationRepository, metrics *Collector) *MeteredAssociationRepository {
	return &MeteredAssociationRepository{inner: inner, metrics: metrics}
}

func (m *MeteredAssociationRepository) observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.StoreOperations.WithLabelValues(operation, status).Inc()
	m.metrics.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *MeteredAssociationRepository) PutEdge(ctx context.Context, assoc *entities.Association) (*entities.Association, error) {
	start := time.Now()
	stored, err := m.inner.PutEdge(ctx, assoc)
	m.observe("edge_put", start, err)
	if err == nil {
		m.metrics.EdgesCreated.Inc()
	}
	return stored, err
}

func (m *MeteredAssociationRepository) GetEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) (*entities.Association, error) {
	start := time.Now()
	edge, err := m.inner.GetEdge(ctx, sourceID, destID)
	m.observe("edge_get", start, err)
	return edge, err
}

func (m *MeteredAssociationRepository) QueryEdges(ctx context.Context, q ports.EdgeQuery) (ports.Page[*entities.Association], error) {
	start := time.Now()
	page, err := m.inner.QueryEdges(ctx, q)
	m.observe("edge_query", start, err)
	return page, err
}

func (m *MeteredAssociationRepository) DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error {
	start := time.Now()
	err := m.inner.DeleteEdge(ctx, sourceID, destID)
	m.observe("edge_delete", start, err)
	if err == nil {
		m.metrics.EdgesDeleted.Inc()
	}
	return err
}
