// Package mocks provides testify mocks for the repository contracts.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
)

// MockNodeRepository is a testify mock of ports.NodeRepository
type MockNodeRepository struct {
	mock.Mock
}

var _ ports.NodeRepository = (*MockNodeRepository)(nil)

func (m *MockNodeRepository) Put(ctx context.Context, node *entities.Node) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *MockNodeRepository) Get(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeRepository) GetByName(ctx context.Context, category entities.Category, name string) (*entities.Node, error) {
	args := m.Called(ctx, category, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeRepository) Query(ctx context.Context, q ports.NodeQuery) (ports.Page[*entities.Node], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(ports.Page[*entities.Node]), args.Error(1)
}

func (m *MockNodeRepository) UpdateProperties(ctx context.Context, id valueobjects.NodeID, delta map[string]string) (*entities.Node, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeRepository) Delete(ctx context.Context, id valueobjects.NodeID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAssociationRepository is a testify mock of ports.AssociationRepository
type MockAssociationRepository struct {
	mock.Mock
}

var _ ports.AssociationRepository = (*MockAssociationRepository)(nil)

func (m *MockAssociationRepository) PutEdge(ctx context.Context, assoc *entities.Association) (*entities.Association, error) {
	args := m.Called(ctx, assoc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Association), args.Error(1)
}

func (m *MockAssociationRepository) GetEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) (*entities.Association, error) {
	args := m.Called(ctx, sourceID, destID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Association), args.Error(1)
}

func (m *MockAssociationRepository) QueryEdges(ctx context.Context, q ports.EdgeQuery) (ports.Page[*entities.Association], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(ports.Page[*entities.Association]), args.Error(1)
}

func (m *MockAssociationRepository) DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error {
	args := m.Called(ctx, sourceID, destID)
	return args.Error(0)
}
