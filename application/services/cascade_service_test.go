package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/application/services"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
	"lineage-backend/infrastructure/persistence/memory"
	pkgerrors "lineage-backend/pkg/errors"
	"lineage-backend/pkg/retry"
)

func fastCascadeConfig() services.ConfigSource {
	return func() services.CascadeConfig {
		return services.CascadeConfig{
			Retry: retry.Config{
				MaxAttempts:   3,
				BaseDelay:     time.Millisecond,
				MaxDelay:      5 * time.Millisecond,
				BackoffFactor: 2.0,
				JitterFactor:  0,
			},
			Pacing: 0,
		}
	}
}

// flakyAssociationRepository wraps a real store and fails DeleteEdge a fixed
// number of times per edge before letting it through.
type flakyAssociationRepository struct {
	ports.AssociationRepository
	failures  map[string]int
	transient bool
}

func edgeKey(sourceID, destID valueobjects.NodeID) string {
	return sourceID.String() + "->" + destID.String()
}

func (f *flakyAssociationRepository) DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error {
	key := edgeKey(sourceID, destID)
	if f.failures[key] > 0 {
		f.failures[key]--
		if f.transient {
			return pkgerrors.NewTransient("injected throttle", nil)
		}
		return pkgerrors.NewInternal("injected failure", nil)
	}
	return f.AssociationRepository.DeleteEdge(ctx, sourceID, destID)
}

func seedStar(t *testing.T, store *memory.Store, incoming, outgoing int) *entities.Node {
	t.Helper()
	ctx := context.Background()

	hub, err := entities.NewNode(entities.CategoryArtifact, "", "hub", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, hub))

	for i := 0; i < incoming; i++ {
		src, err := entities.NewNode(entities.CategoryAction, "", fmt.Sprintf("in-%d", i), "", nil)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, src))
		edge, err := entities.NewAssociation(src, hub, entities.AssociationProduced)
		require.NoError(t, err)
		_, err = store.PutEdge(ctx, edge)
		require.NoError(t, err)
	}
	for i := 0; i < outgoing; i++ {
		dst, err := entities.NewNode(entities.CategoryArtifact, "", fmt.Sprintf("out-%d", i), "", nil)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, dst))
		edge, err := entities.NewAssociation(hub, dst, entities.AssociationDerivedFrom)
		require.NoError(t, err)
		_, err = store.PutEdge(ctx, edge)
		require.NoError(t, err)
	}
	return hub
}

func TestCascadeDeleteNode(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	hub := seedStar(t, store, 3, 2)

	deleter := services.NewCascadeDeleter(store, store, fastCascadeConfig(), zap.NewNop())
	require.NoError(t, deleter.DeleteNode(ctx, hub.ID()))

	// The hub is gone and no incident edge survives on either facet.
	_, err := store.Get(ctx, hub.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	for _, direction := range []ports.EdgeDirection{ports.DirectionIncoming, ports.DirectionOutgoing} {
		page, err := store.QueryEdges(ctx, ports.EdgeQuery{NodeID: hub.ID(), Direction: direction})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	}

	// The neighbors themselves are untouched.
	_, err = store.GetByName(ctx, entities.CategoryAction, "in-0")
	assert.NoError(t, err)
}

func TestCascadeRetriesTransientFailures(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	hub := seedStar(t, store, 1, 1)

	incoming, err := store.QueryEdges(ctx, ports.EdgeQuery{NodeID: hub.ID(), Direction: ports.DirectionIncoming})
	require.NoError(t, err)
	require.Len(t, incoming.Items, 1)

	flaky := &flakyAssociationRepository{
		AssociationRepository: store,
		failures: map[string]int{
			edgeKey(incoming.Items[0].SourceID(), hub.ID()): 2,
		},
		transient: true,
	}

	deleter := services.NewCascadeDeleter(store, flaky, fastCascadeConfig(), zap.NewNop())
	require.NoError(t, deleter.DeleteNode(ctx, hub.ID()))

	_, err = store.Get(ctx, hub.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCascadeReportsExhaustedRetries(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	hub := seedStar(t, store, 2, 0)

	incoming, err := store.QueryEdges(ctx, ports.EdgeQuery{NodeID: hub.ID(), Direction: ports.DirectionIncoming})
	require.NoError(t, err)
	require.Len(t, incoming.Items, 2)

	stuck := incoming.Items[0]
	flaky := &flakyAssociationRepository{
		AssociationRepository: store,
		failures: map[string]int{
			// One more failure than the first run's retry attempts allow.
			edgeKey(stuck.SourceID(), hub.ID()): 4,
		},
		transient: true,
	}

	deleter := services.NewCascadeDeleter(store, flaky, fastCascadeConfig(), zap.NewNop())
	err = deleter.DeleteNode(ctx, hub.ID())

	require.Error(t, err)
	require.True(t, pkgerrors.IsDeletionIncomplete(err))
	di := err.(*pkgerrors.DeletionIncompleteError)
	assert.Contains(t, di.FailedNodes, hub.ID().String())
	assert.Contains(t, di.FailedAssociations, edgeKey(stuck.SourceID(), hub.ID()))

	// The node survives because an edge still references it.
	_, err = store.Get(ctx, hub.ID())
	assert.NoError(t, err)

	// A re-run resumes: the other edge is already gone, the stuck one now
	// succeeds, and the node is finally deleted.
	require.NoError(t, deleter.DeleteNode(ctx, hub.ID()))
	_, err = store.Get(ctx, hub.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCascadeDeleteNodeIdempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	hub := seedStar(t, store, 0, 0)

	deleter := services.NewCascadeDeleter(store, store, fastCascadeConfig(), zap.NewNop())
	require.NoError(t, deleter.DeleteNode(ctx, hub.ID()))

	// Deleting an already-deleted node inside the cascade is success.
	assert.NoError(t, deleter.DeleteNode(ctx, hub.ID()))
}

func TestCascadePacingHonorsContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	hub := seedStar(t, store, 3, 0)

	slow := func() services.CascadeConfig {
		cfg := fastCascadeConfig()()
		cfg.Pacing = time.Hour
		return cfg
	}

	cancel()
	deleter := services.NewCascadeDeleter(store, store, slow, zap.NewNop())
	err := deleter.DeleteNode(ctx, hub.ID())

	require.Error(t, err)
}

func TestPurgeGraph(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	seedStar(t, store, 2, 2)

	ctxNode, err := entities.NewNode(entities.CategoryContext, "", "exp-ctx", "", nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, ctxNode))

	deleter := services.NewCascadeDeleter(store, store, fastCascadeConfig(), zap.NewNop())
	require.NoError(t, deleter.PurgeGraph(ctx))

	for _, category := range entities.Categories() {
		page, err := store.Query(ctx, ports.NodeQuery{Category: category})
		require.NoError(t, err)
		assert.Empty(t, page.Items, string(category))
	}
}
