package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lineage-backend/application/queries"
	"lineage-backend/application/queries/handlers"
	"lineage-backend/domain/core/entities"
	"lineage-backend/infrastructure/persistence/memory"
)

// buildGraph seeds a small training lineage:
//
//	images ──┐
//	labels ──┼─> build-1 ─> model
//	wf-1   ──┘
func buildGraph(t *testing.T, store *memory.Store) map[string]*entities.Node {
	t.Helper()
	ctx := context.Background()
	nodes := make(map[string]*entities.Node)

	add := func(category entities.Category, name string) {
		node, err := entities.NewNode(category, "", name, "", nil)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, node))
		nodes[name] = node
	}
	add(entities.CategoryArtifact, "images")
	add(entities.CategoryArtifact, "labels")
	add(entities.CategoryAction, "build-1")
	add(entities.CategoryArtifact, "model")
	add(entities.CategoryContext, "wf-1")

	connect := func(src, dst string, assocType entities.AssociationType) {
		edge, err := entities.NewAssociation(nodes[src], nodes[dst], assocType)
		require.NoError(t, err)
		_, err = store.PutEdge(ctx, edge)
		require.NoError(t, err)
	}
	connect("images", "build-1", entities.AssociationAssociatedWith)
	connect("labels", "build-1", entities.AssociationAssociatedWith)
	connect("wf-1", "build-1", entities.AssociationContributedTo)
	connect("build-1", "model", entities.AssociationProduced)

	return nodes
}

func nodeNames(nodes map[string]*entities.Node) []string {
	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, node.Name())
	}
	return names
}

func TestNeighborsHandler(t *testing.T) {
	store := memory.NewStore()
	graph := buildGraph(t, store)
	handler := handlers.NewNeighborsHandler(store, store, zap.NewNop())

	t.Run("incoming neighbors of build-1", func(t *testing.T) {
		neighbors, err := handler.Handle(context.Background(), queries.NeighborsQuery{
			NodeID:    graph["build-1"].ID().String(),
			Direction: "Incoming",
		})

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"images", "labels", "wf-1"}, nodeNames(neighbors))
	})

	t.Run("outgoing neighbors of build-1", func(t *testing.T) {
		neighbors, err := handler.Handle(context.Background(), queries.NeighborsQuery{
			NodeID:    graph["build-1"].ID().String(),
			Direction: "Outgoing",
		})

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"model"}, nodeNames(neighbors))
	})

	t.Run("both directions", func(t *testing.T) {
		neighbors, err := handler.Handle(context.Background(), queries.NeighborsQuery{
			NodeID:    graph["build-1"].ID().String(),
			Direction: "Both",
		})

		require.NoError(t, err)
		assert.Len(t, neighbors, 4)
	})

	t.Run("isolated node has no neighbors", func(t *testing.T) {
		lone, err := entities.NewNode(entities.CategoryArtifact, "", "lone", "", nil)
		require.NoError(t, err)
		require.NoError(t, store.Put(context.Background(), lone))

		neighbors, err := handler.Handle(context.Background(), queries.NeighborsQuery{
			NodeID:    lone.ID().String(),
			Direction: "Both",
		})

		require.NoError(t, err)
		assert.Empty(t, neighbors)
	})
}

func TestTraverseGraphHandler(t *testing.T) {
	store := memory.NewStore()
	graph := buildGraph(t, store)
	handler := handlers.NewTraverseGraphHandler(store, store, zap.NewNop())

	t.Run("outgoing traversal from images reaches the model", func(t *testing.T) {
		subgraph, err := handler.Handle(context.Background(), queries.TraverseQuery{
			RootID:    graph["images"].ID().String(),
			Direction: "Outgoing",
		})

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"images", "build-1", "model"}, nodeNames(subgraph.Nodes))
		assert.Len(t, subgraph.Edges, 2)
	})

	t.Run("incoming traversal from model collects the full provenance", func(t *testing.T) {
		subgraph, err := handler.Handle(context.Background(), queries.TraverseQuery{
			RootID:    graph["model"].ID().String(),
			Direction: "Incoming",
		})

		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]string{"model", "build-1", "images", "labels", "wf-1"},
			nodeNames(subgraph.Nodes))
		assert.Len(t, subgraph.Edges, 4)
	})

	t.Run("max depth bounds the expansion", func(t *testing.T) {
		subgraph, err := handler.Handle(context.Background(), queries.TraverseQuery{
			RootID:    graph["images"].ID().String(),
			Direction: "Outgoing",
			MaxDepth:  1,
		})

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"images", "build-1"}, nodeNames(subgraph.Nodes))
	})

	t.Run("terminates on a cycle and visits each node once", func(t *testing.T) {
		cycleStore := memory.NewStore()
		ctx := context.Background()
		var ring []*entities.Node
		for _, name := range []string{"a", "b", "c"} {
			node, err := entities.NewNode(entities.CategoryArtifact, "", name, "", nil)
			require.NoError(t, err)
			require.NoError(t, cycleStore.Put(ctx, node))
			ring = append(ring, node)
		}
		for i := range ring {
			edge, err := entities.NewAssociation(ring[i], ring[(i+1)%len(ring)], entities.AssociationDerivedFrom)
			require.NoError(t, err)
			_, err = cycleStore.PutEdge(ctx, edge)
			require.NoError(t, err)
		}

		cycleHandler := handlers.NewTraverseGraphHandler(cycleStore, cycleStore, zap.NewNop())
		subgraph, err := cycleHandler.Handle(ctx, queries.TraverseQuery{
			RootID:    ring[0].ID().String(),
			Direction: "Outgoing",
		})

		require.NoError(t, err)
		assert.Len(t, subgraph.Nodes, 3)
		assert.Len(t, subgraph.Edges, 3)
	})
}

func TestListAssociationsHandler(t *testing.T) {
	store := memory.NewStore()
	graph := buildGraph(t, store)
	handler := handlers.NewListAssociationsHandler(store, zap.NewNop())

	t.Run("incoming summaries carry the source endpoint", func(t *testing.T) {
		summaries, err := handler.Handle(context.Background(), queries.ListAssociationsQuery{
			NodeID:    graph["build-1"].ID().String(),
			Direction: "Incoming",
		})

		require.NoError(t, err)
		require.Len(t, summaries, 3)
		var opposites []string
		for _, summary := range summaries {
			assert.Equal(t, graph["build-1"].ID().String(), summary.DestID)
			assert.Equal(t, summary.SourceID, summary.OppositeID)
			opposites = append(opposites, summary.OppositeName)
		}
		assert.ElementsMatch(t, []string{"images", "labels", "wf-1"}, opposites)
	})

	t.Run("outgoing summaries carry the destination endpoint", func(t *testing.T) {
		summaries, err := handler.Handle(context.Background(), queries.ListAssociationsQuery{
			NodeID:    graph["build-1"].ID().String(),
			Direction: "Outgoing",
		})

		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "model", summaries[0].OppositeName)
		assert.Equal(t, summaries[0].DestID, summaries[0].OppositeID)
	})
}
