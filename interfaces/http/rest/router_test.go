package rest_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cmdhandlers "lineage-backend/application/commands/handlers"
	qryhandlers "lineage-backend/application/queries/handlers"
	"lineage-backend/application/services"
	"lineage-backend/infrastructure/persistence/memory"
	"lineage-backend/interfaces/http/rest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()
	cascade := services.NewCascadeDeleter(store, store, nil, logger)

	handlers := rest.Handlers{
		Nodes: rest.NewNodeHandler(
			cmdhandlers.NewCreateNodeHandler(store, logger),
			cmdhandlers.NewUpdatePropertiesHandler(store, logger),
			cmdhandlers.NewDeleteNodeHandler(store, logger),
			qryhandlers.NewGetNodeHandler(store, logger),
			qryhandlers.NewListNodesHandler(store, logger),
			cascade,
			logger,
		),
		Associations: rest.NewAssociationHandler(
			cmdhandlers.NewCreateAssociationHandler(store, store, logger),
			cmdhandlers.NewDeleteAssociationHandler(store, logger),
			qryhandlers.NewListAssociationsHandler(store, logger),
			logger,
		),
		Lineage: rest.NewLineageHandler(
			qryhandlers.NewNeighborsHandler(store, store, logger),
			qryhandlers.NewTraverseGraphHandler(store, store, logger),
			logger,
		),
	}

	server := httptest.NewServer(rest.NewRouter(handlers, nil, logger))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createNode(t *testing.T, server *httptest.Server, category, name string) map[string]any {
	t.Helper()
	resp := postJSON(t, server.URL+"/api/v1/nodes", map[string]any{
		"category": category,
		"name":     name,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[map[string]any](t, resp)
}

func TestNodeLifecycle(t *testing.T) {
	server := newTestServer(t)

	created := createNode(t, server, "Artifact", "images-v1")
	nodeID := created["id"].(string)
	require.NotEmpty(t, nodeID)

	// Duplicate names within a category are rejected.
	dup := postJSON(t, server.URL+"/api/v1/nodes", map[string]any{
		"category": "Artifact",
		"name":     "images-v1",
	})
	assert.Equal(t, http.StatusConflict, dup.StatusCode)
	dup.Body.Close()

	// Lookup by identifier and by category-scoped name.
	resp, err := http.Get(server.URL + "/api/v1/nodes/" + nodeID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/v1/nodes/lookup?category=Artifact&name=images-v1")
	require.NoError(t, err)
	byName := decode[map[string]any](t, resp)
	assert.Equal(t, nodeID, byName["id"])

	// Unknown node is a 404.
	resp, err = http.Get(server.URL + "/api/v1/nodes/lookup?category=Artifact&name=missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Property merge keeps unmentioned keys.
	req, err := http.NewRequest(http.MethodPatch, server.URL+"/api/v1/nodes/"+nodeID+"/properties",
		bytes.NewReader([]byte(`{"properties":{"stage":"prod"}}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	patched := decode[map[string]any](t, resp)
	props := patched["properties"].(map[string]any)
	assert.Equal(t, "prod", props["stage"])

	// Plain delete succeeds on an isolated node.
	req, err = http.NewRequest(http.MethodDelete, server.URL+"/api/v1/nodes/"+nodeID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestAssociationEndpoints(t *testing.T) {
	server := newTestServer(t)
	action := createNode(t, server, "Action", "build-1")
	model := createNode(t, server, "Artifact", "model")

	resp := postJSON(t, server.URL+"/api/v1/associations", map[string]any{
		"sourceId": action["id"],
		"destId":   model["id"],
		"type":     "Produced",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	edge := decode[map[string]any](t, resp)
	assert.Equal(t, "build-1", edge["sourceName"])
	assert.Equal(t, "model", edge["destName"])

	// Two experiment entities cannot be linked.
	expA := createNode(t, server, "ExperimentEntity", "exp-a")
	expB := createNode(t, server, "ExperimentEntity", "exp-b")
	resp = postJSON(t, server.URL+"/api/v1/associations", map[string]any{
		"sourceId": expA["id"],
		"destId":   expB["id"],
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// The incoming listing carries the opposite endpoint's name.
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/nodes/%s/associations/incoming", server.URL, model["id"]))
	require.NoError(t, err)
	incoming := decode[[]map[string]any](t, resp)
	require.Len(t, incoming, 1)
	assert.Equal(t, "build-1", incoming[0]["oppositeName"])

	// A referenced node cannot be deleted without cascade.
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/nodes/"+model["id"].(string), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// With cascade the edge is drained first.
	req, err = http.NewRequest(http.MethodDelete, server.URL+"/api/v1/nodes/"+model["id"].(string)+"?cascade=true", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestLineageEndpoints(t *testing.T) {
	server := newTestServer(t)
	images := createNode(t, server, "Artifact", "images")
	build := createNode(t, server, "Action", "build-1")
	model := createNode(t, server, "Artifact", "model")

	for _, pair := range [][2]map[string]any{{images, build}, {build, model}} {
		resp := postJSON(t, server.URL+"/api/v1/associations", map[string]any{
			"sourceId": pair[0]["id"],
			"destId":   pair[1]["id"],
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/nodes/%s/lineage?direction=Outgoing", server.URL, images["id"]))
	require.NoError(t, err)
	subgraph := decode[map[string]any](t, resp)
	assert.Len(t, subgraph["nodes"], 3)
	assert.Len(t, subgraph["edges"], 2)

	resp, err = http.Get(fmt.Sprintf("%s/api/v1/nodes/%s/neighbors?direction=Both", server.URL, build["id"]))
	require.NoError(t, err)
	neighbors := decode[[]map[string]any](t, resp)
	assert.Len(t, neighbors, 2)
}

func TestListNodesCursor(t *testing.T) {
	server := newTestServer(t)
	createNode(t, server, "Artifact", "n-1")
	createNode(t, server, "Artifact", "n-2")
	createNode(t, server, "Artifact", "n-3")

	// A full page with more behind it advertises a resume cursor.
	resp, err := http.Get(server.URL + "/api/v1/nodes?category=Artifact&pageSize=2&sortField=Name")
	require.NoError(t, err)
	page := decode[map[string]any](t, resp)
	assert.Len(t, page["nodes"], 2)
	require.NotEmpty(t, page["nextCursor"])

	// The final page fills exactly; it must not hand out a cursor into nothing.
	resp, err = http.Get(server.URL + "/api/v1/nodes?category=Artifact&pageSize=3&sortField=Name")
	require.NoError(t, err)
	page = decode[map[string]any](t, resp)
	assert.Len(t, page["nodes"], 3)
	_, present := page["nextCursor"]
	assert.False(t, present, "exhausted listing carries no cursor")
}

func TestPurgeGraph(t *testing.T) {
	server := newTestServer(t)
	a := createNode(t, server, "Artifact", "a")
	b := createNode(t, server, "Artifact", "b")
	resp := postJSON(t, server.URL+"/api/v1/associations", map[string]any{
		"sourceId": a["id"],
		"destId":   b["id"],
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/graph", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/v1/nodes?category=Artifact")
	require.NoError(t, err)
	page := decode[map[string]any](t, resp)
	assert.Empty(t, page["nodes"])
}
