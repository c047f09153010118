package memory

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"
	"sync"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
)

const defaultPageSize = 50

// Store is an in-memory provider implementing both repository contracts with
// the same semantics as the DynamoDB provider. All structural invariants
// (name uniqueness, capacity ceilings, incident-edge gating, paired index
// facets) are enforced under one mutex, so concurrent callers observe exactly
// the guarantees the contract promises.
type Store struct {
	mu sync.RWMutex

	nodes     map[string]*entities.Node // by node ID
	nameIndex map[string]string         // category-scoped name -> node ID
	counts    map[entities.Category]int // manually created nodes per category

	edges     map[string]*entities.Association // by ordered pair key
	outgoing  map[string]map[string]struct{}   // source ID -> edge keys
	incoming  map[string]map[string]struct{}   // dest ID -> edge keys
	edgeCount int                              // manually created associations
}

// Compile-time interface checks
var _ ports.NodeRepository = (*Store)(nil)
var _ ports.AssociationRepository = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		nodes:     make(map[string]*entities.Node),
		nameIndex: make(map[string]string),
		counts:    make(map[entities.Category]int),
		edges:     make(map[string]*entities.Association),
		outgoing:  make(map[string]map[string]struct{}),
		incoming:  make(map[string]map[string]struct{}),
	}
}

func nameKey(category entities.Category, name string) string {
	return string(category) + "\x00" + name
}

func edgeKey(sourceID, destID valueobjects.NodeID) string {
	return sourceID.String() + "\x00" + destID.String()
}

// cloneNode returns a detached copy of a stored node. Readers must never share
// the stored aggregate's mutable state with writers holding the lock.
func cloneNode(n *entities.Node) *entities.Node {
	return entities.ReconstructNode(
		n.ID(),
		n.Category(),
		n.Subtype(),
		n.Name(),
		n.SourceURI(),
		n.Properties(),
		n.Origin(),
		n.CreatedAt(),
		n.UpdatedAt(),
	)
}

// Put persists a new node, enforcing name uniqueness and the category ceiling
// atomically under the store lock.
func (s *Store) Put(ctx context.Context, node *entities.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nameKey(node.Category(), node.Name())
	if _, exists := s.nameIndex[key]; exists {
		return pkgerrors.NewDuplicateName(
			"name already in use for category " + string(node.Category()) + ": " + node.Name())
	}

	if node.CountsAgainstCeiling() {
		ceiling, _ := entities.CapacityCeiling(node.Category())
		if s.counts[node.Category()] >= ceiling {
			return pkgerrors.NewCapacityExceeded(
				"category " + string(node.Category()) + " reached its ceiling of manually created nodes")
		}
		s.counts[node.Category()]++
	}

	s.nodes[node.ID().String()] = node
	s.nameIndex[key] = node.ID().String()
	return nil
}

// Get retrieves a node by identifier
func (s *Store) Get(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFound("node not found: " + id.String())
	}
	return cloneNode(node), nil
}

// GetByName retrieves a node by its category-scoped name
func (s *Store) GetByName(ctx context.Context, category entities.Category, name string) (*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.nameIndex[nameKey(category, name)]
	if !ok {
		return nil, pkgerrors.NewNotFound("node not found: " + string(category) + "/" + name)
	}
	return cloneNode(s.nodes[id]), nil
}

// Query returns one page of a category listing. The sort key includes the node
// ID as a tiebreaker, so ordering is stable and a node already returned never
// reappears out of order as new nodes arrive.
func (s *Store) Query(ctx context.Context, q ports.NodeQuery) (ports.Page[*entities.Node], error) {
	s.mu.RLock()
	matched := make([]*entities.Node, 0)
	for _, node := range s.nodes {
		if node.Category() != q.Category {
			continue
		}
		if q.NameContains != "" && !strings.Contains(node.Name(), q.NameContains) {
			continue
		}
		matched = append(matched, cloneNode(node))
	}
	s.mu.RUnlock()

	descending := q.SortOrder == ports.Descending
	sort.Slice(matched, func(i, j int) bool {
		less := nodeSortKey(matched[i], q.SortField) < nodeSortKey(matched[j], q.SortField)
		if descending {
			return !less
		}
		return less
	})

	return paginate(matched, q.Cursor, q.Limit, descending, func(n *entities.Node) string {
		return nodeSortKey(n, q.SortField)
	})
}

func nodeSortKey(n *entities.Node, field ports.SortField) string {
	switch field {
	case ports.SortByName:
		return n.Name() + "\x00" + n.ID().String()
	default:
		return n.CreatedAt().UTC().Format("2006-01-02T15:04:05.000000000Z") + "\x00" + n.ID().String()
	}
}

// UpdateProperties merges the delta into the stored node
func (s *Store) UpdateProperties(ctx context.Context, id valueobjects.NodeID, delta map[string]string) (*entities.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFound("node not found: " + id.String())
	}
	node.MergeProperties(delta)
	return cloneNode(node), nil
}

// Delete removes a node. The incident-edge check and the removal happen under
// the same lock, so the integrity gate cannot be raced by this store.
func (s *Store) Delete(ctx context.Context, id valueobjects.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id.String()]
	if !ok {
		return pkgerrors.NewNotFound("node not found: " + id.String())
	}

	if len(s.outgoing[id.String()]) > 0 || len(s.incoming[id.String()]) > 0 {
		return pkgerrors.NewHasIncidentEdges(
			"node still referenced by associations: " + id.String())
	}

	delete(s.nodes, id.String())
	delete(s.nameIndex, nameKey(node.Category(), node.Name()))
	if node.CountsAgainstCeiling() {
		s.counts[node.Category()]--
	}
	return nil
}

// PutEdge persists an edge. Re-creating an identical edge is idempotent and
// returns the existing one; the same pair with a different type is rejected.
// Both endpoints are re-checked under the lock so an edge can never outlive a
// concurrently deleted node.
func (s *Store) PutEdge(ctx context.Context, assoc *entities.Association) (*entities.Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey(assoc.SourceID(), assoc.DestID())
	if existing, ok := s.edges[key]; ok {
		if existing.Type() == assoc.Type() {
			return existing, nil
		}
		return nil, pkgerrors.NewInvalidAssociation(
			"association already exists with type " + string(existing.Type()))
	}

	if s.edgeCount >= entities.MaxAssociations {
		return nil, pkgerrors.NewCapacityExceeded("association ceiling reached")
	}

	if _, ok := s.nodes[assoc.SourceID().String()]; !ok {
		return nil, pkgerrors.NewNotFound("source node not found: " + assoc.SourceID().String())
	}
	if _, ok := s.nodes[assoc.DestID().String()]; !ok {
		return nil, pkgerrors.NewNotFound("destination node not found: " + assoc.DestID().String())
	}

	s.edges[key] = assoc
	if s.outgoing[assoc.SourceID().String()] == nil {
		s.outgoing[assoc.SourceID().String()] = make(map[string]struct{})
	}
	if s.incoming[assoc.DestID().String()] == nil {
		s.incoming[assoc.DestID().String()] = make(map[string]struct{})
	}
	s.outgoing[assoc.SourceID().String()][key] = struct{}{}
	s.incoming[assoc.DestID().String()][key] = struct{}{}
	s.edgeCount++
	return assoc, nil
}

// GetEdge retrieves the edge for an ordered pair
func (s *Store) GetEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) (*entities.Association, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assoc, ok := s.edges[edgeKey(sourceID, destID)]
	if !ok {
		return nil, pkgerrors.NewNotFound(
			"association not found: " + sourceID.String() + " -> " + destID.String())
	}
	return assoc, nil
}

// QueryEdges returns one page of edges incident to a node on the requested facet
func (s *Store) QueryEdges(ctx context.Context, q ports.EdgeQuery) (ports.Page[*entities.Association], error) {
	s.mu.RLock()
	var keys map[string]struct{}
	if q.Direction == ports.DirectionIncoming {
		keys = s.incoming[q.NodeID.String()]
	} else {
		keys = s.outgoing[q.NodeID.String()]
	}
	matched := make([]*entities.Association, 0, len(keys))
	for key := range keys {
		matched = append(matched, s.edges[key])
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return assocSortKey(matched[i]) < assocSortKey(matched[j])
	})

	return paginate(matched, q.Cursor, q.Limit, false, assocSortKey)
}

func assocSortKey(a *entities.Association) string {
	return a.CreatedAt().UTC().Format("2006-01-02T15:04:05.000000000Z") +
		"\x00" + a.SourceID().String() + "\x00" + a.DestID().String()
}

// DeleteEdge removes an edge and both facet entries under one lock
func (s *Store) DeleteEdge(ctx context.Context, sourceID, destID valueobjects.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey(sourceID, destID)
	if _, ok := s.edges[key]; !ok {
		return pkgerrors.NewNotFound(
			"association not found: " + sourceID.String() + " -> " + destID.String())
	}

	delete(s.edges, key)
	delete(s.outgoing[sourceID.String()], key)
	delete(s.incoming[destID.String()], key)
	s.edgeCount--
	return nil
}

// paginate slices a sorted result set into one page. The cursor is the sort
// key of the last returned item, so pages remain correct even when items are
// inserted or removed between calls.
func paginate[T any](sorted []T, cursor string, limit int, descending bool, key func(T) string) (ports.Page[T], error) {
	start := 0
	if cursor != "" {
		decoded, err := base64.URLEncoding.DecodeString(cursor)
		if err != nil {
			return ports.Page[T]{}, pkgerrors.NewValidation("invalid cursor")
		}
		last := string(decoded)
		for start < len(sorted) {
			k := key(sorted[start])
			if (descending && k < last) || (!descending && k > last) {
				break
			}
			start++
		}
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	end := start + limit
	if end > len(sorted) {
		end = len(sorted)
	}

	page := ports.Page[T]{Items: sorted[start:end]}
	if end < len(sorted) {
		page.HasMore = true
		page.NextCursor = base64.URLEncoding.EncodeToString([]byte(key(sorted[end-1])))
	}
	return page, nil
}
