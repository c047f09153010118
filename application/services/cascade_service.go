package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lineage-backend/application/ports"
	"lineage-backend/domain/core/entities"
	"lineage-backend/domain/core/valueobjects"
	pkgerrors "lineage-backend/pkg/errors"
	"lineage-backend/pkg/retry"
)

// CascadeConfig controls the deletion engine's retry and pacing behavior.
// Pacing is a backpressure policy toward external throughput quotas, not a
// correctness requirement.
type CascadeConfig struct {
	Retry  retry.Config
	Pacing time.Duration
}

// DefaultCascadeConfig returns the default cascade configuration
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		Retry:  retry.DefaultConfig(),
		Pacing: 200 * time.Millisecond,
	}
}

// ConfigSource supplies the current cascade configuration. Reading it per
// operation lets a config watcher adjust pacing on a live deleter.
type ConfigSource func() CascadeConfig

// CascadeDeleter removes a node and everything that would otherwise block its
// removal: every incident association is drained from both index facets
// before the node itself is deleted. Deletions inside the cascade are
// idempotent, so a caller re-running a partially failed cascade resumes
// instead of duplicating work.
type CascadeDeleter struct {
	nodeRepo  ports.NodeRepository
	assocRepo ports.AssociationRepository
	config    ConfigSource
	logger    *zap.Logger
}

// NewCascadeDeleter creates a new cascade deleter
func NewCascadeDeleter(
	nodeRepo ports.NodeRepository,
	assocRepo ports.AssociationRepository,
	config ConfigSource,
	logger *zap.Logger,
) *CascadeDeleter {
	if config == nil {
		cfg := DefaultCascadeConfig()
		config = func() CascadeConfig { return cfg }
	}
	return &CascadeDeleter{
		nodeRepo:  nodeRepo,
		assocRepo: assocRepo,
		config:    config,
		logger:    logger,
	}
}

// DeleteNode drains the incoming and outgoing facets for the target, then
// deletes the node. The two drains are independent; both must complete before
// the node delete runs. Transient failures are retried with backoff; exhausted
// retries surface as a DeletionIncompleteError naming what was left behind.
func (d *CascadeDeleter) DeleteNode(ctx context.Context, nodeID valueobjects.NodeID) error {
	cfg := d.config()

	var failedAssociations []string
	var causes []error

	for _, facet := range []ports.EdgeDirection{ports.DirectionIncoming, ports.DirectionOutgoing} {
		edges, err := d.drainFacet(ctx, nodeID, facet, cfg)
		if err != nil {
			return &pkgerrors.DeletionIncompleteError{
				FailedNodes: []string{nodeID.String()},
				Causes:      []error{fmt.Errorf("failed to list %s associations: %w", facet, err)},
			}
		}

		for _, edge := range edges {
			if err := d.deleteAssociation(ctx, edge, cfg); err != nil {
				key := edge.SourceID().String() + "->" + edge.DestID().String()
				failedAssociations = append(failedAssociations, key)
				causes = append(causes, err)
				d.logger.Warn("Association deletion exhausted retries",
					zap.String("sourceID", edge.SourceID().String()),
					zap.String("destID", edge.DestID().String()),
					zap.Error(err),
				)
				continue
			}
			if err := pace(ctx, cfg.Pacing); err != nil {
				return err
			}
		}
	}

	if len(failedAssociations) > 0 {
		return &pkgerrors.DeletionIncompleteError{
			FailedNodes:        []string{nodeID.String()},
			FailedAssociations: failedAssociations,
			Causes:             causes,
		}
	}

	if err := d.deleteNodeRecord(ctx, nodeID, cfg); err != nil {
		return &pkgerrors.DeletionIncompleteError{
			FailedNodes: []string{nodeID.String()},
			Causes:      []error{err},
		}
	}

	d.logger.Info("Cascade delete complete", zap.String("nodeID", nodeID.String()))
	return nil
}

// PurgeGraph applies the per-node cascade to every node across all
// categories. Failed nodes are reported together after the sweep; progress on
// other nodes is kept, so re-invoking resumes where the last run failed.
func (d *CascadeDeleter) PurgeGraph(ctx context.Context) error {
	merged := &pkgerrors.DeletionIncompleteError{}

	for _, category := range entities.Categories() {
		cursor := ""
		for {
			page, err := d.nodeRepo.Query(ctx, ports.NodeQuery{
				Category:  category,
				SortField: ports.SortByCreationTime,
				SortOrder: ports.Ascending,
				Cursor:    cursor,
			})
			if err != nil {
				merged.Causes = append(merged.Causes,
					fmt.Errorf("failed to list %s nodes: %w", category, err))
				break
			}

			for _, node := range page.Items {
				if err := d.DeleteNode(ctx, node.ID()); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					var di *pkgerrors.DeletionIncompleteError
					if errors.As(err, &di) {
						merged.FailedNodes = append(merged.FailedNodes, di.FailedNodes...)
						merged.FailedAssociations = append(merged.FailedAssociations, di.FailedAssociations...)
						merged.Causes = append(merged.Causes, di.Causes...)
					} else {
						merged.FailedNodes = append(merged.FailedNodes, node.ID().String())
						merged.Causes = append(merged.Causes, err)
					}
				}
			}

			if !page.HasMore {
				break
			}
			cursor = page.NextCursor
		}
	}

	if len(merged.FailedNodes) > 0 || len(merged.Causes) > 0 {
		return merged
	}
	return nil
}

// drainFacet lists every edge on one facet, retrying transient listing failures
func (d *CascadeDeleter) drainFacet(ctx context.Context, nodeID valueobjects.NodeID, facet ports.EdgeDirection, cfg CascadeConfig) ([]*entities.Association, error) {
	var edges []*entities.Association
	cursor := ""
	for {
		var page ports.Page[*entities.Association]
		err := retry.Do(ctx, cfg.Retry, func() error {
			var qerr error
			page, qerr = d.assocRepo.QueryEdges(ctx, ports.EdgeQuery{
				NodeID:    nodeID,
				Direction: facet,
				Cursor:    cursor,
			})
			return qerr
		})
		if err != nil {
			return nil, err
		}
		edges = append(edges, page.Items...)
		if !page.HasMore {
			return edges, nil
		}
		cursor = page.NextCursor
	}
}

// deleteAssociation deletes one edge with retries. An already-absent edge is
// success: a resumed cascade must not trip over its own earlier progress.
func (d *CascadeDeleter) deleteAssociation(ctx context.Context, edge *entities.Association, cfg CascadeConfig) error {
	return retry.Do(ctx, cfg.Retry, func() error {
		err := d.assocRepo.DeleteEdge(ctx, edge.SourceID(), edge.DestID())
		if err != nil && pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	})
}

// deleteNodeRecord deletes the node itself with retries. HAS_INCIDENT_EDGES is
// structural here (a concurrent writer added an edge after the drain) and is
// surfaced so the caller can re-run the cascade; it is never retried blindly.
func (d *CascadeDeleter) deleteNodeRecord(ctx context.Context, nodeID valueobjects.NodeID, cfg CascadeConfig) error {
	return retry.Do(ctx, cfg.Retry, func() error {
		err := d.nodeRepo.Delete(ctx, nodeID)
		if err != nil && pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	})
}

// pace waits the configured delay between deletion calls
func pace(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
