// Package reaper drives one pass over the cluster's nodes, applying the
// analyzer's decisions through the cluster client and reporting every action
// through the notification sink.
package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/nodereaper/nodereaper/internal/analyzer"
	"github.com/nodereaper/nodereaper/internal/metrics"
	"github.com/nodereaper/nodereaper/internal/snapshot"
)

// ClusterClient is the cluster API surface the reaper consumes.
type ClusterClient interface {
	ListNodes(ctx context.Context, labelSelector string) ([]snapshot.NodeSnapshot, error)
	ListPodsOnNode(ctx context.Context, nodeName string) ([]snapshot.PodSnapshot, error)
	DeleteNode(ctx context.Context, nodeName string) error
	PatchNodeFinalizers(ctx context.Context, nodeName string, finalizersToKeep []string) error
}

// NotificationSink receives outcome messages. Delivery is best-effort; errors
// are handled by the sink and never interrupt the run.
type NotificationSink interface {
	Send(ctx context.Context, message string) error
}

// Options configure a Reaper.
type Options struct {
	// DryRun suppresses mutating calls but not notifications.
	DryRun bool
	// EnableFinalizerCleanup gates the finalizer patch on terminating nodes.
	EnableFinalizerCleanup bool
	// NodeLabelSelector restricts which nodes are discovered. Empty selects
	// all nodes.
	NodeLabelSelector string
}

// Summary reports what a run did.
type Summary struct {
	Processed int
	Deleted   int
	Cleaned   int
	Failed    int
}

// Reaper orchestrates one pass over all discovered nodes. Nodes are processed
// strictly one at a time in listing order; nothing is cached between passes.
type Reaper struct {
	client   ClusterClient
	analyzer *analyzer.Analyzer
	sink     NotificationSink
	log      logr.Logger
	opts     Options
}

// New builds a Reaper.
func New(client ClusterClient, a *analyzer.Analyzer, sink NotificationSink, log logr.Logger, opts Options) *Reaper {
	return &Reaper{
		client:   client,
		analyzer: a,
		sink:     sink,
		log:      log,
		opts:     opts,
	}
}

// Run executes one pass. A failure to list nodes or pods aborts the run and
// is returned; per-node mutation failures are reported and the pass
// continues with the next node.
func (r *Reaper) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	r.log.Info("starting reaper run",
		"dryRun", r.opts.DryRun,
		"finalizerCleanup", r.opts.EnableFinalizerCleanup,
		"selector", r.opts.NodeLabelSelector,
	)

	nodes, err := r.client.ListNodes(ctx, r.opts.NodeLabelSelector)
	if err != nil {
		metrics.RecordRun("error", time.Since(start).Seconds())
		return Summary{}, fmt.Errorf("failed to list nodes: %w", err)
	}

	var summary Summary
	for _, node := range nodes {
		summary.Processed++
		metrics.RecordNodeProcessed()

		if r.analyzer.IsTerminating(node) {
			r.processTerminatingNode(ctx, node, &summary)
			continue
		}
		if err := r.processActiveNode(ctx, node, &summary); err != nil {
			metrics.RecordRun("error", time.Since(start).Seconds())
			return summary, err
		}
	}

	metrics.RecordRun("success", time.Since(start).Seconds())
	r.log.Info("reaper run completed",
		"processed", summary.Processed,
		"deleted", summary.Deleted,
		"cleaned", summary.Cleaned,
		"failed", summary.Failed,
	)
	return summary, nil
}

// processTerminatingNode handles a node with a deletion timestamp: if its
// removable finalizers have been stuck past the timeout they are patched
// away. Ineligible nodes produce no call and no notification.
func (r *Reaper) processTerminatingNode(ctx context.Context, node snapshot.NodeSnapshot, summary *Summary) {
	ok, reason := r.analyzer.ShouldCleanupFinalizers(node)
	if !ok {
		r.log.V(1).Info("skipping terminating node", "node", node.Name, "reason", reason)
		return
	}

	toRemove := r.analyzer.FinalizersToRemove(node)
	toKeep := r.analyzer.FinalizersToKeep(node)
	suppressed := r.opts.DryRun || !r.opts.EnableFinalizerCleanup

	var errMsg string
	if suppressed {
		r.log.Info("would remove stuck finalizers",
			"node", node.Name, "remove", toRemove, "keep", toKeep, "dryRun", r.opts.DryRun)
	} else if err := r.client.PatchNodeFinalizers(ctx, node.Name, toKeep); err != nil {
		r.log.Error(err, "failed to clean up finalizers", "node", node.Name)
		metrics.RecordActionFailure("cleanup")
		summary.Failed++
		errMsg = err.Error()
	} else {
		r.log.Info("removed stuck finalizers", "node", node.Name, "removed", toRemove)
		metrics.RecordFinalizerCleanup()
		summary.Cleaned++
	}

	message := r.formatMessage(node, reason, errMsg, suppressed, actionCleanup)
	_ = r.sink.Send(ctx, message)
}

// processActiveNode handles a non-terminating node. The returned error is
// non-nil only for pod listing failures, which abort the whole run.
func (r *Reaper) processActiveNode(ctx context.Context, node snapshot.NodeSnapshot, summary *Summary) error {
	pods, err := r.client.ListPodsOnNode(ctx, node.Name)
	if err != nil {
		return fmt.Errorf("failed to list pods on node %s: %w", node.Name, err)
	}

	ok, reason := r.analyzer.ShouldDeleteNode(node, pods)
	if !ok {
		r.log.V(1).Info("keeping node", "node", node.Name, "reason", reason)
		return nil
	}

	var errMsg string
	if r.opts.DryRun {
		r.log.Info("would delete node", "node", node.Name, "reason", reason)
	} else if err := r.client.DeleteNode(ctx, node.Name); err != nil {
		r.log.Error(err, "failed to delete node", "node", node.Name)
		metrics.RecordActionFailure("delete")
		summary.Failed++
		errMsg = err.Error()
	} else {
		r.log.Info("deleted node", "node", node.Name, "reason", reason)
		metrics.RecordNodeDeleted(reason)
		summary.Deleted++
	}

	message := r.formatMessage(node, reason, errMsg, r.opts.DryRun, actionDelete)
	_ = r.sink.Send(ctx, message)
	return nil
}
