// Package analyzer implements the node deletion decision engine.
//
// The analyzer is a pure policy layer: given a node snapshot, the pods
// scheduled on it and an immutable Policy it decides whether the node is
// eligible for deletion or for finalizer cleanup, together with a
// human-readable reason. It performs no I/O and holds no state between calls.
package analyzer

import (
	"fmt"
	"time"

	"github.com/nodereaper/nodereaper/internal/snapshot"
)

// Well-known node labels used for reporting.
const (
	instanceTypeLabel = "node.kubernetes.io/instance-type"
	zoneLabel         = "topology.kubernetes.io/zone"
)

// Reasons returned by ShouldDeleteNode. Each corresponds to exactly one
// predicate outcome; the orchestrator and notifications treat them as a
// closed vocabulary.
const (
	ReasonProtectionAnnotation = "Node has protection annotation(s)"
	ReasonProtectionLabel      = "Node has protection label(s)"
	ReasonTooYoung             = "Node is too young"
	ReasonUnreachable          = "Node is unreachable"
	ReasonNotReady             = "Node is not ready"
	ReasonUnhealthyTaint       = "Node has unhealthy taint(s)"
	ReasonEmpty                = "Node is empty"
	ReasonNoCriteria           = "Node does not meet deletion criteria"
)

// Reasons returned by ShouldCleanupFinalizers.
const (
	ReasonNoFinalizersConfigured = "No removable finalizers configured"
	ReasonNotTerminating         = "Node is not in terminating state"
	ReasonNoRemovableFinalizers  = "Node has no removable finalizers"
	ReasonTimeoutNotExpired      = "Node deletion timeout has not expired"
)

// Policy is the immutable deletion policy applied during a run.
type Policy struct {
	// ClusterName is a reporting label only; it never affects decisions.
	ClusterName string
	// NodeMinAge is the minimum age before a node may be deleted.
	NodeMinAge time.Duration
	// DeletionTimeout is how long a terminating node may keep its removable
	// finalizers before they are cleaned up.
	DeletionTimeout time.Duration
	// UnhealthyTaints are taint keys that mark a node unhealthy when carried
	// with a NoExecute or NoSchedule effect.
	UnhealthyTaints []string
	// ProtectionAnnotations and ProtectionLabels exempt a node from deletion
	// when any configured key/value pair matches exactly.
	ProtectionAnnotations map[string]string
	ProtectionLabels      map[string]string
	// RemovableFinalizers are the only finalizers cleanup may ever remove.
	RemovableFinalizers []string
}

// NodeInfo describes a node for logs and notifications.
type NodeInfo struct {
	Name         string
	Cluster      string
	Age          string
	InstanceType string
	Zone         string
	CreationTime string
}

// Analyzer evaluates nodes against a Policy.
type Analyzer struct {
	policy Policy
	now    func() time.Time
}

// New returns an Analyzer for the given policy.
func New(policy Policy) *Analyzer {
	return &Analyzer{policy: policy, now: time.Now}
}

// IsTerminating reports whether deletion of the node has been requested.
func (a *Analyzer) IsTerminating(node snapshot.NodeSnapshot) bool {
	return node.DeletedAt != nil
}

// ShouldDeleteNode decides whether a non-terminating node should be deleted.
//
// The predicate chain is ordered and short-circuiting: protection dominates
// every other signal, the age gate prevents churn on freshly joined nodes,
// and health signals are checked before occupancy so an unhealthy node is
// reclaimed even when pods have not been evicted from it yet.
func (a *Analyzer) ShouldDeleteNode(node snapshot.NodeSnapshot, pods []snapshot.PodSnapshot) (bool, string) {
	if matchesMetadata(node.Annotations, a.policy.ProtectionAnnotations) {
		return false, ReasonProtectionAnnotation
	}
	if matchesMetadata(node.Labels, a.policy.ProtectionLabels) {
		return false, ReasonProtectionLabel
	}
	if a.age(node) < a.policy.NodeMinAge {
		return false, ReasonTooYoung
	}
	if node.Ready == snapshot.ReadyUnknown {
		return true, ReasonUnreachable
	}
	if node.Ready == snapshot.ReadyFalse {
		return true, ReasonNotReady
	}
	if a.hasUnhealthyTaint(node) {
		return true, ReasonUnhealthyTaint
	}
	if isEmpty(pods) {
		return true, ReasonEmpty
	}
	return false, ReasonNoCriteria
}

// ShouldCleanupFinalizers decides whether a terminating node's removable
// finalizers should be cleaned up.
func (a *Analyzer) ShouldCleanupFinalizers(node snapshot.NodeSnapshot) (bool, string) {
	if len(a.policy.RemovableFinalizers) == 0 {
		return false, ReasonNoFinalizersConfigured
	}
	if !a.IsTerminating(node) {
		return false, ReasonNotTerminating
	}
	if len(a.FinalizersToRemove(node)) == 0 {
		return false, ReasonNoRemovableFinalizers
	}
	terminatingFor := a.terminatingAge(node)
	if terminatingFor < a.policy.DeletionTimeout {
		return false, ReasonTimeoutNotExpired
	}
	return true, fmt.Sprintf("Node in terminating state for %s", FormatAge(terminatingFor))
}

// FinalizersToRemove returns the node's finalizers that are in the removable
// set, in node order. Finalizers outside the set are never returned, which
// bounds the blast radius of automated cleanup.
func (a *Analyzer) FinalizersToRemove(node snapshot.NodeSnapshot) []string {
	var remove []string
	for _, f := range node.Finalizers {
		if a.isRemovable(f) {
			remove = append(remove, f)
		}
	}
	return remove
}

// FinalizersToKeep returns the node's finalizers that are not in the
// removable set, in node order. Together with FinalizersToRemove it forms a
// disjoint partition of the node's finalizer list.
func (a *Analyzer) FinalizersToKeep(node snapshot.NodeSnapshot) []string {
	keep := []string{}
	for _, f := range node.Finalizers {
		if !a.isRemovable(f) {
			keep = append(keep, f)
		}
	}
	return keep
}

// NodeInfo collects node details for logs and notifications.
func (a *Analyzer) NodeInfo(node snapshot.NodeSnapshot) NodeInfo {
	return NodeInfo{
		Name:         node.Name,
		Cluster:      a.policy.ClusterName,
		Age:          FormatAge(a.age(node)),
		InstanceType: labelOrUnknown(node.Labels, instanceTypeLabel),
		Zone:         labelOrUnknown(node.Labels, zoneLabel),
		CreationTime: node.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (a *Analyzer) age(node snapshot.NodeSnapshot) time.Duration {
	return a.now().Sub(node.CreatedAt)
}

func (a *Analyzer) terminatingAge(node snapshot.NodeSnapshot) time.Duration {
	if node.DeletedAt == nil {
		return 0
	}
	return a.now().Sub(*node.DeletedAt)
}

func (a *Analyzer) isRemovable(finalizer string) bool {
	for _, f := range a.policy.RemovableFinalizers {
		if f == finalizer {
			return true
		}
	}
	return false
}

func (a *Analyzer) hasUnhealthyTaint(node snapshot.NodeSnapshot) bool {
	for _, taint := range node.Taints {
		if taint.Effect != "NoExecute" && taint.Effect != "NoSchedule" {
			continue
		}
		for _, key := range a.policy.UnhealthyTaints {
			if taint.Key == key {
				return true
			}
		}
	}
	return false
}

// matchesMetadata reports whether any configured key/value pair matches the
// node metadata exactly. A single match is sufficient.
func matchesMetadata(metadata, rules map[string]string) bool {
	for key, expected := range rules {
		if value, ok := metadata[key]; ok && value == expected {
			return true
		}
	}
	return false
}

// isEmpty reports whether all pods on the node are DaemonSet-owned. A node
// with zero pods is empty.
func isEmpty(pods []snapshot.PodSnapshot) bool {
	for _, pod := range pods {
		if !pod.IsDaemonSet() {
			return false
		}
	}
	return true
}

func labelOrUnknown(labels map[string]string, key string) string {
	if value, ok := labels[key]; ok && value != "" {
		return value
	}
	return "unknown"
}

// FormatAge renders a duration as a compact age string: whole seconds below
// a minute, then whole minutes, hours or days. Values are truncated, never
// rounded.
func FormatAge(age time.Duration) string {
	seconds := int64(age.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}
