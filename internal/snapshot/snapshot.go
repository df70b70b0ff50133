// Package snapshot provides immutable point-in-time views of cluster objects.
//
// The decision engine operates on these value types instead of the raw
// k8s.io/api structs so it stays free of client-go concerns and trivially
// testable. Snapshots are built fresh for every run and never cached.
package snapshot

import (
	"time"

	corev1 "k8s.io/api/core/v1"
)

// ReadyStatus is the status of a node's Ready condition.
type ReadyStatus string

const (
	ReadyTrue    ReadyStatus = "True"
	ReadyFalse   ReadyStatus = "False"
	ReadyUnknown ReadyStatus = "Unknown"
	// ReadyAbsent means the node reported no Ready condition at all.
	ReadyAbsent ReadyStatus = ""
)

// Taint is a node taint relevant to deletion policy.
type Taint struct {
	Key       string
	Value     string
	Effect    string
	TimeAdded *time.Time
}

// NodeSnapshot is a read-only view of a cluster node.
//
// DeletedAt is non-nil iff deletion has been requested; such a node is
// considered terminating and is handled by the finalizer-cleanup branch.
type NodeSnapshot struct {
	Name          string
	CreatedAt     time.Time
	DeletedAt     *time.Time
	Labels        map[string]string
	Annotations   map[string]string
	Taints        []Taint
	Finalizers    []string
	Ready         ReadyStatus
	Unschedulable bool
}

// PodSnapshot is a read-only view of a pod scheduled on a node.
type PodSnapshot struct {
	Name      string
	Namespace string
	// OwnerKind is the kind of the controlling owner reference, or "" when
	// the pod has no owner. An unowned pod is never a DaemonSet pod.
	OwnerKind string
}

// IsDaemonSet reports whether the pod is owned by a DaemonSet.
func (p PodSnapshot) IsDaemonSet() bool {
	return p.OwnerKind == "DaemonSet"
}

// FromNode builds a NodeSnapshot from a node object. Absent optional fields
// (labels, annotations, taints, finalizers, conditions) become empty values.
func FromNode(node *corev1.Node) NodeSnapshot {
	s := NodeSnapshot{
		Name:          node.Name,
		CreatedAt:     node.CreationTimestamp.Time,
		Labels:        node.Labels,
		Annotations:   node.Annotations,
		Finalizers:    append([]string(nil), node.Finalizers...),
		Ready:         readyStatus(node),
		Unschedulable: node.Spec.Unschedulable,
	}
	if node.DeletionTimestamp != nil {
		t := node.DeletionTimestamp.Time
		s.DeletedAt = &t
	}
	for _, taint := range node.Spec.Taints {
		t := Taint{
			Key:    taint.Key,
			Value:  taint.Value,
			Effect: string(taint.Effect),
		}
		if taint.TimeAdded != nil {
			added := taint.TimeAdded.Time
			t.TimeAdded = &added
		}
		s.Taints = append(s.Taints, t)
	}
	return s
}

// FromNodes builds snapshots for a list of nodes, preserving order.
func FromNodes(nodes []corev1.Node) []NodeSnapshot {
	snapshots := make([]NodeSnapshot, 0, len(nodes))
	for i := range nodes {
		snapshots = append(snapshots, FromNode(&nodes[i]))
	}
	return snapshots
}

// FromPod builds a PodSnapshot from a pod object.
func FromPod(pod *corev1.Pod) PodSnapshot {
	s := PodSnapshot{
		Name:      pod.Name,
		Namespace: pod.Namespace,
	}
	for i := range pod.OwnerReferences {
		ref := &pod.OwnerReferences[i]
		if ref.Controller != nil && *ref.Controller {
			s.OwnerKind = ref.Kind
			return s
		}
	}
	if len(pod.OwnerReferences) > 0 {
		s.OwnerKind = pod.OwnerReferences[0].Kind
	}
	return s
}

// FromPods builds snapshots for a list of pods, preserving order.
func FromPods(pods []corev1.Pod) []PodSnapshot {
	snapshots := make([]PodSnapshot, 0, len(pods))
	for i := range pods {
		snapshots = append(snapshots, FromPod(&pods[i]))
	}
	return snapshots
}

func readyStatus(node *corev1.Node) ReadyStatus {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return ReadyStatus(cond.Status)
		}
	}
	return ReadyAbsent
}
