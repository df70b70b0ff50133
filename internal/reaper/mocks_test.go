package reaper

import (
	"context"

	"github.com/nodereaper/nodereaper/internal/snapshot"
)

// mockClusterClient is a configurable ClusterClient for testing.
type mockClusterClient struct {
	// Configurable responses
	ListNodesFunc           func(ctx context.Context, labelSelector string) ([]snapshot.NodeSnapshot, error)
	ListPodsOnNodeFunc      func(ctx context.Context, nodeName string) ([]snapshot.PodSnapshot, error)
	DeleteNodeFunc          func(ctx context.Context, nodeName string) error
	PatchNodeFinalizersFunc func(ctx context.Context, nodeName string, finalizersToKeep []string) error

	// Call tracking
	ListNodesCalls      []string
	ListPodsOnNodeCalls []string
	DeleteNodeCalls     []string
	PatchCalls          []patchCall
}

type patchCall struct {
	Node string
	Keep []string
}

func (m *mockClusterClient) ListNodes(ctx context.Context, labelSelector string) ([]snapshot.NodeSnapshot, error) {
	m.ListNodesCalls = append(m.ListNodesCalls, labelSelector)
	if m.ListNodesFunc != nil {
		return m.ListNodesFunc(ctx, labelSelector)
	}
	return nil, nil
}

func (m *mockClusterClient) ListPodsOnNode(ctx context.Context, nodeName string) ([]snapshot.PodSnapshot, error) {
	m.ListPodsOnNodeCalls = append(m.ListPodsOnNodeCalls, nodeName)
	if m.ListPodsOnNodeFunc != nil {
		return m.ListPodsOnNodeFunc(ctx, nodeName)
	}
	return nil, nil
}

func (m *mockClusterClient) DeleteNode(ctx context.Context, nodeName string) error {
	m.DeleteNodeCalls = append(m.DeleteNodeCalls, nodeName)
	if m.DeleteNodeFunc != nil {
		return m.DeleteNodeFunc(ctx, nodeName)
	}
	return nil
}

func (m *mockClusterClient) PatchNodeFinalizers(ctx context.Context, nodeName string, finalizersToKeep []string) error {
	m.PatchCalls = append(m.PatchCalls, patchCall{Node: nodeName, Keep: finalizersToKeep})
	if m.PatchNodeFinalizersFunc != nil {
		return m.PatchNodeFinalizersFunc(ctx, nodeName, finalizersToKeep)
	}
	return nil
}

// recordingSink captures every message sent during a run.
type recordingSink struct {
	Messages []string
}

func (s *recordingSink) Send(_ context.Context, message string) error {
	s.Messages = append(s.Messages, message)
	return nil
}
