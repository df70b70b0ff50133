// Package k8s wraps the Kubernetes API operations the reaper needs: listing
// nodes and pods, deleting nodes and patching node finalizers. Failures are
// classified into tagged APIErrors at this boundary.
package k8s

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/nodereaper/nodereaper/internal/snapshot"
)

// Client wraps Kubernetes API operations for node reaping.
type Client struct {
	clientset kubernetes.Interface
	log       logr.Logger
}

// NewClient creates a client from in-cluster config, falling back to the
// given kubeconfig path (or the default loading rules when path is empty).
func NewClient(kubeconfigPath string, log logr.Logger) (*Client, error) {
	config, err := loadRESTConfig(kubeconfigPath, log)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}
	return NewClientFromClientset(clientset, log), nil
}

// NewClientFromClientset wraps an existing clientset. Used by tests with the
// fake clientset.
func NewClientFromClientset(clientset kubernetes.Interface, log logr.Logger) *Client {
	return &Client{clientset: clientset, log: log}
}

func loadRESTConfig(kubeconfigPath string, log logr.Logger) (*rest.Config, error) {
	if config, err := rest.InClusterConfig(); err == nil {
		log.Info("loaded in-cluster kubernetes config")
		return config, nil
	}
	if kubeconfigPath != "" {
		config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubeconfig from %s: %w", kubeconfigPath, err)
		}
		log.Info("loaded kubernetes config", "path", kubeconfigPath)
		return config, nil
	}
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, nil).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
	}
	log.Info("loaded local kubernetes config")
	return config, nil
}

// Ping verifies connectivity to the API server.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return wrapAPIError("ping", err)
	}
	return nil
}

// ListNodes lists cluster nodes, optionally filtered by a label selector.
func (c *Client) ListNodes(ctx context.Context, labelSelector string) ([]snapshot.NodeSnapshot, error) {
	nodes, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, wrapAPIError("list nodes", err)
	}
	if labelSelector != "" {
		c.log.Info("listed nodes", "count", len(nodes.Items), "selector", labelSelector)
	} else {
		c.log.Info("listed nodes", "count", len(nodes.Items))
	}
	return snapshot.FromNodes(nodes.Items), nil
}

// ListPodsOnNode lists all pods scheduled on the named node across all
// namespaces.
func (c *Client) ListPodsOnNode(ctx context.Context, nodeName string) ([]snapshot.PodSnapshot, error) {
	pods, err := c.clientset.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		FieldSelector: "spec.nodeName=" + nodeName,
	})
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("list pods on node %s", nodeName), err)
	}
	return snapshot.FromPods(pods.Items), nil
}

// DeleteNode force deletes a node with a zero grace period. A node that is
// already gone is success.
func (c *Client) DeleteNode(ctx context.Context, nodeName string) error {
	gracePeriod := int64(0)
	err := c.clientset.CoreV1().Nodes().Delete(ctx, nodeName, metav1.DeleteOptions{
		GracePeriodSeconds: &gracePeriod,
	})
	if err != nil {
		wrapped := wrapAPIError(fmt.Sprintf("delete node %s", nodeName), err)
		if IsNotFound(wrapped) {
			c.log.Info("node already deleted", "node", nodeName)
			return nil
		}
		return wrapped
	}
	c.log.Info("deleted node", "node", nodeName)
	return nil
}

// PatchNodeFinalizers replaces the node's finalizer list with the given set
// to keep. A node that is already gone is success.
func (c *Client) PatchNodeFinalizers(ctx context.Context, nodeName string, finalizersToKeep []string) error {
	if finalizersToKeep == nil {
		finalizersToKeep = []string{}
	}
	patch, err := json.Marshal(map[string]any{
		"metadata": map[string]any{"finalizers": finalizersToKeep},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal finalizer patch: %w", err)
	}
	_, err = c.clientset.CoreV1().Nodes().Patch(ctx, nodeName, types.MergePatchType, patch, metav1.PatchOptions{})
	if err != nil {
		wrapped := wrapAPIError(fmt.Sprintf("patch finalizers on node %s", nodeName), err)
		if IsNotFound(wrapped) {
			c.log.Info("node already deleted", "node", nodeName)
			return nil
		}
		return wrapped
	}
	c.log.Info("patched node finalizers", "node", nodeName, "kept", finalizersToKeep)
	return nil
}
