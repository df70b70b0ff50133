package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.DryRun)
	assert.Equal(t, 30*time.Minute, cfg.NodeMinAge)
	assert.Equal(t, 15*time.Minute, cfg.DeletionTimeout)
	assert.True(t, cfg.EnableFinalizerCleanup)
	assert.True(t, cfg.EnableJSONLogs)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "unknown", cfg.ClusterName)
	assert.Equal(t, ":8080", cfg.MetricsAddr)
	assert.Zero(t, cfg.Interval)
	assert.Empty(t, cfg.UnhealthyTaints)
	assert.Empty(t, cfg.ProtectionAnnotations)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DRY_RUN", "true")
	t.Setenv("NODE_MIN_AGE", "1h")
	t.Setenv("DELETION_TIMEOUT", "20m")
	t.Setenv("UNHEALTHY_TAINTS", "node.kubernetes.io/unreachable, node.kubernetes.io/not-ready")
	t.Setenv("PROTECTION_ANNOTATIONS", "karpenter.sh/do-not-evict=true,nodereaper.io/do-not-delete=true")
	t.Setenv("PROTECTION_LABELS", "nodereaper.io/protected=true")
	t.Setenv("ENABLE_FINALIZER_CLEANUP", "false")
	t.Setenv("REMOVABLE_FINALIZERS", "karpenter.sh/termination")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/services/xxx")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_JSON_LOGS", "false")
	t.Setenv("NODE_LABEL_SELECTOR", " cleanup=enabled ")
	t.Setenv("CLUSTER_NAME", "prod-eu")
	t.Setenv("INTERVAL", "10m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.DryRun)
	assert.Equal(t, time.Hour, cfg.NodeMinAge)
	assert.Equal(t, 20*time.Minute, cfg.DeletionTimeout)
	assert.Equal(t, []string{"node.kubernetes.io/unreachable", "node.kubernetes.io/not-ready"}, cfg.UnhealthyTaints)
	assert.Equal(t, map[string]string{
		"karpenter.sh/do-not-evict":   "true",
		"nodereaper.io/do-not-delete": "true",
	}, cfg.ProtectionAnnotations)
	assert.Equal(t, map[string]string{"nodereaper.io/protected": "true"}, cfg.ProtectionLabels)
	assert.False(t, cfg.EnableFinalizerCleanup)
	assert.Equal(t, []string{"karpenter.sh/termination"}, cfg.RemovableFinalizers)
	assert.Equal(t, "https://hooks.slack.test/services/xxx", cfg.SlackWebhookURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.EnableJSONLogs)
	assert.Equal(t, "cleanup=enabled", cfg.NodeLabelSelector)
	assert.Equal(t, "prod-eu", cfg.ClusterName)
	assert.Equal(t, 10*time.Minute, cfg.Interval)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodereaper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dry_run: true
node_min_age: 2h
deletion_timeout: 3d
unhealthy_taints:
  - node.kubernetes.io/unreachable
protection_labels:
  nodereaper.io/protected: "true"
removable_finalizers:
  - karpenter.sh/termination
cluster_name: staging
interval: 5m
metrics_addr: ":9090"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.DryRun)
	assert.Equal(t, 2*time.Hour, cfg.NodeMinAge)
	assert.Equal(t, 72*time.Hour, cfg.DeletionTimeout)
	assert.Equal(t, []string{"node.kubernetes.io/unreachable"}, cfg.UnhealthyTaints)
	assert.Equal(t, "staging", cfg.ClusterName)
	assert.Equal(t, 5*time.Minute, cfg.Interval)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	// Untouched fields keep their defaults.
	assert.True(t, cfg.EnableFinalizerCleanup)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodereaper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cluster_name: from-file\nnode_min_age: 1h\n"), 0o600))

	t.Setenv("CLUSTER_NAME", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ClusterName)
	assert.Equal(t, time.Hour, cfg.NodeMinAge)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadInvalidEnvDuration(t *testing.T) {
	t.Setenv("NODE_MIN_AGE", "not-a-duration")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NODE_MIN_AGE")
}

func TestValidateSelector(t *testing.T) {
	t.Setenv("NODE_LABEL_SELECTOR", "!!bad!!selector")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node_label_selector")
}

func TestParseDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30s", 30 * time.Second, false},
		{"10m", 10 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"1h30m", 90 * time.Minute, false},
		{"3d", 72 * time.Hour, false},
		{" 45M ", 45 * time.Minute, false},
		{"", 0, true},
		{"5x", 0, true},
		{"d", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseList(t *testing.T) {
	t.Parallel()
	assert.Nil(t, ParseList(""))
	assert.Nil(t, ParseList(" , ,"))
	assert.Equal(t, []string{"a", "b"}, ParseList("a, b"))
	assert.Equal(t, []string{"karpenter.sh/termination"}, ParseList("karpenter.sh/termination,"))
}

func TestParsePairs(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ParsePairs(""))
	assert.Empty(t, ParsePairs("no-equals-sign"))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, ParsePairs(" a=1 , b=2 "))
	assert.Equal(t, map[string]string{"k": "v=x"}, ParsePairs("k=v=x"))
}
