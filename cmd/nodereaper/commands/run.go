package commands

import (
	"github.com/spf13/cobra"

	"github.com/nodereaper/nodereaper/cmd/nodereaper/handlers"
)

// Run returns the command that executes reaper passes.
//
// Configuration comes from the environment and an optional YAML file; the
// flags below override both.
//
// Optional flags:
//
//	--config, -c: Path to a YAML configuration file
//	--kubeconfig: Path to a kubeconfig file (default: in-cluster config)
//	--dry-run: Decide and notify without mutating the cluster
//	--interval: Run a pass on this interval instead of once
//	--once: Run a single pass regardless of a configured interval
//	--metrics-addr: Bind address for /metrics and health probes
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run reaper passes over the cluster's nodes",
		Long: `Run inspects every discovered node and applies the deletion policy.

Active nodes are deleted when they are unreachable, not ready, carry an
unhealthy taint, or run nothing but DaemonSet pods - unless they are
protected or younger than the minimum age. Terminating nodes stuck behind
removable finalizers past the deletion timeout get those finalizers removed.

By default a single pass is executed and the process exits; with --interval
(or INTERVAL) the pass repeats until the process is signalled.

Examples:
  # Single pass against the current kubeconfig context, no mutations
  nodereaper run --kubeconfig ~/.kube/config --dry-run

  # Continuous in-cluster operation, one pass every 10 minutes
  nodereaper run --interval 10m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.IntervalSet = cmd.Flags().Changed("interval")
			opts.DryRunSet = cmd.Flags().Changed("dry-run")
			return handlers.Run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&opts.KubeconfigPath, "kubeconfig", "", "Path to kubeconfig file (default: in-cluster)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Decide and notify without mutating the cluster")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "Interval between passes (0 runs once)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Run a single pass even when an interval is configured")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Bind address for metrics and health probes")

	return cmd
}
