package reaper

import (
	"fmt"
	"strings"

	"github.com/nodereaper/nodereaper/internal/snapshot"
)

type action string

const (
	actionDelete  action = "delete"
	actionCleanup action = "cleanup"
)

var actionIcons = map[action]string{
	actionDelete:  ":skull_and_crossbones:",
	actionCleanup: ":broom:",
}

// formatMessage builds the outbound notification for one node outcome. The
// three shapes are mutually exclusive: error (errMsg set), dry-run intent
// (no error, dryRun true) and completed action.
func (r *Reaper) formatMessage(node snapshot.NodeSnapshot, reason, errMsg string, dryRun bool, act action) string {
	info := r.analyzer.NodeInfo(node)

	var icon, verb string
	switch {
	case errMsg != "":
		icon = ":warning:"
		verb = fmt.Sprintf("failed to %s Node", act)
	case dryRun:
		icon = ":information_source:"
		verb = fmt.Sprintf("would %s Node", act)
	default:
		icon = actionIcons[act]
		verb = fmt.Sprintf("%s Node", act)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s NodeReaper: %s `%s`\n", icon, verb, info.Name)
	fmt.Fprintf(&b, "Cluster: %s\n", info.Cluster)
	fmt.Fprintf(&b, "Age: %s\n", info.Age)
	fmt.Fprintf(&b, "Instance Type: %s\n", info.InstanceType)
	fmt.Fprintf(&b, "Zone: %s\n", info.Zone)
	fmt.Fprintf(&b, "Reason: %s", reason)
	if errMsg != "" {
		fmt.Fprintf(&b, "\nError: %s", errMsg)
	}
	return b.String()
}
