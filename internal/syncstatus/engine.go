// Package syncstatus derives a single deterministic sync status from the
// independent signals a client observes: network reachability, backend
// health and the local write queue.
package syncstatus

// State identifies one of the four overall sync states
type State string

const (
	StateOfflineNoNetwork      State = "OFFLINE_NO_NETWORK"
	StateOnlineBackendDegraded State = "ONLINE_BACKEND_DEGRADED"
	StateOnlineBacklogPending  State = "ONLINE_BACKLOG_PENDING"
	StateOnlineHealthy         State = "ONLINE_HEALTHY"
)

// Severity classifies a status for presentation
type Severity string

const (
	SeveritySuccess  Severity = "success"
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// NetworkState is the device-level connectivity signal
type NetworkState struct {
	IsOnline bool
}

// BackendState is the backend health probe result
type BackendState struct {
	IsReachable bool
	IsDegraded  bool
}

// QueueState holds aggregate counts from the local write queue. The
// queue itself is opaque; only the counts matter here.
type QueueState struct {
	Pending int
	Syncing int
	Failed  int
}

// Snapshot is the transient input to Evaluate, constructed fresh on
// every status query and never persisted
type Snapshot struct {
	Network NetworkState
	Backend BackendState
	Queue   QueueState
}

// Descriptor is the canonical presentation record for a state
type Descriptor struct {
	State        State
	Label        string
	Description  string
	Severity     Severity
	Icon         string
	ShowLastSync bool
}

// descriptors is the fixed table, one entry per state, defined once.
// Every entry shows the last-sync timestamp.
var descriptors = map[State]Descriptor{
	StateOfflineNoNetwork: {
		State:        StateOfflineNoNetwork,
		Label:        "Offline",
		Description:  "No network connection. Changes will sync when you're back online.",
		Severity:     SeverityCritical,
		Icon:         "cloud-off",
		ShowLastSync: true,
	},
	StateOnlineBackendDegraded: {
		State:        StateOnlineBackendDegraded,
		Label:        "Connection issues",
		Description:  "The server can't be reached right now. Retrying automatically.",
		Severity:     SeverityWarning,
		Icon:         "cloud-alert",
		ShowLastSync: true,
	},
	StateOnlineBacklogPending: {
		State:        StateOnlineBacklogPending,
		Label:        "Syncing",
		Description:  "Local changes are being uploaded.",
		Severity:     SeverityInfo,
		Icon:         "cloud-sync",
		ShowLastSync: true,
	},
	StateOnlineHealthy: {
		State:        StateOnlineHealthy,
		Label:        "Up to date",
		Description:  "All changes are synced.",
		Severity:     SeveritySuccess,
		Icon:         "cloud-done",
		ShowLastSync: true,
	},
}

// Evaluate merges a snapshot into exactly one state. First matching rule
// wins: no network beats everything; a degraded or unreachable backend
// beats a pending backlog, because the backlog cannot drain while the
// backend is down. The failed count never changes the state on its own;
// it is surfaced separately to avoid flapping on transient retries.
func Evaluate(s Snapshot) State {
	if !s.Network.IsOnline {
		return StateOfflineNoNetwork
	}
	if !s.Backend.IsReachable || s.Backend.IsDegraded {
		return StateOnlineBackendDegraded
	}
	if s.Queue.Pending > 0 || s.Queue.Syncing > 0 {
		return StateOnlineBacklogPending
	}
	return StateOnlineHealthy
}

// Describe returns the canonical descriptor for the snapshot's state
func Describe(s Snapshot) Descriptor {
	return descriptors[Evaluate(s)]
}

// DescriptorFor returns the descriptor for a state
func DescriptorFor(state State) (Descriptor, bool) {
	d, ok := descriptors[state]
	return d, ok
}

// All returns every defined descriptor
func All() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	return out
}
