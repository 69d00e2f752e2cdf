package syncstatus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func online() Snapshot {
	return Snapshot{
		Network: NetworkState{IsOnline: true},
		Backend: BackendState{IsReachable: true},
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("healthy when nothing is wrong", func(t *testing.T) {
		assert.Equal(t, StateOnlineHealthy, Evaluate(online()))
	})

	t.Run("no network wins regardless of other signals", func(t *testing.T) {
		s := Snapshot{
			Network: NetworkState{IsOnline: false},
			Backend: BackendState{IsReachable: false, IsDegraded: true},
			Queue:   QueueState{Pending: 5, Syncing: 2, Failed: 3},
		}
		assert.Equal(t, StateOfflineNoNetwork, Evaluate(s))
	})

	t.Run("unreachable backend yields degraded", func(t *testing.T) {
		s := online()
		s.Backend.IsReachable = false
		assert.Equal(t, StateOnlineBackendDegraded, Evaluate(s))
	})

	t.Run("degraded backend yields degraded", func(t *testing.T) {
		s := online()
		s.Backend.IsDegraded = true
		assert.Equal(t, StateOnlineBackendDegraded, Evaluate(s))
	})

	t.Run("degraded beats pending backlog when both hold", func(t *testing.T) {
		s := online()
		s.Backend.IsDegraded = true
		s.Queue.Pending = 7
		assert.Equal(t, StateOnlineBackendDegraded, Evaluate(s))
	})

	t.Run("pending writes yield backlog", func(t *testing.T) {
		s := online()
		s.Queue.Pending = 1
		assert.Equal(t, StateOnlineBacklogPending, Evaluate(s))
	})

	t.Run("syncing writes yield backlog", func(t *testing.T) {
		s := online()
		s.Queue.Syncing = 1
		assert.Equal(t, StateOnlineBacklogPending, Evaluate(s))
	})

	t.Run("failed count alone does not change the state", func(t *testing.T) {
		s := online()
		s.Queue.Failed = 9
		assert.Equal(t, StateOnlineHealthy, Evaluate(s))
	})
}

func TestEvaluate_ExactlyOneState(t *testing.T) {
	defined := map[State]bool{
		StateOfflineNoNetwork:      true,
		StateOnlineBackendDegraded: true,
		StateOnlineBacklogPending:  true,
		StateOnlineHealthy:         true,
	}

	for _, netOnline := range []bool{true, false} {
		for _, reachable := range []bool{true, false} {
			for _, degraded := range []bool{true, false} {
				for _, pending := range []int{0, 3} {
					for _, syncing := range []int{0, 2} {
						for _, failed := range []int{0, 4} {
							s := Snapshot{
								Network: NetworkState{IsOnline: netOnline},
								Backend: BackendState{IsReachable: reachable, IsDegraded: degraded},
								Queue:   QueueState{Pending: pending, Syncing: syncing, Failed: failed},
							}
							assert.True(t, defined[Evaluate(s)])
						}
					}
				}
			}
		}
	}
}

func TestDescriptors(t *testing.T) {
	t.Run("every descriptor shows last sync", func(t *testing.T) {
		all := All()
		assert.Len(t, all, 4)
		for _, d := range all {
			assert.True(t, d.ShowLastSync, "descriptor %s must show last sync", d.State)
		}
	})

	t.Run("describe returns the matching descriptor", func(t *testing.T) {
		s := online()
		s.Queue.Pending = 1
		d := Describe(s)
		assert.Equal(t, StateOnlineBacklogPending, d.State)
		assert.Equal(t, SeverityInfo, d.Severity)
	})

	t.Run("unknown state has no descriptor", func(t *testing.T) {
		_, ok := DescriptorFor(State("BOGUS"))
		assert.False(t, ok)
	})
}
