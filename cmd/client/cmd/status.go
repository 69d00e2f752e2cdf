package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/syncstatus"
)

var (
	statusReference string
	statusPending   int
	statusSyncing   int
	statusFailed    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync status",
	Long: `Probe the server and report a single sync status.

Queue counts come from the hosting app's local write queue; pass them
with flags when embedding this client in scripts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		snapshot := syncstatus.Snapshot{
			Network: probeNetwork(),
			Queue: syncstatus.QueueState{
				Pending: statusPending,
				Syncing: statusSyncing,
				Failed:  statusFailed,
			},
		}
		if snapshot.Network.IsOnline {
			snapshot.Backend = probeBackend(ctx)
		}

		descriptor := syncstatus.Describe(snapshot)
		printDescriptor(descriptor)

		// Failed writes never change the state, but the user still
		// needs to see them.
		if statusFailed > 0 {
			color.Red("%d change(s) failed to sync and need attention", statusFailed)
		}

		if descriptor.ShowLastSync && statusReference != "" {
			meta, err := cache.ReadMeta(statusReference)
			if err != nil {
				return err
			}
			if meta != nil {
				fmt.Printf("Last synced: %s\n", meta.LastSyncedAt.Local().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("Last synced: never")
			}
		}
		return nil
	},
}

func probeNetwork() syncstatus.NetworkState {
	conn, err := net.DialTimeout("tcp", "1.1.1.1:443", 3*time.Second)
	if err != nil {
		return syncstatus.NetworkState{IsOnline: false}
	}
	conn.Close()
	return syncstatus.NetworkState{IsOnline: true}
}

func probeBackend(ctx context.Context) syncstatus.BackendState {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/api/health", nil)
	if err != nil {
		return syncstatus.BackendState{}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return syncstatus.BackendState{IsReachable: false}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return syncstatus.BackendState{IsReachable: true, IsDegraded: true}
	}

	var health models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return syncstatus.BackendState{IsReachable: true, IsDegraded: true}
	}
	return syncstatus.BackendState{
		IsReachable: true,
		IsDegraded:  health.Status != "healthy",
	}
}

func printDescriptor(d syncstatus.Descriptor) {
	paint := color.New(color.FgGreen)
	switch d.Severity {
	case syncstatus.SeverityInfo:
		paint = color.New(color.FgCyan)
	case syncstatus.SeverityWarning:
		paint = color.New(color.FgYellow)
	case syncstatus.SeverityCritical:
		paint = color.New(color.FgRed)
	}

	paint.Printf("%s\n", d.Label)
	fmt.Println(d.Description)
}

func init() {
	statusCmd.Flags().StringVarP(&statusReference, "reference", "r", "", "booking reference to show last sync for")
	statusCmd.Flags().IntVar(&statusPending, "pending", 0, "pending writes in the local queue")
	statusCmd.Flags().IntVar(&statusSyncing, "syncing", 0, "writes currently uploading")
	statusCmd.Flags().IntVar(&statusFailed, "failed", 0, "writes that failed to sync")
	rootCmd.AddCommand(statusCmd)
}
