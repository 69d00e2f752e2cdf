package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var packReference string

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Show the cached tour pack",
	RunE: func(_ *cobra.Command, _ []string) error {
		if packReference == "" {
			return fmt.Errorf("--reference is required")
		}

		pack, err := cache.ReadTourPack(packReference)
		if err != nil {
			return err
		}
		if pack == nil {
			return fmt.Errorf("no cached pack for this booking; log in online first")
		}

		color.New(color.Bold).Printf("%s\n", pack.Tour.Name)
		fmt.Printf("%s to %s\n",
			pack.Tour.StartDate.Format("Jan 2 2006"),
			pack.Tour.EndDate.Format("Jan 2 2006"))
		fmt.Printf("Guest: %s (%s)\n\n", pack.Booking.GuestName, pack.Booking.Reference)

		if len(pack.Itinerary) == 0 {
			fmt.Println("No itinerary published yet.")
		}
		for _, item := range pack.Itinerary {
			color.Cyan("Day %d, %s", item.Day, item.StartTime.Format("15:04"))
			fmt.Printf("  %s: %s\n", item.Location, item.Activity)
			if item.Notes != "" {
				fmt.Printf("  %s\n", item.Notes)
			}
		}

		if pack.DriverInfo != nil {
			fmt.Printf("\nDriver: %s", pack.DriverInfo.Name)
			if pack.DriverInfo.Phone != "" {
				fmt.Printf(" (%s)", pack.DriverInfo.Phone)
			}
			fmt.Println()
		}

		fmt.Printf("\nCached at: %s\n", pack.LastSyncedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	packCmd.Flags().StringVarP(&packReference, "reference", "r", "", "booking reference")
	rootCmd.AddCommand(packCmd)
}
