package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/offline"
)

var (
	loginReference string
	loginEmail     string
	offlineOnly    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a booking reference and email",
	Long: `Verify a booking reference and email against the server.

On success the tour pack is stored in the local cache. When the server
cannot be reached the credentials are checked against the cache instead,
so a previously verified guest can still get in.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if loginReference == "" || loginEmail == "" {
			return fmt.Errorf("both --reference and --email are required")
		}

		if offlineOnly {
			return runOfflineLogin()
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		response, err := onlineLogin(ctx)
		if err != nil {
			color.Yellow("Server unreachable (%v), trying offline login", err)
			return runOfflineLogin()
		}
		return reportOnlineLogin(response)
	},
}

func onlineLogin(ctx context.Context) (*models.LoginResponse, error) {
	body, err := json.Marshal(models.LoginRequest{
		Reference: loginReference,
		Email:     loginEmail,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		serverURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var loginResp models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("unexpected server response: %w", err)
	}
	return &loginResp, nil
}

func reportOnlineLogin(response *models.LoginResponse) error {
	switch response.Outcome {
	case models.LoginOutcomeOK:
		color.Green("Logged in as %s", response.Booking.GuestName)

		// Refresh the offline cache so the next disconnected login works
		if response.TourPack != nil {
			if err := cache.WriteTourPack(response.TourPack); err != nil {
				color.Yellow("Warning: failed to cache tour pack: %v", err)
			}
			identity := &models.CachedIdentity{
				BookingReference: response.TourPack.Booking.Reference,
				NormalizedEmail:  response.TourPack.Booking.GuestEmail,
				TourID:           response.TourPack.Tour.ID,
				DriverFlag:       response.TourPack.Booking.IsDriver,
			}
			if err := cache.WriteCachedIdentity(identity); err != nil {
				color.Yellow("Warning: failed to cache identity: %v", err)
			}
		}
		return nil

	case models.LoginOutcomeInvalid:
		return fmt.Errorf("booking reference or email is incorrect")
	case models.LoginOutcomeRateLimited:
		return fmt.Errorf("too many attempts, try again later")
	case models.LoginOutcomeMalformed:
		return fmt.Errorf("the server rejected the request as malformed")
	default:
		return fmt.Errorf("server error, try again later")
	}
}

func runOfflineLogin() error {
	resolver := offline.NewLoginResolver(cache)
	result, err := resolver.Resolve(loginReference, loginEmail)
	if err != nil {
		return fmt.Errorf("offline login failed: %w", err)
	}

	if !result.Success {
		switch result.Reason {
		case models.ReasonEmailMismatch:
			return fmt.Errorf("email does not match the cached booking")
		case models.ReasonEmailNotCached:
			return fmt.Errorf("no cached login for this booking; connect once to verify")
		default:
			return fmt.Errorf("offline login failed: %s", result.Reason)
		}
	}

	color.Green("Logged in from local cache (%s)", result.Source)
	if result.Type == models.LoginTypeDriver {
		fmt.Println("Driver tools are available.")
	}
	return nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginReference, "reference", "r", "", "booking reference")
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "email used for the booking")
	loginCmd.Flags().BoolVar(&offlineOnly, "offline", false, "skip the server and log in from the cache")
	rootCmd.AddCommand(loginCmd)
}
