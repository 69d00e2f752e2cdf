package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/tourlink/server/internal/observability"
)

// PushMessage is one addressed notification ready for dispatch
type PushMessage struct {
	Token    string
	Title    string
	Body     string
	Priority string // "normal" or "high"
	Category string
	Data     map[string]string
}

// DeliveryTicket is the per-message outcome from the push provider
type DeliveryTicket struct {
	Token  string
	OK     bool
	Code   string // provider error code, e.g. "UNREGISTERED"
	Detail string
}

// Invalid reports whether the ticket marks the token as dead at the
// provider, meaning it should be removed from the registry
func (t DeliveryTicket) Invalid() bool {
	return t.Code == "UNREGISTERED" || t.Code == "INVALID_ARGUMENT"
}

// PushSender dispatches one provider-bounded batch of messages and
// returns a ticket per message. A returned error means the whole batch
// failed at the transport level before any per-message outcome existed.
type PushSender interface {
	SendBatch(ctx context.Context, batch []PushMessage) ([]DeliveryTicket, error)
}

// MaxBatchSize is the provider's per-request message limit
const MaxBatchSize = 500

// ChunkMessages partitions messages into provider-safe batches.
// Pure function; messages keep their order.
func ChunkMessages(messages []PushMessage, size int) [][]PushMessage {
	if size <= 0 {
		size = MaxBatchSize
	}
	var chunks [][]PushMessage
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}

// PushService sends notifications through the FCM HTTP v1 API
type PushService struct {
	projectID   string
	credentials []byte
	httpClient  *http.Client
	token       string
	tokenExpiry time.Time
	tokenMu     sync.Mutex
}

// NewPushService creates a PushService with the given credentials file
func NewPushService(credentialsPath string) (*PushService, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("push credentials path is required")
	}

	credData, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(credData, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	svc := &PushService{
		projectID:   creds.ProjectID,
		credentials: credData,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}

	if _, err := svc.getAccessToken(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to get initial access token: %w", err)
	}
	observability.Infof("Push service initialized for project %s", creds.ProjectID)

	return svc, nil
}

// getAccessToken returns a valid OAuth2 access token, refreshing if needed
func (s *PushService) getAccessToken(ctx context.Context) (string, error) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	// Reuse the cached token with a 5 minute expiry buffer
	if s.token != "" && time.Now().Add(5*time.Minute).Before(s.tokenExpiry) {
		return s.token, nil
	}

	scopes := []string{"https://www.googleapis.com/auth/firebase.messaging"}

	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		creds, err = google.CredentialsFromJSON(ctx, s.credentials, scopes...)
		if err != nil {
			return "", fmt.Errorf("failed to create credentials: %w", err)
		}
	}

	token, err := creds.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	s.token = token.AccessToken
	s.tokenExpiry = token.Expiry
	return s.token, nil
}

// FCM API message structures
type fcmMessage struct {
	Message fcmMessageBody `json:"message"`
}

type fcmMessageBody struct {
	Token        string            `json:"token"`
	Data         map[string]string `json:"data,omitempty"`
	Notification *fcmNotification  `json:"notification,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
	APNS         *fcmAPNS          `json:"apns,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority     string                  `json:"priority,omitempty"`
	Notification *fcmAndroidNotification `json:"notification,omitempty"`
}

type fcmAndroidNotification struct {
	ChannelID string `json:"channel_id,omitempty"`
}

type fcmAPNS struct {
	Headers map[string]string `json:"headers,omitempty"`
	Payload *fcmAPNSPayload   `json:"payload,omitempty"`
}

type fcmAPNSPayload struct {
	Aps *fcmAps `json:"aps,omitempty"`
}

type fcmAps struct {
	Alert *fcmApsAlert `json:"alert,omitempty"`
	Sound string       `json:"sound,omitempty"`
}

type fcmApsAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// SendBatch dispatches one batch. Failure to obtain an access token is
// a transport-level failure of the whole batch; individual provider
// rejections come back on the tickets.
func (s *PushService) SendBatch(ctx context.Context, batch []PushMessage) ([]DeliveryTicket, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	token, err := s.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	tickets := make([]DeliveryTicket, 0, len(batch))
	for _, msg := range batch {
		tickets = append(tickets, s.sendOne(ctx, token, msg))
	}
	return tickets, nil
}

func (s *PushService) sendOne(ctx context.Context, accessToken string, msg PushMessage) DeliveryTicket {
	ticket := DeliveryTicket{Token: msg.Token}

	apnsPriority := "5"
	if msg.Priority == "high" {
		apnsPriority = "10"
	}

	payload := fcmMessage{
		Message: fcmMessageBody{
			Token: msg.Token,
			Data:  msg.Data,
			Notification: &fcmNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Android: &fcmAndroid{
				Priority: msg.Priority,
				Notification: &fcmAndroidNotification{
					ChannelID: msg.Category,
				},
			},
			APNS: &fcmAPNS{
				Headers: map[string]string{
					"apns-priority":  apnsPriority,
					"apns-push-type": "alert",
				},
				Payload: &fcmAPNSPayload{
					Aps: &fcmAps{
						Alert: &fcmApsAlert{Title: msg.Title, Body: msg.Body},
						Sound: "default",
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		ticket.Code = "ENCODE_FAILED"
		ticket.Detail = err.Error()
		return ticket
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		ticket.Code = "REQUEST_FAILED"
		ticket.Detail = err.Error()
		return ticket
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		ticket.Code = "TRANSPORT_ERROR"
		ticket.Detail = err.Error()
		return ticket
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		ticket.OK = true
		return ticket
	}

	var fcmErr fcmErrorResponse
	if err := json.Unmarshal(respBody, &fcmErr); err == nil && fcmErr.Error.Status != "" {
		ticket.Code = fcmErr.Error.Status
		ticket.Detail = fcmErr.Error.Message
	} else {
		ticket.Code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		ticket.Detail = strings.TrimSpace(string(respBody))
	}
	if resp.StatusCode == http.StatusNotFound {
		// FCM v1 reports dead registrations as 404 UNREGISTERED
		ticket.Code = "UNREGISTERED"
	}
	return ticket
}
