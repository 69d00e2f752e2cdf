package services

import (
	"context"
	"time"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/observability"
	"github.com/tourlink/server/internal/repository"
)

// FanoutEvent is the input to one fan-out invocation: a message or
// schedule-change event scoped to a tour
type FanoutEvent struct {
	TourID string
	Claim  models.BroadcastClaim
}

// FanoutResult summarizes one invocation. It exists for observability
// and the trigger response, never for control flow.
type FanoutResult struct {
	Dispatched   bool
	Recipients   int
	SuccessCount int
	ErrorCount   int
	Elapsed      time.Duration
}

// RateBudget is a fixed-window allowance for one event class
type RateBudget struct {
	Max    int
	Window time.Duration
}

// FanoutConfig tunes the pipeline. Chat messages get a higher-frequency
// budget than schedule broadcasts, which are rare and expensive.
type FanoutConfig struct {
	ChatBudget     RateBudget
	ScheduleBudget RateBudget
	BodyLimit      int
	BatchSize      int
}

// DefaultFanoutConfig returns the production budgets
func DefaultFanoutConfig() FanoutConfig {
	return FanoutConfig{
		ChatBudget:     RateBudget{Max: 12, Window: time.Minute},
		ScheduleBudget: RateBudget{Max: 3, Window: 10 * time.Minute},
		BodyLimit:      240,
		BatchSize:      MaxBatchSize,
	}
}

// Verifier authorizes claimed-privileged broadcast senders
type Verifier interface {
	Verify(ctx context.Context, claim *models.BroadcastClaim) bool
}

// EventPublisher pushes events to connected live clients (secondary
// channel, best effort)
type EventPublisher interface {
	PublishTour(tourID, eventType string, payload interface{})
}

// FanoutService validates an inbound event, authorizes its sender,
// builds the recipient set under user preferences and dispatches push
// messages in bounded batches
type FanoutService struct {
	roster   repository.ParticipantRepo
	devices  repository.DeviceRepo
	verifier Verifier
	limiter  *RateLimiter
	sender   PushSender
	events   EventPublisher // may be nil
	cfg      FanoutConfig
}

// NewFanoutService creates a new FanoutService. The rate limiter is
// passed in rather than owned so it can be scoped per process and per
// test.
func NewFanoutService(
	roster repository.ParticipantRepo,
	devices repository.DeviceRepo,
	verifier Verifier,
	limiter *RateLimiter,
	sender PushSender,
	events EventPublisher,
	cfg FanoutConfig,
) *FanoutService {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultFanoutConfig().BodyLimit
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = MaxBatchSize
	}
	return &FanoutService{
		roster:   roster,
		devices:  devices,
		verifier: verifier,
		limiter:  limiter,
		sender:   sender,
		events:   events,
		cfg:      cfg,
	}
}

// HandleEvent runs the full pipeline for one event. Every stage
// short-circuits to a no-op result on failure; nothing escapes to the
// trigger host, including panics.
func (s *FanoutService) HandleEvent(ctx context.Context, event FanoutEvent) (result FanoutResult) {
	start := time.Now()
	log := observability.WithContext(ctx).WithFields(map[string]interface{}{
		"tour_id":   event.TourID,
		"sender_id": event.Claim.SenderID,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("fan-out panicked: %v", r)
			result = FanoutResult{Elapsed: time.Since(start)}
		}
	}()

	// Stage 1: scope key validation
	if err := models.ValidateScopeKey(event.TourID); err != nil {
		log.Warnf("fan-out aborted: invalid scope key: %v", err)
		return FanoutResult{Elapsed: time.Since(start)}
	}

	// Stage 2: payload validation
	if err := event.Claim.Validate(); err != nil {
		log.Warnf("fan-out aborted: invalid payload: %v", err)
		return FanoutResult{Elapsed: time.Since(start)}
	}

	// Stage 3: rate limiting. Exceeding the budget is silent from the
	// sender's perspective; surfacing it would make the limiter an
	// oracle for probing.
	if !s.allowRate(event) {
		log.Warn("fan-out aborted: rate limit exceeded")
		return FanoutResult{Elapsed: time.Since(start)}
	}

	// Stage 4: sender authorization
	if !s.authorizeSender(ctx, event, log) {
		return FanoutResult{Elapsed: time.Since(start)}
	}

	// Stage 5: recipient construction
	recipients, err := s.buildRecipients(ctx, event, log)
	if err != nil {
		log.Errorf("fan-out aborted: recipient construction failed: %v", err)
		return FanoutResult{Elapsed: time.Since(start)}
	}

	// Stage 6+7: shaping and dispatch
	messages := s.shapeMessages(event, recipients)
	owners := make(map[string]string, len(recipients))
	for _, r := range recipients {
		owners[r.token] = r.userID
	}
	success, failed := s.dispatch(ctx, messages, owners, log)

	if s.events != nil {
		s.events.PublishTour(event.TourID, event.Claim.MessageType, map[string]interface{}{
			"senderId": event.Claim.SenderID,
			"text":     models.TruncateBody(event.Claim.Text, s.cfg.BodyLimit),
		})
	}

	result = FanoutResult{
		Dispatched:   true,
		Recipients:   len(messages),
		SuccessCount: success,
		ErrorCount:   failed,
		Elapsed:      time.Since(start),
	}

	// Stage 8: one structured summary per invocation
	log.WithFields(map[string]interface{}{
		"recipients":  result.Recipients,
		"success":     result.SuccessCount,
		"errors":      result.ErrorCount,
		"duration_ms": result.Elapsed.Milliseconds(),
	}).Info("fan-out completed")

	return result
}

func (s *FanoutService) allowRate(event FanoutEvent) bool {
	budget := s.cfg.ChatBudget
	if event.Claim.MessageType == models.MessageTypeSchedule {
		budget = s.cfg.ScheduleBudget
	}
	key := event.Claim.MessageType + ":" + event.TourID + ":" + event.Claim.SenderID
	return s.limiter.Allow(key, budget.Max, budget.Window)
}

// authorizeSender requires broadcast verification for claimed admins and
// roster membership for everyone else. Either check failing aborts the
// whole fan-out; partial authorization is not possible.
func (s *FanoutService) authorizeSender(ctx context.Context, event FanoutEvent, log *observability.Logger) bool {
	if event.Claim.ClaimsAdmin() {
		if !s.verifier.Verify(ctx, &event.Claim) {
			log.Warn("fan-out aborted: spoofed broadcast claim rejected")
			return false
		}
		return true
	}

	member, err := s.roster.IsParticipant(ctx, event.TourID, event.Claim.SenderID)
	if err != nil {
		log.Errorf("fan-out aborted: participant check failed: %v", err)
		return false
	}
	if !member {
		log.Warn("fan-out aborted: sender is not a participant")
		return false
	}
	return true
}

// pushRecipient pairs a device token with its owner for cleanup
type pushRecipient struct {
	userID string
	token  string
}

// buildRecipients walks the roster excluding the sender. Participants
// without a token or with the category preference off are skipped
// silently. Malformed tokens are skipped and queued for asynchronous
// removal; cleanup never blocks the batch.
func (s *FanoutService) buildRecipients(ctx context.Context, event FanoutEvent, log *observability.Logger) ([]pushRecipient, error) {
	participantIDs, err := s.roster.GetParticipantIDs(ctx, event.TourID)
	if err != nil {
		return nil, err
	}

	category := models.NotifyCategoryChat
	if event.Claim.MessageType == models.MessageTypeSchedule {
		category = models.NotifyCategorySchedule
	}

	var recipients []pushRecipient
	for _, userID := range participantIDs {
		if userID == event.Claim.SenderID {
			continue
		}

		devices, err := s.devices.GetActiveForUser(ctx, userID)
		if err != nil {
			// Transient per-user failure: skip this recipient, keep going.
			log.Warnf("device lookup failed for %s: %v", userID, err)
			continue
		}

		for _, device := range devices {
			if device.PushToken == "" {
				continue
			}
			if !device.NotificationsEnabled(category) {
				continue
			}
			if !models.ValidPushToken(device.PushToken) {
				s.queueTokenRemoval(userID, device.PushToken, log)
				continue
			}
			recipients = append(recipients, pushRecipient{userID: userID, token: device.PushToken})
		}
	}
	return recipients, nil
}

// queueTokenRemoval is fire and forget: a slow or failing cleanup must
// never delay or fail the notification batch
func (s *FanoutService) queueTokenRemoval(userID, token string, log *observability.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.devices.RemoveToken(ctx, userID, token); err != nil {
			log.Warnf("token cleanup failed for %s: %v", userID, err)
		}
	}()
}

func (s *FanoutService) shapeMessages(event FanoutEvent, recipients []pushRecipient) []PushMessage {
	isAdmin := event.Claim.ClaimsAdmin()

	body := event.Claim.Text
	title := "New tour message"
	priority := "normal"
	category := models.NotifyCategoryChat

	if isAdmin {
		body = models.StripBroadcastPrefix(body)
		title = "TourLink update"
		priority = "high"
	}
	if event.Claim.MessageType == models.MessageTypeSchedule {
		title = "Schedule change"
		priority = "high"
		category = models.NotifyCategorySchedule
	}
	body = models.TruncateBody(body, s.cfg.BodyLimit)

	messages := make([]PushMessage, 0, len(recipients))
	for _, r := range recipients {
		messages = append(messages, PushMessage{
			Token:    r.token,
			Title:    title,
			Body:     body,
			Priority: priority,
			Category: category,
			Data: map[string]string{
				"type":     event.Claim.MessageType,
				"tourId":   event.TourID,
				"senderId": event.Claim.SenderID,
			},
		})
	}
	return messages
}

// dispatch sends batches sequentially to bound load on the push gateway
// and keep accounting simple. A batch-level transport failure counts
// every message in the batch as failed; there is no retry in this pass.
func (s *FanoutService) dispatch(ctx context.Context, messages []PushMessage, owners map[string]string, log *observability.Logger) (success, failed int) {
	for _, batch := range ChunkMessages(messages, s.cfg.BatchSize) {
		tickets, err := s.sender.SendBatch(ctx, batch)
		if err != nil {
			log.Errorf("batch send failed for %d messages: %v", len(batch), err)
			failed += len(batch)
			continue
		}

		for _, ticket := range tickets {
			if ticket.OK {
				success++
				continue
			}
			failed++
			log.Warnf("push rejected (%s): %s", ticket.Code, ticket.Detail)
			if ticket.Invalid() {
				// Provider says the token is dead; clean it up off-path.
				s.queueTokenRemoval(owners[ticket.Token], ticket.Token, log)
			}
		}
	}
	return success, failed
}
