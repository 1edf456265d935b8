// Package telegram delivers operator alerts through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/metrics"
	"github.com/pscheid92/repledger/internal/platform/retry"
	"golang.org/x/time/rate"
)

// Bot API limit for messages to different chats is ~30/s; alerts stay far below it.
const (
	sendRate  = rate.Limit(5)
	sendBurst = 5
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot authenticates against the Bot API.
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)
	return bot, nil
}

// AlertNotifier sends one plain-text message per anomaly to every admin chat.
type AlertNotifier struct {
	bot     sender
	chatIDs []int64
	limiter *rate.Limiter
	breaker circuitbreaker.CircuitBreaker[any]
	policy  retry.Policy
	metrics *metrics.AlertMetrics
}

func NewAlertNotifier(bot sender, chatIDs []int64, clock clockwork.Clock, m *metrics.AlertMetrics) *AlertNotifier {
	breaker := circuitbreaker.NewBuilder[any]().
		WithFailureThreshold(3).
		WithDelay(5 * time.Minute).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "telegram",
				"from", e.OldState.String(),
				"to", e.NewState.String())
			m.SetBreakerState(stateToFloat(e.NewState))
		}).
		Build()

	return &AlertNotifier{
		bot:     bot,
		chatIDs: chatIDs,
		limiter: rate.NewLimiter(sendRate, sendBurst),
		breaker: breaker,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   time.Second,
			RateLimitBackoff: 5 * time.Second,
			RetryAfter:       retryAfter,
			Clock:            clock,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Debug("Retrying telegram send", "attempt", attempt, "backoff", backoff, "error", err)
			},
		},
		metrics: m,
	}
}

// ReportAnomaly attempts every chat and returns the joined failures.
func (n *AlertNotifier) ReportAnomaly(ctx context.Context, kind domain.AnomalyKind, details domain.AnomalyDetails) error {
	text := formatAlert(kind, details)

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := n.send(ctx, chatID, text); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func (n *AlertNotifier) send(ctx context.Context, chatID int64, text string) error {
	// Pace before taking a permit so a cancelled wait never settles a half-open breaker.
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for send slot: %w", err)
	}

	if !n.breaker.TryAcquirePermit() {
		n.metrics.Delivered("breaker_open")
		return fmt.Errorf("telegram circuit breaker open: %w", circuitbreaker.ErrOpen)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	err := retry.DoVoid(ctx, n.policy, classify, func() error {
		_, err := n.bot.Send(msg)
		return err
	})

	var permanent *retry.PermanentError
	switch {
	case err == nil:
		n.breaker.RecordSuccess()
		n.metrics.Delivered("ok")
		return nil
	case errors.As(err, &permanent):
		// The API answered; a rejected chat says nothing about its availability.
		n.breaker.RecordSuccess()
		n.metrics.Delivered("rejected")
	default:
		n.breaker.RecordError(err)
		n.metrics.Delivered("error")
	}
	return fmt.Errorf("failed to send alert: %w", err)
}

func classify(err error) retry.Action {
	apiErr, ok := asAPIError(err)
	if !ok {
		return retry.Retry
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return retry.After
	case apiErr.Code >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

func retryAfter(err error) time.Duration {
	if apiErr, ok := asAPIError(err); ok && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

func asAPIError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}

func formatAlert(kind domain.AnomalyKind, details domain.AnomalyDetails) string {
	var b strings.Builder
	switch kind {
	case domain.AnomalyShilling:
		b.WriteString("Possible shilling detected\n")
	case domain.AnomalyRevengeDownvote:
		b.WriteString("Possible revenge downvote detected\n")
	default:
		b.WriteString("Anomaly detected\n")
	}
	b.WriteString(details.Summary(kind))
	return b.String()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
