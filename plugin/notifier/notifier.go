// Package notifier delivers completion and streak notifications. Delivery is
// fire-and-forget: events are queued to a background worker and dropped when
// the queue is full, so the scoring path never blocks on a slow channel.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quizdeck/quizdeck/server/service/scoring"
)

// Event is one completion worth announcing.
type Event struct {
	UserID  int32
	DateKey string
	Result  *scoring.QuizResult
}

// ChannelSender delivers one notification message to a user.
type ChannelSender interface {
	Send(ctx context.Context, userID int32, message string, metadata map[string]any) error
	Name() string
}

// streakMilestones are the streak lengths that earn a dedicated message.
var streakMilestones = map[int32]bool{7: true, 30: true, 100: true, 365: true}

// Dispatcher fans completion events out to registered channel senders from a
// single background worker.
type Dispatcher struct {
	mu       sync.RWMutex
	channels []ChannelSender

	queue chan Event
	done  chan struct{}
	once  sync.Once
}

// NewDispatcher creates a dispatcher with a bounded event queue.
func NewDispatcher(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	go d.worker()
	return d
}

// Register adds a channel sender.
func (d *Dispatcher) Register(sender ChannelSender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels = append(d.channels, sender)
	slog.Info("registered notification channel", "sender", sender.Name())
}

// QuizCompleted queues a completion event. A full queue drops the event
// rather than blocking the caller.
func (d *Dispatcher) QuizCompleted(userID int32, dateKey string, result *scoring.QuizResult) {
	select {
	case d.queue <- Event{UserID: userID, DateKey: dateKey, Result: result}:
	default:
		slog.Warn("notification queue full, dropping event", "user_id", userID, "date_key", dateKey)
	}
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	messages := Messages(event)
	d.mu.RLock()
	channels := make([]ChannelSender, len(d.channels))
	copy(channels, d.channels)
	d.mu.RUnlock()

	ctx := context.Background()
	for _, message := range messages {
		for _, sender := range channels {
			if err := sender.Send(ctx, event.UserID, message, map[string]any{"date_key": event.DateKey}); err != nil {
				slog.Warn("failed to send notification",
					"sender", sender.Name(), "user_id", event.UserID, "error", err)
			}
		}
	}
}

// Messages renders the notification texts for one event: always a completion
// message, plus a milestone message when the streak hits one.
func Messages(event Event) []string {
	result := event.Result
	messages := []string{
		fmt.Sprintf("Quiz complete: %d/%d correct (%d%%).",
			result.CorrectAnswers, result.TotalQuestions, result.Score),
	}
	if result.StreakUpdated && streakMilestones[result.CurrentStreak] {
		messages = append(messages,
			fmt.Sprintf("Streak milestone: %d days in a row!", result.CurrentStreak))
	}
	return messages
}

// LogSender writes notifications to the structured log. It is the default
// channel for deployments without an external push integration.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(_ context.Context, userID int32, message string, metadata map[string]any) error {
	slog.Info("notification", "user_id", userID, "message", message, "metadata", metadata)
	return nil
}
