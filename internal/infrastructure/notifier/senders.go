// Package notifier holds the channel senders used to deliver customer
// notifications. The external providers are simulated: they validate the
// recipient address, log the message and return a provider message id.
package notifier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// messageID builds ids shaped like wa_1705309200000_k3j9x0a1b
func messageID(prefix string, now time.Time) string {
	suffix := strconv.FormatUint(rand.Uint64N(1<<46), 36)
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}

type mockSender struct {
	channel notification.Channel
	prefix  string
	address func(notification.Recipient) string
	latency time.Duration
	clock   shared.Clock
	logger  *zap.Logger
}

func (s *mockSender) Channel() notification.Channel {
	return s.channel
}

func (s *mockSender) Send(ctx context.Context, to notification.Recipient, message string) (notification.Delivery, error) {
	addr := s.address(to)
	if addr == "" {
		return notification.Delivery{}, fmt.Errorf("%s: %w", s.channel, notification.ErrRecipientUnreachable)
	}

	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return notification.Delivery{}, ctx.Err()
		case <-time.After(s.latency):
		}
	}

	id := messageID(s.prefix, s.clock.Now())
	s.logger.Info("notification delivered",
		zap.String("channel", s.channel.String()),
		zap.String("recipient", addr),
		zap.String("provider_message_id", id),
		zap.Int("length", len(message)),
	)
	return notification.Delivery{ProviderMessageID: id}, nil
}

// Options configures the simulated senders
type Options struct {
	Latency time.Duration
	Clock   shared.Clock
	Logger  *zap.Logger
}

func (o Options) build(channel notification.Channel, prefix string, address func(notification.Recipient) string) *mockSender {
	if o.Clock == nil {
		o.Clock = shared.SystemClock{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &mockSender{
		channel: channel,
		prefix:  prefix,
		address: address,
		latency: o.Latency,
		clock:   o.Clock,
		logger:  o.Logger.With(zap.String("provider", "mock")),
	}
}

func byPhone(r notification.Recipient) string { return r.Phone }
func byEmail(r notification.Recipient) string { return r.Email }

// NewSystemSender stores notifications in-app only; it always succeeds
func NewSystemSender(o Options) notification.Sender {
	return o.build(notification.ChannelSystem, "sys", func(r notification.Recipient) string {
		if r.Name == "" {
			return "inbox"
		}
		return r.Name
	})
}

// NewWhatsAppSender needs the customer's phone
func NewWhatsAppSender(o Options) notification.Sender {
	return o.build(notification.ChannelWhatsApp, "wa", byPhone)
}

// NewEmailSender needs the customer's email
func NewEmailSender(o Options) notification.Sender {
	return o.build(notification.ChannelEmail, "email", byEmail)
}

// NewSMSSender needs the customer's phone
func NewSMSSender(o Options) notification.Sender {
	return o.build(notification.ChannelSMS, "sms", byPhone)
}

// Registry maps channels to senders
type Registry struct {
	senders map[notification.Channel]notification.Sender
}

// NewRegistry indexes senders by their channel; later senders replace earlier ones
func NewRegistry(senders ...notification.Sender) *Registry {
	r := &Registry{senders: make(map[notification.Channel]notification.Sender, len(senders))}
	for _, s := range senders {
		r.senders[s.Channel()] = s
	}
	return r
}

// NewDefaultRegistry registers the simulated sender for every channel
func NewDefaultRegistry(o Options) *Registry {
	return NewRegistry(NewSystemSender(o), NewWhatsAppSender(o), NewEmailSender(o), NewSMSSender(o))
}

// Sender returns the sender for channel
func (r *Registry) Sender(channel notification.Channel) (notification.Sender, bool) {
	s, ok := r.senders[channel]
	return s, ok
}
