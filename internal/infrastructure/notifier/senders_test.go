package notifier

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sendAt = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestSenders_ProviderMessageIDs(t *testing.T) {
	opts := Options{Clock: shared.NewFixedClock(sendAt)}
	to := notification.Recipient{Name: "Amina", Phone: "+20 100 000", Email: "amina@example.com"}

	tests := []struct {
		sender notification.Sender
		prefix string
	}{
		{NewSystemSender(opts), "sys"},
		{NewWhatsAppSender(opts), "wa"},
		{NewEmailSender(opts), "email"},
		{NewSMSSender(opts), "sms"},
	}

	for _, tt := range tests {
		t.Run(tt.sender.Channel().String(), func(t *testing.T) {
			d, err := tt.sender.Send(context.Background(), to, "hello")
			require.NoError(t, err)
			pattern := "^" + tt.prefix + "_1705309200000_[0-9a-z]+$"
			assert.Regexp(t, regexp.MustCompile(pattern), d.ProviderMessageID)
		})
	}
}

func TestSenders_RequireAddress(t *testing.T) {
	opts := Options{}
	noContact := notification.Recipient{Name: "Omar"}

	for _, s := range []notification.Sender{NewWhatsAppSender(opts), NewEmailSender(opts), NewSMSSender(opts)} {
		_, err := s.Send(context.Background(), noContact, "hello")
		assert.True(t, errors.Is(err, notification.ErrRecipientUnreachable), s.Channel().String())
	}

	_, err := NewSystemSender(opts).Send(context.Background(), notification.Recipient{}, "hello")
	assert.NoError(t, err, "system channel always delivers")
}

func TestSenders_HonourContext(t *testing.T) {
	s := NewWhatsAppSender(Options{Latency: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Send(ctx, notification.Recipient{Phone: "123"}, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(Options{})
	for _, ch := range []notification.Channel{
		notification.ChannelSystem, notification.ChannelWhatsApp, notification.ChannelEmail, notification.ChannelSMS,
	} {
		s, ok := r.Sender(ch)
		require.True(t, ok)
		assert.Equal(t, ch, s.Channel())
	}

	_, ok := NewRegistry().Sender(notification.ChannelEmail)
	assert.False(t, ok)
}
