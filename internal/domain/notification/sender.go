package notification

import (
	"context"
	"errors"
)

// ErrRecipientUnreachable is returned by senders when the customer has no
// address for the channel
var ErrRecipientUnreachable = errors.New("recipient has no address for this channel")

// Recipient identifies where a message is delivered
type Recipient struct {
	Name  string
	Phone string
	Email string
}

// Delivery is the result of a successful send
type Delivery struct {
	ProviderMessageID string
}

// Sender delivers a message over one channel
type Sender interface {
	// Channel returns the channel this sender serves
	Channel() Channel

	// Send delivers the message to the recipient
	Send(ctx context.Context, to Recipient, message string) (Delivery, error)
}
