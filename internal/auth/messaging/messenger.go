package messaging

import (
	"context"
	"fmt"

	"github.com/expotoworld/expotoworld-sub002/pkg/constant"
)

// ChannelSender is one concrete delivery transport (SMTP, SMS gateway).
type ChannelSender interface {
	Send(ctx context.Context, to, body string) error
}

// Mux routes a dispatch to the transport for the requested channel. It
// implements domain.Messenger.
type Mux struct {
	email ChannelSender
	sms   ChannelSender
}

func NewMux(email, sms ChannelSender) *Mux {
	return &Mux{email: email, sms: sms}
}

func (m *Mux) Send(ctx context.Context, channelType, destination, body string) error {
	switch channelType {
	case constant.ChannelEmail:
		return m.email.Send(ctx, destination, body)
	case constant.ChannelPhone:
		return m.sms.Send(ctx, destination, body)
	default:
		return fmt.Errorf("unsupported channel type: %s", channelType)
	}
}
