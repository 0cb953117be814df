package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Shine-Infosolutions/eventbackend/internal/domain"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/model"
	"github.com/Shine-Infosolutions/eventbackend/internal/queue"
)

// Delivery channels.
const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

// TokenIssuer mints the QR token printed on a pass.  Issuing revokes the
// booking's previous token.
type TokenIssuer interface {
	Issue(ctx context.Context, bookingID string) (string, error)
}

// Dispatcher hands a pass to the delivery side.
type Dispatcher interface {
	PublishDispatch(ctx context.Context, ev queue.PassDispatchEvent) error
}

// Notifier resends passes to buyers.
type Notifier struct {
	ledger     *Ledger
	tokens     TokenIssuer
	dispatcher Dispatcher
	eventName  string
	baseURL    string
	log        *logger.Logger
}

func NewNotifier(ledger *Ledger, tokens TokenIssuer, dispatcher Dispatcher, eventName, publicBaseURL string, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{
		ledger:     ledger,
		tokens:     tokens,
		dispatcher: dispatcher,
		eventName:  eventName,
		baseURL:    strings.TrimRight(publicBaseURL, "/"),
		log:        log,
	}
}

// ResendInput picks the channel.  Email is required for the email channel;
// sms and whatsapp go to the buyer phone.
type ResendInput struct {
	Channel string `json:"channel" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// PassDetails is everything printed on a pass.
type PassDetails struct {
	BookingID   string
	DisplayID   string
	BuyerName   string
	BuyerPhone  string
	PassType    string
	Holders     []model.PassHolder
	TotalPeople int
	Price       int64
	TotalAmount int64
	Payment     string
	Token       string
	EventName   string
	PassURL     string
}

// DeliveryResult reports where the pass went.
type DeliveryResult struct {
	Success     bool   `json:"success"`
	Channel     string `json:"channel"`
	DeliveredTo string `json:"delivered_to"`
}

// Resend issues a fresh token and queues the pass for delivery.  Failures
// of the token store or the broker are returned as a DependencyError and
// are not retried.
func (n *Notifier) Resend(ctx context.Context, actor Actor, bookingID string, in ResendInput) (*DeliveryResult, error) {
	if err := Authorize(actor.Role, CapResendPass); err != nil {
		return nil, err
	}
	channel := strings.ToLower(strings.TrimSpace(in.Channel))
	switch channel {
	case ChannelSMS, ChannelWhatsApp, ChannelEmail:
	default:
		return nil, domain.ValidationError{Field: "channel", Msg: "must be sms, whatsapp or email"}
	}
	b, err := n.ledger.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var recipient string
	switch channel {
	case ChannelSMS, ChannelWhatsApp:
		recipient = strings.TrimSpace(b.BuyerPhone)
		if recipient == "" {
			return nil, domain.ValidationError{Field: "buyer_phone", Msg: "booking has no phone number"}
		}
	case ChannelEmail:
		addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
		if err != nil {
			return nil, domain.ValidationError{Field: "email", Msg: "a valid email is required for the email channel"}
		}
		recipient = addr.Address
	}

	token, err := n.tokens.Issue(ctx, b.ID)
	if err != nil {
		return nil, domain.DependencyError{Dependency: "token store", Err: err}
	}
	d := PassDetails{
		BookingID:   b.ID,
		DisplayID:   b.BookingID,
		BuyerName:   b.BuyerName,
		BuyerPhone:  b.BuyerPhone,
		PassType:    b.PassTypeName,
		Holders:     b.PassHolders,
		TotalPeople: b.TotalPeople,
		Price:       b.PassTypePrice,
		TotalAmount: b.TotalAmount,
		Payment:     string(b.PaymentStatus),
		Token:       token,
		EventName:   n.eventName,
		PassURL:     fmt.Sprintf("%s/pass/%s", n.baseURL, b.ID),
	}

	err = n.dispatcher.PublishDispatch(ctx, queue.PassDispatchEvent{
		BookingID:     d.BookingID,
		DisplayID:     d.DisplayID,
		EventName:     d.EventName,
		PassType:      d.PassType,
		Price:         d.Price,
		BuyerName:     d.BuyerName,
		BuyerPhone:    d.BuyerPhone,
		PassHolders:   d.Holders,
		TotalPeople:   d.TotalPeople,
		TotalAmount:   d.TotalAmount,
		PaymentStatus: d.Payment,
		Channel:       channel,
		Recipient:     recipient,
		Token:         d.Token,
		PassURL:       d.PassURL,
		RequestedBy:   actor.Name,
		RequestedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	n.log.LogDispatch(ctx, b.ID, channel, recipient, err)
	if err != nil {
		return nil, domain.DependencyError{Dependency: "notification", Err: err}
	}
	return &DeliveryResult{Success: true, Channel: channel, DeliveredTo: recipient}, nil
}
