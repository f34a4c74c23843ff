// Package notify pushes invoice events to the seller's mobile devices
// through Firebase Cloud Messaging.
package notify

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"webomat/internal/invoice/fsm"
	"webomat/internal/models"
)

// Sender delivers one message; *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource resolves device tokens.
type TokenSource interface {
	SellerUserID(ctx context.Context, sellerID string) (string, error)
	DeviceTokens(ctx context.Context, userID string) ([]models.DeviceToken, error)
	DeleteDeviceToken(ctx context.Context, token string) error
}

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewMessagingClient initialises FCM from a service account file.
func NewMessagingClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	if credentialsFile == "" {
		return nil, errors.New("notify: credentials file is required")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return client, nil
}

type Pusher struct {
	sender Sender
	tokens TokenSource
	logger Logger
}

func NewPusher(sender Sender, tokens TokenSource, logger Logger) *Pusher {
	return &Pusher{sender: sender, tokens: tokens, logger: logger}
}

// SendToUser sends the notification to every device of userID and returns
// how many deliveries succeeded. Unregistered tokens are removed.
func (p *Pusher) SendToUser(ctx context.Context, userID, title, body string, data map[string]string) (int, error) {
	tokens, err := p.tokens.DeviceTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("device tokens for %s: %w", userID, err)
	}
	sent := 0
	for _, t := range tokens {
		id, err := p.sender.Send(ctx, buildMessage(t.Token, title, body, data))
		if err != nil {
			if messaging.IsRegistrationTokenNotRegistered(err) {
				if derr := p.tokens.DeleteDeviceToken(ctx, t.Token); derr != nil {
					p.logger.Errorf("delete stale token: %v", derr)
				}
				continue
			}
			p.logger.Errorf("push to user %s failed: %v", userID, err)
			continue
		}
		p.logger.Infof("push %s delivered to user %s", id, userID)
		sent++
	}
	return sent, nil
}

var invoiceTitles = map[fsm.Action]string{
	fsm.ActionApprove:  "Invoice approved",
	fsm.ActionReject:   "Invoice returned",
	fsm.ActionMarkPaid: "Invoice paid",
	fsm.ActionCancel:   "Invoice cancelled",
}

// InvoiceChanged tells the seller about an admin decision on their
// invoice. It has the signature of a lifecycle observer and never fails.
func (p *Pusher) InvoiceChanged(ctx context.Context, action fsm.Action, inv *models.Invoice) {
	title, ok := invoiceTitles[action]
	if !ok || inv == nil || inv.SellerID == "" {
		return
	}
	userID, err := p.tokens.SellerUserID(ctx, inv.SellerID)
	if err != nil {
		p.logger.Errorf("seller %s user lookup: %v", inv.SellerID, err)
		return
	}

	body := fmt.Sprintf("%s · %s", inv.InvoiceNumber, inv.BusinessName)
	if action == fsm.ActionReject && inv.RejectedReason != nil && *inv.RejectedReason != "" {
		body = fmt.Sprintf("%s: %s", inv.InvoiceNumber, *inv.RejectedReason)
	}
	data := map[string]string{
		"link":       "/invoices/" + inv.ID,
		"invoice_id": inv.ID,
		"status":     inv.Status,
		"action":     string(action),
	}
	if _, err := p.SendToUser(ctx, userID, title, body, data); err != nil {
		p.logger.Errorf("invoice %s push: %v", inv.ID, err)
	}
}

func buildMessage(token, title, body string, data map[string]string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "invoices",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}
}
