package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreybb/denima/models"
	"go.uber.org/zap"
)

// sendTimeout bounds a single notification attempt.
const sendTimeout = 10 * time.Second

// Message is a plain-text mail with an optional HTML alternative.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Provider is the adapter interface for mail transports.
// Implement this to add new transports (SMTP, HTTP APIs, ...).
type Provider interface {
	// Type returns a short name for logs (e.g. "smtp").
	Type() string
	Send(ctx context.Context, msg Message) error
}

// Notifier sends order notifications through a Provider. A Notifier without
// a provider only logs what it would have sent.
type Notifier struct {
	provider Provider
	shopName string
}

func NewNotifier(provider Provider, shopName string) *Notifier {
	return &Notifier{provider: provider, shopName: shopName}
}

// OrderPlaced sends the order confirmation to the customer.
func (n *Notifier) OrderPlaced(ctx context.Context, o *models.Order) error {
	msg := Message{
		ToName:  o.CustomerName,
		ToEmail: o.CustomerEmail,
		Subject: fmt.Sprintf("%s: order %s received", n.shopName, shortID(o.ID)),
		Text:    orderText(n.shopName, o),
	}

	if n.provider == nil {
		zap.L().Info("no mail provider configured, skipping order notification",
			zap.String("order_id", o.ID), zap.String("to", o.CustomerEmail))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := n.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s provider failed to send order %s notification: %w", n.provider.Type(), o.ID, err)
	}
	zap.L().Info("order notification sent", zap.String("order_id", o.ID), zap.String("provider", n.provider.Type()))
	return nil
}

func orderText(shop string, o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", o.CustomerName)
	fmt.Fprintf(&b, "Thank you for your order at %s.\n\n", shop)
	fmt.Fprintf(&b, "Order:    %s\n", o.ID)
	fmt.Fprintf(&b, "Product:  %s\n", o.ProductName)
	fmt.Fprintf(&b, "Quantity: %d\n", o.Quantity)
	fmt.Fprintf(&b, "Total:    %.2f\n", o.TotalPrice)
	fmt.Fprintf(&b, "Status:   %s\n\n", o.Status)
	b.WriteString("We will contact you shortly to confirm the details.\n")
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
