package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"storefront/internal/domain"

	"github.com/keighl/postmark"
	"go.uber.org/zap"
)

// LogNotifier records order confirmations in the log instead of mailing them
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPlaced(ctx context.Context, order *domain.Order, lines []domain.CartLine) error {
	n.logger.Info("Order confirmation",
		zap.Int64("order_id", order.ID),
		zap.String("email", order.Email),
		zap.String("total", order.Total.String()),
		zap.Int("lines", len(lines)),
	)
	return nil
}

// PostmarkNotifier mails an order confirmation to the buyer through Postmark
type PostmarkNotifier struct {
	client *postmark.Client
	from   string
}

// NewPostmarkNotifier creates a notifier sending from the given address
func NewPostmarkNotifier(serverToken, from string) *PostmarkNotifier {
	return &PostmarkNotifier{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

func (n *PostmarkNotifier) OrderPlaced(ctx context.Context, order *domain.Order, lines []domain.CartLine) error {
	htmlBody, err := renderConfirmation(order, lines)
	if err != nil {
		return err
	}

	_, err = n.client.SendEmail(postmark.Email{
		From:     n.from,
		To:       order.Email,
		Subject:  fmt.Sprintf("Order #%d confirmation", order.ID),
		HtmlBody: htmlBody,
		TextBody: confirmationText(order, lines),
		Tag:      "order-confirmation",
	})
	if err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}
	return nil
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<p>Hi {{.Order.FirstName}},</p>
<p>Thank you for your order <strong>#{{.Order.ID}}</strong>.</p>
<table>
{{range .Lines}}<tr><td>{{.Product.Name}}</td><td>{{.Quantity}}</td><td>{{.Product.Price}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Order.Subtotal}}<br>Tax: {{.Order.Tax}}<br><strong>Total: {{.Order.Total}}</strong></p>
{{if .Order.Address}}<p>Shipping to: {{.Order.Address}}, {{.Order.PostalCode}} {{.Order.City}}, {{.Order.Country}}</p>{{end}}`))

func renderConfirmation(order *domain.Order, lines []domain.CartLine) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Order *domain.Order
		Lines []domain.CartLine
	}{order, lines}
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render order confirmation: %w", err)
	}
	return buf.String(), nil
}

func confirmationText(order *domain.Order, lines []domain.CartLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d\n\n", order.ID)
	for _, line := range lines {
		fmt.Fprintf(&b, "%d x %s @ %s\n", line.Quantity, line.Product.Name, line.Product.Price)
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nTax: %s\nTotal: %s\n", order.Subtotal, order.Tax, order.Total)
	return b.String()
}
