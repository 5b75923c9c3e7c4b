// Package notify delivers verification and password-reset links to account
// owners. Delivery is best-effort: a failed delivery never invalidates the
// token it carries.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"smartspend/internal/logging"
	"smartspend/internal/models"
)

// Notifier delivers a security token to the account's owner.
type Notifier interface {
	Deliver(ctx context.Context, account *models.Account, kind models.TokenKind, token string) error
}

// TokenMessage is the payload handed to the delivery transport.
type TokenMessage struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Kind      string    `json:"kind"`
	Link      string    `json:"link"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NewTokenMessage builds the payload for an account and token, producing the
// action link the mail template embeds.
func NewTokenMessage(baseURL string, account *models.Account, kind models.TokenKind, token string) *TokenMessage {
	link := baseURL + "/verify-email?token=" + token
	if kind == models.KindReset {
		link = baseURL + "/reset-password?token=" + token
	}
	return &TokenMessage{
		Email:     account.Email,
		FirstName: account.FirstName,
		Kind:      string(kind),
		Link:      link,
		IssuedAt:  time.Now(),
	}
}

func (m *TokenMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TokenMessageFromJSON(data []byte) (*TokenMessage, error) {
	var msg TokenMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LogNotifier writes the delivery to the log instead of a transport. Used in
// development and tests.
type LogNotifier struct {
	baseURL string
	log     logging.Logger
}

func NewLogNotifier(baseURL string, log logging.Logger) *LogNotifier {
	return &LogNotifier{baseURL: baseURL, log: log}
}

func (n *LogNotifier) Deliver(ctx context.Context, account *models.Account, kind models.TokenKind, token string) error {
	msg := NewTokenMessage(n.baseURL, account, kind, token)
	n.log.Info(ctx, "token notification", "email", msg.Email, "kind", msg.Kind, "link", msg.Link)
	return nil
}
