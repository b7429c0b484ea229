package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"cinebook/internal/bookings"
)

type PaymentSessionResponse struct {
	TransactionID  string          `json:"transaction_id"`
	Gateway        string          `json:"gateway"`
	GatewayOrderID string          `json:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	ClientSecret   string          `json:"client_secret,omitempty"`
	KeyID          string          `json:"key_id,omitempty"`
}

type TransactionResponse struct {
	TransactionID string          `json:"transaction_id"`
	Gateway       string          `json:"gateway"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func ToSessionResponse(session *PaymentSession) PaymentSessionResponse {
	return PaymentSessionResponse{
		TransactionID:  session.Transaction.TransactionID,
		Gateway:        string(session.Transaction.Gateway),
		GatewayOrderID: session.Order.GatewayOrderID,
		Amount:         session.Order.Amount,
		Currency:       session.Order.Currency,
		ClientSecret:   session.Order.ClientSecret,
		KeyID:          session.Order.KeyID,
	}
}

func ToTransactionResponses(txns []bookings.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, TransactionResponse{
			TransactionID: txn.TransactionID,
			Gateway:       string(txn.Gateway),
			Amount:        txn.Amount,
			Currency:      txn.Currency,
			Status:        string(txn.Status),
			FailureReason: txn.FailureReason,
			CompletedAt:   txn.CompletedAt,
			CreatedAt:     txn.CreatedAt,
		})
	}
	return out
}
