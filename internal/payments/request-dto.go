package payments

type InitiatePaymentRequest struct {
	Gateway string `json:"gateway" binding:"required,oneof=razorpay stripe"`
}

type ConfirmPaymentRequest struct {
	TransactionID    string `json:"transaction_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"omitempty"`
}
