package domain

// StockAdjustment records one stock write made during checkout.
type StockAdjustment struct {
	ProductID string `json:"productId"`
	Previous  int    `json:"previous"`
	Next      int    `json:"next"`
}

type CheckoutResult struct {
	Success     bool              `json:"success"`
	Sale        *Sale             `json:"sale,omitempty"`
	Adjustments []StockAdjustment `json:"adjustments,omitempty"`
	Compensated bool              `json:"compensated"`
}
