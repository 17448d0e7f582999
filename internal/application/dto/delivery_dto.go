package dto

import "github.com/shopspring/decimal"

// DeliveryItemRequest línea de producto dentro de una recepción.
// expiry_date en formato YYYY-MM-DD; lot_no y batch_no opcionales.
type DeliveryItemRequest struct {
	ProductID  string          `json:"product_id"`
	ExpiryDate *string         `json:"expiry_date"`
	LotNo      *string         `json:"lot_no"`
	BatchNo    *string         `json:"batch_no"`
	UnitID     string          `json:"unit_id"`
	BaseQty    decimal.Decimal `json:"base_qty"`
	ExtraQty   decimal.Decimal `json:"extra_qty"`
}

// CreateDeliveryRequest cabecera + líneas de una recepción nueva.
type CreateDeliveryRequest struct {
	ReceiptNo    string                `json:"receipt_no"`
	ReceivedBy   string                `json:"received_by"`
	ReceivedDate string                `json:"received_date"` // YYYY-MM-DD
	Items        []DeliveryItemRequest `json:"items"`
}

// ReplaceItemsRequest reemplazo completo de las líneas activas de una recepción.
type ReplaceItemsRequest struct {
	Items []DeliveryItemRequest `json:"items"`
}

// DeliveryItemResponse línea de recepción en respuestas.
type DeliveryItemResponse struct {
	ID         string          `json:"id"`
	DeliveryID string          `json:"delivery_id"`
	ProductID  string          `json:"product_id"`
	ExpiryDate *string         `json:"expiry_date,omitempty"`
	LotNo      *string         `json:"lot_no,omitempty"`
	BatchNo    *string         `json:"batch_no,omitempty"`
	UnitID     string          `json:"unit_id"`
	BaseQty    decimal.Decimal `json:"base_qty"`
	ExtraQty   decimal.Decimal `json:"extra_qty"`
	Status     string          `json:"status"`
	Editable   bool            `json:"editable"`
}

// DeliveryResponse cabecera de recepción en respuestas.
type DeliveryResponse struct {
	ID           string                 `json:"id"`
	ReceiptNo    string                 `json:"receipt_no"`
	ReceivedBy   string                 `json:"received_by"`
	ReceivedDate string                 `json:"received_date"`
	Active       bool                   `json:"active"`
	Items        []DeliveryItemResponse `json:"items,omitempty"`
}
