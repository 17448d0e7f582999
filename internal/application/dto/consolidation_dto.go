package dto

import "github.com/shopspring/decimal"

// RepAssignmentRequest asignación de vendedor e incentivo para el detalle.
// Los tres campos viajan juntos: no hay sobreescritura parcial.
type RepAssignmentRequest struct {
	RepID          string          `json:"rep_id"`
	IncentiveKind  string          `json:"incentive_kind"` // percent | amount
	IncentiveValue decimal.Decimal `json:"incentive_value"`
}

// ApproveRequest solicitud de aprobación de un ítem de recepción.
// Con chosen_detail_id se consolida sobre ese detalle (merge); sin él se
// crea lote nuevo y selling_price es obligatorio y positivo. force_new
// permite crear lote nuevo aun existiendo candidatos equivalentes.
type ApproveRequest struct {
	DeliveryItemID string                `json:"delivery_item_id"`
	ChosenDetailID string                `json:"chosen_detail_id,omitempty"`
	SellingPrice   *decimal.Decimal      `json:"selling_price,omitempty"`
	ForceNew       bool                  `json:"force_new,omitempty"`
	RepAssignment  *RepAssignmentRequest `json:"rep_assignment,omitempty"`
}

// ApproveResponse resultado de la aprobación.
type ApproveResponse struct {
	OK       bool   `json:"ok"`
	LotID    string `json:"lot_id,omitempty"`
	DetailID string `json:"detail_id,omitempty"`
}

// CandidateResponse un candidato de consolidación: lote + detalle + precio vigente.
type CandidateResponse struct {
	LotID           string           `json:"lot_id"`
	DetailID        string           `json:"detail_id"`
	UnitID          string           `json:"unit_id"`
	ConversionLevel int              `json:"conversion_level"`
	RunningBalance  decimal.Decimal  `json:"running_balance"`
	UnitMatches     bool             `json:"unit_matches"`
	CurrentPrice    *decimal.Decimal `json:"current_price,omitempty"`
	ExpiryDate      *string          `json:"expiry_date,omitempty"`
	LotNo           *string          `json:"lot_no,omitempty"`
	BatchNo         *string          `json:"batch_no,omitempty"`
}

// PriceResponse una fila del historial de precios.
type PriceResponse struct {
	ID        string          `json:"id"`
	DetailID  string          `json:"detail_id"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt string          `json:"created_at"`
}

// ReceiptTokenResponse una entrada del historial de recepciones de un lote.
type ReceiptTokenResponse struct {
	ItemID     string `json:"item_id"`
	Date       string `json:"date"`
	ApproverID string `json:"approver_id"`
}
