package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/domain"
)

// ItemStatus es el estado interno de un ítem de recepción.
// En la base de datos se persiste como pareja (active, approved); aquí
// se maneja como estado explícito para que las transiciones sean claras.
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "PENDING"     // activo, sin aprobar
	ItemStatusApproved    ItemStatus = "APPROVED"    // aprobado al inventario (terminal)
	ItemStatusDeactivated ItemStatus = "DEACTIVATED" // desactivado por edición de la recepción
)

// Delivery es la cabecera de una recepción de mercancía.
// Solo muta una vez: Active pasa a false cuando todos sus ítems
// quedaron aprobados o desactivados. Nunca se borra físicamente.
type Delivery struct {
	ID           string
	ReceiptNo    string
	ReceivedBy   string
	ReceivedDate time.Time
	CreatorID    string
	Active       bool
	CreatedAt    time.Time
}

// DeliveryItem es una línea de producto dentro de una recepción, pendiente
// de aprobación al inventario. La aprobación es terminal: un ítem aprobado
// no vuelve a mutar. Las ediciones desactivan el ítem y crean uno nuevo.
type DeliveryItem struct {
	ID         string
	DeliveryID string
	ProductID  string
	ExpiryDate *time.Time
	LotNo      *string
	BatchNo    *string
	UnitID     string
	BaseQty    decimal.Decimal
	ExtraQty   decimal.Decimal
	Status     ItemStatus
	Editable   bool
	CreatedAt  time.Time
}

// TotalQty devuelve la cantidad total a consolidar (base + extra).
func (i *DeliveryItem) TotalQty() decimal.Decimal {
	return i.BaseQty.Add(i.ExtraQty)
}

// Validate verifica el invariante del ítem: unidad y producto presentes,
// ninguna cantidad negativa y al menos una cantidad positiva.
func (i *DeliveryItem) Validate() error {
	if i.ProductID == "" || i.UnitID == "" {
		return domain.ErrInvalidInput
	}
	if i.BaseQty.IsNegative() || i.ExtraQty.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	if !i.BaseQty.IsPositive() && !i.ExtraQty.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// Approve aplica la transición terminal de aprobación sobre la entidad.
// Devuelve error si el ítem ya no es aprobable.
func (i *DeliveryItem) Approve() error {
	switch i.Status {
	case ItemStatusApproved:
		return domain.ErrAlreadyApproved
	case ItemStatusDeactivated:
		return domain.ErrItemDeactivated
	}
	i.Status = ItemStatusApproved
	i.Editable = false
	return nil
}
