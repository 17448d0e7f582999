package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SellingPrice es una foto de precio de venta de un detalle de inventario.
// El historial es append-only: el precio vigente es la fila más reciente
// por fecha de creación y las anteriores nunca se borran.
type SellingPrice struct {
	ID                string
	InventoryDetailID string
	Price             decimal.Decimal
	CreatedAt         time.Time
}
