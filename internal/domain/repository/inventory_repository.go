package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/domain/entity"
)

// LotIdentityFilter filtra lotes activos por clave natural. Los campos nil
// se omiten del filtro (coincidencia laxa): un vencimiento nil en el ítem
// no exige vencimiento nil en el lote, simplemente no filtra por él.
type LotIdentityFilter struct {
	ProductID  string
	ExpiryDate *time.Time
	LotNo      *string
	BatchNo    *string
}

// LotRepository define el puerto de persistencia para lotes de inventario.
// Un lote solo muta agregando tokens a su historial de recepciones.
type LotRepository interface {
	Create(lot *entity.InventoryLot) error
	GetByID(id string) (*entity.InventoryLot, error)
	// FindActiveByIdentity busca lotes activos cuyos campos de identidad no nulos
	// coinciden exactamente con los del filtro (los nil del filtro se omiten).
	FindActiveByIdentity(f LotIdentityFilter) ([]*entity.InventoryLot, error)
	// AppendReceipt agrega un token al final del historial; nunca quita ni reordena.
	AppendReceipt(lotID string, token entity.ReceiptToken) error
}

// DetailRepository define el puerto para detalles (saldo por unidad/conversión).
type DetailRepository interface {
	Create(detail *entity.InventoryDetail) error
	GetByID(id string) (*entity.InventoryDetail, error)
	// GetByIDForUpdate bloquea la fila del detalle (SELECT FOR UPDATE) dentro de una tx.
	GetByIDForUpdate(id string) (*entity.InventoryDetail, error)
	// ListByLot devuelve los detalles del lote ordenados por nivel de conversión y fecha.
	ListByLot(lotID string) ([]*entity.InventoryDetail, error)
	// AddToBalance incrementa el saldo del detalle. Delta siempre positivo en este motor.
	AddToBalance(id string, delta decimal.Decimal) error
	// UpdateRepAssignment sobreescribe los campos de vendedor como grupo.
	UpdateRepAssignment(id string, rep entity.RepAssignment) error
}
