package repository

import "github.com/farmasys/farmasys-api/internal/domain/entity"

// SellingPriceRepository define el puerto para el historial de precios de venta.
// Solo inserta: las filas viejas se conservan como historial.
type SellingPriceRepository interface {
	Create(p *entity.SellingPrice) error
	// Current devuelve la fila más reciente por fecha de creación, o nil si no hay ninguna.
	Current(detailID string) (*entity.SellingPrice, error)
	// ListByDetail devuelve el historial completo, más reciente primero.
	ListByDetail(detailID string) ([]*entity.SellingPrice, error)
}
