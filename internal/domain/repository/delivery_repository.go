package repository

import "github.com/farmasys/farmasys-api/internal/domain/entity"

// DeliveryRepository define el puerto de persistencia para cabeceras de recepción (DIP).
// Las cabeceras nunca se borran: la única mutación es Deactivate.
type DeliveryRepository interface {
	Create(d *entity.Delivery) error
	GetByID(id string) (*entity.Delivery, error)
	List(limit, offset int) ([]*entity.Delivery, error)
	Deactivate(id string) error
}

// DeliveryItemRepository define el puerto para líneas de recepción.
// Las cantidades nunca se actualizan en sitio: editar es desactivar e insertar.
type DeliveryItemRepository interface {
	Create(item *entity.DeliveryItem) error
	GetByID(id string) (*entity.DeliveryItem, error)
	// GetByIDForUpdate bloquea la fila del ítem (SELECT FOR UPDATE) dentro de una tx.
	GetByIDForUpdate(id string) (*entity.DeliveryItem, error)
	ListActiveByDelivery(deliveryID string) ([]*entity.DeliveryItem, error)
	// DeactivateByDelivery desactiva todos los ítems activos de la recepción (edición).
	DeactivateByDelivery(deliveryID string) error
	// Approve aplica la transición terminal: active=false, approved=true, editable=false.
	Approve(id string) error
	// CountPendingByDelivery cuenta ítems activos sin aprobar (para el roll-up de la cabecera).
	CountPendingByDelivery(deliveryID string) (int, error)
}
