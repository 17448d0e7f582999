package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/farmasys/farmasys-api/internal/application/consolidation"
	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// UseCase maneja el libro de recepciones: creación de cabeceras con sus
// líneas, reemplazo de líneas por edición y desactivación. Editar nunca
// actualiza cantidades en sitio: desactiva las líneas viejas e inserta
// las nuevas dentro de la misma transacción.
type UseCase struct {
	txRunner   consolidation.TxRunner
	deliveries repository.DeliveryRepository
	items      repository.DeliveryItemRepository
	products   repository.ProductRepository
}

// NewUseCase construye el caso de uso de recepciones.
func NewUseCase(
	txRunner consolidation.TxRunner,
	deliveries repository.DeliveryRepository,
	items repository.DeliveryItemRepository,
	products repository.ProductRepository,
) *UseCase {
	return &UseCase{txRunner: txRunner, deliveries: deliveries, items: items, products: products}
}

// CreateInput cabecera + líneas de una recepción nueva.
type CreateInput struct {
	ReceiptNo    string
	ReceivedBy   string
	ReceivedDate time.Time
	CreatorID    string
	Items        []*entity.DeliveryItem
}

// CreateDelivery crea la cabecera y todas sus líneas en una transacción.
// Cada línea debe cumplir el invariante de cantidades y referenciar un
// producto existente.
func (uc *UseCase) CreateDelivery(ctx context.Context, in CreateInput) (*entity.Delivery, error) {
	if in.ReceiptNo == "" || in.ReceivedBy == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, item := range in.Items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		product, err := uc.products.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
	}

	now := time.Now()
	d := &entity.Delivery{
		ID:           uuid.New().String(),
		ReceiptNo:    in.ReceiptNo,
		ReceivedBy:   in.ReceivedBy,
		ReceivedDate: in.ReceivedDate,
		CreatorID:    in.CreatorID,
		Active:       true,
		CreatedAt:    now,
	}
	err := uc.txRunner.Run(ctx, func(r consolidation.TxRepos) error {
		if err := r.Deliveries.Create(d); err != nil {
			return err
		}
		for _, item := range in.Items {
			item.ID = uuid.New().String()
			item.DeliveryID = d.ID
			item.Status = entity.ItemStatusPending
			item.Editable = true
			item.CreatedAt = now
			if err := r.Items.Create(item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ReplaceItems desactiva todas las líneas activas de la recepción e
// inserta las nuevas, todo en la misma transacción: un reemplazo parcial
// visible sería una falla observable.
func (uc *UseCase) ReplaceItems(ctx context.Context, deliveryID string, items []*entity.DeliveryItem) error {
	if deliveryID == "" || len(items) == 0 {
		return domain.ErrInvalidInput
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		product, err := uc.products.GetByID(item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
	}
	d, err := uc.deliveries.GetByID(deliveryID)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.ErrNotFound
	}
	if !d.Active {
		return domain.ErrInvalidInput
	}

	now := time.Now()
	return uc.txRunner.Run(ctx, func(r consolidation.TxRepos) error {
		// Las líneas ya aprobadas son inmutables y no se tocan; solo se
		// desactivan las pendientes.
		if err := r.Items.DeactivateByDelivery(deliveryID); err != nil {
			return err
		}
		for _, item := range items {
			item.ID = uuid.New().String()
			item.DeliveryID = deliveryID
			item.Status = entity.ItemStatusPending
			item.Editable = true
			item.CreatedAt = now
			if err := r.Items.Create(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeactivateDelivery desactiva la cabecera. No borra nada.
func (uc *UseCase) DeactivateDelivery(ctx context.Context, id string) error {
	d, err := uc.deliveries.GetByID(id)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.ErrNotFound
	}
	return uc.deliveries.Deactivate(id)
}

// GetDelivery devuelve la cabecera con sus líneas activas.
func (uc *UseCase) GetDelivery(ctx context.Context, id string) (*entity.Delivery, []*entity.DeliveryItem, error) {
	d, err := uc.deliveries.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, domain.ErrNotFound
	}
	items, err := uc.items.ListActiveByDelivery(id)
	if err != nil {
		return nil, nil, err
	}
	return d, items, nil
}

// ListDeliveries lista cabeceras paginadas.
func (uc *UseCase) ListDeliveries(ctx context.Context, limit, offset int) ([]*entity.Delivery, error) {
	return uc.deliveries.List(limit, offset)
}
