package consolidation

import (
	"context"

	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción de BD.
// Todo lo que el coordinador haga sobre ellos se aplica al Commit o se
// descarta completo en el Rollback.
type TxRepos struct {
	Deliveries  repository.DeliveryRepository
	Items       repository.DeliveryItemRepository
	Lots        repository.LotRepository
	Details     repository.DetailRepository
	Prices      repository.SellingPriceRepository
	Descriptors repository.DescriptorRepository
	Products    repository.ProductRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// consolidación: o se aplican todos los efectos o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// DescriptorLocker concentra el efecto colateral sobre los catálogos de
// referencia: al aprobar un ítem, los descriptores técnicos del producto
// quedan bloqueados para edición. Es idempotente por contrato del
// repositorio de descriptores.
type DescriptorLocker interface {
	LockForProduct(r TxRepos, productID string) error
}

// NewDescriptorLocker devuelve el locker por defecto.
func NewDescriptorLocker() DescriptorLocker { return descriptorLocker{} }

type descriptorLocker struct{}

// LockForProduct bloquea todos los descriptores referenciados por el producto.
func (descriptorLocker) LockForProduct(r TxRepos, productID string) error {
	product, err := r.Products.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	ids := product.DescriptorIDs()
	if len(ids) == 0 {
		return nil
	}
	return r.Descriptors.Lock(ids)
}
