package repository

import "github.com/farmasys/farmasys-api/internal/domain/entity"

// DescriptorRepository define el puerto hacia los catálogos de referencia.
// El motor los lee y solo muta la bandera editable vía Lock.
type DescriptorRepository interface {
	GetByID(id string) (*entity.Descriptor, error)
	// Lock pone editable=false en cada descriptor. Idempotente: volver a
	// bloquear un descriptor ya bloqueado no es un error.
	Lock(ids []string) error
}
