package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

var _ repository.DescriptorRepository = (*DescriptorRepo)(nil)

// DescriptorRepo implementación de DescriptorRepository sobre PostgreSQL.
type DescriptorRepo struct {
	q Querier
}

// NewDescriptorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDescriptorRepository(q Querier) *DescriptorRepo {
	return &DescriptorRepo{q: q}
}

// GetByID obtiene un descriptor por ID.
func (r *DescriptorRepo) GetByID(id string) (*entity.Descriptor, error) {
	query := `SELECT id, description, editable FROM descriptors WHERE id = $1`
	var d entity.Descriptor
	err := r.q.QueryRow(context.Background(), query, id).Scan(&d.ID, &d.Description, &d.Editable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get descriptor: %w", err)
	}
	return &d, nil
}

// Lock pone editable=false en cada descriptor. Re-bloquear uno ya
// bloqueado no hace nada (la sentencia es naturalmente idempotente).
func (r *DescriptorRepo) Lock(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE descriptors SET editable = false WHERE id = ANY($1)`
	if _, err := r.q.Exec(context.Background(), query, ids); err != nil {
		return fmt.Errorf("lock descriptors: %w", err)
	}
	return nil
}
