package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/farmasys/farmasys-api/internal/application/consolidation"
	"github.com/farmasys/farmasys-api/internal/domain"
)

// Ensure TxRunner implements consolidation.TxRunner.
var _ consolidation.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción SERIALIZABLE, ejecuta fn con repos atados a la
// tx y hace Commit o Rollback. El nivel serializable es el que hace valer la
// re-detección dentro de la tx: a read committed dos creaciones concurrentes
// no se verían entre sí. Un Rollback fallido se loguea y se traga: el error
// original de la operación es el que se devuelve al caller. Las fallas de
// serialización/deadlock se mapean a ErrConcurrencyConflict para que el
// coordinador pueda reintentarlas.
func (r *TxRunner) Run(ctx context.Context, fn func(repos consolidation.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			log.Warn().Err(rbErr).Msg("rollback de transacción falló")
		}
	}()

	repos := bindRepos(tx)
	if err := fn(repos); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// bindRepos ata todos los repositorios del motor a un mismo Querier (tx).
func bindRepos(q Querier) consolidation.TxRepos {
	return consolidation.TxRepos{
		Deliveries:  NewDeliveryRepository(q),
		Items:       NewDeliveryItemRepository(q),
		Lots:        NewLotRepository(q),
		Details:     NewDetailRepository(q),
		Prices:      NewSellingPriceRepository(q),
		Descriptors: NewDescriptorRepository(q),
		Products:    NewProductRepository(q),
	}
}
