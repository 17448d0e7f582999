package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

var _ repository.SellingPriceRepository = (*SellingPriceRepo)(nil)

// SellingPriceRepo implementación de SellingPriceRepository sobre PostgreSQL.
// Solo inserta y lee: el historial nunca se borra.
type SellingPriceRepo struct {
	q Querier
}

// NewSellingPriceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSellingPriceRepository(q Querier) *SellingPriceRepo {
	return &SellingPriceRepo{q: q}
}

// Create persiste una foto de precio.
func (r *SellingPriceRepo) Create(p *entity.SellingPrice) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `
		INSERT INTO selling_prices (id, inventory_detail_id, price, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.q.Exec(context.Background(), query, p.ID, p.InventoryDetailID, p.Price, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert selling price: %w", err)
	}
	return nil
}

// Current devuelve la fila más reciente por fecha de creación, o nil si no hay.
func (r *SellingPriceRepo) Current(detailID string) (*entity.SellingPrice, error) {
	query := `
		SELECT id, inventory_detail_id, price, created_at
		FROM selling_prices WHERE inventory_detail_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`
	var p entity.SellingPrice
	err := r.q.QueryRow(context.Background(), query, detailID).Scan(
		&p.ID, &p.InventoryDetailID, &p.Price, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current price: %w", err)
	}
	return &p, nil
}

// ListByDetail devuelve el historial completo, más reciente primero.
func (r *SellingPriceRepo) ListByDetail(detailID string) ([]*entity.SellingPrice, error) {
	query := `
		SELECT id, inventory_detail_id, price, created_at
		FROM selling_prices WHERE inventory_detail_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(context.Background(), query, detailID)
	if err != nil {
		return nil, fmt.Errorf("list selling prices: %w", err)
	}
	defer rows.Close()

	var out []*entity.SellingPrice
	for rows.Next() {
		var p entity.SellingPrice
		if err := rows.Scan(&p.ID, &p.InventoryDetailID, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan selling price: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
