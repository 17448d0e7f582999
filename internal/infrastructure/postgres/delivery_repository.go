package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

// DeliveryRepo implementación de DeliveryRepository sobre PostgreSQL (usable con pool o tx).
type DeliveryRepo struct {
	q Querier
}

// NewDeliveryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeliveryRepository(q Querier) *DeliveryRepo {
	return &DeliveryRepo{q: q}
}

// Create persiste una cabecera de recepción.
func (r *DeliveryRepo) Create(d *entity.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	query := `
		INSERT INTO deliveries (id, receipt_no, received_by, received_date, creator_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		d.ID, d.ReceiptNo, d.ReceivedBy, d.ReceivedDate, d.CreatorID, d.Active, d.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// GetByID obtiene una cabecera por ID.
func (r *DeliveryRepo) GetByID(id string) (*entity.Delivery, error) {
	query := `
		SELECT id, receipt_no, received_by, received_date, creator_id, active, created_at
		FROM deliveries WHERE id = $1`
	var d entity.Delivery
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&d.ID, &d.ReceiptNo, &d.ReceivedBy, &d.ReceivedDate, &d.CreatorID, &d.Active, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return &d, nil
}

// List lista cabeceras paginadas, más recientes primero.
func (r *DeliveryRepo) List(limit, offset int) ([]*entity.Delivery, error) {
	query := `
		SELECT id, receipt_no, received_by, received_date, creator_id, active, created_at
		FROM deliveries ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*entity.Delivery
	for rows.Next() {
		var d entity.Delivery
		if err := rows.Scan(&d.ID, &d.ReceiptNo, &d.ReceivedBy, &d.ReceivedDate, &d.CreatorID, &d.Active, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Deactivate marca la cabecera como inactiva. Nunca borra.
func (r *DeliveryRepo) Deactivate(id string) error {
	query := `UPDATE deliveries SET active = false WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("deactivate delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ repository.DeliveryItemRepository = (*DeliveryItemRepo)(nil)

// DeliveryItemRepo implementación de DeliveryItemRepository sobre PostgreSQL.
// El estado interno Pending/Approved/Deactivated se persiste como la pareja
// (active, approved); la traducción vive solo en este adaptador.
type DeliveryItemRepo struct {
	q Querier
}

// NewDeliveryItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeliveryItemRepository(q Querier) *DeliveryItemRepo {
	return &DeliveryItemRepo{q: q}
}

const deliveryItemColumns = `id, delivery_id, product_id, expiry_date, lot_no, batch_no, unit_id, base_qty, extra_qty, active, approved, editable, created_at`

func scanDeliveryItem(row pgx.Row) (*entity.DeliveryItem, error) {
	var it entity.DeliveryItem
	var active, approved bool
	err := row.Scan(
		&it.ID, &it.DeliveryID, &it.ProductID, &it.ExpiryDate, &it.LotNo, &it.BatchNo,
		&it.UnitID, &it.BaseQty, &it.ExtraQty, &active, &approved, &it.Editable, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	it.Status = itemStatus(active, approved)
	return &it, nil
}

// itemStatus traduce la pareja (active, approved) al estado interno.
func itemStatus(active, approved bool) entity.ItemStatus {
	switch {
	case approved:
		return entity.ItemStatusApproved
	case active:
		return entity.ItemStatusPending
	default:
		return entity.ItemStatusDeactivated
	}
}

// Create persiste una línea de recepción.
func (r *DeliveryItemRepo) Create(item *entity.DeliveryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	active := item.Status == entity.ItemStatusPending
	approved := item.Status == entity.ItemStatusApproved
	query := `
		INSERT INTO delivery_items (` + deliveryItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.DeliveryID, item.ProductID, item.ExpiryDate, item.LotNo, item.BatchNo,
		item.UnitID, item.BaseQty, item.ExtraQty, active, approved, item.Editable, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery item: %w", err)
	}
	return nil
}

// GetByID obtiene una línea por ID.
func (r *DeliveryItemRepo) GetByID(id string) (*entity.DeliveryItem, error) {
	query := `SELECT ` + deliveryItemColumns + ` FROM delivery_items WHERE id = $1`
	it, err := scanDeliveryItem(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery item: %w", err)
	}
	return it, nil
}

// GetByIDForUpdate obtiene la línea y bloquea la fila (SELECT FOR UPDATE).
func (r *DeliveryItemRepo) GetByIDForUpdate(id string) (*entity.DeliveryItem, error) {
	query := `SELECT ` + deliveryItemColumns + ` FROM delivery_items WHERE id = $1 FOR UPDATE`
	it, err := scanDeliveryItem(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery item for update: %w", err)
	}
	return it, nil
}

// ListActiveByDelivery lista las líneas activas de la recepción, en orden de creación.
func (r *DeliveryItemRepo) ListActiveByDelivery(deliveryID string) ([]*entity.DeliveryItem, error) {
	query := `SELECT ` + deliveryItemColumns + ` FROM delivery_items WHERE delivery_id = $1 AND active = true ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("list delivery items: %w", err)
	}
	defer rows.Close()

	var out []*entity.DeliveryItem
	for rows.Next() {
		it, err := scanDeliveryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DeactivateByDelivery desactiva todas las líneas activas sin aprobar de la recepción.
// Las líneas aprobadas son inmutables y no se tocan.
func (r *DeliveryItemRepo) DeactivateByDelivery(deliveryID string) error {
	query := `UPDATE delivery_items SET active = false, editable = false WHERE delivery_id = $1 AND active = true AND approved = false`
	if _, err := r.q.Exec(context.Background(), query, deliveryID); err != nil {
		return fmt.Errorf("deactivate delivery items: %w", err)
	}
	return nil
}

// Approve aplica la transición terminal sobre una línea pendiente.
func (r *DeliveryItemRepo) Approve(id string) error {
	query := `
		UPDATE delivery_items SET active = false, approved = true, editable = false
		WHERE id = $1 AND active = true AND approved = false`
	tag, err := r.q.Exec(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("approve delivery item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// La fila ya no está pendiente: el caller debió validar antes con la
		// fila bloqueada, así que esto solo pasa ante una carrera.
		return domain.ErrConcurrencyConflict
	}
	return nil
}

// CountPendingByDelivery cuenta líneas activas sin aprobar de la recepción.
func (r *DeliveryItemRepo) CountPendingByDelivery(deliveryID string) (int, error) {
	query := `SELECT COUNT(*) FROM delivery_items WHERE delivery_id = $1 AND active = true AND approved = false`
	var n int
	if err := r.q.QueryRow(context.Background(), query, deliveryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending delivery items: %w", err)
	}
	return n, nil
}
