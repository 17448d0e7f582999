package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
// El historial de recepciones se guarda como text[] de tokens serializados.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

func encodeAudit(tokens []entity.ReceiptToken) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.String())
	}
	return out
}

func decodeAudit(raw []string) ([]entity.ReceiptToken, error) {
	out := make([]entity.ReceiptToken, 0, len(raw))
	for _, s := range raw {
		t, err := entity.ParseReceiptToken(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Create persiste un lote nuevo con su historial inicial. La clave natural
// (producto, vencimiento, lote, batch) tiene índice único sobre lotes
// activos: una colisión se reporta como conflicto de concurrencia.
func (r *LotRepo) Create(lot *entity.InventoryLot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_lots (id, product_id, expiry_date, lot_no, batch_no, active, receipt_audit, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		lot.ID, lot.ProductID, lot.ExpiryDate, lot.LotNo, lot.BatchNo,
		lot.Active, encodeAudit(lot.ReceiptAudit), lot.Version, lot.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConcurrencyConflict
		}
		return fmt.Errorf("insert inventory lot: %w", err)
	}
	return nil
}

func scanLot(row pgx.Row) (*entity.InventoryLot, error) {
	var l entity.InventoryLot
	var audit []string
	err := row.Scan(
		&l.ID, &l.ProductID, &l.ExpiryDate, &l.LotNo, &l.BatchNo,
		&l.Active, &audit, &l.Version, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.ReceiptAudit, err = decodeAudit(audit)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const lotColumns = `id, product_id, expiry_date, lot_no, batch_no, active, receipt_audit, version, created_at`

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(id string) (*entity.InventoryLot, error) {
	query := `SELECT ` + lotColumns + ` FROM inventory_lots WHERE id = $1`
	lot, err := scanLot(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory lot: %w", err)
	}
	return lot, nil
}

// FindActiveByIdentity busca lotes activos por clave natural. Los campos nil
// del filtro se omiten (coincidencia laxa, no igualdad de nulos).
func (r *LotRepo) FindActiveByIdentity(f repository.LotIdentityFilter) ([]*entity.InventoryLot, error) {
	query := `SELECT ` + lotColumns + ` FROM inventory_lots WHERE active = true AND product_id = $1`
	args := []any{f.ProductID}
	if f.ExpiryDate != nil {
		args = append(args, *f.ExpiryDate)
		query += fmt.Sprintf(" AND expiry_date = $%d", len(args))
	}
	if f.LotNo != nil {
		args = append(args, *f.LotNo)
		query += fmt.Sprintf(" AND lot_no = $%d", len(args))
	}
	if f.BatchNo != nil {
		args = append(args, *f.BatchNo)
		query += fmt.Sprintf(" AND batch_no = $%d", len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("find lots by identity: %w", err)
	}
	defer rows.Close()

	var out []*entity.InventoryLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory lot: %w", err)
		}
		out = append(out, lot)
	}
	return out, rows.Err()
}

// AppendReceipt agrega un token al final del historial del lote.
func (r *LotRepo) AppendReceipt(lotID string, token entity.ReceiptToken) error {
	query := `
		UPDATE inventory_lots
		SET receipt_audit = array_append(receipt_audit, $2), version = version + 1
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, lotID, token.String())
	if err != nil {
		return fmt.Errorf("append receipt token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ repository.DetailRepository = (*DetailRepo)(nil)

// DetailRepo implementación de DetailRepository sobre PostgreSQL.
type DetailRepo struct {
	q Querier
}

// NewDetailRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDetailRepository(q Querier) *DetailRepo {
	return &DetailRepo{q: q}
}

const detailColumns = `id, lot_id, unit_id, conversion_level, running_balance, assigned_rep_id, incentive_kind, incentive_value, version, updated_at`

func scanDetail(row pgx.Row) (*entity.InventoryDetail, error) {
	var d entity.InventoryDetail
	err := row.Scan(
		&d.ID, &d.LotID, &d.UnitID, &d.ConversionLevel, &d.RunningBalance,
		&d.AssignedRepID, &d.IncentiveKind, &d.IncentiveValue, &d.Version, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create persiste un detalle nuevo. La clave natural (lote, unidad, nivel)
// tiene índice único: una colisión se reporta como conflicto de concurrencia.
func (r *DetailRepo) Create(detail *entity.InventoryDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_details (` + detailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		detail.ID, detail.LotID, detail.UnitID, detail.ConversionLevel, detail.RunningBalance,
		detail.AssignedRepID, detail.IncentiveKind, detail.IncentiveValue, detail.Version, detail.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConcurrencyConflict
		}
		return fmt.Errorf("insert inventory detail: %w", err)
	}
	return nil
}

// GetByID obtiene un detalle por ID.
func (r *DetailRepo) GetByID(id string) (*entity.InventoryDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM inventory_details WHERE id = $1`
	d, err := scanDetail(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory detail: %w", err)
	}
	return d, nil
}

// GetByIDForUpdate obtiene el detalle y bloquea la fila (SELECT FOR UPDATE)
// para el compare-and-increment del saldo.
func (r *DetailRepo) GetByIDForUpdate(id string) (*entity.InventoryDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM inventory_details WHERE id = $1 FOR UPDATE`
	d, err := scanDetail(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory detail for update: %w", err)
	}
	return d, nil
}

// ListByLot devuelve los detalles del lote ordenados por nivel de conversión
// y fecha (define "el primero encontrado" del fallback del resolver).
func (r *DetailRepo) ListByLot(lotID string) ([]*entity.InventoryDetail, error) {
	query := `SELECT ` + detailColumns + ` FROM inventory_details WHERE lot_id = $1 ORDER BY conversion_level, updated_at, id`
	rows, err := r.q.Query(context.Background(), query, lotID)
	if err != nil {
		return nil, fmt.Errorf("list inventory details: %w", err)
	}
	defer rows.Close()

	var out []*entity.InventoryDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory detail: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AddToBalance incrementa el saldo del detalle en una sola sentencia.
func (r *DetailRepo) AddToBalance(id string, delta decimal.Decimal) error {
	query := `
		UPDATE inventory_details
		SET running_balance = running_balance + $2, version = version + 1, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, delta)
	if err != nil {
		return fmt.Errorf("add to running balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateRepAssignment sobreescribe los campos de vendedor como grupo.
func (r *DetailRepo) UpdateRepAssignment(id string, rep entity.RepAssignment) error {
	query := `
		UPDATE inventory_details
		SET assigned_rep_id = $2, incentive_kind = $3, incentive_value = $4, version = version + 1, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, rep.RepID, rep.IncentiveKind, rep.IncentiveValue)
	if err != nil {
		return fmt.Errorf("update rep assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
