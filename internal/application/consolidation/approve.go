package consolidation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
)

// Reintentos ante conflictos de concurrencia (bloqueos/serialización).
const (
	defaultMaxAttempts = 3
	defaultRetryBase   = 50 * time.Millisecond
)

// ApprovalUseCase es el coordinador transaccional de consolidación: toma un
// ítem de recepción pendiente y pliega su cantidad al inventario, sea
// consolidando sobre un detalle existente (merge) o creando lote y detalle
// nuevos. Cada aprobación corre completa dentro de una transacción: la
// detección se revalida adentro y cualquier falla revierte todo.
type ApprovalUseCase struct {
	txRunner    TxRunner
	locker      DescriptorLocker
	maxAttempts int
	retryBase   time.Duration
}

// NewApprovalUseCase construye el coordinador.
func NewApprovalUseCase(txRunner TxRunner, locker DescriptorLocker) *ApprovalUseCase {
	return &ApprovalUseCase{
		txRunner:    txRunner,
		locker:      locker,
		maxAttempts: defaultMaxAttempts,
		retryBase:   defaultRetryBase,
	}
}

// ApproveInput entrada de una aprobación. Con ChosenDetailID se consolida
// sobre ese detalle; sin él se crea lote nuevo (SellingPrice obligatorio y
// positivo). ForceNew fuerza lote nuevo aunque existan candidatos.
type ApproveInput struct {
	DeliveryItemID string
	ApproverID     string
	ChosenDetailID string
	SellingPrice   *decimal.Decimal
	ForceNew       bool
	Rep            *entity.RepAssignment
}

// ApproveResult lote y detalle sobre los que quedó consolidado el ítem.
type ApproveResult struct {
	LotID    string
	DetailID string
}

// Approve ejecuta la aprobación. Las validaciones de entrada se rechazan
// antes de abrir la transacción; los conflictos de concurrencia se
// reintentan con backoff exponencial un número acotado de veces.
func (uc *ApprovalUseCase) Approve(ctx context.Context, in ApproveInput) (ApproveResult, error) {
	if in.DeliveryItemID == "" || in.ApproverID == "" {
		return ApproveResult{}, domain.ErrInvalidInput
	}
	merge := in.ChosenDetailID != ""
	if !merge {
		if in.SellingPrice == nil || !in.SellingPrice.IsPositive() {
			return ApproveResult{}, domain.ErrInvalidPrice
		}
	}
	if in.Rep != nil {
		if err := in.Rep.Validate(); err != nil {
			return ApproveResult{}, err
		}
	}

	var res ApproveResult
	var err error
	for attempt := 0; attempt < uc.maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(uc.retryBase << (attempt - 1))
		}
		err = uc.txRunner.Run(ctx, func(r TxRepos) error {
			var txErr error
			if merge {
				res, txErr = uc.merge(r, in)
			} else {
				res, txErr = uc.createNew(r, in)
			}
			return txErr
		})
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return ApproveResult{}, err
		}
	}
	return ApproveResult{}, err
}

// lockPendingItem bloquea la fila del ítem y aplica las guardas de estado:
// un ítem aprobado es terminal y uno desactivado no es aprobable.
func lockPendingItem(r TxRepos, id string) (*entity.DeliveryItem, error) {
	item, err := r.Items.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	switch item.Status {
	case entity.ItemStatusApproved:
		return nil, domain.ErrAlreadyApproved
	case entity.ItemStatusDeactivated:
		return nil, domain.ErrItemDeactivated
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// merge consolida el ítem sobre un detalle existente:
// aprueba el ítem, hace el roll-up de la cabecera, agrega el token de
// recepción al lote, incrementa el saldo del detalle, sobreescribe la
// asignación de vendedor si vino y bloquea los descriptores del producto.
func (uc *ApprovalUseCase) merge(r TxRepos, in ApproveInput) (ApproveResult, error) {
	item, err := lockPendingItem(r, in.DeliveryItemID)
	if err != nil {
		return ApproveResult{}, err
	}

	if err := r.Items.Approve(item.ID); err != nil {
		return ApproveResult{}, err
	}
	if err := rollUpDelivery(r, item.DeliveryID); err != nil {
		return ApproveResult{}, err
	}

	detail, err := r.Details.GetByIDForUpdate(in.ChosenDetailID)
	if err != nil {
		return ApproveResult{}, err
	}
	if detail == nil {
		return ApproveResult{}, domain.ErrNotFound
	}
	lot, err := r.Lots.GetByID(detail.LotID)
	if err != nil {
		return ApproveResult{}, err
	}
	if lot == nil {
		return ApproveResult{}, domain.ErrNotFound
	}
	if !lot.Active {
		// El lote se desactivó entre la detección y la escritura.
		return ApproveResult{}, domain.ErrConcurrencyConflict
	}

	token := entity.ReceiptToken{ItemID: item.ID, Date: time.Now(), ApproverID: in.ApproverID}
	if err := r.Lots.AppendReceipt(lot.ID, token); err != nil {
		return ApproveResult{}, err
	}
	if err := r.Details.AddToBalance(detail.ID, item.TotalQty()); err != nil {
		return ApproveResult{}, err
	}
	if in.Rep != nil {
		if err := r.Details.UpdateRepAssignment(detail.ID, *in.Rep); err != nil {
			return ApproveResult{}, err
		}
	}
	if err := uc.locker.LockForProduct(r, item.ProductID); err != nil {
		return ApproveResult{}, err
	}
	return ApproveResult{LotID: lot.ID, DetailID: detail.ID}, nil
}

// createNew crea lote y primer detalle para el ítem y lo aprueba.
// Salvo ForceNew, la detección se revalida dentro de la transacción: si
// apareció un candidato entre la lectura y la escritura, se devuelve
// conflicto para que el caller vuelva a decidir.
func (uc *ApprovalUseCase) createNew(r TxRepos, in ApproveInput) (ApproveResult, error) {
	item, err := lockPendingItem(r, in.DeliveryItemID)
	if err != nil {
		return ApproveResult{}, err
	}

	cands, err := findCandidates(r.Lots, r.Details, r.Prices, item)
	if err != nil {
		return ApproveResult{}, err
	}
	if !in.ForceNew && len(cands) > 0 {
		return ApproveResult{}, domain.ErrConcurrencyConflict
	}
	for _, cand := range cands {
		// ForceNew salta los candidatos de coincidencia laxa, pero un lote
		// activo con la identidad exacta sigue siendo duplicado: el índice
		// único de la clave natural rechazaría el insert de todos modos.
		if cand.Lot.SameIdentity(item) {
			return ApproveResult{}, domain.ErrConcurrencyConflict
		}
	}

	now := time.Now()
	token := entity.ReceiptToken{ItemID: item.ID, Date: now, ApproverID: in.ApproverID}
	lot := &entity.InventoryLot{
		ID:           uuid.New().String(),
		ProductID:    item.ProductID,
		ExpiryDate:   item.ExpiryDate,
		LotNo:        item.LotNo,
		BatchNo:      item.BatchNo,
		Active:       true,
		ReceiptAudit: []entity.ReceiptToken{token},
		CreatedAt:    now,
	}
	if err := r.Lots.Create(lot); err != nil {
		return ApproveResult{}, err
	}

	detail := &entity.InventoryDetail{
		ID:              uuid.New().String(),
		LotID:           lot.ID,
		UnitID:          item.UnitID,
		ConversionLevel: 1,
		RunningBalance:  item.TotalQty(),
		UpdatedAt:       now,
	}
	if in.Rep != nil {
		detail.ApplyRepAssignment(*in.Rep)
	}
	if err := r.Details.Create(detail); err != nil {
		return ApproveResult{}, err
	}

	if err := r.Items.Approve(item.ID); err != nil {
		return ApproveResult{}, err
	}
	if err := rollUpDelivery(r, item.DeliveryID); err != nil {
		return ApproveResult{}, err
	}
	if err := uc.locker.LockForProduct(r, item.ProductID); err != nil {
		return ApproveResult{}, err
	}

	price := &entity.SellingPrice{
		ID:                uuid.New().String(),
		InventoryDetailID: detail.ID,
		Price:             *in.SellingPrice,
		CreatedAt:         now,
	}
	if err := r.Prices.Create(price); err != nil {
		return ApproveResult{}, err
	}
	return ApproveResult{LotID: lot.ID, DetailID: detail.ID}, nil
}

// rollUpDelivery desactiva la cabecera cuando ya no le quedan ítems
// activos sin aprobar.
func rollUpDelivery(r TxRepos, deliveryID string) error {
	pending, err := r.Items.CountPendingByDelivery(deliveryID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return nil
	}
	return r.Deliveries.Deactivate(deliveryID)
}
