package price

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// UseCase maneja el libro de precios de venta por detalle de inventario.
// Es append-only: el precio vigente es la fila más reciente por fecha de
// creación, sin filtrar por ningún otro estado (política uniforme).
type UseCase struct {
	prices  repository.SellingPriceRepository
	details repository.DetailRepository
}

// NewUseCase construye el caso de uso de precios.
func NewUseCase(prices repository.SellingPriceRepository, details repository.DetailRepository) *UseCase {
	return &UseCase{prices: prices, details: details}
}

// RecordPrice agrega una foto de precio para el detalle. El precio debe
// ser positivo y el detalle debe existir.
func (uc *UseCase) RecordPrice(ctx context.Context, detailID string, price decimal.Decimal) (*entity.SellingPrice, error) {
	if detailID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !price.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	detail, err := uc.details.GetByID(detailID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, domain.ErrNotFound
	}
	p := &entity.SellingPrice{
		ID:                uuid.New().String(),
		InventoryDetailID: detailID,
		Price:             price,
		CreatedAt:         time.Now(),
	}
	if err := uc.prices.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

// CurrentPrice devuelve el precio vigente del detalle, o ErrNotFound si
// nunca se registró ninguno.
func (uc *UseCase) CurrentPrice(ctx context.Context, detailID string) (*entity.SellingPrice, error) {
	p, err := uc.prices.Current(detailID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// History devuelve el historial completo de precios, más reciente primero.
func (uc *UseCase) History(ctx context.Context, detailID string) ([]*entity.SellingPrice, error) {
	return uc.prices.ListByDetail(detailID)
}
