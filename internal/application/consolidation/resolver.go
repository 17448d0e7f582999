package consolidation

import (
	"context"
	"sort"

	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// Candidate es un candidato de consolidación para un ítem pendiente:
// un lote existente, el detalle elegido dentro del lote y su precio vigente.
type Candidate struct {
	Lot          *entity.InventoryLot
	Detail       *entity.InventoryDetail
	CurrentPrice *entity.SellingPrice
	// UnitMatches indica si la unidad del detalle coincide con la del ítem.
	// Cuando es false el candidato viene del fallback al primer detalle
	// encontrado (comportamiento heredado; ver DESIGN.md).
	UnitMatches bool
}

// Resolver busca, para un ítem de recepción pendiente, los lotes/detalles
// existentes que representan "el mismo stock". Lista vacía significa que
// el caller debe usar la ruta de crear lote nuevo.
type Resolver struct {
	items   repository.DeliveryItemRepository
	lots    repository.LotRepository
	details repository.DetailRepository
	prices  repository.SellingPriceRepository
}

// NewResolver construye el resolver de duplicados.
func NewResolver(
	items repository.DeliveryItemRepository,
	lots repository.LotRepository,
	details repository.DetailRepository,
	prices repository.SellingPriceRepository,
) *Resolver {
	return &Resolver{items: items, lots: lots, details: details, prices: prices}
}

// FindCandidates devuelve los candidatos de consolidación para el ítem,
// con los de unidad exacta primero. Esta es la lectura de detección; el
// coordinador vuelve a validar dentro de la transacción de escritura.
func (r *Resolver) FindCandidates(ctx context.Context, deliveryItemID string) ([]Candidate, error) {
	item, err := r.items.GetByID(deliveryItemID)
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
	return findCandidates(r.lots, r.details, r.prices, item)
}

// findCandidates ejecuta la búsqueda con los repositorios dados, de modo
// que el coordinador pueda reusarla dentro de la transacción de escritura.
func findCandidates(
	lots repository.LotRepository,
	details repository.DetailRepository,
	prices repository.SellingPriceRepository,
	item *entity.DeliveryItem,
) ([]Candidate, error) {
	// Coincidencia laxa: los campos nulos del ítem se omiten del filtro.
	found, err := lots.FindActiveByIdentity(repository.LotIdentityFilter{
		ProductID:  item.ProductID,
		ExpiryDate: item.ExpiryDate,
		LotNo:      item.LotNo,
		BatchNo:    item.BatchNo,
	})
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, lot := range found {
		ds, err := details.ListByLot(lot.ID)
		if err != nil {
			return nil, err
		}
		if len(ds) == 0 {
			continue
		}
		detail := selectCandidateDetail(ds, item.UnitID)
		price, err := prices.Current(detail.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{
			Lot:          lot,
			Detail:       detail,
			CurrentPrice: price,
			UnitMatches:  detail.UnitID == item.UnitID,
		})
	}

	// Ranking: primero los candidatos cuya unidad coincide con la del ítem.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnitMatches && !out[j].UnitMatches
	})
	return out, nil
}

// selectCandidateDetail elige el detalle candidato dentro de un lote:
// unidad igual con nivel de conversión 1; si no, cualquier detalle con la
// misma unidad; si no, el primer detalle encontrado. Este último fallback
// es heredado del sistema anterior y se mantiene a propósito: el detalle
// devuelto puede ser de otra unidad (UnitMatches=false en el candidato).
func selectCandidateDetail(ds []*entity.InventoryDetail, unitID string) *entity.InventoryDetail {
	for _, d := range ds {
		if d.UnitID == unitID && d.ConversionLevel == 1 {
			return d
		}
	}
	for _, d := range ds {
		if d.UnitID == unitID {
			return d
		}
	}
	return ds[0]
}
