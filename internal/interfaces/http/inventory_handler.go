package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmasys/farmasys-api/internal/application/dto"
	"github.com/farmasys/farmasys-api/internal/domain"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// InventoryHandler expone lecturas de inventario: historial de recepciones
// de un lote y detalles por lote (protegido).
type InventoryHandler struct {
	lots    repository.LotRepository
	details repository.DetailRepository
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(lots repository.LotRepository, details repository.DetailRepository) *InventoryHandler {
	return &InventoryHandler{lots: lots, details: details}
}

// Receipts godoc
// @Summary      Historial de recepciones de un lote (trazabilidad)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {array}   dto.ReceiptTokenResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/receipts [get]
func (h *InventoryHandler) Receipts(c *fiber.Ctx) error {
	lot, err := h.lots.GetByID(c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	if lot == nil {
		return domainError(c, domain.ErrNotFound)
	}
	out := make([]dto.ReceiptTokenResponse, 0, len(lot.ReceiptAudit))
	for _, t := range lot.ReceiptAudit {
		out = append(out, dto.ReceiptTokenResponse{
			ItemID:     t.ItemID,
			Date:       t.Date.Format(dateLayout),
			ApproverID: t.ApproverID,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "receipts": out})
}

// Details godoc
// @Summary      Detalles (saldos por unidad) de un lote
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {array}  dto.CandidateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/details [get]
func (h *InventoryHandler) Details(c *fiber.Ctx) error {
	lot, err := h.lots.GetByID(c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	if lot == nil {
		return domainError(c, domain.ErrNotFound)
	}
	ds, err := h.details.ListByLot(lot.ID)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]fiber.Map, 0, len(ds))
	for _, d := range ds {
		out = append(out, fiber.Map{
			"id":               d.ID,
			"lot_id":           d.LotID,
			"unit_id":          d.UnitID,
			"conversion_level": d.ConversionLevel,
			"running_balance":  d.RunningBalance,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "details": out})
}
