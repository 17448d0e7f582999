package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmasys/farmasys-api/internal/application/consolidation"
	"github.com/farmasys/farmasys-api/internal/application/dto"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
)

// ConsolidationHandler maneja la detección de duplicados y la aprobación
// de ítems de recepción al inventario (protegido).
type ConsolidationHandler struct {
	resolver *consolidation.Resolver
	approval *consolidation.ApprovalUseCase
}

// NewConsolidationHandler construye el handler.
func NewConsolidationHandler(resolver *consolidation.Resolver, approval *consolidation.ApprovalUseCase) *ConsolidationHandler {
	return &ConsolidationHandler{resolver: resolver, approval: approval}
}

// Candidates godoc
// @Summary      Candidatos de consolidación para un ítem pendiente
// @Description  Busca lotes/detalles existentes que representan el mismo stock.
//
//	Lista vacía: el caller debe aprobar por la ruta de lote nuevo.
//
// @Tags         approvals
// @Security     Bearer
// @Produce      json
// @Param        itemId  path  string  true  "ID del ítem de recepción"
// @Success      200  {array}   dto.CandidateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/approvals/candidates/{itemId} [get]
func (h *ConsolidationHandler) Candidates(c *fiber.Ctx) error {
	cands, err := h.resolver.FindCandidates(c.Context(), c.Params("itemId"))
	if err != nil {
		return domainError(c, err)
	}
	out := make([]dto.CandidateResponse, 0, len(cands))
	for _, cand := range cands {
		resp := dto.CandidateResponse{
			LotID:           cand.Lot.ID,
			DetailID:        cand.Detail.ID,
			UnitID:          cand.Detail.UnitID,
			ConversionLevel: cand.Detail.ConversionLevel,
			RunningBalance:  cand.Detail.RunningBalance,
			UnitMatches:     cand.UnitMatches,
			LotNo:           cand.Lot.LotNo,
			BatchNo:         cand.Lot.BatchNo,
		}
		if cand.Lot.ExpiryDate != nil {
			s := cand.Lot.ExpiryDate.Format(dateLayout)
			resp.ExpiryDate = &s
		}
		if cand.CurrentPrice != nil {
			p := cand.CurrentPrice.Price
			resp.CurrentPrice = &p
		}
		out = append(out, resp)
	}
	return c.JSON(fiber.Map{"total": len(out), "candidates": out})
}

// Approve godoc
// @Summary      Aprobar un ítem de recepción al inventario
// @Description  Con chosen_detail_id consolida sobre ese detalle (merge);
//
//	sin él crea lote nuevo y selling_price es obligatorio y positivo.
//
// @Tags         approvals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApproveRequest  true  "ítem, detalle elegido o precio, asignación de vendedor"
// @Success      200   {object}  dto.ApproveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/approvals [post]
func (h *ConsolidationHandler) Approve(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApproveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	input := consolidation.ApproveInput{
		DeliveryItemID: in.DeliveryItemID,
		ApproverID:     userID,
		ChosenDetailID: in.ChosenDetailID,
		SellingPrice:   in.SellingPrice,
		ForceNew:       in.ForceNew,
	}
	if in.RepAssignment != nil {
		input.Rep = &entity.RepAssignment{
			RepID:          in.RepAssignment.RepID,
			IncentiveKind:  in.RepAssignment.IncentiveKind,
			IncentiveValue: in.RepAssignment.IncentiveValue,
		}
	}

	res, err := h.approval.Approve(c.Context(), input)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.ApproveResponse{OK: true, LotID: res.LotID, DetailID: res.DetailID})
}
