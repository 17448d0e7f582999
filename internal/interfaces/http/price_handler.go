package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/application/dto"
	"github.com/farmasys/farmasys-api/internal/application/price"
)

// PriceHandler maneja el historial de precios de venta por detalle (protegido).
type PriceHandler struct {
	uc *price.UseCase
}

// NewPriceHandler construye el handler.
func NewPriceHandler(uc *price.UseCase) *PriceHandler {
	return &PriceHandler{uc: uc}
}

type recordPriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// Record godoc
// @Summary      Registrar un precio de venta nuevo para un detalle
// @Tags         prices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del detalle de inventario"
// @Param        body  body  recordPriceRequest  true  "precio (> 0)"
// @Success      201   {object}  dto.PriceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/details/{id}/prices [post]
func (h *PriceHandler) Record(c *fiber.Ctx) error {
	var in recordPriceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	p, err := h.uc.RecordPrice(c.Context(), c.Params("id"), in.Price)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PriceResponse{
		ID:        p.ID,
		DetailID:  p.InventoryDetailID,
		Price:     p.Price,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	})
}

// Current godoc
// @Summary      Precio vigente de un detalle
// @Tags         prices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del detalle de inventario"
// @Success      200  {object}  dto.PriceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/details/{id}/prices/current [get]
func (h *PriceHandler) Current(c *fiber.Ctx) error {
	p, err := h.uc.CurrentPrice(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.PriceResponse{
		ID:        p.ID,
		DetailID:  p.InventoryDetailID,
		Price:     p.Price,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	})
}

// History godoc
// @Summary      Historial de precios de un detalle (más reciente primero)
// @Tags         prices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del detalle de inventario"
// @Success      200  {array}  dto.PriceResponse
// @Router       /api/details/{id}/prices [get]
func (h *PriceHandler) History(c *fiber.Ctx) error {
	list, err := h.uc.History(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	out := make([]dto.PriceResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.PriceResponse{
			ID:        p.ID,
			DetailID:  p.InventoryDetailID,
			Price:     p.Price,
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "prices": out})
}
