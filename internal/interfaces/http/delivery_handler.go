package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/farmasys/farmasys-api/internal/application/delivery"
	"github.com/farmasys/farmasys-api/internal/application/dto"
	"github.com/farmasys/farmasys-api/internal/domain/entity"
)

// DeliveryHandler maneja las peticiones HTTP del libro de recepciones (protegido).
type DeliveryHandler struct {
	uc *delivery.UseCase
}

// NewDeliveryHandler construye el handler.
func NewDeliveryHandler(uc *delivery.UseCase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

const dateLayout = "2006-01-02"

// itemFromRequest convierte una línea del request a entidad. Fechas en YYYY-MM-DD.
func itemFromRequest(in dto.DeliveryItemRequest) (*entity.DeliveryItem, error) {
	item := &entity.DeliveryItem{
		ProductID: in.ProductID,
		LotNo:     in.LotNo,
		BatchNo:   in.BatchNo,
		UnitID:    in.UnitID,
		BaseQty:   in.BaseQty,
		ExtraQty:  in.ExtraQty,
	}
	if in.ExpiryDate != nil && *in.ExpiryDate != "" {
		d, err := time.Parse(dateLayout, *in.ExpiryDate)
		if err != nil {
			return nil, err
		}
		item.ExpiryDate = &d
	}
	return item, nil
}

func itemResponse(it *entity.DeliveryItem) dto.DeliveryItemResponse {
	out := dto.DeliveryItemResponse{
		ID:         it.ID,
		DeliveryID: it.DeliveryID,
		ProductID:  it.ProductID,
		LotNo:      it.LotNo,
		BatchNo:    it.BatchNo,
		UnitID:     it.UnitID,
		BaseQty:    it.BaseQty,
		ExtraQty:   it.ExtraQty,
		Status:     string(it.Status),
		Editable:   it.Editable,
	}
	if it.ExpiryDate != nil {
		s := it.ExpiryDate.Format(dateLayout)
		out.ExpiryDate = &s
	}
	return out
}

// Create godoc
// @Summary      Registrar una recepción con sus líneas
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDeliveryRequest  true  "cabecera + líneas"
// @Success      201   {object}  dto.DeliveryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/deliveries [post]
func (h *DeliveryHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateDeliveryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	receivedDate, err := time.Parse(dateLayout, in.ReceivedDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "received_date debe ser YYYY-MM-DD"})
	}
	items := make([]*entity.DeliveryItem, 0, len(in.Items))
	for _, itemReq := range in.Items {
		item, err := itemFromRequest(itemReq)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry_date debe ser YYYY-MM-DD"})
		}
		items = append(items, item)
	}

	d, err := h.uc.CreateDelivery(c.Context(), delivery.CreateInput{
		ReceiptNo:    in.ReceiptNo,
		ReceivedBy:   in.ReceivedBy,
		ReceivedDate: receivedDate,
		CreatorID:    userID,
		Items:        items,
	})
	if err != nil {
		return domainError(c, err)
	}

	resp := dto.DeliveryResponse{
		ID:           d.ID,
		ReceiptNo:    d.ReceiptNo,
		ReceivedBy:   d.ReceivedBy,
		ReceivedDate: d.ReceivedDate.Format(dateLayout),
		Active:       d.Active,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, itemResponse(it))
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ReplaceItems godoc
// @Summary      Reemplazar las líneas activas de una recepción (edición)
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la recepción"
// @Param        body  body  dto.ReplaceItemsRequest  true  "líneas nuevas"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/items [put]
func (h *DeliveryHandler) ReplaceItems(c *fiber.Ctx) error {
	deliveryID := c.Params("id")
	var in dto.ReplaceItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	items := make([]*entity.DeliveryItem, 0, len(in.Items))
	for _, itemReq := range in.Items {
		item, err := itemFromRequest(itemReq)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry_date debe ser YYYY-MM-DD"})
		}
		items = append(items, item)
	}
	if err := h.uc.ReplaceItems(c.Context(), deliveryID, items); err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "líneas reemplazadas"})
}

// Deactivate godoc
// @Summary      Desactivar una recepción
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la recepción"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id} [delete]
func (h *DeliveryHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.uc.DeactivateDelivery(c.Context(), c.Params("id")); err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "recepción desactivada"})
}

// GetByID godoc
// @Summary      Obtener una recepción con sus líneas activas
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.DeliveryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id} [get]
func (h *DeliveryHandler) GetByID(c *fiber.Ctx) error {
	d, items, err := h.uc.GetDelivery(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	resp := dto.DeliveryResponse{
		ID:           d.ID,
		ReceiptNo:    d.ReceiptNo,
		ReceivedBy:   d.ReceivedBy,
		ReceivedDate: d.ReceivedDate.Format(dateLayout),
		Active:       d.Active,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, itemResponse(it))
	}
	return c.JSON(resp)
}

// List godoc
// @Summary      Listar recepciones
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "límite"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.DeliveryResponse
// @Router       /api/deliveries [get]
func (h *DeliveryHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	list, err := h.uc.ListDeliveries(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]dto.DeliveryResponse, 0, len(list))
	for _, d := range list {
		out = append(out, dto.DeliveryResponse{
			ID:           d.ID,
			ReceiptNo:    d.ReceiptNo,
			ReceivedBy:   d.ReceivedBy,
			ReceivedDate: d.ReceivedDate.Format(dateLayout),
			Active:       d.Active,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "deliveries": out})
}
