package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmasys/farmasys-api/internal/application/consolidation"
	"github.com/farmasys/farmasys-api/internal/application/delivery"
	"github.com/farmasys/farmasys-api/internal/application/price"
	"github.com/farmasys/farmasys-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	DeliveryUC *delivery.UseCase
	Resolver   *consolidation.Resolver
	ApprovalUC *consolidation.ApprovalUseCase
	PriceUC    *price.UseCase
	Lots       repository.LotRepository
	Details    repository.DetailRepository
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Recepciones (protegido)
	deliveries := protected.Group("/deliveries")
	deliveryHandler := NewDeliveryHandler(deps.DeliveryUC)
	deliveries.Post("/", deliveryHandler.Create)
	deliveries.Get("/", deliveryHandler.List)
	deliveries.Get("/:id", deliveryHandler.GetByID)
	deliveries.Put("/:id/items", deliveryHandler.ReplaceItems)
	deliveries.Delete("/:id", deliveryHandler.Deactivate)

	// Aprobación y consolidación (protegido; solo roles con permiso de aprobar)
	approvals := protected.Group("/approvals", RequireRole("admin", "quimico"))
	consolidationHandler := NewConsolidationHandler(deps.Resolver, deps.ApprovalUC)
	approvals.Get("/candidates/:itemId", consolidationHandler.Candidates)
	approvals.Post("/", consolidationHandler.Approve)

	// Precios de venta (protegido)
	details := protected.Group("/details")
	priceHandler := NewPriceHandler(deps.PriceUC)
	details.Post("/:id/prices", priceHandler.Record)
	details.Get("/:id/prices", priceHandler.History)
	details.Get("/:id/prices/current", priceHandler.Current)

	// Inventario: lotes y trazabilidad (protegido)
	lots := protected.Group("/lots")
	inventoryHandler := NewInventoryHandler(deps.Lots, deps.Details)
	lots.Get("/:id/receipts", inventoryHandler.Receipts)
	lots.Get("/:id/details", inventoryHandler.Details)
}
