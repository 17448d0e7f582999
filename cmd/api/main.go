package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/farmasys/farmasys-api/internal/application/consolidation"
	appdelivery "github.com/farmasys/farmasys-api/internal/application/delivery"
	appprice "github.com/farmasys/farmasys-api/internal/application/price"
	"github.com/farmasys/farmasys-api/internal/infrastructure/postgres"
	httpRouter "github.com/farmasys/farmasys-api/internal/interfaces/http"
	"github.com/farmasys/farmasys-api/pkg/config"
	"github.com/farmasys/farmasys-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	deliveryRepo := postgres.NewDeliveryRepository(pool)
	itemRepo := postgres.NewDeliveryItemRepository(pool)
	lotRepo := postgres.NewLotRepository(pool)
	detailRepo := postgres.NewDetailRepository(pool)
	priceRepo := postgres.NewSellingPriceRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	resolver := consolidation.NewResolver(itemRepo, lotRepo, detailRepo, priceRepo)
	approvalUC := consolidation.NewApprovalUseCase(txRunner, consolidation.NewDescriptorLocker())
	deliveryUC := appdelivery.NewUseCase(txRunner, deliveryRepo, itemRepo, productRepo)
	priceUC := appprice.NewUseCase(priceRepo, detailRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Farmasys API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		DeliveryUC: deliveryUC,
		Resolver:   resolver,
		ApprovalUC: approvalUC,
		PriceUC:    priceUC,
		Lots:       lotRepo,
		Details:    detailRepo,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
