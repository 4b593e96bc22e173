package router

import (
	"consigna/internal/config"
	"consigna/internal/handler"
	"consigna/internal/infra"
	"consigna/internal/middleware"
	"consigna/internal/repository"
	"consigna/internal/service"
	"consigna/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb and metrics may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, metrics *infra.Metrics) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter, err := middleware.RateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.ErrorHandler())
	r.Use(limiter)

	// ── Repositories ─────────────────────────────────────────────────────────
	remitoRepo := repository.NewRemitoRepository(db)
	articuloRepo := repository.NewArticuloRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	vendedorRepo := repository.NewVendedorRepository(db)
	rubroRepo := repository.NewRubroRepository(db)
	historialRepo := repository.NewHistorialPrecioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	remitoSvc := service.NewRemitoService(remitoRepo, articuloRepo, clienteRepo, historialRepo, rdb, metrics)
	articuloSvc := service.NewArticuloService(articuloRepo, rubroRepo, remitoRepo, historialRepo, rdb, metrics)
	rubroSvc := service.NewRubroService(rubroRepo)
	clienteSvc := service.NewClienteService(clienteRepo, vendedorRepo, remitoRepo)
	vendedorSvc := service.NewVendedorService(vendedorRepo)
	documentoSvc := service.NewDocumentoService(remitoSvc, articuloRepo, worker.NewDispatcher(rdb), cfg.RemitoTemplatePath)
	backupSvc := service.NewBackupService(db, rdb)

	// ── Handlers ─────────────────────────────────────────────────────────────
	remitosH := handler.NewRemitosHandler(remitoSvc, documentoSvc)
	articulosH := handler.NewArticulosHandler(articuloSvc, documentoSvc)
	consultaH := handler.NewConsultaPreciosHandler(articuloSvc)
	rubrosH := handler.NewRubrosHandler(rubroSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	vendedoresH := handler.NewVendedoresHandler(vendedorSvc)
	backupH := handler.NewBackupHandler(backupSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, rdb))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/precio/:nro", consultaH.GetPrecio)

		remitos := v1.Group("/remitos")
		{
			remitos.POST("", remitosH.Guardar)
			remitos.GET("", remitosH.Listar)
			remitos.GET("/:id", remitosH.Obtener)
			remitos.PUT("/:id/retiro", remitosH.RegistrarRetiro)
			remitos.DELETE("/:id", remitosH.Anular)
			remitos.GET("/:id/excel", remitosH.Excel)
			remitos.POST("/:id/enviar", remitosH.Enviar)
		}

		articulos := v1.Group("/articulos")
		{
			articulos.POST("", articulosH.Crear)
			articulos.GET("", articulosH.Listar)
			articulos.POST("/importar", articulosH.Importar)
			articulos.GET("/:id", articulosH.ObtenerPorID)
			articulos.PUT("/:id", articulosH.Actualizar)
			articulos.DELETE("/:id", articulosH.Eliminar)
			articulos.GET("/:id/historial-precios", articulosH.HistorialPrecios)
			articulos.GET("/:id/etiquetas", articulosH.Etiquetas)
		}

		rubros := v1.Group("/rubros")
		{
			rubros.POST("", rubrosH.Crear)
			rubros.GET("", rubrosH.Listar)
			rubros.PUT("/:id", rubrosH.Actualizar)
			rubros.DELETE("/:id", rubrosH.Eliminar)
		}

		clientes := v1.Group("/clientes")
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", clientesH.Eliminar)
		}

		vendedores := v1.Group("/vendedores")
		{
			vendedores.POST("", vendedoresH.Crear)
			vendedores.GET("", vendedoresH.Listar)
			vendedores.GET("/:id", vendedoresH.ObtenerPorID)
			vendedores.PUT("/:id", vendedoresH.Actualizar)
			vendedores.DELETE("/:id", vendedoresH.Eliminar)
		}

		if rdb != nil {
			jobsH := handler.NewJobsHandler(rdb)
			v1.GET("/jobs/dlq", jobsH.DLQ)
			v1.POST("/jobs/dlq/reintentar", jobsH.Reintentar)
		}

		backup := v1.Group("/backup")
		{
			backup.GET("", backupH.Exportar)
			backup.GET("/estado", backupH.Estado)
			backup.POST("/restaurar", backupH.Restaurar)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}
