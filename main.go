package main

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/KennnedyRamos/gestao-de-tarefas/internal/api"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/config"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/database"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/models"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/services"
	"github.com/KennnedyRamos/gestao-de-tarefas/internal/utils"
)

func main() {
	// Variáveis de ambiente do .env quando existir (em produção a
	// plataforma injeta direto no processo)
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ Arquivo .env não encontrado, usando variáveis do sistema")
	} else {
		log.Printf("✅ Variáveis de ambiente carregadas do .env")
	}

	cfg := config.Load()

	safeURL := cfg.DatabaseURL
	if idx := strings.Index(safeURL, "@"); idx > 0 {
		if schemeIdx := strings.Index(safeURL, "://"); schemeIdx > 0 {
			safeURL = safeURL[:schemeIdx+3] + "***@" + safeURL[idx+1:]
		}
	}
	log.Printf("📋 Banco de dados: %s", safeURL)

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Falha ao conectar no PostgreSQL: %v", err)
	}
	defer database.ClosePostgres(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Falha na migração do banco: %v", err)
	}
	log.Printf("✅ Migrações aplicadas")

	// Cache do ViaCEP: Redis quando configurado, memória caso contrário
	var cepCache utils.Cache = utils.NewMemoryCache()
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis indisponível, cache de CEP em memória: %v", err)
		} else {
			defer database.CloseRedis(redisClient)
			cepCache = utils.NewRedisCache(redisClient, "viacep",
				time.Duration(cfg.ViaCEPCacheTTL)*time.Minute)
			log.Printf("✅ Cache de CEP no Redis")
		}
	}

	cepClient := services.NewViaCEPClient(cfg.ViaCEPBaseURL,
		time.Duration(cfg.ViaCEPTimeout)*time.Second, cepCache)

	catalogService := services.NewCatalogService(db)
	catalogService.SetCEPClient(cepClient)

	orderService := services.NewOrderService(db)
	orderService.SetCatalogService(catalogService)
	orderService.SetResellerLines([]string{
		cfg.CompanyName,
		cfg.CompanyAddress,
		cfg.CompanyCity,
		cfg.CompanyCEP,
	})

	equipmentService := services.NewEquipmentService(db)
	equipmentService.SetCatalogService(catalogService)

	userService := services.NewUserService(db)
	taskService := services.NewTaskService(db)
	logisticsService := services.NewLogisticsService(db, cfg.UploadsDir)

	if err := userService.EnsureAdminUser(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("❌ Falha ao garantir o usuário administrador: %v", err)
	}

	tokens := api.NewTokenManager(cfg.JWTSecret)
	controllers := api.Controllers{
		Auth:      api.NewAuthController(userService, tokens),
		Users:     api.NewUserController(userService),
		Catalog:   api.NewCatalogController(catalogService, orderService, cfg.MaxUploadMB),
		Equipment: api.NewEquipmentController(equipmentService, cfg.MaxUploadMB),
		Tasks:     api.NewTaskController(taskService),
		Logistics: api.NewLogisticsController(logisticsService),
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(db, tokens, controllers, cfg.UploadsDir)

	log.Printf("🚀 Servidor ouvindo na porta %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("❌ Servidor encerrado com erro: %v", err)
	}
}
