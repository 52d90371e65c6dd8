package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controllers reúne tudo que o roteador precisa para montar as rotas
type Controllers struct {
	Auth      *AuthController
	Users     *UserController
	Catalog   *CatalogController
	Equipment *EquipmentController
	Tasks     *TaskController
	Logistics *LogisticsController
}

// SetupRouter monta o gin com as rotas e a proteção por permissão
func SetupRouter(db *gorm.DB, tokens *TokenManager, ctrl Controllers, uploadsDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())

	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Comprovantes de entrega ficam acessíveis por URL estática
	router.Static("/uploads", uploadsDir)

	apiGroup := router.Group("/api/v1")

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/login", ctrl.Auth.Login)
		authGroup.GET("/me", AuthRequired(tokens, db), ctrl.Auth.Me)
	}

	protected := apiGroup.Group("")
	protected.Use(AuthRequired(tokens, db))

	usersGroup := protected.Group("/users", AdminOnly())
	{
		usersGroup.GET("/permissions", ctrl.Users.ListPermissions)
		usersGroup.GET("", ctrl.Users.List)
		usersGroup.POST("", ctrl.Users.Create)
		usersGroup.PUT("/:id/access", ctrl.Users.UpdateAccess)
		usersGroup.PUT("/:id/password", ctrl.Users.ResetPassword)
		usersGroup.DELETE("/:id", ctrl.Users.Delete)
	}

	tasksGroup := protected.Group("/tasks")
	{
		tasksGroup.GET("", ctrl.Tasks.List)
		tasksGroup.GET("/:id", ctrl.Tasks.Get)
		tasksGroup.PUT("/:id", ctrl.Tasks.Update)
		tasksGroup.POST("", RequirePermission("tasks.manage"), ctrl.Tasks.Create)
		tasksGroup.DELETE("/:id", RequirePermission("tasks.manage"), ctrl.Tasks.Delete)
	}

	catalogGroup := protected.Group("/pickup-catalog")
	{
		catalogGroup.GET("/status",
			RequireAnyPermission("pickups.manage", "pickups.create_order"), ctrl.Catalog.Status)
		catalogGroup.POST("/upload-csv",
			RequirePermission("pickups.import_base"), ctrl.Catalog.UploadCSV)
		catalogGroup.GET("/client/:code",
			RequireAnyPermission("pickups.manage", "pickups.create_order"), ctrl.Catalog.GetClient)
		catalogGroup.GET("/orders",
			RequirePermission("pickups.orders_history"), ctrl.Catalog.ListOrders)
		catalogGroup.GET("/orders/:id",
			RequirePermission("pickups.orders_history"), ctrl.Catalog.GetOrder)
		catalogGroup.POST("/orders/pdf",
			RequirePermission("pickups.create_order"), ctrl.Catalog.CreateOrderPDF)
		catalogGroup.PATCH("/orders/:id/status",
			RequirePermission("pickups.orders_history"), ctrl.Catalog.UpdateOrderStatus)
		catalogGroup.DELETE("/orders/:id",
			RequirePermission("pickups.orders_history"), ctrl.Catalog.DeleteOrder)
	}

	equipmentsGroup := protected.Group("/equipments")
	{
		viewer := RequireAnyPermission("equipments.view", "equipments.manage")
		manager := RequirePermission("equipments.manage")

		equipmentsGroup.GET("", viewer, ctrl.Equipment.List)
		equipmentsGroup.GET("/summary", viewer, ctrl.Equipment.Summary)
		equipmentsGroup.GET("/refrigerators/overview", viewer, ctrl.Equipment.RefrigeratorsOverview)
		equipmentsGroup.GET("/refrigerators/new", viewer, ctrl.Equipment.ListNewRefrigerators)
		equipmentsGroup.GET("/refrigerators/available-for-comodato", viewer, ctrl.Equipment.ListAvailableForComodato)
		equipmentsGroup.GET("/refrigerators/non-allocated", viewer, ctrl.Equipment.ListNonAllocated)
		equipmentsGroup.POST("/refrigerators/sync-allocation-status", manager, ctrl.Equipment.SyncAllocationStatus)
		equipmentsGroup.GET("/inventory-materials/month-options", viewer, ctrl.Equipment.InventoryMaterialMonthOptions)
		equipmentsGroup.GET("/inventory-materials", viewer, ctrl.Equipment.ListInventoryMaterials)
		equipmentsGroup.GET("/allocations/lookup", viewer, ctrl.Equipment.AllocationLookup)
		equipmentsGroup.POST("/refrigerators/import-csv", manager, ctrl.Equipment.ImportCSV)
		equipmentsGroup.POST("", manager, ctrl.Equipment.Create)
		equipmentsGroup.PUT("/:id", manager, ctrl.Equipment.Update)
		equipmentsGroup.DELETE("/:id", manager, ctrl.Equipment.Delete)
	}

	deliveriesGroup := protected.Group("/deliveries")
	{
		deliveriesGroup.GET("",
			RequireAnyPermission("deliveries.manage", "comodatos.view"), ctrl.Logistics.ListDeliveries)
		deliveriesGroup.GET("/client/:code",
			RequirePermission("deliveries.manage"), ctrl.Logistics.LookupDeliveryClient)
		deliveriesGroup.POST("",
			RequirePermission("deliveries.manage"), ctrl.Logistics.CreateDelivery)
		deliveriesGroup.DELETE("/:id",
			RequirePermission("deliveries.manage"), ctrl.Logistics.DeleteDelivery)
	}

	pickupsGroup := protected.Group("/pickups", AdminOnly())
	{
		pickupsGroup.GET("", ctrl.Logistics.ListPickups)
		pickupsGroup.POST("", ctrl.Logistics.CreatePickup)
		pickupsGroup.DELETE("/:id", ctrl.Logistics.DeletePickup)
	}

	return router
}
