package main

import (
	"fmt"

	_ "backend/api/swagger" // swagger docs
	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/mailer"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Workflow Bridge API
// @version         1.0
// @description     Department request forms with sequential approval chains.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Info("No configs/.env file found or error loading it")
	}
	config.InitConfig()
	conf := config.Conf

	db, err := database.NewConnection(conf.DSN(), *conf.Database.MigrateOnStart)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Info("Connected to PostgreSQL successfully")

	if *conf.Database.SeedOnStart {
		if err := database.Seed(db); err != nil {
			log.Fatalf("Database seeding failed: %v", err)
		}
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	mail := mailer.New(
		conf.Smtp.User,
		conf.Smtp.Password,
		conf.Smtp.Host,
		conf.Smtp.Port,
		conf.Smtp.Sender,
		*conf.Smtp.TLSEnabled,
	)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo, deptRepo)
	deptService := service.NewDepartmentService(deptRepo)
	templateService := service.NewTemplateService(templateRepo, deptRepo, userRepo, requestRepo, auditRepo, txManager)
	notifService := service.NewNotificationService(notifRepo, userRepo, mail, wsHub)
	requestService := service.NewRequestService(requestRepo, templateRepo, userRepo, auditRepo, txManager, notifService, wsHub)
	dashboardService := service.NewDashboardService(requestRepo, notifRepo, userRepo, templateRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	deptHandler := handler.NewDepartmentHandler(deptService)
	templateHandler := handler.NewTemplateHandler(templateService)
	requestHandler := handler.NewRequestHandler(requestService)
	notifHandler := handler.NewNotificationHandler(notifService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{conf.App.CORSOrigin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API routing
	userHandler.RegisterRoutes(router.Group(""))
	deptHandler.RegisterRoutes(router.Group(""))
	templateHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	notifHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	addr := fmt.Sprintf("%s:%d", conf.App.ListenAddr, conf.App.Port)
	log.Infof("Server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
