package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/thuvamathi/ai-solutions-lab-sub000/api"
	"github.com/thuvamathi/ai-solutions-lab-sub000/config"
	"github.com/thuvamathi/ai-solutions-lab-sub000/database"
	"github.com/thuvamathi/ai-solutions-lab-sub000/middleware"
	"github.com/thuvamathi/ai-solutions-lab-sub000/models"
	"github.com/thuvamathi/ai-solutions-lab-sub000/repository"
	"github.com/thuvamathi/ai-solutions-lab-sub000/services"
)

func main() {
	// Load .env before viper so env overrides are visible to LoadConfig.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: [Main] No .env file found, relying on environment and config.yaml.")
	}

	config.LoadConfig()

	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}

	runMigrations(db)

	// Initialize Repositories
	appointmentRepo := repository.NewAppointmentRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Initialize Services
	bookingService := services.NewBookingService(appointmentRepo)
	quotaService := services.NewQuotaService(quotaRepo, config.AppConfig.GuestChatQuota)
	log.Println("INFO: [Main] Services initialized.")

	apiHandler := api.NewAPIHandler(bookingService, quotaService, appointmentRepo)
	log.Println("INFO: [Main] API Handler initialized.")

	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.Use(middleware.Logger())
	r.Use(middleware.Cors())
	log.Println("INFO: [Main] Middlewares registered.")

	registerRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	err := db.AutoMigrate(
		&models.Appointment{},
		&models.GuestQuota{},
	)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}

func registerRoutes(r *gin.Engine, handler *api.APIHandler) {
	apiGroup := r.Group("/api")
	{
		appointmentGroup := apiGroup.Group("/appointments")
		{
			appointmentGroup.GET("", handler.ListAppointmentsHandler)
			appointmentGroup.GET("/active", handler.ActiveAppointmentHandler)
			appointmentGroup.POST("", handler.CreateAppointmentHandler)
			appointmentGroup.PUT("/:id", handler.RescheduleAppointmentHandler)
			appointmentGroup.DELETE("/cleanup", handler.CleanupAppointmentsHandler)
			appointmentGroup.DELETE("/:id", handler.DeleteAppointmentHandler)
		}

		quotaGroup := apiGroup.Group("/quota")
		{
			quotaGroup.GET("", handler.GetQuotaHandler)
			quotaGroup.POST("/increment", handler.IncrementQuotaHandler)
		}
	}
}
