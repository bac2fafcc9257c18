package main

import (
	"log"
	"os"

	"sandscore-api/config"
	"sandscore-api/cron"
	"sandscore-api/handlers"
	"sandscore-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// @title           SandScore Rating API
// @version         1.0
// @description     Glicko-2 rating engine for 2v2 beach volleyball matches

// @license.name  MIT
// @license.url   http://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// Module wires the rating engine's services and handlers together.
type Module struct {
	MatchHandler  *handlers.MatchHandler
	RatingHandler *handlers.RatingHandler
	RecalcHandler *handlers.RecalcHandler
	Scheduler     *cron.Scheduler
}

func NewModule(db *gorm.DB) *Module {
	store := services.NewRatingStore(db)
	guard := services.NewRecalcGuard()
	processor := services.NewMatchProcessor(db, store, services.ModeLenient)

	matchService := services.NewMatchService(db, processor, guard)
	recalcService := services.NewRecalcService(db, store, processor, guard)
	statsService := services.NewStatsService(db)

	return &Module{
		MatchHandler:  handlers.NewMatchHandler(matchService),
		RatingHandler: handlers.NewRatingHandler(store),
		RecalcHandler: handlers.NewRecalcHandler(recalcService, statsService),
		Scheduler:     cron.NewScheduler(store),
	}
}

func (m *Module) SetupRoutes(r *gin.Engine) {
	matches := r.Group("/matches")
	{
		matches.POST("", m.MatchHandler.SubmitMatch)
		matches.GET("", m.MatchHandler.GetMatches)
		matches.GET("/recent", m.MatchHandler.GetRecentMatches)
		matches.DELETE("/:id", m.MatchHandler.DeleteMatch)
	}

	players := r.Group("/players")
	{
		players.GET("/standings", m.RatingHandler.GetStandings)
		players.GET("/:id/rating", m.RatingHandler.GetPlayerRating)
		players.GET("/:id/rating-history", m.RatingHandler.GetPlayerRatingHistory)
	}

	teams := r.Group("/teams")
	{
		teams.GET("/rating", m.RatingHandler.GetTeamRating)
		teams.GET("/rating-history", m.RatingHandler.GetTeamRatingHistory)
	}

	r.POST("/recalculate", m.RecalcHandler.Recalculate)
	r.POST("/ratings/reset", m.RecalcHandler.ResetRatings)
	r.GET("/stats", m.RecalcHandler.GetStats)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ConnectDatabase()

	r := gin.Default()
	r.Use(cors.Default())

	module := NewModule(config.DB)
	module.SetupRoutes(r)

	r.GET("/health", healthHandler)

	if err := module.Scheduler.Start(); err != nil {
		log.Printf("Scheduler failed to start: %v", err)
	}
	defer module.Scheduler.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	r.Run(":" + port)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Message  string `json:"message" example:"Server is running"`
	Database string `json:"database" example:"connected"`
}

// @Summary Health Check
// @Description Check if the server is running and database is connected
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func healthHandler(c *gin.Context) {
	c.JSON(200, HealthResponse{
		Message:  "Server is running",
		Database: "connected",
	})
}
