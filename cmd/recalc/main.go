package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sandscore-api/config"
	"sandscore-api/services"

	"github.com/joho/godotenv"
)

// Operational entry point for rating maintenance: inspect the dataset,
// wipe ratings back to defaults, or replay the full match history.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ConnectDatabase()

	store := services.NewRatingStore(config.DB)
	processor := services.NewMatchProcessor(config.DB, store, services.ModeLenient)
	guard := services.NewRecalcGuard()
	recalc := services.NewRecalcService(config.DB, store, processor, guard)
	stats := services.NewStatsService(config.DB)

	if len(os.Args) < 2 {
		printUsage()
		return
	}

	switch os.Args[1] {
	case "stats":
		result, err := stats.GetStats()
		if err != nil {
			log.Fatal("Stats failed:", err)
		}
		printJSON(result)
	case "reset":
		matchType := ""
		if len(os.Args) > 2 {
			matchType = os.Args[2]
		}
		if err := recalc.Reset(matchType); err != nil {
			log.Fatal("Reset failed:", err)
		}
		log.Println("Ratings reset to defaults")
	case "recalc":
		runRecalc(recalc)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
	}
}

func runRecalc(recalc *services.RecalcService) {
	opts := services.RecalcOptions{
		BatchSize:     envInt("BATCH_SIZE", services.DefaultBatchSize),
		BatchDelay:    time.Duration(envInt("BATCH_DELAY_MS", 100)) * time.Millisecond,
		Iterations:    envInt("RECALC_ITERATIONS", services.DefaultIterations),
		HalfLifeDays:  envInt("RATING_HALF_LIFE_DAYS", services.DefaultHalfLifeDays),
		MinTimeWeight: envFloat("MIN_TIME_WEIGHT", services.DefaultMinTimeWeight),
		TimeWeighted:  os.Getenv("TIME_WEIGHTED") == "true",
	}

	if len(os.Args) > 2 {
		start, err := time.Parse("2006-01-02", os.Args[2])
		if err != nil {
			log.Fatal("Invalid start date, expected YYYY-MM-DD:", err)
		}
		opts.Start = &start
	}
	if len(os.Args) > 3 {
		end, err := time.Parse("2006-01-02", os.Args[3])
		if err != nil {
			log.Fatal("Invalid end date, expected YYYY-MM-DD:", err)
		}
		opts.End = &end
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := recalc.Recalculate(ctx, opts)
	if report != nil {
		printJSON(report)
	}
	if err != nil {
		log.Fatal("Recalculation failed:", err)
	}
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal("Encoding failed:", err)
	}
	fmt.Println(string(out))
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  recalc stats                      - Print dataset statistics")
	fmt.Println("  recalc reset [matchType]          - Reset ratings (both partitions when omitted)")
	fmt.Println("  recalc recalc [start] [end]       - Replay match history (dates as YYYY-MM-DD)")
	fmt.Println()
	fmt.Println("Environment knobs for recalc:")
	fmt.Println("  BATCH_SIZE, BATCH_DELAY_MS, RECALC_ITERATIONS,")
	fmt.Println("  RATING_HALF_LIFE_DAYS, MIN_TIME_WEIGHT, TIME_WEIGHTED=true")
}
