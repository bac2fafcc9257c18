package main

import (
	"fmt"
	"log"
	"os"

	"sandscore-api/config"
	"sandscore-api/fixtures"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ConnectDatabase()
	f := fixtures.NewFixtures(config.DB)

	if len(os.Args) < 2 {
		printUsage()
		return
	}

	command := os.Args[1]

	switch command {
	case "generate":
		if err := f.GenerateTestData(); err != nil {
			log.Fatal("Fixtures generation failed:", err)
		}
	case "clear":
		if err := f.ClearAllData(); err != nil {
			log.Fatal("Fixtures clear failed:", err)
		}
	case "regenerate":
		if err := f.ClearAllData(); err != nil {
			log.Fatal("Fixtures clear failed:", err)
		}
		if err := f.GenerateTestData(); err != nil {
			log.Fatal("Fixtures generation failed:", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  fixtures generate    - Create test players and a season of matches")
	fmt.Println("  fixtures clear       - Remove all players, matches and ratings")
	fmt.Println("  fixtures regenerate  - Clear then generate")
}
