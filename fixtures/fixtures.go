package fixtures

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"sandscore-api/models"
	"sandscore-api/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Fixtures struct {
	db *gorm.DB
}

func NewFixtures(db *gorm.DB) *Fixtures {
	return &Fixtures{db: db}
}

var firstNames = []string{
	"Alex", "Jordan", "Casey", "Riley", "Morgan", "Taylor", "Sam", "Drew",
	"Jamie", "Quinn", "Avery", "Reese", "Skyler", "Dakota", "Emerson", "Rowan",
}

// GenerateTestData creates 16 players per match type and a season of 2v2
// matches, processed through the real rating engine so local environments
// get a consistent history.
func (f *Fixtures) GenerateTestData() error {
	log.Println("Starting fixtures generation...")

	store := services.NewRatingStore(f.db)
	processor := services.NewMatchProcessor(f.db, store, services.ModeLenient)
	guard := services.NewRecalcGuard()
	matchService := services.NewMatchService(f.db, processor, guard)

	for _, matchType := range []string{models.MatchTypeMens, models.MatchTypeWomens} {
		players, err := f.generatePlayers(matchType)
		if err != nil {
			return fmt.Errorf("failed to generate %s players: %w", matchType, err)
		}
		if err := f.generateSeason(matchService, players, matchType); err != nil {
			return fmt.Errorf("failed to generate %s season: %w", matchType, err)
		}
	}

	log.Println("Fixtures generation complete")
	return nil
}

func (f *Fixtures) generatePlayers(matchType string) ([]models.Player, error) {
	players := make([]models.Player, 0, len(firstNames))

	for i, name := range firstNames {
		player := models.Player{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("%s_%s_%d", name, matchType, i+1),
			IsActive: true,
		}
		if err := f.db.Create(&player).Error; err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	log.Printf("Created %d %s players", len(players), matchType)
	return players, nil
}

func (f *Fixtures) generateSeason(matchService *services.MatchService, players []models.Player, matchType string) error {
	const matchCount = 60

	start := time.Now().AddDate(0, -6, 0)

	for i := 0; i < matchCount; i++ {
		perm := rand.Perm(len(players))
		p1, p2 := players[perm[0]], players[perm[1]]
		p3, p4 := players[perm[2]], players[perm[3]]

		winnerScore := 21
		loserScore := rand.Intn(20)
		team1Score, team2Score := winnerScore, loserScore
		if rand.Intn(2) == 1 {
			team1Score, team2Score = loserScore, winnerScore
		}

		playedAt := start.Add(time.Duration(i) * 72 * time.Hour)

		_, err := matchService.SubmitMatch(models.CreateMatchRequest{
			Team1Player1ID: p1.ID,
			Team1Player2ID: p2.ID,
			Team2Player1ID: p3.ID,
			Team2Player2ID: p4.ID,
			Team1Score:     team1Score,
			Team2Score:     team2Score,
			MatchType:      matchType,
			PlayedAt:       &playedAt,
		})
		if err != nil {
			return err
		}
	}

	log.Printf("Created %d %s matches with rating history", matchCount, matchType)
	return nil
}

// ClearAllData removes every fixture-generated row.
func (f *Fixtures) ClearAllData() error {
	log.Println("Clearing all fixture data...")

	tables := []interface{}{
		&models.TeamRatingHistory{},
		&models.PlayerRatingHistory{},
		&models.TeamRating{},
		&models.Match{},
		&models.Player{},
	}
	for _, table := range tables {
		if err := f.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}

	log.Println("All fixture data cleared")
	return nil
}
