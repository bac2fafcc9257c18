package migrations

import "gorm.io/gorm"

func GetCoreMigrations() []MigrationDefinition {
	return []MigrationDefinition{
		{
			Name: "2025_01_10_000000_create_rating_tables",
			Up: func(db *gorm.DB) error {
				// Players carry the per-match-type rating state inline.
				if err := db.Exec(`
					CREATE TABLE IF NOT EXISTS players (
						id UUID PRIMARY KEY,
						username VARCHAR(255) NOT NULL,
						is_active BOOLEAN DEFAULT TRUE,
						mens_rating FLOAT DEFAULT 1500,
						mens_rating_deviation FLOAT DEFAULT 350,
						mens_volatility FLOAT DEFAULT 0.06,
						mens_matches_played INT DEFAULT 0,
						mens_last_played_at TIMESTAMP NULL,
						womens_rating FLOAT DEFAULT 1500,
						womens_rating_deviation FLOAT DEFAULT 350,
						womens_volatility FLOAT DEFAULT 0.06,
						womens_matches_played INT DEFAULT 0,
						womens_last_played_at TIMESTAMP NULL,
						created_at TIMESTAMP DEFAULT NOW(),
						updated_at TIMESTAMP DEFAULT NOW(),
						deleted_at TIMESTAMP NULL
					);
					CREATE INDEX IF NOT EXISTS idx_players_deleted_at ON players(deleted_at);
					CREATE INDEX IF NOT EXISTS idx_players_mens_rating ON players(mens_rating);
					CREATE INDEX IF NOT EXISTS idx_players_womens_rating ON players(womens_rating);
				`).Error; err != nil {
					return err
				}

				if err := db.Exec(`
					CREATE TABLE IF NOT EXISTS matches (
						id BIGSERIAL PRIMARY KEY,
						team1_player1_id UUID NOT NULL,
						team1_player2_id UUID NOT NULL,
						team2_player1_id UUID NOT NULL,
						team2_player2_id UUID NOT NULL,
						team1_score INT NOT NULL,
						team2_score INT NOT NULL,
						winning_team INT NOT NULL,
						match_type VARCHAR(10) NOT NULL,
						played_at TIMESTAMP NOT NULL,
						created_at TIMESTAMP DEFAULT NOW(),
						updated_at TIMESTAMP DEFAULT NOW(),
						deleted_at TIMESTAMP NULL,
						FOREIGN KEY (team1_player1_id) REFERENCES players(id) ON DELETE CASCADE,
						FOREIGN KEY (team1_player2_id) REFERENCES players(id) ON DELETE CASCADE,
						FOREIGN KEY (team2_player1_id) REFERENCES players(id) ON DELETE CASCADE,
						FOREIGN KEY (team2_player2_id) REFERENCES players(id) ON DELETE CASCADE
					);
					CREATE INDEX IF NOT EXISTS idx_matches_deleted_at ON matches(deleted_at);
					CREATE INDEX IF NOT EXISTS idx_matches_match_type ON matches(match_type);
					CREATE INDEX IF NOT EXISTS idx_matches_played_at ON matches(played_at);
				`).Error; err != nil {
					return err
				}

				// One row per unordered pair per match type.
				if err := db.Exec(`
					CREATE TABLE IF NOT EXISTS team_ratings (
						id BIGSERIAL PRIMARY KEY,
						team_key VARCHAR(80) NOT NULL,
						match_type VARCHAR(10) NOT NULL,
						player1_id UUID NOT NULL,
						player2_id UUID NOT NULL,
						rating FLOAT DEFAULT 1500,
						rating_deviation FLOAT DEFAULT 350,
						volatility FLOAT DEFAULT 0.06,
						synergy_bonus FLOAT DEFAULT 0,
						matches_played INT DEFAULT 0,
						last_played_at TIMESTAMP NULL,
						created_at TIMESTAMP DEFAULT NOW(),
						updated_at TIMESTAMP DEFAULT NOW(),
						deleted_at TIMESTAMP NULL,
						FOREIGN KEY (player1_id) REFERENCES players(id) ON DELETE CASCADE,
						FOREIGN KEY (player2_id) REFERENCES players(id) ON DELETE CASCADE
					);
					CREATE UNIQUE INDEX IF NOT EXISTS idx_team_key_match_type ON team_ratings(team_key, match_type);
					CREATE INDEX IF NOT EXISTS idx_team_ratings_deleted_at ON team_ratings(deleted_at);
				`).Error; err != nil {
					return err
				}

				if err := db.Exec(`
					CREATE TABLE IF NOT EXISTS player_rating_history (
						id BIGSERIAL PRIMARY KEY,
						player_id UUID NOT NULL,
						match_id BIGINT NULL,
						match_type VARCHAR(10) NOT NULL,
						entry_type VARCHAR(10) NOT NULL DEFAULT 'match',
						rating_before FLOAT NOT NULL,
						rating_after FLOAT NOT NULL,
						rating_change FLOAT NOT NULL,
						rating_deviation FLOAT NOT NULL,
						confidence_level FLOAT NOT NULL,
						created_at TIMESTAMP DEFAULT NOW(),
						deleted_at TIMESTAMP NULL,
						FOREIGN KEY (player_id) REFERENCES players(id) ON DELETE CASCADE,
						FOREIGN KEY (match_id) REFERENCES matches(id) ON DELETE CASCADE
					);
					CREATE INDEX IF NOT EXISTS idx_player_rating_history_player_id ON player_rating_history(player_id);
					CREATE INDEX IF NOT EXISTS idx_player_rating_history_match_id ON player_rating_history(match_id);
				`).Error; err != nil {
					return err
				}

				return db.Exec(`
					CREATE TABLE IF NOT EXISTS team_rating_history (
						id BIGSERIAL PRIMARY KEY,
						team_key VARCHAR(80) NOT NULL,
						match_id BIGINT NULL,
						match_type VARCHAR(10) NOT NULL,
						entry_type VARCHAR(10) NOT NULL DEFAULT 'match',
						rating_before FLOAT NOT NULL,
						rating_after FLOAT NOT NULL,
						rating_change FLOAT NOT NULL,
						rating_deviation FLOAT NOT NULL,
						confidence_level FLOAT NOT NULL,
						created_at TIMESTAMP DEFAULT NOW(),
						deleted_at TIMESTAMP NULL,
						FOREIGN KEY (match_id) REFERENCES matches(id) ON DELETE CASCADE
					);
					CREATE INDEX IF NOT EXISTS idx_team_rating_history_team_key ON team_rating_history(team_key);
					CREATE INDEX IF NOT EXISTS idx_team_rating_history_match_id ON team_rating_history(match_id);
				`).Error
			},
			Down: func(db *gorm.DB) error {
				return db.Exec(`
					DROP TABLE IF EXISTS team_rating_history;
					DROP TABLE IF EXISTS player_rating_history;
					DROP TABLE IF EXISTS team_ratings;
					DROP TABLE IF EXISTS matches;
					DROP TABLE IF EXISTS players;
				`).Error
			},
		},
	}
}
