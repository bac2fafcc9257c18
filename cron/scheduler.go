package cron

import (
	"log"
	"time"

	"sandscore-api/services"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic RD-decay job: players and teams idle past
// the decay period get their rating deviation inflated and a decay
// snapshot appended to their history.
type Scheduler struct {
	cron  *cron.Cron
	store *services.RatingStore
}

func NewScheduler(store *services.RatingStore) *Scheduler {
	c := cron.New(cron.WithSeconds(), cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))

	return &Scheduler{
		cron:  c,
		store: store,
	}
}

// Start schedules all jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	log.Println("Starting cron scheduler...")

	// Weekly decay pass, Sunday 03:00.
	_, err := s.cron.AddFunc("0 0 3 * * 0", s.runDecayPass)
	if err != nil {
		log.Printf("Error scheduling decay job: %v", err)
		return err
	}

	s.cron.Start()
	log.Println("Cron scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping cron scheduler...")
	s.cron.Stop()
	log.Println("Cron scheduler stopped")
}

func (s *Scheduler) runDecayPass() {
	log.Println("Running RD decay job...")

	decayed, err := s.store.DecayInactive("", time.Now())
	if err != nil {
		log.Printf("Error during RD decay pass: %v", err)
		return
	}

	if decayed == 0 {
		log.Println("No inactive entities to decay")
		return
	}
	log.Printf("RD decay job complete: %d entities decayed", decayed)
}

// RunNow manually triggers the decay job (useful for testing).
func (s *Scheduler) RunNow() {
	log.Println("Manually triggering RD decay job...")
	s.runDecayPass()
}
