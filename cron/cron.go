package cron

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"reolink-sync/engine"
)

// StartRefreshCron schedules the periodic refresh cycle and kicks off an
// immediate first run. The engine serializes overlapping cycles itself, so a
// slow cycle simply causes the next tick to be skipped.
func StartRefreshCron(eng *engine.Engine, intervalMinutes int) *cron.Cron {
	c := cron.New()

	spec := fmt.Sprintf("@every %dm", intervalMinutes)
	if _, err := c.AddFunc(spec, func() {
		eng.Refresh(context.Background())
	}); err != nil {
		log.Printf("Failed to schedule refresh job: %v", err)
		return c
	}

	c.Start()
	log.Printf("Scheduled refresh every %d minutes", intervalMinutes)

	go eng.Refresh(context.Background())

	return c
}
