package main

import (
	"log"

	"github.com/joho/godotenv"

	"reolink-sync/api"
	"reolink-sync/catalog"
	"reolink-sync/config"
	"reolink-sync/cron"
	"reolink-sync/database"
	"reolink-sync/engine"
	"reolink-sync/events"
	"reolink-sync/hass"
	"reolink-sync/storage"
	"reolink-sync/store"
	"reolink-sync/transcode"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.LoadConfig()
	config.EnsurePaths(cfg)

	// Download history is supplementary; a broken database file should not
	// stop the sync loop.
	var db database.Database
	sqlite, err := database.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.Printf("History database disabled: %v", err)
	} else {
		db = sqlite
		defer sqlite.Close()
	}

	client := hass.NewClient(cfg.HassHost, cfg.HassToken, cfg.RequestTimeout)
	browser := catalog.NewHassBrowser(client, cfg.MediaPlayerEntity)
	transcoder := transcode.NewFFmpeg(cfg.TranscodeTimeout)
	metaStore := store.NewMetadataStore(cfg.MetadataDir())

	var mirror *storage.S3Mirror
	if cfg.S3Enabled {
		m, err := storage.NewS3Mirror(storage.S3Config{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
		})
		if err != nil {
			log.Printf("S3 mirror disabled: %v", err)
		} else {
			mirror = m
		}
	}

	eng := engine.New(cfg, browser, client, transcoder, metaStore, db, mirror)

	if cfg.MQTTBrokerURL != "" {
		publisher, err := events.NewPublisher(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			log.Printf("MQTT publishing disabled: %v", err)
		} else {
			defer publisher.Close()
			eng.AddListener(func() {
				for _, u := range eng.LastUpdates() {
					event := events.RecordingUpdated{
						ID:        u.ID,
						Camera:    u.Camera,
						EventType: u.EventType,
					}
					if err := publisher.PublishRecordingUpdated(event); err != nil {
						log.Printf("Error publishing update for %s: %v", u.Camera, err)
					}
				}
			})
		}
	}

	scheduler := cron.StartRefreshCron(eng, cfg.ScanIntervalMinutes)
	defer scheduler.Stop()

	server := api.NewServer(cfg, eng, db)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
