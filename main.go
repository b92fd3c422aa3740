package main

import (
	"log"
	"time"

	"sedecam/api"
	"sedecam/clock"
	"sedecam/config"
	"sedecam/cron"
	"sedecam/database"
	"sedecam/mailer"
	"sedecam/monitoring"
	"sedecam/ptz"
	"sedecam/service"
	"sedecam/streamproc"

	"github.com/joho/godotenv"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load config
	cfg := config.LoadConfig()

	// Ensure all required directories exist
	config.EnsurePaths(cfg)

	// Initialize database
	db, err := database.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize SQLite database:", err)
	}
	defer db.Close()

	// Initialize civil timezone clock
	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		log.Fatal("Failed to load timezone:", err)
	}

	// Initialize mailer; alerts are optional and the system runs without them
	var mail mailer.Sender
	if smtpMailer, err := mailer.NewSMTPMailer(cfg); err != nil {
		log.Printf("Mail notifications disabled: %v", err)
	} else {
		mail = smtpMailer
	}

	// Initialize stream process generator
	generator := streamproc.NewGenerator(cfg.ScriptsPath, cfg.LivePath, cfg.UnitsPath, cfg.BaseURL, streamproc.ExecRunner{})

	// Initialize business layer
	services := service.NewServiceManager(db, clk)
	cameras := service.NewCameraManager(db, generator, mail, cfg.SupportEmail)
	gateway := ptz.NewGateway(db, time.Duration(cfg.CameraTimeoutSeconds)*time.Second)

	// Start the streaming reconciliation scheduler
	reconciler := cron.NewStreamingReconciler(db, generator, mail, clk, cfg.SupportEmail,
		time.Duration(cfg.TickIntervalSeconds)*time.Second)
	schedule, err := reconciler.Start()
	if err != nil {
		log.Fatal("Failed to start streaming reconcile cron:", err)
	}
	defer schedule.Stop()

	// Start resource monitoring
	monitoring.StartMonitoring(time.Duration(cfg.MonitorIntervalSeconds)*time.Second, func() (int, error) {
		current, err := db.ListCurrentStreamingServices()
		if err != nil {
			return 0, err
		}
		count := 0
		for _, svc := range current {
			count += len(svc.Cameras)
		}
		return count, nil
	})

	// Start web server
	server := api.NewServer(cfg, db, services, cameras, gateway)
	server.Start()
}
