package main

import (
	"log"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/api"
	"github.com/Celag1/logicqp-sub003/internal/config"
	"github.com/Celag1/logicqp-sub003/internal/database"
	"github.com/Celag1/logicqp-sub003/internal/fetch"
	"github.com/Celag1/logicqp-sub003/internal/notify"
	"github.com/Celag1/logicqp-sub003/internal/render"
	"github.com/Celag1/logicqp-sub003/internal/report"
	"github.com/Celag1/logicqp-sub003/internal/schedule"
	"github.com/Celag1/logicqp-sub003/internal/scheduler"
	"github.com/Celag1/logicqp-sub003/internal/store"
	"github.com/Celag1/logicqp-sub003/internal/track"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(database.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Timezone, err)
	}

	calculator := schedule.NewCalculator(schedule.NewCronEvaluator())

	templates := store.NewTemplateStore(db)
	schedules := store.NewScheduleStore(db, calculator)
	tracker := track.NewTracker(db)

	fetchers := fetch.NewRegistry(db)
	renderers := render.NewRegistry()

	artifacts, err := render.NewArtifactStore(cfg.Artifacts.Dir, cfg.Artifacts.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}

	notifier, err := notify.NewNotifier(notify.Config{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		EmailFrom:    cfg.Email.From,
		Password:     cfg.Email.Password,
		SlackToken:   cfg.Slack.Token,
		SlackChannel: cfg.Slack.Channel,
	})
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}

	executor := scheduler.NewExecutor(
		templates, schedules, tracker,
		fetchers, renderers, artifacts,
		calculator, notifier,
		cfg.Scheduler.RunTimeout,
	)

	dispatcher := scheduler.NewDispatcher(schedules, tracker, executor, cfg.Scheduler.Interval, cfg.Scheduler.Workers)
	if err := dispatcher.Start(); err != nil {
		log.Fatalf("Failed to start dispatcher: %v", err)
	}
	defer dispatcher.Stop()

	dashboard := report.NewDashboard(db, loc)

	server := api.NewServer(templates, schedules, tracker, dashboard, executor, cfg.Auth.JWTSecret)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
