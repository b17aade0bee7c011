package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"quote-management-api/internal/config"
	"quote-management-api/internal/controller"
	"quote-management-api/internal/jobs"
	"quote-management-api/internal/logger"
	"quote-management-api/internal/metrics"
	"quote-management-api/internal/notify"
	"quote-management-api/internal/payment"
	"quote-management-api/internal/repo"
	"quote-management-api/internal/service"
	"quote-management-api/pkg/http_server"
	"quote-management-api/pkg/postgres"
)

func runMigrations(postgresDB *postgres.Postgres, sourceUrl string, log zerolog.Logger) {
	driver, err := pgmigrate.WithInstance(postgresDB.Database, &pgmigrate.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("migration driver init failed")
	}

	migrations, err := migrate.NewWithDatabaseInstance(sourceUrl, "postgres", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("migration setup failed")
	}

	if err := migrations.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info().Msg("no change made by migration scripts")
		} else {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
}

func Run() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	log.Info().Msg("connecting database")
	postgresDB, err := postgres.NewDB(cfg.PostgresConn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer postgresDB.Close()

	log.Info().Msg("running migrations")
	runMigrations(postgresDB, cfg.MigrationsUrl, log)

	m := metrics.New(prometheus.DefaultRegisterer)
	repositories := repo.NewRepositories(postgresDB)

	var sender notify.Sender
	if cfg.SmtpAddr != "" {
		sender = notify.NewEmailSender(cfg.SmtpAddr, cfg.SmtpFrom)
	} else {
		log.Warn().Msg("no SMTP server configured, notifications go to the log")
		sender = notify.NewLogSender(log)
	}
	outbox := notify.NewOutbox(sender, log, m)
	outboxCtx, stopOutbox := context.WithCancel(context.Background())
	outbox.Start(outboxCtx)

	services := service.NewServices(repositories, outbox, log, m)
	processor := payment.NewProcessor(repositories.Subscription,
		cfg.MerchantId, cfg.MerchantKey, cfg.PaymentPassphrase, cfg.PaymentNotifyUrl, log, m)

	reminder := jobs.NewReminder(repositories.QuoteRequest, repositories.Vendor, outbox, cfg.ReminderAge, log)
	if err := reminder.Start(cfg.ReminderSchedule); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReminderSchedule).Msg("reminder schedule invalid")
	}

	log.Info().Msg("setting up routes")
	handler := echo.New()
	controller.SetupRoutesHandlers(handler, services, processor)

	log.Info().Str("address", cfg.ServerAddress).Msg("starting server")
	httpServer := http_server.New(handler, cfg.ServerAddress)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info().Str("signal", s.String()).Msg("got signal")
	case err = <-httpServer.Notify():
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("shutting down")
	reminder.Stop()
	stopOutbox()
	outbox.Wait()
	if err := httpServer.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	} else {
		log.Info().Msg("successful shutdown")
	}
}
