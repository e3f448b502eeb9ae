// Package bootstrap builds stores and services from configuration.
// Shared by the server and report commands.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"finance-dashboard/internal/config"
	"finance-dashboard/internal/fixtures"
	"finance-dashboard/internal/integrations/cbr"
	"finance-dashboard/internal/notify"
	"finance-dashboard/internal/observability"
	"finance-dashboard/internal/simulation"
	"finance-dashboard/internal/storage"
	chstore "finance-dashboard/internal/storage/clickhouse"
	"finance-dashboard/internal/storage/memory"
	"finance-dashboard/internal/storage/migrations"
	pgstore "finance-dashboard/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Accounts    storage.AccountStore
	Flows       storage.ScheduledFlowStore
	Projections storage.ProjectionStore
	Snapshots   storage.MetricsSnapshotStore
}

// OpenStores creates the configured stores. Memory mode is seeded with
// fixtures; db mode runs migrations first. The returned func releases
// connections.
func OpenStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Stores, func(), error) {
	if cfg.Storage.Mode == config.StorageMemory {
		stores := &Stores{
			Accounts:    memory.NewAccountStore(),
			Flows:       memory.NewScheduledFlowStore(),
			Projections: memory.NewProjectionStore(),
			Snapshots:   memory.NewMetricsSnapshotStore(),
		}
		if err := fixtures.Load(ctx, stores.Accounts, stores.Flows); err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		log.WithField("accounts", len(fixtures.Accounts())).Info("using in-memory storage with fixtures")
		return stores, func() {}, nil
	}

	// PostgreSQL (accounts, flows, snapshots)
	pool, err := pgstore.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.ConnectAttempts, cfg.Postgres.ConnectDelay)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool, log)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	log.WithField("applied", applied).Info("postgres migrations done")

	// ClickHouse (projections)
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN, log)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &Stores{
		Accounts:    pgstore.NewAccountStore(pool),
		Flows:       pgstore.NewScheduledFlowStore(pool),
		Snapshots:   pgstore.NewMetricsSnapshotStore(pool),
		Projections: chstore.NewProjectionStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// NewRates returns the configured rate provider.
func NewRates(cfg *config.Config, log logrus.FieldLogger, m *observability.Metrics) simulation.RateProvider {
	if cfg.Rates.Source == "cbr" {
		return cbr.NewClient(cbr.Options{
			URL:     cfg.Rates.CBRURL,
			Logger:  log,
			OnFetch: m.RecordRateFetch,
		})
	}
	return simulation.NewStaticRates(cfg.Rates.Base, fixtures.Rates())
}

// NewNotifier returns a log notifier, plus email when SMTP is configured.
func NewNotifier(cfg *config.Config, log logrus.FieldLogger) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(log)}

	if cfg.SMTP.Host != "" {
		email, err := notify.NewEmailNotifier(notify.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.Recipients(),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("email notifier: %w", err)
		}
		notifiers = append(notifiers, email)
	}
	return notifiers, nil
}
