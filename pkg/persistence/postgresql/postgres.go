// Package postgresql provides PostgreSQL persistence for templates and projects.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/hartline/clientops/pkg/persistence"
	"github.com/hartline/clientops/pkg/persistence/sqlbase"
)

// querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// against a connection pool or inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	templateRepo *TemplateRepository
	projectRepo  *ProjectRepository
	stageRepo    *StageRepository
	taskRepo     *TaskRepository
}

// NewPersistence connects to PostgreSQL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return newWithQuerier(database, database, logger), nil
}

func newWithQuerier(db *sql.DB, q querier, logger *slog.Logger) *Persistence {
	return &Persistence{
		db:           db,
		logger:       logger,
		templateRepo: &TemplateRepository{q: q, logger: logger},
		projectRepo:  &ProjectRepository{q: q, logger: logger},
		stageRepo:    &StageRepository{q: q, logger: logger},
		taskRepo:     &TaskRepository{q: q, logger: logger},
	}
}

func (p *Persistence) Templates() persistence.TemplateRepository {
	return p.templateRepo
}

func (p *Persistence) Projects() persistence.ProjectRepository {
	return p.projectRepo
}

func (p *Persistence) Stages() persistence.StageRepository {
	return p.stageRepo
}

func (p *Persistence) Tasks() persistence.TaskRepository {
	return p.taskRepo
}

// WithTransaction runs fn against repositories bound to a single database
// transaction. The transaction is rolled back when fn returns an error.
func (p *Persistence) WithTransaction(ctx context.Context, fn func(persistence.Persistence) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(newWithQuerier(p.db, tx, p.logger))
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.ErrorContext(ctx, "failed to roll back transaction", "error", rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
