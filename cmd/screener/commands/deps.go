package commands

import (
	"fmt"

	"github.com/mkweon/athena/internal/pit"
	"github.com/mkweon/athena/internal/screen"
	"github.com/mkweon/athena/internal/store"
	"github.com/mkweon/athena/internal/strategy"
	"github.com/mkweon/athena/pkg/config"
	"github.com/mkweon/athena/pkg/database"
	"github.com/mkweon/athena/pkg/logger"
)

// runtime bundles the dependencies shared by every command.
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	store    *store.Store
	strategy *strategy.Config
	view     *pit.View
	pipeline *screen.Pipeline
}

// initRuntime loads config, connects to the database and wires the
// screening pipeline over the stored facts.
func initRuntime() (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy
	strat, err := loadStrategy()
	if err != nil {
		return nil, err
	}

	// 4. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 5. Create repositories
	st := store.New(db.Pool)

	// 6. Wire the point-in-time view and pipeline over stored facts
	view := pit.NewView(st.Facts, log)
	pipeline := screen.NewPipeline(view, strat, log)

	return &runtime{
		cfg:      cfg,
		log:      log,
		db:       db,
		store:    st,
		strategy: strat,
		view:     view,
		pipeline: pipeline,
	}, nil
}

// Close releases the runtime's connections.
func (r *runtime) Close() {
	r.db.Close()
}
