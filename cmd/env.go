package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathwiz/internal/auth"
	"github.com/abhisek/mathwiz/internal/config"
	"github.com/abhisek/mathwiz/internal/logging"
	"github.com/abhisek/mathwiz/internal/store"
)

const defaultStudent = "default"

// env is what every subcommand works with: settings, an open store and a
// context carrying the student.
type env struct {
	cfg     config.Config
	store   *store.Store
	ctx     context.Context
	student string
}

// openEnv loads config, installs the logger and opens the store. The --db
// flag wins over the config file and MATHWIZ_DB.
func openEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DBPath = p
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())

	st, err := store.Open(cfg.DBPath, store.WithDefaultTimeBuckets(cfg.Thresholds()))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	student, _ := cmd.Flags().GetString("student")
	grade, _ := cmd.Flags().GetString("grade")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = auth.WithStudent(ctx, auth.Identity{StudentID: student, GradeLevel: grade})

	return &env{cfg: cfg, store: st, ctx: ctx, student: student}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
