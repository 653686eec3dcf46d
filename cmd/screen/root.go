package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"riskscan/internal/bootstrap"
	"riskscan/internal/config"
	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
	auditUC "riskscan/internal/usecase/audit"
)

type scanner interface {
	Scan(ctx context.Context, query string) (entity.ScanResult, error)
}

type historyReader interface {
	History(ctx context.Context, limit int) ([]*entity.AuditRecord, error)
}

// session is what a command needs from the configured environment.
type session struct {
	scanner scanner
	history historyReader
	close   func() error
}

type app struct {
	out    io.Writer
	logger *slog.Logger
	open   func(ctx context.Context, logger *slog.Logger) (*session, error)
}

func defaultApp() *app {
	return &app{
		out:    os.Stdout,
		logger: logging.NewTextLogger(),
		open:   openSession,
	}
}

// openSession loads the environment configuration and assembles the
// pipeline and the audit store.
func openSession(ctx context.Context, logger *slog.Logger) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := bootstrap.OpenAudit(ctx, cfg.Audit, logger)
	if err != nil {
		return nil, err
	}
	p, err := bootstrap.BuildScan(cfg, store.Repo, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{
		scanner: p.Service,
		history: &auditUC.Service{Repo: store.Repo},
		close:   store.Close,
	}, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "screen",
		Short: "Adverse media screening from the command line",
		Long: `screen runs the adverse-media pipeline against the providers configured
in the environment (NEWSAPI_KEY, ELASTICSEARCH_URL, JUDGE_PROVIDER, ...).

Examples:
  screen scan "Acme Corp"          # print brief and clusters
  screen scan "Acme Corp" --json   # print the API response body
  screen history --limit 20        # print recent analyst decisions`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.AddCommand(newScanCmd(a), newHistoryCmd(a))
	return root
}

// withSession opens a session for the duration of fn.
func (a *app) withSession(ctx context.Context, fn func(*session) error) error {
	s, err := a.open(ctx, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if s.close != nil {
			if err := s.close(); err != nil {
				a.logger.Warn("failed to close session", slog.Any("error", err))
			}
		}
	}()
	return fn(s)
}
