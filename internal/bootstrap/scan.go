package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"riskscan/internal/config"
	"riskscan/internal/infra/entitydir"
	"riskscan/internal/infra/judge"
	"riskscan/internal/infra/retrieval"
	"riskscan/internal/infra/social"
	"riskscan/internal/repository"
	"riskscan/internal/usecase/audit"
	"riskscan/internal/usecase/scan"
)

// HeuristicJudge is reported as the judge name when no provider is set.
const HeuristicJudge = "heuristic"

// Pipeline is the assembled scan service and the breakers of its providers.
type Pipeline struct {
	Service   *scan.Service
	JudgeName string
	Breakers  []Breaker
}

type breakerReporter interface {
	BreakerState() gobreaker.State
}

// BuildScan wires retrieval, judgment and lookups from cfg. auditRepo feeds
// prior Confirm decisions into the historical context; it may be nil.
func BuildScan(cfg *config.Config, auditRepo repository.AuditRepository, logger *slog.Logger) (*Pipeline, error) {
	p := &Pipeline{JudgeName: HeuristicJudge}
	track := func(name string, v any) {
		if r, ok := v.(breakerReporter); ok {
			p.Breakers = append(p.Breakers, Breaker{Name: name, State: r.BreakerState})
		}
	}

	catalogue, err := config.LoadCatalogue(cfg.SourcesFile)
	if err != nil {
		return nil, err
	}
	normalizer := retrieval.NewNormalizer(catalogue)

	fetcher := &scan.Fetcher{
		Catalogue: catalogue,
		PageSize:  cfg.Retrieval.PageSize,
		Timeout:   cfg.Retrieval.Timeout,
	}
	if cfg.Retrieval.NewsAPIKey != "" {
		news := retrieval.NewNewsAPI(retrieval.NewsAPIConfig{
			APIKey:  cfg.Retrieval.NewsAPIKey,
			BaseURL: cfg.Retrieval.NewsAPIBaseURL,
			Timeout: cfg.Retrieval.Timeout,
		}, normalizer)
		fetcher.Providers = append(fetcher.Providers, news)
		track("newsapi", news)
	}

	var history audit.HistoryChain
	if cfg.Retrieval.ElasticsearchURL != "" {
		archive, err := retrieval.NewArchive(cfg.Retrieval.ElasticsearchURL, cfg.Retrieval.ElasticsearchIndex, normalizer)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		fetcher.Providers = append(fetcher.Providers, archive)
		history = append(history, archive)
		track("archive", archive)
	}
	if cfg.FixturesFile != "" {
		fixture, err := retrieval.LoadFixture(cfg.FixturesFile, normalizer)
		if err != nil {
			return nil, err
		}
		fetcher.Fixture = fixture
		logger.Info("fixture documents enabled", slog.String("file", cfg.FixturesFile))
	}
	if len(fetcher.Providers) == 0 && fetcher.Fixture == nil {
		logger.Warn("no retrieval provider configured; every scan will report no data")
	}

	j, err := judge.New(judge.Config{
		Provider:  cfg.Judge.Provider,
		APIKey:    cfg.Judge.APIKey,
		Model:     cfg.Judge.Model,
		MaxTokens: cfg.Judge.MaxTokens,
		BaseURL:   cfg.Judge.BaseURL,
		Timeout:   cfg.Judge.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("judge: %w", err)
	}
	if j != nil {
		p.JudgeName = j.Name()
		track("judge_"+j.Name(), j)
	} else {
		logger.Warn("no judge provider configured, classifying with keyword heuristics")
	}

	svc := &scan.Service{
		Fetcher: fetcher,
		Classifier: &scan.Classifier{
			Judge:        j,
			Limiter:      rate.NewLimiter(rate.Limit(cfg.Judge.RatePerSec), cfg.Judge.RatePerSec),
			Parallelism:  cfg.Judge.Parallelism,
			Timeout:      cfg.Judge.Timeout,
			MaxDocuments: cfg.Judge.MaxDocuments,
		},
		Briefs: &scan.BriefGenerator{
			Judge:   j,
			Timeout: cfg.Judge.BriefTimeout,
			TopN:    cfg.Judge.BriefTopN,
		},
		MaxSignals: cfg.Social.MaxSignals,
	}

	if cfg.EntityDirectoryFile != "" {
		dir, err := entitydir.Load(cfg.EntityDirectoryFile)
		if err != nil {
			return nil, err
		}
		svc.Related = dir
	}

	switch {
	case cfg.Social.MastodonURL != "":
		m := social.NewMastodon(cfg.Social.MastodonURL, cfg.Social.Timeout)
		svc.Social = m
		track("social", m)
	case cfg.FixturesFile != "":
		f, err := social.LoadFixture(cfg.FixturesFile)
		if err != nil {
			return nil, err
		}
		svc.Social = f
	}

	if auditRepo != nil {
		history = append(history, &audit.ConfirmedHistory{Repo: auditRepo})
	}
	if len(history) > 0 {
		svc.History = history
	}

	if cfg.Retrieval.EnrichBodies {
		svc.Enricher = retrieval.NewReadabilityEnricher(retrieval.DefaultEnricherConfig(), normalizer)
		svc.EnrichTop = cfg.Retrieval.EnrichTop
	}

	logger.Info("scan pipeline assembled",
		slog.Int("providers", len(fetcher.Providers)),
		slog.Bool("fixture", fetcher.Fixture != nil),
		slog.String("judge", p.JudgeName),
		slog.Bool("related", svc.Related != nil),
		slog.Bool("social", svc.Social != nil),
		slog.Int("history_sources", len(history)),
		slog.Bool("enrich", svc.Enricher != nil))

	p.Service = svc
	return p, nil
}
