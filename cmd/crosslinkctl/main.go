// crosslinkctl administers the corpus: index lifecycle, statistics, CSV
// loading, and relationship mapping export.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/config"
	"github.com/kailas-cloud/crosslink/internal/db"
	dbRedis "github.com/kailas-cloud/crosslink/internal/db/redis"
	"github.com/kailas-cloud/crosslink/internal/domain"
	logpkg "github.com/kailas-cloud/crosslink/internal/logger"
	"github.com/kailas-cloud/crosslink/internal/repository/vector"
	"github.com/kailas-cloud/crosslink/internal/schema"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
	"github.com/kailas-cloud/crosslink/internal/transport/cohere"
	openaiEmb "github.com/kailas-cloud/crosslink/internal/transport/openai"
	"github.com/kailas-cloud/crosslink/internal/usecase/ingest"
	"github.com/kailas-cloud/crosslink/internal/usecase/mapping"
	searchuc "github.com/kailas-cloud/crosslink/internal/usecase/search"
	"github.com/kailas-cloud/crosslink/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "crosslinkctl",
		Usage:   "manage the crosslink corpus index",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "configuration environment (local, dev, prod)",
				Value:   config.GetEnv(),
				EnvVars: []string{"ENV"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init-index",
				Usage:  "create the corpus vector index",
				Action: runInitIndex,
			},
			{
				Name:  "drop-index",
				Usage: "drop the corpus vector index",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "confirm dropping the index",
					},
				},
				Action: runDropIndex,
			},
			{
				Name:   "stats",
				Usage:  "print corpus index statistics",
				Action: runStats,
			},
			{
				Name:      "load",
				Usage:     "load corpus entries from a CSV file",
				ArgsUsage: "<file.csv>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "parallel embedding calls",
						Value: 8,
					},
				},
				Action: runLoad,
			},
			{
				Name:      "delete",
				Usage:     "delete one corpus entry",
				ArgsUsage: "<control_id>",
				Action:    runDelete,
			},
			{
				Name:      "map",
				Usage:     "export cross-framework relationships for a corpus CSV",
				ArgsUsage: "<file.csv>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "output CSV path",
						Value: "mappings.csv",
					},
				},
				Action: runMap,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env holds the shared dependencies built per command invocation.
type env struct {
	cfg    config.Config
	store  *dbRedis.Store
	repo   *vector.Repo
	logger *zap.Logger
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(c.String("env"), cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	ctx := c.Context
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	repo := vector.New(store, cfg.Storage.KeyPrefix+"corpus:", []string{
		schema.FieldControlID,
		schema.FieldFramework,
		schema.FieldTitle,
		schema.FieldText,
		schema.FieldNormalizedText,
	}).WithHNSW(vector.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})

	return &env{cfg: cfg, store: store, repo: repo, logger: logger}, nil
}

func (e *env) close() {
	e.store.Close()
	_ = e.logger.Sync()
}

func runInitIndex(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	err = e.repo.EnsureIndex(
		c.Context,
		e.cfg.Embedding.Dimensions,
		db.DistanceCosine,
		[]string{schema.FieldControlID, schema.FieldFramework},
		[]string{schema.FieldTitle, schema.FieldText, schema.FieldNormalizedText},
	)
	if errors.Is(err, db.ErrIndexExists) {
		fmt.Printf("index %s already exists\n", e.repo.IndexName())
		return nil
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	fmt.Printf("index %s created (dim=%d)\n", e.repo.IndexName(), e.cfg.Embedding.Dimensions)
	return nil
}

func runDropIndex(c *cli.Context) error {
	if !c.Bool("yes") {
		return errors.New("refusing to drop index without --yes")
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.repo.DropIndex(c.Context); err != nil {
		return fmt.Errorf("drop index: %w", err)
	}

	fmt.Printf("index %s dropped\n", e.repo.IndexName())
	return nil
}

func runStats(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	stats, err := e.repo.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("index stats: %w", err)
	}

	fmt.Printf("index:      %s\n", e.repo.IndexName())
	fmt.Printf("documents:  %d\n", stats.NumDocs)
	fmt.Printf("records:    %d\n", stats.NumRecords)
	fmt.Printf("indexing:   %v\n", stats.Indexing)
	return nil
}

func runLoad(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one CSV file argument")
	}
	path := c.Args().First()

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     e.cfg.Embedding.APIKey,
		BaseURL:    e.cfg.Embedding.BaseURL,
		Model:      e.cfg.Embedding.Model,
		Dimensions: e.cfg.Embedding.Dimensions,
		Logger:     e.logger,
	})

	svc := ingest.New(embedder, e.repo, schema.NewControlSchema(), e.logger).
		WithConcurrency(c.Int("concurrency"))

	start := time.Now()
	n, err := svc.LoadCSV(c.Context, f)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	fmt.Printf("loaded %d entries in %s\n", n, time.Since(start).Round(time.Millisecond))
	return nil
}

func runDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one control id argument")
	}
	id := c.Args().First()

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.repo.Delete(c.Context, id); err != nil {
		return err
	}

	fmt.Printf("deleted %s\n", id)
	return nil
}

func runMap(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one CSV file argument")
	}
	path := c.Args().First()

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.close()

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.Create(c.String("out"))
	if err != nil {
		return fmt.Errorf("create %s: %w", c.String("out"), err)
	}
	defer out.Close()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     e.cfg.Embedding.APIKey,
		BaseURL:    e.cfg.Embedding.BaseURL,
		Model:      e.cfg.Embedding.Model,
		Dimensions: e.cfg.Embedding.Dimensions,
		Logger:     e.logger,
	})

	var reranker searchuc.Reranker
	if e.cfg.Rerank.APIKey != "" {
		reranker = cohere.NewReranker(&cohere.Config{
			APIKey:  e.cfg.Rerank.APIKey,
			BaseURL: e.cfg.Rerank.BaseURL,
			Model:   e.cfg.Rerank.Model,
			Timeout: time.Duration(e.cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  e.logger,
		})
	}

	cfgStore := searchcfg.NewStore(
		e.cfg.Search.SavedConfigPath, e.cfg.Search.DefaultConfigPath, e.logger)
	if _, err := cfgStore.Load(); err != nil {
		return fmt.Errorf("load search config: %w", err)
	}

	controls := schema.NewControlSchema()
	searchSvc := searchuc.New(embedder, e.repo, reranker, controls,
		cfgStore, domain.NewSearchStats(), nil, e.logger)

	start := time.Now()
	rows, err := mapping.New(searchSvc, controls, e.logger).MapCSV(c.Context, in, out)
	if err != nil {
		return fmt.Errorf("export mappings: %w", err)
	}

	fmt.Printf("exported %d relationships to %s in %s\n",
		rows, c.String("out"), time.Since(start).Round(time.Millisecond))
	return nil
}
