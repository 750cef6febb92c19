package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"atb_battle/internal/combat"
	"atb_battle/internal/config"
	"atb_battle/internal/qte"
	"atb_battle/internal/roster"
	"atb_battle/internal/util"
)

func main() {
	var env config.Overrides
	if err := config.ParseEnv(&env); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var cfgDir, out, deck, logLevel string
	var seed int64
	var n, workers int
	var limit, skillEvery float64
	var saveLog bool
	flag.StringVar(&cfgDir, "config", "assets", "config dir")
	flag.StringVar(&out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&deck, "deck", "poison", "deck id")
	flag.Int64Var(&seed, "seed", 0, "seed (0 keeps battle.yaml)")
	flag.IntVar(&n, "n", 1, "number of simulations")
	flag.IntVar(&workers, "workers", 8, "batch workers")
	flag.Float64Var(&limit, "limit", 120, "battle time limit in seconds")
	flag.Float64Var(&skillEvery, "skill-every", 3, "request a random ally skill every N seconds (0 disables)")
	flag.BoolVar(&saveLog, "log", true, "save full event log when n==1")
	flag.StringVar(&logLevel, "log-level", env.LogLevel, "debug|info|warn|error")
	flag.Parse()

	logger, err := newLogger(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	bundle, err := config.LoadAll(cfgDir)
	if err != nil {
		logger.Fatal("load config", zap.String("dir", cfgDir), zap.Error(err))
	}
	env.Apply(bundle.Battle)
	if seed != 0 {
		bundle.Battle.Seed = seed
	}
	if env.Deck != "" && !flagSet("deck") {
		deck = env.Deck
	}
	book, err := combat.NewSkillBook(bundle.Skills, bundle.Battle.Pacing.PhaseDelay)
	if err != nil {
		logger.Fatal("build skill book", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := combat.SimOptions{Deck: deck, Limit: limit, SkillInterval: skillEvery}
	if n <= 1 {
		opts.Record = saveLog
		res, err := runOne(ctx, bundle, book, bundle.Battle.Seed, opts, logger)
		if err != nil {
			logger.Fatal("simulate", zap.Error(err))
		}
		if err := os.WriteFile(out, combat.MarshalPretty(res), 0o644); err != nil {
			logger.Fatal("write result", zap.String("out", out), zap.Error(err))
		}
		fmt.Printf("Single sim finished. Outcome=%s, T=%.2fs -> %s\n", res.Outcome, res.Duration, out)
		return
	}

	type stat struct {
		Win      int
		SumT     float64
		ByActor  map[string]int
		Casts    map[string]int
		QTEAsked int
		QTEWon   int
	}
	st := stat{ByActor: map[string]int{}, Casts: map[string]int{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := 0; i < n; i++ {
		i := i
		runSeed := bundle.Battle.Seed + int64(i)*7919
		g.Go(func() error {
			res, err := runOne(gctx, bundle, book, runSeed, opts, logger.With(zap.Int("run", i)))
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Win {
				st.Win++
			}
			st.SumT += res.Duration
			for k, v := range res.DamageByActor {
				st.ByActor[k] += v
			}
			for k, v := range res.Casts {
				st.Casts[k] += v
			}
			st.QTEAsked += res.QTE.Requested
			st.QTEWon += res.QTE.Succeeded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Fatal("batch", zap.Error(err))
	}

	total := 0
	for _, v := range st.ByActor {
		total += v
	}
	shares := map[string]any{}
	for k, v := range st.ByActor {
		share := 0.0
		if total > 0 {
			share = float64(v) / float64(total)
		}
		shares[k] = map[string]any{"total": v, "ratio": share}
	}
	qteRate := 0.0
	if st.QTEAsked > 0 {
		qteRate = float64(st.QTEWon) / float64(st.QTEAsked)
	}
	summary := map[string]any{
		"runs":         n,
		"deck":         deck,
		"win_rate":     float64(st.Win) / float64(n),
		"avg_time":     st.SumT / float64(n),
		"total_damage": total,
		"by_actor":     shares,
		"casts":        st.Casts,
		"qte_rate":     qteRate,
	}
	if err := os.WriteFile(out, combat.MarshalPretty(summary), 0o644); err != nil {
		logger.Fatal("write summary", zap.String("out", out), zap.Error(err))
	}
	fmt.Printf("Batch %d done -> %s\n", n, filepath.Base(out))
}

// runOne plays one headless battle with its own battle, roster and rngs.
func runOne(ctx context.Context, bundle *config.Bundle, book *combat.SkillBook, seed int64, opts combat.SimOptions, logger *zap.Logger) (combat.SimResult, error) {
	cfg := *bundle.Battle
	cfg.Seed = seed
	rng := util.NewRoller(seed)
	events := &combat.EventLog{}
	b := combat.NewBattle(&cfg, combat.Deps{
		Logger:    logger,
		Presenter: events,
		QTE:       qte.NewAuto(cfg.QTE.SuccessRate, util.NewRoller(seed+1)),
		Clock:     combat.InstantClock{},
		Roster:    roster.New(bundle.Decks, book, cfg.Chances, util.NewRoller(seed+2), logger),
		Rng:       rng,
	})
	defer b.Shutdown()
	return combat.RunSingle(ctx, b, opts)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
