package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recipe-share/domain"
	"recipe-share/pkg/ingredient"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 1h"

var indexRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_index_runs_total",
		Help: "Ingredient indexing runs by result",
	},
	[]string{"result"},
)

// Indexer copies every ingredient into the search index, once at start and
// then on a cron schedule. A failed run is logged and retried on the next tick.
type Indexer struct {
	ingredients ingredient.IngredientRepository
	client      Client
	schedule    string
	timeout     time.Duration
	logger      *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

func NewIndexer(ingredients ingredient.IngredientRepository, client Client, schedule string, logger *zap.Logger) *Indexer {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		ingredients: ingredients,
		client:      client,
		schedule:    schedule,
		timeout:     5 * time.Minute,
		logger:      logger,
	}
}

// RunOnce indexes all ingredients and returns how many were sent.
func (i *Indexer) RunOnce(ctx context.Context) (int, error) {
	all, err := i.ingredients.GetAllIngredients(ctx)
	if err != nil {
		indexRunsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("read ingredients: %w", err)
	}

	docs := make([]domain.IngredientDocument, 0, len(all))
	for _, ing := range all {
		docs = append(docs, ingredient.ToDocument(ing))
	}

	if err := i.client.IndexIngredients(ctx, docs); err != nil {
		indexRunsTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	indexRunsTotal.WithLabelValues("success").Inc()
	return len(docs), nil
}

func (i *Indexer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	start := time.Now()
	n, err := i.RunOnce(ctx)
	if err != nil {
		i.logger.Error("ingredient indexing failed", zap.Error(err))
		return
	}
	i.logger.Info("ingredients indexed",
		zap.Int("count", n),
		zap.Duration("took", time.Since(start)),
	)
}

// Start runs one indexing pass and schedules the rest.
func (i *Indexer) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(i.schedule, i.run); err != nil {
		return fmt.Errorf("schedule %q: %w", i.schedule, err)
	}

	go i.run()
	c.Start()
	i.cron = c
	return nil
}

// Stop halts the schedule and waits for a running pass to finish or ctx to end.
func (i *Indexer) Stop(ctx context.Context) {
	i.mu.Lock()
	c := i.cron
	i.cron = nil
	i.mu.Unlock()

	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}
