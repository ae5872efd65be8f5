package resource

import (
	"context"
	"sync"

	"finance-client/internal/logging"
	"finance-client/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ChartAPI is the gateway surface the charts loader uses.
type ChartAPI interface {
	MonthlyBar(ctx context.Context) ([]models.MonthlyBar, error)
	CategorySpending(ctx context.Context) ([]models.CategorySpending, error)
	SavingsRate(ctx context.Context) ([]models.SavingsRate, error)
}

const chartsFailed = "Failed to load chart data"

// ChartData is everything the charts panel shows.
type ChartData struct {
	Monthly    []models.MonthlyBar
	Categories []models.CategorySpending
	Savings    []models.SavingsRate
}

// ChartState is a snapshot of the charts loader.
type ChartState struct {
	Data    ChartData
	Loading bool
	Err     string
}

// Charts loads the three chart series together. It is all or nothing: one
// failed series fails the load and keeps the previous data.
type Charts struct {
	gw  ChartAPI
	log *logrus.Entry

	mu    sync.Mutex
	state ChartState
	seq   uint64
}

// NewCharts creates a charts loader.
func NewCharts(gw ChartAPI, logger *logrus.Logger) *Charts {
	return &Charts{
		gw:  gw,
		log: logging.For(logger, logging.ComponentResource).WithField("resource", "charts"),
		state: ChartState{Data: ChartData{
			Monthly:    []models.MonthlyBar{},
			Categories: []models.CategorySpending{},
			Savings:    []models.SavingsRate{},
		}},
	}
}

// State returns a copy of the current state.
func (c *Charts) State() ChartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Data = ChartData{
		Monthly:    append([]models.MonthlyBar{}, c.state.Data.Monthly...),
		Categories: append([]models.CategorySpending{}, c.state.Data.Categories...),
		Savings:    append([]models.SavingsRate{}, c.state.Data.Savings...),
	}
	return s
}

// Load fetches every series in parallel.
func (c *Charts) Load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.state.Loading = true
	c.state.Err = ""
	c.mu.Unlock()

	var data ChartData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := c.gw.MonthlyBar(gctx)
		data.Monthly = rows
		return err
	})
	g.Go(func() error {
		rows, err := c.gw.CategorySpending(gctx)
		data.Categories = rows
		return err
	})
	g.Go(func() error {
		rows, err := c.gw.SavingsRate(gctx)
		data.Savings = rows
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return err
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = chartsFailed
		c.log.WithError(err).Warn("Loading charts failed")
		return err
	}
	c.state.Data = data
	return nil
}
