package resource

import (
	"context"
	"sync"

	"finance-client/internal/logging"
	"finance-client/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// GamificationAPI is the gateway surface the gamification loader uses.
type GamificationAPI interface {
	Points(ctx context.Context) (int, error)
	Achievements(ctx context.Context) ([]models.Achievement, error)
	Progress(ctx context.Context) (models.Progress, error)
}

const gamificationFailed = "Failed to load achievements"

// GamificationData is the points, level and badges of the current user.
type GamificationData struct {
	Points       int
	Achievements []models.Achievement
	Progress     models.Progress
}

// Unlocked counts the achievements already earned.
func (d GamificationData) Unlocked() int {
	n := 0
	for _, a := range d.Achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}

// GamificationState is a snapshot of the gamification loader.
type GamificationState struct {
	Data    GamificationData
	Loading bool
	Err     string
}

// Gamification loads points, achievements and progress together, all or
// nothing like Charts.
type Gamification struct {
	gw  GamificationAPI
	log *logrus.Entry

	mu    sync.Mutex
	state GamificationState
	seq   uint64
}

// NewGamification creates a gamification loader.
func NewGamification(gw GamificationAPI, logger *logrus.Logger) *Gamification {
	return &Gamification{
		gw:    gw,
		log:   logging.For(logger, logging.ComponentResource).WithField("resource", "gamification"),
		state: GamificationState{Data: GamificationData{Achievements: []models.Achievement{}}},
	}
}

// State returns a copy of the current state.
func (g *Gamification) State() GamificationState {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.state
	s.Data.Achievements = append([]models.Achievement{}, g.state.Data.Achievements...)
	return s
}

func (g *Gamification) Load(ctx context.Context) error {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.state.Loading = true
	g.state.Err = ""
	g.mu.Unlock()

	var data GamificationData
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		points, err := g.gw.Points(ectx)
		data.Points = points
		return err
	})
	eg.Go(func() error {
		badges, err := g.gw.Achievements(ectx)
		data.Achievements = badges
		return err
	})
	eg.Go(func() error {
		progress, err := g.gw.Progress(ectx)
		data.Progress = progress
		return err
	})
	err := eg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.seq {
		return err
	}
	g.state.Loading = false
	if err != nil {
		g.state.Err = gamificationFailed
		g.log.WithError(err).Warn("Loading gamification failed")
		return err
	}
	g.state.Data = data
	return nil
}
