// Package engine wires the ledger, the quest engine and the progress engine
// onto the SQLite store and serialises every operation on them.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"questlife/internal/game"
	"questlife/internal/ledger"
	"questlife/internal/log"
	"questlife/internal/progress"
	"questlife/internal/quests"
	"questlife/internal/storage"
)

type Service struct {
	mu sync.Mutex

	db       *sql.DB
	users    *storage.UserRepo
	questDB  *storage.QuestRepo
	progDB   *storage.ProgressRepo
	ledger   *ledger.Ledger
	quests   *quests.Engine
	progress *progress.Engine
	metrics  *Metrics
	now      func() time.Time
}

type options struct {
	now        func() time.Time
	dailyGuard bool
	registerer prometheus.Registerer
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithDailyGuard toggles the once-per-day check on daily quests.
func WithDailyGuard(on bool) Option {
	return func(o *options) { o.dailyGuard = on }
}

// WithMetrics registers the service collectors on reg. Without it the
// collectors live on a private registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func NewService(db *sql.DB, opts ...Option) *Service {
	o := options{now: time.Now, dailyGuard: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registerer == nil {
		o.registerer = prometheus.NewRegistry()
	}

	s := &Service{
		db:      db,
		users:   storage.NewUserRepo(db),
		questDB: storage.NewQuestRepo(db),
		progDB:  storage.NewProgressRepo(db),
		metrics: MustNewMetrics(o.registerer),
		now:     o.now,
	}
	s.ledger = ledger.New(s.users, ledger.WithClock(o.now))
	s.progress = progress.New(s.progDB, s.ledger, progress.WithClock(o.now))
	s.quests = quests.New(s.questDB, s.ledger, s.progress,
		quests.WithClock(o.now),
		quests.WithDailyGuard(o.dailyGuard),
	)
	return s
}

// Load reads the hero, quests and bars from the store.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.Load(ctx); err != nil {
		return s.observe(err)
	}
	if err := s.quests.Load(ctx); err != nil {
		return s.observe(err)
	}
	if err := s.progress.Load(ctx); err != nil {
		return s.observe(err)
	}
	s.syncGauges()
	return nil
}

// run executes fn under the service lock and records level changes, gauges
// and persistence failures afterwards.
func (s *Service) run(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.ledger.User().Level
	err := fn()
	if after := s.ledger.User().Level; after > before {
		s.metrics.levelUps.Add(float64(after - before))
	}
	s.syncGauges()
	return s.observe(err)
}

func (s *Service) syncGauges() {
	u := s.ledger.User()
	s.metrics.level.Set(float64(u.Level))
	s.metrics.gold.Set(float64(u.Gold))
}

func (s *Service) observe(err error) error {
	var pe *game.PersistenceError
	if errors.As(err, &pe) {
		s.metrics.persistenceFailures.WithLabelValues(pe.Op).Inc()
	}
	return err
}

func (s *Service) countMilestones(updates ...game.BarUpdate) {
	for _, u := range updates {
		if n := len(u.Achieved); n > 0 {
			s.metrics.milestonesAchieved.Add(float64(n))
		}
	}
}

// Hero returns a snapshot of the hero.
func (s *Service) Hero() game.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.User()
}

func (s *Service) Achievements() []Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewAchievementChecker(s.ledger.User(), s.progress.List()).GetAchievements()
}

// Quests

func (s *Service) AddQuest(ctx context.Context, in quests.NewQuest) (game.Quest, error) {
	var q game.Quest
	err := s.run(func() (err error) {
		q, err = s.quests.Add(ctx, in)
		return err
	})
	return q, err
}

func (s *Service) UpdateQuest(ctx context.Context, id string, p quests.Patch) (game.Quest, error) {
	var q game.Quest
	err := s.run(func() (err error) {
		q, err = s.quests.Update(ctx, id, p)
		return err
	})
	return q, err
}

func (s *Service) ArchiveQuest(ctx context.Context, id string) error {
	return s.run(func() error { return s.quests.Archive(ctx, id) })
}

func (s *Service) DeleteQuest(ctx context.Context, id string) error {
	return s.run(func() error { return s.quests.Delete(ctx, id) })
}

func (s *Service) Quest(id string) (game.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quests.Get(id)
}

func (s *Service) Quests(f quests.Filter) []game.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quests.List(f)
}

func (s *Service) Today() []game.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quests.Today()
}

func (s *Service) UpcomingDeadlines(limit int) []game.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quests.UpcomingDeadlines(limit)
}

// CompleteQuest runs a quest completion and its whole cascade.
func (s *Service) CompleteQuest(ctx context.Context, id string) (*quests.CompleteResult, error) {
	var res *quests.CompleteResult
	err := s.run(func() (err error) {
		res, err = s.quests.Complete(ctx, id)
		if res != nil {
			s.metrics.questsCompleted.WithLabelValues(string(res.QuestType)).Inc()
			s.countMilestones(res.BarUpdates...)
		}
		return err
	})
	return res, err
}

// Hero

func (s *Service) ApplyExperience(ctx context.Context, amount int) (game.LevelChange, error) {
	var change game.LevelChange
	err := s.run(func() (err error) {
		change, err = s.ledger.ApplyExperience(ctx, amount)
		return err
	})
	return change, err
}

func (s *Service) Damage(ctx context.Context, amount int, reason string) (ledger.DamageResult, error) {
	var res ledger.DamageResult
	err := s.run(func() (err error) {
		res, err = s.ledger.Damage(ctx, amount, reason)
		if res.Died {
			s.metrics.deaths.Inc()
		}
		return err
	})
	return res, err
}

func (s *Service) HandleDeath(ctx context.Context) (ledger.DeathResult, error) {
	var res ledger.DeathResult
	err := s.run(func() (err error) {
		res, err = s.ledger.HandleDeath(ctx)
		if err == nil {
			s.metrics.deaths.Inc()
		}
		return err
	})
	return res, err
}

func (s *Service) Heal(ctx context.Context, amount int) error {
	return s.run(func() error { return s.ledger.HealHP(ctx, amount) })
}

func (s *Service) RestoreStamina(ctx context.Context, amount int) error {
	return s.run(func() error { return s.ledger.RestoreStamina(ctx, amount) })
}

func (s *Service) RestoreMana(ctx context.Context, amount int) error {
	return s.run(func() error { return s.ledger.RestoreMana(ctx, amount) })
}

func (s *Service) AdjustWellness(ctx context.Context, delta int) error {
	return s.run(func() error { return s.ledger.AdjustWellness(ctx, delta) })
}

// SpendGold deducts gold or fails with ErrInsufficientCurrency.
func (s *Service) SpendGold(ctx context.Context, amount int) error {
	return s.run(func() error {
		ok, err := s.ledger.SpendGold(ctx, amount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("spend %d gold: %w", amount, game.ErrInsufficientCurrency)
		}
		return nil
	})
}

// ChooseClass unlocks a first class or changes the current one.
func (s *Service) ChooseClass(ctx context.Context, c game.Class) error {
	return s.run(func() error {
		if s.ledger.User().Class == game.ClassNone {
			return s.ledger.UnlockClass(ctx, c)
		}
		return s.ledger.ChangeClass(ctx, c)
	})
}

func (s *Service) UpdateProfile(ctx context.Context, name, description string) error {
	return s.run(func() error { return s.ledger.UpdateProfile(ctx, name, description) })
}

// Progress bars

func (s *Service) CreateBar(ctx context.Context, in progress.NewBar) (game.ProgressBar, error) {
	var b game.ProgressBar
	err := s.run(func() (err error) {
		b, err = s.progress.Create(ctx, in)
		return err
	})
	return b, err
}

func (s *Service) CreateBarFromPreset(ctx context.Context, code string) (game.ProgressBar, error) {
	var b game.ProgressBar
	err := s.run(func() (err error) {
		b, err = s.progress.CreateFromPreset(ctx, code)
		return err
	})
	return b, err
}

func (s *Service) UpdateBar(ctx context.Context, id string, p progress.Patch) (game.ProgressBar, error) {
	var b game.ProgressBar
	err := s.run(func() (err error) {
		b, err = s.progress.Update(ctx, id, p)
		return err
	})
	return b, err
}

func (s *Service) DeleteBar(ctx context.Context, id string) error {
	return s.run(func() error { return s.progress.Delete(ctx, id) })
}

func (s *Service) Bar(id string) (game.ProgressBar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Get(id)
}

func (s *Service) Bars() []game.ProgressBar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.List()
}

func (s *Service) BarsByCategory() map[string][]game.ProgressBar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.ByCategory()
}

func (s *Service) AddRule(ctx context.Context, barID string, kind game.RuleKind, r game.Rule) (game.Rule, error) {
	var out game.Rule
	err := s.run(func() (err error) {
		out, err = s.progress.AddRule(ctx, barID, kind, r)
		return err
	})
	return out, err
}

func (s *Service) RemoveRule(ctx context.Context, barID, ruleID string) error {
	return s.run(func() error { return s.progress.RemoveRule(ctx, barID, ruleID) })
}

func (s *Service) AddMilestone(ctx context.Context, barID string, m game.Milestone) (game.Milestone, error) {
	var out game.Milestone
	err := s.run(func() (err error) {
		out, err = s.progress.AddMilestone(ctx, barID, m)
		if out.Achieved {
			s.metrics.milestonesAchieved.Inc()
		}
		return err
	})
	return out, err
}

func (s *Service) RemoveMilestone(ctx context.Context, barID, milestoneID string) error {
	return s.run(func() error { return s.progress.RemoveMilestone(ctx, barID, milestoneID) })
}

// SetBarValue moves a bar to value as a manual change.
func (s *Service) SetBarValue(ctx context.Context, barID string, value float64, reason string) (game.BarUpdate, error) {
	var u game.BarUpdate
	err := s.run(func() (err error) {
		u, err = s.progress.SetValue(ctx, barID, value, reason)
		s.countMilestones(u)
		return err
	})
	return u, err
}

// AdjustBar moves a bar by delta as a manual change.
func (s *Service) AdjustBar(ctx context.Context, barID string, delta float64, reason string) (game.BarUpdate, error) {
	var u game.BarUpdate
	err := s.run(func() (err error) {
		u, err = s.progress.UpdateValue(ctx, barID, delta, reason, game.TriggerManual)
		s.countMilestones(u)
		return err
	})
	return u, err
}

// Close releases the database handle.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Debug("closing store")
	return s.db.Close()
}
