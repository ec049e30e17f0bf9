// Package quests owns the quest collection and the completion state machine.
package quests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"questlife/internal/game"
	"questlife/internal/log"
)

// Store is the slice of the record store the quest engine needs.
type Store interface {
	ListQuests(ctx context.Context) ([]game.Quest, error)
	PutQuest(ctx context.Context, q *game.Quest) error
	DeleteQuest(ctx context.Context, id string) error
}

// Ledger is the part of the progression ledger a completion touches.
type Ledger interface {
	SpendStamina(ctx context.Context, amount int) (bool, error)
	ApplyExperience(ctx context.Context, amount int) (game.LevelChange, error)
	AddGold(ctx context.Context, amount int) error
	IncrementQuestCounters(ctx context.Context) error
	IncrementStreak(ctx context.Context) error
}

// Cascade receives completion events once the ledger has been paid out.
type Cascade interface {
	ProcessQuestCompletion(ctx context.Context, questID string, t game.QuestType, positive bool) ([]game.BarUpdate, error)
}

// DefaultUpcomingLimit is how many deadlines UpcomingDeadlines returns when
// asked for zero or fewer.
const DefaultUpcomingLimit = 5

type Engine struct {
	store   Store
	ledger  Ledger
	cascade Cascade
	now     func() time.Time

	dailyGuard bool

	quests []game.Quest
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDailyGuard toggles the once-per-day check on daily quests. On by default.
func WithDailyGuard(on bool) Option {
	return func(e *Engine) { e.dailyGuard = on }
}

func New(store Store, ledger Ledger, cascade Cascade, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		ledger:     ledger,
		cascade:    cascade,
		now:        time.Now,
		dailyGuard: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Load(ctx context.Context) error {
	qs, err := e.store.ListQuests(ctx)
	if err != nil {
		return game.Persistence("quest list", err)
	}
	e.quests = qs
	return nil
}

type NewQuest struct {
	Title       string
	Description string
	Type        game.QuestType
	Category    string
	Difficulty  game.Difficulty
	Deadline    *time.Time
	IsPositive  *bool
	LinkedBars  []string
}

func (e *Engine) Add(ctx context.Context, in NewQuest) (game.Quest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return game.Quest{}, errors.New("title is required")
	}
	if !in.Type.IsValid() {
		return game.Quest{}, fmt.Errorf("invalid quest type: %q", in.Type)
	}
	diff := in.Difficulty
	if diff == "" {
		diff = game.DefaultDifficulty
	}
	rewards, err := diff.Rewards()
	if err != nil {
		return game.Quest{}, err
	}

	now := e.now()
	q := game.Quest{
		ID:                 game.NewID(),
		Title:              title,
		Description:        strings.TrimSpace(in.Description),
		Type:               in.Type,
		Category:           strings.TrimSpace(in.Category),
		Difficulty:         diff,
		XPReward:           rewards.XP,
		GoldReward:         rewards.Gold,
		StaminaCost:        rewards.StaminaCost,
		Status:             game.StatusActive,
		Deadline:           in.Deadline,
		IsPositive:         in.IsPositive,
		LinkedProgressBars: in.LinkedBars,
		CreatedAt:          now,
	}
	if err := e.put(ctx, "quest add", q); err != nil {
		return game.Quest{}, err
	}
	log.Debug("quest added", "id", q.ID, "type", q.Type)
	return e.mustGet(q.ID), nil
}

// Patch lists the editable fields. nil leaves a field unchanged.
type Patch struct {
	Title         *string
	Description   *string
	Category      *string
	Difficulty    *game.Difficulty
	Deadline      *time.Time
	ClearDeadline bool
	IsPositive    *bool
	LinkedBars    []string
}

// Update edits a quest. A difficulty change re-derives rewards and stamina cost.
func (e *Engine) Update(ctx context.Context, id string, p Patch) (game.Quest, error) {
	q, ok := e.find(id)
	if !ok {
		return game.Quest{}, game.NotFound("quest", id)
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return game.Quest{}, errors.New("title is required")
		}
		q.Title = t
	}
	if p.Description != nil {
		q.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		q.Category = strings.TrimSpace(*p.Category)
	}
	if p.Difficulty != nil {
		rewards, err := p.Difficulty.Rewards()
		if err != nil {
			return game.Quest{}, err
		}
		q.Difficulty = *p.Difficulty
		q.XPReward = rewards.XP
		q.GoldReward = rewards.Gold
		q.StaminaCost = rewards.StaminaCost
	}
	switch {
	case p.ClearDeadline:
		q.Deadline = nil
	case p.Deadline != nil:
		d := *p.Deadline
		q.Deadline = &d
	}
	if p.IsPositive != nil {
		b := *p.IsPositive
		q.IsPositive = &b
	}
	if p.LinkedBars != nil {
		q.LinkedProgressBars = append([]string(nil), p.LinkedBars...)
	}
	if err := e.put(ctx, "quest update", q); err != nil {
		return game.Quest{}, err
	}
	return e.mustGet(id), nil
}

// Archive moves an active quest out of play.
func (e *Engine) Archive(ctx context.Context, id string) error {
	q, ok := e.find(id)
	if !ok {
		return game.NotFound("quest", id)
	}
	if q.Status != game.StatusActive {
		return fmt.Errorf("archive %s: %w", id, game.ErrQuestClosed)
	}
	q.Status = game.StatusArchived
	return e.put(ctx, "quest archive", q)
}

func (e *Engine) Delete(ctx context.Context, id string) error {
	idx := e.index(id)
	if idx < 0 {
		return game.NotFound("quest", id)
	}
	if err := e.store.DeleteQuest(ctx, id); err != nil {
		return game.Persistence("quest delete", err)
	}
	e.quests = append(e.quests[:idx], e.quests[idx+1:]...)
	return nil
}

func (e *Engine) Get(id string) (game.Quest, error) {
	q, ok := e.find(id)
	if !ok {
		return game.Quest{}, game.NotFound("quest", id)
	}
	return q, nil
}

// Filter narrows List. Zero-valued fields match everything.
type Filter struct {
	Type       game.QuestType
	Status     game.QuestStatus
	Category   string
	Difficulty game.Difficulty
}

func (f Filter) match(q game.Quest) bool {
	if f.Type != "" && q.Type != f.Type {
		return false
	}
	if f.Status != "" && q.Status != f.Status {
		return false
	}
	if f.Category != "" && !strings.EqualFold(q.Category, f.Category) {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	return true
}

// List returns matching quests, oldest first.
func (e *Engine) List(f Filter) []game.Quest {
	out := make([]game.Quest, 0, len(e.quests))
	for _, q := range e.quests {
		if f.match(q) {
			out = append(out, q.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Today returns the active dailies not yet done today followed by active habits.
func (e *Engine) Today() []game.Quest {
	now := e.now()
	var dailies, habits []game.Quest
	for _, q := range e.List(Filter{Status: game.StatusActive}) {
		switch q.Type {
		case game.QuestDaily:
			if !q.CompletedOn(now) {
				dailies = append(dailies, q)
			}
		case game.QuestHabit:
			habits = append(habits, q)
		}
	}
	return append(dailies, habits...)
}

// UpcomingDeadlines returns active todos with a deadline, soonest first.
func (e *Engine) UpcomingDeadlines(limit int) []game.Quest {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	var out []game.Quest
	for _, q := range e.List(Filter{Type: game.QuestTodo, Status: game.StatusActive}) {
		if q.Deadline != nil {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(*out[j].Deadline)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// put persists q and replaces the cached copy only after the write succeeds.
func (e *Engine) put(ctx context.Context, op string, q game.Quest) error {
	q.UpdatedAt = e.now()
	if err := e.store.PutQuest(ctx, &q); err != nil {
		log.Warn("quest write failed", "op", op, "id", q.ID, "error", err)
		return game.Persistence(op, err)
	}
	if idx := e.index(q.ID); idx >= 0 {
		e.quests[idx] = q.Clone()
	} else {
		e.quests = append(e.quests, q.Clone())
	}
	return nil
}

func (e *Engine) index(id string) int {
	for i := range e.quests {
		if e.quests[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) find(id string) (game.Quest, bool) {
	idx := e.index(id)
	if idx < 0 {
		return game.Quest{}, false
	}
	return e.quests[idx].Clone(), true
}

func (e *Engine) mustGet(id string) game.Quest {
	q, _ := e.find(id)
	return q
}
