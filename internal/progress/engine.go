// Package progress owns the custom progress bars and the rule engine that moves
// them when quests are completed.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"questlife/internal/game"
	"questlife/internal/log"
)

// Store is the slice of the record store the progress engine needs.
type Store interface {
	ListProgressBars(ctx context.Context) ([]game.ProgressBar, error)
	PutProgressBar(ctx context.Context, b *game.ProgressBar) error
	DeleteProgressBar(ctx context.Context, id string) error
}

// RewardSink pays out milestone rewards. The progression ledger implements it.
type RewardSink interface {
	AddGold(ctx context.Context, amount int) error
	AddGems(ctx context.Context, amount int) error
	ApplyExperience(ctx context.Context, amount int) (game.LevelChange, error)
}

const (
	DefaultIcon   = "🎯"
	DefaultColor  = "#A060FF"
	DefaultTarget = 100
)

type Engine struct {
	store Store
	sink  RewardSink
	now   func() time.Time

	bars []game.ProgressBar
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store Store, sink RewardSink, opts ...Option) *Engine {
	e := &Engine{store: store, sink: sink, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Load(ctx context.Context) error {
	bars, err := e.store.ListProgressBars(ctx)
	if err != nil {
		return game.Persistence("progress list", err)
	}
	e.bars = bars
	return nil
}

type NewBar struct {
	Name          string
	Description   string
	Icon          string
	Color         string
	Category      string
	Initial       float64
	Target        float64
	Visualization game.Visualization
}

func (e *Engine) Create(ctx context.Context, in NewBar) (game.ProgressBar, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return game.ProgressBar{}, errors.New("name is required")
	}
	if err := finite("target", in.Target); err != nil {
		return game.ProgressBar{}, err
	}
	if in.Target <= 0 {
		return game.ProgressBar{}, fmt.Errorf("target must be > 0, got %v", in.Target)
	}
	if err := finite("initial value", in.Initial); err != nil {
		return game.ProgressBar{}, err
	}
	vis := in.Visualization
	if vis == "" {
		vis = game.VisualBar
	}
	if !vis.IsValid() {
		return game.ProgressBar{}, fmt.Errorf("invalid visualization: %q", vis)
	}

	now := e.now()
	b := game.ProgressBar{
		ID:            game.NewID(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Icon:          orDefault(in.Icon, DefaultIcon),
		Color:         orDefault(in.Color, DefaultColor),
		Category:      strings.TrimSpace(in.Category),
		CurrentValue:  clamp(in.Initial, in.Target),
		TargetValue:   in.Target,
		Visualization: vis,
		CreatedAt:     now,
	}
	if err := e.put(ctx, "progress create", b); err != nil {
		return game.ProgressBar{}, err
	}
	log.Debug("progress bar created", "id", b.ID, "name", b.Name)
	return e.mustGet(b.ID), nil
}

// Patch lists the editable bar fields. nil leaves a field unchanged.
type Patch struct {
	Name          *string
	Description   *string
	Icon          *string
	Color         *string
	Category      *string
	Visualization *game.Visualization
	Target        *float64
}

// Update edits a bar. Lowering the target below the current value clamps the
// value in the same write and records the clamp in history.
func (e *Engine) Update(ctx context.Context, id string, p Patch) (game.ProgressBar, error) {
	b, ok := e.find(id)
	if !ok {
		return game.ProgressBar{}, game.NotFound("progress bar", id)
	}
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		if n == "" {
			return game.ProgressBar{}, errors.New("name is required")
		}
		b.Name = n
	}
	if p.Description != nil {
		b.Description = strings.TrimSpace(*p.Description)
	}
	if p.Icon != nil {
		b.Icon = orDefault(*p.Icon, DefaultIcon)
	}
	if p.Color != nil {
		b.Color = orDefault(*p.Color, DefaultColor)
	}
	if p.Category != nil {
		b.Category = strings.TrimSpace(*p.Category)
	}
	if p.Visualization != nil {
		if !p.Visualization.IsValid() {
			return game.ProgressBar{}, fmt.Errorf("invalid visualization: %q", *p.Visualization)
		}
		b.Visualization = *p.Visualization
	}
	if p.Target != nil {
		if err := finite("target", *p.Target); err != nil {
			return game.ProgressBar{}, err
		}
		if *p.Target <= 0 {
			return game.ProgressBar{}, fmt.Errorf("target must be > 0, got %v", *p.Target)
		}
		b.TargetValue = *p.Target
		if b.CurrentValue > b.TargetValue {
			e.apply(&b, b.TargetValue-b.CurrentValue, "target lowered", game.TriggerManual)
		}
	}
	if err := e.put(ctx, "progress update", b); err != nil {
		return game.ProgressBar{}, err
	}
	return e.mustGet(id), nil
}

func (e *Engine) Delete(ctx context.Context, id string) error {
	idx := e.index(id)
	if idx < 0 {
		return game.NotFound("progress bar", id)
	}
	if err := e.store.DeleteProgressBar(ctx, id); err != nil {
		return game.Persistence("progress delete", err)
	}
	e.bars = append(e.bars[:idx], e.bars[idx+1:]...)
	return nil
}

func (e *Engine) Get(id string) (game.ProgressBar, error) {
	b, ok := e.find(id)
	if !ok {
		return game.ProgressBar{}, game.NotFound("progress bar", id)
	}
	return b, nil
}

// List returns every bar, oldest first.
func (e *Engine) List() []game.ProgressBar {
	out := make([]game.ProgressBar, 0, len(e.bars))
	for _, b := range e.bars {
		out = append(out, b.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ByCategory groups bars by category. Uncategorised bars sit under "".
func (e *Engine) ByCategory() map[string][]game.ProgressBar {
	out := make(map[string][]game.ProgressBar)
	for _, b := range e.List() {
		out[b.Category] = append(out[b.Category], b)
	}
	return out
}

// AddRule appends a rule to the increment or decrement list. The rule value
// keeps the sign it was given.
func (e *Engine) AddRule(ctx context.Context, barID string, kind game.RuleKind, r game.Rule) (game.Rule, error) {
	if !kind.IsValid() {
		return game.Rule{}, fmt.Errorf("invalid rule kind: %q", kind)
	}
	if !r.TriggerType.IsValid() {
		return game.Rule{}, fmt.Errorf("invalid trigger type: %q", r.TriggerType)
	}
	if err := finite("rule value", r.Value); err != nil {
		return game.Rule{}, err
	}
	b, ok := e.find(barID)
	if !ok {
		return game.Rule{}, game.NotFound("progress bar", barID)
	}
	r.ID = game.NewID()
	r.TriggerTaskID = strings.TrimSpace(r.TriggerTaskID)
	r.Description = strings.TrimSpace(r.Description)
	switch kind {
	case game.RuleIncrement:
		b.Rules.Increment = append(b.Rules.Increment, r)
	case game.RuleDecrement:
		b.Rules.Decrement = append(b.Rules.Decrement, r)
	}
	if err := e.put(ctx, "progress add rule", b); err != nil {
		return game.Rule{}, err
	}
	return r, nil
}

// RemoveRule drops a rule from whichever list holds it.
func (e *Engine) RemoveRule(ctx context.Context, barID, ruleID string) error {
	b, ok := e.find(barID)
	if !ok {
		return game.NotFound("progress bar", barID)
	}
	inc, foundInc := without(b.Rules.Increment, ruleID)
	dec, foundDec := without(b.Rules.Decrement, ruleID)
	if !foundInc && !foundDec {
		return game.NotFound("rule", ruleID)
	}
	b.Rules = game.Rules{Increment: inc, Decrement: dec}
	return e.put(ctx, "progress remove rule", b)
}

func without(rules []game.Rule, id string) ([]game.Rule, bool) {
	out := make([]game.Rule, 0, len(rules))
	found := false
	for _, r := range rules {
		if r.ID == id {
			found = true
			continue
		}
		out = append(out, r)
	}
	return out, found
}

// AddMilestone appends an unachieved milestone and then checks it, so a
// threshold the bar already meets is achieved straight away.
func (e *Engine) AddMilestone(ctx context.Context, barID string, m game.Milestone) (game.Milestone, error) {
	if err := finite("milestone value", m.Value); err != nil {
		return game.Milestone{}, err
	}
	if m.Value < 0 {
		return game.Milestone{}, fmt.Errorf("milestone value must be >= 0, got %v", m.Value)
	}
	if m.Reward != nil {
		if !m.Reward.Type.IsValid() {
			return game.Milestone{}, fmt.Errorf("invalid reward type: %q", m.Reward.Type)
		}
		if m.Reward.Amount < 0 {
			return game.Milestone{}, fmt.Errorf("reward amount must be >= 0, got %d", m.Reward.Amount)
		}
	}
	b, ok := e.find(barID)
	if !ok {
		return game.Milestone{}, game.NotFound("progress bar", barID)
	}
	m.ID = game.NewID()
	m.Title = strings.TrimSpace(m.Title)
	m.Achieved = false
	m.AchievedAt = nil
	b.Milestones = append(b.Milestones, m)
	if err := e.put(ctx, "progress add milestone", b); err != nil {
		return game.Milestone{}, err
	}
	if _, err := e.CheckMilestones(ctx, barID); err != nil {
		return m, err
	}
	for _, got := range e.mustGet(barID).Milestones {
		if got.ID == m.ID {
			return got, nil
		}
	}
	return m, nil
}

func (e *Engine) RemoveMilestone(ctx context.Context, barID, milestoneID string) error {
	b, ok := e.find(barID)
	if !ok {
		return game.NotFound("progress bar", barID)
	}
	kept := make([]game.Milestone, 0, len(b.Milestones))
	for _, m := range b.Milestones {
		if m.ID != milestoneID {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(b.Milestones) {
		return game.NotFound("milestone", milestoneID)
	}
	b.Milestones = kept
	return e.put(ctx, "progress remove milestone", b)
}

// put persists b and replaces the cached copy only after the write succeeds.
func (e *Engine) put(ctx context.Context, op string, b game.ProgressBar) error {
	b.UpdatedAt = e.now()
	if err := e.store.PutProgressBar(ctx, &b); err != nil {
		log.Warn("progress bar write failed", "op", op, "id", b.ID, "error", err)
		return game.Persistence(op, err)
	}
	if idx := e.index(b.ID); idx >= 0 {
		e.bars[idx] = b.Clone()
	} else {
		e.bars = append(e.bars, b.Clone())
	}
	return nil
}

func (e *Engine) index(id string) int {
	for i := range e.bars {
		if e.bars[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) find(id string) (game.ProgressBar, bool) {
	idx := e.index(id)
	if idx < 0 {
		return game.ProgressBar{}, false
	}
	return e.bars[idx].Clone(), true
}

func (e *Engine) mustGet(id string) game.ProgressBar {
	b, _ := e.find(id)
	return b
}

// finite rejects NaN and infinities; clamp cannot bound NaN.
func finite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number, got %v", name, v)
	}
	return nil
}

func clamp(v, target float64) float64 {
	return max(0, min(target, v))
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
