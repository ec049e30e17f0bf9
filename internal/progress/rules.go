package progress

import (
	"context"
	"errors"
	"fmt"

	"questlife/internal/game"
	"questlife/internal/log"
)

// ShouldTrigger reports whether rule fires for a completion of the given quest.
// Manual rules never fire on their own.
func ShouldTrigger(rule game.Rule, questID string, t game.QuestType, positive bool) bool {
	scoped := rule.TriggerTaskID == "" || rule.TriggerTaskID == questID
	switch rule.TriggerType {
	case game.TriggerQuestComplete:
		return scoped
	case game.TriggerDailyComplete:
		return t == game.QuestDaily && scoped
	case game.TriggerHabitPositive:
		return t == game.QuestHabit && positive && scoped
	case game.TriggerHabitNegative:
		return t == game.QuestHabit && !positive && scoped
	case game.TriggerManual:
		return false
	default:
		return false
	}
}

// ProcessQuestCompletion runs every bar's increment rules and then its
// decrement rules against the completed quest. It stops at the first failed
// write and returns the updates made so far.
func (e *Engine) ProcessQuestCompletion(ctx context.Context, questID string, t game.QuestType, positive bool) ([]game.BarUpdate, error) {
	var updates []game.BarUpdate
	for _, b := range e.List() {
		rules := append(append([]game.Rule(nil), b.Rules.Increment...), b.Rules.Decrement...)
		for _, r := range rules {
			if !ShouldTrigger(r, questID, t, positive) {
				continue
			}
			u, err := e.UpdateValue(ctx, b.ID, r.Value, r.Description, r.TriggerType)
			if err != nil {
				return updates, err
			}
			updates = append(updates, u)
		}
	}
	return updates, nil
}

// UpdateValue moves a bar by change, clamped to [0, target], appends a history
// entry and then checks milestones.
func (e *Engine) UpdateValue(ctx context.Context, barID string, change float64, reason string, trigger game.TriggerType) (game.BarUpdate, error) {
	if err := finite("change", change); err != nil {
		return game.BarUpdate{}, err
	}
	b, ok := e.find(barID)
	if !ok {
		return game.BarUpdate{}, game.NotFound("progress bar", barID)
	}
	u := e.apply(&b, change, reason, trigger)
	if err := e.put(ctx, "progress update value", b); err != nil {
		return game.BarUpdate{}, err
	}
	achieved, err := e.CheckMilestones(ctx, barID)
	u.Achieved = achieved
	if err != nil {
		return u, err
	}
	return u, nil
}

// SetValue moves a bar to value as a manual change.
func (e *Engine) SetValue(ctx context.Context, barID string, value float64, reason string) (game.BarUpdate, error) {
	if err := finite("value", value); err != nil {
		return game.BarUpdate{}, err
	}
	b, ok := e.find(barID)
	if !ok {
		return game.BarUpdate{}, game.NotFound("progress bar", barID)
	}
	return e.UpdateValue(ctx, barID, value-b.CurrentValue, reason, game.TriggerManual)
}

// apply clamps the new value and appends the history entry on b in place.
func (e *Engine) apply(b *game.ProgressBar, change float64, reason string, trigger game.TriggerType) game.BarUpdate {
	prev := b.CurrentValue
	next := clamp(prev+change, b.TargetValue)
	b.CurrentValue = next
	b.History = append(b.History, game.HistoryEntry{
		ID:            game.NewID(),
		Date:          e.now(),
		PreviousValue: prev,
		NewValue:      next,
		Change:        change,
		Reason:        reason,
		TriggerType:   trigger,
	})
	return game.BarUpdate{
		BarID:    b.ID,
		BarName:  b.Name,
		Previous: prev,
		New:      next,
		Change:   change,
		Reason:   reason,
		Trigger:  trigger,
	}
}

// CheckMilestones marks every reached, unachieved milestone as achieved in one
// write and only then pays out their rewards in order. A reward is never paid
// twice: once the write lands the milestone stays achieved even if a grant
// fails.
func (e *Engine) CheckMilestones(ctx context.Context, barID string) ([]game.Milestone, error) {
	b, ok := e.find(barID)
	if !ok {
		return nil, game.NotFound("progress bar", barID)
	}
	now := e.now()
	var reached []game.Milestone
	for i := range b.Milestones {
		m := &b.Milestones[i]
		if m.Achieved || b.CurrentValue < m.Value {
			continue
		}
		at := now
		m.Achieved = true
		m.AchievedAt = &at
		reached = append(reached, *m)
	}
	if len(reached) == 0 {
		return nil, nil
	}
	if err := e.put(ctx, "progress milestones", b); err != nil {
		return nil, err
	}

	var errs []error
	for _, m := range reached {
		log.Info("milestone achieved", "bar", b.Name, "milestone", m.Title, "value", m.Value)
		if err := e.grant(ctx, m); err != nil {
			errs = append(errs, fmt.Errorf("milestone %s reward: %w", m.ID, err))
		}
	}
	return reached, errors.Join(errs...)
}

func (e *Engine) grant(ctx context.Context, m game.Milestone) error {
	if m.Reward == nil {
		return nil
	}
	switch m.Reward.Type {
	case game.RewardGold:
		return e.sink.AddGold(ctx, m.Reward.Amount)
	case game.RewardGems:
		return e.sink.AddGems(ctx, m.Reward.Amount)
	case game.RewardXP:
		_, err := e.sink.ApplyExperience(ctx, m.Reward.Amount)
		return err
	case game.RewardItem:
		// No inventory yet; the item id stays on the milestone.
		log.Debug("item reward not granted", "item", m.Reward.ItemID)
		return nil
	default:
		return fmt.Errorf("invalid reward type: %q", m.Reward.Type)
	}
}
