package quests

import (
	"context"
	"fmt"
	"time"

	"questlife/internal/game"
	"questlife/internal/log"
)

type CompleteResult struct {
	QuestID      string
	QuestType    game.QuestType
	XPAwarded    int
	GoldAwarded  int
	LevelBefore  int
	LevelAfter   int
	StreakBefore int
	StreakAfter  int
	BarUpdates   []game.BarUpdate
}

func (r CompleteResult) LeveledUp() bool { return r.LevelAfter > r.LevelBefore }

func (r CompleteResult) StreakIncreased() bool { return r.StreakAfter > r.StreakBefore }

// Complete runs the completion sequence for one quest. The order is fixed:
// stamina, completion log, streak, status, rewards, counters, hero streak,
// progress cascade. A failure after stamina has been spent stops the sequence
// and nothing already written is undone. Once the quest itself is written the
// partial result is returned alongside any later error.
func (e *Engine) Complete(ctx context.Context, id string) (*CompleteResult, error) {
	q, ok := e.find(id)
	if !ok {
		return nil, game.NotFound("quest", id)
	}
	if q.Status != game.StatusActive {
		return nil, fmt.Errorf("complete %s: %w", id, game.ErrQuestClosed)
	}
	now := e.now()
	if e.dailyGuard && q.Type == game.QuestDaily && q.CompletedOn(now) {
		return nil, fmt.Errorf("complete %s: %w", id, game.ErrAlreadyCompletedToday)
	}

	paid, err := e.ledger.SpendStamina(ctx, q.StaminaCost)
	if err != nil {
		return nil, fmt.Errorf("complete %s: spend stamina: %w", id, err)
	}
	if !paid {
		return nil, fmt.Errorf("complete %s: need %d: %w", id, q.StaminaCost, game.ErrInsufficientStamina)
	}

	res := &CompleteResult{
		QuestID:      q.ID,
		QuestType:    q.Type,
		StreakBefore: q.Streak,
		StreakAfter:  q.Streak,
	}

	if q.Type == game.QuestDaily {
		q.Streak = NextStreak(q.CompletedDates, q.Streak, now)
		res.StreakAfter = q.Streak
	}
	q.CompletedDates = append(q.CompletedDates, now)
	completedAt := now
	q.CompletedAt = &completedAt
	if q.Type.OneShot() {
		q.Status = game.StatusCompleted
	}
	if err := e.put(ctx, "complete quest", q); err != nil {
		return nil, fmt.Errorf("complete %s: %w", id, err)
	}

	change, err := e.ledger.ApplyExperience(ctx, q.XPReward)
	if err != nil {
		return res, fmt.Errorf("complete %s: award xp: %w", id, err)
	}
	res.XPAwarded = q.XPReward
	res.LevelBefore, res.LevelAfter = change.Before, change.After

	if q.GoldReward > 0 {
		if err := e.ledger.AddGold(ctx, q.GoldReward); err != nil {
			return res, fmt.Errorf("complete %s: award gold: %w", id, err)
		}
		res.GoldAwarded = q.GoldReward
	}

	if err := e.ledger.IncrementQuestCounters(ctx); err != nil {
		return res, fmt.Errorf("complete %s: counters: %w", id, err)
	}

	if res.StreakIncreased() {
		if err := e.ledger.IncrementStreak(ctx); err != nil {
			return res, fmt.Errorf("complete %s: hero streak: %w", id, err)
		}
	}

	updates, err := e.cascade.ProcessQuestCompletion(ctx, q.ID, q.Type, q.Positive())
	res.BarUpdates = updates
	if err != nil {
		return res, fmt.Errorf("complete %s: progress bars: %w", id, err)
	}

	log.Debug("quest completed", "id", q.ID, "xp", res.XPAwarded, "gold", res.GoldAwarded, "streak", res.StreakAfter)
	return res, nil
}

// NextStreak returns the daily streak after a completion at now, given the
// completion dates recorded before it. A completion on the previous calendar
// day extends the streak; otherwise it restarts at 1.
func NextStreak(prior []time.Time, streak int, now time.Time) int {
	yesterday := now.AddDate(0, 0, -1)
	for _, d := range prior {
		if game.SameDay(d, yesterday) {
			return streak + 1
		}
	}
	// An empty streak grows to 1 either way; a gap restarts it there.
	return 1
}
