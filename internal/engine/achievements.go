package engine

import "questlife/internal/game"

// Achievement is a badge computed from the hero and the progress bars.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    string
	Requirement int
	Progress    int
	Earned      bool
}

// AchievementChecker calculates which achievements the hero has earned.
type AchievementChecker struct {
	user game.User
	bars []game.ProgressBar
}

func NewAchievementChecker(user game.User, bars []game.ProgressBar) *AchievementChecker {
	return &AchievementChecker{user: user, bars: bars}
}

// GetAchievements returns all achievements with their progress.
func (c *AchievementChecker) GetAchievements() []Achievement {
	return []Achievement{
		c.counter("first-quest", "First Steps", "Complete your first quest", "🎯", "milestone", c.user.CompletedQuests, 1),
		c.counter("streak-7", "Week Warrior", "Maintain a 7-day streak", "🔥", "streak", c.user.LongestStreak, 7),
		c.counter("level-5", "Rising Hero", "Reach Level 5", "⭐", "level", c.user.Level, 5),
		c.counter("quests-50", "Quest Master", "Complete 50 quests", "👑", "completion", c.user.CompletedQuests, 50),
		c.counter("level-10", "Seasoned Adventurer", "Reach Level 10", "🌟", "level", c.user.Level, 10),
		c.flag("class-chosen", "Found Your Calling", "Choose a class", "⚔️", "class", c.user.Class != game.ClassNone),
		c.flag("first-milestone", "Milestone Maker", "Reach a progress bar milestone", "🏆", "progress", c.anyMilestone()),
	}
}

// CountEarned returns how many achievements have been earned.
func (c *AchievementChecker) CountEarned() int {
	count := 0
	for _, a := range c.GetAchievements() {
		if a.Earned {
			count++
		}
	}
	return count
}

func (c *AchievementChecker) counter(id, name, desc, icon, category string, have, need int) Achievement {
	return Achievement{
		ID:          id,
		Name:        name,
		Description: desc,
		Icon:        icon,
		Category:    category,
		Requirement: need,
		Progress:    min(have, need),
		Earned:      have >= need,
	}
}

func (c *AchievementChecker) flag(id, name, desc, icon, category string, earned bool) Achievement {
	progress := 0
	if earned {
		progress = 1
	}
	return c.counter(id, name, desc, icon, category, progress, 1)
}

func (c *AchievementChecker) anyMilestone() bool {
	for _, b := range c.bars {
		for _, m := range b.Milestones {
			if m.Achieved {
				return true
			}
		}
	}
	return false
}
