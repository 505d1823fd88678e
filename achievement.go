package main

// Achievement definitions
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_blood", "First Blood", "Get your first kill"},
	{"exterminator", "Exterminator", "Reach 100 total kills"},
	{"swarm_reaper", "Swarm Reaper", "Reach 1000 total kills"},
	{"rampage", "Rampage", "Get 10 kills in a single run"},
	{"locksmith", "Locksmith", "Open 10 locked doors"},
	{"keymaster", "Keymaster", "Collect 25 keys"},
	{"scavenger", "Scavenger", "Use 50 items"},
	{"high_roller", "High Roller", "Score 500 in a single run"},
	{"untouchable", "Untouchable", "Score 200 in a run without dying"},
	{"veteran", "Veteran", "Reach level 10"},
	{"elite", "Elite", "Reach level 25"},
	{"legend", "Legend", "Reach level 50"},
	{"marathoner", "Marathoner", "Play for 1 hour total"},
}

// CheckAchievements checks if any new achievements should be unlocked after
// a run. Returns the newly unlocked definitions.
func CheckAchievements(db *DB, playerID int64, run RunSummary) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	var unlocked []AchievementDef

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_blood":
			return stats.Kills >= 1
		case "exterminator":
			return stats.Kills >= 100
		case "swarm_reaper":
			return stats.Kills >= 1000
		case "rampage":
			return run.Kills >= 10
		case "locksmith":
			return stats.DoorsOpened >= 10
		case "keymaster":
			return stats.KeysFound >= 25
		case "scavenger":
			return stats.ItemsUsed >= 50
		case "high_roller":
			return run.Score >= 500
		case "untouchable":
			return run.Score >= 200 && run.Deaths == 0
		case "veteran":
			return stats.Level >= 10
		case "elite":
			return stats.Level >= 25
		case "legend":
			return stats.Level >= 50
		case "marathoner":
			return stats.Playtime >= 3600
		}
		return false
	}

	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(playerID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}

	return unlocked
}
