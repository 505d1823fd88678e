package main

import (
	"os"
	"strconv"
)

// Tuning holds the gameplay knobs that vary between deployments: arena
// dimensions, spawn pacing and the enemy perception thresholds. Everything
// here has a sensible default and can be overridden through the environment.
type Tuning struct {
	MazeCols int
	MazeRows int
	CellSize float64
	Jitter   float64 // lattice vertex displacement, in world units

	DoorCount        int
	AsteroidCount    int
	EnemySpawnStride int // one initial hostile per this many spawn points

	SafeSpawnDist     float64
	EnemyRespawnDelay float64
	ItemRespawnDelay  float64
	DropChance        float64

	// enemy perception
	AimDetectRange float64 // how far an enemy notices someone lining up a shot
	AimSpeedMax    float64 // above this speed a player does not read as aiming
	AimAngleTol    float64 // radians off dead-center that still counts as aimed
	EvadeHold      float64 // seconds a dodge direction is kept
	RepathInterval float64 // seconds between path recomputes while chasing
}

// DefaultTuning returns the stock arena setup.
func DefaultTuning() *Tuning {
	return &Tuning{
		MazeCols:          8,
		MazeRows:          8,
		CellSize:          220,
		Jitter:            38,
		DoorCount:         5,
		AsteroidCount:     6,
		EnemySpawnStride:  6,
		SafeSpawnDist:     320,
		EnemyRespawnDelay: 5,
		ItemRespawnDelay:  10,
		DropChance:        0.35,
		AimDetectRange:    420,
		AimSpeedMax:       18,
		AimAngleTol:       0.12,
		EvadeHold:         1.2,
		RepathInterval:    0.9,
	}
}

// TuningFromEnv starts from the defaults and applies any MAZE_* environment
// overrides.
func TuningFromEnv() *Tuning {
	t := DefaultTuning()
	t.MazeCols = getEnvInt("MAZE_COLS", t.MazeCols)
	t.MazeRows = getEnvInt("MAZE_ROWS", t.MazeRows)
	t.CellSize = getEnvFloat("MAZE_CELL_SIZE", t.CellSize)
	t.Jitter = getEnvFloat("MAZE_JITTER", t.Jitter)
	t.DoorCount = getEnvInt("MAZE_DOORS", t.DoorCount)
	t.AsteroidCount = getEnvInt("MAZE_ASTEROIDS", t.AsteroidCount)
	t.EnemySpawnStride = getEnvInt("MAZE_ENEMY_STRIDE", t.EnemySpawnStride)
	t.SafeSpawnDist = getEnvFloat("MAZE_SAFE_SPAWN_DIST", t.SafeSpawnDist)
	t.EnemyRespawnDelay = getEnvFloat("MAZE_ENEMY_RESPAWN", t.EnemyRespawnDelay)
	t.ItemRespawnDelay = getEnvFloat("MAZE_ITEM_RESPAWN", t.ItemRespawnDelay)
	t.DropChance = getEnvFloat("MAZE_DROP_CHANCE", t.DropChance)
	t.AimDetectRange = getEnvFloat("MAZE_AIM_RANGE", t.AimDetectRange)
	t.AimSpeedMax = getEnvFloat("MAZE_AIM_SPEED_MAX", t.AimSpeedMax)
	t.AimAngleTol = getEnvFloat("MAZE_AIM_ANGLE_TOL", t.AimAngleTol)
	t.EvadeHold = getEnvFloat("MAZE_EVADE_HOLD", t.EvadeHold)
	t.RepathInterval = getEnvFloat("MAZE_REPATH_INTERVAL", t.RepathInterval)
	return t
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
