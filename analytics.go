package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking. The gameplay kinds match what the
// world pushes through its event queue so they can be forwarded unchanged.
const (
	EvtRunStart       = "run_start"
	EvtRunEnd         = "run_end"
	EvtSessionCreated = "session_created"
	EvtPlayerKill     = "player_kill"
	EvtEnemyKill      = "enemy_kill"
	EvtDeath          = "death"
	EvtDoorOpen       = "door_open"
	EvtKeyPickup      = "key_pickup"
	EvtItemPickup     = "item_pickup"
	EvtAchievement    = "achievement"
	EvtLevelUp        = "level_up"
)

const (
	analyticsQueueCap  = 1024
	analyticsBatchMax  = 50
	analyticsFlushTick = 5 * time.Second
)

// AnalyticsEvent is one row headed for the analytics_events table.
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // optional JSON payload
	Timestamp time.Time
}

// Analytics collects gameplay events off the hot path and persists them in
// batches from a single background goroutine. All tracking calls are
// non-blocking; when the queue is full events are dropped.
type Analytics struct {
	db    *DB
	queue chan AnalyticsEvent
	done  chan struct{}
	wg    sync.WaitGroup

	mu           sync.RWMutex
	livePlayers  int
	liveSessions int
}

// NewAnalytics starts the background writer against db (nil db is allowed,
// events are then discarded at flush time).
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:    db,
		queue: make(chan AnalyticsEvent, analyticsQueueCap),
		done:  make(chan struct{}),
	}
	a.wg.Add(1)
	go a.flushLoop()
	return a
}

// Track enqueues an event for async persistence. Never blocks the tick.
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	ev := AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	select {
	case a.queue <- ev:
	default:
	}
}

// SetLivePlayers records the current connected-player gauge.
func (a *Analytics) SetLivePlayers(n int) {
	a.mu.Lock()
	a.livePlayers = n
	a.mu.Unlock()
}

// SetLiveSessions records the current active-session gauge.
func (a *Analytics) SetLiveSessions(n int) {
	a.mu.Lock()
	a.liveSessions = n
	a.mu.Unlock()
}

// LiveCounts returns the player and session gauges.
func (a *Analytics) LiveCounts() (players, sessions int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.livePlayers, a.liveSessions
}

// Stop flushes whatever is queued and stops the writer.
func (a *Analytics) Stop() {
	close(a.done)
	a.wg.Wait()
}

func (a *Analytics) flushLoop() {
	defer a.wg.Done()

	var batch []AnalyticsEvent
	ticker := time.NewTicker(analyticsFlushTick)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		a.persist(batch)
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-a.queue:
			batch = append(batch, ev)
			if len(batch) >= analyticsBatchMax {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-a.done:
			for {
				select {
				case ev := <-a.queue:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (a *Analytics) persist(batch []AnalyticsEvent) {
	if a.db == nil {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events
		(event_type, player_id, session_id, data, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare: %v", err)
		return
	}
	defer stmt.Close()

	for _, ev := range batch {
		_, err := stmt.Exec(ev.Type,
			sql.NullInt64{Int64: ev.PlayerID, Valid: ev.PlayerID > 0},
			sql.NullString{String: ev.SessionID, Valid: ev.SessionID != ""},
			sql.NullString{String: ev.Data, Valid: ev.Data != ""},
			ev.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("analytics: insert %s: %v", ev.Type, err)
		}
	}
	tx.Commit()
}

// --- rollup queries for the stats endpoint ---

// ActivePlayers counts distinct players seen in the trailing window.
// days=0 means "since midnight today".
func (a *Analytics) ActivePlayers(days int) (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var n int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM analytics_events
		WHERE player_id IS NOT NULL
		  AND created_at >= date('now', '-' || ? || ' days')
	`, days).Scan(&n)
	return n, err
}

// RunStats aggregates finished runs for the last N days
func (a *Analytics) RunStats(days int) (RunAnalytics, error) {
	var ra RunAnalytics
	if a.db == nil {
		return ra, nil
	}
	var avgDur, avgScore, avgKills sql.NullFloat64
	err := a.db.conn.QueryRow(`
		SELECT COUNT(*),
			AVG(CASE WHEN json_valid(data) THEN CAST(json_extract(data, '$.duration') AS REAL) ELSE NULL END),
			AVG(CASE WHEN json_valid(data) THEN CAST(json_extract(data, '$.score') AS REAL) ELSE NULL END),
			AVG(CASE WHEN json_valid(data) THEN CAST(json_extract(data, '$.kills') AS REAL) ELSE NULL END)
		FROM analytics_events
		WHERE event_type = ? AND created_at >= date('now', '-' || ? || ' days')
	`, EvtRunEnd, days).Scan(&ra.Count, &avgDur, &avgScore, &avgKills)
	if err != nil {
		return ra, err
	}
	ra.AvgDuration = avgDur.Float64
	ra.AvgScore = avgScore.Float64
	ra.AvgKills = avgKills.Float64
	return ra, nil
}

// EventCounts tallies each event type over the trailing window.
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) AS n FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY n DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			continue
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// PopularItems returns the most collected item types
func (a *Analytics) PopularItems(limit int) ([]ItemAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.extra'), 'unknown') AS item, COUNT(*) AS n
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data)
		GROUP BY item ORDER BY n DESC LIMIT ?
	`, EvtItemPickup, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemAnalytics
	for rows.Next() {
		var ia ItemAnalytics
		if err := rows.Scan(&ia.Item, &ia.Count); err != nil {
			continue
		}
		out = append(out, ia)
	}
	return out, rows.Err()
}

// DailyActiveHistory returns the per-day distinct-player series for
// the last N days, oldest first.
func (a *Analytics) DailyActiveHistory(days int) ([]DayCount, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT date(created_at) AS day, COUNT(DISTINCT player_id)
		FROM analytics_events
		WHERE player_id IS NOT NULL
		  AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY day ORDER BY day
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			continue
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// RunAnalytics holds aggregated run statistics
type RunAnalytics struct {
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration"`
	AvgScore    float64 `json:"avg_score"`
	AvgKills    float64 `json:"avg_kills"`
}

// ItemAnalytics holds pickup count per item type
type ItemAnalytics struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// DayCount is one day's distinct-player tally.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}
