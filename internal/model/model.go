package model

import "time"

// Plan run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PlanRun is one planning request against a scenario snapshot.
type PlanRun struct {
	ID         string     `json:"id"`
	ScenarioID string     `json:"scenario_id"`
	Strategy   string     `json:"strategy"`
	Friendly   []string   `json:"friendly"`
	Status     string     `json:"status"` // running, completed, failed
	OrderCount int        `json:"order_count"`
	Sweeps     int        `json:"sweeps,omitempty"`
	Converged  bool       `json:"converged"`
	Value      float64    `json:"value,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// PlanOrder is an order as stored against its run.
type PlanOrder struct {
	RunID     string    `json:"run_id" db:"run_id"`
	Seq       int       `json:"seq" db:"seq"`
	UnitID    string    `json:"unit_id" db:"unit_id"`
	OrderType string    `json:"order_type" db:"order_type"`
	X         int       `json:"x" db:"x"`
	Y         int       `json:"y" db:"y"`
	OrderTime time.Time `json:"order_time" db:"order_time"`
}

// SegmentSummary describes one segment of a divided map.
type SegmentSummary struct {
	ID        int     `json:"id"`
	Size      int     `json:"size"`
	CenterX   int     `json:"center_x"`
	CenterY   int     `json:"center_y"`
	XMean     float64 `json:"x_mean"`
	YMean     float64 `json:"y_mean"`
	Neighbors []int   `json:"neighbors"`
}

// GraphSummary describes a frozen movement graph.
type GraphSummary struct {
	Fingerprint string    `json:"fingerprint"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	BuiltAt     time.Time `json:"built_at"`
}

// ReachCell is a hex within a movement budget and the cost to reach it.
type ReachCell struct {
	X    int     `json:"x"`
	Y    int     `json:"y"`
	Cost float64 `json:"cost"`
}

// RoadRun is a stretch of one road class between junctions or endpoints.
type RoadRun struct {
	Class string   `json:"class"`
	Hexes [][2]int `json:"hexes"`
}
