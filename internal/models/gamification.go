package models

// Achievement is one badge the backend evaluates from the ledger.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
	// DateUnlocked is a yyyy-mm-dd date, empty while locked. The backend
	// serializes it under a misspelled key.
	DateUnlocked string `json:"dateUnlokced,omitempty"`
}

// Progress is the level a user has reached with their points.
type Progress struct {
	Level             int `json:"level"`
	CurrentPoints     int `json:"currentPoints"`
	PointsToNextLevel int `json:"pointsToNextLevel"`
	ProgressPercent   int `json:"progressPercent"`
}

// Risk levels the backend classifies holdings into.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)
