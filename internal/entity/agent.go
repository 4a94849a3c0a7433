package entity

// QTable maps a board key to the estimated value of each of the nine cells.
type QTable map[BoardKey][BoardSize]float64

// Hyperparameters of a Q-learning agent.
type Hyperparameters struct {
	Alpha   float64 `json:"alpha"`
	Gamma   float64 `json:"gamma"`
	Epsilon float64 `json:"epsilon"`
}

// AgentSnapshot is everything needed to resume training or play.
type AgentSnapshot struct {
	Name            string          `json:"name"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
	QTable          QTable          `json:"q_table"`
	Rewards         []float64       `json:"rewards"`
	GamesPlayed     int             `json:"games_played"`
}
