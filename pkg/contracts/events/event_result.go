package events

// EventResult é o placar final publicado pelo feed de eventos.
// O settlement-worker consome este evento para liquidar escrows abertos.
type EventResult struct {
	EventID   string            `json:"event_id"`
	HomeScore int               `json:"home_score"`
	AwayScore int               `json:"away_score"`
	Cancelled bool              `json:"cancelled"`
	Props     map[string]string `json:"props,omitempty"` // selection -> "won" | "lost" | "void"
	TsUnixMs  int64             `json:"ts_unix_ms"`
}
