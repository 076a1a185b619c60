package dto

type Health struct {
	Status    string `json:"status"`
	NodeID    string `json:"node_id"`
	UptimeSec int64  `json:"uptime_sec"`
}
