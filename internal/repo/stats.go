package repo

// Stats - агрегаты для админской панели.
type Stats struct {
	ByStatus     map[string]int `json:"byStatus"`
	ByPriority   map[string]int `json:"byPriority"`
	TotalTasks   int            `json:"totalTasks"`
	OverdueTasks int            `json:"overdueTasks"`
}
