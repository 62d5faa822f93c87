package domain

// HabitStats aggregates a habit's completion log.
type HabitStats struct {
	HabitID        string  `json:"habit_id"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	TotalDone      int     `json:"total_done"`
	CompletionRate float64 `json:"completion_rate"` // done days / days since first entry, 0..1
	FirstDate      string  `json:"first_date,omitempty"`
	LastDate       string  `json:"last_date,omitempty"`
	ByWeekday      [7]int  `json:"by_weekday"` // Sunday-first, matching time.Weekday
}

// HeatmapDay is one cell of a month heatmap.
type HeatmapDay struct {
	Date    string `json:"date"`
	Done    bool   `json:"done"`
	Count   int    `json:"count"`
	IsToday bool   `json:"is_today"`
}

// MonthHeatmap is a month view of a habit's completions.
type MonthHeatmap struct {
	HabitID string       `json:"habit_id"`
	Year    int          `json:"year"`
	Month   int          `json:"month"`
	Days    []HeatmapDay `json:"days"`
}

// CalendarStats summarizes every habit in a calendar.
type CalendarStats struct {
	CalendarID string       `json:"calendar_id"`
	Habits     []HabitStats `json:"habits"`
}
