package activity

import "sort"

// Rank is one row of the all-time leaderboard.
type Rank struct {
	Rank      int    `json:"rank"`
	UserID    string `json:"user_id"`
	TotalLogs int    `json:"total_logs"`
}

// Leaderboard orders users by post count, most first, ties by user ID.
// Ranks are 1-based positions; limit <= 0 keeps everyone.
func Leaderboard(counts map[string]int, limit int) []Rank {
	rows := make([]Rank, 0, len(counts))
	for id, n := range counts {
		rows = append(rows, Rank{UserID: id, TotalLogs: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalLogs != rows[j].TotalLogs {
			return rows[i].TotalLogs > rows[j].TotalLogs
		}
		return rows[i].UserID < rows[j].UserID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
