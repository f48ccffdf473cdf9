package standing

// Record is a team's table row for one season.
type Record struct {
	Season      string `db:"season"`
	Rank        int    `db:"rank"`
	TeamID      int64  `db:"team_id"`
	TeamName    string `db:"team_name"`
	ShortName   string `db:"short_name"`
	Played      int    `db:"played"`
	Wins        int    `db:"wins"`
	Draws       int    `db:"draws"`
	Losses      int    `db:"losses"`
	Pts         int    `db:"pts"`
	ScoreStr    string `db:"scoreStr"`
	GoalConDiff int    `db:"goalConDiff"`
}
