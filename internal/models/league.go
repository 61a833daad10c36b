package models

// League pairs a menu label with the feed's sport key.
type League struct {
	Label    string
	SportKey string
}

// Leagues is the fixed set of selectable leagues, in menu order.
var Leagues = []League{
	{Label: "🏈 NFL", SportKey: "americanfootball_nfl"},
	{Label: "🏈 NCAAF (College Football)", SportKey: "americanfootball_ncaaf"},
	{Label: "🏀 NBA", SportKey: "basketball_nba"},
	{Label: "🏀 NCAAB (College Basketball)", SportKey: "basketball_ncaab"},
	{Label: "⚾ MLB", SportKey: "baseball_mlb"},
	{Label: "🏒 NHL", SportKey: "icehockey_nhl"},
	{Label: "🥊 UFC / MMA", SportKey: "mma_mixedmartialarts"},
}

// LeagueBySportKey looks a league up by its sport key.
func LeagueBySportKey(key string) (League, bool) {
	for _, l := range Leagues {
		if l.SportKey == key {
			return l, true
		}
	}
	return League{}, false
}
