package odds

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rewired-gh/oddsbot/internal/models"
)

// NoOddsMessage is rendered when no bookmaker quotes the selected market.
const NoOddsMessage = "❌ No odds found for that market."

// unnamedOutcome stands in for outcomes the feed sent without a name.
const unnamedOutcome = "?"

type group struct {
	name    string
	entries []models.LineEntry
}

// Render formats the line entries of one market into a text block.
//
// Moneyline and spread entries are grouped per team in first-seen order. Totals entries go
// into fixed Over and Under buckets and any other name is dropped; when nothing is left the
// header is returned alone. Inside each group entries are sorted by decimal price, highest
// first, keeping feed order for equal prices; prices that are missing or not numeric sort
// as 0.
func Render(game *models.Game, marketKey string, entries []models.LineEntry) string {
	if len(entries) == 0 {
		return NoOddsMessage
	}
	if game == nil {
		game = &models.Game{}
	}

	var sections []string
	switch models.KindOf(marketKey) {
	case models.KindMoneyline:
		sections = renderGroups(groupByName(entries), "(high → low):", func(e models.LineEntry) string {
			return e.Book + ": " + e.American
		})
	case models.KindSpread:
		sections = renderGroups(groupByName(entries), "(spread high → low):", func(e models.LineEntry) string {
			return e.Book + ": " + RenderPoint(e.Point, true) + " " + e.American
		})
	case models.KindTotals:
		sections = renderGroups(groupTotals(entries), "(high → low):", func(e models.LineEntry) string {
			return e.Book + ": " + RenderPoint(e.Point, false) + " " + e.American
		})
	default:
		sections = renderGroups(groupByName(entries), "(high → low):", func(e models.LineEntry) string {
			if e.Point == nil {
				return e.Book + ": " + e.American
			}
			return e.Book + ": " + RenderPoint(e.Point, false) + " " + e.American
		})
	}

	header := fmt.Sprintf("📊 %s @ %s — %s", game.Away(), game.Home(), Label(marketKey))
	if len(sections) == 0 {
		return header
	}
	return header + "\n\n" + strings.Join(sections, "\n\n")
}

// RenderPoint formats a spread or total line without trailing zeros ("-3.5", "47.5", "+7").
// A missing point renders as an empty string.
func RenderPoint(point *float64, signed bool) string {
	if point == nil {
		return ""
	}
	s := strconv.FormatFloat(*point, 'f', -1, 64)
	if signed && !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}

func renderGroups(groups []group, suffix string, line func(models.LineEntry) string) []string {
	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g.entries) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**%s** %s", g.name, suffix)
		for _, e := range sortByPrice(g.entries) {
			b.WriteString("\n")
			b.WriteString(line(e))
		}
		sections = append(sections, b.String())
	}
	return sections
}

func groupByName(entries []models.LineEntry) []group {
	var groups []group
	index := make(map[string]int)
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = unnamedOutcome
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, group{name: name})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	return groups
}

func groupTotals(entries []models.LineEntry) []group {
	groups := []group{{name: models.OutcomeOver}, {name: models.OutcomeUnder}}
	for _, e := range entries {
		switch e.Name {
		case models.OutcomeOver:
			groups[0].entries = append(groups[0].entries, e)
		case models.OutcomeUnder:
			groups[1].entries = append(groups[1].entries, e)
		}
	}
	return groups
}

func sortByPrice(entries []models.LineEntry) []models.LineEntry {
	sorted := make([]models.LineEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price.SortValue() > sorted[j].Price.SortValue()
	})
	return sorted
}
