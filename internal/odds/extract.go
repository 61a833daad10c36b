package odds

import "github.com/rewired-gh/oddsbot/internal/models"

// UnknownBook is shown for bookmakers that arrive without a title.
const UnknownBook = "?"

// Extract flattens every bookmaker's quotes for marketKey into line entries, in feed order.
//
// Only the first market with a matching key is used per bookmaker, and bookmakers that do not
// offer the market are skipped. An empty result means no odds are available for the market.
func Extract(game *models.Game, marketKey string) []models.LineEntry {
	if game == nil {
		return nil
	}

	var entries []models.LineEntry
	for _, book := range game.Bookmakers {
		market, ok := findMarket(book.Markets, marketKey)
		if !ok {
			continue
		}

		title := book.Title
		if title == "" {
			title = UnknownBook
		}

		for _, outcome := range market.Outcomes {
			entries = append(entries, models.LineEntry{
				Book:     title,
				Name:     outcome.Name,
				Price:    outcome.Price,
				American: ToAmerican(outcome.Price),
				Point:    outcome.Point,
			})
		}
	}
	return entries
}

func findMarket(markets []models.Market, key string) (models.Market, bool) {
	for _, m := range markets {
		if m.Key == key {
			return m, true
		}
	}
	return models.Market{}, false
}
