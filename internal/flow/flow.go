// Package flow sequences one /odds interaction: League → Game → Market → rendered odds.
//
// Each interaction gets its own Session that remembers the options it has offered. A
// front-end shows a Prompt's options, and when the user picks one it passes the option's
// token back to Choose. Tokens stay valid while the session is alive, so a user can go
// back to an earlier prompt and pick again. Sessions expire after an idle timeout.
package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rewired-gh/oddsbot/internal/logger"
	"github.com/rewired-gh/oddsbot/internal/metrics"
	"github.com/rewired-gh/oddsbot/internal/models"
	"github.com/rewired-gh/oddsbot/internal/odds"
)

// User-visible texts.
const (
	SelectLeagueText    = "Select a league:"
	SelectMarketText    = "Select a market:"
	NoGamesMessage      = "❌ No games found today for that league."
	GameNotFoundMessage = "❌ Game not found."
	ExpiredMessage      = "⌛ This selection has expired. Run /odds again."
	apiErrorPrefix      = "❌ API error: "
)

// Fetcher loads every game with odds for one sport key.
type Fetcher interface {
	FetchOdds(ctx context.Context, sportKey string) ([]models.Game, error)
}

// Config controls timeouts and limits of the flow.
type Config struct {
	FetchTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxChoices    int
	MaxSessions   int
	SweepInterval time.Duration
}

// Option is one selectable entry of a prompt.
type Option struct {
	Label string
	Token string
}

// Prompt is what a front-end shows after each step. A prompt without options is a final
// answer.
type Prompt struct {
	Text    string
	Options []Option
}

// Final reports whether the prompt ends the current step chain.
func (p Prompt) Final() bool {
	return len(p.Options) == 0
}

// Flow creates sessions and advances them.
type Flow struct {
	fetcher  Fetcher
	cfg      Config
	sessions *registry
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Flow. m may be nil.
func New(fetcher Fetcher, cfg Config, m *metrics.Metrics) *Flow {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 12 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.MaxChoices <= 0 {
		cfg.MaxChoices = 25
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}

	return &Flow{
		fetcher:  fetcher,
		cfg:      cfg,
		sessions: newRegistry(cfg.MaxSessions, cfg.IdleTimeout),
		metrics:  m,
		log:      logger.With("flow"),
		now:      time.Now,
	}
}

// Begin starts a new session and returns its ID with the league prompt.
func (f *Flow) Begin() (string, Prompt) {
	s := newSession(uuid.NewString(), f.now())

	options := make([]Option, 0, len(models.Leagues))
	for _, l := range models.Leagues {
		options = append(options, s.offer(choice{kind: choiceLeague, value: l.SportKey}, l.Label))
	}

	f.sessions.add(s)
	f.metrics.SetSessions(f.sessions.len())
	f.log.Debug().Str("session", s.ID).Msg("session started")

	return s.ID, Prompt{Text: SelectLeagueText, Options: options}
}

// Choose applies the option identified by token to the session.
func (f *Flow) Choose(ctx context.Context, sessionID, token string) Prompt {
	s, ok := f.sessions.get(sessionID, f.now())
	if !ok {
		f.metrics.ExpiredChoice()
		return Prompt{Text: ExpiredMessage}
	}

	c, ok := s.resolve(token, f.now())
	if !ok {
		f.log.Warn().Str("session", sessionID).Str("token", token).Msg("unknown option token")
		return Prompt{Text: ExpiredMessage}
	}

	switch c.kind {
	case choiceLeague:
		return f.chooseLeague(ctx, s, c.value)
	case choiceGame:
		return f.chooseGame(s, c)
	default:
		return f.chooseMarket(s, c)
	}
}

func (f *Flow) chooseLeague(ctx context.Context, s *Session, sportKey string) Prompt {
	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	games, err := f.fetcher.FetchOdds(fetchCtx, sportKey)
	elapsed := time.Since(start)
	if err != nil {
		f.metrics.ObserveFetch(sportKey, metrics.ResultError, elapsed)
		f.log.Warn().Err(err).Str("session", s.ID).Str("sport_key", sportKey).Msg("odds fetch failed")
		return Prompt{Text: apiErrorPrefix + err.Error()}
	}
	if len(games) == 0 {
		f.metrics.ObserveFetch(sportKey, metrics.ResultEmpty, elapsed)
		return Prompt{Text: NoGamesMessage}
	}
	f.metrics.ObserveFetch(sportKey, metrics.ResultOK, elapsed)
	f.log.Debug().Str("session", s.ID).Str("sport_key", sportKey).Int("games", len(games)).
		Dur("elapsed", elapsed).Msg("odds fetched")

	shown := games
	note := ""
	if len(games) > f.cfg.MaxChoices {
		shown = games[:f.cfg.MaxChoices]
		note = fmt.Sprintf(" (showing first %d)", f.cfg.MaxChoices)
	}

	options := make([]Option, 0, len(shown))
	for i := range shown {
		options = append(options, s.offer(choice{kind: choiceGame, value: shown[i].ID, games: games}, shown[i].Matchup()))
	}

	return Prompt{Text: "Select a game" + note + ":", Options: options}
}

func (f *Flow) chooseGame(s *Session, c choice) Prompt {
	var game *models.Game
	for i := range c.games {
		if c.games[i].ID == c.value {
			game = &c.games[i]
			break
		}
	}
	if game == nil {
		return Prompt{Text: GameNotFoundMessage}
	}

	options := make([]Option, 0, len(models.MarketKeys))
	for _, key := range models.MarketKeys {
		options = append(options, s.offer(choice{kind: choiceMarket, value: key, game: game}, odds.Label(key)))
	}

	return Prompt{Text: SelectMarketText, Options: options}
}

func (f *Flow) chooseMarket(s *Session, c choice) Prompt {
	entries := odds.Extract(c.game, c.value)
	f.metrics.ObserveRender(c.value, len(entries) > 0)
	f.log.Debug().Str("session", s.ID).Str("game", c.game.ID).Str("market", c.value).
		Int("entries", len(entries)).Msg("market rendered")

	return Prompt{Text: odds.Render(c.game, c.value, entries)}
}

// Sessions returns the number of live sessions.
func (f *Flow) Sessions() int {
	return f.sessions.len()
}

// Sweep drops expired sessions.
func (f *Flow) Sweep() int {
	removed := f.sessions.sweep(f.now())
	f.metrics.SetSessions(f.sessions.len())
	return removed
}

// Run sweeps expired sessions periodically until ctx is cancelled.
func (f *Flow) Run(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := f.Sweep(); removed > 0 {
				f.log.Debug().Int("removed", removed).Int("remaining", f.Sessions()).Msg("expired sessions swept")
			}
		}
	}
}
