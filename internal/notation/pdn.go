package notation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/chdb/checkers/internal/models"
)

var (
	headerRegex    = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)
	commentRegex   = regexp.MustCompile(`\{[^}]*\}`)
	variationRegex = regexp.MustCompile(`\([^)]*\)`)
	nagRegex       = regexp.MustCompile(`\$\d+`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// Result markers.
const (
	RedWins    = "1-0"
	BlackWins  = "0-1"
	Draw       = "1/2-1/2"
	Unfinished = "*"
)

// tagOrder lists the tags written first, in this order.
var tagOrder = []string{"Event", "Site", "Date", "Round", "Red", "Black", "Result", "TimeControl"}

var ErrMissingTags = errors.New("missing required tags")

func isResultToken(s string) bool {
	return s == RedWins || s == BlackWins || s == Draw || s == Unfinished
}

// ResultToken maps a game result to its PDN marker.
func ResultToken(r models.GameResult) string {
	switch r {
	case models.ResultRedWins:
		return RedWins
	case models.ResultBlackWins:
		return BlackWins
	case models.ResultDraw:
		return Draw
	}
	return Unfinished
}

func cleanMoves(moves string) string {
	moves = commentRegex.ReplaceAllString(moves, "")
	moves = variationRegex.ReplaceAllString(moves, "")
	moves = nagRegex.ReplaceAllString(moves, "")
	moves = spaceRegex.ReplaceAllString(moves, " ")
	return strings.TrimSpace(moves)
}

// SplitGames cuts a PDN file into one text per game.
func SplitGames(text string) []string {
	var games []string
	var current strings.Builder
	inGame := false

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[Event ") {
			if inGame && current.Len() > 0 {
				games = append(games, current.String())
				current.Reset()
			}
			inGame = true
		}
		if inGame {
			current.WriteString(line)
			current.WriteString("\n")
		}
	}
	if current.Len() > 0 {
		games = append(games, current.String())
	}
	return games
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads every game in text. Games that fail to parse are skipped
// and reported together in the returned error.
func (p *Parser) Parse(text string) ([]*models.ArchivedGame, error) {
	texts := SplitGames(text)
	games := make([]*models.ArchivedGame, 0, len(texts))

	var errs []error
	for i, gameText := range texts {
		game, _, err := p.ParseGame(gameText)
		if err != nil {
			errs = append(errs, fmt.Errorf("game %d: %w", i+1, err))
			continue
		}
		games = append(games, game)
	}
	return games, errors.Join(errs...)
}

// ParseGame reads a single game and replays it, returning the position
// after every ply.
func (p *Parser) ParseGame(gameText string) (*models.ArchivedGame, []Position, error) {
	headers := make(map[string]string)
	var moveLines []string
	headerSection := true

	for _, line := range strings.Split(gameText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(headers) > 0 {
				headerSection = false
			}
			continue
		}

		if headerSection && strings.HasPrefix(line, "[") {
			if m := headerRegex.FindStringSubmatch(line); len(m) == 3 {
				headers[m[1]] = m[2]
			}
		} else if !strings.HasPrefix(line, "[") {
			headerSection = false
			moveLines = append(moveLines, line)
		}
	}

	game := &models.ArchivedGame{
		Event:       headers["Event"],
		Site:        headers["Site"],
		Date:        headers["Date"],
		Round:       headers["Round"],
		Red:         headers["Red"],
		Black:       headers["Black"],
		Result:      headers["Result"],
		TimeControl: headers["TimeControl"],
		SourceGame:  headers["GameId"],
	}
	if game.Red == "" || game.Black == "" || game.Result == "" {
		return nil, nil, ErrMissingTags
	}
	if !isResultToken(game.Result) {
		return nil, nil, fmt.Errorf("unknown result %q", game.Result)
	}

	game.Moves = cleanMoves(strings.Join(moveLines, " "))
	positions, err := Replay(game.Moves)
	if err != nil {
		return nil, nil, err
	}
	game.Plies = len(positions)
	if len(positions) > 0 {
		game.FinalBoard = positions[len(positions)-1].Board.Encode()
	}
	game.PDN = render(headers, game.Moves)
	return game, positions, nil
}

// render writes tags in roster order, then any others alphabetically.
func render(headers map[string]string, moveText string) string {
	var b strings.Builder
	seen := make(map[string]bool, len(tagOrder))
	for _, key := range tagOrder {
		seen[key] = true
		if v, ok := headers[key]; ok {
			fmt.Fprintf(&b, "[%s \"%s\"]\n", key, v)
		}
	}

	extra := make([]string, 0, len(headers))
	for key := range headers {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		fmt.Fprintf(&b, "[%s \"%s\"]\n", key, headers[key])
	}

	b.WriteString("\n")
	b.WriteString(moveText)
	b.WriteString("\n")
	return b.String()
}

type ExportOptions struct {
	Event string
	Site  string
}

// Export writes a platform game as PDN.
func Export(g *models.Game, opts ExportOptions) (string, error) {
	tokens, err := Tokens(g.Moves)
	if err != nil {
		return "", err
	}

	event := opts.Event
	if event == "" {
		event = "Casual game"
		if g.IsTournamentGame() {
			event = "Tournament " + g.TournamentID
		}
	}

	headers := map[string]string{
		"Event":  event,
		"Site":   opts.Site,
		"Date":   time.UnixMilli(g.CreatedAt).UTC().Format("2006.01.02"),
		"Red":    playerName(g.RedPlayer),
		"Black":  playerName(g.BlackPlayer),
		"Result": ResultToken(g.Result),
		"GameId": g.ID,
	}
	if g.Clock != nil {
		headers["TimeControl"] = string(g.Clock.TimeControl())
	}
	if g.TournamentMatchID != "" {
		headers["Round"] = g.TournamentMatchID
	}

	var moves strings.Builder
	for i, tok := range tokens {
		if i%2 == 0 {
			if i > 0 {
				moves.WriteString(" ")
			}
			fmt.Fprintf(&moves, "%d. ", i/2+1)
		} else {
			moves.WriteString(" ")
		}
		moves.WriteString(tok.String())
	}
	if moves.Len() > 0 {
		moves.WriteString(" ")
	}
	moves.WriteString(ResultToken(g.Result))

	return render(headers, moves.String()), nil
}

func playerName(p string) string {
	if p == "" {
		return "?"
	}
	return p
}
