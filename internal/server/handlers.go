package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/clock"
	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/notation"
	"github.com/chdb/checkers/internal/service"
	"github.com/chdb/checkers/internal/tournament"
)

const defaultLeaderboardLimit = 10

type Handler struct {
	svc     *service.Service
	archive *database.DB
	driver  string
}

func NewHandler(svc *service.Service, archive *database.DB, driver string) *Handler {
	return &Handler{
		svc:     svc,
		archive: archive,
		driver:  driver,
	}
}

type playerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type moveRequest struct {
	PlayerID string        `json:"player_id" binding:"required"`
	From     models.Square `json:"from"`
	To       models.Square `json:"to"`
}

type inviteRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	PlayerID   string `json:"player_id" binding:"required"`
}

func (h *Handler) execute(c *gin.Context, status int, req service.Request) {
	res, err := h.svc.Execute(c.Request.Context(), req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(status, res)
}

// withPlayer binds a {"player_id"} body and runs the request built from it.
func (h *Handler) withPlayer(build func(c *gin.Context, player string) service.Request) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req playerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		h.execute(c, http.StatusOK, build(c, req.PlayerID))
	}
}

func (h *Handler) CreateGame(c *gin.Context) {
	var req service.CreateGame
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.execute(c, http.StatusCreated, req)
}

func (h *Handler) PendingGames(c *gin.Context) {
	games, err := h.svc.PendingGames()
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "count": len(games)})
}

func (h *Handler) GetGame(c *gin.Context) {
	game, err := h.svc.Game(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) ExportGame(c *gin.Context) {
	game, err := h.svc.Game(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	pdn, err := notation.Export(game, notation.ExportOptions{Site: c.Request.Host})
	if err != nil {
		renderError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+game.ID+".pdn")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(pdn))
}

func (h *Handler) JoinGame(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.JoinGame{GameID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) MakeMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.execute(c, http.StatusOK, service.MakeMove{
		GameID:   c.Param("id"),
		PlayerID: req.PlayerID,
		From:     req.From,
		To:       req.To,
	})
}

func (h *Handler) Resign(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.Resign{GameID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) RequestAIMove(c *gin.Context) {
	h.execute(c, http.StatusOK, service.RequestAIMove{GameID: c.Param("id")})
}

func (h *Handler) OfferDraw(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.OfferDraw{GameID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) AcceptDraw(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.AcceptDraw{GameID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) DeclineDraw(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.DeclineDraw{GameID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) ClaimTimeWin(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.ClaimTimeWin{GameID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) PlayerGames(c *gin.Context) {
	games, err := h.svc.PlayerGames(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "count": len(games)})
}

func (h *Handler) PlayerStats(c *gin.Context) {
	stats, err := h.svc.PlayerStats(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) PlayerTournaments(c *gin.Context) {
	list, err := h.svc.PlayerTournaments(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": list, "count": len(list)})
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := defaultLeaderboardLimit
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	players, err := h.svc.Leaderboard(limit)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players, "count": len(players)})
}

func (h *Handler) JoinQueue(c *gin.Context) {
	var req service.JoinQueue
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.execute(c, http.StatusOK, req)
}

func (h *Handler) LeaveQueue(c *gin.Context) {
	h.execute(c, http.StatusOK, service.LeaveQueue{PlayerID: c.Param("player")})
}

func (h *Handler) QueueCounts(c *gin.Context) {
	counts, err := h.svc.QueueCounts()
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": counts})
}

func (h *Handler) QueueEntry(c *gin.Context) {
	entry, err := h.svc.QueueEntry(c.Param("player"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queued": entry != nil, "entry": entry})
}

func (h *Handler) CreateTournament(c *gin.Context) {
	var req service.CreateTournament
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.execute(c, http.StatusCreated, req)
}

func (h *Handler) ListTournaments(c *gin.Context) {
	filter := models.TournamentFilter(c.DefaultQuery("filter", string(models.FilterAll)))
	switch filter {
	case models.FilterAll, models.FilterPublic, models.FilterActive:
	default:
		renderError(c, apperrors.Validation("Unknown filter", string(filter)))
		return
	}

	list, err := h.svc.Tournaments(filter)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": list, "count": len(list)})
}

func (h *Handler) GetTournament(c *gin.Context) {
	t, err := h.svc.Tournament(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) TournamentStandings(c *gin.Context) {
	t, err := h.svc.Tournament(c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tournament_id": t.ID,
		"round":         t.CurrentRound,
		"standings":     tournament.Standings(t),
	})
}

func (h *Handler) JoinTournamentByCode(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.execute(c, http.StatusOK, service.JoinTournamentByCode{InviteCode: req.InviteCode, PlayerID: req.PlayerID})
}

func (h *Handler) JoinTournament(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.JoinTournament{TournamentID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) LeaveTournament(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.LeaveTournament{TournamentID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) StartTournament(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.StartTournament{TournamentID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) CancelTournament(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.CancelTournament{TournamentID: c.Param("id"), PlayerID: player}
	})(c)
}

func (h *Handler) StartTournamentMatch(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.StartTournamentMatch{TournamentID: c.Param("id"), MatchID: c.Param("matchId"), PlayerID: player}
	})(c)
}

func (h *Handler) ForfeitTournamentMatch(c *gin.Context) {
	h.withPlayer(func(c *gin.Context, player string) service.Request {
		return service.ForfeitTournamentMatch{TournamentID: c.Param("id"), MatchID: c.Param("matchId"), PlayerID: player}
	})(c)
}

// GetStats reports archive totals when the SQLite store is in use and
// platform counters otherwise.
func (h *Handler) GetStats(c *gin.Context) {
	if h.archive != nil {
		stats, err := h.archive.GetStats()
		if err != nil {
			renderError(c, apperrors.Persistence(err))
			return
		}
		stats["storage_driver"] = h.driver
		c.JSON(http.StatusOK, stats)
		return
	}

	pending, err := h.svc.PendingGames()
	if err != nil {
		renderError(c, err)
		return
	}
	counts, err := h.svc.QueueCounts()
	if err != nil {
		renderError(c, err)
		return
	}
	tournaments, err := h.svc.Tournaments(models.FilterAll)
	if err != nil {
		renderError(c, err)
		return
	}

	queued := 0
	for _, q := range counts {
		queued += q.PlayerCount
	}
	c.JSON(http.StatusOK, gin.H{
		"storage_driver":    h.driver,
		"pending_games":     len(pending),
		"queued_players":    queued,
		"total_tournaments": len(tournaments),
		"time_controls":     clock.All(),
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}
