package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/apperrors"
	"github.com/chdb/checkers/internal/board"
	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/models"
	"github.com/chdb/checkers/internal/notation"
	"github.com/chdb/checkers/internal/search"
)

const defaultSearchLimit = 100

type ArchiveHandler struct {
	db      *database.DB
	parser  *notation.Parser
	matcher *search.PatternMatcher
	logger  *zap.Logger
}

func NewArchiveHandler(db *database.DB, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		db:      db,
		parser:  notation.NewParser(),
		matcher: search.NewPatternMatcher(db),
		logger:  logger,
	}
}

func (h *ArchiveHandler) ImportGames(c *gin.Context) {
	var req struct {
		PDN string `json:"pdn" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	startTime := time.Now()
	texts := notation.SplitGames(req.PDN)
	if len(texts) == 0 {
		renderError(c, apperrors.Validation("No games found in PDN", ""))
		return
	}

	result := &models.ImportResult{
		TotalGames: len(texts),
	}

	for i, text := range texts {
		game, positions, err := h.parser.ParseGame(text)
		if err != nil {
			result.FailedGames++
			result.Errors = append(result.Errors, fmt.Sprintf("Game %d: failed to parse: %v", i+1, err))
			continue
		}

		if _, err := h.db.InsertArchivedGame(game, positions); err != nil {
			result.FailedGames++
			result.Errors = append(result.Errors, fmt.Sprintf("Game %d: failed to insert: %v", i+1, err))
			continue
		}

		result.ImportedGames++
	}

	result.ProcessingTime = time.Since(startTime).Seconds()
	h.logger.Info("archive import finished",
		zap.Int("imported", result.ImportedGames),
		zap.Int("failed", result.FailedGames))
	c.JSON(http.StatusOK, result)
}

func (h *ArchiveHandler) SearchGames(c *gin.Context) {
	params := &models.SearchParams{
		Limit:  defaultSearchLimit,
		Offset: 0,
	}

	params.Red = c.Query("red")
	params.Black = c.Query("black")
	params.Either = c.Query("either")
	params.Event = c.Query("event")
	params.Result = c.Query("result")
	params.DateFrom = c.Query("date_from")
	params.DateTo = c.Query("date_to")
	params.Position = c.Query("position")
	params.SideToMove = c.DefaultQuery("side_to_move", board.Red.String())

	if minPlies := c.Query("min_plies"); minPlies != "" {
		if val, err := strconv.Atoi(minPlies); err == nil {
			params.MinPlies = val
		}
	}

	if maxPlies := c.Query("max_plies"); maxPlies != "" {
		if val, err := strconv.Atoi(maxPlies); err == nil {
			params.MaxPlies = val
		}
	}

	if limit := c.Query("limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			params.Limit = val
		}
	}

	if offset := c.Query("offset"); offset != "" {
		if val, err := strconv.Atoi(offset); err == nil {
			params.Offset = val
		}
	}

	params.IncludeMoves = c.Query("include_moves") == "true"

	var games []*models.ArchivedGame
	var err error

	if params.Position != "" {
		b, decodeErr := board.Decode(params.Position)
		if decodeErr != nil {
			renderError(c, apperrors.Validation("Invalid position", decodeErr.Error()))
			return
		}
		var side board.Side
		if sideErr := side.UnmarshalText([]byte(params.SideToMove)); sideErr != nil {
			renderError(c, apperrors.Validation("Invalid side to move", params.SideToMove))
			return
		}
		games, err = h.db.SearchByPosition(b, side, params.Limit)
	} else {
		games, err = h.db.SearchArchive(params)
	}

	if err != nil {
		renderError(c, apperrors.Persistence(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"games": games,
		"count": len(games),
	})
}

func (h *ArchiveHandler) SearchByMaterial(c *gin.Context) {
	var material models.Material
	for key, dst := range map[string]*int{
		"red_men":     &material.RedMen,
		"red_kings":   &material.RedKings,
		"black_men":   &material.BlackMen,
		"black_kings": &material.BlackKings,
	} {
		v := c.DefaultQuery(key, "0")
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 12 {
			renderError(c, apperrors.Validation("Invalid piece count", key+"="+v))
			return
		}
		*dst = n
	}

	games, err := h.matcher.SearchByMaterial(material, queryLimit(c))
	if err != nil {
		renderError(c, apperrors.Persistence(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signature": material.Signature(),
		"games":     games,
		"count":     len(games),
	})
}

func (h *ArchiveHandler) SearchByPattern(c *gin.Context) {
	var pattern models.Pattern
	if err := c.ShouldBindJSON(&pattern); err != nil {
		badRequest(c, err)
		return
	}

	games, err := h.matcher.SearchByPattern(&pattern, queryLimit(c))
	if err != nil {
		renderError(c, apperrors.Persistence(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"games": games,
		"count": len(games),
	})
}

func (h *ArchiveHandler) GetGame(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		renderError(c, apperrors.Validation("Invalid game ID", c.Param("id")))
		return
	}

	game, err := h.db.GetArchivedGame(id)
	if err != nil {
		renderError(c, apperrors.Persistence(err))
		return
	}

	if game == nil {
		renderError(c, apperrors.ErrGameNotFound)
		return
	}

	c.JSON(http.StatusOK, game)
}

func (h *ArchiveHandler) DeleteGame(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		renderError(c, apperrors.Validation("Invalid game ID", c.Param("id")))
		return
	}

	deleted, err := h.db.DeleteArchivedGame(id)
	if err != nil {
		renderError(c, apperrors.Persistence(err))
		return
	}
	if !deleted {
		renderError(c, apperrors.ErrGameNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
}

func queryLimit(c *gin.Context) int {
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			return val
		}
	}
	return defaultSearchLimit
}
