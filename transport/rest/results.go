package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/repository"
)

const defaultLeaderboardLimit = 10

type resultReader interface {
	GetByID(ctx context.Context, id string) (*entity.Result, error)
	Leaderboard(ctx context.Context, limit int64) ([]entity.LeaderboardEntry, error)
}

type resultHandlers struct {
	logger  *slog.Logger
	results resultReader
}

func (that *resultHandlers) getResult(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getResult")

	result, err := that.results.GetByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrResultNotFound) {
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get result", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, result)
}

func (that *resultHandlers) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getLeaderboard")

	limit := int64(defaultLeaderboardLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := that.results.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error("failed to read leaderboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, entries)
}

func (that *resultHandlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
