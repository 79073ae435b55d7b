package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
)

const leaderboardKey = "leaderboard:wins"

var ErrResultNotFound = errors.New("result not found")

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	GetByID(ctx context.Context, id string) (*entity.Result, error)
	Leaderboard(ctx context.Context, limit int64) ([]entity.LeaderboardEntry, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

// Save stores the result under game:<id> and credits the winner on the leaderboard.
func (that *dbResult) Save(ctx context.Context, result *entity.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultKey(result.ID), resultJSON, 0)

		if result.IsWin() && result.Player != nil {
			pipe.ZIncrBy(ctx, leaderboardKey, 1, playerMember(*result.Player))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByID(ctx context.Context, id string) (*entity.Result, error) {
	response, err := that.client.Get(ctx, resultKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result by id: %w", err)
	}

	var result entity.Result
	if err = json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

func (that *dbResult) Leaderboard(ctx context.Context, limit int64) ([]entity.LeaderboardEntry, error) {
	scores, err := that.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]entity.LeaderboardEntry, 0, len(scores))
	for _, score := range scores {
		member, ok := score.Member.(string)
		if !ok {
			continue
		}

		entries = append(entries, entity.LeaderboardEntry{
			Player: member,
			Wins:   score.Score,
		})
	}

	return entries, nil
}

func resultKey(id string) string {
	return "game:" + id
}

func playerMember(player entity.PlayerID) string {
	return fmt.Sprintf("player:%d", player)
}
