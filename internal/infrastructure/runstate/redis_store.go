package runstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"AINewsAgent/internal/apperr"
	"AINewsAgent/internal/domain"
	"AINewsAgent/internal/ports"
)

var allStates = []domain.RunState{
	domain.StateNew,
	domain.StateFetching,
	domain.StateCurating,
	domain.StateDrafting,
	domain.StateAwaitingApproval,
	domain.StatePublishing,
	domain.StateDone,
	domain.StateRejected,
	domain.StateFailed,
}

// RedisStore keeps each run as a JSON string plus a set of run ids per state.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ ports.RunStore = (*RedisStore)(nil)

// NewRedisClient parses a redis:// URL, falling back to a bare address.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperr.NewStorage("ping redis", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ainews"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) runKey(id string) string {
	return fmt.Sprintf("%s:run:%s", s.prefix, id)
}

func (s *RedisStore) stateKey(state domain.RunState) string {
	name := string(state)
	if name == "" {
		name = "new"
	}
	return fmt.Sprintf("%s:runs:%s", s.prefix, name)
}

// Save writes the checkpoint and moves its id into the set of its state atomically.
func (s *RedisStore) Save(ctx context.Context, run domain.Run) error {
	raw, err := encode(run)
	if err != nil {
		return apperr.NewStorage("encode run", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.runKey(run.ID), raw, 0)
		for _, state := range allStates {
			if state != run.State {
				pipe.SRem(ctx, s.stateKey(state), run.ID)
			}
		}
		pipe.SAdd(ctx, s.stateKey(run.State), run.ID)
		return nil
	})
	if err != nil {
		return apperr.NewStorage("save run", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, runID string) (domain.Run, error) {
	raw, err := s.client.Get(ctx, s.runKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Run{}, apperr.ErrRunNotFound
		}
		return domain.Run{}, apperr.NewStorage("load run", err)
	}

	run, err := decode(raw)
	if err != nil {
		return domain.Run{}, apperr.NewStorage("decode run", err)
	}
	return run, nil
}

func (s *RedisStore) ListByState(ctx context.Context, state domain.RunState) ([]domain.Run, error) {
	ids, err := s.client.SMembers(ctx, s.stateKey(state)).Result()
	if err != nil {
		return nil, apperr.NewStorage("list runs", err)
	}

	runs := []domain.Run{}
	if len(ids) == 0 {
		return runs, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.runKey(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.NewStorage("list runs", err)
	}

	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		run, err := decode([]byte(str))
		if err != nil {
			return nil, apperr.NewStorage("decode run", err)
		}
		if run.State == state {
			runs = append(runs, run)
		}
	}

	sortByCreation(runs)
	return runs, nil
}
