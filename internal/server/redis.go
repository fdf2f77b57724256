package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"kanban/internal/board"
)

// maxTxRetries bounds optimistic transaction retries on a contended card.
const maxTxRetries = 8

// RedisRepository stores each card as JSON in one hash, keyed by card id,
// with the display order in a list and task ids drawn from a counter.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a repository whose keys start with prefix.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "kanban"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) cardsKey() string { return r.prefix + ":cards" }
func (r *RedisRepository) orderKey() string { return r.prefix + ":order" }
func (r *RedisRepository) seqKey() string   { return r.prefix + ":task_seq" }

// Seed stores b when the repository is empty and reports whether it did.
func (r *RedisRepository) Seed(ctx context.Context, b board.Board) (bool, error) {
	n, err := r.client.Exists(ctx, r.orderKey()).Result()
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	maxID := 0
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range b.Cards {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			p.HSet(ctx, r.cardsKey(), c.ID.String(), data)
			p.RPush(ctx, r.orderKey(), c.ID.String())
			for _, t := range c.Tasks {
				if id, err := strconv.Atoi(t.ID.String()); err == nil && id > maxID {
					maxID = id
				}
			}
		}
		p.Set(ctx, r.seqKey(), maxID, 0)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	return true, nil
}

// Cards implements Repository.
func (r *RedisRepository) Cards(ctx context.Context) (board.Board, error) {
	ids, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return board.Board{}, fmt.Errorf("load card order: %w", err)
	}
	if len(ids) == 0 {
		return board.Board{Cards: []board.Card{}}, nil
	}
	raw, err := r.client.HMGet(ctx, r.cardsKey(), ids...).Result()
	if err != nil {
		return board.Board{}, fmt.Errorf("load cards: %w", err)
	}

	cards := make([]board.Card, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			// Listed in the order but missing from the hash.
			continue
		}
		card, err := decodeCard([]byte(s))
		if err != nil {
			return board.Board{}, fmt.Errorf("decode card %s: %w", ids[i], err)
		}
		cards = append(cards, card)
	}
	return board.Board{Cards: cards}, nil
}

// AddTask implements Repository.
func (r *RedisRepository) AddTask(ctx context.Context, cardID board.ID, name string, done bool) (board.Task, error) {
	exists, err := r.client.HExists(ctx, r.cardsKey(), cardID.String()).Result()
	if err != nil {
		return board.Task{}, fmt.Errorf("add task: %w", err)
	}
	if !exists {
		return board.Task{}, fmt.Errorf("%w: %s", board.ErrCardNotFound, cardID)
	}

	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return board.Task{}, fmt.Errorf("allocate task id: %w", err)
	}
	task := board.Task{ID: board.ID(strconv.FormatInt(seq, 10)), Name: name, Done: done}
	err = r.update(ctx, cardID, func(c *board.Card) error {
		c.Tasks = append(c.Tasks, task)
		return nil
	})
	if err != nil {
		return board.Task{}, err
	}
	return task, nil
}

// DeleteTask implements Repository.
func (r *RedisRepository) DeleteTask(ctx context.Context, cardID, taskID board.ID) error {
	return r.update(ctx, cardID, func(c *board.Card) error {
		i := taskPosition(c, taskID)
		if i < 0 {
			return fmt.Errorf("%w: %s on card %s", board.ErrTaskNotFound, taskID, cardID)
		}
		c.Tasks = append(c.Tasks[:i], c.Tasks[i+1:]...)
		return nil
	})
}

// SetTaskDone implements Repository.
func (r *RedisRepository) SetTaskDone(ctx context.Context, cardID, taskID board.ID, done bool) (board.Task, error) {
	var updated board.Task
	err := r.update(ctx, cardID, func(c *board.Card) error {
		i := taskPosition(c, taskID)
		if i < 0 {
			return fmt.Errorf("%w: %s on card %s", board.ErrTaskNotFound, taskID, cardID)
		}
		c.Tasks[i].Done = done
		updated = c.Tasks[i]
		return nil
	})
	if err != nil {
		return board.Task{}, err
	}
	return updated, nil
}

// update applies fn to one card inside a WATCH transaction, retrying when
// another writer touched the hash in between.
func (r *RedisRepository) update(ctx context.Context, cardID board.ID, fn func(c *board.Card) error) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, r.cardsKey(), cardID.String()).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", board.ErrCardNotFound, cardID)
		}
		if err != nil {
			return err
		}
		card, err := decodeCard(raw)
		if err != nil {
			return fmt.Errorf("decode card %s: %w", cardID, err)
		}
		if err := fn(&card); err != nil {
			return err
		}
		data, err := json.Marshal(card)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, r.cardsKey(), cardID.String(), data)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, r.cardsKey())
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update card %s: %w", cardID, redis.TxFailedErr)
}

func decodeCard(data []byte) (board.Card, error) {
	var c board.Card
	if err := json.Unmarshal(data, &c); err != nil {
		return board.Card{}, err
	}
	if c.Tasks == nil {
		c.Tasks = []board.Task{}
	}
	return c, nil
}

func taskPosition(c *board.Card, taskID board.ID) int {
	for i, t := range c.Tasks {
		if t.ID == taskID {
			return i
		}
	}
	return -1
}
