package session

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mbolis/alumni-survey/draft"
	"github.com/mbolis/alumni-survey/model"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "draft:"
	maxRetries = 5
)

type record struct {
	SurveyID int         `json:"surveyId"`
	Version  int         `json:"version"`
	Updated  time.Time   `json:"updated"`
	Draft    model.Draft `json:"draft"`
	Marks    []uint64    `json:"marks,omitempty"`
}

func encode(s *Session) ([]byte, error) {
	return json.Marshal(record{
		SurveyID: s.SurveyID,
		Version:  s.Version,
		Updated:  s.Updated,
		Draft:    s.Draft.Snapshot(),
		Marks:    s.Draft.Highlights().Hashes(),
	})
}

func decode(id string, data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	d, err := draft.Restore(rec.Draft)
	if err != nil {
		return nil, err
	}
	for _, h := range rec.Marks {
		d.Highlights().MarkHash(h)
	}
	return &Session{
		ID:       id,
		SurveyID: rec.SurveyID,
		Version:  rec.Version,
		Draft:    d,
		Updated:  rec.Updated,
	}, nil
}

// RedisStore shares sessions between server instances. Every session is a
// JSON snapshot under its own key, expiring after the ttl of inactivity.
// Updates are optimistic transactions on that key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	s.Updated = time.Now()
	data, err := encode(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+s.ID, data, r.ttl).Err()
}

func (r *RedisStore) View(ctx context.Context, id string, fn func(*Session) error) error {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s, err := decode(id, data)
	if err != nil {
		return err
	}
	return fn(s)
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) error {
	key := keyPrefix + id
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		s, err := decode(id, data)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}

		s.Updated = time.Now()
		data, err = encode(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
