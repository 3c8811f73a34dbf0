// pkg/object/redis.go

package object

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var bgCtx = context.Background()

// redisStore keeps every object as one string value.
type redisStore struct {
	uri string
	rdb *redis.Client
}

func (r *redisStore) String() string {
	return r.uri
}

func (r *redisStore) Head(key string) (*Object, error) {
	n, err := r.rdb.Exists(bgCtx, key).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	size, err := r.rdb.StrLen(bgCtx, key).Result()
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, Size: size}, nil
}

func (r *redisStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	var data []byte
	var err error
	if off == 0 && limit < 0 {
		data, err = r.rdb.Get(bgCtx, key).Bytes()
	} else {
		end := int64(-1)
		if limit >= 0 {
			if limit == 0 {
				return io.NopCloser(bytes.NewReader(nil)), nil
			}
			end = off + limit - 1
		}
		data, err = r.rdb.GetRange(bgCtx, key, off, end).Bytes()
		if err == nil && len(data) == 0 {
			if _, err = r.Head(key); err != nil {
				return nil, err
			}
		}
	}
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (r *redisStore) Put(key string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrapf(err, "read %s", key)
	}
	return r.rdb.Set(bgCtx, key, data, 0).Err()
}

func (r *redisStore) Delete(key string) error {
	return r.rdb.Del(bgCtx, key).Err()
}

func newRedis(uri, user, passwd string) (ObjectStorage, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", uri)
	}
	if user != "" {
		opt.Username = user
	}
	if passwd != "" {
		opt.Password = passwd
	}
	if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
		opt.Password = os.Getenv("REDIS_PASSWORD")
	}
	opt.MaxRetries = 3
	opt.MinRetryBackoff = time.Millisecond * 100
	opt.MaxRetryBackoff = time.Minute * 1
	opt.ReadTimeout = time.Second * 30
	opt.WriteTimeout = time.Second * 5
	return &redisStore{uri: uri, rdb: redis.NewClient(opt)}, nil
}

func init() {
	Register("redis", newRedis)
}
