package loader

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// TileCache 原始瓦片缓存
type TileCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte)
}

// LRUCache 内存缓存
type LRUCache struct {
	c *lru.Cache[string, []byte]
}

// NewLRUCache 创建容量为 size 的内存缓存
func NewLRUCache(size int) (*LRUCache, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{c: c}, nil
}

func (l *LRUCache) Get(key string) ([]byte, bool) {
	return l.c.Get(key)
}

func (l *LRUCache) Set(key string, data []byte) {
	l.c.Add(key, data)
}

// Len 缓存条目数
func (l *LRUCache) Len() int {
	return l.c.Len()
}

// RedisCache redis 缓存
type RedisCache struct {
	pool   *redis.Pool
	ttl    time.Duration
	prefix string
}

// NewRedisCache 创建 redis 缓存, ttl 为 0 时不过期
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		pool: &redis.Pool{
			MaxIdle:     16,
			MaxActive:   32,
			IdleTimeout: 120 * time.Second,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", addr)
			},
		},
		ttl:    ttl,
		prefix: "vtlayer:tile:",
	}
}

func (r *RedisCache) Get(key string) ([]byte, bool) {
	conn := r.pool.Get()
	defer r.closeConn(conn)
	data, err := redis.Bytes(conn.Do("get", r.prefix+key))
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			log.Debugf("redis get tile %s error, details: %s", key, err)
		}
		return nil, false
	}
	return data, true
}

func (r *RedisCache) Set(key string, data []byte) {
	conn := r.pool.Get()
	defer r.closeConn(conn)
	if _, err := conn.Do("set", r.setArgs(key, data)...); err != nil {
		log.Debugf("redis save tile %s error, details: %s", key, err)
	}
}

// setArgs 过期时间按毫秒设置, 不足 1ms 取 1ms
func (r *RedisCache) setArgs(key string, data []byte) []interface{} {
	args := []interface{}{r.prefix + key, data}
	if r.ttl > 0 {
		ms := r.ttl.Milliseconds()
		if ms < 1 {
			ms = 1
		}
		args = append(args, "PX", ms)
	}
	return args
}

// Close 关闭连接池
func (r *RedisCache) Close() error {
	return r.pool.Close()
}

func (r *RedisCache) closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		log.Errorf("redis connection close failure")
	}
}
