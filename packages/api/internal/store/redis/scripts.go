package redis

import "github.com/redis/go-redis/v9"

// Every script touches one record key and its namespace index. Both share a
// hash tag so they land in the same slot in cluster mode.
var (
	// KEYS[1] = record key, KEYS[2] = index key
	// ARGV[1] = data, ARGV[2] = index member
	createScript = redis.NewScript(`
		if redis.call('EXISTS', KEYS[1]) == 1 then
			return 0
		end
		redis.call('SET', KEYS[1], ARGV[1])
		redis.call('ZADD', KEYS[2], 0, ARGV[2])
		return 1
	`)

	// Returns the previous value or nil.
	// KEYS[1] = record key, KEYS[2] = index key
	// ARGV[1] = data, ARGV[2] = index member
	putScript = redis.NewScript(`
		local previous = redis.call('GET', KEYS[1])
		redis.call('SET', KEYS[1], ARGV[1])
		redis.call('ZADD', KEYS[2], 0, ARGV[2])
		return previous
	`)

	// KEYS[1] = record key
	// ARGV[1] = expected data, ARGV[2] = new data
	compareAndSwapScript = redis.NewScript(`
		local current = redis.call('GET', KEYS[1])
		if current == false or current ~= ARGV[1] then
			return 0
		end
		redis.call('SET', KEYS[1], ARGV[2])
		return 1
	`)

	// KEYS[1] = record key, KEYS[2] = index key
	// ARGV[1] = index member, ARGV[2] = expected data
	compareAndDeleteScript = redis.NewScript(`
		local current = redis.call('GET', KEYS[1])
		if current == false or current ~= ARGV[2] then
			return 0
		end
		redis.call('DEL', KEYS[1])
		redis.call('ZREM', KEYS[2], ARGV[1])
		return 1
	`)

	// KEYS[1] = record key, KEYS[2] = index key
	// ARGV[1] = index member
	deleteScript = redis.NewScript(`
		local removed = redis.call('DEL', KEYS[1])
		redis.call('ZREM', KEYS[2], ARGV[1])
		return removed
	`)
)
