package session

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level Redis failure so callers
// can map store outages to a single service-unavailable response.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrDuplicateSessionID is returned by [Store.Create] when the generated
// session ID already exists. Callers should regenerate and retry.
var ErrDuplicateSessionID = errors.New("duplicate session id")

// ErrDuplicateRefreshToken is returned by [Store.SaveRefresh] when a live
// record already exists under the same token hash.
var ErrDuplicateRefreshToken = errors.New("duplicate refresh token")

// ConsumeStatus is the outcome of an atomic refresh-token consume attempt.
type ConsumeStatus int64

const (
	// ConsumeUnknown means no live record and no consumed marker existed.
	ConsumeUnknown ConsumeStatus = 0
	// ConsumeRotated means this caller won the record and may rotate.
	ConsumeRotated ConsumeStatus = 1
	// ConsumeReplayed means the record was already consumed by an earlier
	// call within the detection window. The session it belonged to must be
	// treated as compromised.
	ConsumeReplayed ConsumeStatus = 2
)

const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
  local count = tonumber(redis.call("GET", KEYS[3]) or "0")
  if count > 1 then
    redis.call("DECR", KEYS[3])
  elseif count == 1 then
    redis.call("DEL", KEYS[3])
  end
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// consumeRefreshScript moves a live refresh record to a consumed marker in
// one atomic step. Exactly one of N concurrent callers observes status 1;
// the rest observe 2 (replay) carrying the original record so the caller
// can identify which session to revoke. The winner also receives the
// session blob from the same atomic step, so a racing replay caller that
// revokes the session cannot starve the winner mid-rotation.
const consumeRefreshScript = `
local data = redis.call("GET", KEYS[1])
if data then
  redis.call("DEL", KEYS[1])
  redis.call("SET", KEYS[2], data, "PX", ARGV[1])
  local rec = cjson.decode(data)
  local blob = redis.call("GET", ARGV[2] .. ":" .. rec["inst"] .. ":" .. rec["sid"])
  if blob then
    return {1, data, blob}
  end
  return {1, data}
end
local marker = redis.call("GET", KEYS[2])
if marker then
  return {2, marker}
end
return {0}
`

var consumeRefreshLua = redis.NewScript(consumeRefreshScript)

// Store is the Redis-backed persistence layer for sessions, refresh-token
// records, and access-token blacklist markers.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] backed by the given Redis client. prefix
// namespaces every session key; the index, refresh, and blacklist key
// families derive from it.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ps"
	}
	return &Store{redis: redis, prefix: prefix}
}

func (s *Store) key(institutionID, sessionID string) string {
	return s.prefix + ":" + normalizeInstitutionID(institutionID) + ":" + sessionID
}

func (s *Store) userKey(institutionID, userID string) string {
	return s.prefix + ":u:" + normalizeInstitutionID(institutionID) + ":" + userID
}

func (s *Store) countKey(institutionID string) string {
	return s.prefix + ":n:" + normalizeInstitutionID(institutionID)
}

func (s *Store) refreshKey(tokenHash [32]byte) string {
	return s.prefix + ":r:" + hex.EncodeToString(tokenHash[:])
}

func (s *Store) consumedKey(tokenHash [32]byte) string {
	return s.prefix + ":rc:" + hex.EncodeToString(tokenHash[:])
}

func (s *Store) blacklistKey(tokenHash [32]byte) string {
	return s.prefix + ":b:" + hex.EncodeToString(tokenHash[:])
}

func normalizeInstitutionID(institutionID string) string {
	if institutionID == "" {
		return "0"
	}
	return institutionID
}

// Create persists a new session and registers it in the user's session
// index. The session key is written with NX so an ID collision surfaces as
// [ErrDuplicateSessionID] instead of silently overwriting a live session.
func (s *Store) Create(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	sessionKey := s.key(sess.InstitutionID, sess.SessionID)

	ok, err := s.redis.SetNX(ctx, sessionKey, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrDuplicateSessionID
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.userKey(sess.InstitutionID, sess.UserID), sess.SessionID)
		pipe.Incr(ctx, s.countKey(sess.InstitutionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get retrieves a session by institution and session ID. Returns redis.Nil
// when the session is absent or past its absolute expiry; an expired blob
// is deleted on the way out.
func (s *Store) Get(ctx context.Context, institutionID, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(institutionID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sessionID

	if time.Now().Unix() >= sess.ExpiresAt {
		if err := s.deleteSessionAndIndex(ctx, sess.InstitutionID, sess.UserID, sessionID); err != nil {
			return nil, err
		}
		return nil, redis.Nil
	}

	return sess, nil
}

// Touch records last-activity time without extending the absolute expiry.
// The blob is rewritten with KEEPTTL so the Redis TTL is untouched.
func (s *Store) Touch(ctx context.Context, institutionID, sessionID string, at time.Time) error {
	key := s.key(institutionID, sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return err
	}
	sess.LastActivityAt = at.Unix()

	updated, err := Encode(sess)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a session and its index entry. Deleting a session that no
// longer exists is a no-op, so logout stays idempotent.
func (s *Store) Delete(ctx context.Context, institutionID, sessionID string) error {
	key := s.key(institutionID, sessionID)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return err
	}

	return s.deleteSessionAndIndex(ctx, institutionID, sess.UserID, sessionID)
}

// DeleteAllForUser removes every tracked session for a user within an
// institution.
//
// ATOMICITY NOTE: this is not fully atomic. It reads the user's session set,
// checks which sessions still exist, then deletes them in a transaction. A
// session created between the read and delete phases is not captured; it
// expires naturally or is caught by a later call.
func (s *Store) DeleteAllForUser(ctx context.Context, institutionID, userID string) error {
	userKey := s.userKey(institutionID, userID)
	countKey := s.countKey(institutionID)

	sessionIDs, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessionKeys := make([]string, 0, len(sessionIDs))
	for _, sessionID := range sessionIDs {
		sessionKeys = append(sessionKeys, s.key(institutionID, sessionID))
	}

	currentCount, err := s.InstitutionSessionCount(ctx, institutionID)
	if err != nil {
		return err
	}

	var existing int
	if len(sessionKeys) > 0 {
		pipe := s.redis.Pipeline()
		existsCmds := make([]*redis.IntCmd, len(sessionKeys))
		for i, sessionKey := range sessionKeys {
			existsCmds[i] = pipe.Exists(ctx, sessionKey)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, cmd := range existsCmds {
			v, cmdErr := cmd.Result()
			if cmdErr != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
			}
			existing += int(v)
		}
	}

	decrement := existing
	if decrement > currentCount {
		decrement = currentCount
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(sessionKeys) > 0 {
			pipe.Del(ctx, sessionKeys...)
		}
		pipe.Del(ctx, userKey)
		if decrement > 0 && decrement < currentCount {
			pipe.DecrBy(ctx, countKey, int64(decrement))
		}
		if decrement == currentCount && currentCount > 0 {
			pipe.Del(ctx, countKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// InstitutionSessionCount returns the tracked institution-wide session counter.
func (s *Store) InstitutionSessionCount(ctx context.Context, institutionID string) (int, error) {
	count, err := s.redis.Get(ctx, s.countKey(institutionID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// ActiveSessionIDs returns the tracked session IDs for a user.
func (s *Store) ActiveSessionIDs(ctx context.Context, institutionID, userID string) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.userKey(institutionID, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// ListByUser fetches every live session for a user without mutating TTLs.
// Index entries whose session key has already expired are skipped.
func (s *Store) ListByUser(ctx context.Context, institutionID, userID string) ([]*Session, error) {
	sessionIDs, err := s.ActiveSessionIDs(ctx, institutionID, userID)
	if err != nil {
		return nil, err
	}
	if len(sessionIDs) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		cmds[i] = pipe.Get(ctx, s.key(institutionID, sid))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessions := make([]*Session, 0, len(sessionIDs))
	nowUnix := time.Now().Unix()
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		sess, decErr := Decode(data)
		if decErr != nil {
			return nil, decErr
		}
		sess.SessionID = sessionIDs[i]
		if nowUnix >= sess.ExpiresAt {
			continue
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

// SaveRefresh stores a refresh record under the SHA-256 of the opaque
// token. Written with NX: a hash collision with a live record is treated
// as a duplicate, never an overwrite.
func (s *Store) SaveRefresh(ctx context.Context, tokenHash [32]byte, rec *RefreshRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, s.refreshKey(tokenHash), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrDuplicateRefreshToken
	}
	return nil
}

// ConsumeRefresh atomically consumes the refresh record for tokenHash.
// On [ConsumeRotated] the returned record belongs to this caller alone and
// the session is fetched in the same atomic step, so a concurrent replay
// caller revoking the session cannot starve the winner; a nil session means
// it was already gone. On [ConsumeReplayed] the returned record identifies
// the session that must be revoked. markerTTL bounds how long replay
// remains detectable.
func (s *Store) ConsumeRefresh(ctx context.Context, tokenHash [32]byte, markerTTL time.Duration) (*RefreshRecord, *Session, ConsumeStatus, error) {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}

	result, err := consumeRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.refreshKey(tokenHash), s.consumedKey(tokenHash)},
		markerTTL.Milliseconds(),
		s.prefix,
	).Result()
	if err != nil {
		return nil, nil, ConsumeUnknown, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, nil, ConsumeUnknown, fmt.Errorf("%w: invalid consume script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, nil, ConsumeUnknown, fmt.Errorf("%w: invalid consume script status", ErrRedisUnavailable)
	}

	status := ConsumeStatus(code)
	if status == ConsumeUnknown {
		return nil, nil, ConsumeUnknown, nil
	}
	if len(parts) < 2 {
		return nil, nil, ConsumeUnknown, fmt.Errorf("%w: missing refresh record payload", ErrRedisUnavailable)
	}

	blob, err := scriptBytes(parts[1])
	if err != nil {
		return nil, nil, ConsumeUnknown, fmt.Errorf("%w: invalid refresh record payload", ErrRedisUnavailable)
	}

	rec := &RefreshRecord{}
	if err := json.Unmarshal(blob, rec); err != nil {
		return nil, nil, ConsumeUnknown, fmt.Errorf("refresh record corrupt: %w", err)
	}

	var sess *Session
	if status == ConsumeRotated && len(parts) >= 3 {
		sessBlob, err := scriptBytes(parts[2])
		if err != nil {
			return nil, nil, ConsumeUnknown, fmt.Errorf("%w: invalid session payload", ErrRedisUnavailable)
		}
		sess, err = Decode(sessBlob)
		if err != nil {
			return nil, nil, ConsumeUnknown, err
		}
		sess.SessionID = rec.SessionID
		if time.Now().Unix() >= sess.ExpiresAt {
			sess = nil
		}
	}

	return rec, sess, status, nil
}

func scriptBytes(v interface{}) ([]byte, error) {
	switch v := v.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected script payload type %T", v)
	}
}

// DeleteRefresh removes a live refresh record, used when the session it
// belongs to is revoked. Missing records are ignored.
func (s *Store) DeleteRefresh(ctx context.Context, tokenHash [32]byte) error {
	if err := s.redis.Del(ctx, s.refreshKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// BlacklistToken marks a revoked access token for the remainder of its
// lifetime. A non-positive ttl means the token is already expired and
// nothing needs to be written.
func (s *Store) BlacklistToken(ctx context.Context, tokenHash [32]byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.blacklistKey(tokenHash), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsBlacklisted reports whether an access token has been revoked.
func (s *Store) IsBlacklisted(ctx context.Context, tokenHash [32]byte) (bool, error) {
	n, err := s.redis.Exists(ctx, s.blacklistKey(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *Store) deleteSessionAndIndex(ctx context.Context, institutionID, userID, sessionID string) error {
	keys := []string{
		s.key(institutionID, sessionID),
		s.userKey(institutionID, userID),
		s.countKey(institutionID),
	}
	if _, err := deleteSessionLua.Run(ctx, s.redis, keys, sessionID).Result(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
