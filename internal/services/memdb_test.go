package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/socialcore/internal/models"
)

// memDB is an in-memory stand-in for the social schema. It recognises the
// statements the services issue and enforces the same constraints as the
// migrations: one pending request per direction, unique friend edges and
// row locks for SELECT ... FOR UPDATE.
type memDB struct {
	mu       sync.Mutex
	nextID   int64
	clock    time.Time
	users    map[int64]*models.User
	requests map[int64]*models.FriendRequest
	friends  map[[2]int64]models.Friend
	messages []*models.Message
	rowLocks map[int64]*sync.Mutex
}

func newMemDB() *memDB {
	return &memDB{
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		users:    map[int64]*models.User{},
		requests: map[int64]*models.FriendRequest{},
		friends:  map[[2]int64]models.Friend{},
		rowLocks: map[int64]*sync.Mutex{},
	}
}

// tick must be called with mu held.
func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) addUser(username string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	u := &models.User{ID: m.id(), Username: username, PasswordHash: "x", Status: models.UserStatusActive, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID
}

func (m *memDB) edgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.friends)
}

func (m *memDB) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func argInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		panic(fmt.Sprintf("memdb: unexpected int arg %T", v))
	}
}

func argString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case models.FriendRequestStatus:
		return string(s)
	case models.UserStatus:
		return string(s)
	default:
		panic(fmt.Sprintf("memdb: unexpected string arg %T", v))
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func userValues(u *models.User) []any {
	return []any{u.ID, u.Username, u.PasswordHash, u.Status, u.CreatedAt, u.UpdatedAt}
}

func requestValues(r *models.FriendRequest) []any {
	return []any{r.ID, r.FromUserID, r.ToUserID, r.Status, r.CreatedAt, r.UpdatedAt}
}

func messageValues(msg *models.Message) []any {
	return []any{msg.ID, msg.FromUserID, msg.ToUserID, msg.Content, msg.IsRead, msg.Timestamp}
}

func (m *memDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryRowLocked(normalize(sql), args)
}

func (m *memDB) queryRowLocked(q string, args []any) Row {
	switch {
	case strings.HasPrefix(q, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)"):
		_, ok := m.users[argInt(args[0])]
		return rowFromValues(ok)

	case strings.Contains(q, "FROM users WHERE id = $1"):
		u, ok := m.users[argInt(args[0])]
		if !ok {
			return rowFromErr(pgx.ErrNoRows)
		}
		return rowFromValues(userValues(u)...)

	case strings.Contains(q, "FROM users WHERE username = $1"):
		for _, u := range m.users {
			if u.Username == argString(args[0]) {
				return rowFromValues(userValues(u)...)
			}
		}
		return rowFromErr(pgx.ErrNoRows)

	case strings.HasPrefix(q, "INSERT INTO users"):
		name := argString(args[0])
		for _, u := range m.users {
			if u.Username == name {
				return rowFromErr(uniqueViolation())
			}
		}
		now := m.tick()
		u := &models.User{ID: m.id(), Username: name, PasswordHash: argString(args[1]), Status: models.UserStatus(argString(args[2])), CreatedAt: now, UpdatedAt: now}
		m.users[u.ID] = u
		return rowFromValues(userValues(u)...)

	case strings.HasPrefix(q, "UPDATE users SET status"):
		u, ok := m.users[argInt(args[0])]
		if !ok {
			return rowFromErr(pgx.ErrNoRows)
		}
		u.Status = models.UserStatus(argString(args[1]))
		u.UpdatedAt = m.tick()
		return rowFromValues(userValues(u)...)

	case strings.Contains(q, "FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'pending'"):
		from, to := argInt(args[0]), argInt(args[1])
		for _, r := range m.requests {
			if r.FromUserID == from && r.ToUserID == to && r.IsPending() {
				return rowFromValues(true)
			}
		}
		return rowFromValues(false)

	case strings.HasPrefix(q, "INSERT INTO friend_requests"):
		from, to := argInt(args[0]), argInt(args[1])
		for _, r := range m.requests {
			if r.FromUserID == from && r.ToUserID == to && r.IsPending() {
				return rowFromErr(uniqueViolation())
			}
		}
		now := m.tick()
		r := &models.FriendRequest{ID: m.id(), FromUserID: from, ToUserID: to, Status: models.FriendRequestPending, CreatedAt: now, UpdatedAt: now}
		m.requests[r.ID] = r
		return rowFromValues(requestValues(r)...)

	case strings.Contains(q, "FROM friend_requests WHERE id = $1 FOR UPDATE"):
		r, ok := m.requests[argInt(args[0])]
		if !ok {
			return rowFromErr(pgx.ErrNoRows)
		}
		return rowFromValues(requestValues(r)...)

	case strings.Contains(q, "FROM friends WHERE user_id = $1 AND friend_id = $2"):
		_, ok := m.friends[[2]int64{argInt(args[0]), argInt(args[1])}]
		return rowFromValues(ok)

	case strings.HasPrefix(q, "INSERT INTO messages"):
		msg := &models.Message{ID: m.id(), FromUserID: argInt(args[0]), ToUserID: argInt(args[1]), Content: argString(args[2]), Timestamp: m.tick()}
		m.messages = append(m.messages, msg)
		return rowFromValues(messageValues(msg)...)

	case strings.HasPrefix(q, "SELECT COUNT(*) FROM messages"):
		var n int64
		for _, msg := range m.messages {
			if msg.ToUserID == argInt(args[0]) && !msg.IsRead {
				n++
			}
		}
		return rowFromValues(n)

	case strings.HasPrefix(q, "SELECT to_user_id FROM messages WHERE id = $1"):
		for _, msg := range m.messages {
			if msg.ID == argInt(args[0]) {
				return rowFromValues(msg.ToUserID)
			}
		}
		return rowFromErr(pgx.ErrNoRows)
	}
	panic("memdb: unhandled QueryRow: " + q)
}

func (m *memDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := normalize(sql)

	switch {
	case strings.Contains(q, "FROM friend_requests fr"):
		userID := argInt(args[0])
		incoming := strings.Contains(q, "fr.status = 'pending'")
		var list []*models.FriendRequest
		for _, r := range m.requests {
			if incoming && r.ToUserID == userID && r.IsPending() {
				list = append(list, r)
			}
			if !incoming && r.FromUserID == userID {
				list = append(list, r)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
		rows := &fakeRows{}
		for _, r := range list {
			rows.rows = append(rows.rows, append(requestValues(r), m.users[r.FromUserID].Username, m.users[r.ToUserID].Username))
		}
		return rows, nil

	case strings.Contains(q, "FROM friends f JOIN users"):
		userID := argInt(args[0])
		var list []models.Friend
		for k, f := range m.friends {
			if k[0] == userID {
				list = append(list, f)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
		rows := &fakeRows{}
		for _, f := range list {
			rows.rows = append(rows.rows, []any{f.ID, f.UserID, f.FriendID, f.CreatedAt, m.users[f.FriendID].Username})
		}
		return rows, nil

	case strings.Contains(q, "FROM messages WHERE (from_user_id = $1 AND to_user_id = $2)"):
		a, b, limit := argInt(args[0]), argInt(args[1]), argInt(args[2])
		rows := &fakeRows{}
		for i := len(m.messages) - 1; i >= 0 && int64(len(rows.rows)) < limit; i-- {
			msg := m.messages[i]
			if (msg.FromUserID == a && msg.ToUserID == b) || (msg.FromUserID == b && msg.ToUserID == a) {
				rows.rows = append(rows.rows, messageValues(msg))
			}
		}
		return rows, nil
	}
	panic("memdb: unhandled Query: " + q)
}

func (m *memDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.execLocked(normalize(sql), args)
}

func (m *memDB) execLocked(q string, args []any) (CommandTag, error) {
	switch {
	case strings.HasPrefix(q, "UPDATE friend_requests SET status"):
		r, ok := m.requests[argInt(args[0])]
		if !ok || !r.IsPending() {
			return fakeCommandTag{}, nil
		}
		r.Status = models.FriendRequestStatus(argString(args[1]))
		r.UpdatedAt = m.tick()
		return fakeCommandTag{rowsAffected: 1}, nil

	case strings.HasPrefix(q, "INSERT INTO friends"):
		a, b := argInt(args[0]), argInt(args[1])
		var n int64
		for _, k := range [][2]int64{{a, b}, {b, a}} {
			if _, exists := m.friends[k]; exists {
				continue
			}
			m.friends[k] = models.Friend{ID: m.id(), UserID: k[0], FriendID: k[1], CreatedAt: m.tick()}
			n++
		}
		return fakeCommandTag{rowsAffected: n}, nil

	case strings.HasPrefix(q, "UPDATE messages SET is_read = true WHERE id = $1"):
		for _, msg := range m.messages {
			if msg.ID == argInt(args[0]) && !msg.IsRead {
				msg.IsRead = true
				return fakeCommandTag{rowsAffected: 1}, nil
			}
		}
		return fakeCommandTag{}, nil

	case strings.HasPrefix(q, "UPDATE messages SET is_read = true WHERE to_user_id = $1 AND from_user_id = $2"):
		var n int64
		for _, msg := range m.messages {
			if msg.ToUserID == argInt(args[0]) && msg.FromUserID == argInt(args[1]) && !msg.IsRead {
				msg.IsRead = true
				n++
			}
		}
		return fakeCommandTag{rowsAffected: n}, nil
	}
	panic("memdb: unhandled Exec: " + q)
}

func (m *memDB) Begin(ctx context.Context) (Tx, error) {
	return &memTx{db: m}, nil
}

// memTx applies writes immediately and releases FOR UPDATE locks when it
// ends. None of the services' transactions fail after their first write
// under memDB, so there is nothing to undo on rollback.
type memTx struct {
	db     *memDB
	locked []*sync.Mutex
	done   bool
}

func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	q := normalize(sql)
	if strings.HasSuffix(q, "FOR UPDATE") {
		t.db.mu.Lock()
		l, ok := t.db.rowLocks[argInt(args[0])]
		if !ok {
			l = &sync.Mutex{}
			t.db.rowLocks[argInt(args[0])] = l
		}
		t.db.mu.Unlock()
		l.Lock()
		t.locked = append(t.locked, l)
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return t.db.queryRowLocked(q, args)
}

func (t *memTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *memTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return t.db.execLocked(normalize(sql), args)
}

func (t *memTx) Commit(ctx context.Context) error {
	t.end()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.end()
	return nil
}

func (t *memTx) end() {
	if t.done {
		return
	}
	t.done = true
	for _, l := range t.locked {
		l.Unlock()
	}
}
