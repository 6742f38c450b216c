package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"matchday/internal/model"
	"matchday/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKE REPOSITORIES
// =============================================================================
//
// In-memory stand-ins for the Postgres repositories. Each one is safe for
// concurrent use because the dispatcher prunes tokens from many goroutines.

var errStoreDown = errors.New("store unavailable")

type fakeSettingRepo struct {
	mu       sync.Mutex
	rows     map[int64]*model.NotificationSetting
	getErr   error
	getCalls int
	saveErr  error
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{rows: make(map[int64]*model.NotificationSetting)}
}

// configure stores a row for userID, starting from the all-enabled default.
func (r *fakeSettingRepo) configure(userID int64, mutate func(s *model.NotificationSetting)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := model.DefaultNotificationSetting(userID)
	if mutate != nil {
		mutate(&s)
	}
	r.rows[userID] = &s
}

func (r *fakeSettingRepo) Get(ctx context.Context, userID int64) (*model.NotificationSetting, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.getErr != nil {
		return nil, false, r.getErr
	}
	row, ok := r.rows[userID]
	if !ok {
		return nil, false, nil
	}
	cp := *row
	return &cp, true, nil
}

func (r *fakeSettingRepo) GetOrCreate(ctx context.Context, userID int64) (*model.NotificationSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	row, ok := r.rows[userID]
	if !ok {
		def := model.DefaultNotificationSetting(userID)
		row = &def
		r.rows[userID] = row
	}
	cp := *row
	return &cp, nil
}

func (r *fakeSettingRepo) Save(ctx context.Context, s *model.NotificationSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *s
	r.rows[s.UserID] = &cp
	return nil
}

// fakeAudienceRepo evaluates the broadcast query against fakeSettingRepo,
// mirroring the COALESCE(..., true) semantics of the SQL.
type fakeAudienceRepo struct {
	settings *fakeSettingRepo
	users    []int64
	subs     map[model.SubscriptionType]map[int64][]int64
	err      error
	calls    int
}

func newFakeAudienceRepo(settings *fakeSettingRepo) *fakeAudienceRepo {
	return &fakeAudienceRepo{
		settings: settings,
		subs:     make(map[model.SubscriptionType]map[int64][]int64),
	}
}

func (r *fakeAudienceRepo) subscribe(t model.SubscriptionType, entityID int64, userIDs ...int64) {
	if r.subs[t] == nil {
		r.subs[t] = make(map[int64][]int64)
	}
	r.subs[t][entityID] = append(r.subs[t][entityID], userIDs...)
}

func (r *fakeAudienceRepo) BroadcastAudience(ctx context.Context, category model.EventCategory, filter *model.SubscriptionFilter) ([]repository.AudienceMember, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}

	candidates := r.users
	if filter != nil {
		candidates = r.subs[filter.Type][filter.EntityID]
	}

	r.settings.mu.Lock()
	defer r.settings.mu.Unlock()

	var members []repository.AudienceMember
	for _, id := range candidates {
		row, ok := r.settings.rows[id]
		if !ok {
			members = append(members, repository.AudienceMember{UserID: id})
			continue
		}
		if !row.PushEnabled || !row.Allows(category) {
			continue
		}
		members = append(members, repository.AudienceMember{
			UserID:          id,
			QuietHoursStart: row.QuietHoursStart,
			QuietHoursEnd:   row.QuietHoursEnd,
		})
	}
	return members, nil
}

type fakeNotificationRepo struct {
	mu          sync.Mutex
	rows        []model.Notification
	insertErr   error
	insertCalls int
	nextID      int64
}

func (r *fakeNotificationRepo) InsertBatch(ctx context.Context, rows []model.Notification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	for _, row := range rows {
		r.nextID++
		row.ID = r.nextID
		row.CreatedAt = time.Now()
		r.rows = append(r.rows, row)
	}
	return int64(len(rows)), nil
}

func (r *fakeNotificationRepo) List(ctx context.Context, userID int64, cursor *int64, limit int) ([]model.Notification, *int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for i := len(r.rows) - 1; i >= 0; i-- {
		n := r.rows[i]
		if n.UserID != userID || (cursor != nil && n.ID >= *cursor) {
			continue
		}
		out = append(out, n)
	}
	var next *int64
	if len(out) > limit {
		out = out[:limit]
		id := out[limit-1].ID
		next = &id
	}
	return out, next, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, userID int64, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && want[r.rows[i].ID] && !r.rows[i].IsRead {
			r.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && !r.rows[i].IsRead {
			r.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) forUser(userID int64) []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens []model.DeviceToken
	nextID int64
	getErr error
}

func (r *fakeTokenRepo) add(userID int64, tokens ...string) {
	for _, tok := range tokens {
		_, _ = r.Upsert(context.Background(), userID, tok, nil)
	}
}

func (r *fakeTokenRepo) Upsert(ctx context.Context, userID int64, token string, deviceName *string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for i := range r.tokens {
		if r.tokens[i].UserID == userID && r.tokens[i].Token == token {
			if deviceName != nil {
				r.tokens[i].DeviceName = deviceName
			}
			r.tokens[i].UpdatedAt = now
			return r.tokens[i].ID, nil
		}
	}
	r.nextID++
	r.tokens = append(r.tokens, model.DeviceToken{
		ID: r.nextID, UserID: userID, Token: token, DeviceName: deviceName,
		CreatedAt: now, UpdatedAt: now,
	})
	return r.nextID, nil
}

func (r *fakeTokenRepo) GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	return r.GetByUserIDs(ctx, []int64{userID})
}

func (r *fakeTokenRepo) GetByUserIDs(ctx context.Context, userIDs []int64) ([]model.DeviceToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	want := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []model.DeviceToken
	for _, t := range r.tokens {
		if want[t.UserID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) Delete(ctx context.Context, userID int64, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tokens {
		if t.UserID == userID && t.Token == token {
			r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTokenRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tokens[:0]
	var n int64
	for _, t := range r.tokens {
		if t.Token == token {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.tokens = kept
	return n, nil
}

func (r *fakeTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type fakeMatchRepo struct {
	matches map[int64]*model.MatchContext
}

func (r *fakeMatchRepo) GetContext(ctx context.Context, matchID int64) (*model.MatchContext, error) {
	m, ok := r.matches[matchID]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]int64, error) {
	var ids []int64
	for id, m := range r.matches {
		if m.Status == model.MatchStatusScheduled && !m.KickoffAt.Before(from) && m.KickoffAt.Before(to) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

type fakeCommentRepo struct {
	comments map[int64]*model.Comment
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, commentID int64) (*model.Comment, error) {
	c, ok := r.comments[commentID]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	return c, nil
}

type fakeUserRepo struct {
	users map[int64]*model.UserSummary
}

func (r *fakeUserRepo) GetSummary(ctx context.Context, id int64) (*model.UserSummary, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

// =============================================================================
// FAKE PUSH GATEWAY
// =============================================================================

// fakeGateway accepts tokens prefixed "tok-". sendFn decides each call's result.
type fakeGateway struct {
	sendFn func(ctx context.Context, token string, msg model.PushMessage) error

	mu   sync.Mutex
	sent []string
	msgs []model.PushMessage
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) ValidToken(token string) bool { return strings.HasPrefix(token, "tok-") }

func (g *fakeGateway) Send(ctx context.Context, token string, msg model.PushMessage) error {
	g.mu.Lock()
	g.sent = append(g.sent, token)
	g.msgs = append(g.msgs, msg)
	g.mu.Unlock()
	if g.sendFn != nil {
		return g.sendFn(ctx, token, msg)
	}
	return nil
}

func (g *fakeGateway) sentTokens() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.sent...)
}

// =============================================================================
// HARNESS
// =============================================================================

// harness wires a NotificationService on top of the fakes.
type harness struct {
	settings *fakeSettingRepo
	audience *fakeAudienceRepo
	notifs   *fakeNotificationRepo
	tokens   *fakeTokenRepo
	matches  *fakeMatchRepo
	comments *fakeCommentRepo
	users    *fakeUserRepo
	gateway  *fakeGateway

	prefs      *PreferenceResolver
	selector   *RecipientSelector
	dispatcher *PushDispatcher
	svc        *NotificationService
}

// fixedNow is a Wednesday afternoon, outside any night-time quiet hours.
var fixedNow = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		settings: newFakeSettingRepo(),
		notifs:   &fakeNotificationRepo{},
		tokens:   &fakeTokenRepo{},
		matches:  &fakeMatchRepo{matches: make(map[int64]*model.MatchContext)},
		comments: &fakeCommentRepo{comments: make(map[int64]*model.Comment)},
		users:    &fakeUserRepo{users: make(map[int64]*model.UserSummary)},
		gateway:  &fakeGateway{},
	}
	h.audience = newFakeAudienceRepo(h.settings)

	h.prefs = NewPreferenceResolver(h.settings, nil)
	h.selector = NewRecipientSelector(h.prefs, h.audience, time.UTC, nil)
	registry := NewDeviceTokenRegistry(h.tokens)
	h.dispatcher = NewPushDispatcher(registry, h.gateway, nil, nil, DispatcherConfig{
		Timeout:        time.Second,
		MaxConcurrency: 8,
	})
	h.svc = NewNotificationService(NotificationServiceDeps{
		Selector:    h.selector,
		Persister:   NewNotificationPersister(h.notifs, nil),
		Dispatcher:  h.dispatcher,
		Registry:    registry,
		NotifRepo:   h.notifs,
		MatchRepo:   h.matches,
		CommentRepo: h.comments,
		UserRepo:    h.users,
	})
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func strPtr(s string) *string { return &s }
