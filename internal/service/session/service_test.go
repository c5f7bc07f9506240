package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.mafia/internal/feed"
	"sudooom.im.mafia/internal/game"
	"sudooom.im.mafia/internal/model"
	"sudooom.im.mafia/internal/repository"
	"sudooom.im.mafia/internal/store"
	"sudooom.im.mafia/shared/jwt"
	"sudooom.im.mafia/shared/snowflake"
)

type testEnv struct {
	svc   *SessionService
	store *store.MemoryStore
	bus   *feed.Memory
	logs  *repository.MemoryLogRepository
}

func newTestEnv(t *testing.T, phaseDuration time.Duration) *testEnv {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	env := &testEnv{
		store: store.NewMemoryStore(),
		bus:   feed.NewMemory(),
		logs:  repository.NewMemoryLogRepository(),
	}
	engine := game.NewEngine(game.NewSeededRand(42), phaseDuration)
	env.svc = NewSessionService(env.store, engine, env.bus, env.logs, node, jwt.NewService("test-secret", time.Hour), 0)
	return env
}

// newLobby 房主加上 humans-1 名真人玩家，返回会话ID与按加入顺序排列的玩家ID
func (env *testEnv) newLobby(t *testing.T, humans int) (string, []string) {
	t.Helper()
	ctx := context.Background()

	created, err := env.svc.CreateSession(ctx, "host")
	require.NoError(t, err)

	ids := []string{created.PlayerID}
	for i := 1; i < humans; i++ {
		joined, err := env.svc.JoinSession(ctx, created.Session.Code, fmt.Sprintf("player%d", i))
		require.NoError(t, err)
		ids = append(ids, joined.PlayerID)
	}
	return created.Session.ID, ids
}

// rolesOf 按角色分组玩家
func (env *testEnv) rolesOf(t *testing.T, sessionID string, playerIDs []string) map[model.Role][]string {
	t.Helper()
	roles := make(map[model.Role][]string)
	for _, id := range playerIDs {
		role, err := env.svc.GetRole(context.Background(), sessionID, id)
		require.NoError(t, err)
		roles[role] = append(roles[role], id)
	}
	return roles
}

// slowStore 每次读取后延迟，模拟 Redis 往返，拉长读与写之间的竞争窗口
type slowStore struct {
	*store.MemoryStore
	delay time.Duration
}

func (s *slowStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := s.MemoryStore.Get(ctx, sessionID)
	time.Sleep(s.delay)
	return sess, err
}

func (env *testEnv) countEvents(sessionID string, typ feed.EventType, phaseSeq int64) int {
	n := 0
	for _, ev := range env.bus.Events(sessionID) {
		if ev.Type == typ && ev.PhaseSeq == phaseSeq {
			n++
		}
	}
	return n
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	result, err := env.svc.CreateSession(ctx, "  Alice  ")
	require.NoError(t, err)

	assert.NotEmpty(t, result.PlayerID)
	require.NotNil(t, result.Token)
	assert.NotEmpty(t, result.Token.AccessToken)
	assert.Equal(t, model.StatusWaiting, result.Session.Status)
	assert.Equal(t, model.PhaseLobby, result.Session.Phase)
	assert.Len(t, result.Session.Code, codeLength)
	assert.Equal(t, result.PlayerID, result.Session.HostID)
	require.Len(t, result.Session.Players, 1)
	assert.Equal(t, "Alice", result.Session.Players[0].Name)
	assert.True(t, result.Session.Players[0].IsHost)

	entries, err := env.svc.GetLog(ctx, result.Session.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "🎭 Welcome to Mafia! Room created by Alice", entries[0].Message)
	assert.NotEmpty(t, entries[0].ID)

	assert.Equal(t, 1, env.countEvents(result.Session.ID, feed.EventSessionCreated, 0))
}

func TestCreateSessionInvalidName(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	_, err := env.svc.CreateSession(context.Background(), "   ")
	assert.ErrorIs(t, err, game.ErrInvalidName)

	_, err = env.svc.CreateSession(context.Background(), strings.Repeat("x", maxNameLength+1))
	assert.ErrorIs(t, err, game.ErrInvalidName)
}

func TestJoinSession(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	created, err := env.svc.CreateSession(ctx, "host")
	require.NoError(t, err)

	joined, err := env.svc.JoinSession(ctx, strings.ToLower(created.Session.Code), "bob")
	require.NoError(t, err)
	assert.Len(t, joined.Session.Players, 2)
	assert.NotEqual(t, created.PlayerID, joined.PlayerID)
	assert.Equal(t, 1, env.countEvents(created.Session.ID, feed.EventPlayerJoined, 0))

	_, err = env.svc.JoinSession(ctx, created.Session.Code, "bob")
	assert.ErrorIs(t, err, game.ErrDuplicateName)

	_, err = env.svc.JoinSession(ctx, "ZZZZZZ", "carol")
	assert.ErrorIs(t, err, game.ErrNotFound)

	for i := len(joined.Session.Players); i < game.MaxPlayers; i++ {
		_, err := env.svc.JoinSession(ctx, created.Session.Code, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}
	_, err = env.svc.JoinSession(ctx, created.Session.Code, "late")
	assert.ErrorIs(t, err, game.ErrSessionFull)

	entries, err := env.svc.GetLog(ctx, created.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "👋 bob joined the game", entries[1].Message)
}

func TestJoinAfterStart(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 7)
	_, err := env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	view, err := env.svc.GetSession(ctx, sessionID)
	require.NoError(t, err)

	_, err = env.svc.JoinSession(ctx, view.Code, "late")
	assert.ErrorIs(t, err, game.ErrGameAlreadyStarted)
}

func TestAddSyntheticPlayers(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 2)

	_, err := env.svc.AddSyntheticPlayers(ctx, sessionID, ids[1], 7)
	assert.ErrorIs(t, err, game.ErrNotHost)

	added, err := env.svc.AddSyntheticPlayers(ctx, sessionID, ids[0], 7)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	view, err := env.svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, view.Players, 7)

	names := make(map[string]bool)
	for _, p := range view.Players[2:] {
		assert.True(t, p.IsSynthetic)
		assert.True(t, p.IsReady)
		assert.True(t, strings.HasPrefix(p.Name, "🤖 "), p.Name)
		assert.False(t, names[p.Name], "重名 %s", p.Name)
		names[p.Name] = true
	}

	added, err = env.svc.AddSyntheticPlayers(ctx, sessionID, ids[0], 7)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	added, err = env.svc.AddSyntheticPlayers(ctx, sessionID, ids[0], 50)
	require.NoError(t, err)
	assert.Equal(t, game.MaxPlayers-7, added)

	entries, err := env.svc.GetLog(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "🤖 Added 5 AI player(s) to reach 7.", entries[2].Message)
	assert.Equal(t, "🤖 Added 5 AI player(s) to reach 12.", entries[3].Message)
}

func TestSyntheticNameCollision(t *testing.T) {
	sess := &model.Session{Players: []model.Player{
		{Name: "🤖 Nova"},
		{Name: "🤖 Nova 1"},
	}}
	assert.Equal(t, "🤖 Nova 2", syntheticName(sess, "Nova"))
	assert.Equal(t, "🤖 Echo", syntheticName(sess, "Echo"))
}

func TestStartGameGuards(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 3)

	_, err := env.svc.StartGame(ctx, sessionID, ids[1])
	assert.ErrorIs(t, err, game.ErrNotHost)

	_, err = env.svc.StartGame(ctx, sessionID, ids[0])
	assert.ErrorIs(t, err, game.ErrInsufficientPlayers)

	_, err = env.svc.StartGame(ctx, "missing", ids[0])
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestStartGamePrivateRoles(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 7)
	view, err := env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	assert.Equal(t, model.PhaseNight, view.Phase)
	assert.Equal(t, int64(1), view.PhaseSeq)
	require.NotNil(t, view.PhaseEndsAt)
	for _, p := range view.Players {
		assert.Empty(t, p.Role, "游戏结束前不应公开角色")
	}

	roles := env.rolesOf(t, sessionID, ids)
	assert.Len(t, roles[model.RoleMafia], 2)
	assert.Len(t, roles[model.RoleDoctor], 1)
	assert.Len(t, roles[model.RoleDetective], 1)
	assert.Len(t, roles[model.RoleCivilian], 3)

	for _, id := range ids {
		events := env.bus.PlayerEvents(id)
		require.Len(t, events, 1)
		assert.Equal(t, feed.EventRoleAssigned, events[0].Type)
		role, _ := env.svc.GetRole(ctx, sessionID, id)
		assert.Equal(t, role, events[0].Role)
	}

	assert.Equal(t, 1, env.countEvents(sessionID, feed.EventGameStarted, 1))
	assert.Equal(t, 1, env.countEvents(sessionID, feed.EventPhaseStarted, 1))

	_, err = env.svc.StartGame(ctx, sessionID, ids[0])
	assert.ErrorIs(t, err, game.ErrGameAlreadyStarted)
}

// TestNightAndDay 夜晚击杀与救治不同人时目标出局，白天最高票者出局
func TestNightAndDay(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 7)
	_, err := env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	roles := env.rolesOf(t, sessionID, ids)
	mafia := roles[model.RoleMafia]
	doctor := roles[model.RoleDoctor][0]
	detective := roles[model.RoleDetective][0]
	civilians := roles[model.RoleCivilian]
	victim, saved := civilians[0], civilians[1]

	_, err = env.svc.SubmitAction(ctx, sessionID, mafia[0], victim)
	require.NoError(t, err)
	_, err = env.svc.SubmitAction(ctx, sessionID, mafia[1], victim)
	require.NoError(t, err)
	_, err = env.svc.SubmitAction(ctx, sessionID, doctor, saved)
	require.NoError(t, err)

	// 非法目标被拒绝且不影响会话
	_, err = env.svc.SubmitAction(ctx, sessionID, detective, detective)
	assert.ErrorIs(t, err, game.ErrIllegalTarget)

	view, err := env.svc.SubmitAction(ctx, sessionID, detective, mafia[0])
	require.NoError(t, err)

	assert.Equal(t, model.PhaseDay, view.Phase)
	assert.Equal(t, int64(2), view.PhaseSeq)
	assert.Equal(t, 6, view.AliveCount)
	for _, p := range view.Players {
		assert.Equal(t, p.ID != victim, p.IsAlive, p.Name)
	}

	investigations, err := env.svc.GetInvestigations(ctx, sessionID, detective)
	require.NoError(t, err)
	require.Len(t, investigations, 1)
	assert.Equal(t, mafia[0], investigations[0].TargetID)
	assert.Equal(t, model.RoleMafia, investigations[0].TargetRole)

	others, err := env.svc.GetInvestigations(ctx, sessionID, doctor)
	require.NoError(t, err)
	assert.Empty(t, others)

	var delivered bool
	for _, ev := range env.bus.PlayerEvents(detective) {
		if ev.Type == feed.EventInvestigationResult {
			delivered = true
			assert.Equal(t, model.RoleMafia, ev.Investigation.TargetRole)
		}
	}
	assert.True(t, delivered, "侦探应收到私有调查结果")
	assert.Equal(t, 1, env.countEvents(sessionID, feed.EventPhaseStarted, 2))

	// 白天：4 票投黑手党 mafia[0]，2 票投平民
	for _, voter := range []string{doctor, detective, saved, civilians[2]} {
		_, err := env.svc.SubmitAction(ctx, sessionID, voter, mafia[0])
		require.NoError(t, err)
	}
	_, err = env.svc.SubmitAction(ctx, sessionID, mafia[0], saved)
	require.NoError(t, err)
	view, err = env.svc.SubmitAction(ctx, sessionID, mafia[1], saved)
	require.NoError(t, err)

	assert.Equal(t, model.PhaseNight, view.Phase)
	assert.Equal(t, int64(3), view.PhaseSeq)
	assert.Equal(t, 5, view.AliveCount)
	assert.Equal(t, model.WinnerNone, view.Winner)

	entries, err := env.svc.GetLog(ctx, sessionID)
	require.NoError(t, err)
	var messages []string
	for _, e := range entries {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "☀️ Day begins.")
	assert.Contains(t, messages, "🔍 The detective completed an investigation.")
	assert.Contains(t, messages, "🌙 Night falls.")
}

func TestAdvancePhaseGuards(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 7)

	_, err := env.svc.AdvancePhase(ctx, sessionID, ids[0])
	assert.ErrorIs(t, err, game.ErrGameNotStarted)

	_, err = env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	_, err = env.svc.AdvancePhase(ctx, sessionID, ids[1])
	assert.ErrorIs(t, err, game.ErrNotHost)

	_, err = env.svc.AdvancePhase(ctx, sessionID, ids[0])
	assert.ErrorIs(t, err, game.ErrNotAllReady)

	view, err := env.svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.PhaseSeq)
}

func TestForceAdvance(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 7)

	// 大厅阶段什么也不做
	view, err := env.svc.ForceAdvance(ctx, sessionID, 0)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseLobby, view.Phase)

	_, err = env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	view, err = env.svc.ForceAdvance(ctx, sessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseDay, view.Phase)
	assert.Equal(t, int64(2), view.PhaseSeq)
	assert.Equal(t, 7, view.AliveCount, "无人行动的夜晚不应有人出局")

	// 过期的截止任务不会再次推进
	view, err = env.svc.ForceAdvance(ctx, sessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.PhaseSeq)
}

// TestConcurrentAdvance 多个调用方同时结算同一阶段，只有一个成功推进
func TestConcurrentAdvance(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 7)
	_, err := env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := env.svc.advance(ctx, sessionID, 1, true, false)
			if !assert.NoError(t, err) {
				return
			}
			if out.resolution != nil {
				mu.Lock()
				resolved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, resolved)
	assert.Equal(t, 1, env.countEvents(sessionID, feed.EventPhaseStarted, 2))

	view, err := env.svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.PhaseSeq)
}

// TestConcurrentDayVotes 满员 12 人同时投票，每一票都被接受且白天正常结算
func TestConcurrentDayVotes(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, game.MaxPlayers)
	_, err := env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	// 无人行动的夜晚没有出局，直接进入白天
	view, err := env.svc.ForceAdvance(ctx, sessionID, 1)
	require.NoError(t, err)
	require.Equal(t, model.PhaseDay, view.Phase)
	require.Equal(t, game.MaxPlayers, view.AliveCount)

	env.svc.store = &slowStore{MemoryStore: env.store, delay: 2 * time.Millisecond}

	target := ids[1]
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, voter := range ids {
		i, voter := i, voter
		wg.Add(1)
		go func() {
			defer wg.Done()
			vote := target
			if voter == target {
				vote = ids[0]
			}
			_, errs[i] = env.svc.SubmitAction(ctx, sessionID, voter, vote)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "player %d", i)
	}

	view, err = env.svc.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseNight, view.Phase)
	assert.Equal(t, int64(3), view.PhaseSeq)
	assert.Equal(t, game.MaxPlayers-1, view.AliveCount)
	for _, p := range view.Players {
		assert.Equal(t, p.ID != target, p.IsAlive, p.Name)
	}
}

// TestSyntheticGameRunsToEnd 房主之外全是 AI，截止推进直到分出胜负
func TestSyntheticGameRunsToEnd(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	sessionID, ids := env.newLobby(t, 1)
	_, err := env.svc.AddSyntheticPlayers(ctx, sessionID, ids[0], 9)
	require.NoError(t, err)

	view, err := env.svc.StartGame(ctx, sessionID, ids[0])
	require.NoError(t, err)

	for round := 0; round < 40 && view.Phase != model.PhaseEnded; round++ {
		view, err = env.svc.ForceAdvance(ctx, sessionID, view.PhaseSeq)
		require.NoError(t, err)
	}

	require.Equal(t, model.PhaseEnded, view.Phase)
	assert.Equal(t, model.StatusEnded, view.Status)
	assert.NotEqual(t, model.WinnerNone, view.Winner)
	assert.Nil(t, view.PhaseEndsAt)
	for _, p := range view.Players {
		assert.NotEmpty(t, p.Role, "结束后公开所有角色")
	}
	assert.Equal(t, 1, env.countEvents(sessionID, feed.EventGameEnded, view.PhaseSeq))

	_, err = env.svc.SubmitAction(ctx, sessionID, ids[0], "")
	assert.ErrorIs(t, err, game.ErrGameAlreadyEnded)

	_, err = env.svc.AdvancePhase(ctx, sessionID, ids[0])
	assert.ErrorIs(t, err, game.ErrGameAlreadyEnded)

	entries, err := env.svc.GetLog(ctx, sessionID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, model.LogVictory, last.Kind)
}

func TestGetInvestigationsUnknownPlayer(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	sessionID, _ := env.newLobby(t, 1)

	_, err := env.svc.GetInvestigations(context.Background(), sessionID, "nobody")
	assert.ErrorIs(t, err, game.ErrNotFound)

	_, err = env.svc.GetLog(context.Background(), "missing")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestTranslateVersionConflict(t *testing.T) {
	err := translate(fmt.Errorf("save: %w", store.ErrVersionConflict))
	assert.ErrorIs(t, err, game.ErrSessionBusy)
	assert.NotErrorIs(t, err, game.ErrStoreUnavailable)

	err = translate(errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, game.ErrStoreUnavailable)
}
