package game

import (
	"errors"
	"testing"

	"sudooom.im.mafia/internal/model"
)

// TestRoleCounts 测试角色配比
func TestRoleCounts(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		counts := RoleCounts(n)
		if counts[model.RoleMafia] != n/3 {
			t.Errorf("%d 人: 期望黑手党 %d, 实际 %d", n, n/3, counts[model.RoleMafia])
		}
		if counts[model.RoleDoctor] != 1 || counts[model.RoleDetective] != 1 {
			t.Errorf("%d 人: 期望医生和侦探各 1 名", n)
		}
		total := 0
		for _, c := range counts {
			total += c
		}
		if total != n {
			t.Errorf("%d 人: 角色总数 %d", n, total)
		}
	}
}

// TestAssignRoles 测试角色分配
func TestAssignRoles(t *testing.T) {
	rng := NewSeededRand(42)
	for n := MinPlayers; n <= MaxPlayers; n++ {
		s := newLobby(n)
		entry, err := AssignRoles(s, rng, testNow)
		if err != nil {
			t.Fatalf("%d 人: 分配失败: %v", n, err)
		}
		if entry.Message != "🎭 Roles have been assigned." {
			t.Errorf("%d 人: 日志不符 %q", n, entry.Message)
		}

		got := make(map[model.Role]int)
		for _, p := range s.Players {
			got[p.Role]++
		}
		for role, want := range RoleCounts(n) {
			if got[role] != want {
				t.Errorf("%d 人: %s 期望 %d, 实际 %d", n, role, want, got[role])
			}
		}

		if _, err := AssignRoles(s, rng, testNow); !errors.Is(err, ErrAlreadyAssigned) {
			t.Errorf("%d 人: 期望 ErrAlreadyAssigned, 实际 %v", n, err)
		}
	}

	if _, err := AssignRoles(newLobby(MinPlayers-1), rng, testNow); !errors.Is(err, ErrInsufficientPlayers) {
		t.Errorf("期望 ErrInsufficientPlayers, 实际 %v", err)
	}
}

// TestAssignRolesShuffles 测试角色位置随机
func TestAssignRolesShuffles(t *testing.T) {
	rng := NewSeededRand(3)
	mafiaSeats := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := newLobby(7)
		if _, err := AssignRoles(s, rng, testNow); err != nil {
			t.Fatalf("分配失败: %v", err)
		}
		for _, p := range s.Players {
			if p.Role == model.RoleMafia {
				mafiaSeats[p.ID] = true
			}
		}
	}
	if len(mafiaSeats) < 5 {
		t.Errorf("期望黑手党分布在多数座位, 实际只出现在 %d 个座位", len(mafiaSeats))
	}
}

// TestLegalTargets 测试合法目标列表
func TestLegalTargets(t *testing.T) {
	e := newTestEngine(1)
	s := newNight(e)
	s.FindPlayer("p7").IsAlive = false

	targets, kind, err := LegalTargets(s, s.FindPlayer("p1"))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if kind != model.VoteKill {
		t.Errorf("期望 kill, 实际 %s", kind)
	}
	// 非黑手党且存活: p3 p4 p5 p6
	if len(targets) != 4 {
		t.Errorf("期望 4 个目标, 实际 %d", len(targets))
	}

	targets, kind, err = LegalTargets(s, s.FindPlayer("p5"))
	if err != nil || kind != "" || len(targets) != 0 {
		t.Errorf("平民夜晚不应有目标, 实际 kind=%q targets=%d err=%v", kind, len(targets), err)
	}
}
