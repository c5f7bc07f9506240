package game

import (
	"testing"

	"sudooom.im.mafia/internal/model"
)

// TestBallotBoxRecord 测试同一投票人覆盖旧票
func TestBallotBoxRecord(t *testing.T) {
	box := NewBallotBox(nil)
	box.Record("v1", "a", model.VoteEliminate, 1, testNow)
	box.Record("v1", "b", model.VoteEliminate, 1, testNow)
	box.Record("v1", "c", model.VoteEliminate, 2, testNow)

	if len(box.Ballots()) != 2 {
		t.Fatalf("期望 2 张票, 实际 %d", len(box.Ballots()))
	}
	if !box.Has("v1", model.VoteEliminate, 1) {
		t.Error("期望存在 v1 在阶段 1 的选票")
	}
	tally := box.Tally([]model.VoteKind{model.VoteEliminate}, 1)
	if tally["a"] != 0 || tally["b"] != 1 {
		t.Errorf("期望只统计最后一票, 实际 %v", tally)
	}
}

// TestBallotBoxResolve 测试唯一最高票
func TestBallotBoxResolve(t *testing.T) {
	box := NewBallotBox(nil)
	box.Record("v1", "a", model.VoteEliminate, 1, testNow)
	box.Record("v2", "a", model.VoteEliminate, 1, testNow)
	box.Record("v3", "b", model.VoteEliminate, 1, testNow)
	box.Record("v4", "", model.VoteEliminate, 1, testNow)
	box.Record("v5", "b", model.VoteKill, 1, testNow)

	target, ok := box.Resolve(model.VoteEliminate, 1, NewSeededRand(1))
	if !ok || target != "a" {
		t.Errorf("期望 a, 实际 %q ok=%v", target, ok)
	}

	if _, ok := box.Resolve(model.VoteSave, 1, NewSeededRand(1)); ok {
		t.Error("没有选票时不应有结果")
	}
}

// TestBallotBoxTieBreak 测试平票随机裁决
func TestBallotBoxTieBreak(t *testing.T) {
	box := NewBallotBox(nil)
	box.Record("v1", "a", model.VoteEliminate, 1, testNow)
	box.Record("v2", "a", model.VoteEliminate, 1, testNow)
	box.Record("v3", "b", model.VoteEliminate, 1, testNow)
	box.Record("v4", "b", model.VoteEliminate, 1, testNow)
	box.Record("v5", "c", model.VoteEliminate, 1, testNow)

	rng := NewSeededRand(99)
	seen := make(map[string]int)
	for i := 0; i < 1000; i++ {
		target, ok := box.Resolve(model.VoteEliminate, 1, rng)
		if !ok {
			t.Fatal("期望有结果")
		}
		seen[target]++
	}
	if seen["c"] != 0 {
		t.Errorf("低票目标不应被选中, 实际 %d 次", seen["c"])
	}
	if seen["a"] == 0 || seen["b"] == 0 {
		t.Errorf("并列目标都应被选中过, 实际 %v", seen)
	}
}

// TestBallotBoxClear 测试清除已结算阶段
func TestBallotBoxClear(t *testing.T) {
	box := NewBallotBox(nil)
	box.Record("v1", "a", model.VoteKill, 1, testNow)
	box.Record("v2", "a", model.VoteEliminate, 2, testNow)
	box.Record("v3", "a", model.VoteKill, 3, testNow)

	box.Clear(2)

	ballots := box.Ballots()
	if len(ballots) != 1 || ballots[0].PhaseSeq != 3 {
		t.Errorf("期望只剩阶段 3 的选票, 实际 %+v", ballots)
	}
}

// TestEvaluate 测试胜负判定
func TestEvaluate(t *testing.T) {
	p := func(role model.Role, alive bool) model.Player {
		return model.Player{Role: role, IsAlive: alive}
	}
	// table 按人数拼出存活名册，死去的玩家不参与判定
	table := func(mafia, town, dead int) []model.Player {
		var players []model.Player
		for i := 0; i < mafia; i++ {
			players = append(players, p(model.RoleMafia, true))
		}
		for i := 0; i < town; i++ {
			players = append(players, p(model.RoleCivilian, true))
		}
		for i := 0; i < dead; i++ {
			players = append(players, p(model.RoleMafia, false))
		}
		return players
	}
	cases := []struct {
		name    string
		players []model.Player
		want    model.Winner
	}{
		{"2对2黑手党获胜", table(2, 2, 1), model.WinnerMafia},
		{"1对5继续", table(1, 5, 1), model.WinnerNone},
		{"0对6好人获胜", table(0, 6, 2), model.WinnerTown},
		{"黑手党全灭", []model.Player{p(model.RoleMafia, false), p(model.RoleCivilian, true)}, model.WinnerTown},
		{"人数持平", []model.Player{p(model.RoleMafia, true), p(model.RoleDoctor, true)}, model.WinnerMafia},
		{"黑手党占多", []model.Player{p(model.RoleMafia, true), p(model.RoleMafia, true), p(model.RoleCivilian, true)}, model.WinnerMafia},
		{"继续", []model.Player{p(model.RoleMafia, true), p(model.RoleDetective, true), p(model.RoleCivilian, true)}, model.WinnerNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.players).Winner; got != tc.want {
				t.Errorf("期望 %q, 实际 %q", tc.want, got)
			}
		})
	}
}
