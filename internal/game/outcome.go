package game

import "sudooom.im.mafia/internal/model"

// Outcome 胜负判定结果
type Outcome struct {
	Winner model.Winner // 为空表示继续
	Mafia  int          // 存活黑手党数
	Town   int          // 存活好人数
}

// Continue 游戏是否继续
func (o Outcome) Continue() bool {
	return o.Winner == model.WinnerNone
}

// Evaluate 根据存活玩家判定胜负
// 黑手党全部出局则好人获胜；黑手党人数不少于好人（持平也算）则黑手党获胜
func Evaluate(players []model.Player) Outcome {
	var o Outcome
	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		if p.Role.Faction() == model.FactionMafia {
			o.Mafia++
		} else {
			o.Town++
		}
	}
	switch {
	case o.Mafia == 0:
		o.Winner = model.WinnerTown
	case o.Mafia >= o.Town:
		o.Winner = model.WinnerMafia
	}
	return o
}
