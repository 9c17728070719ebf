package netcomponents

import (
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/yohamta/donburi"
)

type NetMatchData struct {
	MatchID    string
	Level      string
	MatchState netconfig.MatchStateID
	Scores     []int // Indexed by team
}

var NetMatch = donburi.NewComponentType[NetMatchData]()
