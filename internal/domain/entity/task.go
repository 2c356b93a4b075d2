package entity

// Task IDs tracked by the Pharos points API. The table is closed: counters
// exist only for these IDs, and unknown IDs in an upstream response are
// ignored rather than treated as errors.
const (
	// Season 1
	TaskSwap         int64 = 101
	TaskLP           int64 = 102
	TaskMintDomain   int64 = 104
	TaskFaroswapLP   int64 = 106
	TaskFaroswapSwap int64 = 107
	// Season 2
	TaskPrimusLabsSend int64 = 108
	TaskAutostaking    int64 = 110
	TaskBrokex         int64 = 111
	TaskAquaflux       int64 = 112
	TaskLendBorrow     int64 = 114
	TaskBitverse       int64 = 119
	// Atlantic
	TaskAsseto          int64 = 121
	TaskGrandline       int64 = 122
	TaskAtlanticOnchain int64 = 401
)

// TaskCompletion is a single task record from the upstream tasks response,
// already stripped of wire-format noise by the fetching adapter.
type TaskCompletion struct {
	TaskID int64
	Count  int64
}

// TaskCounters holds per-task completion counts for a wallet, keyed by the
// dashboard-facing counter names.
type TaskCounters struct {
	// Season 1
	SwapCount     int64 `json:"swap_count"`
	LPCount       int64 `json:"lp_count"`
	MintDomain    int64 `json:"mint_domain"`
	FaroswapLP    int64 `json:"faroswap_lp"`
	FaroswapSwaps int64 `json:"faroswap_swaps"`
	// Season 2
	PrimusLabsSend int64 `json:"primuslabs_send"`
	Aquaflux       int64 `json:"aquaflux"`
	Autostaking    int64 `json:"autostaking"`
	Brokex         int64 `json:"brokex"`
	Bitverse       int64 `json:"bitverse"`
	LendBorrow     int64 `json:"lend_borrow"`
	// Atlantic
	InviteFriends   int64 `json:"invite_friends"`
	AtlanticOnchain int64 `json:"atlantic_onchain"`
	Topnod          int64 `json:"topnod"`
	Asseto          int64 `json:"asseto"`
	Grandline       int64 `json:"grandline"`
}

// apply records a completion count for a known task ID. Unknown IDs are a
// no-op; negative counts are clamped to zero.
func (c *TaskCounters) apply(taskID, count int64) {
	if count < 0 {
		count = 0
	}
	switch taskID {
	case TaskSwap:
		c.SwapCount = count
	case TaskLP:
		c.LPCount = count
	case TaskMintDomain:
		c.MintDomain = count
	case TaskFaroswapLP:
		c.FaroswapLP = count
	case TaskFaroswapSwap:
		c.FaroswapSwaps = count
	case TaskPrimusLabsSend:
		c.PrimusLabsSend = count
	case TaskAutostaking:
		c.Autostaking = count
	case TaskBrokex:
		c.Brokex = count
	case TaskAquaflux:
		c.Aquaflux = count
	case TaskLendBorrow:
		c.LendBorrow = count
	case TaskBitverse:
		c.Bitverse = count
	case TaskAsseto:
		c.Asseto = count
	case TaskGrandline:
		c.Grandline = count
	case TaskAtlanticOnchain:
		c.AtlanticOnchain = count
	}
}
