package state

var (
	balancePrefix        = []byte("token/balance/")
	tokenSupplyPrefix    = []byte("token/supply/")
	tokenFlagsPrefix     = []byte("token/flags/")
	capabilityPrefix     = []byte("access/capability/")
	claimBitmapPrefix    = []byte("airdrop/claimed/")
	distributionPrefix   = []byte("airdrop/distribution/")
	distributionIndexKey = []byte("airdrop/distribution-index")
	vestingPrefix        = []byte("vesting/schedule/")
	lockPrefix           = []byte("vesting/lock/")
	feeCollectorKey      = []byte("vesting/fee-collector")
	milestonePrefix      = []byte("schedule/milestones/")
	genesisKey           = []byte("node/genesis")
)
