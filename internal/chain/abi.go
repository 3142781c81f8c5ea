package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABIs for the deployed contracts, limited to the functions the
// engine actually calls.

const gameABIJSON = `[
	{"type":"function","name":"territoryArmies","stateMutability":"view","inputs":[{"name":"territoryId","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"spawnProtectionUntil","stateMutability":"view","inputs":[{"name":"territoryId","type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"lastClaim","stateMutability":"view","inputs":[{"name":"player","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"totalTerritories","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"stationArmies","stateMutability":"nonpayable","inputs":[{"name":"territoryId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdrawArmies","stateMutability":"nonpayable","inputs":[{"name":"territoryId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"attack","stateMutability":"nonpayable","inputs":[{"name":"fromId","type":"uint256"},{"name":"toId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claimDailyArmies","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"claimSpawnTerritory","stateMutability":"nonpayable","inputs":[{"name":"territoryId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"setBorders","stateMutability":"nonpayable","inputs":[{"name":"territoryId","type":"uint256"},{"name":"neighbors","type":"uint256[]"}],"outputs":[]},
	{"type":"function","name":"setSpawnTerritories","stateMutability":"nonpayable","inputs":[{"name":"territoryIds","type":"uint256[]"},{"name":"enabled","type":"bool"}],"outputs":[]},
	{"type":"function","name":"grantInitialTerritory","stateMutability":"nonpayable","inputs":[{"name":"player","type":"address"},{"name":"territoryId","type":"uint256"}],"outputs":[]}
]`

const territoryABIJSON = `[
	{"type":"function","name":"exists","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"type":"address"}]},
	{"type":"function","name":"mintTerritory","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"uri","type":"string"}],"outputs":[]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]}
]`

const escrowABIJSON = `[
	{"type":"function","name":"placeBet","stateMutability":"nonpayable","inputs":[
		{"name":"bet","type":"tuple","components":[
			{"name":"player","type":"address"},
			{"name":"market","type":"string"},
			{"name":"outcome","type":"uint8"},
			{"name":"amount","type":"uint256"},
			{"name":"nonce","type":"uint256"},
			{"name":"deadline","type":"uint256"}
		]},
		{"name":"signature","type":"bytes"}
	],"outputs":[]},
	{"type":"function","name":"resolveMarket","stateMutability":"nonpayable","inputs":[{"name":"market","type":"string"},{"name":"outcome","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"cancelMarket","stateMutability":"nonpayable","inputs":[{"name":"market","type":"string"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var (
	gameABI      = mustParseABI(gameABIJSON)
	territoryABI = mustParseABI(territoryABIJSON)
	erc20ABI     = mustParseABI(erc20ABIJSON)
	escrowABI    = mustParseABI(escrowABIJSON)
)

func mustParseABI(src string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		panic("chain: bad embedded abi: " + err.Error())
	}
	return parsed
}
