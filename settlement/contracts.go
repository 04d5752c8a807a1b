// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vechain/settlement/abi"
)

// ServiceManagerABI is the subset of the settlement service manager used by this package.
const ServiceManagerABI = `[
	{
		"type": "function",
		"name": "submitRewards",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"name": "submission",
				"type": "tuple",
				"components": [
					{
						"name": "strategiesAndMultipliers",
						"type": "tuple[]",
						"components": [
							{"name": "strategy", "type": "address"},
							{"name": "multiplier", "type": "uint96"}
						]
					},
					{"name": "token", "type": "address"},
					{
						"name": "operatorRewards",
						"type": "tuple[]",
						"components": [
							{"name": "operator", "type": "address"},
							{"name": "amount", "type": "uint256"}
						]
					},
					{"name": "startTimestamp", "type": "uint32"},
					{"name": "duration", "type": "uint32"},
					{"name": "description", "type": "string"}
				]
			}
		],
		"outputs": []
	},
	{
		"type": "function",
		"name": "slashValidatorsOperator",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"name": "slashings",
				"type": "tuple[]",
				"components": [
					{"name": "operator", "type": "address"},
					{"name": "strategies", "type": "address[]"},
					{"name": "wadsToSlash", "type": "uint256[]"},
					{"name": "description", "type": "string"}
				]
			}
		],
		"outputs": []
	}
]`

var (
	serviceManagerABI = abi.MustNew([]byte(ServiceManagerABI))

	submitRewardsMethod, _           = serviceManagerABI.MethodByName("submitRewards")
	slashValidatorsOperatorMethod, _ = serviceManagerABI.MethodByName("slashValidatorsOperator")
)

// StrategyAndMultiplier mirrors the solidity struct of the same name.
type StrategyAndMultiplier struct {
	Strategy   common.Address
	Multiplier *big.Int
}

// OperatorReward mirrors the solidity struct of the same name.
type OperatorReward struct {
	Operator common.Address
	Amount   *big.Int
}

// RewardsSubmission mirrors the solidity struct of the same name.
type RewardsSubmission struct {
	StrategiesAndMultipliers []StrategyAndMultiplier
	Token                    common.Address
	OperatorRewards          []OperatorReward
	StartTimestamp           uint32
	Duration                 uint32
	Description              string
}

// SlashingRequest mirrors the solidity struct passed to slashValidatorsOperator.
type SlashingRequest struct {
	Operator    common.Address
	Strategies  []common.Address
	WadsToSlash []*big.Int
	Description string
}

// EncodeSubmitRewards returns the calldata of submitRewards(submission).
func EncodeSubmitRewards(submission RewardsSubmission) ([]byte, error) {
	return submitRewardsMethod.EncodeInput(submission)
}

// EncodeSlashValidatorsOperator returns the calldata of slashValidatorsOperator(requests).
func EncodeSlashValidatorsOperator(requests []SlashingRequest) ([]byte, error) {
	return slashValidatorsOperatorMethod.EncodeInput(requests)
}
