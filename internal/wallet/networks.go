package wallet

import (
	"fmt"
	"sort"
)

var chainNames = map[int64]string{
	1:        "Ethereum Mainnet",
	10:       "OP Mainnet",
	56:       "BNB Smart Chain",
	137:      "Polygon",
	8453:     "Base",
	42161:    "Arbitrum One",
	11155111: "Sepolia",
}

// Networks is the set of chains the gateway accepts identity sessions from.
type Networks struct {
	supported map[int64]struct{}
}

// NewNetworks builds the supported set from configured chain ids.
func NewNetworks(chainIDs []int64) Networks {
	supported := make(map[int64]struct{}, len(chainIDs))
	for _, id := range chainIDs {
		if id > 0 {
			supported[id] = struct{}{}
		}
	}
	return Networks{supported: supported}
}

// Supports reports whether the chain id is in the supported set.
func (n Networks) Supports(chainID int64) bool {
	_, ok := n.supported[chainID]
	return ok
}

// IDs returns the supported chain ids in ascending order.
func (n Networks) IDs() []int64 {
	ids := make([]int64, 0, len(n.supported))
	for id := range n.supported {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ChainName returns a human-readable chain name for logs.
func ChainName(chainID int64) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return fmt.Sprintf("chain %d", chainID)
}
