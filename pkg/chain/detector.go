package chain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotDeployed indicates the contract has no code at the chain head
var ErrNotDeployed = errors.New("contract not deployed")

// FindDeploymentBlock returns the first block at which the contract at addr
// has non-empty code, using a binary search over CodeAt. It returns
// ErrNotDeployed when the contract has no code even at the chain head.
func FindDeploymentBlock(ctx context.Context, client Client, addr common.Address) (uint64, error) {
	head, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return 0, err
	}

	code, err := client.CodeAt(ctx, addr, head)
	if err != nil {
		return 0, err
	}
	if len(code) == 0 {
		return 0, ErrNotDeployed
	}

	// Invariant: code is absent below lo and present at hi.
	lo, hi := uint64(0), head
	for lo < hi {
		mid := lo + (hi-lo)/2
		code, err := client.CodeAt(ctx, addr, mid)
		if err != nil {
			return 0, err
		}
		if len(code) > 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	return lo, nil
}
