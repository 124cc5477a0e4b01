package market

import (
	"fmt"
	"math/big"

	"nsmarket/core/types"
)

// SplitFee computes the platform cut for a settlement amount. The fee floors,
// so fee + net always reconstructs the amount exactly.
func SplitFee(amount *big.Int, feeBps uint32) (fee, net *big.Int) {
	total := cloneBigInt(amount)
	fee = new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(feeBps)))
	fee.Div(fee, big.NewInt(feeDenominator))
	net = new(big.Int).Sub(total, fee)
	return fee, net
}

// settle pays out an amount resting in the vault: the platform fee to the
// treasury and the remainder to the recipient. Both movements happen inside
// one staged write set, so a failure of either leaves no partial payout.
func (e *Engine) settle(st State, amount *big.Int, recipient [20]byte) (fee, net *big.Int, err error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("market: settlement amount must be positive")
	}
	fee, net = SplitFee(amount, e.feeBps)
	if net.Sign() > 0 {
		if err := e.moveFunds(st, e.vault, recipient, net); err != nil {
			return nil, nil, err
		}
	}
	if fee.Sign() > 0 {
		if err := e.moveFunds(st, e.vault, e.treasury, fee); err != nil {
			return nil, nil, err
		}
	}
	return fee, net, nil
}

// moveFunds debits one account and credits another. Zero amounts are a no-op;
// negative amounts are rejected outright.
func (e *Engine) moveFunds(st State, from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("market: negative transfer amount")
	}
	if from == to {
		return nil
	}
	fromAcc, err := st.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := st.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = types.EnsureAccount(fromAcc)
	toAcc = types.EnsureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := st.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return st.PutAccount(to, toAcc)
}

// creditEscrow adjusts the per-asset escrow balance by delta, used to keep the
// recorded escrow equal to the sum of still-pending offer amounts.
func creditEscrow(st State, asset AssetKey, delta *big.Int) error {
	bal, err := st.EscrowBalanceGet(asset)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(cloneBigInt(bal), delta)
	if next.Sign() < 0 {
		return fmt.Errorf("market: escrow balance underflow")
	}
	return st.EscrowBalancePut(asset, next)
}
