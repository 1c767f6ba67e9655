package duel

// Multiplier scales linearly from 1.5x at zero remaining hit points to 2.5x
// at full health.
func Multiplier(remaining, maxHP int) float64 {
	remaining = clampHP(remaining, maxHP)
	return 1.5 + float64(remaining)/float64(maxHP)
}

// Payout is wager * Multiplier(remaining, maxHP), rounded down. Computed in
// integers so equal inputs always give equal payouts. The wager is split by
// the denominator first so the product stays in range for any bet below
// MaxInt64 / 2.5.
func Payout(wager int64, remaining, maxHP int) int64 {
	remaining = clampHP(remaining, maxHP)
	num := int64(150*maxHP + 100*remaining)
	den := int64(100 * maxHP)
	return wager/den*num + wager%den*num/den
}

func clampHP(hp, maxHP int) int {
	return min(max(hp, 0), maxHP)
}
