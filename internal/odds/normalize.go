// Package odds builds the inputs of the odds model from raw condition reserves.
package odds

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// MarginScale is the fixed-point scale of the on-chain margin (parts per billion).
const MarginScale = 1_000_000_000

var (
	ErrZeroReserve   = errors.New("zero reserve in fund bank")
	ErrInvalidMargin = errors.New("invalid margin")
	ErrNonFiniteOdds = errors.New("non-finite odds")
)

// Inputs are the normalized values consumed by an odds Func.
type Inputs struct {
	Funds       [2]float64
	Marginality float64
}

// Func computes display odds from normalized inputs.
type Func func(funds [2]float64, marginality float64) ([2]float64, error)

// Normalize converts a two-sided fund bank and a ppb margin into odds inputs.
// Each fund is the bank total divided by that side's reserve.
func Normalize(fundBank [2]*big.Int, margin *big.Int) (Inputs, error) {
	for i, reserve := range fundBank {
		if reserve == nil || reserve.Sign() == 0 {
			return Inputs{}, fmt.Errorf("reserve %d: %w", i, ErrZeroReserve)
		}
		if reserve.Sign() < 0 {
			return Inputs{}, fmt.Errorf("reserve %d is negative: %s", i, reserve)
		}
	}
	if margin == nil || margin.Sign() < 0 {
		return Inputs{}, ErrInvalidMargin
	}

	sum := new(big.Int).Add(fundBank[0], fundBank[1])

	var in Inputs
	for i, reserve := range fundBank {
		in.Funds[i], _ = new(big.Rat).SetFrac(sum, reserve).Float64()
	}
	in.Marginality, _ = new(big.Rat).SetFrac(margin, big.NewInt(MarginScale)).Float64()

	return in, nil
}

// Compute normalizes the fund bank and margin and applies fn.
func Compute(fundBank [2]*big.Int, margin *big.Int, fn Func) ([2]float64, error) {
	if fn == nil {
		return [2]float64{}, fmt.Errorf("odds func is nil")
	}
	in, err := Normalize(fundBank, margin)
	if err != nil {
		return [2]float64{}, err
	}

	out, err := fn(in.Funds, in.Marginality)
	if err != nil {
		return [2]float64{}, fmt.Errorf("calculate odds: %w", err)
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return [2]float64{}, fmt.Errorf("outcome %d: %w", i, ErrNonFiniteOdds)
		}
	}
	return out, nil
}

// Default spreads the margin evenly over both funds.
func Default(funds [2]float64, marginality float64) ([2]float64, error) {
	if marginality <= -1 {
		return [2]float64{}, fmt.Errorf("marginality %v: %w", marginality, ErrInvalidMargin)
	}
	return [2]float64{
		funds[0] / (1 + marginality),
		funds[1] / (1 + marginality),
	}, nil
}
