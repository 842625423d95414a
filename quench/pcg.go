package quench

import (
	"math"
	"math/bits"
	"math/rand/v2"
)

// Uint128 is an unsigned 128 bit integer.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

func (a Uint128) add(b Uint128) Uint128 {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, _ := bits.Add64(a.Hi, b.Hi, carry)
	return Uint128{Hi: hi, Lo: lo}
}

func (a Uint128) mul(b Uint128) Uint128 {
	hi, lo := bits.Mul64(a.Lo, b.Lo)
	hi += a.Hi*b.Lo + a.Lo*b.Hi
	return Uint128{Hi: hi, Lo: lo}
}

var (
	// Increment is the stream the ensembles draw from.
	Increment = Uint128{Hi: 0x0a02bdbf7bb3c0a7, Lo: 0xac28fa16a64abf96}

	pcgMultiplier = Uint128{Hi: 0x2360ed051fc65da4, Lo: 0x4385df649fccf645}
)

// PCG64 is the permuted congruential generator with a 128 bit state and the xorshift low,
// random rotation output function.
// It implements rand.Source.
type PCG64 struct {
	state     Uint128
	increment Uint128
}

var _ rand.Source = (*PCG64)(nil)

// NewPCG64 returns a generator seeded with state on the given stream.
func NewPCG64(state, stream Uint128) *PCG64 {
	// The increment must be odd.
	inc := Uint128{Hi: stream.Hi<<1 | stream.Lo>>63, Lo: stream.Lo<<1 | 1}
	p := &PCG64{state: state.add(inc), increment: inc}
	p.step()
	return p
}

// Seed returns the generator of seed on the Increment stream.
func Seed(seed uint64) *PCG64 {
	return NewPCG64(Uint128{Lo: seed}, Increment)
}

func (p *PCG64) step() {
	p.state = p.state.mul(pcgMultiplier).add(p.increment)
}

func (p *PCG64) Uint64() uint64 {
	p.step()
	rot := int(p.state.Hi >> 58)
	return bits.RotateLeft64(p.state.Hi^p.state.Lo, -rot)
}

// Uniform returns a number uniformly distributed in [lo, hi).
// The top 52 bits of a draw fill the mantissa of a number in [1, 2), which is then scaled.
func (p *PCG64) Uniform(lo, hi float64) float64 {
	scale := hi - lo
	v := math.Float64frombits(p.Uint64()>>12 | 1023<<52)
	return float64(v*scale) + (lo - scale)
}
