// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdl

import "math"

const (
	// IEEE 754 represents float64 using 52 bits to represent the mantissa, with
	// an extra implied leading bit.  That gives us 53 bits to store integers
	// without overflow - i.e. [0, (2^53)-1].  And since 2^53 is a small power of
	// two, it can also be stored without loss via mantissa=1 exponent=53.  Thus
	// we have our max and min values.  Ditto for float32, which uses 23 bits with
	// an extra implied leading bit.
	float64MaxInt = (1 << 53)
	float64MinInt = -(1 << 53)
	float32MaxInt = (1 << 24)
	float32MinInt = -(1 << 24)

	twoTo63 = 9223372036854775808.0
	twoTo64 = 18446744073709551616.0
)

func overflowUint(x uint64, bitlen int) bool {
	shift := uint(64 - bitlen)
	return x != (x<<shift)>>shift
}

func overflowInt(x int64, bitlen int) bool {
	shift := uint(64 - bitlen)
	return x != (x<<shift)>>shift
}

func convertIntToUint(x int64, bitlen int) (uint64, bool) {
	ux := uint64(x)
	return ux, x >= 0 && !overflowUint(ux, bitlen)
}

func convertUintToInt(x uint64, bitlen int) (int64, bool) {
	ix := int64(x)
	return ix, ix >= 0 && !overflowInt(ix, bitlen)
}

func convertUintToFloat(x uint64, bitlen int) (float64, bool) {
	switch bitlen {
	case 32:
		return float64(x), x <= float32MaxInt
	default:
		return float64(x), x <= float64MaxInt
	}
}

func convertIntToFloat(x int64, bitlen int) (float64, bool) {
	switch bitlen {
	case 32:
		return float64(x), float32MinInt <= x && x <= float32MaxInt
	default:
		return float64(x), float64MinInt <= x && x <= float64MaxInt
	}
}

func convertFloatToUint(x float64, bitlen int) (uint64, bool) {
	intPart, fracPart := math.Modf(x)
	if x < 0 || fracPart != 0 || intPart >= twoTo64 || math.IsNaN(x) {
		return 0, false
	}
	ux := uint64(x)
	return ux, !overflowUint(ux, bitlen)
}

func convertFloatToInt(x float64, bitlen int) (int64, bool) {
	intPart, fracPart := math.Modf(x)
	if fracPart != 0 || intPart < -twoTo63 || intPart >= twoTo63 || math.IsNaN(x) {
		return 0, false
	}
	ix := int64(x)
	return ix, !overflowInt(ix, bitlen)
}

// convertFloatToFloat fails if x can't be represented exactly in bitlen bits.
// Infinities and NaN convert to themselves.
func convertFloatToFloat(x float64, bitlen int) (float64, bool) {
	if bitlen != 32 || math.IsInf(x, 0) || math.IsNaN(x) {
		return x, true
	}
	f := float64(float32(x))
	return f, f == x
}
