package fec

// GF(256) arithmetic: primitive polynomial 0x11D (x^8+x^4+x^3+x^2+1),
// generator (primitive element) alpha = 2. klauspost/reedsolomon builds
// erasure codes over this same field but only reconstructs shards whose
// positions are already known bad; it has no syndrome/Berlekamp-Massey
// path for locating errors at unknown positions, which is what blind
// byte-error correction needs, so the arithmetic is reimplemented here
// directly.

const gfPoly = 0x11d

var gfExp [512]byte
var gfLogTable [256]byte

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		gfExp[i] = byte(x)
		gfLogTable[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= gfPoly
		}
	}
	for i := 255; i < 512; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

// gfMul multiplies two GF(256) elements.
func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLogTable[a])+int(gfLogTable[b])]
}

// gfDiv divides a by b in GF(256); b must be nonzero.
func gfDiv(a, b byte) byte {
	if b == 0 {
		panic("fec: division by zero in GF(256)")
	}
	if a == 0 {
		return 0
	}
	idx := int(gfLogTable[a]) - int(gfLogTable[b])
	if idx < 0 {
		idx += 255
	}
	return gfExp[idx]
}

// gfPow raises a to the given (possibly large) power in GF(256).
func gfPow(a byte, power int) byte {
	if a == 0 {
		if power == 0 {
			return 1
		}
		return 0
	}
	e := (int(gfLogTable[a]) * power) % 255
	if e < 0 {
		e += 255
	}
	return gfExp[e]
}

// gfInverse returns the multiplicative inverse of a (nonzero) in GF(256).
func gfInverse(a byte) byte {
	return gfExp[255-int(gfLogTable[a])]
}

// gfPolyScale multiplies every coefficient of p by the scalar x.
func gfPolyScale(p []byte, x byte) []byte {
	out := make([]byte, len(p))
	for i, c := range p {
		out[i] = gfMul(c, x)
	}
	return out
}

// gfPolyAdd adds (XORs) two polynomials in MSB-first coefficient order,
// aligning them on their least-significant (rightmost) term.
func gfPolyAdd(p, q []byte) []byte {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make([]byte, n)
	copy(out[n-len(p):], p)
	for i, c := range q {
		out[i+n-len(q)] ^= c
	}
	return out
}

// gfPolyMul multiplies two polynomials over GF(256).
func gfPolyMul(p, q []byte) []byte {
	if len(p) == 0 || len(q) == 0 {
		return nil
	}
	out := make([]byte, len(p)+len(q)-1)
	for i, pc := range p {
		if pc == 0 {
			continue
		}
		for j, qc := range q {
			out[i+j] ^= gfMul(pc, qc)
		}
	}
	return out
}

// gfPolyEval evaluates polynomial p (MSB-first) at x via Horner's method.
func gfPolyEval(p []byte, x byte) byte {
	y := p[0]
	for i := 1; i < len(p); i++ {
		y = gfMul(y, x) ^ p[i]
	}
	return y
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
