package fec

import (
	"errors"
	"fmt"
)

// RSCodec implements a systematic Reed-Solomon(255, 255-nsym) code over
// GF(256) (primitive polynomial 0x11D, generator root alpha=2), able to
// correct up to nsym/2 byte errors at unknown positions per codeword via
// classical bounded-distance decoding (syndromes, Berlekamp-Massey,
// Chien search, Forney).
type RSCodec struct {
	nsym int
}

// NewRSCodec returns a codec producing nsym parity bytes per codeword.
func NewRSCodec(nsym int) *RSCodec {
	return &RSCodec{nsym: nsym}
}

// Nsym returns the parity byte count.
func (r *RSCodec) Nsym() int { return r.nsym }

// MaxCorrectable returns the maximum number of byte errors this codec
// can correct per codeword.
func (r *RSCodec) MaxCorrectable() int { return r.nsym / 2 }

func (r *RSCodec) generatorPoly() []byte {
	g := []byte{1}
	for i := 0; i < r.nsym; i++ {
		g = gfPolyMul(g, []byte{1, gfPow(2, i)})
	}
	return g
}

// Encode returns the nsym parity bytes for data; the transmitted
// codeword is data||parity.
func (r *RSCodec) Encode(data []byte) ([]byte, error) {
	if len(data)+r.nsym > 255 {
		return nil, fmt.Errorf("fec: RS block length %d exceeds 255", len(data)+r.nsym)
	}
	gen := r.generatorPoly()
	buf := make([]byte, len(data)+r.nsym)
	copy(buf, data)
	for i := 0; i < len(data); i++ {
		coef := buf[i]
		if coef == 0 {
			continue
		}
		for j := 0; j < len(gen); j++ {
			buf[i+j] ^= gfMul(gen[j], coef)
		}
	}
	return buf[len(data):], nil
}

func (r *RSCodec) syndromes(codeword []byte) []byte {
	synd := make([]byte, r.nsym)
	for i := 0; i < r.nsym; i++ {
		synd[i] = gfPolyEval(codeword, gfPow(2, i))
	}
	return synd
}

// Decode attempts to correct codeword (data||parity) and returns the
// data portion with parity stripped. Returns the number of bytes
// corrected, or an error wrapping ErrUncorrectableErrors if more than
// nsym/2 bytes are in error.
func (r *RSCodec) Decode(codeword []byte) (data []byte, numErrors int, err error) {
	n := len(codeword)
	if n <= r.nsym || n > 255 {
		return nil, 0, fmt.Errorf("fec: invalid RS codeword length %d for nsym %d", n, r.nsym)
	}

	synd := r.syndromes(codeword)
	clean := true
	for _, s := range synd {
		if s != 0 {
			clean = false
			break
		}
	}
	if clean {
		out := make([]byte, n-r.nsym)
		copy(out, codeword[:n-r.nsym])
		return out, 0, nil
	}

	errLoc, lerr := rsFindErrorLocator(synd, r.nsym)
	if lerr != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUncorrectableErrors, lerr)
	}
	errPos, perr := rsFindErrorPositions(errLoc, n)
	if perr != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUncorrectableErrors, perr)
	}

	corrected := make([]byte, n)
	copy(corrected, codeword)
	if cerr := rsCorrectErrata(corrected, synd, errPos); cerr != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUncorrectableErrors, cerr)
	}

	finalSynd := r.syndromes(corrected)
	for _, s := range finalSynd {
		if s != 0 {
			return nil, 0, fmt.Errorf("%w: verification failed after correction", ErrUncorrectableErrors)
		}
	}

	out := make([]byte, n-r.nsym)
	copy(out, corrected[:n-r.nsym])
	return out, len(errPos), nil
}

// rsFindErrorLocator runs Berlekamp-Massey over the syndrome sequence to
// find the error locator polynomial Lambda(x).
func rsFindErrorLocator(synd []byte, nsym int) ([]byte, error) {
	errLoc := []byte{1}
	oldLoc := []byte{1}

	for i := 0; i < nsym; i++ {
		delta := synd[i]
		for j := 1; j < len(errLoc); j++ {
			idx := i - j
			if idx >= 0 {
				delta ^= gfMul(errLoc[len(errLoc)-1-j], synd[idx])
			}
		}
		oldLoc = append(oldLoc, 0)
		if delta != 0 {
			if len(oldLoc) > len(errLoc) {
				newLoc := gfPolyScale(oldLoc, delta)
				oldLoc = gfPolyScale(errLoc, gfInverse(delta))
				errLoc = newLoc
			}
			errLoc = gfPolyAdd(errLoc, gfPolyScale(oldLoc, delta))
		}
	}

	start := 0
	for start < len(errLoc)-1 && errLoc[start] == 0 {
		start++
	}
	errLoc = errLoc[start:]

	errs := len(errLoc) - 1
	if errs*2 > nsym {
		return nil, errors.New("too many errors to correct")
	}
	return errLoc, nil
}

// rsFindErrorPositions runs a Chien search over the error locator
// polynomial to find the codeword positions (0 = first byte) in error.
func rsFindErrorPositions(errLoc []byte, n int) ([]int, error) {
	errs := len(errLoc) - 1
	// errLoc is Lambda(x) with its constant term last; its reversal has
	// the error locators X themselves (not their inverses) as roots.
	revLoc := reverseBytes(errLoc)
	var positions []int
	for i := 0; i < n; i++ {
		if gfPolyEval(revLoc, gfPow(2, i)) == 0 {
			positions = append(positions, n-1-i)
		}
	}
	if len(positions) != errs {
		return nil, errors.New("chien search found wrong number of roots")
	}
	return positions, nil
}

func rsFindErrataLocator(coefPositions []int) []byte {
	loc := []byte{1}
	for _, p := range coefPositions {
		term := gfPolyAdd([]byte{1}, []byte{gfPow(2, p), 0})
		loc = gfPolyMul(loc, term)
	}
	return loc
}

func rsFindErrorEvaluator(synd, errLoc []byte, nsym int) []byte {
	remainder := gfPolyMul(synd, errLoc)
	if len(remainder) > nsym+1 {
		remainder = remainder[len(remainder)-(nsym+1):]
	}
	return remainder
}

// rsCorrectErrata applies the Forney algorithm to compute and XOR in the
// error magnitudes at errPos, correcting msg in place.
func rsCorrectErrata(msg []byte, synd []byte, errPos []int) error {
	n := len(msg)
	coefPos := make([]int, len(errPos))
	for i, p := range errPos {
		coefPos[i] = n - 1 - p
	}
	errLoc := rsFindErrataLocator(coefPos)

	// Omega(x) = [Synd(x) * Lambda(x)] mod x^(errs+1), computed with
	// both operands reversed so Horner evaluation below reads the
	// remainder MSB-first like every other polynomial here.
	errEval := rsFindErrorEvaluator(reverseBytes(synd), errLoc, len(errLoc)-1)

	x := make([]byte, len(coefPos))
	for i, cp := range coefPos {
		x[i] = gfPow(2, cp)
	}

	e := make([]byte, n)
	for i, xi := range x {
		xiInv := gfInverse(xi)

		var errLocPrime byte = 1
		for j, xj := range x {
			if j == i {
				continue
			}
			errLocPrime = gfMul(errLocPrime, 1^gfMul(xiInv, xj))
		}
		if errLocPrime == 0 {
			return errors.New("forney: zero error-locator derivative")
		}

		// With first consecutive root alpha^0, the magnitude is
		// Omega(Xi^-1) / prod_{j!=i}(1 - Xi^-1 Xj).
		y := gfPolyEval(errEval, xiInv)

		e[errPos[i]] = gfDiv(y, errLocPrime)
	}

	for i := range msg {
		msg[i] ^= e[i]
	}
	return nil
}
