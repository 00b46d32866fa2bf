// Package alphabet provides the nucleotide complement table and
// the reverse complement used for every orientation flip
package alphabet

// MakeCompArray returns a lookup table from a nucleotide (byte) to its complement.
// IUPAC ambiguity codes are complemented, case is preserved, and N, gaps and
// anything unrecognised map to themselves
func MakeCompArray() [256]byte {
	var compArray [256]byte
	for i := range compArray {
		compArray[i] = byte(i)
	}

	pairs := [][2]byte{
		{'A', 'T'},
		{'G', 'C'},
		{'R', 'Y'},
		{'K', 'M'},
		{'B', 'V'},
		{'D', 'H'},
	}

	for _, p := range pairs {
		compArray[p[0]] = p[1]
		compArray[p[1]] = p[0]
		compArray[p[0]+32] = p[1] + 32
		compArray[p[1]+32] = p[0] + 32
	}

	return compArray
}

var compArray = MakeCompArray()

// Complement returns a new slice holding the complement of seq
func Complement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, nuc := range seq {
		out[i] = compArray[nuc]
	}
	return out
}

// ReverseComplement returns a new slice holding the reverse complement of seq.
// The input is never modified
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, j := 0, len(seq)-1; j >= 0; i, j = i+1, j-1 {
		out[i] = compArray[seq[j]]
	}
	return out
}
