package alphabet

import (
	"bytes"
	"testing"
)

func TestComplement(t *testing.T) {
	in := []byte("ACGTRYSWKMBDHVN-?acgtryswkmbdhvn-?")
	out := []byte("TGCAYRSWMKVHDBN-?tgcayrswmkvhdbn-?")

	if !bytes.Equal(Complement(in), out) {
		t.Errorf("problem in TestComplement()")
	}
}

func TestReverseComplement(t *testing.T) {
	in := []byte("AATGCNnatgc")
	out := []byte("gcatnNGCATT")

	got := ReverseComplement(in)
	if !bytes.Equal(got, out) {
		t.Errorf("problem in TestReverseComplement(): got %s", got)
	}

	if string(in) != "AATGCNnatgc" {
		t.Errorf("problem in TestReverseComplement(): input was modified")
	}

	if len(ReverseComplement([]byte{})) != 0 {
		t.Errorf("problem in TestReverseComplement(): empty input")
	}
}

func TestReverseComplementInvolution(t *testing.T) {
	seqs := []string{
		"",
		"A",
		"ACGTTGCAAGGCTTNNNNacgtnrykm",
		"GATTACA-GATTACA",
	}
	for _, s := range seqs {
		twice := ReverseComplement(ReverseComplement([]byte(s)))
		if string(twice) != s {
			t.Errorf("problem in TestReverseComplementInvolution(): %s became %s", s, twice)
		}
	}
}
