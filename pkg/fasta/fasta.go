/*
Package fasta reads the input assembly and writes the blended assembly,
optionally with a samtools-style .fai index alongside it
*/
package fasta

import (
	"github.com/virus-evolution/assemblender/pkg/alphabet"
)

// A struct for one Fasta record
type Record struct {
	ID          string
	Description string
	Seq         string
	Idx         int
}

// Reverse complement a Record's sequence, returning a new Record
func (FR Record) ReverseComplement() Record {
	NFR := Record{ID: FR.ID, Description: FR.Description, Idx: FR.Idx}
	NFR.Seq = string(alphabet.ReverseComplement([]byte(FR.Seq)))
	return NFR
}
