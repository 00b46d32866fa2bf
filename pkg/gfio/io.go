/*
Package gfio provides io functionality, including reading from stdin,
helpful error messages when used in combination with bad filepaths
from commandline options, and staged output files that only appear
under their final names once a run has succeeded
*/
package gfio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

func parseInErr(err error, flagString string) error {
	switch x := err.(type) {
	case *fs.PathError:
		return errors.New(x.Op + " " + flagString + " " + x.Path + ": " + x.Err.Error())
	default:
		return err
	}
}

func flagString(flag pflag.Flag) string {
	switch len(flag.Shorthand) {
	case 0:
		return "--" + flag.Name
	default:
		return "-" + flag.Shorthand + " / --" + flag.Name
	}
}

// OpenIn opens the file named by the flag's value, or stdin if the value is "stdin"
func OpenIn(flag pflag.Flag) (*os.File, error) {
	inFile := flag.Value.String()

	if inFile == "stdin" {
		return os.Stdin, nil
	}

	f, err := os.Open(inFile)
	if err != nil {
		return nil, parseInErr(err, flagString(flag))
	}

	return f, nil
}

// Staged is a set of output files written under temporary names next to their
// destinations. Commit renames all of them into place; Abort removes them.
type Staged struct {
	files []stagedFile
}

type stagedFile struct {
	tmp   *os.File
	final string
}

func NewStaged() *Staged {
	return &Staged{}
}

// Create opens a temporary file in the directory of path
func (s *Staged) Create(path string) (*os.File, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, err
	}

	s.files = append(s.files, stagedFile{tmp: f, final: path})

	return f, nil
}

// Paths returns the final destinations of the staged files, in creation order
func (s *Staged) Paths() []string {
	paths := make([]string, len(s.files))
	for i, sf := range s.files {
		paths[i] = sf.final
	}
	return paths
}

// Commit closes every staged file and renames it to its final path
func (s *Staged) Commit() error {
	for _, sf := range s.files {
		if err := sf.tmp.Close(); err != nil {
			s.Abort()
			return err
		}
	}

	for _, sf := range s.files {
		if err := os.Rename(sf.tmp.Name(), sf.final); err != nil {
			s.Abort()
			return err
		}
	}

	s.files = nil

	return nil
}

// Abort closes and removes every staged file that has not been committed
func (s *Staged) Abort() {
	for _, sf := range s.files {
		sf.tmp.Close()
		os.Remove(sf.tmp.Name())
	}
	s.files = nil
}
