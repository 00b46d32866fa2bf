package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"

	"github.com/virus-evolution/assemblender/pkg/merge"
)

func testViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.Set("alignments", "data/aln.coords")
	v.Set("assembly", "data/asm.fasta")
	v.Set("run", "r1")
	return v
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(testViper(), "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Options() != merge.DefaultOptions() {
		t.Errorf("problem in TestLoadDefaults(): %+v", c.Options())
	}
	if c.Format != "coords" || c.LogLevel != "info" || c.Wrap != 0 {
		t.Errorf("problem in TestLoadDefaults(): %+v", c)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "assemblender.yaml")
	err := os.WriteFile(file, []byte("format: sam\nwrap: 60\nnear-identity: 99.5\nstart-slack: 30\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("ASSEMBLENDER_MIN_IDENTITY", "90")

	c, err := Load(testViper(), file)
	if err != nil {
		t.Fatal(err)
	}
	if c.Format != "sam" || c.Wrap != 60 || c.NearIdentity != 99.5 || c.StartSlack != 30 {
		t.Errorf("problem in TestLoadFileAndEnv(): file settings %+v", c)
	}
	if c.MinIdentity != 90 {
		t.Errorf("problem in TestLoadFileAndEnv(): env setting %v", c.MinIdentity)
	}
	if c.EndSlack != 23 {
		t.Errorf("problem in TestLoadFileAndEnv(): default lost")
	}
}

func TestValidate(t *testing.T) {
	good, err := Load(testViper(), "")
	if err != nil {
		t.Fatal(err)
	}

	bad := []func(c *Config){
		func(c *Config) { c.Run = "" },
		func(c *Config) { c.Format = "paf" },
		func(c *Config) { c.EndSlack = 0 },
		func(c *Config) { c.MinIdentity = 0 },
		func(c *Config) { c.NearCoverage = 100.5 },
	}
	for i, mutate := range bad {
		c := good
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, errInvalid) {
			t.Errorf("problem in TestValidate(): case %d gave %v", i, err)
		}
	}
}

func TestPaths(t *testing.T) {
	c := Config{Alignments: "data/aln.coords", Assembly: "data/asm.fasta", Run: "r1"}

	want := Paths{
		Fasta:      "data/asm_r1.fa",
		Index:      "data/asm_r1.fa.fai",
		Contigs:    "data/aln_r1_contigs.out",
		ContigIn:   "data/aln_r1_contig_in.out",
		ContigSelf: "data/aln_r1_contig_self.out",
		Report:     "data/aln_r1_report.out",
	}
	if got := c.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("problem in TestPaths(): %+v", got)
	}

	c.OutDir = "out"
	if got := c.Paths(); got.Fasta != filepath.Join("out", "asm_r1.fa") || got.Report != filepath.Join("out", "aln_r1_report.out") {
		t.Errorf("problem in TestPaths(): with outdir %+v", got)
	}
}
