package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/virus-evolution/assemblender/pkg/alignment"
	"github.com/virus-evolution/assemblender/pkg/config"
	"github.com/virus-evolution/assemblender/pkg/fasta"
	"github.com/virus-evolution/assemblender/pkg/gfio"
	"github.com/virus-evolution/assemblender/pkg/merge"
	"github.com/virus-evolution/assemblender/pkg/sam"
)

func init() {
	rootCmd.AddCommand(mergeCmd)

	d := merge.DefaultOptions()

	mergeCmd.Flags().StringP("alignments", "a", "", "Contig self-alignments: show-coords -rclTHo output, or SAM grouped by reference")
	mergeCmd.Flags().StringP("assembly", "f", "", "Assembly the alignments were made from, in fasta format")
	mergeCmd.Flags().StringP("run", "n", "", "Run name, used to name the output files")
	mergeCmd.Flags().Bool("scaffold", false, "Reconstruct scaffolds (not supported)")
	mergeCmd.Flags().String("format", "coords", "Alignment format: coords or sam")
	mergeCmd.Flags().Int("wrap", 0, "Wrap output sequences to this many characters per line (0: no wrapping)")
	mergeCmd.Flags().StringP("outdir", "o", "", "Directory to write the outputs to (default: beside the inputs)")

	mergeCmd.Flags().Float64("min-identity", d.MinIdentity, "Ignore alignments at or below this percent identity")
	mergeCmd.Flags().Float64("contain-identity", d.ContainIdentity, "Percent identity needed for containment inside an existing composite")
	mergeCmd.Flags().Float64("near-coverage", d.NearCoverage, "Query coverage for near-containment")
	mergeCmd.Flags().Float64("near-identity", d.NearIdentity, "Percent identity for near-containment")
	mergeCmd.Flags().Int("start-slack", d.StartSlack, "Alignments starting before this reference position touch its start")
	mergeCmd.Flags().Int("end-slack", d.EndSlack, "Alignments ending within this many bases of the reference end touch its end")

	mergeCmd.Flags().SortFlags = false

	v.BindPFlags(mergeCmd.Flags())
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Blend overlapping and contained contigs",
	Long: `Blend overlapping and contained contigs

Contigs wholly contained in another are dropped, and contigs whose ends overlap
are spliced together, using the pairwise alignments of the assembly against itself.
Alignments must be grouped by reference contig.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {

		c, err := config.Load(v, configFile)
		if err != nil {
			return err
		}

		if c.Scaffold {
			return fmt.Errorf("--scaffold: %w", merge.ErrUnsupportedConfiguration)
		}

		logger, err := newLogger(c.LogLevel)
		if err != nil {
			return err
		}

		engine, err := blend(cmd, c, logger)
		if err != nil {
			return err
		}

		return writeOutputs(engine, c, logger)
	},
}

// inputFlag points the named flag at value, which may have come from the config file
func inputFlag(cmd *cobra.Command, name, value string) (pflag.Flag, error) {
	if err := cmd.Flags().Set(name, value); err != nil {
		return pflag.Flag{}, err
	}
	return *cmd.Flags().Lookup(name), nil
}

func blend(cmd *cobra.Command, c config.Config, logger *log.Logger) (*merge.Engine, error) {
	flag, err := inputFlag(cmd, "assembly", c.Assembly)
	if err != nil {
		return nil, err
	}
	asmIn, err := gfio.OpenIn(flag)
	if err != nil {
		return nil, err
	}
	defer asmIn.Close()

	records, err := fasta.LoadAssembly(asmIn)
	if err != nil {
		return nil, fmt.Errorf("reading assembly %s: %w", c.Assembly, err)
	}
	reg, err := merge.Load(records)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded assembly", "file", c.Assembly, "contigs", len(records))

	flag, err = inputFlag(cmd, "alignments", c.Alignments)
	if err != nil {
		return nil, err
	}
	alnIn, err := gfio.OpenIn(flag)
	if err != nil {
		return nil, err
	}
	defer alnIn.Close()

	var src alignment.Source
	switch c.Format {
	case "sam":
		sr, err := sam.NewReader(alnIn, logger)
		if err != nil {
			return nil, fmt.Errorf("reading sam header: %w", err)
		}
		src = sr
	default:
		src = alignment.NewReader(alnIn)
	}

	engine := merge.New(reg, c.Options(), logger)
	if err = engine.Run(alignment.Grouped(src)); err != nil {
		return nil, err
	}

	return engine, nil
}

// writeOutputs writes every output under a temporary name, then moves them all into place
func writeOutputs(engine *merge.Engine, c config.Config, logger *log.Logger) (err error) {
	if c.OutDir != "" {
		if err = os.MkdirAll(c.OutDir, 0755); err != nil {
			return err
		}
	}

	paths := c.Paths()
	staged := gfio.NewStaged()
	defer func() {
		if err != nil {
			staged.Abort()
		}
	}()

	files := make([]*os.File, 0, 6)
	for _, p := range []string{paths.Fasta, paths.Index, paths.Contigs, paths.ContigIn, paths.ContigSelf, paths.Report} {
		f, err := staged.Create(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	err = engine.Write(merge.Outputs{
		Fasta:      files[0],
		Index:      files[1],
		Contigs:    files[2],
		ContigIn:   files[3],
		ContigSelf: files[4],
		Report:     files[5],
	}, c.Wrap)
	if err != nil {
		return err
	}

	if err = staged.Commit(); err != nil {
		return err
	}

	logger.Info("wrote outputs", "fasta", paths.Fasta, "report", paths.Report)

	return nil
}
