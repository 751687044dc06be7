package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hasheq/internal/driver"
)

func newGenCmd() *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "gen [packages...]",
		Short: "Write generated Equal/HashCode methods for packages",
		Long: `Generate Equal and HashCode methods for the value types of each package
(default ".") and write them to the configured output file. A pattern ending
in /... selects every package below a directory. With --verify nothing is
written; the command fails when a file on disk is out of date.

Nothing is written unless every package generates cleanly.`,
		RunE: runGen,
	}
	addPackageFlags(genCmd, true)
	genCmd.Flags().Bool("verify", false, "fail instead of writing when the output file is stale")
	return genCmd
}

func runGen(cmd *cobra.Command, args []string) error {
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	results, err := runPackages(cmd, args)
	if err != nil {
		return err
	}
	failed := false
	for _, res := range results {
		if verify && !res.Bag.HasErrors() {
			if _, err := driver.Verify(res); err != nil {
				return fmt.Errorf("verify %s: %w", res.OutputPath, err)
			}
		}
		if err := printDiagnostics(cmd, res); err != nil {
			return err
		}
		if err := printTimings(cmd, timingLabel(results, res), res.Timing, res.Cached); err != nil {
			return err
		}
		failed = failed || res.Bag.HasErrors()
	}
	if failed {
		return errDiagnostics
	}
	if verify {
		return nil
	}

	out := cmd.OutOrStdout()
	for _, res := range results {
		changed, err := driver.WriteOutput(res)
		if err != nil {
			return err
		}
		if quiet {
			continue
		}
		switch {
		case !changed && len(res.Types) == 0:
			// nothing to generate and nothing to remove
		case !changed:
			fmt.Fprintf(out, "%s is up to date\n", res.OutputPath)
		case len(res.Types) == 0:
			fmt.Fprintf(out, "removed %s\n", res.OutputPath)
		default:
			fmt.Fprintf(out, "wrote %s (%d types)\n", res.OutputPath, len(res.Types))
		}
	}
	return nil
}
