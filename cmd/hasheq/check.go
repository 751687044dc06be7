package main

import (
	"github.com/spf13/cobra"

	"hasheq/internal/driver"
)

func newCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check [packages...]",
		Short: "Report diagnostics for packages without writing anything",
		Long: `Run the generator over each package (default ".") and report its diagnostics.
A pattern ending in /... selects every package below a directory.`,
		RunE: runCheck,
	}
	addPackageFlags(checkCmd, true)
	return checkCmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	results, err := runPackages(cmd, args)
	if err != nil {
		return err
	}
	failed := false
	for _, res := range results {
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
	return nil
}

// timingLabel names res in timing output when results holds more than one package.
func timingLabel(results []*driver.Result, res *driver.Result) string {
	if len(results) < 2 {
		return ""
	}
	return displayDir(res.Dir)
}
