package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devup/internal/compat"
	"github.com/blackwell-systems/devup/internal/config"
	"github.com/blackwell-systems/devup/internal/managers"
	"github.com/blackwell-systems/devup/internal/output"
)

var (
	compatTarget string
	compatAll    bool
	compatSave   string

	compatCmd = &cobra.Command{
		Use:   "compat",
		Short: "Check installed Python packages against a target Python",
		Long: `Before upgrading Python across a minor or major version, ask PyPI what
each installed package claims to support. Packages are bucketed as
compatible, likely (no explicit claim, or one version behind),
incompatible, or unknown, and the bucket shares roll up into a risk
verdict for the upgrade.

Only the first ` + fmt.Sprint(compat.SampleSize) + ` packages are checked unless --all is given; a busy
environment can hold hundreds and each one is a PyPI request.`,
		Example: `  # Check against the default target
  devup compat

  # Everything, against 3.15
  devup compat --all --target 3.15

  # Machine-readable report for diffing across scans
  devup compat --save compat-report.json`,
		RunE: runCompat,
	}
)

func init() {
	compatCmd.Flags().StringVar(&compatTarget, "target", "", "target Python version (default: compat.target config key)")
	compatCmd.Flags().BoolVar(&compatAll, "all", false, "check every installed package, not a sample")
	compatCmd.Flags().StringVar(&compatSave, "save", "", "write a JSON report to this file")

	RootCmd.AddCommand(compatCmd)
}

func runCompat(cmd *cobra.Command, args []string) error {
	target := compatTarget
	if target == "" {
		target = config.CompatTarget()
	}
	checker := compat.NewChecker(managers.ExecRunner{}, config.PythonBinary(), target)

	spinner := output.NewSpinner("Reading installed packages")
	spinner.Start()
	pkgs, err := checker.InstalledPackages(cmd.Context())
	if err != nil {
		spinner.Stop()
		return err
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ %d installed packages", len(pkgs)))

	total := len(pkgs)
	if !compatAll && total > compat.SampleSize {
		total = compat.SampleSize
		fmt.Printf("Checking the first %d (use --all for everything)\n", total)
	}

	bar := output.NewProgress(total, "Asking PyPI")
	rep := checker.Analyze(cmd.Context(), pkgs, compatAll, func(done, total int) {
		bar.Increment()
	})
	bar.Finish()
	rep.CurrentVersion = checker.PythonVersion(cmd.Context())

	printReport(rep, checker.Target())

	if compatSave != "" {
		if err := rep.Save(compatSave); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Printf("\nReport saved to %s\n", compatSave)
	}
	return nil
}

func printReport(rep *compat.Report, target string) {
	fmt.Println()
	if rep.CurrentVersion != "" {
		fmt.Printf("Python %s → %s: %d of %d packages checked\n",
			rep.CurrentVersion, target, rep.TotalChecked, rep.TotalInstalled)
	} else {
		fmt.Printf("Target Python %s: %d of %d packages checked\n",
			target, rep.TotalChecked, rep.TotalInstalled)
	}
	fmt.Println()
	fmt.Printf("  Compatible:   %4d  (declares support for %s)\n", rep.Summary.Compatible, target)
	fmt.Printf("  Likely:       %4d  (no explicit claim, or one version behind)\n", rep.Summary.Likely)
	fmt.Printf("  Incompatible: %4d  (declares other versions only)\n", rep.Summary.Incompatible)
	fmt.Printf("  Unknown:      %4d  (PyPI could not be consulted)\n", rep.Summary.Unknown)

	risk := rep.Risk()
	fmt.Printf("\nRisk: %s\n", risk)
	fmt.Printf("  %s\n", risk.Describe())

	var incompatible []compat.PackageReport
	for _, p := range rep.Packages {
		if p.Verdict == compat.VerdictIncompatible {
			incompatible = append(incompatible, p)
		}
	}
	if len(incompatible) > 0 {
		fmt.Println("\nPackages that do not claim the target:")
		for _, p := range incompatible {
			fmt.Printf("  ✗ %s %s (supports %s)\n", p.Name, p.Version, strings.Join(p.PythonVersions, ", "))
		}
	}

	if recs := rep.Recommendations(); len(recs) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range recs {
			fmt.Printf("  • %s\n", r)
		}
	}
}
