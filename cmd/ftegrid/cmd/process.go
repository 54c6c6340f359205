package cmd

import (
	"fmt"
	"os"
	"time"

	"fte-grid-service/cmd/ftegrid/config"
	"fte-grid-service/internal/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	inputFile   string
	mappingFile string
	agencyFiles []string
	year        int
	month       int
	outputDir   string
	matchCutoff float64
	matchPolicy string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process one monthly FTE grid",
	Long: `Process consolidates the monthly FTE grid with the reference mapping
workbook and any single-agency files, reconciles agency coverage before
and after the merge, and writes the consolidated grid, the avoided and
kept row partitions, and the FC upload extract.

This command requires:
- The primary grid file (CSV or Excel)
- The mapping workbook with the countries and department sheets
- The reporting year and month

Examples:
  # Grid only
  ftegrid process --input-file grid.csv --mapping-file mapping.xlsx --year 2026 --month 7

  # With single-agency files for agencies missing from the grid
  ftegrid process --input-file grid.xlsx --mapping-file mapping.xlsx \
    --agency-files gamma.xlsx,delta.xlsx --year 2026 --month 7

  # Custom fuzzy-matching behavior
  ftegrid process --input-file grid.csv --mapping-file mapping.xlsx \
    --year 2026 --month 7 --match-cutoff 0.7 --match-policy sentinel`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Required flags
	processCmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "path to the primary grid file (required)")
	processCmd.Flags().StringVarP(&mappingFile, "mapping-file", "m", "", "path to the mapping workbook (required)")
	processCmd.Flags().IntVarP(&year, "year", "y", 0, "reporting year (required)")
	processCmd.Flags().IntVar(&month, "month", 0, "reporting month, 1-12 (required)")

	// Optional flags
	processCmd.Flags().StringSliceVarP(&agencyFiles, "agency-files", "a", []string{}, "comma-separated paths to single-agency files")
	processCmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory for the output files")
	processCmd.Flags().Float64Var(&matchCutoff, "match-cutoff", 0.6, "minimum similarity for fuzzy department matching (0.0-1.0)")
	processCmd.Flags().StringVar(&matchPolicy, "match-policy", "flag", "unmatched department policy: fail, flag, sentinel")

	processCmd.MarkFlagRequired("input-file")
	processCmd.MarkFlagRequired("mapping-file")
	processCmd.MarkFlagRequired("year")
	processCmd.MarkFlagRequired("month")

	// Bind flags to viper
	viper.BindPFlag("input-file", processCmd.Flags().Lookup("input-file"))
	viper.BindPFlag("mapping-file", processCmd.Flags().Lookup("mapping-file"))
	viper.BindPFlag("agency-files", processCmd.Flags().Lookup("agency-files"))
	viper.BindPFlag("year", processCmd.Flags().Lookup("year"))
	viper.BindPFlag("month", processCmd.Flags().Lookup("month"))
	viper.BindPFlag("output-dir", processCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("match-cutoff", processCmd.Flags().Lookup("match-cutoff"))
	viper.BindPFlag("match-policy", processCmd.Flags().Lookup("match-policy"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	inputFile = viper.GetString("input-file")
	mappingFile = viper.GetString("mapping-file")
	agencyFiles = viper.GetStringSlice("agency-files")
	year = viper.GetInt("year")
	month = viper.GetInt("month")
	outputDir = viper.GetString("output-dir")
	matchCutoff = viper.GetFloat64("match-cutoff")
	matchPolicy = viper.GetString("match-policy")

	if inputFile == "" {
		return fmt.Errorf("input-file is required")
	}
	if mappingFile == "" {
		return fmt.Errorf("mapping-file is required")
	}

	if err := validateFileExists(inputFile, "grid file"); err != nil {
		return err
	}
	if err := validateFileExists(mappingFile, "mapping workbook"); err != nil {
		return err
	}
	for i, agencyFile := range agencyFiles {
		if err := validateFileExists(agencyFile, fmt.Sprintf("agency file %d", i+1)); err != nil {
			return err
		}
	}

	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1900 || year > 9999 {
		return fmt.Errorf("year out of range: %d", year)
	}

	info, err := os.Stat(outputDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("output directory does not exist: %s", outputDir)
	}
	if err == nil && !info.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", outputDir)
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting monthly run...\n")
		fmt.Fprintf(os.Stderr, "Grid file: %s\n", inputFile)
		fmt.Fprintf(os.Stderr, "Mapping workbook: %s\n", mappingFile)
		fmt.Fprintf(os.Stderr, "Period: %04d-%02d\n", year, month)
	}

	runConfig, err := config.NewRunConfig(config.RunParameters{
		GridFile:    inputFile,
		MappingFile: mappingFile,
		AgencyFiles: agencyFiles,
		Year:        year,
		Month:       month,
		OutputDir:   outputDir,
		MatchCutoff: matchCutoff,
		MatchPolicy: matchPolicy,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	runner := pipeline.NewRunner()
	result, err := runner.Run(runConfig.PipelineRequest(os.Stdout))
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nMonthly run completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Consolidated %d grid rows into %d merged rows.\n",
			result.GridRows, result.MergedRows)
		fmt.Fprintf(os.Stderr, "Kept %d rows, avoided %d, upload extract has %d rows.\n",
			result.KeptRows, result.AvoidedRows, result.UploadRows)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", time.Since(started))
	}
	for _, path := range result.OutputFiles {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}

	return nil
}
