package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/anoixa/image-api/config"
	"github.com/anoixa/image-api/internal/app"
	"github.com/anoixa/image-api/internal/image"
	"github.com/spf13/cobra"
)

// cleanCmd 比对元数据表与存储，清理不一致的记录和文件
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean orphan database records and storage files",
	Long: `Compare the metadata table with the blob storage for every owner scope.
This includes:
  - Delete database records without corresponding files
  - Delete storage files without corresponding database records`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if err := runClean(cmd.OutOrStdout(), dryRun, timeout); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Duration("timeout", 30*time.Minute, "Maximum duration of the scan")
}

// runClean 执行清理
func runClean(w io.Writer, dryRun bool, timeout time.Duration) error {
	config.InitConfig()
	cfg := config.Get()

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := container.ImageService.ScanOrphans(ctx, !dryRun)
	if err != nil {
		return err
	}

	printCleanReport(w, report, dryRun)

	if report.RepairFailures > 0 {
		return fmt.Errorf("encountered %d errors during cleanup", report.RepairFailures)
	}
	return nil
}

// printCleanReport 打印清理报告
func printCleanReport(w io.Writer, report *image.ScanReport, dryRun bool) {
	for _, scope := range report.Scopes {
		prefix := fmt.Sprintf("%s/%s", scope.Category.Folder(), scope.OwnerID)
		for _, name := range scope.MissingBlobs {
			fmt.Fprintf(w, "  record without file: %s/%s\n", prefix, name)
		}
		for _, name := range scope.OrphanBlobs {
			fmt.Fprintf(w, "  file without record: %s/%s\n", prefix, name)
		}
	}

	fmt.Fprintln(w, "\n========== Clean Summary ==========")
	if dryRun {
		fmt.Fprintln(w, "Mode: DRY RUN (no changes made)")
	}
	fmt.Fprintf(w, "Scopes scanned:          %d\n", report.ScopesScanned)
	fmt.Fprintf(w, "Records without file:    %d\n", report.MissingBlobCount())
	fmt.Fprintf(w, "Files without record:    %d\n", report.OrphanBlobCount())
	if !dryRun {
		fmt.Fprintf(w, "Deleted records:         %d\n", report.RemovedRecords)
		fmt.Fprintf(w, "Deleted files:           %d\n", report.RemovedBlobs)
		fmt.Fprintf(w, "Failures:                %d\n", report.RepairFailures)
	}
	fmt.Fprintf(w, "Duration:                %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, "===================================")
}
