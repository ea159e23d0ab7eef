package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"ragdesk/config"
	"ragdesk/models"
	"ragdesk/services/documents"

	"github.com/spf13/cobra"
)

var noClean bool

func init() {
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Extract, clean, split and index documents",
		Args:  cobra.MinimumNArgs(1),
		Run:   runIngest,
	}
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "Skip the text cleaning pass")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	mustValidate()
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		exitErr("initialize", err)
	}
	defer a.Close()

	clean := config.AppConfig.CleanDocuments && !noClean
	progress := progressPrinter{}
	var results []models.IngestResult
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			exitErr("open "+path, err)
		}
		stored, err := a.ingestor.SaveUpload(path, f)
		f.Close()
		if err != nil {
			exitErr("save "+path, err)
		}
		res, err := a.ingestor.IngestFile(cmd.Context(), stored, clean, progress)
		if err != nil {
			exitErr("ingest "+path, err)
		}
		results = append(results, res)
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}

// progressPrinter writes progress lines to stderr so stdout stays JSON.
type progressPrinter struct{}

func (progressPrinter) ReportProgress(fraction float64, label string) {
	fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, label)
}

var _ documents.ProgressReporter = progressPrinter{}
