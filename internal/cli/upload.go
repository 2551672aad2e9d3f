package cli

import (
	"bytes"
	"fmt"

	"github.com/samartsevigor/change-analyzer/internal/config"
	"github.com/samartsevigor/change-analyzer/internal/report"
	"github.com/samartsevigor/change-analyzer/internal/upload"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	endpointFlag string
	tokenFlag    string
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <base> <head>",
	Short: "Analyse and upload the project with its report",
	Long: `Upload runs the analysis between base and head, writes the report, and
sends a zip of the project (ignored paths and .git excluded) together with
the report to the configured endpoint.

The endpoint and token come from upload.endpoint and upload.token in the
config file, CHANGE_ANALYZER_UPLOAD_ENDPOINT and CHANGE_ANALYZER_UPLOAD_TOKEN,
or the flags below.

Example:
  change-analyzer upload v1.0.0 v1.1.0 --endpoint https://audit.example.com/api/runs
`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&endpointFlag, "endpoint", "", "upload URL")
	uploadCmd.Flags().StringVar(&tokenFlag, "token", "", "bearer token")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	s, err := newSession(cmd, NewCLIProgressReporter(cmd.ErrOrStderr(), false))
	if err != nil {
		return err
	}
	defer s.Close()

	if endpointFlag != "" {
		s.cfg.Upload.Endpoint = endpointFlag
	}
	if tokenFlag != "" {
		s.cfg.Upload.Token = tokenFlag
	}
	if err := config.ValidateUpload(s.cfg); err != nil {
		return fmt.Errorf("invalid upload configuration: %w", err)
	}

	result, err := analyzeAndWrite(ctx, s, args[0], args[1])
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.Encode(&buf, result.Reports); err != nil {
		return err
	}

	client := upload.NewClient(s.cfg.Upload.Endpoint, s.cfg.Upload.Token, s.cfg.Upload.Timeout)
	resp, err := client.UploadProject(ctx, s.root, s.matcher, buf.Bytes(), s.outputPath())
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	logger.Infof("[upload] run %s accepted (HTTP %d)", resp.RunID, resp.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Uploaded run %s\n", resp.RunID)
	return nil
}
