package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockdash/internal/api/handlers"
	"github.com/wonny/stockdash/pkg/httputil"
	"github.com/wonny/stockdash/pkg/logger"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload files to a running server",
	Long: `Post one or more files to POST /api/dataset/upload.
The last file that decodes becomes the current dataset.

Example:
  go run ./cmd/stockdash upload a.csv b.xlsx --server http://localhost:8080`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var (
	uploadServer  string
	uploadTimeout time.Duration
	uploadRetries int
)

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVar(&uploadServer, "server", "http://localhost:8080", "server base URL")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", time.Minute, "request timeout")
	uploadCmd.Flags().IntVar(&uploadRetries, "retries", 3, "retries on 5xx/429 (0 disables)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	files, err := readFiles(args)
	if err != nil {
		return err
	}

	client := newUploadClient(logger.Nop(), uploadTimeout, uploadRetries)

	resp, err := uploadFiles(cmd.Context(), client, uploadServer, handlers.UploadRequest{Files: files})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, fe := range resp.Errors {
		fmt.Fprintf(out, "❌ %s: %s\n", fe.File, fe.Message)
	}
	if resp.Snapshot == nil {
		return fmt.Errorf("no file could be loaded")
	}

	fmt.Fprintf(out, "✅ Loaded %s (%d rows, snapshot %s)\n", resp.Snapshot.FileName, resp.Snapshot.Rows, resp.Snapshot.ID)
	if resp.Archived {
		fmt.Fprintln(out, "   archived")
	}
	return nil
}

// uploadFiles posts req and decodes the upload response. A 422 still carries
// per-file errors and is returned without error.
func uploadFiles(ctx context.Context, client *httputil.Client, server string, req handlers.UploadRequest) (*handlers.UploadResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	url := strings.TrimRight(server, "/") + "/api/dataset/upload"
	httpResp, err := client.PostJSON(ctx, url, req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch httpResp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity:
		var resp handlers.UploadResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &resp, nil
	default:
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("upload failed (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("upload failed with status %d", httpResp.StatusCode)
	}
}

// newUploadClient builds the HTTP client used by upload
func newUploadClient(log *logger.Logger, timeout time.Duration, retries int) *httputil.Client {
	client := httputil.New(log, timeout)
	if retries <= 0 {
		return client.DisableRetry()
	}
	return client.WithRetry(retries, 500*time.Millisecond)
}
