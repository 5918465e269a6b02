package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	filesConversationID string
	filesLimit          int
	filesExpires        int
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage uploaded files",
	Long: `Upload, list, and delete files, and mint expiring download links.

Examples:
  enterviu files upload resume.pdf notes.txt --conversation 42
  enterviu files list
  enterviu files list --conversation 42
  enterviu files download-url f123 --expires 600
  enterviu files delete f123`,
	RunE: runFilesList,
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilesUpload,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded files",
	RunE:  runFilesList,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an uploaded file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDelete,
}

var filesDownloadURLCmd = &cobra.Command{
	Use:   "download-url <id>",
	Short: "Mint an expiring download link",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDownloadURL,
}

func init() {
	filesCmd.Flags().StringVarP(&filesConversationID, "conversation", "c", "", "scope to a conversation")
	filesCmd.Flags().IntVarP(&filesLimit, "limit", "n", 50, "max results")
	filesListCmd.Flags().StringVarP(&filesConversationID, "conversation", "c", "", "scope to a conversation")
	filesListCmd.Flags().IntVarP(&filesLimit, "limit", "n", 50, "max results")

	filesUploadCmd.Flags().StringVarP(&filesConversationID, "conversation", "c", "", "associate with a conversation")

	filesDownloadURLCmd.Flags().IntVar(&filesExpires, "expires", 300, "link lifetime in seconds")

	filesCmd.AddCommand(filesUploadCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesDeleteCmd)
	filesCmd.AddCommand(filesDownloadURLCmd)
}

func runFilesUpload(cmd *cobra.Command, args []string) error {
	uploads := make([]api.FileUpload, 0, len(args))
	handles := make([]*os.File, 0, len(args))
	defer func() {
		for _, f := range handles {
			f.Close()
		}
	}()

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		handles = append(handles, f)
		uploads = append(uploads, api.FileUpload{Name: filepath.Base(path), Reader: f})
	}

	result, err := restClient.UploadFiles(context.Background(), uploads, filesConversationID)
	if err != nil {
		return fmt.Errorf("upload files: %w", err)
	}

	for _, f := range result.UploadedFiles {
		fmt.Printf("Uploaded %s as %s (%d bytes)\n", f.OriginalName, f.ID, f.Size)
	}
	for _, f := range result.FailedFiles {
		fmt.Fprintf(os.Stderr, "Rejected %s: %s\n", f.Name, f.Reason)
	}
	if len(result.FailedFiles) > 0 {
		return fmt.Errorf("%d file(s) rejected", len(result.FailedFiles))
	}
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var (
		page api.Page[models.UploadedFile]
		err  error
	)
	if filesConversationID != "" {
		page, err = restClient.GetConversationFiles(ctx, filesConversationID)
	} else {
		page, err = restClient.GetFiles(ctx, api.ListFilesOptions{PageSize: filesLimit})
	}
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	if len(page.Items) == 0 {
		fmt.Println("No files found.")
		return nil
	}

	fmt.Printf("Files (%d):\n\n", page.Total)
	for _, f := range page.Items {
		fmt.Printf("  %s  %-30s  %8d bytes  %s  %s\n",
			f.ID, f.OriginalName, f.Size, f.Type, f.UploadDate.Format("2006-01-02"))
	}
	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	if err := restClient.DeleteFile(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	fmt.Printf("Deleted file %s\n", args[0])
	return nil
}

func runFilesDownloadURL(cmd *cobra.Command, args []string) error {
	link, err := restClient.GetFileDownloadURL(context.Background(), args[0], filesExpires)
	if err != nil {
		return fmt.Errorf("mint download link: %w", err)
	}
	fmt.Printf("%s\n(expires in %ds)\n", link.DownloadURL, link.ExpiresIn)
	return nil
}
