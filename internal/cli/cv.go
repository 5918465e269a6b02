package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
	"github.com/spf13/cobra"
)

var cvConversationID string

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "CV analysis",
	Long: `Upload a CV for structured extraction, or inspect the analysis
attached to a conversation.

Examples:
  enterviu cv upload resume.pdf
  enterviu cv upload resume.pdf --conversation 42
  enterviu cv metadata 42`,
}

var cvUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a CV for analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVUpload,
}

var cvMetadataCmd = &cobra.Command{
	Use:   "metadata <conversation-id>",
	Short: "Show the CV analysis attached to a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVMetadata,
}

func init() {
	cvUploadCmd.Flags().StringVarP(&cvConversationID, "conversation", "c", "", "associate with a conversation")

	cvCmd.AddCommand(cvUploadCmd)
	cvCmd.AddCommand(cvMetadataCmd)
}

// cvDoneMsg carries the upload outcome into the spinner model.
type cvDoneMsg struct {
	result models.CVAnalysisResult
	err    error
}

// cvModel shows a spinner while the long-running analysis call is in
// flight.
type cvModel struct {
	spinner  spinner.Model
	fileName string
	upload   tea.Cmd
	result   models.CVAnalysisResult
	err      error
	done     bool
	canceled bool
}

func newCVModel(fileName string, upload tea.Cmd) cvModel {
	return cvModel{
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		fileName: fileName,
		upload:   upload,
	}
}

func (m cvModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.upload)
}

func (m cvModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.canceled = true
			return m, tea.Quit
		}

	case cvDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m cvModel) View() tea.View {
	if m.done || m.canceled {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s Analyzing %s (this can take a couple of minutes)...\n", m.spinner.View(), m.fileName))
}

func runCVUpload(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upload := func() tea.Msg {
		result, err := restClient.UploadCV(ctx, filepath.Base(path), f, cvConversationID)
		return cvDoneMsg{result: result, err: err}
	}

	p := tea.NewProgram(newCVModel(filepath.Base(path), upload))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(cvModel)
	if !ok || m.canceled {
		return fmt.Errorf("upload canceled")
	}
	if m.err != nil {
		return fmt.Errorf("upload cv: %w", m.err)
	}

	printCVResult(m.result)
	return nil
}

func printCVResult(r models.CVAnalysisResult) {
	fmt.Printf("CV analysis for %s\n\n", r.PersonalInfo.FullName)
	if r.PersonalInfo.Email != "" {
		fmt.Printf("  Email:      %s\n", r.PersonalInfo.Email)
	}
	fmt.Printf("  Skills:     %d\n", r.SkillsCount)
	fmt.Printf("  Experience: %d position(s)\n", len(r.Experience))
	fmt.Printf("  Education:  %d entry(ies)\n", len(r.Education))
	fmt.Printf("  Projects:   %d\n", len(r.Projects))
	if len(r.Keywords) > 0 {
		fmt.Printf("  Keywords:   %v\n", r.Keywords)
	}
	if r.CVSummary != "" {
		fmt.Printf("\n%s\n", r.CVSummary)
	}
	fmt.Printf("\nTokens: %d in / %d out ($%.4f)\n",
		r.TokenUsage.InputTokens, r.TokenUsage.OutputTokens, r.TokenUsage.CostUSD)
}

func runCVMetadata(cmd *cobra.Command, args []string) error {
	meta, err := restClient.GetCVMetadata(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("fetch cv metadata: %w", err)
	}
	if meta == nil {
		fmt.Println("No CV uploaded in this conversation.")
		return nil
	}

	fmt.Printf("File:    %s (%s)\n", meta.FileName, meta.FileID)
	fmt.Printf("Skills:  %d\n", meta.SkillsCount)
	if meta.CVSummary != "" {
		fmt.Printf("\n%s\n", meta.CVSummary)
	}
	return nil
}
