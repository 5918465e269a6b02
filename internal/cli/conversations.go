package cli

import (
	"context"
	"fmt"

	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/spf13/cobra"
)

var (
	convSearch         string
	convLimit          int
	convInitialMessage string
	convSystemPrompt   string
	convShowLimit      int
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "Manage chat conversations",
	Long: `List, create, rename, show, and delete conversations.

Examples:
  enterviu conversations
  enterviu conversations create "Interview prep" --system-prompt "Be concise"
  enterviu conversations rename 42 "Mock interviews"
  enterviu conversations show 42
  enterviu conversations delete 42`,
	RunE: runConversationsList,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	RunE:  runConversationsList,
}

var conversationsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsCreate,
}

var conversationsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a conversation",
	Args:  cobra.ExactArgs(2),
	RunE:  runConversationsRename,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a conversation's recent messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsDelete,
}

func init() {
	conversationsCmd.Flags().StringVarP(&convSearch, "search", "s", "", "filter by name")
	conversationsCmd.Flags().IntVarP(&convLimit, "limit", "n", 50, "max results")
	conversationsListCmd.Flags().StringVarP(&convSearch, "search", "s", "", "filter by name")
	conversationsListCmd.Flags().IntVarP(&convLimit, "limit", "n", 50, "max results")

	conversationsCreateCmd.Flags().StringVarP(&convInitialMessage, "message", "m", "", "send an initial message")
	conversationsCreateCmd.Flags().StringVar(&convSystemPrompt, "system-prompt", "", "system prompt override")

	conversationsShowCmd.Flags().IntVarP(&convShowLimit, "limit", "n", 30, "max messages")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsCreateCmd)
	conversationsCmd.AddCommand(conversationsRenameCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsDeleteCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	page, err := restClient.GetConversations(context.Background(), api.ListConversationsOptions{
		Search:   convSearch,
		PageSize: convLimit,
	})
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if len(page.Items) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	fmt.Printf("Conversations (%d):\n\n", page.Total)
	for _, c := range page.Items {
		fmt.Printf("  %s  %-30s  %d messages  last %s\n",
			c.ID, c.Name, c.MessageCount, c.LastActivity.Format("2006-01-02 15:04"))
	}
	return nil
}

func runConversationsCreate(cmd *cobra.Command, args []string) error {
	req := api.CreateConversationRequest{Name: args[0]}
	if convInitialMessage != "" {
		req.InitialMessage = &convInitialMessage
	}
	if convSystemPrompt != "" {
		req.SystemPrompt = &convSystemPrompt
	}

	conv, err := restClient.CreateConversation(context.Background(), req)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	fmt.Printf("Created conversation %s (%s)\n", conv.ID, conv.Name)
	return nil
}

func runConversationsRename(cmd *cobra.Command, args []string) error {
	name := args[1]
	conv, err := restClient.UpdateConversation(context.Background(), args[0], api.UpdateConversationRequest{Name: &name})
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	fmt.Printf("Renamed conversation %s to %s\n", conv.ID, conv.Name)
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	page, err := restClient.GetConversationMessages(ctx, args[0], api.MessageHistoryOptions{Limit: convShowLimit})
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	if len(page.Items) == 0 {
		fmt.Println("No messages yet.")
		return nil
	}

	for _, m := range page.Items {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format("15:04"), m.Role, m.Content)
		if len(m.SurveyData) > 0 {
			fmt.Printf("         (survey with %d question(s))\n", len(m.SurveyData))
		}
	}
	return nil
}

func runConversationsDelete(cmd *cobra.Command, args []string) error {
	if err := restClient.DeleteConversation(context.Background(), args[0]); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	fmt.Printf("Deleted conversation %s\n", args[0])
	return nil
}
