package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/luongnguyenminhan/enterviu-go/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginDirect bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with Google",
	Long: `Log in to EnterViu with your Google account.

The default flow opens a browser; once the provider flow completes, the
backend's callback page hands the tokens to a local listener and the CLI
verifies them by fetching your profile.

Use --direct on machines without a browser: paste the authorization code
shown by the provider instead.

Examples:
  enterviu login
  enterviu login --direct`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().BoolVar(&loginDirect, "direct", false, "paste an authorization code instead of using a browser")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	flow := auth.NewFlow(restClient, tokenSource, logger)

	if loginDirect {
		code, err := promptSecret("Authorization code: ")
		if err != nil {
			return fmt.Errorf("read code: %w", err)
		}
		user, err := flow.DirectLogin(ctx, code)
		if err != nil {
			return fmt.Errorf("direct login: %w", err)
		}
		fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
		return nil
	}

	user, err := flow.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

// promptSecret reads a line without echoing it. Codes and keys should not
// land in shell history or scrollback.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear stored credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flow := auth.NewFlow(restClient, tokenSource, logger)
		if err := flow.Logout(context.Background()); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := restClient.GetMe(context.Background())
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		fmt.Printf("%s <%s>\n", user.Name, user.Email)
		if user.Role != "" {
			fmt.Printf("Role: %s\n", user.Role)
		}
		return nil
	},
}
