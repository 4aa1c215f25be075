package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/bloom/cli/keystore"
)

func (a *App) newKeysCommand() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API tokens",
		Long:  `Manage API tokens. Tokens are stored encrypted on disk and are never printed.`,
	}

	setCmd := &cobra.Command{
		Use:   "set [name]",
		Short: "Store an API token",
		Long:  `Store an API token under a name (default "default"). The token is prompted without echo.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runKeysSet,
	}

	showCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a stored token, masked",
		Long:  `Show a stored token with most characters masked. The full value is never printed; use the environment variable to pass a token to other tools.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runKeysShow,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored token names",
		Long:  `List all stored token names. Only names are shown, never token values.`,
		RunE:  a.runKeysList,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored token",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runKeysDelete,
	}

	keysCmd.AddCommand(setCmd)
	keysCmd.AddCommand(showCmd)
	keysCmd.AddCommand(listCmd)
	keysCmd.AddCommand(deleteCmd)

	return keysCmd
}

func keyName(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return defaultKeyName
}

func (a *App) runKeysSet(cmd *cobra.Command, args []string) error {
	name := keyName(args)

	fmt.Fprintf(a.stdout, "Enter API token for %q: ", name)

	token, err := a.readSecret()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	if token == "" {
		return fmt.Errorf("API token cannot be empty")
	}

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Set(name, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Fprintf(a.stdout, "API token %q stored successfully.\n", name)
	return nil
}

// readSecret reads a line without echo when stdin is a terminal, falling
// back to a plain read for piped input.
func (a *App) readSecret() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tokenBytes, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(a.stdout) // Newline after hidden input
		return string(tokenBytes), nil
	}

	reader := bufio.NewReader(a.stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) runKeysShow(cmd *cobra.Command, args []string) error {
	name := keyName(args)

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	token, err := ks.Get(name)
	if err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no token stored for %q", name)
		}
		return fmt.Errorf("failed to read token: %w", err)
	}

	fmt.Fprintf(a.stdout, "%s: %s\n", name, maskToken(token))
	return nil
}

// maskToken keeps just enough of the token to recognize it.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func (a *App) runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	names, err := ks.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No API tokens stored.")
		return nil
	}

	fmt.Fprintln(a.stdout, "Stored tokens:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}

	return nil
}

func (a *App) runKeysDelete(cmd *cobra.Command, args []string) error {
	name := keyName(args)

	ks, err := a.newKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Delete(name); err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no token stored for %q", name)
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}

	fmt.Fprintf(a.stdout, "API token %q deleted.\n", name)
	return nil
}
