package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cubsoftware/cubvault/internal/vault"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

// shellCommands maps each shell command to its help line
var shellCommands = map[string]string{
	"ls":     "ls [category]       list entries",
	"search": "search <query>      search entries",
	"find":   "find <query>        fuzzy search by title, username or URL",
	"show":   "show <id|title>     show an entry, secrets masked",
	"gen":    "gen                 generate a password from the vault settings",
	"stats":  "stats               show vault statistics",
	"lock":   "lock                lock the vault",
	"unlock": "unlock              unlock the vault again",
	"help":   "help                show this help",
	"exit":   "exit                leave the shell",
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session with the vault unlocked",
		Long: `Start an interactive session. The master password is asked once and the
vault stays unlocked until you lock it, leave the shell or the auto-lock
timeout passes without activity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Shell(cmd)
		},
	}
}

// Shell runs the interactive session
func Shell(cmd *cobra.Command) error {
	var autoLocked atomic.Bool
	app, err := openApp(cmd, vault.WithOnLock(func(auto bool) {
		if auto {
			autoLocked.Store(true)
		}
	}))
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if err := app.Unlock(ctx); err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeShell)

	fmt.Fprintln(app.out, "Type 'help' for commands")
	for {
		prompt := "cubvault> "
		if app.Vault.IsLocked() {
			prompt = "cubvault (locked)> "
		}

		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(app.out)
			return nil
		}
		if err != nil {
			return err
		}

		if autoLocked.Swap(false) {
			printWarn(app.errOut, "Vault was locked after inactivity, type 'unlock'")
		}

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		line.AppendHistory(input)

		exit, err := runShellCommand(ctx, app, fields[0], fields[1:])
		if errors.Is(err, vault.ErrLocked) {
			printError(app.errOut, "vault is locked, type 'unlock'")
		} else if err != nil {
			printError(app.errOut, "%s", err)
		}
		if exit {
			return nil
		}
	}
}

func runShellCommand(ctx context.Context, app *App, name string, args []string) (exit bool, err error) {
	w := app.out

	switch name {
	case "ls":
		var entries []vault.PasswordEntry
		if len(args) > 0 {
			entries, err = app.Vault.GetEntriesByCategory(strings.Join(args, " "))
		} else {
			entries, err = app.Vault.GetAllEntries()
		}
		if err == nil {
			printEntries(w, entries)
		}
	case "search", "find":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: %s <query>", name)
		}
		var entries []vault.PasswordEntry
		query := strings.Join(args, " ")
		if name == "find" {
			entries, err = app.Vault.FuzzySearch(query)
		} else {
			entries, err = app.Vault.SearchEntries(query)
		}
		if err == nil {
			printEntries(w, entries)
		}
	case "show":
		if len(args) == 0 {
			return false, errors.New("usage: show <id|title>")
		}
		var e *vault.PasswordEntry
		if e, err = findEntry(app, strings.Join(args, " ")); err == nil {
			printEntry(w, e, false)
		}
	case "gen":
		var pw string
		if pw, err = generatePassword(app); err == nil {
			fmt.Fprintln(w, pw)
		}
	case "stats":
		var stats vault.Statistics
		if stats, err = app.Vault.GetStatistics(); err == nil {
			printStats(w, stats)
		}
	case "lock":
		app.Vault.LockVault()
		printSuccess(w, "Vault locked")
	case "unlock":
		if !app.Vault.IsLocked() {
			fmt.Fprintln(w, "Vault is already unlocked")
			return false, nil
		}
		if err = app.Unlock(ctx); err == nil {
			printSuccess(w, "Vault unlocked")
		}
	case "help":
		printShellHelp(w)
	case "exit", "quit":
		return true, nil
	default:
		err = fmt.Errorf("unknown command %q, type 'help'", name)
	}
	return false, err
}

func printShellHelp(w io.Writer) {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", shellCommands[name])
	}
}

func completeShell(line string) []string {
	var out []string
	for name := range shellCommands {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
