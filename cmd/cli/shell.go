package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const historyLimit = 1000

// shell runs commands against one long-lived session.
type shell struct {
	app         *app
	history     []string
	historyFile string
	in          io.Reader
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := &shell{
				app:         a,
				historyFile: getHistoryPath(),
				in:          cmd.InOrStdin(),
			}
			sh.loadHistory()
			defer sh.saveHistory()

			printBanner()
			sh.run()
			return nil
		},
	}
}

func printBanner() {
	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("CommitORM v%s", Version)).
		WithPadding(1).
		Println("Journaled ORM session")
	pterm.Println("Type .help for commands, .quit to exit")
	pterm.Println()
}

func (sh *shell) run() {
	reader := bufio.NewReader(sh.in)

	for {
		fmt.Print(pterm.FgCyan.Sprint("commitorm> "))

		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			pterm.Println()
			pterm.Success.Println("Goodbye!")
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, ".") {
			if !sh.handleCommand(input) {
				return
			}
			continue
		}

		sh.addToHistory(input)
		if err := sh.execute(input); err != nil {
			pterm.Error.Println(err)
		}
	}
}

// execute runs one line as a commitorm command. A new command tree is
// built per line so flags never leak between lines.
func (sh *shell) execute(line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "shell" {
		return fmt.Errorf("already in a shell")
	}

	root := newRootCmd(sh.app)
	root.SetArgs(args)
	return root.Execute()
}

// handleCommand runs a dot command and reports whether the shell continues.
func (sh *shell) handleCommand(input string) bool {
	parts := strings.Fields(strings.ToLower(input))

	switch parts[0] {
	case ".quit", ".exit", ".q":
		pterm.Success.Println("Goodbye!")
		return false
	case ".help", ".h", ".?":
		sh.printHelp()
	case ".history":
		sh.printHistory()
	case ".version":
		pterm.Printfln("commitorm %s", Version)
	default:
		pterm.Error.Printfln("Unknown command: %s", parts[0])
	}
	return true
}

func (sh *shell) printHelp() {
	pterm.Println("Commands run against the open session, e.g.:")
	pterm.Println("  apply schema.json")
	pterm.Println("  insert users id=1 name=Alice")
	pterm.Println("  select users --where \"id == 1\"")
	pterm.Println("  commit | rollback | pending | log")
	pterm.Println()
	pterm.Println("Dot commands: .help .history .version .quit")
}

func (sh *shell) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(sh.history) > 0 && sh.history[len(sh.history)-1] == cmd {
		return
	}
	sh.history = append(sh.history, cmd)

	if len(sh.history) > historyLimit {
		sh.history = sh.history[len(sh.history)-historyLimit:]
	}
}

func (sh *shell) printHistory() {
	if len(sh.history) == 0 {
		pterm.Println("No command history")
		return
	}

	start := 0
	if len(sh.history) > 20 {
		start = len(sh.history) - 20
	}

	for i := start; i < len(sh.history); i++ {
		pterm.Printfln("  %3d  %s", i+1, sh.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".commitorm_history")
}

func (sh *shell) loadHistory() {
	if sh.historyFile == "" {
		return
	}

	file, err := os.Open(sh.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		sh.history = append(sh.history, scanner.Text())
	}
}

func (sh *shell) saveHistory() {
	if sh.historyFile == "" {
		return
	}

	file, err := os.Create(sh.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(sh.history) > historyLimit {
		start = len(sh.history) - historyLimit
	}

	for i := start; i < len(sh.history); i++ {
		_, _ = file.WriteString(sh.history[i] + "\n")
	}
}
