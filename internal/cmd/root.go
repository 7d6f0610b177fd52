package cmd

import (
	"fmt"
	"os"

	"github.com/google/shlex"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"rpl/internal/activitylog"
	"rpl/internal/config"
	"rpl/internal/driver"
	"rpl/internal/editor"
	"rpl/internal/highlight"
	"rpl/internal/history"
	"rpl/internal/session"
	"rpl/internal/termstyle"
)

// NewRootCmd creates the root cobra command with all subcommands.
func NewRootCmd() *cobra.Command {
	var opts runOptions

	rootCmd := &cobra.Command{
		Use:   "rpl <command> [prompt]",
		Short: "Turn a plain console program into a polished REPL",
		Long: `rpl runs a line-oriented interactive program under a pseudo-terminal,
waits for its prompt, and collects your input through an editor with
persistent history, autosuggestion, syntax highlighting, and multi-line
entry.

  rpl R "> "                       Wrap the R console
  rpl "psql mydb" "=> " -s sql -m  Wrap psql with SQL highlighting
  rpl ipython 'In \[\d+\]: ' --regex -s python

The prompt may come from a profile in ~/.config/rpl/config.yaml instead
of the command line. Inside a session: F4 toggles Emacs/Vi editing,
Alt-Enter submits a multi-line entry, Ctrl-D or the literal line "exit"
ends the session.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.command = args[0]
			if len(args) > 1 {
				opts.prompt = args[1]
				opts.promptSet = true
			}
			markChanged(cmd, &opts)
			return runSession(cmd, opts)
		},
	}

	rootCmd.Flags().BoolVarP(&opts.multiline, "multiline", "m", false, "Multi-line entry (Alt-Enter submits)")
	rootCmd.Flags().StringVarP(&opts.lexer, "syntax-lexer", "s", "perl", "Syntax highlighting grammar name")
	rootCmd.Flags().StringVarP(&opts.historyFile, "cmd-history-file", "c", "", "Command history file (default ~/.local/share/rpl/history)")
	rootCmd.Flags().StringVarP(&opts.workingDir, "working-dir", "w", "", "Working directory for the target")
	rootCmd.Flags().BoolVar(&opts.regex, "regex", false, "Treat the prompt as a regular expression")
	rootCmd.Flags().BoolVar(&opts.vi, "vi", false, "Start in Vi editing mode")
	rootCmd.Flags().StringVar(&opts.theme, "theme", "", "Highlight style (default suits the terminal background)")

	rootCmd.AddCommand(
		newHistoryCmd(),
		newLexersCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// runOptions collects the root command's inputs before config defaults
// are folded in.
type runOptions struct {
	command   string
	prompt    string
	promptSet bool

	multiline   bool
	lexer       string
	historyFile string
	workingDir  string
	regex       bool
	vi          bool
	theme       string

	multilineSet bool
	lexerSet     bool
	regexSet     bool
}

func markChanged(cmd *cobra.Command, opts *runOptions) {
	opts.multilineSet = cmd.Flags().Changed("multiline")
	opts.lexerSet = cmd.Flags().Changed("syntax-lexer")
	opts.regexSet = cmd.Flags().Changed("regex")
}

// applyConfig folds the config file's globals and the matching profile
// into opts. Explicit flags and arguments always win.
func applyConfig(opts runOptions, cfg *config.Config) (runOptions, error) {
	if p := cfg.ProfileFor(opts.command); p != nil {
		if !opts.promptSet && p.Prompt != "" {
			opts.prompt = p.Prompt
			opts.promptSet = true
			if !opts.regexSet {
				opts.regex = p.Regex
			}
		}
		if !opts.lexerSet && p.Lexer != "" {
			opts.lexer = p.Lexer
		}
		if !opts.multilineSet && p.Multiline != nil {
			opts.multiline = *p.Multiline
		}
	}
	if opts.historyFile == "" {
		opts.historyFile = cfg.HistoryFile
	}
	if opts.historyFile == "" {
		opts.historyFile = config.DefaultHistoryPath()
	}
	opts.historyFile = config.ExpandHome(opts.historyFile)
	if opts.theme == "" {
		opts.theme = cfg.Theme
	}
	if !opts.promptSet {
		return opts, fmt.Errorf("no prompt given for %q: pass it as the second argument or add a profile to %s", opts.command, config.Path())
	}
	return opts, nil
}

func runSession(cmd *cobra.Command, opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts, err = applyConfig(opts, cfg)
	if err != nil {
		return err
	}

	pattern := driver.Literal(opts.prompt)
	if opts.regex {
		pattern, err = driver.Regexp(opts.prompt)
		if err != nil {
			return err
		}
	}

	argv, err := shlex.Split(opts.command)
	if err != nil {
		return fmt.Errorf("parse command %q: %w", opts.command, err)
	}

	theme := opts.theme
	if theme == "" {
		theme = highlight.DefaultTheme(termenv.HasDarkBackground())
	}
	tokenize, known := highlight.Resolve(opts.lexer, theme)
	if !known {
		fmt.Fprintln(cmd.ErrOrStderr(), termstyle.Yellow(fmt.Sprintf("warning: unknown grammar %q, highlighting disabled", opts.lexer)))
	}

	store, err := history.Open(opts.historyFile)
	if err != nil {
		return err
	}
	defer store.Close()

	target, err := driver.Spawn(argv, opts.workingDir)
	if err != nil {
		return err
	}

	mode := editor.ModeEmacs
	if opts.vi {
		mode = editor.ModeVi
	}
	sess := session.New(pattern, target, nil)
	log := activitylog.New(os.Getenv("RPL_ACTIVITY_LOG"), sess.ID)
	defer log.Close()

	ed := &editor.Editor{
		Prompt:    opts.prompt,
		Multiline: opts.multiline,
		Mode:      mode,
		Tokenize:  tokenize,
		History:   store,
		OnHistoryError: func(err error) {
			log.HistoryError(err.Error())
			fmt.Fprintln(cmd.ErrOrStderr(), termstyle.Yellow("warning: history not saved: "+err.Error()))
		},
	}
	sess.Editor = ed
	sess.Log = log

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s %s\n",
		termstyle.Bold("rpl:"), "enhancing "+opts.command,
		termstyle.Dim("history:"), termstyle.Dim(store.Path()))
	log.SessionStart(opts.command, opts.prompt)

	return sess.Run()
}
