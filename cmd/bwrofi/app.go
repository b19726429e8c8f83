package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zach-source/bwrofi/internal/action"
	"github.com/zach-source/bwrofi/internal/config"
	"github.com/zach-source/bwrofi/internal/controller"
	"github.com/zach-source/bwrofi/internal/executable"
	"github.com/zach-source/bwrofi/internal/itemcache"
	"github.com/zach-source/bwrofi/internal/keyring"
	"github.com/zach-source/bwrofi/internal/logging"
	"github.com/zach-source/bwrofi/internal/menu"
	"github.com/zach-source/bwrofi/internal/proc"
	"github.com/zach-source/bwrofi/internal/secret"
	"github.com/zach-source/bwrofi/internal/session"
	"github.com/zach-source/bwrofi/internal/util"
	"github.com/zach-source/bwrofi/internal/vault"
)

// errReported means the failure was already shown to the user.
var errReported = errors.New("reported")

const (
	bwBinary   = "bw"
	rofiBinary = "rofi"
)

// app holds what every subcommand shares. It is filled by setup.
type app struct {
	cfg      config.Config
	logger   *log.Logger
	roller   *logging.Roller
	runner   proc.Runner
	resolver *executable.Resolver
	bw       *vault.CLI
	sessions *session.Store

	verbose    bool
	configPath string
	noConfig   bool
}

func newRootCmd() *cobra.Command {
	a := &app{runner: proc.Exec{}}

	cmd := &cobra.Command{
		Use:   "bwrofi [flags] [-- rofi args...]",
		Short: "Bitwarden launcher for rofi",
		Long: `bwrofi lists the items of a Bitwarden vault in rofi and copies or
types the selected credentials. Arguments after -- are passed to rofi.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
		RunE:              a.runMenu,
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().BoolVar(&a.noConfig, "no-config", false, "Ignore the config file")
	cmd.PersistentFlags().Int("timeout", session.DefaultAutoLock, "Session auto-lock in seconds (0 locks every run, -1 keeps the key in memory only)")
	cmd.PersistentFlags().String("keyring", config.KeyringKernel, "Session registry backend (kernel or keyctl)")
	cmd.Flags().Int("clear", 5, "Seconds before the clipboard is cleared (-1 never clears)")
	cmd.Flags().String("enter", "copy", "Action of the accept key (copy, password, all, totp)")
	cmd.Flags().Int("cache-days", 1, "Days the item cache stays valid (0 disables it)")
	cmd.Flags().String("default-mode", "names", "First window (names, uris, logins, folders)")
	cmd.Flags().Bool("hide-mesg", false, "Hide the key binding banner")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "lock",
			Short: "Forget the session key and lock the vault",
			Args:  cobra.NoArgs,
			RunE:  a.runLock,
		},
		&cobra.Command{
			Use:   "unlock",
			Short: "Unlock the vault from a terminal and keep the session",
			Args:  cobra.NoArgs,
			RunE:  a.runUnlock,
		},
		&cobra.Command{
			Use:               "version",
			Short:             "Print version",
			Args:              cobra.NoArgs,
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "bwrofi %s\n", resolveVersion())
			},
		},
	)
	return cmd
}

// setup loads the configuration and builds the logger and session store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// Only the menu runs without a terminal, so only it reports in rofi.
	interactive := !cmd.HasParent()

	cfg, res, err := config.Load(cmd, config.Options{Path: a.configPath, NoConfig: a.noConfig})
	if err != nil {
		if interactive {
			a.report(cmd.Context(), fmt.Sprintf("Invalid configuration: %v", err))
		}
		return err
	}
	a.cfg = cfg

	opts := logging.Options{Verbose: a.verbose}
	if dir, err := util.DataDir(); err == nil {
		if r, err := logging.NewRoller(logging.DefaultRollerConfig(dir)); err == nil {
			a.roller = r
			opts.File = r
		}
	}
	a.logger = logging.New(opts)
	if res.Created {
		a.logger.Info("wrote default config", "path", config.DefaultPath())
	}
	if a.roller != nil {
		a.logger.Debug("debug log", "path", a.roller.CurrentPath())
	}

	a.resolver = executable.NewResolver(a.logger)
	if !a.resolver.Installed(bwBinary) {
		err := fmt.Errorf("%w: %s (install the Bitwarden CLI)", executable.ErrNoExecutable, bwBinary)
		if interactive {
			a.report(cmd.Context(), err.Error())
		}
		return err
	}
	a.bw = vault.NewCLI(a.runner)

	var registry keyring.Registry = keyring.NewKernel()
	if cfg.Security.Keyring == config.KeyringKeyctl {
		registry = keyring.NewKeyctl(a.runner)
	}
	a.sessions = session.NewStore(session.Config{
		AutoLock: session.Policy(cfg.Security.Timeout),
		SlotName: keyring.SlotName,
	}, registry, a.bw, a.logger)
	a.logger.Debug("session policy", "policy", a.sessions.Policy(), "keyring", cfg.Security.Keyring)
	return nil
}

func (a *app) close() {
	if a.roller != nil {
		a.roller.Close()
	}
}

// report shows msg in a rofi error dialog, falling back to stderr.
func (a *app) report(ctx context.Context, msg string) {
	r := menu.NewRofi(a.runner, nil, menu.Options{Binary: rofiBinary}, a.logger)
	if err := r.ShowError(ctx, msg); err != nil {
		fmt.Fprintln(os.Stderr, "bwrofi:", msg)
	}
}

// rofiArgs returns the arguments given after --.
func rofiArgs(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("unexpected arguments %q (rofi arguments go after --)", args)
		}
		return nil, nil
	}
	if dash > 0 {
		return nil, fmt.Errorf("unexpected arguments %q before --", args[:dash])
	}
	return args[dash:], nil
}

func (a *app) runMenu(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	extra, err := rofiArgs(cmd, args)
	if err != nil {
		return err
	}

	ctrl, err := a.controller(extra)
	if err != nil {
		a.report(ctx, err.Error())
		return errReported
	}

	out := ctrl.Run(ctx)
	a.logger.Debug("finished", "status", out.Status, "action", out.Action, "item", out.Item)
	if out.Status == controller.StatusFailed {
		a.logger.Error("bwrofi failed", "err", out.Err)
		return errReported
	}
	return nil
}

// controller wires the menu, vault and actions for one run.
func (a *app) controller(rofiExtra []string) (*controller.Controller, error) {
	cfg := a.cfg

	if !a.resolver.Installed(rofiBinary) {
		return nil, fmt.Errorf("%w: %s", executable.ErrNoExecutable, rofiBinary)
	}

	bindings, err := cfg.Bindings()
	if err != nil {
		return nil, err
	}
	groupFields, err := controller.ParseFields(cfg.Interface.GroupFields)
	if err != nil {
		return nil, fmt.Errorf("interface.group_fields: %w", err)
	}

	var cache vault.Cache
	if dir, err := util.CacheDir(); err != nil {
		a.logger.Warn("no cache directory, item cache disabled", "err", err)
	} else if c, err := itemcache.New(dir, cfg.Security.CacheDays); err != nil {
		a.logger.Warn("item cache unusable, ignoring it", "err", err)
	} else if c.Enabled() {
		cache = c
	}

	clip, err := action.NewClipboard(a.runner, a.resolver, a.logger)
	if err != nil {
		return nil, err
	}

	deps := controller.Deps{
		Menu: menu.NewRofi(a.runner, bindings, menu.Options{
			Binary:    rofiBinary,
			ExtraArgs: rofiExtra,
			HideHints: cfg.Interface.HideMesg,
		}, a.logger),
		Sessions:  a.sessions,
		Vault:     vault.New(a.bw, cache, a.logger),
		Clipboard: clip,
		Focus:     action.NewFocus(a.runner, a.resolver, cfg.Autotype.SelectWindow, cfg.Autotype.SlopArgs, a.logger),
		Notifier:  action.NewNotifier(a.runner, cfg.Notify.Icons, a.logger),
	}
	// Typing is optional; copy actions still work without a typing tool.
	if typer, err := action.NewTyper(a.runner, a.resolver, a.logger); err != nil {
		a.logger.Warn("typing disabled", "err", err)
	} else {
		deps.Typer = typer
	}

	opts := controller.DefaultOptions()
	opts.DefaultAction = cfg.EnterAction()
	opts.InitialMode = cfg.DefaultMode()
	opts.Prompt = cfg.Interface.Prompt
	opts.GroupFields = groupFields
	opts.URIIgnore = cfg.Interface.URIIgnore
	opts.ClearAfter = cfg.ClearAfter()
	opts.StartDelay = cfg.Autotype.StartDelay
	opts.KeyDelay = cfg.Autotype.KeyDelay

	return controller.New(deps, opts, a.logger), nil
}

func (a *app) runLock(cmd *cobra.Command, _ []string) error {
	if err := a.sessions.Lock(cmd.Context()); err != nil {
		return err
	}
	a.logger.Info("vault locked")
	return nil
}

func (a *app) runUnlock(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if !a.sessions.Policy().Persists() {
		return fmt.Errorf("security.timeout is %s; the session would not outlive this command", a.sessions.Policy())
	}

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	defer password.Zero()

	if err := a.sessions.Unlock(ctx, password); err != nil {
		return err
	}
	a.logger.Info("vault unlocked", "auto-lock", a.sessions.Policy())
	return nil
}

func readPassword(cmd *cobra.Command) (*secret.Secret, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("unlock needs a terminal; run bwrofi without a subcommand to be asked in rofi")
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Master Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	defer clear(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty password")
	}
	return secret.New(string(raw)), nil
}

func resolveVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
