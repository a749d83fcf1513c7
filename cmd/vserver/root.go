package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vitalvas/vserver/config"
	"github.com/vitalvas/vserver/logging"
	"github.com/vitalvas/vserver/version"
)

// errRequestFailed is returned by call --fail for a failed result.
var errRequestFailed = errors.New("request failed")

// options holds the persistent flags and the app they build.
type options struct {
	configPath string
	routesPath string
	debug      bool
	noColor    bool

	app *app
}

// newRootCmd creates the root command for vserver.
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: version.Description,
		Long: fmt.Sprintf(`%s - %s

Routes are loaded from a YAML definition file and dispatched in process.
Data written by handlers is persisted between runs.
`, version.AppName, version.Description),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if opts.app == nil {
				return nil
			}
			return opts.app.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to config file")
	flags.StringVarP(&opts.routesPath, "routes", "r", "", "Path to route definition file, overrides the config")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newCallCmd(opts),
		newRoutesCmd(opts),
		newReplCmd(opts),
		newClearCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// init loads the configuration and boots the app.
func (o *options) init(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if o.routesPath != "" {
		cfg.Routes.File = o.routesPath
	}
	if o.debug {
		cfg.Logging.Level = "debug"
	}
	if o.noColor {
		color.NoColor = true
	}

	logger, closer, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := newApp(cfg, logger, closer)
	if err != nil {
		closer.Close()
		return err
	}

	if err := a.boot(); err != nil {
		a.Close()
		return err
	}

	o.app = a
	return nil
}

func newCallCmd(opts *options) *cobra.Command {
	var (
		timeout time.Duration
		fail    bool
	)

	cmd := &cobra.Command{
		Use:   "call METHOD URL [BODY]",
		Short: "Dispatch a single request",
		Long: `Dispatch a single request and print the result.

BODY is JSON text. Use "-" to read it from standard input.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body string
			if len(args) == 3 {
				body = args[2]
				if body == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("failed to read body: %w", err)
					}
					body = string(data)
				}
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res, err := opts.app.router.Dispatch(ctx, args[0], args[1], body)
			if err != nil {
				return err
			}

			newPrinter(cmd.OutOrStdout()).Result(res)

			if fail && !res.OK {
				return fmt.Errorf("%w with status %d", errRequestFailed, res.Status)
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Give up waiting for the response after this long")
	cmd.Flags().BoolVarP(&fail, "fail", "f", false, "Exit with an error when the response is not successful")

	return cmd
}

func newRoutesCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List registered routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrinter(cmd.OutOrStdout())

			switch format {
			case "":
				printRoutes(cmd.OutOrStdout(), opts.app)
				return nil
			case "json":
				data, err := opts.app.document().JSON()
				if err != nil {
					return err
				}
				p.Text(string(data)+"\n", "json")
				return nil
			case "yaml":
				data, err := opts.app.document().YAML()
				if err != nil {
					return err
				}
				p.Text(string(data), "yaml")
				return nil
			default:
				return fmt.Errorf("unknown openapi format %q, want json or yaml", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "openapi", "", "Print an OpenAPI document instead (json or yaml)")

	return cmd
}

func printRoutes(w io.Writer, a *app) {
	for _, route := range a.router.Routes() {
		fmt.Fprintf(w, "%-7s %s\n", route.Method(), route.Template())
	}
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.app.router.ClearData(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "data cleared")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Printing the version needs neither config nor routes.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newReplCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Dispatch requests read line by line",
		Long: `Read requests from standard input, one per line, as

  METHOD URL [BODY]

Lines starting with ":" are commands:

  :routes   list registered routes
  :clear    remove all stored data
  :reload   reload the route definition file
  :quit     exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a := opts.app
			if a.cfg.Routes.Watch {
				go func() {
					if err := a.watch(ctx); err != nil {
						a.logger.Error().Err(err).Msg("route watcher stopped")
					}
				}()
			}

			return runRepl(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runRepl evaluates lines from in until EOF, :quit or ctx is done.
func runRepl(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	p := newPrinter(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			quit, err := replCommand(a, line, out)
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		method, url, body, ok := splitRequestLine(line)
		if !ok {
			fmt.Fprintln(out, "error: want METHOD URL [BODY]")
			continue
		}

		res, err := a.router.Dispatch(ctx, method, url, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "error: %s\n", err)
			continue
		}
		p.Result(res)
	}
}

func replCommand(a *app, line string, out io.Writer) (bool, error) {
	switch line {
	case ":quit", ":q", ":exit":
		return true, nil
	case ":routes":
		printRoutes(out, a)
	case ":clear":
		if err := a.router.ClearData(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "data cleared")
	case ":reload":
		if err := a.boot(); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%d routes loaded\n", a.router.Len())
	default:
		return false, fmt.Errorf("unknown command %s", line)
	}
	return false, nil
}

// splitRequestLine splits "METHOD URL [BODY]". The body is the rest of the
// line, so it may contain spaces.
func splitRequestLine(line string) (method, url, body string, ok bool) {
	method, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	url, body, _ = strings.Cut(strings.TrimSpace(rest), " ")
	if method == "" || url == "" {
		return "", "", "", false
	}
	return method, url, strings.TrimSpace(body), true
}
