package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"telpy/internal/app"
	"telpy/internal/session"
	"telpy/internal/store"
)

type connectOptions struct {
	username string
	password string
	commands []string
	attempts int
}

func newConnectCmd(flags *globalFlags) *cobra.Command {
	opts := &connectOptions{}

	cmd := &cobra.Command{
		Use:   "connect [host[:port]]",
		Short: "Log in to a Telnet host and run commands",
		Long: "Connects to a Telnet host, refuses every option it offers, logs in and then either runs the\n" +
			"commands given with --exec or reads commands from standard input, one per line.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Boot(flags.cfgFile, flags.quiet)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			return runConnect(ctx, a, target, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.username, "user", "u", "", "username (default from config)")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password (default from config, else prompted)")
	cmd.Flags().StringArrayVarP(&opts.commands, "exec", "e", nil, "command to run after login; repeatable")
	cmd.Flags().IntVar(&opts.attempts, "attempts", 1, "login attempts before giving up")

	return cmd
}

func runConnect(ctx context.Context, a *app.App, target string, opts *connectOptions, in io.Reader, out io.Writer) error {
	addr, err := resolveAddr(target, a.Config.Target.Host, a.Config.Target.Port)
	if err != nil {
		return err
	}

	input := bufio.NewReader(in)
	tty := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tty = int(f.Fd())
	}
	creds := session.Credentials{
		Username: firstNonEmpty(opts.username, a.Config.Target.Username),
		Password: firstNonEmpty(opts.password, a.Config.Target.Password),
	}
	if creds.Username == "" {
		if creds.Username, err = prompt(input, out, "Username: ", -1); err != nil {
			return err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = prompt(input, out, "Password: ", tty); err != nil {
			return err
		}
	}

	logger := a.Logger.With("host", addr)
	logger.Info("Connecting", "timeout", a.Config.Target.DialTimeout)

	conn, err := net.DialTimeout("tcp", addr, a.Config.Target.DialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	sess, err := session.New(conn, creds, a.Config.ToSession(), logger)
	if err != nil {
		conn.Close()
		return err
	}
	defer sess.Close()

	attempts := max(opts.attempts, 1)
	for i := 1; ; i++ {
		started := time.Now()
		outcome, err := sess.Login(ctx)
		record(a, addr, creds.Username, outcome, len(sess.Options()), err, time.Since(started))

		if err == nil {
			break
		}
		if !errors.Is(err, session.ErrLoginFailure) || i >= attempts {
			return err
		}

		fmt.Fprintln(out, "Login incorrect")
		if creds.Password, err = prompt(input, out, "Password: ", tty); err != nil {
			return err
		}
		if err := sess.SetCredentials(creds); err != nil {
			return err
		}
	}

	if len(opts.commands) > 0 {
		for _, c := range opts.commands {
			if err := runOne(ctx, sess, c, out); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			_, err := sess.Write([]byte(line + a.Config.Session.LineTerminator))
			return err
		}
		if err := runOne(ctx, sess, line, out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func runOne(ctx context.Context, sess *session.Session, command string, out io.Writer) error {
	output, err := sess.RunCommand(ctx, command)
	if _, werr := out.Write(output); werr != nil {
		return werr
	}
	return err
}

func record(a *app.App, host, username string, outcome session.Outcome, options int, err error, took time.Duration) {
	attempt := &store.Attempt{
		Host:     host,
		Username: username,
		Outcome:  outcome.String(),
		Options:  options,
		Duration: took,
	}
	if err != nil {
		attempt.Error = err.Error()
	}
	if err := a.Store.RecordAttempt(attempt); err != nil {
		a.Logger.Error("Failed to record login attempt", "err", err)
	}
}

// resolveAddr builds host:port from the argument, falling back to the
// configured target. Port 23 is assumed when none is given.
func resolveAddr(target, defaultHost string, defaultPort int) (string, error) {
	if target == "" {
		target = defaultHost
	}
	if target == "" {
		return "", errors.New("no host given and target.host is not configured")
	}
	if defaultPort == 0 {
		defaultPort = 23
	}

	host, port, err := net.SplitHostPort(target)
	if err != nil {
		// No port in the target.
		return net.JoinHostPort(strings.Trim(target, "[]"), strconv.Itoa(defaultPort)), nil
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("invalid port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}

// prompt asks for a value on out and reads it from in. When tty is a
// terminal descriptor the value is read from it without echo.
func prompt(in *bufio.Reader, out io.Writer, label string, tty int) (string, error) {
	fmt.Fprint(out, label)

	if tty >= 0 {
		b, err := term.ReadPassword(tty)
		fmt.Fprintln(out)
		return string(b), err
	}

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
