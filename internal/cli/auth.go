package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"expensync/internal/log"
	"expensync/internal/session"
)

type credentialFlags struct {
	username      string
	email         string
	password      string
	passwordStdin bool
}

func (f *credentialFlags) bind(cmd *cobra.Command, withUsername bool) {
	if withUsername {
		cmd.Flags().StringVar(&f.username, "username", "", "Username for the new account")
	}
	cmd.Flags().StringVar(&f.email, "email", "", "Account email")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from the first line of stdin")
}

func (f *credentialFlags) credentials(cmd *cobra.Command) (session.Credentials, error) {
	password := f.password
	if f.passwordStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return session.Credentials{}, fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	return session.Credentials{Username: f.username, Email: f.email, Password: password}, nil
}

func (a *App) newLoginCmd() *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.authenticate(cmd, &flags, session.LoggingIn)
		},
	}
	flags.bind(cmd, false)
	return cmd
}

func (a *App) newSignupCmd() *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.authenticate(cmd, &flags, session.SigningUp)
		},
	}
	flags.bind(cmd, true)
	return cmd
}

func (a *App) authenticate(cmd *cobra.Command, flags *credentialFlags, state session.FlowState) error {
	ctx := cmd.Context()
	env, err := a.environment(ctx)
	if err != nil {
		return err
	}
	creds, err := flags.credentials(cmd)
	if err != nil {
		return err
	}

	flow := session.NewAuthFlow(env.store)
	if state == session.SigningUp {
		flow.Toggle()
	}
	flow.Fields = creds

	s, err := env.ws.SubmitAuth(ctx, flow)
	if err != nil {
		a.logger.Debug("Authentication failed", "state", flow.State().String(), log.FieldError, err)
		return &messageError{msg: flow.Message(), err: err}
	}
	fmt.Fprintln(a.out, flow.Message())
	fmt.Fprintf(a.out, "Logged in as %s\n", displayName(*s))
	return nil
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := a.environment(cmd.Context())
			if err != nil {
				return err
			}
			if err := env.ws.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *App) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"profile"},
		Short:   "Show the logged-in user",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := a.enter(cmd.Context(), session.TargetProfile)
			if err != nil {
				return err
			}
			s := env.ws.Session()
			if s == nil {
				return &messageError{msg: "You are not logged in."}
			}
			fmt.Fprintf(a.out, "User ID:  %s\n", s.UserID)
			if s.Username != "" {
				fmt.Fprintf(a.out, "Username: %s\n", s.Username)
			}
			return nil
		},
	}
}

func displayName(s session.Session) string {
	if s.Username != "" {
		return s.Username
	}
	return "user " + s.UserID
}
