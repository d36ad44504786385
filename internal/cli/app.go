package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"expensync/internal/api"
	"expensync/internal/backend"
	"expensync/internal/cache"
	"expensync/internal/config"
	"expensync/internal/log"
	"expensync/internal/services"
	"expensync/internal/session"
)

// Options contain the dependencies of the CLI. Factory and API are built
// from Config when nil.
type Options struct {
	Config  *config.Config
	Logger  *log.Logger
	Factory backend.Factory
	API     services.ExpenseAPI
	Out     io.Writer
	In      io.Reader
}

// App is the command-line interface over a Workspace.
type App struct {
	cfg     *config.Config
	logger  *log.Logger
	factory backend.Factory
	api     services.ExpenseAPI
	out     io.Writer
	in      io.Reader
	loc     *time.Location

	env     *environment
	rootCmd *cobra.Command
}

// environment is what a command runs against. It is built on first use so
// that commands like categories never touch the session backend.
type environment struct {
	backend backend.Config
	ws      *services.Workspace
	store   session.Store
	gate    *session.Gate
	cleanup backend.CleanupFunc
}

// GateError is returned when a command needs a session that is not there.
type GateError struct {
	Target   session.Target
	Decision session.Decision
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s requires login (%s); run 'expensync login' first", e.Target, e.Decision.Reason)
}

// messageError carries text already fit for the user.
type messageError struct {
	msg string
	err error
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.err }

func New(opts Options) *App {
	if opts.Config == nil {
		opts.Config = config.Load()
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Factory == nil {
		opts.Factory = backend.NewFactory(opts.Logger)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}

	loc, err := opts.Config.Location()
	if err != nil {
		opts.Logger.Warn("Unknown timezone, using UTC", "timezone", opts.Config.Timezone, log.FieldError, err)
		loc = time.UTC
	}

	a := &App{
		cfg:     opts.Config,
		logger:  opts.Logger,
		factory: opts.Factory,
		api:     opts.API,
		out:     opts.Out,
		in:      opts.In,
		loc:     loc,
	}
	a.rootCmd = a.newRootCmd()
	return a
}

// Root exposes the root command, e.g. to set arguments in tests.
func (a *App) Root() *cobra.Command {
	return a.rootCmd
}

// Execute runs the command line and releases the backend afterwards.
func (a *App) Execute(ctx context.Context) error {
	defer a.close()
	return a.rootCmd.ExecuteContext(ctx)
}

func (a *App) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "expensync",
		Short:         "Expense tracker client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(a.out)
	cmd.SetIn(a.in)

	cmd.AddCommand(a.newLoginCmd())
	cmd.AddCommand(a.newSignupCmd())
	cmd.AddCommand(a.newLogoutCmd())
	cmd.AddCommand(a.newWhoamiCmd())
	cmd.AddCommand(a.newListCmd())
	cmd.AddCommand(a.newShowCmd())
	cmd.AddCommand(a.newAddCmd())
	cmd.AddCommand(a.newEditCmd())
	cmd.AddCommand(a.newDeleteCmd())
	cmd.AddCommand(a.newReportCmd())
	cmd.AddCommand(a.newExportCmd())
	cmd.AddCommand(a.newCategoriesCmd())
	cmd.AddCommand(a.newCheckCmd())

	return cmd
}

func (a *App) environment(ctx context.Context) (*environment, error) {
	if a.env != nil {
		return a.env, nil
	}

	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	res, err := a.factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	client := a.api
	if client == nil {
		client = api.New(a.cfg.APIBaseURL,
			api.WithHTTPClient(api.NewHTTPClient(a.cfg.HTTPTimeout)),
			api.WithLocation(a.loc),
			api.WithLogger(a.logger),
		)
	}

	ws := services.NewWorkspace(client, res.Store, cache.NewExpenseCache(a.logger), res.Publisher, a.logger)
	ws.SetDeleteConcurrency(a.cfg.DeleteConcurrency)
	if _, err := ws.Restore(ctx); err != nil {
		_ = res.Cleanup()
		return nil, err
	}

	a.env = &environment{
		backend: bcfg,
		ws:      ws,
		store:   res.Store,
		gate:    session.NewGate(res.Store),
		cleanup: res.Cleanup,
	}
	return a.env, nil
}

// enter checks the gate for target and returns the environment when the
// target may be shown.
func (a *App) enter(ctx context.Context, target session.Target) (*environment, error) {
	env, err := a.environment(ctx)
	if err != nil {
		return nil, err
	}
	if d := env.gate.Check(ctx, target); !d.Allowed {
		return nil, &GateError{Target: target, Decision: d}
	}
	return env, nil
}

func (a *App) close() {
	if a.env == nil {
		return
	}
	if err := a.env.cleanup(); err != nil {
		a.logger.Warn("Cleanup failed", log.FieldError, err)
	}
	a.env = nil
}

// Message turns a command error into text for the terminal.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var (
		msgErr      *messageError
		gateErr     *GateError
		authErr     *api.AuthError
		validErr    *api.ValidationError
		fetchErr    *api.FetchError
		notFoundErr *api.NotFoundError
	)
	switch {
	case errors.As(err, &msgErr):
		return msgErr.msg
	case errors.As(err, &gateErr):
		return gateErr.Error()
	case errors.Is(err, services.ErrNoSession):
		return "You are not logged in."
	case errors.As(err, &authErr), errors.As(err, &validErr), errors.As(err, &fetchErr),
		errors.As(err, &notFoundErr), errors.Is(err, context.DeadlineExceeded):
		return api.UserMessage(err)
	default:
		return "Error: " + err.Error()
	}
}
