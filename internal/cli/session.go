package cli

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/state"
	"github.com/Makepad-fr/tada/internal/ui"
)

// session is everything one command invocation needs: resolved config, a
// logger, the store and the controller driving it.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	store  *state.Store
	ctrl   *controller.Controller
	closer io.Closer
}

// openSession resolves config and builds the controller. When no owner is
// configured it still returns a usable session (without a controller)
// together with config.ErrNoOwner, so the caller decides how to report it.
// Interactive sessions log to the log file; the others log to stderr.
func openSession(cmd *cobra.Command, opts *RootOptions, interactive bool) (*session, error) {
	cfg, err := config.Load(opts.overrides())
	if err != nil {
		return nil, &ExitError{Code: 2, Err: err}
	}
	ui.SetTheme(cfg.Theme)
	if opts.NoColor {
		ui.SetColorForcing(false, true)
	}

	lopts := logging.DefaultOptions()
	lopts.Level = logging.ParseLevel(cfg.LogLevel)

	s := &session{cfg: cfg}
	if interactive {
		logger, closer, err := logging.OpenFile(cfg.LogFile, lopts)
		if err != nil {
			logger = logging.Discard()
		} else {
			s.closer = closer
		}
		s.logger = logger
	} else {
		s.logger = logging.New(cmd.ErrOrStderr(), lopts)
	}
	s.store = state.New(state.WithErrorTimeout(cfg.ErrorTimeout.Duration))

	if err := cfg.RequireOwner(); err != nil {
		s.logger.Debug("no owner configured", "config", cfg.Path)
		return s, err
	}

	token, err := auth.Optional()
	if err != nil {
		s.logger.Warn("ignoring stored credentials", "err", err)
	}
	client := api.NewClient(api.Config{
		BaseURL: cfg.APIURL,
		Token:   token,
		Timeout: cfg.Timeout.Duration,
	}, s.logger)

	s.ctrl, err = controller.New(s.store, client, controller.Options{
		OwnerID:        cfg.OwnerID,
		MaxConcurrency: cfg.MaxConcurrency,
		Logger:         s.logger,
	})
	if err != nil {
		return s, err
	}
	return s, nil
}

// openController is openSession for one-shot commands: a missing owner is
// an error, and the list is loaded before the caller acts on it.
func openController(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	s, err := openSession(cmd, opts, false)
	if err != nil {
		return nil, err
	}
	if err := s.ctrl.Load(cmd.Context()); err != nil {
		return nil, s.failure(err)
	}
	return s, nil
}

// failure turns a controller error into the banner text the user would see
// in the UI. Errors without a banner message keep their own text.
func (s *session) failure(err error) error {
	msg := controller.UserMessage(err)
	if msg == "" {
		return err
	}
	return errors.New(msg)
}

func (s *session) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
