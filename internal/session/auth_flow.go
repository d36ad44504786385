package session

import (
	"context"
	"errors"
	"strings"
)

// FlowState is the mode of the authentication dialog.
type FlowState int

const (
	LoggingIn FlowState = iota
	SigningUp
)

func (s FlowState) String() string {
	switch s {
	case LoggingIn:
		return "logging-in"
	case SigningUp:
		return "signing-up"
	default:
		return "unknown"
	}
}

const (
	MsgLoginFailed   = "Login failed. Please try again."
	MsgLoginOK       = "Login successful!"
	MsgSignupOK      = "Sign-up successful!"
	MsgSignupPrefix  = "Sign-up failed: "
	MsgMissingFields = "Please fill in all fields."
)

// Authenticator performs the remote half of login and signup.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Signup(ctx context.Context, username, email, password string) (Session, error)
}

// serverMessager is implemented by errors that carry text sent by the
// remote service.
type serverMessager interface {
	ServerMessage() string
}

// Credentials are the form fields of the dialog. Username is only used
// when signing up.
type Credentials struct {
	Username string
	Email    string
	Password string
}

// AuthFlow drives the login/signup dialog. It is not safe for concurrent use.
type AuthFlow struct {
	store   Store
	state   FlowState
	open    bool
	message string

	Fields Credentials
}

// NewAuthFlow returns an open flow in the LoggingIn state.
func NewAuthFlow(store Store) *AuthFlow {
	return &AuthFlow{store: store, state: LoggingIn, open: true}
}

func (f *AuthFlow) State() FlowState { return f.state }
func (f *AuthFlow) Open() bool       { return f.open }
func (f *AuthFlow) Message() string  { return f.message }

// Toggle switches between logging in and signing up and clears the form.
func (f *AuthFlow) Toggle() {
	if f.state == LoggingIn {
		f.state = SigningUp
	} else {
		f.state = LoggingIn
	}
	f.reset()
}

// Submit runs login or signup depending on the state. On success the
// session is saved and the flow closes; on failure the flow stays in its
// state with a message for the user. The returned error is the underlying
// cause, for logging.
func (f *AuthFlow) Submit(ctx context.Context, auth Authenticator) (*Session, error) {
	if !f.open {
		return nil, errors.New("auth flow is closed")
	}
	if !f.complete() {
		f.message = MsgMissingFields
		return nil, errors.New("missing credentials")
	}

	var (
		s   Session
		err error
	)
	switch f.state {
	case SigningUp:
		s, err = auth.Signup(ctx, strings.TrimSpace(f.Fields.Username), strings.TrimSpace(f.Fields.Email), f.Fields.Password)
	default:
		s, err = auth.Login(ctx, strings.TrimSpace(f.Fields.Email), f.Fields.Password)
	}
	if err != nil {
		f.message = f.failureMessage(err)
		return nil, err
	}
	if err := f.store.Save(ctx, s); err != nil {
		f.message = f.failureMessage(err)
		return nil, err
	}

	if f.state == SigningUp {
		f.message = MsgSignupOK
	} else {
		f.message = MsgLoginOK
	}
	f.open = false
	f.Fields = Credentials{}
	return &s, nil
}

func (f *AuthFlow) complete() bool {
	if strings.TrimSpace(f.Fields.Email) == "" || f.Fields.Password == "" {
		return false
	}
	return f.state != SigningUp || strings.TrimSpace(f.Fields.Username) != ""
}

func (f *AuthFlow) failureMessage(err error) string {
	var text string
	var sm serverMessager
	if errors.As(err, &sm) {
		text = sm.ServerMessage()
	}
	if f.state == SigningUp {
		if text == "" {
			text = "please try again."
		}
		return MsgSignupPrefix + text
	}
	if text == "" {
		return MsgLoginFailed
	}
	return text
}

func (f *AuthFlow) reset() {
	f.message = ""
	f.Fields = Credentials{}
}
