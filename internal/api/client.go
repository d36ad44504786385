// Package api is the typed client for the remote expense service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensync/internal/core"
	"expensync/internal/log"
	"expensync/internal/session"
)

const (
	// DefaultTimeout is the total request timeout.
	DefaultTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 10 << 20

	HeaderRequestID = "X-Request-ID"
	UserAgent       = "expensync/1"
)

const (
	pathLogin  = "/logInUser"
	pathSignup = "/signUpUser"
	pathList   = "/showExpenses"
	pathCreate = "/addExpense"
	pathUpdate = "/editExpense"
	pathDelete = "/deleteExpense"
)

// Client talks to the remote expense service. Each call is exactly one
// request/response round trip; nothing is retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	loc        *time.Location
	logger     *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLocation sets the timezone used to interpret and emit datetimes.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

// NewHTTPClient creates an HTTP client with bounded dial and header timeouts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: NewHTTPClient(DefaultTimeout),
		loc:        time.UTC,
		logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the timezone datetimes are interpreted in.
func (c *Client) Location() *time.Location {
	return c.loc
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return session.Session{}, err
	}
	return c.authenticate(ctx, log.OpLogin, pathLogin, body, "")
}

// Signup registers a new account. The session carries the submitted
// username, since the service only echoes the id.
func (c *Client) Signup(ctx context.Context, username, email, password string) (session.Session, error) {
	body, err := json.Marshal(map[string]string{"username": username, "email": email, "password": password})
	if err != nil {
		return session.Session{}, err
	}
	return c.authenticate(ctx, log.OpSignup, pathSignup, body, username)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body []byte, username string) (session.Session, error) {
	resp, err := c.do(ctx, op, http.MethodPost, path, bytes.NewReader(body), "application/json")
	if err != nil {
		return session.Session{}, err
	}
	if !resp.ok() {
		return session.Session{}, &AuthError{Op: op, Status: resp.status, Message: serverText(resp.body)}
	}
	userID, echoed := decodeUserID(resp.body)
	if userID == "" {
		return session.Session{}, &AuthError{Op: op, Status: resp.status, Message: "user_id missing in response"}
	}
	if echoed != "" {
		username = echoed
	}
	return session.Session{UserID: userID, Username: username}, nil
}

// ListOptions narrows a list call. An empty ExpenseID lists everything.
type ListOptions struct {
	ExpenseID string
}

// ListExpenses returns the user's expenses in server order.
func (c *Client) ListExpenses(ctx context.Context, userID string, opts ListOptions) ([]core.Expense, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: FieldUserID, Reason: "is required"}
	}
	q := url.Values{}
	q.Set(FieldUserID, userID)
	if opts.ExpenseID != "" {
		q.Set(FieldExpenseID, opts.ExpenseID)
	}

	resp, err := c.do(ctx, log.OpList, http.MethodGet, pathList+"?"+q.Encode(), nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.fetchError(log.OpList)
	}
	expenses, err := decodeExpenses(resp.body, c.loc)
	if err != nil {
		return nil, &FetchError{Op: log.OpList, Status: resp.status, Message: "malformed response", Err: err}
	}
	return expenses, nil
}

// GetExpense fetches a single expense of the user.
func (c *Client) GetExpense(ctx context.Context, userID, expenseID string) (core.Expense, error) {
	if strings.TrimSpace(expenseID) == "" {
		return core.Expense{}, &ValidationError{Field: FieldExpenseID, Reason: "is required"}
	}
	expenses, err := c.ListExpenses(ctx, userID, ListOptions{ExpenseID: expenseID})
	if err != nil {
		return core.Expense{}, err
	}
	for _, e := range expenses {
		if e.ID == expenseID {
			return e, nil
		}
	}
	return core.Expense{}, &NotFoundError{ExpenseID: expenseID}
}

// CreateExpense uploads a new expense with an optional receipt. When the
// service answers with a bare confirmation the returned expense is built
// from the submitted fields; its ID is empty if the confirmation did not
// carry one.
func (c *Client) CreateExpense(ctx context.Context, userID string, fields ExpenseFields, receipt *Receipt) (core.Expense, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Expense{}, &ValidationError{Field: FieldUserID, Reason: "is required"}
	}
	if err := fields.Validate(true); err != nil {
		return core.Expense{}, err
	}
	if receipt != nil {
		if err := receipt.Validate(); err != nil {
			return core.Expense{}, err
		}
	}

	body, contentType, err := c.encodeMultipart([][2]string{{FieldUserID, userID}}, fields, receipt)
	if err != nil {
		return core.Expense{}, err
	}
	resp, err := c.do(ctx, log.OpCreate, http.MethodPost, pathCreate, body, contentType)
	if err != nil {
		return core.Expense{}, err
	}
	if !resp.ok() {
		return core.Expense{}, resp.fetchError(log.OpCreate)
	}

	synth := c.synthesize("", userID, fields)
	return c.confirmed(resp.body, synth), nil
}

// UpdateExpense replaces the fields of an expense. Callers wanting to keep
// prior values for blank fields should MergeOnto the existing expense first.
func (c *Client) UpdateExpense(ctx context.Context, expenseID string, fields ExpenseFields, receipt *Receipt) (core.Expense, error) {
	if strings.TrimSpace(expenseID) == "" {
		return core.Expense{}, &ValidationError{Field: FieldExpenseID, Reason: "is required"}
	}
	if err := fields.Validate(false); err != nil {
		return core.Expense{}, err
	}
	if receipt != nil {
		if err := receipt.Validate(); err != nil {
			return core.Expense{}, err
		}
	}

	body, contentType, err := c.encodeMultipart([][2]string{{FieldExpenseID, expenseID}}, fields, receipt)
	if err != nil {
		return core.Expense{}, err
	}
	resp, err := c.do(ctx, log.OpUpdate, http.MethodPut, pathUpdate, body, contentType)
	if err != nil {
		return core.Expense{}, err
	}
	if !resp.ok() {
		return core.Expense{}, resp.fetchError(log.OpUpdate)
	}

	synth := c.synthesize(expenseID, "", fields)
	updated := c.confirmed(resp.body, synth)
	if updated.ID == "" {
		updated.ID = expenseID
	}
	return updated, nil
}

// DeleteExpense removes an expense of the user.
func (c *Client) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{Field: FieldUserID, Reason: "is required"}
	}
	if strings.TrimSpace(expenseID) == "" {
		return &ValidationError{Field: FieldExpenseID, Reason: "is required"}
	}
	body, err := json.Marshal(map[string]string{FieldUserID: userID, FieldExpenseID: expenseID})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, log.OpDelete, http.MethodDelete, pathDelete, bytes.NewReader(body), "application/json")
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.fetchError(log.OpDelete)
	}
	return nil
}

func (c *Client) synthesize(expenseID, userID string, fields ExpenseFields) core.Expense {
	e := core.Expense{
		ID:          expenseID,
		UserID:      userID,
		Category:    fields.Category,
		OccurredAt:  fields.OccurredAt,
		Description: fields.Description,
	}
	if fields.Amount != nil {
		e.Amount = *fields.Amount
	}
	if !e.OccurredAt.IsZero() {
		e.OccurredAt = e.OccurredAt.In(c.loc)
	}
	return e
}

// confirmed interprets a successful create/update body: a full record
// wins, a bare {expense_id} fills in the id, anything else keeps synth.
func (c *Client) confirmed(body []byte, synth core.Expense) core.Expense {
	var w wireExpense
	if err := json.Unmarshal(bytes.TrimSpace(body), &w); err != nil {
		return synth
	}
	if w.hasRecord() {
		e, err := w.decode(c.loc)
		if err != nil {
			c.logger.Warn("Ignoring malformed expense in confirmation", log.FieldError, err)
		} else {
			if e.ID == "" {
				e.ID = synth.ID
			}
			if e.UserID == "" {
				e.UserID = synth.UserID
			}
			return e
		}
	}
	if id, err := scalarString(w.ExpenseID); err == nil && id != "" {
		synth.ID = id
	}
	return synth
}

func (c *Client) encodeMultipart(ids [][2]string, fields ExpenseFields, receipt *Receipt) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	values := append([][2]string(nil), ids...)
	values = append(values,
		[2]string{FieldCategory, fields.Category.Label()},
		[2]string{FieldAmount, fields.Amount.String()},
		[2]string{FieldDescription, fields.Description},
	)
	if !fields.OccurredAt.IsZero() {
		values = append(values, [2]string{FieldDatetime, formatDatetime(fields.OccurredAt, c.loc)})
	}
	for _, kv := range values {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}

	if receipt != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldReceipt, receipt.filename()))
		h.Set("Content-Type", receipt.MediaType())
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create receipt part: %w", err)
		}
		if _, err := part.Write(receipt.Data); err != nil {
			return nil, "", fmt.Errorf("write receipt: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) fetchError(op string) error {
	return &FetchError{Op: op, Status: r.status, Message: serverText(r.body)}
}

// do sends one request. Transport failures come back as *FetchError;
// non-2xx statuses are returned as a response for the caller to classify.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (response, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(log.FieldOperation, op, log.FieldRequestID, requestID)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, &FetchError{Op: op, Err: err}
	}
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, text/plain")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		observeRequest(op, outcomeTransport, elapsed)
		logger.WarnContext(ctx, "Request failed", log.FieldError, err, log.FieldDuration, elapsed.Milliseconds())
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return response{}, &FetchError{Op: op, Err: ctxErr}
		}
		return response{}, &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		observeRequest(op, outcomeTransport, elapsed)
		return response{}, &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	out := response{status: resp.StatusCode, body: data}
	outcome := outcomeOK
	if !out.ok() {
		outcome = outcomeHTTPError
	}
	observeRequest(op, outcome, elapsed)
	logger.DebugContext(ctx, "Request completed",
		log.FieldMethod, method,
		log.FieldPath, strings.SplitN(path, "?", 2)[0],
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, elapsed.Milliseconds(),
	)
	return out, nil
}
