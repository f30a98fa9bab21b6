// Package sync keeps one conversation consistent between this client and the
// backend: polled reads applied in issue order, optimistic writes reconciled
// or rolled back once the network result is known.
package sync

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/studybridge/client-go/internal/config"
	apperrors "github.com/studybridge/client-go/internal/errors"
	"github.com/studybridge/client-go/internal/model"
	"github.com/studybridge/client-go/internal/token"
)

// API is the slice of the backend bindings this package needs.
type API interface {
	SearchConversation(ctx context.Context, adminToken, studentToken string) (*model.Conversation, error)
	AddMessage(ctx context.Context, adminToken, studentToken string, msg model.Message) error
}

// SessionReader exposes current identities without write access; the session
// manager stays the single writer of identity state.
type SessionReader interface {
	Student() (*model.Identity, bool)
	Admin() (*model.Identity, bool)
}

// Snapshot is the conversation as the view layer should render it:
// server-confirmed messages followed by local optimistic entries.
type Snapshot struct {
	Messages []model.Message
	// Absent means the backend confirmed no conversation exists yet. Render
	// an empty state, not an error.
	Absent bool
	// Fetched means at least one fetch has been applied; until then the view
	// shows a loading state instead of "no messages".
	Fetched bool
}

// Client synchronizes one conversation. Viewer role decides which side of
// the token pair comes from the session and which from the conversation.
type Client struct {
	api       API
	session   SessionReader
	viewer    model.Role
	peerToken string // student peer, admin viewer only
	retries   int
	baseDelay time.Duration
	maxDelay  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error

	mu             sync.Mutex
	nextSeq        uint64
	applied        uint64
	conv           *model.Conversation
	absent         bool
	fetched        bool
	convAdminToken string
	pending        []*pendingMessage
}

// NewStudentClient syncs the conversation between the logged-in student and
// their support admin.
func NewStudentClient(api API, session SessionReader, retries int) *Client {
	return newClient(api, session, model.RoleStudent, "", retries)
}

// NewAdminClient syncs the conversation between the logged-in admin and one
// selected student.
func NewAdminClient(api API, session SessionReader, studentToken string, retries int) *Client {
	return newClient(api, session, model.RoleAdmin, token.Normalize(studentToken), retries)
}

func newClient(api API, session SessionReader, viewer model.Role, peerToken string, retries int) *Client {
	return &Client{
		api:       api,
		session:   session,
		viewer:    viewer,
		peerToken: peerToken,
		retries:   retries,
		baseDelay: config.SendRetryBaseDelay,
		maxDelay:  config.SendRetryMaxDelay,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// studentToken returns the student side of the conversation pair.
func (c *Client) studentToken() (string, error) {
	if c.viewer == model.RoleAdmin {
		if c.peerToken == "" {
			return "", apperrors.MissingRequired("student token")
		}
		return c.peerToken, nil
	}
	student, ok := c.session.Student()
	if !ok {
		return "", apperrors.NoSession("student")
	}
	return student.Token, nil
}

// adminToken resolves the admin side of the pair. Priority: the token
// embedded in the most recently fetched conversation record, then an active
// admin session, then the admin token carried on the student identity. The
// conversation record wins because a student client usually has no admin
// session of its own and the server-confirmed pairing is authoritative.
// Best-effort policy, not a protocol guarantee.
func (c *Client) adminToken() string {
	c.mu.Lock()
	fromConv := c.convAdminToken
	c.mu.Unlock()
	if fromConv != "" {
		return fromConv
	}
	if admin, ok := c.session.Admin(); ok && admin.Token != "" {
		return admin.Token
	}
	if student, ok := c.session.Student(); ok && student.AdminToken != "" {
		return student.AdminToken
	}
	return ""
}

// Fetch reads the conversation and applies the result, unless a later fetch
// already completed or ctx was cancelled in the meantime: responses are
// applied in the order requests were issued, never the order replies arrive.
// A transient failure leaves the last applied state untouched.
func (c *Client) Fetch(ctx context.Context) error {
	studentTok, err := c.studentToken()
	if err != nil {
		return err
	}

	var searchAdmin string
	if c.viewer == model.RoleAdmin {
		// The admin search endpoint needs both sides of the pair.
		searchAdmin = c.adminToken()
		if searchAdmin == "" {
			return apperrors.NoSession("admin")
		}
	}

	c.mu.Lock()
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	conv, fetchErr := c.api.SearchConversation(ctx, searchAdmin, studentTok)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		// Cancelled while in flight; the caller stopped caring, so this
		// response must not mutate anything.
		return ctx.Err()
	}
	if seq <= c.applied {
		log.Debug().Uint64("seq", seq).Uint64("applied", c.applied).Msg("discarding superseded fetch response")
		return nil
	}
	if fetchErr != nil {
		return fetchErr
	}

	c.applied = seq
	c.fetched = true
	if conv == nil {
		c.absent = true
		c.conv = nil
		return nil
	}

	c.absent = false
	c.conv = conv
	if conv.AdminToken != "" {
		c.convAdminToken = conv.AdminToken
	}
	c.reconcileLocked()
	return nil
}

// reconcileLocked retires confirmed optimistic entries once the server copy
// contains them, so a message never renders twice after the confirming poll.
func (c *Client) reconcileLocked() {
	if len(c.pending) == 0 {
		return
	}
	kept := c.pending[:0]
	for _, p := range c.pending {
		retired := false
		if p.state == StateConfirmed {
			for _, m := range c.conv.Messages {
				if p.matches(m) {
					retired = true
					break
				}
			}
		}
		if !retired {
			kept = append(kept, p)
		}
	}
	c.pending = kept
}

// Send validates, optimistically appends, and delivers one message. Empty
// content never reaches the network. On failure the optimistic entry is
// removed and the trimmed text is returned so the compose field can be
// restored exactly; on success the returned string is empty.
func (c *Client) Send(ctx context.Context, content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", apperrors.ValidationError("message content must not be empty")
	}

	studentTok, err := c.studentToken()
	if err != nil {
		return "", err
	}
	adminTok := c.adminToken()
	if adminTok == "" {
		return "", apperrors.MissingRequired("admin token")
	}

	msg := model.Message{
		Content:       trimmed,
		Direction:     model.DirectionFor(c.viewer),
		SentAt:        time.Now().UTC(),
		CorrelationID: uuid.NewString(),
	}
	entry := &pendingMessage{msg: msg, state: StatePending}

	c.mu.Lock()
	c.pending = append(c.pending, entry)
	c.mu.Unlock()

	sendErr := c.deliver(ctx, adminTok, studentTok, msg)

	c.mu.Lock()
	if sendErr != nil {
		entry.rollback()
		c.removeLocked(entry)
		c.mu.Unlock()
		log.Warn().Err(sendErr).Msg("send failed, optimistic message rolled back")
		return trimmed, sendErr
	}
	entry.confirm()
	c.mu.Unlock()

	// Reconcile against the server copy; best effort, the next poll tick
	// covers a failure here.
	if err := c.Fetch(ctx); err != nil {
		log.Debug().Err(err).Msg("post-send fetch failed, waiting for next poll")
	}
	return "", nil
}

// deliver posts the message, retrying transient failures with doubling
// backoff. Validation and auth failures are never retried.
func (c *Client) deliver(ctx context.Context, adminTok, studentTok string, msg model.Message) error {
	delay := c.baseDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = c.api.AddMessage(ctx, adminTok, studentTok, msg)
		if err == nil || !apperrors.IsTransient(err) || attempt >= c.retries {
			return err
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Dur("backoff", delay).Msg("retrying send")
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return err
		}
		if delay *= 2; delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

func (c *Client) removeLocked(entry *pendingMessage) {
	for i, p := range c.pending {
		if p == entry {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// Snapshot returns the conversation as it should render right now.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var messages []model.Message
	if c.conv != nil {
		messages = append(messages, c.conv.Messages...)
	}
	for _, p := range c.pending {
		messages = append(messages, p.msg)
	}
	return Snapshot{
		Messages: messages,
		Absent:   c.absent && len(c.pending) == 0,
		Fetched:  c.fetched,
	}
}
