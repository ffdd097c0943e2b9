// Package flow implements the lead-qualification conversation: a per-user
// step tracker that maps inbound text to replies, step transitions, quote
// computation, and agent handoff.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	contractx "github.com/retailrockit/leadbot/bot/contract"
	dispatchx "github.com/retailrockit/leadbot/bot/dispatch"
	intentx "github.com/retailrockit/leadbot/bot/intent"
	statex "github.com/retailrockit/leadbot/bot/state"
)

const (
	msgWelcome = "Welcome to RetailRockIT! 🚀\n\nDo you want to grow your business with upfront funding? (Yes/No)"

	msgCredentialPrompt = "Let's see what we can do for you.\n\n" +
		"Please paste your Takealot Seller API Key below so we can generate your quote:"

	msgInvalidCredential = "That doesn't look like a valid API key. Please paste the full key and try again."

	msgCrunching = "Crunching the numbers... this might take a few seconds."

	msgQuoteFailed = "We couldn't access your sales data right now. " +
		"Please check the API key and paste it again."

	msgNoSales = "We couldn't find any sales on your account over the lookback period, " +
		"so we can't make an offer just yet. Message us again once you have trading history."

	msgOfferFormat = "Based on your sales history, your funding quote is:\n\n*R%s*\n\n" +
		"Would you like to accept this offer? (Yes/No)"

	msgNoProblem = "No problem. Message us anytime to start over."

	msgResetDone = "Okay, starting fresh. Say hi whenever you're ready!"
)

// Dispatcher hands an accepted lead to a human agent.
type Dispatcher interface {
	Dispatch(ctx context.Context, sess *statex.Session) (dispatchx.Agent, error)
}

type Config struct {
	// MinCredentialLength rejects obviously-bogus credential submissions
	// before any ledger call is made.
	MinCredentialLength int `envconfig:"MIN_CREDENTIAL_LENGTH" split_words:"true" default:"8"`
}

// Engine is the conversation state machine. Transitions for one user are
// serialized by a per-user lock; different users proceed independently.
type Engine struct {
	store      statex.Store
	messenger  contractx.Messenger
	quoter     contractx.Quoter
	dispatcher Dispatcher

	minCredentialLen int
	locks            userLocks
	now              func() time.Time
}

func New(cfg Config, store statex.Store, messenger contractx.Messenger, quoter contractx.Quoter, dispatcher Dispatcher) (*Engine, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if messenger == nil {
		return nil, errors.New("messenger is required")
	}
	if quoter == nil {
		return nil, errors.New("quoter is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	minLen := cfg.MinCredentialLength
	if minLen <= 0 {
		minLen = 8
	}

	return &Engine{
		store:            store,
		messenger:        messenger,
		quoter:           quoter,
		dispatcher:       dispatcher,
		minCredentialLen: minLen,
		now:              time.Now,
	}, nil
}

// HandleMessage runs one inbound message through the transition table and
// persists the resulting session. The returned error reports store failures
// only; message delivery problems are logged and swallowed.
func (e *Engine) HandleMessage(ctx context.Context, userID, text string) error {
	if strings.TrimSpace(userID) == "" {
		return contractx.ErrInvalidUser
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	sess, err := e.store.Load(ctx, userID)
	switch {
	case errors.Is(err, statex.ErrSessionNotFound):
		sess = statex.NewSession(userID, e.now())
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}

	if intentx.IsReset(text) {
		sess.Reset(e.now())
		if err := e.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		e.send(ctx, userID, msgResetDone)
		return nil
	}

	switch sess.Step {
	case statex.StepStart:
		e.send(ctx, userID, msgWelcome)
		sess.Advance(statex.StepAwaitingInterest, e.now())

	case statex.StepAwaitingInterest:
		if intentx.Classify(text) == intentx.Affirmative {
			e.send(ctx, userID, msgCredentialPrompt)
			sess.Advance(statex.StepAwaitingCredential, e.now())
		} else {
			e.send(ctx, userID, msgNoProblem)
			sess.Advance(statex.StepStart, e.now())
		}

	case statex.StepAwaitingCredential:
		e.handleCredential(ctx, sess, text)

	case statex.StepAwaitingHandoff:
		if intentx.Classify(text) == intentx.Affirmative {
			if _, err := e.dispatcher.Dispatch(ctx, sess); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("dispatch failed")
			}
		} else {
			e.send(ctx, userID, msgNoProblem)
		}
		sess.Advance(statex.StepStart, e.now())

	default:
		// Unknown step in the store; recover rather than wedge the user.
		log.Warn().Str("user_id", userID).Str("step", string(sess.Step)).Msg("unknown step, resetting")
		sess.Reset(e.now())
		e.send(ctx, userID, msgWelcome)
		sess.Advance(statex.StepAwaitingInterest, e.now())
	}

	if err := e.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// handleCredential covers the quoting transition: validate, compute, and
// either deliver the offer, the no-sales notice, or the retry prompt. On a
// calculator failure the step does not advance — resubmitting the key is the
// only retry mechanism, and it is user-driven.
func (e *Engine) handleCredential(ctx context.Context, sess *statex.Session, text string) {
	if len(strings.TrimSpace(text)) < e.minCredentialLen {
		e.send(ctx, sess.UserID, msgInvalidCredential)
		return
	}

	e.send(ctx, sess.UserID, msgCrunching)

	q, err := e.quoter.Compute(ctx, text)
	if err != nil {
		log.Error().Err(err).Str("user_id", sess.UserID).Msg("quote computation failed")
		e.send(ctx, sess.UserID, msgQuoteFailed)
		sess.Touch(e.now())
		return
	}

	if q.Offer == 0 {
		e.send(ctx, sess.UserID, msgNoSales)
		sess.Advance(statex.StepStart, e.now())
		return
	}

	sess.SetOffer(q.Offer, e.now())
	e.send(ctx, sess.UserID, fmt.Sprintf(msgOfferFormat, humanize.Comma(q.Offer)))
}

func (e *Engine) send(ctx context.Context, userID, text string) {
	if err := e.messenger.Send(ctx, userID, text); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to deliver message")
	}
}
