// Package dispatch hands qualified leads off to a human agent from a
// configured roster.
package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	contractx "github.com/retailrockit/leadbot/bot/contract"
	statex "github.com/retailrockit/leadbot/bot/state"
	leadsx "github.com/retailrockit/leadbot/leads"
)

// Agent is one human consultant a lead can be assigned to.
type Agent struct {
	Name   string
	Handle string
}

// Roster is the static agent pool. It decodes from a single env value of
// the form "Name|handle,Name|handle", e.g.
//
//	AGENT_ROSTER="Consultant Sarah|27821234567,Consultant Mike|27829876543"
type Roster []Agent

// Decode implements envconfig.Decoder.
func (r *Roster) Decode(value string) error {
	var roster Roster
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, handle, ok := strings.Cut(entry, "|")
		name = strings.TrimSpace(name)
		handle = strings.TrimSpace(handle)
		if !ok || name == "" || handle == "" {
			return fmt.Errorf("malformed roster entry %q, want Name|handle", entry)
		}
		roster = append(roster, Agent{Name: name, Handle: handle})
	}
	if len(roster) == 0 {
		return contractx.ErrEmptyRoster
	}
	*r = roster
	return nil
}

type Config struct {
	Roster Roster `envconfig:"ROSTER" split_words:"true" required:"true"`
}

// Dispatcher assigns a lead to a uniformly random agent and notifies both
// sides. Delivery and record failures are logged, never surfaced into the
// conversation.
type Dispatcher struct {
	roster    Roster
	messenger contractx.Messenger
	leads     leadsx.Store
	pick      func(n int) int
	now       func() time.Time
}

func New(cfg Config, messenger contractx.Messenger, leadStore leadsx.Store) (*Dispatcher, error) {
	if len(cfg.Roster) == 0 {
		return nil, contractx.ErrEmptyRoster
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}
	if leadStore == nil {
		leadStore = leadsx.Noop{}
	}
	return &Dispatcher{
		roster:    cfg.Roster,
		messenger: messenger,
		leads:     leadStore,
		pick:      rand.Intn,
		now:       time.Now,
	}, nil
}

// Dispatch notifies the user of their assigned agent and alerts the agent
// with the lead's identifier and stored offer.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *statex.Session) (Agent, error) {
	if sess == nil || strings.TrimSpace(sess.UserID) == "" {
		return Agent{}, contractx.ErrInvalidUser
	}
	if sess.PendingOffer == nil {
		return Agent{}, contractx.ErrNoPendingOffer
	}
	offer := *sess.PendingOffer

	agent := d.roster[d.pick(len(d.roster))]

	userMsg := fmt.Sprintf(
		"Fantastic choice! 🎉\n\nI am assigning you to %s to finalize the details.\nChat with them directly: %s",
		agent.Name, agent.Handle,
	)
	if err := d.messenger.Send(ctx, sess.UserID, userMsg); err != nil {
		log.Error().Err(err).Str("user_id", sess.UserID).Msg("failed to send handoff confirmation")
	}

	alert := fmt.Sprintf(
		"🔥 New qualified lead\nUser: %s\nAccepted offer: R%s\nPlease reach out to close the deal.",
		sess.UserID, humanize.Comma(offer),
	)
	if err := d.messenger.Send(ctx, agent.Handle, alert); err != nil {
		log.Error().Err(err).Str("agent", agent.Name).Msg("failed to send lead alert")
	}

	if err := d.leads.Record(ctx, &leadsx.Lead{
		UserID:    sess.UserID,
		AgentName: agent.Name,
		Offer:     offer,
		CreatedAt: d.now().UTC(),
	}); err != nil {
		log.Error().Err(err).Str("user_id", sess.UserID).Msg("failed to record lead")
	}

	log.Info().
		Str("user_id", sess.UserID).
		Str("agent", agent.Name).
		Int64("offer", offer).
		Msg("lead dispatched")
	return agent, nil
}
