package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"events-social-network/models"
)

var (
	// ErrRequestNotFound means the id is not in the caller's incoming view,
	// usually because the request was resolved or its event disappeared.
	ErrRequestNotFound = errors.New("request not found in incoming view")
	// ErrNotActionable marks notices that cannot be accepted.
	ErrNotActionable = errors.New("request is not actionable")
	// ErrNotInvite is returned when confirming something other than an invite.
	ErrNotInvite = errors.New("request is not an invite")
	// ErrNoPreview is returned when confirming an invite that was never opened.
	ErrNoPreview = errors.New("invite has no open preview")
	// ErrInvalidTransition is returned for moves the invite state machine forbids.
	ErrInvalidTransition = errors.New("invalid invite transition")
)

// Verb is the caller's decision on a request.
type Verb string

const (
	VerbAccept  Verb = "accept"
	VerbDecline Verb = "decline"
)

// InviteState is the acceptance state of an invite.
type InviteState string

const (
	InvitePending    InviteState = "pending"
	InvitePreviewing InviteState = "previewing"
	InviteAccepted   InviteState = "accepted"
	InviteRejected   InviteState = "rejected"
)

// InviteAction drives the invite state machine.
type InviteAction string

const (
	ActionOpenPreview   InviteAction = "open_preview"
	ActionCancelPreview InviteAction = "cancel_preview"
	ActionConfirm       InviteAction = "confirm"
	ActionDecline       InviteAction = "decline"
)

// NextInviteState applies action to state.
//
//	pending    --open_preview-->   previewing
//	previewing --open_preview-->   previewing
//	previewing --cancel_preview--> pending
//	previewing --confirm-->        accepted
//	pending    --decline-->        rejected
//	previewing --decline-->        rejected
func NextInviteState(state InviteState, action InviteAction) (InviteState, error) {
	switch {
	case action == ActionOpenPreview && (state == InvitePending || state == InvitePreviewing):
		return InvitePreviewing, nil
	case action == ActionCancelPreview && state == InvitePreviewing:
		return InvitePending, nil
	case action == ActionConfirm && state == InvitePreviewing:
		return InviteAccepted, nil
	case action == ActionDecline && (state == InvitePending || state == InvitePreviewing):
		return InviteRejected, nil
	}
	return state, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, state)
}

// Preview is the hand-off to the confirmation flow for an invite.
type Preview struct {
	EventID  string `json:"event_id"`
	InviteID string `json:"invite_id"`
}

// Outcome reports what a dispatch did. Resolved is false when the request
// was handed to a preview instead of being answered.
type Outcome struct {
	RequestID   string               `json:"request_id"`
	Kind        Kind                 `json:"type"`
	Resolved    bool                 `json:"resolved"`
	Status      models.RequestStatus `json:"status"`
	InviteState InviteState          `json:"invite_state,omitempty"`
	Preview     *Preview             `json:"preview,omitempty"`
}

type openPreview struct {
	userID  string
	eventID string
}

// Dispatcher answers incoming requests. Invites are accepted in two steps:
// Dispatch(accept) opens a preview and Confirm resolves it.
type Dispatcher struct {
	store Responder
	log   logrus.FieldLogger

	mu       sync.Mutex
	previews map[string]openPreview // invite id -> preview
}

// NewDispatcher returns a Dispatcher resolving requests through store.
func NewDispatcher(store Responder, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		store:    store,
		log:      log.WithField("component", "dispatcher"),
		previews: make(map[string]openPreview),
	}
}

// Dispatch applies verb to the request requestID found in incoming.
// Declining is always allowed. Accepting an invite only opens a preview.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, incoming []ClassifiedRequest, requestID string, verb Verb) (Outcome, error) {
	d.prune(userID, incoming)

	req, ok := Find(incoming, requestID)
	if !ok {
		d.log.WithFields(logrus.Fields{"user_id": userID, "request_id": requestID}).Debug("dispatch on stale request")
		return Outcome{}, ErrRequestNotFound
	}

	switch verb {
	case VerbDecline:
		return d.decline(ctx, userID, req)
	case VerbAccept:
		if !req.Actionable() {
			return Outcome{}, ErrNotActionable
		}
		if req.IsInvite() {
			return d.openPreview(userID, req)
		}
		if err := d.respond(ctx, req, true); err != nil {
			return Outcome{}, err
		}
		return Outcome{RequestID: req.ID, Kind: req.Kind, Resolved: true, Status: models.StatusAccepted}, nil
	}
	return Outcome{}, fmt.Errorf("unknown verb %q", verb)
}

func (d *Dispatcher) decline(ctx context.Context, userID string, req ClassifiedRequest) (Outcome, error) {
	if err := d.respond(ctx, req, false); err != nil {
		return Outcome{}, err
	}
	out := Outcome{RequestID: req.ID, Kind: req.Kind, Resolved: true, Status: models.StatusRejected}
	if req.IsInvite() {
		d.mu.Lock()
		delete(d.previews, req.ID)
		d.mu.Unlock()
		out.InviteState = InviteRejected
	}
	d.log.WithFields(logrus.Fields{"user_id": userID, "request_id": req.ID, "type": req.Kind}).Info("request declined")
	return out, nil
}

func (d *Dispatcher) openPreview(userID string, req ClassifiedRequest) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, err := NextInviteState(d.stateLocked(req.ID), ActionOpenPreview)
	if err != nil {
		return Outcome{}, err
	}
	d.previews[req.ID] = openPreview{userID: userID, eventID: req.EventID()}

	return Outcome{
		RequestID:   req.ID,
		Kind:        req.Kind,
		Status:      req.Status,
		InviteState: next,
		Preview:     &Preview{EventID: req.EventID(), InviteID: req.ID},
	}, nil
}

// Confirm completes an invite whose preview userID has open.
func (d *Dispatcher) Confirm(ctx context.Context, userID string, incoming []ClassifiedRequest, inviteID string) (Outcome, error) {
	d.prune(userID, incoming)

	req, ok := Find(incoming, inviteID)
	if !ok {
		return Outcome{}, ErrRequestNotFound
	}
	if !req.IsInvite() {
		return Outcome{}, ErrNotInvite
	}

	d.mu.Lock()
	p, open := d.previews[inviteID]
	d.mu.Unlock()
	if !open || p.userID != userID {
		return Outcome{}, ErrNoPreview
	}
	next, err := NextInviteState(InvitePreviewing, ActionConfirm)
	if err != nil {
		return Outcome{}, err
	}

	if err := d.respond(ctx, req, true); err != nil {
		return Outcome{}, err
	}

	d.mu.Lock()
	delete(d.previews, inviteID)
	d.mu.Unlock()

	d.log.WithFields(logrus.Fields{"user_id": userID, "request_id": inviteID, "event_id": p.eventID}).Info("invite confirmed")
	return Outcome{RequestID: req.ID, Kind: req.Kind, Resolved: true, Status: models.StatusAccepted, InviteState: next}, nil
}

// CancelPreview closes an open preview and returns the invite to pending.
func (d *Dispatcher) CancelPreview(userID, inviteID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, open := d.previews[inviteID]
	if !open || p.userID != userID {
		return ErrNoPreview
	}
	if _, err := NextInviteState(InvitePreviewing, ActionCancelPreview); err != nil {
		return err
	}
	delete(d.previews, inviteID)
	return nil
}

// prune drops userID's previews whose invite is no longer in incoming, e.g.
// because the event was cancelled or the invite was answered elsewhere.
func (d *Dispatcher) prune(userID string, incoming []ClassifiedRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, p := range d.previews {
		if p.userID != userID {
			continue
		}
		if _, ok := Find(incoming, id); !ok {
			delete(d.previews, id)
			d.log.WithFields(logrus.Fields{"user_id": userID, "request_id": id}).Debug("stale preview dropped")
		}
	}
}

// State returns the local acceptance state of an invite: previewing while a
// preview is open, pending otherwise. Resolved states live in the store.
func (d *Dispatcher) State(inviteID string) InviteState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked(inviteID)
}

func (d *Dispatcher) stateLocked(inviteID string) InviteState {
	if _, open := d.previews[inviteID]; open {
		return InvitePreviewing
	}
	return InvitePending
}

func (d *Dispatcher) respond(ctx context.Context, req ClassifiedRequest, accept bool) error {
	var err error
	switch req.Kind {
	case KindFriend:
		err = d.store.RespondToFriendRequest(ctx, req.ID, accept)
	case KindEvent:
		err = d.store.RespondToEventRequest(ctx, req.ID, accept)
	default:
		return fmt.Errorf("request %s: unknown type %q", req.ID, req.Kind)
	}
	if err != nil {
		return fmt.Errorf("respond to %s request %s: %w", req.Kind, req.ID, err)
	}
	return nil
}
