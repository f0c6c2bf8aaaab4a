// internal/app/system/scope/gate.go
package scope

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/domain/models"
	"go.uber.org/zap"
)

// State is the organization-scope position of the current request.
type State int

const (
	// StateSignedOut: no authenticated identity.
	StateSignedOut State = iota
	// StateNoOrganizations: signed in, nothing available.
	StateNoOrganizations
	// StateNeedsSelection: signed in, several available, none chosen.
	StateNeedsSelection
	// StateSelected: signed in with an active organization.
	StateSelected
)

// Destination classes of the application.
type Destination int

const (
	// DestAuth: login, registration, password reset.
	DestAuth Destination = iota
	// DestPicker: the organization selection screen.
	DestPicker
	// DestMain: everything behind an active organization.
	DestMain
)

// Decide returns whether dest is reachable in state and, when it is not,
// the single redirect to issue instead. The decision is a pure function
// of state: re-evaluating it can never produce a redirect loop, because
// every state allows the destination it redirects to.
func Decide(state State, dest Destination) (allow bool, redirect string) {
	switch state {
	case StateSignedOut:
		if dest == DestAuth {
			return true, ""
		}
		return false, "/login"
	case StateNoOrganizations, StateNeedsSelection:
		// The picker is the only destination; with zero organizations it
		// renders an empty state rather than redirecting anywhere else.
		if dest == DestPicker {
			return true, ""
		}
		return false, "/select-organization"
	default: // StateSelected
		if dest == DestMain {
			return true, ""
		}
		return false, "/dashboard"
	}
}

// Gate evaluates the scope state per request and enforces Decide.
type Gate struct {
	svc *Service
	sel *SelectionStore
	log *zap.Logger
}

// NewGate constructs a Gate.
func NewGate(svc *Service, sel *SelectionStore, logger *zap.Logger) *Gate {
	return &Gate{svc: svc, sel: sel, log: logger}
}

// Resolve computes the current state and, when StateSelected, the active
// selection. Exactly one organization available auto-selects it (and
// persists the choice so later requests take the cheap restore path).
func (g *Gate) Resolve(w http.ResponseWriter, r *http.Request) (State, *auth.SessionUser, models.OrganizationSelection, error) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return StateSignedOut, nil, models.OrganizationSelection{}, nil
	}

	available, err := g.svc.Available(r.Context(), user)
	if err != nil {
		return StateSignedOut, user, models.OrganizationSelection{}, err
	}

	if sel, ok := g.sel.Restore(r, available); ok {
		return StateSelected, user, sel, nil
	}

	switch len(available) {
	case 0:
		return StateNoOrganizations, user, models.OrganizationSelection{}, nil
	case 1:
		sel := available[0]
		if err := g.sel.Save(w, sel); err != nil {
			g.log.Warn("persisting auto-selected organization failed", zap.Error(err))
		}
		return StateSelected, user, sel, nil
	default:
		return StateNeedsSelection, user, models.OrganizationSelection{}, nil
	}
}

// RequireScope guards main-application routes (DestMain). Requests
// without an active organization are redirected per Decide; requests with
// one proceed with the selection attached to the context.
func (g *Gate) RequireScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, _, sel, err := g.Resolve(w, r)
		if err != nil {
			g.log.Error("organization scope resolution failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		allow, redirect := Decide(state, DestMain)
		if !allow {
			if state == StateSignedOut {
				redirect += "?return=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, WithSelection(r, sel))
	})
}

/* ------------------------------ context ------------------------------- */

type ctxKey string

const selectionKey ctxKey = "orgSelection"

// WithSelection attaches the active selection to the request context.
func WithSelection(r *http.Request, sel models.OrganizationSelection) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), selectionKey, sel))
}

// Selection returns the active selection placed by RequireScope.
func Selection(r *http.Request) (models.OrganizationSelection, bool) {
	sel, ok := r.Context().Value(selectionKey).(models.OrganizationSelection)
	return sel, ok
}
