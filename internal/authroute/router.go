// Package authroute decides where a request should be redirected based on
// session presence and the caller's workspace type. The decision function
// is pure so it can be tested apart from the HTTP machinery that wraps it.
package authroute

import (
	"strings"

	"github.com/jaimenoain/ceeq/internal/model"
)

// Well-known paths.
const (
	PathLogin             = "/login"
	PathOnboarding        = "/onboarding"
	PathSearcherPrefix    = "/searcher"
	PathInvestorPrefix    = "/investor"
	PathSearcherDashboard = "/searcher/dashboard"
	PathInvestorDashboard = "/investor/dashboard"
)

// Decision is the outcome for one request path.
type Decision struct {
	// Redirect is the target path; empty when the request proceeds.
	Redirect string `json:"redirect,omitempty"`
}

// Redirected reports whether the request should be redirected.
func (d Decision) Redirected() bool {
	return d.Redirect != ""
}

// Decide maps (path, session presence, workspace type) to an optional
// redirect. wsType is empty when the caller has a session but no resolved
// workspace yet. Rules apply in order:
//  1. unprotected paths never redirect
//  2. no session on a protected path redirects to login
//  3. session with no workspace redirects to onboarding, unless already
//     there
//  4. a resolved workspace type in the other tenant's area redirects to
//     its own dashboard
func Decide(path string, authenticated bool, wsType model.WorkspaceType) Decision {
	if !isProtected(path) {
		return Decision{}
	}

	if !authenticated {
		return Decision{Redirect: PathLogin}
	}

	if !wsType.Valid() {
		if path == PathOnboarding {
			return Decision{}
		}
		return Decision{Redirect: PathOnboarding}
	}

	switch {
	case wsType == model.WorkspaceSearcher && hasPrefix(path, PathInvestorPrefix):
		return Decision{Redirect: PathSearcherDashboard}
	case wsType == model.WorkspaceInvestor && hasPrefix(path, PathSearcherPrefix):
		return Decision{Redirect: PathInvestorDashboard}
	}

	return Decision{}
}

// isProtected reports whether the path requires a session. The onboarding
// screen is protected (it needs an identity) but tolerates an unresolved
// workspace.
func isProtected(path string) bool {
	return path == PathOnboarding ||
		hasPrefix(path, PathSearcherPrefix) ||
		hasPrefix(path, PathInvestorPrefix)
}

// hasPrefix matches a path segment prefix: /searcher and /searcher/x, but
// not /searcherish.
func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
