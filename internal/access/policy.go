// Package access resolves the effective permission set for a principal
// acting on a document, optionally through a share capability token.
// Resolution reads capability state but never writes anything, so it is
// safe under arbitrary concurrent use.
package access

import (
	"context"

	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
)

// PermSet is a bitmask of the four scoped rights.
type PermSet uint8

const (
	PermView PermSet = 1 << iota
	PermComment
	PermDownload
	PermManage
)

// ownerPerms is everything; capability holders can reach at most
// view+comment+download, never manage.
const ownerPerms = PermView | PermComment | PermDownload | PermManage

func (p PermSet) Has(perm PermSet) bool {
	return p&perm != 0
}

func (p PermSet) Empty() bool {
	return p == 0
}

// CapabilityFinder is the read-only slice of the share store the engine
// needs. FindValid returns not-found for unknown or expired tokens;
// GetByDocument returns the document's capability row regardless of
// expiry, and the engine checks liveness itself.
type CapabilityFinder interface {
	FindValid(ctx context.Context, token string, now int64) (*model.ShareCapability, error)
	GetByDocument(ctx context.Context, docID string) (*model.ShareCapability, error)
}

type Engine struct {
	caps CapabilityFinder
}

func NewEngine(caps CapabilityFinder) *Engine {
	return &Engine{caps: caps}
}

// Resolve returns the principal's effective permissions on doc. An empty
// set means "nothing", and callers must treat it exactly like not-found:
// whether the document exists is not the principal's to learn.
//
// Owner wins unconditionally. An authenticated user who issued the
// document's live capability gets the capability's flag-scoped rights.
// A guest presenting a token gets the same, provided the token is live
// and bound to this document. Everyone else gets nothing.
func (e *Engine) Resolve(ctx context.Context, principal Principal, doc *model.Document, now int64) (PermSet, error) {
	switch principal.Kind {
	case KindAuthenticated:
		if principal.UserID == doc.OwnerID {
			return ownerPerms, nil
		}
		cap, err := e.liveCapability(ctx, doc, now)
		if err != nil {
			return 0, err
		}
		if cap != nil && cap.IssuerID == principal.UserID {
			return capabilityPerms(cap), nil
		}
		return 0, nil
	case KindGuest:
		cap, err := e.caps.FindValid(ctx, principal.Token, now)
		if err != nil {
			if appErr.IsNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		if cap.DocumentID != doc.ID {
			return 0, nil
		}
		return capabilityPerms(cap), nil
	default:
		return 0, nil
	}
}

func (e *Engine) liveCapability(ctx context.Context, doc *model.Document, now int64) (*model.ShareCapability, error) {
	cap, err := e.caps.GetByDocument(ctx, doc.ID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !cap.Live(now) {
		return nil, nil
	}
	return cap, nil
}

func capabilityPerms(cap *model.ShareCapability) PermSet {
	perms := PermView
	if cap.AllowComments {
		perms |= PermComment
	}
	if cap.AllowDownload {
		perms |= PermDownload
	}
	return perms
}
