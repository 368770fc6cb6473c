package syncer

import (
	"context"

	"github.com/dmitrijs2005/mdrzasync/internal/portal"
)

// Page is what the portal answers with. It carries the next anti-forgery
// token and, after login, the participant id.
type Page interface {
	CSRFToken() (string, error)
	ParticipantID() (string, error)
}

// Session is one user's authenticated portal session.
type Session interface {
	Submit(ctx context.Context, e portal.Entry, token string) (Page, error)
}

// Remover is implemented by sessions that can delete an entry the portal
// already holds. Modified trips are removed before they are submitted again
// when the session supports it; otherwise they are only inserted. Remove may
// return common.ErrNotImplemented to fall back to inserting for one entry.
type Remover interface {
	Remove(ctx context.Context, e portal.Entry, token string) (Page, error)
}

// Portal opens sessions.
type Portal interface {
	Login(ctx context.Context, username, password string) (Session, Page, error)
}

// Decrypter recovers the plaintext portal password.
type Decrypter interface {
	Decrypt(encoded string) (string, error)
}

// NewHTTPPortal adapts a portal.Client to Portal.
func NewHTTPPortal(c *portal.Client) Portal {
	return httpPortal{c: c}
}

type httpPortal struct {
	c *portal.Client
}

func (p httpPortal) Login(ctx context.Context, username, password string) (Session, Page, error) {
	s, page, err := p.c.Login(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}
	return httpSession{s: s}, page, nil
}

type httpSession struct {
	s *portal.Session
}

func (s httpSession) Submit(ctx context.Context, e portal.Entry, token string) (Page, error) {
	page, err := s.s.Submit(ctx, e, token)
	if err != nil {
		return nil, err
	}
	return page, nil
}
