package portal

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"golang.org/x/net/html"
)

const (
	FieldCSRF        = "csrf"
	FieldParticipant = "form_data[tn][value]"
)

// ErrFieldMissing is returned when a page lacks an expected input field.
var ErrFieldMissing = errors.New("field missing")

// Page is a parsed portal response. Only <input> name/value pairs are kept;
// the first input with a given name wins.
type Page struct {
	inputs map[string]string
}

// ParsePage reads an HTML document and collects its input fields.
func ParsePage(r io.Reader) (*Page, error) {
	p := &Page{inputs: make(map[string]string)}
	z := html.NewTokenizer(r)

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return p, nil
			}
			return nil, fmt.Errorf("parse page: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			tag, hasAttr := z.TagName()
			if !bytes.Equal(tag, []byte("input")) || !hasAttr {
				continue
			}
			p.collectInput(z)
		}
	}
}

func (p *Page) collectInput(z *html.Tokenizer) {
	var name, value string
	var named bool
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "name":
			name, named = string(val), true
		case "value":
			value = string(val)
		}
		if !more {
			break
		}
	}
	if !named {
		return
	}
	if _, seen := p.inputs[name]; !seen {
		p.inputs[name] = value
	}
}

// Field returns the value of the named input.
func (p *Page) Field(name string) (string, bool) {
	v, ok := p.inputs[name]
	return v, ok
}

func (p *Page) require(name string) (string, error) {
	v, ok := p.inputs[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %w: %s", common.ErrAuth, ErrFieldMissing, name)
	}
	return v, nil
}

// CSRFToken returns the anti-forgery token carried by the page.
func (p *Page) CSRFToken() (string, error) {
	return p.require(FieldCSRF)
}

// ParticipantID returns the portal's internal id of the logged-in user.
func (p *Page) ParticipantID() (string, error) {
	return p.require(FieldParticipant)
}
