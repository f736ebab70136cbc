// Package document keeps a server-side model of an embedding page and
// renders it. It is the broker's script insertion point and owns the page's
// readiness hook.
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sharetube/embed/pkg/ytapi"
)

var (
	ErrReadyHookTaken = errors.New("readiness hook already installed")
	ErrNoReadyHook    = errors.New("readiness hook not installed")
	ErrNoHead         = errors.New("document has no head")
)

// BridgeScriptPath is where the bridge bootstrap script is served from.
const BridgeScriptPath = "/static/bridge.js"

type Page struct {
	mu       sync.Mutex
	root     *html.Node
	hook     ytapi.ReadyFunc
	inserted string
	onInsert []subscriber
	nextSub  int
}

type subscriber struct {
	id int
	fn func(src string)
}

// New builds an empty page whose head loads the bridge script for pageID.
func New(pageID, title string) *Page {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlNode := element(atom.Html)
	head := element(atom.Head)
	body := element(atom.Body)

	titleNode := element(atom.Title)
	titleNode.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(titleNode)

	bridge := element(atom.Script,
		html.Attribute{Key: "src", Val: BridgeScriptPath},
		html.Attribute{Key: "data-page-id", Val: pageID},
	)
	head.AppendChild(bridge)

	htmlNode.AppendChild(head)
	htmlNode.AppendChild(body)
	root.AppendChild(htmlNode)

	return &Page{root: root}
}

// Parse reads a page from r.
func Parse(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return &Page{root: root}, nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// AppendElement appends an empty div to the body. id may be empty.
func (p *Page) AppendElement(id string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()

	div := element(atom.Div)
	if id != "" {
		div.Attr = append(div.Attr, html.Attribute{Key: "id", Val: id})
	}

	parent := find(p.root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if parent == nil {
		parent = p.root
	}
	parent.AppendChild(div)

	return &Element{page: p, node: div}
}

// ElementByID returns the first element whose id attribute equals id.
func (p *Page) ElementByID(id string) (*Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := find(p.root, func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
	if n == nil {
		return nil, false
	}

	return &Element{page: p, node: n}, true
}

// InsertScript inserts a script tag for src before the first script of the
// page, or into the head when there is none, and installs ready as the
// page's readiness hook. A page has a single hook; a second insertion is
// refused with ErrReadyHookTaken.
func (p *Page) InsertScript(src string, ready ytapi.ReadyFunc) error {
	p.mu.Lock()
	if p.hook != nil {
		p.mu.Unlock()
		return ErrReadyHookTaken
	}

	tag := element(atom.Script, html.Attribute{Key: "src", Val: src})
	if first := find(p.root, func(n *html.Node) bool { return n.DataAtom == atom.Script }); first != nil {
		first.Parent.InsertBefore(tag, first)
	} else {
		head := find(p.root, func(n *html.Node) bool { return n.DataAtom == atom.Head })
		if head == nil {
			p.mu.Unlock()
			return ErrNoHead
		}
		head.AppendChild(tag)
	}

	p.hook = ready
	p.inserted = src
	subs := append([]subscriber(nil), p.onInsert...)
	p.mu.Unlock()

	for _, sub := range subs {
		sub.fn(src)
	}

	return nil
}

// OnScriptInserted calls fn with the script source after the insertion.
// The returned func unsubscribes fn.
func (p *Page) OnScriptInserted(fn func(src string)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextSub++
	id := p.nextSub
	p.onInsert = append(p.onInsert, subscriber{id: id, fn: fn})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.onInsert {
			if sub.id == id {
				p.onInsert = append(p.onInsert[:i], p.onInsert[i+1:]...)
				return
			}
		}
	}
}

// ScriptInserted returns the inserted script source.
func (p *Page) ScriptInserted() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inserted, p.inserted != ""
}

// FireReady invokes the readiness hook with factory.
func (p *Page) FireReady(factory ytapi.Factory) error {
	p.mu.Lock()
	hook := p.hook
	p.mu.Unlock()

	if hook == nil {
		return ErrNoReadyHook
	}

	hook(factory)
	return nil
}

func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := html.Render(w, p.root); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	return nil
}

func (p *Page) String() string {
	var sb strings.Builder
	_ = p.Render(&sb)
	return sb.String()
}

// Element is an element of a Page.
type Element struct {
	page *Page
	node *html.Node
}

func (e *Element) ID() string {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	v, _ := attr(e.node, "id")
	return v
}

func (e *Element) SetID(id string) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()

	for i := range e.node.Attr {
		if e.node.Attr[i].Key == "id" {
			e.node.Attr[i].Val = id
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: "id", Val: id})
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
