// Package xmlfile stores settings in an XML document. The group's Tag is an
// etree path selecting the element that holds the settings. A setting named
// "@name" is an attribute of that element; any other name is a slash
// separated path to a descendant element whose text is the value.
package xmlfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"setbridge/internal/atomicfile"
	"setbridge/internal/logger"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
)

// ErrInvalidPath is returned for element paths that cannot be created.
var ErrInvalidPath = errors.New("invalid element path")

// Handler implements settings.Handler for settings.XMLBackend groups.
type Handler struct {
	resolver *resolver.Registry
	log      *slog.Logger
}

// New returns a Handler resolving document paths with reg.
func New(reg *resolver.Registry, log *slog.Logger) *Handler {
	if reg == nil {
		reg = resolver.New()
	}
	return &Handler{resolver: reg, log: logger.Or(log)}
}

func (h *Handler) open(g *settings.Group) (string, *settings.XMLBackend, *etree.Document, error) {
	b, err := settings.BackendOf[*settings.XMLBackend](g)
	if err != nil {
		return "", nil, nil, err
	}
	path, err := b.Path.Resolve(h.resolver)
	if err != nil {
		return "", nil, nil, fmt.Errorf("resolving path %q: %w", b.Path.Raw(), err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return "", nil, nil, fmt.Errorf("reading xml file: %w", err)
	}
	return path, b, doc, nil
}

// Capture reads every setting from the container element. A missing or
// malformed document fails the group; a missing container leaves every
// setting missing.
func (h *Handler) Capture(ctx context.Context, g *settings.Group, list []*settings.Setting) (*settings.Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, b, doc, err := h.open(g)
	if err != nil {
		return nil, err
	}
	container, err := containerOf(doc, b.Tag)
	if err != nil {
		return nil, err
	}

	values := settings.NewValues()
	for _, s := range list {
		raw, ok := lookup(container, s.Name)
		if !ok {
			values.SetMissing(s)
			continue
		}
		values.SetFound(s, raw)
	}
	return values, nil
}

// Apply writes every value, creating the container, child elements and
// attributes as needed. A nil value removes the attribute or element.
func (h *Handler) Apply(ctx context.Context, g *settings.Group, values *settings.Values) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, b, doc, err := h.open(g)
	if err != nil {
		return false, err
	}
	container, err := containerOf(doc, b.Tag)
	if err != nil {
		return false, err
	}
	if container == nil {
		if container, err = create(doc, b.Tag); err != nil {
			return false, err
		}
	}

	ok := true
	for _, e := range values.Entries() {
		name := e.Setting.Name
		if e.Value == nil {
			remove(container, name)
			continue
		}
		text, err := settings.Format(e.Setting.Kind, e.Value)
		if err == nil {
			err = store(container, name, text)
		}
		if err != nil {
			h.log.Warn("xml.setting.skipped", "group", g.Name, "setting", name, "error", err)
			ok = false
		}
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return false, err
	}
	if err := atomicfile.Replace(path, out, 0644); err != nil {
		return false, err
	}
	h.log.Debug("xml.write", "group", g.Name, "path", path, "count", values.Len())
	return ok, nil
}

// containerOf returns the element selected by tag, the document root when
// tag is empty, or nil when nothing matches.
func containerOf(doc *etree.Document, tag string) (*etree.Element, error) {
	if strings.TrimSpace(tag) == "" {
		return doc.Root(), nil
	}
	return find(&doc.Element, tag)
}

// find evaluates an etree path below el.
func find(el *etree.Element, path string) (*etree.Element, error) {
	p, err := etree.CompilePath(path)
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", path, err)
	}
	return el.FindElementPath(p), nil
}

func lookup(container *etree.Element, name string) (string, bool) {
	if container == nil {
		return "", false
	}
	if attr, ok := strings.CutPrefix(name, "@"); ok {
		a := container.SelectAttr(attr)
		if a == nil {
			return "", false
		}
		return a.Value, true
	}
	el, err := find(container, name)
	if err != nil || el == nil {
		return "", false
	}
	return el.Text(), true
}

func store(container *etree.Element, name, text string) error {
	if attr, ok := strings.CutPrefix(name, "@"); ok {
		container.CreateAttr(attr, text)
		return nil
	}
	el, err := descend(container, name)
	if err != nil {
		return err
	}
	el.SetText(text)
	return nil
}

func remove(container *etree.Element, name string) {
	if attr, ok := strings.CutPrefix(name, "@"); ok {
		container.RemoveAttr(attr)
		return
	}
	if el, err := find(container, name); err == nil && el != nil && el.Parent() != nil {
		el.Parent().RemoveChild(el)
	}
}

// simplePath splits a path of plain tag names such as "/a/b" or "a/b".
func simplePath(path string) ([]string, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(path, "./"), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, "[]@*()='\" ") {
			return nil, fmt.Errorf("%q: %w", path, ErrInvalidPath)
		}
	}
	return parts, nil
}

// descend walks a simple path below el, creating missing elements.
func descend(el *etree.Element, path string) (*etree.Element, error) {
	parts, err := simplePath(path)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		child := el.SelectElement(p)
		if child == nil {
			child = el.CreateElement(p)
		}
		el = child
	}
	return el, nil
}

// create builds the container element for tag in doc. The first element of
// the path names the document root.
func create(doc *etree.Document, tag string) (*etree.Element, error) {
	parts, err := simplePath(tag)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	switch {
	case root == nil:
		root = doc.CreateElement(parts[0])
	case root.Tag != parts[0]:
		return nil, fmt.Errorf("tag %q: document root is <%s>: %w", tag, root.Tag, ErrInvalidPath)
	}
	if len(parts) == 1 {
		return root, nil
	}
	return descend(root, strings.Join(parts[1:], "/"))
}

var _ settings.Handler = (*Handler)(nil)
