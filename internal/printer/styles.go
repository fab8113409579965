package printer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrCrossOrigin marks a stylesheet whose rules cannot be read
var ErrCrossOrigin = errors.New("cross-origin stylesheet")

// StyleSheet is one source of style rules
type StyleSheet interface {
	Name() string
	Rules(ctx context.Context) ([]string, error)
}

// StylingContext lists the stylesheets that apply to a host document
type StylingContext interface {
	StyleSheets(ctx context.Context, doc *html.Node) []StyleSheet
}

// Resolver loads the text of a linked stylesheet. It returns ErrCrossOrigin
// (or any error) for sheets that cannot be read.
type Resolver func(ctx context.Context, href string) (string, error)

// HostStyles collects <style> elements and <link rel="stylesheet"> sheets from the host document
type HostStyles struct {
	Resolve Resolver
}

func (h HostStyles) StyleSheets(_ context.Context, doc *html.Node) []StyleSheet {
	var sheets []StyleSheet
	inline := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case isElement(n, atom.Style):
			inline++
			sheets = append(sheets, inlineSheet{
				name: fmt.Sprintf("inline #%d", inline),
				text: textContent(n),
			})
		case isElement(n, atom.Link) && isStylesheetLink(n):
			sheets = append(sheets, linkedSheet{href: attr(n, "href"), resolve: h.Resolve})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return sheets
}

func isStylesheetLink(n *html.Node) bool {
	for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
		if rel == "stylesheet" {
			return true
		}
	}
	return false
}

// StaticSheets is a fixed list of sheets, ignoring the document
type StaticSheets []StyleSheet

func (s StaticSheets) StyleSheets(context.Context, *html.Node) []StyleSheet { return s }

// Sheet is a stylesheet with known text
func Sheet(name, text string) StyleSheet {
	return inlineSheet{name: name, text: text}
}

type inlineSheet struct {
	name string
	text string
}

func (s inlineSheet) Name() string { return s.name }

func (s inlineSheet) Rules(context.Context) ([]string, error) {
	text := strings.TrimSpace(s.text)
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

type linkedSheet struct {
	href    string
	resolve Resolver
}

func (s linkedSheet) Name() string { return s.href }

func (s linkedSheet) Rules(ctx context.Context) ([]string, error) {
	if s.resolve == nil {
		return nil, fmt.Errorf("%s: %w", s.href, ErrCrossOrigin)
	}
	text, err := s.resolve(ctx, s.href)
	if err != nil {
		return nil, err
	}
	return inlineSheet{name: s.href, text: text}.Rules(ctx)
}
