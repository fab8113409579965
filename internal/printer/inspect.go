package printer

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Snapshot is what a printed document actually shows
type Snapshot struct {
	ProductName    string
	Quantity       int
	SKU            string
	Image          string
	BarcodePayload string
	BarcodeBars    int
	PageRule       bool
}

// Inspect reads the label values back out of a printable document
func Inspect(document, marker string) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	card := FindByClass(doc, marker)
	if card == nil {
		return nil, &CompositionError{Kind: NotFound}
	}

	snap := &Snapshot{
		PageRule: strings.Contains(document, "size: "+PageWidth+" "+PageHeight+";") &&
			strings.Contains(document, "margin: 0;"),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch attr(n, "data-field") {
			case "productName":
				snap.ProductName = textContent(n)
			case "quantity":
				q, err := strconv.Atoi(strings.TrimSpace(textContent(n)))
				if err == nil {
					snap.Quantity = q
				}
			case "sku":
				snap.SKU = textContent(n)
			}
			if isElement(n, atom.Img) {
				snap.Image = attr(n, "src")
			}
			if isElement(n, atom.Svg) && hasClass(n, "label-barcode") {
				snap.BarcodePayload = attr(n, "data-payload")
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && c.Data == "rect" && attr(c, "fill") == "#000000" {
						snap.BarcodeBars++
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(card)

	return snap, nil
}
