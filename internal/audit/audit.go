// Package audit inspects a rendered landing page and checks its navigation
// contract: the page links to the login route, links to the app store a
// fixed number of times, and prints the current year in the footer.
//
// The server runs the check on every fresh render and the CLI runs it from
// `schoolbus validate` and `schoolbus render`.
package audit

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Report is what Inspect found in a document.
type Report struct {
	// Links holds the href of every anchor, in document order.
	Links []string
	// Footer is the whitespace-collapsed text of the first <footer>.
	Footer string
	// HasFooter is false when the document has no <footer> element.
	HasFooter bool
}

// Expectations describe a correct landing page.
type Expectations struct {
	LoginPath     string
	AppStoreURL   string
	AppStoreLinks int
	Year          int
}

// Inspect parses an HTML document and collects its links and footer text.
func Inspect(r io.Reader) (Report, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Report{}, fmt.Errorf("parse html: %w", err)
	}

	var rep Report
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href, ok := attr(n, "href"); ok {
					rep.Links = append(rep.Links, href)
				}
			case "footer":
				if !rep.HasFooter {
					rep.HasFooter = true
					rep.Footer = strings.Join(strings.Fields(text(n)), " ")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return rep, nil
}

// Count returns how many links point exactly at href.
func (r Report) Count(href string) int {
	n := 0
	for _, l := range r.Links {
		if l == href {
			n++
		}
	}
	return n
}

// Check returns every violated expectation joined into one error, or nil.
func (r Report) Check(want Expectations) error {
	var errs []error

	if r.Count(want.LoginPath) == 0 {
		errs = append(errs, fmt.Errorf("no link to login route %q", want.LoginPath))
	}

	if got := r.Count(want.AppStoreURL); got != want.AppStoreLinks {
		errs = append(errs, fmt.Errorf("found %d links to app store %q, want %d",
			got, want.AppStoreURL, want.AppStoreLinks))
	}

	switch {
	case !r.HasFooter:
		errs = append(errs, errors.New("page has no footer"))
	case !strings.Contains(r.Footer, strconv.Itoa(want.Year)):
		errs = append(errs, fmt.Errorf("footer %q does not show year %d", r.Footer, want.Year))
	}

	return errors.Join(errs...)
}

// Verify inspects the document and checks it in one call.
func Verify(r io.Reader, want Expectations) error {
	rep, err := Inspect(r)
	if err != nil {
		return err
	}
	return rep.Check(want)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
