package view

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/jpalmerr/schoolbus/landing"
)

// Stylesheet is the URL of the embedded stylesheet.
const Stylesheet = "/assets/static/styles.css"

// Page is everything the landing view needs to render.
type Page struct {
	// Title is the document title. Defaults to the content brand.
	Title       string
	Content     landing.Content
	LoginPath   string
	AppStoreURL string
	// Year is printed in the footer.
	Year int
}

// Landing renders the full landing page document.
//
// The page links to LoginPath twice (header nav and hero) and to AppStoreURL
// exactly landing.AppStorePlacements times (hero, download, call to action).
func Landing(p Page) g.Node {
	c := p.Content
	return document(pageTitle(p.Title, c.Brand),
		siteHeader(c.Brand, p.LoginPath),
		h.Main(
			hero(c.Hero, p.LoginPath, p.AppStoreURL),
			features(c.Features),
			g.If(len(c.Gallery) > 0, gallery(c.Gallery)),
			download(c.Download, p.AppStoreURL),
			callToAction(c.CallToAction, p.AppStoreURL),
		),
		siteFooter(c.Footer, p.Year),
	)
}

func document(title string, body ...g.Node) g.Node {
	return h.Doctype(
		h.HTML(h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text(title)),
				h.Link(h.Rel("stylesheet"), h.Href(Stylesheet)),
			),
			h.Body(body...),
		),
	)
}

func pageTitle(title, brand string) string {
	if title != "" {
		return title
	}
	return brand
}

func siteHeader(brand, loginPath string) g.Node {
	return h.Header(h.Class("site-header"),
		h.Div(h.Class("container"),
			h.A(h.Class("brand"), h.Href("/"), g.Text(brand)),
			h.Nav(
				h.A(h.Class("nav-login"), h.Href(loginPath), g.Text("Log in")),
			),
		),
	)
}

func hero(c landing.Hero, loginPath, appStoreURL string) g.Node {
	return h.Section(h.Class("hero"), h.ID("top"),
		h.Div(h.Class("container"),
			h.Div(
				h.H1(g.Text(c.Headline)),
				g.If(c.Tagline != "", h.P(g.Text(c.Tagline))),
				h.Div(h.Class("actions"),
					h.A(h.Class("btn btn-primary"), h.Href(loginPath), g.Text("Get started")),
					appStoreLink(appStoreURL, "btn btn-secondary", g.Text("Download the app")),
				),
			),
			image(c.Image, false),
		),
	)
}

func features(items []landing.Feature) g.Node {
	return h.Section(h.Class("section"), h.ID("features"),
		h.Div(h.Class("container"),
			h.H2(g.Text("Why families use it")),
			h.Div(h.Class("features"),
				g.Map(items, func(f landing.Feature) g.Node {
					return h.Div(h.Class("feature-card"),
						g.If(f.Icon != "", h.Img(h.Src(f.Icon), h.Alt(""), h.Width("40"), h.Height("40"))),
						h.H3(g.Text(f.Title)),
						h.P(g.Text(f.Body)),
					)
				}),
			),
		),
	)
}

func gallery(images []landing.Image) g.Node {
	return h.Section(h.Class("section"), h.ID("gallery"),
		h.Div(h.Class("container"),
			h.H2(g.Text("See it in action")),
			h.Div(h.Class("gallery"),
				g.Map(images, func(img landing.Image) g.Node {
					return h.Figure(image(img, true))
				}),
			),
		),
	)
}

func download(c landing.Download, appStoreURL string) g.Node {
	return h.Section(h.Class("section download"), h.ID("download"),
		h.Div(h.Class("container"),
			h.H2(g.Text(c.Heading)),
			g.If(c.Body != "", h.P(g.Text(c.Body))),
			appStoreLink(appStoreURL, "store-badge", image(c.Badge, false)),
		),
	)
}

func callToAction(c landing.CallToAction, appStoreURL string) g.Node {
	return h.Section(h.Class("section cta"),
		h.Div(h.Class("container"),
			h.H2(g.Text(c.Heading)),
			g.If(c.Body != "", h.P(g.Text(c.Body))),
			appStoreLink(appStoreURL, "btn btn-secondary", g.Text(c.Label)),
		),
	)
}

func siteFooter(c landing.Footer, year int) g.Node {
	return h.Footer(h.Class("site-footer"),
		h.Div(h.Class("container"),
			g.Textf("© %d %s. All rights reserved.", year, c.Owner),
		),
	)
}

// appStoreLink is the only place an app store anchor is built.
func appStoreLink(href, class string, children ...g.Node) g.Node {
	return h.A(h.Class(class), h.Href(href), h.Target("_blank"), h.Rel("noopener noreferrer"),
		g.Group(children),
	)
}

func image(img landing.Image, lazy bool) g.Node {
	return h.Img(h.Src(img.Src), h.Alt(img.Alt),
		g.If(lazy, g.Attr("loading", "lazy")),
	)
}
