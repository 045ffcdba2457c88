package view

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// LoginPage is the placeholder served at a local login path.
type LoginPage struct {
	Brand string
	Year  int
}

// Login renders a static page for the login route. It has no form: signing
// in happens in the mobile app.
func Login(p LoginPage) g.Node {
	return document("Log in | "+p.Brand,
		h.Main(h.Class("login"),
			h.Div(h.Class("container"),
				h.H1(g.Text("Log in")),
				h.P(g.Text("Sign in from the "+p.Brand+" app to see your child's bus.")),
				h.A(h.Class("btn btn-primary"), h.Href("/"), g.Text("Back to home")),
			),
		),
		h.Footer(h.Class("site-footer"),
			g.Textf("© %d %s", p.Year, p.Brand),
		),
	)
}
