// Package landing defines the content of the School Bus Tracker landing page.
//
// The landing page is static: a hero, feature cards, an image gallery, an
// app-download section, a call to action and a footer. This package holds
// that copy as plain data together with the two navigation targets the page
// links to: the login route and the app store listing.
//
// Rendering lives in the schoolbus package; this package has no
// dependencies so it can be shared by the config loader and the renderer.
package landing
