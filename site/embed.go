// Package site provides the embedded static assets of the landing page.
//
// The stylesheet and every image the landing page references are compiled
// into the binary, so the site deploys as a single executable.
//
// The assets are served by the server package under "/assets/". Users of the
// schoolbus library should not need to interact with this package directly.
package site

import (
	"embed"
	"io/fs"
	"strings"
)

// URLPrefix is the URL path the assets are mounted at.
const URLPrefix = "/assets/"

// Assets is an embedded filesystem containing the landing page assets.
//
// The filesystem structure is:
//
//	assets/
//	  static/styles.css  - page stylesheet
//	  images/*.svg       - hero, feature icons, gallery and store badge
//
//go:embed assets/*
var Assets embed.FS

// Static returns the assets rooted so that "/assets/images/hero.svg" is
// served from "images/hero.svg".
func Static() fs.FS {
	sub, err := fs.Sub(Assets, "assets")
	if err != nil {
		// "assets" is a valid path, fs.Sub cannot fail here
		panic(err)
	}
	return sub
}

// Has reports whether the URL path src names an embedded file.
// Paths outside URLPrefix are not embedded and report false.
func Has(fsys fs.FS, src string) bool {
	name, ok := strings.CutPrefix(src, URLPrefix)
	if !ok || name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	return err == nil && !info.IsDir()
}
