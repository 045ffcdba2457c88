// Package view renders the HTML documents of the site with gomponents.
//
// Every function here is pure: the same input produces the same bytes.
package view
