package landing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultLoginPath is the route the sign-in links navigate to.
	DefaultLoginPath = "/login"

	// DefaultAppStoreURL is the store listing the download links point at.
	DefaultAppStoreURL = "https://apps.apple.com/app/school-bus-tracker/id6450000000"

	// AppStorePlacements is how many times the landing page links to the
	// app store: once in the hero, once in the download section and once
	// in the call to action.
	AppStorePlacements = 3
)

// Content is the copy and imagery of the landing page.
//
// Content is plain data. Use [DefaultContent] for the shipped copy and
// [Content.Validate] before rendering anything built by hand.
type Content struct {
	Brand        string
	Hero         Hero
	Features     []Feature
	Gallery      []Image
	Download     Download
	CallToAction CallToAction
	Footer       Footer
}

// Hero is the first screen a visitor sees.
type Hero struct {
	Headline string
	Tagline  string
	Image    Image
}

// Feature is a single card in the features grid.
type Feature struct {
	Title string
	Body  string
	// Icon is optional.
	Icon string
}

// Image references a static asset, usually under /assets/images/.
type Image struct {
	Src string
	Alt string
}

// Download is the app-download section.
type Download struct {
	Heading string
	Body    string
	Badge   Image
}

// CallToAction is the closing banner above the footer.
type CallToAction struct {
	Heading string
	Body    string
	Label   string
}

// Footer holds the owner shown after the copyright year.
type Footer struct {
	Owner string
}

// DefaultContent returns the School Bus Tracker marketing copy.
func DefaultContent() Content {
	return Content{
		Brand: "School Bus Tracker",
		Hero: Hero{
			Headline: "Know exactly where the school bus is",
			Tagline:  "Live bus locations, arrival alerts and route updates for parents, drivers and schools.",
			Image:    Image{Src: "/assets/images/hero.svg", Alt: "A school bus on its route"},
		},
		Features: []Feature{
			{
				Title: "Live location",
				Body:  "Follow the bus on the map from the depot to your stop.",
				Icon:  "/assets/images/icon-location.svg",
			},
			{
				Title: "Arrival alerts",
				Body:  "Get a notification a few minutes before the bus reaches your stop.",
				Icon:  "/assets/images/icon-alert.svg",
			},
			{
				Title: "Route history",
				Body:  "See when your child was picked up and dropped off.",
				Icon:  "/assets/images/icon-history.svg",
			},
			{
				Title: "Private by default",
				Body:  "Only families on the route can see where the bus is.",
				Icon:  "/assets/images/icon-shield.svg",
			},
		},
		Gallery: []Image{
			{Src: "/assets/images/gallery-map.svg", Alt: "Live map with the bus position"},
			{Src: "/assets/images/gallery-alerts.svg", Alt: "Arrival notification on a phone"},
			{Src: "/assets/images/gallery-routes.svg", Alt: "List of school routes"},
			{Src: "/assets/images/gallery-driver.svg", Alt: "Driver view of the next stops"},
		},
		Download: Download{
			Heading: "Get the app",
			Body:    "School Bus Tracker is free for families. Download it and add your child's route in a minute.",
			Badge:   Image{Src: "/assets/images/app-store-badge.svg", Alt: "Download on the App Store"},
		},
		CallToAction: CallToAction{
			Heading: "Stop waiting at the bus stop",
			Body:    "Join the schools already using School Bus Tracker.",
			Label:   "Download now",
		},
		Footer: Footer{Owner: "School Bus Tracker"},
	}
}

// Clone returns a deep copy of c.
func (c Content) Clone() Content {
	cp := c
	cp.Features = append([]Feature(nil), c.Features...)
	cp.Gallery = append([]Image(nil), c.Gallery...)
	return cp
}

// Images returns every image source referenced by c, in page order.
func (c Content) Images() []string {
	srcs := []string{c.Hero.Image.Src}
	for _, f := range c.Features {
		if f.Icon != "" {
			srcs = append(srcs, f.Icon)
		}
	}
	for _, img := range c.Gallery {
		srcs = append(srcs, img.Src)
	}
	return append(srcs, c.Download.Badge.Src)
}

// Validate reports the first problem found in c.
func (c Content) Validate() error {
	if strings.TrimSpace(c.Brand) == "" {
		return errors.New("brand is required")
	}
	if strings.TrimSpace(c.Hero.Headline) == "" {
		return errors.New("hero: headline is required")
	}
	if err := c.Hero.Image.validate(); err != nil {
		return fmt.Errorf("hero: image: %w", err)
	}

	if len(c.Features) == 0 {
		return errors.New("features: at least one feature is required")
	}
	for i, f := range c.Features {
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("features[%d]: title is required", i)
		}
		if strings.TrimSpace(f.Body) == "" {
			return fmt.Errorf("features[%d] (%s): body is required", i, f.Title)
		}
	}

	for i, img := range c.Gallery {
		if err := img.validate(); err != nil {
			return fmt.Errorf("gallery[%d]: %w", i, err)
		}
	}

	if strings.TrimSpace(c.Download.Heading) == "" {
		return errors.New("download: heading is required")
	}
	if err := c.Download.Badge.validate(); err != nil {
		return fmt.Errorf("download: badge: %w", err)
	}

	if strings.TrimSpace(c.CallToAction.Heading) == "" {
		return errors.New("call_to_action: heading is required")
	}
	if strings.TrimSpace(c.CallToAction.Label) == "" {
		return errors.New("call_to_action: label is required")
	}

	if strings.TrimSpace(c.Footer.Owner) == "" {
		return errors.New("footer: owner is required")
	}
	return nil
}

func (img Image) validate() error {
	if strings.TrimSpace(img.Src) == "" {
		return errors.New("src is required")
	}
	if strings.TrimSpace(img.Alt) == "" {
		return errors.New("alt text is required")
	}
	return nil
}

// ValidateLoginTarget checks that target is a local absolute path or an
// absolute http(s) URL.
func ValidateLoginTarget(target string) error {
	if target == "" {
		return errors.New("login target is required")
	}
	if IsLocalPath(target) {
		return nil
	}
	if err := validateAbsoluteURL(target); err != nil {
		return fmt.Errorf("login target must be a path starting with / or an absolute URL: %w", err)
	}
	return nil
}

// ValidateAppStoreURL checks that raw is an absolute http(s) URL.
func ValidateAppStoreURL(raw string) error {
	if raw == "" {
		return errors.New("app store url is required")
	}
	return validateAbsoluteURL(raw)
}

// IsLocalPath reports whether target is served by this site rather than
// by another host. Protocol-relative URLs ("//host/...") are not local.
func IsLocalPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}
