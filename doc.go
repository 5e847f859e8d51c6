// Package widget embeds the PlataPay registration form and agent map into
// third-party pages.
//
// A Loader inserts an iframe into the host page and resizes it as resize
// messages arrive from the frame. An Observer runs inside the frame and posts
// the content height whenever the content changes. The two talk over a
// Channel, which carries messages tagged with the origin of the window that
// posted them.
package widget
