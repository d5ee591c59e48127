// Package templates renders the HTML fragments returned to HTMX clients.
//
// The components live in .templ files; run templ generate after editing them.
package templates
