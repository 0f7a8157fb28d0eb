// Package web embeds the HTML templates and static assets of the prediction UI.
package web

import "embed"

// TemplatesFS contains the page layouts, pages and HTMX partials.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the stylesheet and the form script.
//
//go:embed all:static
var StaticFS embed.FS
