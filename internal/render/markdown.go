// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts user-authored markdown into sanitized HTML.
// Sanitization is not optional: every body write goes through a Renderer, and
// the stored HTML never contains anything outside the allow-list.
package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// PostTags is the allow-list for article bodies.
var PostTags = []string{
	"a", "abbr", "acronym", "b", "blockquote", "code",
	"em", "i", "li", "ol", "pre", "strong", "ul",
	"h1", "h2", "h3", "p",
}

// CommentTags is the narrower allow-list for comment bodies.
var CommentTags = []string{
	"a", "abbr", "acronym", "b", "code", "em", "i", "strong",
}

// Renderer turns markdown into HTML restricted to a fixed tag allow-list.
// It is pure and safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a Renderer restricted to the given tags. Bare URLs are
// linkified during markdown conversion; anchors survive sanitization only if
// "a" is in the allow-list, and then only with safe hrefs.
func New(allowedTags []string) *Renderer {
	policy := bluemonday.NewPolicy()
	policy.AllowElements(allowedTags...)
	for _, tag := range allowedTags {
		if tag == "a" {
			policy.AllowAttrs("href").OnElements("a")
			policy.AllowStandardURLs()
		}
	}

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
		),
		policy: policy,
	}
}

// NewForPosts creates a Renderer with the article allow-list.
func NewForPosts() *Renderer {
	return New(PostTags)
}

// NewForComments creates a Renderer with the comment allow-list.
func NewForComments() *Renderer {
	return New(CommentTags)
}

// SafeHTML renders markdown and strips everything outside the allow-list.
// A markdown conversion failure degrades to the escaped source text; raw
// input is never returned.
func (r *Renderer) SafeHTML(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return html.EscapeString(markdown)
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String()))
}
