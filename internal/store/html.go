package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// fallbackLocale supplies description/manual content for locales that have
// none of their own.
const fallbackLocale = "en"

// markdown is the shared converter: GFM tables/lists, stable heading ids, and
// raw HTML passed through since manifests embed their own markup.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// LocaleBucket collapses a locale code into the de/en output bucket used for
// file names, document language, and the translation lookup.
func LocaleBucket(locale string) string {
	if strings.HasPrefix(locale, "de") {
		return "de"
	}
	return "en"
}

// OutputFileName returns the HTML file name for a locale, e.g. store_de.html.
func OutputFileName(locale string) string {
	return "store_" + LocaleBucket(locale) + ".html"
}

// BuildLocaleHTML assembles the standalone HTML document for one locale:
// description, installation manual, highlights, and features, each rendered
// only when present. File-referenced content resolves against baseDir.
func (m *Manifest) BuildLocaleHTML(locale, baseDir string) (string, error) {
	description, err := m.localeContent(m.Description, locale, baseDir)
	if err != nil {
		return "", err
	}
	manual, err := m.localeContent(m.Manual, locale, baseDir)
	if err != nil {
		return "", err
	}

	descriptionHTML, err := markdownToHTML(description)
	if err != nil {
		return "", err
	}
	manualHTML, err := markdownToHTML(manual)
	if err != nil {
		return "", err
	}

	var sections []string
	if descriptionHTML != "" {
		sections = append(sections, fmt.Sprintf("<section id='description'>%s</section>", descriptionHTML))
	}
	if manualHTML != "" {
		sections = append(sections, fmt.Sprintf("<section id='installation-manual'><h2>Installation</h2>%s</section>", manualHTML))
	}
	if highlights := m.Highlights[locale]; len(highlights) > 0 {
		sections = append(sections, fmt.Sprintf("<section id='highlights'><h2>Highlights</h2>%s</section>", listBlock(highlights)))
	}
	if features := m.Features[locale]; len(features) > 0 {
		sections = append(sections, fmt.Sprintf("<section id='features'><h2>Features</h2>%s</section>", listBlock(features)))
	}

	doc := fmt.Sprintf(`<!doctype html>
<html lang="%s">
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<body>
%s
</body>
</html>`, LocaleBucket(locale), strings.Join(sections, "\n"))

	return doc, nil
}

// localeContent resolves a locale's entry, falling back to the default locale
// when the entry is missing or empty.
func (m *Manifest) localeContent(entries map[string]Content, locale, baseDir string) (string, error) {
	text, err := entries[locale].Resolve(baseDir)
	if err != nil {
		return "", err
	}
	if text != "" || locale == fallbackLocale {
		return text, nil
	}

	fallback, ok := entries[fallbackLocale]
	if !ok {
		return text, nil
	}
	return fallback.Resolve(baseDir)
}

// WriteLocaleHTML writes the document for a locale into outDir and returns
// the written path. Locales sharing a bucket overwrite the same file; the
// manifest's last locale wins.
func WriteLocaleHTML(outDir, locale, doc string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	out := filepath.Join(outDir, OutputFileName(locale))
	if err := atomic.WriteFile(out, strings.NewReader(doc)); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

func markdownToHTML(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}

func listBlock(items []string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, item := range items {
		b.WriteString("<li>")
		b.WriteString(item)
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}
