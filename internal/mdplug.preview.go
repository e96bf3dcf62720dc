package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrPreviewConversion indicates markdown rendering failed.
var ErrPreviewConversion = errors.New("preview conversion failed")

// previewTemplate wraps the rendered fragment in a complete HTML5 document.
const previewTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// Previewer renders transformed markdown to HTML.
type Previewer struct {
	md goldmark.Markdown
}

// NewPreviewer creates a Previewer with GFM extensions. Raw HTML is passed
// through because plugins emit HTML fragments such as "<h1>".
func NewPreviewer() *Previewer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			html.WithXHTML(),
		),
	)
	return &Previewer{md: md}
}

// Fragment renders content to an HTML fragment.
func (p *Previewer) Fragment(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPreviewConversion, err)
	}
	return buf.String(), nil
}

// Document renders content to a standalone HTML5 document.
func (p *Previewer) Document(ctx context.Context, title, content string) (string, error) {
	fragment, err := p.Fragment(ctx, content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(previewTemplate, title, fragment), nil
}
