package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewer_Fragment(t *testing.T) {
	p := NewPreviewer()

	out, err := p.Fragment(context.Background(), "plain *text*")
	require.NoError(t, err)
	assert.Contains(t, out, "<em>text</em>")
}

func TestPreviewer_PassesRawHTML(t *testing.T) {
	p := NewPreviewer()

	out, err := p.Fragment(context.Background(), "<h1>Title</h1>\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
}

func TestPreviewer_Document(t *testing.T) {
	p := NewPreviewer()

	out, err := p.Document(context.Background(), "notes", "body")
	require.NoError(t, err)
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>notes</title>")
	assert.Contains(t, out, "<p>body</p>")
}

func TestPreviewer_CancelledContext(t *testing.T) {
	p := NewPreviewer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Document(ctx, "t", "body")
	assert.ErrorIs(t, err, context.Canceled)
}
