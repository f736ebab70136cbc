package document

import (
	"strings"
	"testing"

	"github.com/sharetube/embed/pkg/ytapi"
	"github.com/sharetube/embed/pkg/ytapi/ytapitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertScriptBeforeFirstScript(t *testing.T) {
	p := New("page-1", "Embed")

	var notified []string
	p.OnScriptInserted(func(src string) { notified = append(notified, src) })

	require.NoError(t, p.InsertScript(ytapi.ScriptURL, func(ytapi.Factory) {}))

	out := p.String()
	api := strings.Index(out, `<script src="`+ytapi.ScriptURL+`"></script>`)
	bridge := strings.Index(out, `<script src="`+BridgeScriptPath+`"`)
	require.NotEqual(t, -1, api, out)
	require.NotEqual(t, -1, bridge, out)
	assert.Less(t, api, bridge, "player script goes before the first existing script")
	assert.Contains(t, out, `data-page-id="page-1"`)

	src, ok := p.ScriptInserted()
	assert.True(t, ok)
	assert.Equal(t, ytapi.ScriptURL, src)
	assert.Equal(t, []string{ytapi.ScriptURL}, notified)
}

func TestSecondHookIsRefused(t *testing.T) {
	p := New("page-1", "Embed")

	require.NoError(t, p.InsertScript(ytapi.ScriptURL, func(ytapi.Factory) {}))
	err := p.InsertScript(ytapi.ScriptURL, func(ytapi.Factory) {})
	assert.ErrorIs(t, err, ErrReadyHookTaken)
	assert.Equal(t, 1, strings.Count(p.String(), ytapi.ScriptURL), "no duplicate script tags")
}

func TestFireReady(t *testing.T) {
	p := New("page-1", "Embed")
	assert.ErrorIs(t, p.FireReady(ytapitest.NewFactory()), ErrNoReadyHook)

	var got ytapi.Factory
	require.NoError(t, p.InsertScript(ytapi.ScriptURL, func(f ytapi.Factory) { got = f }))

	factory := ytapitest.NewFactory()
	require.NoError(t, p.FireReady(factory))
	assert.Same(t, factory, got)
}

func TestParsedPageWithoutScripts(t *testing.T) {
	p, err := Parse(strings.NewReader(`<!DOCTYPE html><html><head><title>x</title></head><body><div id="my-player"></div></body></html>`))
	require.NoError(t, err)

	require.NoError(t, p.InsertScript(ytapi.ScriptURL, func(ytapi.Factory) {}))
	assert.Contains(t, p.String(), `<head><title>x</title><script src="`+ytapi.ScriptURL+`"></script></head>`)

	el, ok := p.ElementByID("my-player")
	require.True(t, ok)
	assert.Equal(t, "my-player", el.ID())
}

func TestElementIDs(t *testing.T) {
	p := New("page-1", "Embed")

	el := p.AppendElement("")
	assert.Equal(t, "", el.ID())

	el.SetID("generated-1")
	assert.Equal(t, "generated-1", el.ID())
	el.SetID("renamed")
	assert.Contains(t, p.String(), `<div id="renamed"></div>`)

	found, ok := p.ElementByID("renamed")
	require.True(t, ok)
	assert.Equal(t, "renamed", found.ID())

	_, ok = p.ElementByID("generated-1")
	assert.False(t, ok)
}

func TestUnsubscribeScriptInserted(t *testing.T) {
	p := New("page-1", "Embed")

	calls := 0
	stop := p.OnScriptInserted(func(string) { calls++ })
	stop()
	stop()

	require.NoError(t, p.InsertScript(ytapi.ScriptURL, func(ytapi.Factory) {}))
	assert.Equal(t, 0, calls)
}
