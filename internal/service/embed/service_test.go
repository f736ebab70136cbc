package embed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharetube/embed/internal/broker"
	pageinmemory "github.com/sharetube/embed/internal/repository/page/inmemory"
	statusredis "github.com/sharetube/embed/internal/repository/status/redis"
	"github.com/sharetube/embed/pkg/ytapi"
	"github.com/sharetube/embed/pkg/ytapi/ytapitest"
	"github.com/sharetube/embed/pkg/ytvideodata"
)

type fakeVideoData struct {
	mu    sync.Mutex
	data  map[string]*ytvideodata.VideoData
	calls []string
}

func (f *fakeVideoData) Get(_ context.Context, videoId string) (*ytvideodata.VideoData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, videoId)

	d, ok := f.data[videoId]
	if !ok {
		return nil, ytvideodata.ErrVideoNotFound
	}
	return d, nil
}

func newTestService(t *testing.T, opts broker.Options) *service {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	videoData := &fakeVideoData{data: map[string]*ytvideodata.VideoData{
		"M7lc1UVf-VE": {Title: "YouTube Developers Live", AuthorName: "Google for Developers"},
	}}

	s := NewService(
		pageinmemory.NewRepo[*Page](nil),
		statusredis.NewRepo(rc, time.Hour, nil),
		&Config{Broker: opts, CallTimeout: time.Second},
		nil,
		WithVideoData(videoData),
	)
	t.Cleanup(s.Wait)

	return s
}

// fire resolves the page's player script with a fake factory.
func fire(t *testing.T, s *service, pageId string) *ytapitest.Factory {
	t.Helper()

	p, err := s.getPage(pageId)
	require.NoError(t, err)

	factory := ytapitest.NewFactory()
	require.NoError(t, p.document.FireReady(factory))
	return factory
}

func TestCreatePageQueuesPlayersUntilReady(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{
		Title: "demo",
		Players: []PlayerParams{
			{VideoId: "M7lc1UVf-VE"},
			{ElementId: "main", VideoId: "dQw4w9WgXcQ", Width: 640, Height: 360},
		},
	})
	require.NoError(t, err)

	info := res.Page
	assert.True(t, info.Inserted)
	assert.False(t, info.Ready)
	assert.Equal(t, 2, info.Pending)
	require.Len(t, info.Players, 2)
	assert.Equal(t, "generated-1", info.Players[0].ElementId)
	assert.Equal(t, "main", info.Players[1].ElementId)
	assert.False(t, info.Players[0].Created)

	var html strings.Builder
	require.NoError(t, s.RenderPage(ctx, info.Id, &html))
	assert.Contains(t, html.String(), `id="generated-1"`)
	assert.Contains(t, html.String(), ytapi.ScriptURL)

	factory := fire(t, s, info.Id)

	players := factory.Players()
	require.Len(t, players, 2)
	assert.Equal(t, "generated-1", players[0].ID)
	assert.Equal(t, "main", players[1].ID)
	assert.Equal(t, "dQw4w9WgXcQ", players[1].Options.VideoID)
	assert.Equal(t, 640, players[1].Options.Width)
	assert.Equal(t, ytapi.HostCookie, players[1].Options.Host)

	got, err := s.GetPage(ctx, info.Id)
	require.NoError(t, err)
	assert.True(t, got.Ready)
	assert.Zero(t, got.Pending)
	assert.True(t, got.Players[0].Created)
}

func TestDeferredPageLoadsOnDemand(t *testing.T) {
	s := newTestService(t, broker.Options{DeferLoading: broker.DeferLoading{Enabled: true}})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{VideoId: "M7lc1UVf-VE"}}})
	require.NoError(t, err)
	assert.False(t, res.Page.Inserted)
	assert.Equal(t, 1, res.Page.Pending)

	loaded, err := s.LoadScript(ctx, res.Page.Id)
	require.NoError(t, err)
	assert.True(t, loaded.Inserted)
	assert.False(t, loaded.Ready)

	loaded, err = s.LoadScript(ctx, res.Page.Id)
	require.NoError(t, err)
	assert.True(t, loaded.Inserted)

	factory := fire(t, s, res.Page.Id)
	assert.Len(t, factory.Players(), 1)
}

func TestDeferredPageAutoLoadsOnFirstPlayer(t *testing.T) {
	s := newTestService(t, broker.Options{DeferLoading: broker.DeferLoading{Enabled: true, AutoLoad: true}})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{})
	require.NoError(t, err)
	assert.False(t, res.Page.Inserted)

	_, err = s.AddPlayer(ctx, &AddPlayerParams{PageId: res.Page.Id, Player: PlayerParams{VideoId: "M7lc1UVf-VE"}})
	require.NoError(t, err)

	got, err := s.GetPage(ctx, res.Page.Id)
	require.NoError(t, err)
	assert.True(t, got.Inserted)
}

func TestAddPlayerOnReadyPageIsImmediate(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{})
	require.NoError(t, err)
	factory := fire(t, s, res.Page.Id)

	info, err := s.AddPlayer(ctx, &AddPlayerParams{PageId: res.Page.Id, Player: PlayerParams{ElementId: "late", VideoId: "M7lc1UVf-VE"}})
	require.NoError(t, err)
	assert.True(t, info.Created)
	assert.Equal(t, "late", info.ElementId)

	_, ok := factory.Player("late")
	assert.True(t, ok)
}

func TestAddPlayerRejectsElementIds(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{ElementId: "main"}}})
	require.NoError(t, err)

	_, err = s.AddPlayer(ctx, &AddPlayerParams{PageId: res.Page.Id, Player: PlayerParams{ElementId: "main"}})
	assert.ErrorIs(t, err, ErrDuplicateElement)

	_, err = s.AddPlayer(ctx, &AddPlayerParams{PageId: res.Page.Id, Player: PlayerParams{ElementId: "generated-7"}})
	assert.ErrorIs(t, err, ErrReservedElementId)

	_, err = s.AddPlayer(ctx, &AddPlayerParams{PageId: "missing"})
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestStatusFollowsPlayerEvents(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{ElementId: "main", VideoId: "M7lc1UVf-VE"}}})
	require.NoError(t, err)
	factory := fire(t, s, res.Page.Id)
	s.Wait()

	st, err := s.GetPlayerStatus(ctx, res.Page.Id, "main")
	require.NoError(t, err)
	assert.Equal(t, ytapi.StateUnstarted, st.State)
	assert.Equal(t, "UNSTARTED", st.StateName)
	assert.Equal(t, "YouTube Developers Live", st.Title)
	assert.Equal(t, "Google for Developers", st.Author)

	p, ok := factory.Player("main")
	require.True(t, ok)
	p.EmitStateChange(ytapi.StateBuffering)
	assert.Equal(t, 0, p.CallCount("getCurrentTime"), "buffering has no position")

	p.SetCurrentTime(12.5)
	p.EmitStateChange(ytapi.StatePlaying)

	st, err = s.GetPlayerStatus(ctx, res.Page.Id, "main")
	require.NoError(t, err)
	assert.Equal(t, ytapi.StatePlaying, st.State)
	assert.Empty(t, st.ErrorName)
	assert.Equal(t, 12.5, st.CurrentTime)
	assert.Equal(t, 1, p.CallCount("getCurrentTime"))

	p.EmitError(ytapi.ErrorNotAllowed)

	st, err = s.GetPlayerStatus(ctx, res.Page.Id, "main")
	require.NoError(t, err)
	assert.Equal(t, ytapi.ErrorNotAllowed, st.Error)
	assert.Equal(t, "NOT_ALLOWED", st.ErrorName)

	_, err = s.GetPlayerStatus(ctx, res.Page.Id, "other")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSetPlayerVideo(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{
		{ElementId: "play", VideoId: "M7lc1UVf-VE"},
		{ElementId: "cue", VideoId: "M7lc1UVf-VE", OnVideoIdChange: "cue"},
	}})
	require.NoError(t, err)
	factory := fire(t, s, res.Page.Id)
	s.Wait()

	info, err := s.SetPlayerVideo(ctx, &SetPlayerVideoParams{PageId: res.Page.Id, ElementId: "play", VideoId: "dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", info.VideoId)

	_, err = s.SetPlayerVideo(ctx, &SetPlayerVideoParams{PageId: res.Page.Id, ElementId: "cue", VideoId: "dQw4w9WgXcQ"})
	require.NoError(t, err)

	played, _ := factory.Player("play")
	cued, _ := factory.Player("cue")
	assert.Equal(t, 1, played.CallCount("loadVideoById"))
	assert.Equal(t, 1, cued.CallCount("cueVideoById"))

	s.Wait()
	st, err := s.GetPlayerStatus(ctx, res.Page.Id, "play")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", st.VideoId)
	assert.Empty(t, st.Title)

	_, err = s.SetPlayerVideo(ctx, &SetPlayerVideoParams{PageId: res.Page.Id, ElementId: "nope", VideoId: "x"})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestTogglePlayer(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{ElementId: "main"}}})
	require.NoError(t, err)
	factory := fire(t, s, res.Page.Id)
	p, _ := factory.Player("main")

	_, err = s.TogglePlayer(ctx, &TogglePlayerParams{PageId: res.Page.Id, ElementId: "main", Toggle: TogglePlay})
	require.NoError(t, err)
	assert.Equal(t, 1, p.CallCount("playVideo"))

	p.SetState(ytapi.StatePlaying)
	_, err = s.TogglePlayer(ctx, &TogglePlayerParams{PageId: res.Page.Id, ElementId: "main", Toggle: TogglePlay})
	require.NoError(t, err)
	assert.Equal(t, 1, p.CallCount("pauseVideo"))

	_, err = s.TogglePlayer(ctx, &TogglePlayerParams{PageId: res.Page.Id, ElementId: "main", Toggle: ToggleMute})
	require.NoError(t, err)
	assert.Equal(t, 1, p.CallCount("mute"))

	info, err := s.TogglePlayer(ctx, &TogglePlayerParams{PageId: res.Page.Id, ElementId: "main", Toggle: ToggleLoop})
	require.NoError(t, err)
	assert.True(t, info.Loop)

	info, err = s.TogglePlayer(ctx, &TogglePlayerParams{PageId: res.Page.Id, ElementId: "main", Toggle: ToggleShuffle})
	require.NoError(t, err)
	assert.True(t, info.Shuffle)

	_, err = s.TogglePlayer(ctx, &TogglePlayerParams{PageId: res.Page.Id, ElementId: "main", Toggle: "rewind"})
	assert.ErrorIs(t, err, ErrUnknownToggle)
}

func TestRemovePlayer(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{ElementId: "main"}, {ElementId: "side"}}})
	require.NoError(t, err)
	factory := fire(t, s, res.Page.Id)

	require.NoError(t, s.RemovePlayer(ctx, res.Page.Id, "main"))

	p, _ := factory.Player("main")
	assert.True(t, p.Destroyed())

	_, err = s.GetPlayerStatus(ctx, res.Page.Id, "main")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.ErrorIs(t, s.RemovePlayer(ctx, res.Page.Id, "main"), ErrPlayerNotFound)

	got, err := s.GetPage(ctx, res.Page.Id)
	require.NoError(t, err)
	require.Len(t, got.Players, 1)
	assert.Equal(t, "side", got.Players[0].ElementId)
}

func TestRemovePendingPlayerIsNeverCreated(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{ElementId: "main"}}})
	require.NoError(t, err)
	require.NoError(t, s.RemovePlayer(ctx, res.Page.Id, "main"))

	factory := fire(t, s, res.Page.Id)
	assert.Empty(t, factory.Players())
}

func TestDeletePage(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{Players: []PlayerParams{{ElementId: "main", VideoId: "M7lc1UVf-VE"}}})
	require.NoError(t, err)
	factory := fire(t, s, res.Page.Id)
	s.Wait()

	assert.Equal(t, []string{res.Page.Id}, s.ListPages(ctx))
	require.NoError(t, s.DeletePage(ctx, res.Page.Id))

	p, _ := factory.Player("main")
	assert.True(t, p.Destroyed())
	assert.Empty(t, s.ListPages(ctx))

	_, err = s.GetPage(ctx, res.Page.Id)
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.ErrorIs(t, s.DeletePage(ctx, res.Page.Id), ErrPageNotFound)

	_, err = s.statusRepo.Get(ctx, res.Page.Id, "main")
	assert.Error(t, err)
}

func TestConnectPageAfterReadyIsExpired(t *testing.T) {
	s := newTestService(t, broker.Options{})
	ctx := context.Background()

	res, err := s.CreatePage(ctx, &CreatePageParams{})
	require.NoError(t, err)
	fire(t, s, res.Page.Id)

	err = s.ConnectPage(ctx, &ConnectPageParams{PageId: res.Page.Id})
	assert.ErrorIs(t, err, ErrPageExpired)

	err = s.ConnectPage(ctx, &ConnectPageParams{PageId: "missing"})
	assert.True(t, errors.Is(err, ErrPageNotFound))
}
