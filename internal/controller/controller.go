package controller

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sharetube/embed/internal/service/embed"
	"github.com/sharetube/embed/pkg/validator"
)

type iEmbedService interface {
	CreatePage(context.Context, *embed.CreatePageParams) (embed.CreatePageResponse, error)
	GetPage(ctx context.Context, pageId string) (embed.PageInfo, error)
	ListPages(context.Context) []string
	RenderPage(ctx context.Context, pageId string, w io.Writer) error
	LoadScript(ctx context.Context, pageId string) (embed.LoadScriptResponse, error)
	ConnectPage(context.Context, *embed.ConnectPageParams) error
	DeletePage(ctx context.Context, pageId string) error
	AddPlayer(context.Context, *embed.AddPlayerParams) (embed.PlayerInfo, error)
	SetPlayerVideo(context.Context, *embed.SetPlayerVideoParams) (embed.PlayerInfo, error)
	TogglePlayer(context.Context, *embed.TogglePlayerParams) (embed.PlayerInfo, error)
	RemovePlayer(ctx context.Context, pageId, elementId string) error
	GetPlayerStatus(ctx context.Context, pageId, elementId string) (embed.PlayerStatus, error)
}

type controller struct {
	embedService iEmbedService
	upgrader     websocket.Upgrader
	validate     *validator.Validator
	logger       *slog.Logger
}

func NewController(embedService iEmbedService, logger *slog.Logger) *controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		embedService: embedService,
		validate:     validator.NewValidator(),
		logger:       logger,
	}
}
