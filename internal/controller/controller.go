package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/cron"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetRoom(context.Context, string) (domain.Room, error)
	ListRooms(context.Context) []domain.Room
	DeleteRoom(context.Context, string) (room.DeleteRoomResponse, error)
	IsHost(ctx context.Context, roomId, userId string) (bool, error)
	// member
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(ctx context.Context, roomId, userId string) (room.LeaveRoomResponse, error)
	DisconnectSession(context.Context, *room.DisconnectSessionParams) (room.DisconnectSessionResponse, error)
	ReportTime(context.Context, *room.ReportTimeParams) (room.ReportTimeResponse, error)
	Touch(ctx context.Context, roomId, userId string) error
	GetParticipants(ctx context.Context, roomId string) ([]domain.Participant, error)
	// player
	SetPlaybackState(context.Context, *room.SetPlaybackStateParams) (room.SetPlaybackStateResponse, error)
	// episode
	SwitchEpisode(context.Context, *room.SwitchEpisodeParams) (room.SwitchEpisodeResponse, error)
	NextEpisode(context.Context, *room.NavigateParams) (room.NavigateResponse, error)
	PreviousEpisode(context.Context, *room.NavigateParams) (room.NavigateResponse, error)
	SwitchToSeason(context.Context, *room.SwitchToSeasonParams) (room.NavigateResponse, error)
	ListSeasons(ctx context.Context, roomId string) ([]domain.Season, error)
	ListEpisodes(ctx context.Context, roomId string, seasonId int64) ([]domain.Episode, error)
}

type iConnRepo interface {
	Add(sessionId string, subscriber connection.Subscriber) error
	Attach(sessionId, roomId, userId string) (connection.Session, error)
	Detach(sessionId string) (connection.Session, error)
	Remove(sessionId string) (connection.Session, error)
	Get(sessionId string) (connection.Session, error)
	GetByRoomId(roomId string) []connection.Session
	DetachRoom(roomId string) []connection.Session
}

type iJobLister interface {
	List() []cron.ListItem
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	jobs        iJobLister
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, connRepo iConnRepo, jobs iJobLister, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		connRepo:    connRepo,
		jobs:        jobs,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
