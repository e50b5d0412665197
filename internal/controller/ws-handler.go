package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/omitnil"
)

var ErrNotJoined = errors.New("session has not joined the room")

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	cl := newClient(c.generateTimeBasedId(), conn, c.logger)

	ctx := context.WithValue(r.Context(), clientCtxKey, cl)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("session_id", cl.id))

	if err := c.connRepo.Add(cl.id, cl); err != nil {
		c.logger.WarnContext(ctx, "failed to register session", "error", err)
		conn.Close()
		return
	}
	defer c.disconnect(context.WithoutCancel(ctx), cl)

	go cl.writePump()
	cl.prepareRead()

	c.logger.InfoContext(ctx, "session connected")
	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.WarnContext(ctx, "websocket closed unexpectedly", "error", err)
		}
	}
}

// disconnect runs once the read loop ends. The participant is removed only if
// this session is still the one it is correlated with.
func (c controller) disconnect(ctx context.Context, cl *client) {
	cl.close()

	session, err := c.connRepo.Remove(cl.id)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to remove session", "error", err)
		return
	}
	c.logger.InfoContext(ctx, "session disconnected", "room_id", session.RoomId, "user_id", session.UserId)

	if session.RoomId == "" {
		return
	}

	c.leaveSession(ctx, session.RoomId, session.UserId, cl.id)
}

func (c controller) leaveSession(ctx context.Context, roomId, userId, sessionId string) {
	disconnectResp, err := c.roomService.DisconnectSession(ctx, &room.DisconnectSessionParams{
		RoomId:    roomId,
		UserId:    userId,
		SessionId: sessionId,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to disconnect session", "room_id", roomId, "error", err)
		return
	}

	if disconnectResp.Removed {
		c.broadcastParticipantsUpdated(ctx, &disconnectResp.Room)
	}
}

// boundClient returns the client of the current message after checking that
// its session joined roomId as userId.
func (c controller) boundClient(ctx context.Context, roomId, userId string) (*client, error) {
	cl := c.getClientFromCtx(ctx)
	if cl == nil {
		return nil, ErrClientClosed
	}

	session, err := c.connRepo.Get(cl.id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.RoomId != roomId || session.UserId != userId {
		return nil, fmt.Errorf("%w: %w", room.ErrInvalidState, ErrNotJoined)
	}

	return cl, nil
}

func (c controller) validateInput(input any) error {
	return c.validate.ValidateStruct(input)
}

type roomInput struct {
	RoomId string `json:"roomId" validate:"required,max=64"`
	UserId string `json:"userId" validate:"required,max=64"`
}

type joinInput struct {
	roomInput
	Username string `json:"username" validate:"max=32"`
}

func (c controller) handleJoin(ctx context.Context, _ *websocket.Conn, input joinInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	cl := c.getClientFromCtx(ctx)
	if cl == nil {
		return ErrClientClosed
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:    input.RoomId,
		UserId:    input.UserId,
		Username:  input.Username,
		SessionId: cl.id,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	prev, err := c.connRepo.Attach(cl.id, input.RoomId, input.UserId)
	if err != nil {
		return fmt.Errorf("failed to attach session: %w", err)
	}

	if prev.RoomId != "" && (prev.RoomId != input.RoomId || prev.UserId != input.UserId) {
		c.leaveSession(ctx, prev.RoomId, prev.UserId, cl.id)
	}

	c.logger.InfoContext(ctx, "participant joined",
		"room_id", input.RoomId,
		"user_id", input.UserId,
		"rejoined", joinRoomResp.Rejoined,
	)

	if err := cl.Send(&Output{
		Type: roomStateType,
		Payload: map[string]any{
			"room":        joinRoomResp.Room,
			"participant": joinRoomResp.Participant,
		},
	}); err != nil {
		return fmt.Errorf("failed to send room state: %w", err)
	}

	c.broadcastParticipantsUpdated(ctx, &joinRoomResp.Room)

	return nil
}

func (c controller) handleLeave(ctx context.Context, _ *websocket.Conn, input roomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	cl, err := c.boundClient(ctx, input.RoomId, input.UserId)
	if err != nil {
		return err
	}

	leaveRoomResp, err := c.roomService.LeaveRoom(ctx, input.RoomId, input.UserId)
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if _, err := c.connRepo.Detach(cl.id); err != nil {
		return fmt.Errorf("failed to detach session: %w", err)
	}

	if leaveRoomResp.Removed {
		c.broadcastParticipantsUpdated(ctx, &leaveRoomResp.Room)
	}

	return nil
}

type playbackInput struct {
	roomInput
	CurrentTime float64 `json:"currentTime" validate:"gte=0"`
}

func (c controller) handlePlay(ctx context.Context, _ *websocket.Conn, input playbackInput) error {
	return c.setPlayback(ctx, "play", input, true, true)
}

func (c controller) handlePause(ctx context.Context, _ *websocket.Conn, input playbackInput) error {
	return c.setPlayback(ctx, "pause", input, false, false)
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, input playbackInput) error {
	return c.setPlayback(ctx, "seek", input, false, false)
}

func (c controller) setPlayback(ctx context.Context, action string, input playbackInput, isPlaying, align bool) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.boundClient(ctx, input.RoomId, input.UserId); err != nil {
		return err
	}

	setPlaybackResp, err := c.roomService.SetPlaybackState(ctx, &room.SetPlaybackStateParams{
		RoomId:            input.RoomId,
		UserId:            input.UserId,
		Position:          input.CurrentTime,
		IsPlaying:         isPlaying,
		AlignParticipants: align,
	})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	c.broadcastSync(ctx, action, &setPlaybackResp.Room)

	return nil
}

func (c controller) handleTimeUpdate(ctx context.Context, _ *websocket.Conn, input playbackInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.boundClient(ctx, input.RoomId, input.UserId); err != nil {
		return err
	}

	reportTimeResp, err := c.roomService.ReportTime(ctx, &room.ReportTimeParams{
		RoomId:   input.RoomId,
		UserId:   input.UserId,
		Position: input.CurrentTime,
	})
	if err != nil {
		return fmt.Errorf("failed to report time: %w", err)
	}

	c.broadcast(ctx, input.RoomId, &Output{
		Type: presenceUpdatedType,
		Payload: omitnil.Compact(map[string]any{
			"room_id":     input.RoomId,
			"user_id":     input.UserId,
			"is_host":     reportTimeResp.IsHost,
			"player":      reportTimeResp.Room.Player,
			"participant": reportTimeResp.Participant,
		}),
	})

	return nil
}

type switchEpisodeInput struct {
	roomInput
	EpisodeId int64 `json:"episodeId" validate:"required,gt=0"`
	SeasonId  int64 `json:"seasonId" validate:"gte=0"`
}

func (c controller) handleSwitchEpisode(ctx context.Context, _ *websocket.Conn, input switchEpisodeInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.boundClient(ctx, input.RoomId, input.UserId); err != nil {
		return err
	}

	switchEpisodeResp, err := c.roomService.SwitchEpisode(ctx, &room.SwitchEpisodeParams{
		RoomId:    input.RoomId,
		UserId:    input.UserId,
		EpisodeId: input.EpisodeId,
		SeasonId:  input.SeasonId,
	})
	if err != nil {
		return fmt.Errorf("failed to switch episode: %w", err)
	}

	c.broadcastEpisodeChanged(ctx, &switchEpisodeResp.Room)

	return nil
}

func (c controller) handleNextEpisode(ctx context.Context, _ *websocket.Conn, input roomInput) error {
	return c.navigate(ctx, input, c.roomService.NextEpisode)
}

func (c controller) handlePreviousEpisode(ctx context.Context, _ *websocket.Conn, input roomInput) error {
	return c.navigate(ctx, input, c.roomService.PreviousEpisode)
}

func (c controller) navigate(
	ctx context.Context,
	input roomInput,
	fn func(context.Context, *room.NavigateParams) (room.NavigateResponse, error),
) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.boundClient(ctx, input.RoomId, input.UserId); err != nil {
		return err
	}

	navigateResp, err := fn(ctx, &room.NavigateParams{
		RoomId: input.RoomId,
		UserId: input.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	c.broadcastEpisodeChanged(ctx, &navigateResp.Room)

	return nil
}

type switchSeasonInput struct {
	roomInput
	SeasonId int64 `json:"seasonId" validate:"required,gt=0"`
}

func (c controller) handleSwitchSeason(ctx context.Context, _ *websocket.Conn, input switchSeasonInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.boundClient(ctx, input.RoomId, input.UserId); err != nil {
		return err
	}

	navigateResp, err := c.roomService.SwitchToSeason(ctx, &room.SwitchToSeasonParams{
		RoomId:   input.RoomId,
		UserId:   input.UserId,
		SeasonId: input.SeasonId,
	})
	if err != nil {
		return fmt.Errorf("failed to switch season: %w", err)
	}

	c.broadcastEpisodeChanged(ctx, &navigateResp.Room)

	return nil
}

func (c controller) handleAlive(ctx context.Context, _ *websocket.Conn, input roomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.boundClient(ctx, input.RoomId, input.UserId); err != nil {
		return err
	}

	if err := c.roomService.Touch(ctx, input.RoomId, input.UserId); err != nil {
		return fmt.Errorf("failed to touch participant: %w", err)
	}

	return nil
}

func (c controller) writeWSError(ctx context.Context, _ *websocket.Conn, err error) {
	_, body := newErrorBody(err)
	c.logger.InfoContext(ctx, "websocket message rejected", "code", body.Code, "error", err)

	cl := c.getClientFromCtx(ctx)
	if cl == nil {
		return
	}

	if err := cl.Send(&Output{Type: errorType, Payload: body}); err != nil {
		c.logger.DebugContext(ctx, "failed to send error", "error", err)
	}
}
