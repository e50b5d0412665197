package room

import (
	"context"

	"github.com/sharetube/watchparty/internal/domain"
)

type SetPlaybackStateParams struct {
	RoomId    string
	UserId    string
	Position  float64
	IsPlaying bool
	// AlignParticipants moves every participant's observed position to
	// Position, as a play does.
	AlignParticipants bool
}

type SetPlaybackStateResponse struct {
	Room domain.Room
}

// SetPlaybackState overwrites the canonical playback state. Only the host
// may do it.
func (s service) SetPlaybackState(ctx context.Context, params *SetPlaybackStateParams) (SetPlaybackStateResponse, error) {
	if err := validPosition(params.Position); err != nil {
		return SetPlaybackStateResponse{}, err
	}

	a, err := s.checkIfHost(params.RoomId, params.UserId)
	if err != nil {
		return SetPlaybackStateResponse{}, err
	}

	var resp SetPlaybackStateResponse
	if err := a.do(ctx, func(st *roomState) {
		st.currentTime = params.Position
		st.isPlaying = params.IsPlaying
		st.lastActionUserId = params.UserId

		if params.AlignParticipants {
			for _, p := range st.participants {
				p.observedPosition = params.Position
			}
		}

		resp.Room = st.snapshot()
	}); err != nil {
		return SetPlaybackStateResponse{}, err
	}

	return resp, nil
}
