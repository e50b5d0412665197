package controller

import (
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.writeWSError)

	// membership
	wsrouter.Handle(mux, "join", c.handleJoin)
	wsrouter.Handle(mux, "leave", c.handleLeave)
	wsrouter.Handle(mux, "alive", c.handleAlive)

	// player
	wsrouter.Handle(mux, "play", c.handlePlay)
	wsrouter.Handle(mux, "pause", c.handlePause)
	wsrouter.Handle(mux, "seek", c.handleSeek)
	wsrouter.Handle(mux, "timeUpdate", c.handleTimeUpdate)

	// episode
	wsrouter.Handle(mux, "switchEpisode", c.handleSwitchEpisode)
	wsrouter.Handle(mux, "nextEpisode", c.handleNextEpisode)
	wsrouter.Handle(mux, "previousEpisode", c.handlePreviousEpisode)
	wsrouter.Handle(mux, "switchSeason", c.handleSwitchSeason)

	return mux
}
