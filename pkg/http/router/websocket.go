package router

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/indoornav/pkg/concurrent"
	"github.com/lintang-b-s/indoornav/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/indoornav/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"go.uber.org/zap"
)

const (
	defaultWebsocketWorkers = 32
	websocketQueueSize      = 64
)

// startWebsocket. sets up the hub, the reader pool and the poller, and tears them down when ctx is done.
func (api *API) startWebsocket(ctx context.Context, config http_server.Config, routingService controllers.RoutingService) {
	workers := config.WebsocketWorkers
	if workers < 1 {
		workers = defaultWebsocketWorkers
	}
	api.pool = concurrent.NewPool(workers, websocketQueueSize)
	api.pool.Spawn(min(workers, 4))
	api.hub = controllers.NewHub(routingService)

	poller, err := netpoll.New(nil)
	if err != nil {
		api.log.Warn("netpoll unavailable, websocket connections get a reader goroutine each", zap.Error(err))
	} else {
		api.poller = poller
	}

	go func() {
		<-ctx.Done()
		api.hub.RemoveAllUser()
		api.pool.Close()
		api.log.Info("websocket server stopped")
	}()
}

/*
handleWebsocket. upgrades GET /ws and registers the connection with the hub.
use epoll api to reduce memory stack, ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
instead of one goroutine blocked in read per connection, the connection's descriptor is added to the
epoll interest list and a pool goroutine is scheduled only when a frame is ready to be read.
*/
func (api *API) handleWebsocket(ctx context.Context) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, _, hs, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			api.log.Info("upgrade error", zap.Error(err), zap.String("remote", r.RemoteAddr))
			return
		}
		// the server's read/write deadlines must not apply to a long lived connection.
		_ = conn.SetDeadline(time.Time{})

		api.log.Info("established websocket connection", zap.String("connection name", nameConn(conn)),
			zap.String("protocol", hs.Protocol))

		api.handle(ctx, conn)
	}
}

func (api *API) handle(ctx context.Context, conn net.Conn) {
	user := api.hub.Register(conn)

	if api.poller == nil {
		go api.serve(ctx, user)
		return
	}

	desc, err := netpoll.HandleRead(conn)
	if err != nil {
		// not a pollable socket (tls, in-memory pipes)
		api.log.Debug("connection is not pollable", zap.Error(err))
		go api.serve(ctx, user)
		return
	}

	release := sync.OnceFunc(func() {
		_ = api.poller.Stop(desc)
		_ = desc.Close()
		api.hub.Remove(user)
	})

	err = api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			api.log.Debug("user disconnected from websocket server", zap.Uint("user", user.GetID()))
			release()
			return
		}

		// spawn goroutine from goroutine pool to handle the request
		err := api.pool.Schedule(func() {
			if err := user.Route(ctx); err != nil {
				api.log.Debug("closing websocket connection", zap.Uint("user", user.GetID()), zap.Error(err))
				release()
			}
		})
		if err != nil {
			release()
		}
	})
	if err != nil {
		api.log.Warn("netpoll start failed", zap.Error(err))
		_ = desc.Close()
		go api.serve(ctx, user)
	}
}

// serve. blocking read loop for connections the poller cannot watch.
func (api *API) serve(ctx context.Context, user *controllers.User) {
	defer api.hub.Remove(user)
	for ctx.Err() == nil {
		if err := user.Route(ctx); err != nil {
			api.log.Debug("closing websocket connection", zap.Uint("user", user.GetID()), zap.Error(err))
			return
		}
	}
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
