package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var errMalformedRequest = errors.New("malformed websocket request")

// User. one websocket client. reads and writes are serialized on io.
type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) GetID() uint {
	return u.id
}

// readRequest. reads the next frame. control frames are answered in place and yield a nil request.
func (u *User) readRequest() (*wsRouteRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	// the whole frame is consumed even when it does not decode, otherwise the stream loses sync.
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	req := &wsRouteRequest{}
	if err := json.Unmarshal(payload, req); err != nil {
		return req, fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	return req, nil
}

/*
Route. reads one route query from the connection and writes the route record, or an error
envelope, back to it. a returned error means the connection is unusable and must be removed
from the hub.
*/
func (u *User) Route(ctx context.Context) error {
	req, err := u.readRequest()
	if errors.Is(err, errMalformedRequest) {
		return u.write(envelope{"id": req.ID, "error": errorBody{
			Code:    codeText(http.StatusBadRequest),
			Message: err.Error(),
		}})
	}
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}

	if err := u.hub.validator.Struct(req); err != nil {
		return u.write(envelope{"id": req.ID, "error": errorBody{
			Code:    codeText(http.StatusBadRequest),
			Message: err.Error(),
		}})
	}

	rec, err := u.hub.routingService.Route(ctx, req.Building, req.Floor, req.Start, req.End)
	if err != nil {
		status := statusCode(err)
		return u.write(envelope{"id": req.ID, "error": errorBody{
			Code:    codeText(status),
			Message: errorMessage(status, err),
		}})
	}

	return u.write(envelope{"id": req.ID, "data": rec})
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

// Hub. registry of connected websocket users.
type Hub struct {
	mu  sync.RWMutex
	seq uint
	us  []*User
	ns  map[uint]*User

	routingService RoutingService
	validator      *requestValidator
}

func NewHub(routingService RoutingService) *Hub {
	return &Hub{
		ns:             make(map[uint]*User),
		us:             make([]*User, 0),
		routingService: routingService,
		validator:      newRequestValidator(),
	}
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

// Remove. drops the user and closes its connection. removing twice is a no-op.
func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	if _, ok := h.ns[user.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.ns, user.id)

	// ids are handed out in increasing order so us stays sorted.
	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
	h.mu.Unlock()

	_ = user.conn.Close()
}

func (h *Hub) RemoveAllUser() {
	h.mu.RLock()
	users := make([]*User, len(h.us))
	copy(users, h.us)
	h.mu.RUnlock()

	for _, user := range users {
		h.Remove(user)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}
