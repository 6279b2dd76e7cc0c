package controllers

import (
	"time"

	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/http/usecases"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
)

const (
	formatJSON    = "json"
	formatGeoJSON = "geojson"
)

type floorParams struct {
	Building string `json:"building" validate:"required,max=64"`
	Floor    string `json:"floor" validate:"required,max=64"`
}

type routeRequest struct {
	floorParams
	Start  string `json:"start" validate:"required,max=128"`
	End    string `json:"end" validate:"required,max=128"`
	Format string `json:"format" validate:"omitempty,oneof=json geojson"`
}

type routePairRequest struct {
	Start string `json:"start" validate:"required,max=128"`
	End   string `json:"end" validate:"required,max=128"`
}

type batchRouteRequest struct {
	Pairs []routePairRequest `json:"pairs" validate:"required,min=1,max=100,dive"`
}

type distanceMatrixRequest struct {
	Locations []string `json:"locations" validate:"required,min=1,max=100,dive,required,max=128"`
}

func (r batchRouteRequest) toRoutePairs() []engine.RoutePair {
	pairs := make([]engine.RoutePair, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		pairs = append(pairs, engine.RoutePair{Start: p.Start, End: p.End})
	}
	return pairs
}

// pointers so that 0 is accepted while a missing field is not.
type inverseTransformRequest struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon *float64 `json:"lon" validate:"required,min=-180,max=180"`
}

type forwardTransformRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

type wsRouteRequest struct {
	ID string `json:"id" validate:"max=64"`
	floorParams
	Start string `json:"start" validate:"required,max=128"`
	End   string `json:"end" validate:"required,max=128"`
}

type batchRouteResult struct {
	Start string                `json:"start"`
	End   string                `json:"end"`
	Route *guidance.RouteRecord `json:"route,omitempty"`
	Error *errorBody            `json:"error,omitempty"`
}

func NewBatchRouteResponse(pairs []engine.RoutePair, results []engine.RouteResult) []batchRouteResult {
	resp := make([]batchRouteResult, 0, len(results))
	for i, res := range results {
		item := batchRouteResult{Start: pairs[i].Start, End: pairs[i].End, Route: res.Route}
		if res.Err != nil {
			status := statusCode(res.Err)
			item.Route = nil
			item.Error = &errorBody{Code: codeText(status), Message: errorMessage(status, res.Err)}
		}
		resp = append(resp, item)
	}
	return resp
}

type floorResponse struct {
	Building      string             `json:"building"`
	Floor         string             `json:"floor"`
	Loaded        bool               `json:"loaded"`
	LoadedAt      *time.Time         `json:"loadedAt,omitempty"`
	Vertices      int                `json:"vertices"`
	Edges         int                `json:"edges"`
	Unresolved    []string           `json:"unresolved,omitempty"`
	DroppedEdges  []navgraph.EdgeRef `json:"droppedEdges,omitempty"`
	RepairedEdges []navgraph.EdgeRef `json:"repairedEdges,omitempty"`
	Components    int                `json:"components,omitempty"`
	Bounds        *boundsResponse    `json:"bounds,omitempty"`
}

type boundsResponse struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

func NewFloorResponse(st usecases.FloorStatus) floorResponse {
	resp := floorResponse{
		Building: st.Building,
		Floor:    st.Floor,
		Loaded:   st.Loaded,
		Vertices: st.Vertices,
		Edges:    st.Edges,
	}
	if st.Loaded {
		loadedAt := st.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	if st.Bounds != nil {
		resp.Bounds = &boundsResponse{
			MinLat: st.Bounds.GetMinLat(),
			MinLon: st.Bounds.GetMinLon(),
			MaxLat: st.Bounds.GetMaxLat(),
			MaxLon: st.Bounds.GetMaxLon(),
		}
	}
	if st.Report != nil {
		resp.Unresolved = st.Report.Unresolved
		resp.DroppedEdges = st.Report.DroppedEdges
		resp.RepairedEdges = st.Report.RepairedEdges
		resp.Components = len(st.Report.Components)
	}
	return resp
}

func NewFloorsResponse(floors []usecases.FloorStatus) []floorResponse {
	resp := make([]floorResponse, 0, len(floors))
	for _, st := range floors {
		resp = append(resp, NewFloorResponse(st))
	}
	return resp
}

type roomResponse struct {
	ID          string          `json:"id"`
	NodeID      string          `json:"nodeId,omitempty"`
	Description string          `json:"description,omitempty"`
	Position    *geo.Coordinate `json:"position,omitempty"`
}

func NewRoomsResponse(rooms []navgraph.Room) []roomResponse {
	resp := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		r := roomResponse{ID: room.ID, NodeID: room.NodeID, Description: room.Description}
		if room.HasPosition {
			pos := room.Position
			r.Position = &pos
		}
		resp = append(resp, r)
	}
	return resp
}
