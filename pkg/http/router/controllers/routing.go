package controllers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	helper "github.com/lintang-b-s/indoornav/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type routingAPI struct {
	routingService RoutingService
	validator      *requestValidator
	log            *zap.Logger
}

func New(routingService RoutingService, log *zap.Logger) *routingAPI {
	return &routingAPI{
		routingService: routingService,
		validator:      newRequestValidator(),
		log:            log,
	}
}

func (api *routingAPI) Routes(group *helper.RouteGroup) {
	group.GET("/floors", api.floors)

	floor := group.Group("/buildings/:building/floors/:floor")
	floor.GET("/route", api.route)
	floor.POST("/routes", api.routeBatch)
	floor.POST("/distances", api.distanceMatrix)
	floor.GET("/rooms", api.rooms)
	floor.GET("/room-centers", api.roomCenters)
	floor.POST("/reload", api.reload)
	floor.POST("/transform/inverse", api.inverseTransform)
	floor.POST("/transform/forward", api.forwardTransform)
}

func floorParamsOf(p httprouter.Params) floorParams {
	return floorParams{Building: p.ByName("building"), Floor: p.ByName("floor")}
}

// floors. configured floors with their load state.
func (api *routingAPI) floors(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewFloorsResponse(api.routingService.Floors())}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) route(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := r.URL.Query()
	request := routeRequest{
		floorParams: floorParamsOf(p),
		Start:       query.Get("start"),
		End:         query.Get("end"),
		Format:      query.Get("format"),
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	rec, err := api.routingService.Route(r.Context(), request.Building, request.Floor, request.Start, request.End)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if request.Format == formatGeoJSON {
		headers := make(http.Header)
		headers.Set("Content-Type", "application/geo+json")
		if err := api.writeJSON(w, http.StatusOK, rec.FeatureCollection(), headers); err != nil {
			api.ServerErrorResponse(w, r, err)
		}
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": rec}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) routeBatch(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request batchRouteRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	pairs := request.toRoutePairs()
	results, err := api.routingService.RouteBatch(r.Context(), params.Building, params.Floor, pairs)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewBatchRouteResponse(pairs, results)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// distanceMatrix. walking distances between every pair of the given locations; null where no path exists.
func (api *routingAPI) distanceMatrix(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request distanceMatrixRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	m, err := api.routingService.DistanceMatrix(r.Context(), params.Building, params.Floor, request.Locations)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": m}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) rooms(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	rooms, err := api.routingService.Rooms(params.Building, params.Floor)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewRoomsResponse(rooms)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) roomCenters(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	centers, err := api.routingService.RoomCenters(params.Building, params.Floor)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": centers}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) reload(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	st, err := api.routingService.Reload(r.Context(), params.Building, params.Floor)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewFloorResponse(st)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) inverseTransform(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request inverseTransformRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	pt, err := api.routingService.ToPlanar(params.Building, params.Floor, *request.Lat, *request.Lon)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": pt}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *routingAPI) forwardTransform(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request forwardTransformRequest
	if err := api.readJSON(w, r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	params := floorParamsOf(p)
	if err := api.validator.Struct(params); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	c, err := api.routingService.ToGeographic(params.Building, params.Floor, *request.X, *request.Y)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": c}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
