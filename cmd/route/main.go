package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/engine/routing"
	"github.com/lintang-b-s/indoornav/pkg/guidance"
	"github.com/lintang-b-s/indoornav/pkg/logger"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "path to config.yaml (default ./data/config.yaml)")
	snapshot   = flag.String("snapshot", "", "graph snapshot written by the preprocessor; start and end are then node ids")
	building   = flag.String("building", "", "building of the floor")
	floor      = flag.String("floor", "", "floor")
	start      = flag.String("start", "", "start room, location or node id")
	end        = flag.String("end", "", "end room, location or node id")
	geojson    = flag.Bool("geojson", false, "print a GeoJSON FeatureCollection instead of the route record")
)

func main() {
	flag.Parse()
	logger, err := logger.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *start == "" || *end == "" {
		flag.Usage()
		os.Exit(2)
	}

	var rec *guidance.RouteRecord
	if *snapshot != "" {
		rec, err = routeSnapshot(logger)
	} else {
		rec, err = routeFloor(logger)
	}
	if err != nil {
		logger.Fatal("route", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *geojson {
		err = enc.Encode(rec.FeatureCollection())
	} else {
		err = enc.Encode(rec)
	}
	if err != nil {
		logger.Fatal("encode", zap.Error(err))
	}
}

func routeSnapshot(logger *zap.Logger) (*guidance.RouteRecord, error) {
	graph, err := datastructure.ReadGraph(*snapshot)
	if err != nil {
		return nil, err
	}
	path, err := routing.NewRoutingEngine(graph, logger).ShortestPath(*start, *end)
	if err != nil {
		return nil, err
	}
	return guidance.NewGenerator(logger).Generate(path.NodeIDs, graph, graph, guidance.RouteOptions{
		Building: graph.GetBuilding(),
		Floor:    graph.GetFloor(),
	})
}

func routeFloor(logger *zap.Logger) (*guidance.RouteRecord, error) {
	if err := util.ReadConfig(*configFile); err != nil {
		return nil, err
	}
	floors, err := util.ReadFloorConfigs()
	if err != nil {
		return nil, err
	}
	navEngine, err := engine.NewEngine(floors, logger, engine.Options{})
	if err != nil {
		return nil, err
	}
	key := engine.NewFloorKey(*building, *floor)
	if err := navEngine.LoadFloor(context.Background(), key); err != nil {
		return nil, err
	}
	return navEngine.Route(context.Background(), key, *start, *end)
}
