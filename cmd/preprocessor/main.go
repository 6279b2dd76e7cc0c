package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/lintang-b-s/indoornav/pkg/engine"
	"github.com/lintang-b-s/indoornav/pkg/logger"
	"github.com/lintang-b-s/indoornav/pkg/navgraph"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "path to config.yaml (default ./data/config.yaml)")
	building   = flag.String("building", "", "building of the floor to build")
	floor      = flag.String("floor", "", "floor to build")
	out        = flag.String("out", "", "snapshot output path (default ./data/<building>_<floor>.graph)")
	policy     = flag.String("reciprocity", "repair", "one-way connection policy: repair, reject or directed")
)

// preprocessor builds the navigation graph of one configured floor and writes it as a compressed snapshot
// that cmd/route can query without the floor plan.
func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := util.ReadConfig(*configFile); err != nil {
		logger.Fatal("read config", zap.Error(err))
	}
	floors, err := util.ReadFloorConfigs()
	if err != nil {
		logger.Fatal("read floors", zap.Error(err))
	}
	reciprocity, err := navgraph.ParseReciprocityPolicy(*policy)
	if err != nil {
		logger.Fatal("reciprocity policy", zap.Error(err))
	}

	navEngine, err := engine.NewEngine(floors, logger, engine.Options{Policy: reciprocity})
	if err != nil {
		logger.Fatal("create engine", zap.Error(err))
	}

	key := engine.NewFloorKey(*building, *floor)
	if err := navEngine.LoadFloor(context.Background(), key); err != nil {
		logger.Fatal("build floor", zap.Error(err))
	}
	snap, err := navEngine.Snapshot(key)
	if err != nil {
		logger.Fatal("build floor", zap.Error(err))
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("./data/%s_%s.graph", key.Building, key.Floor)
	}
	if err := snap.GetGraph().WriteGraph(path); err != nil {
		logger.Fatal("write snapshot", zap.Error(err))
	}

	report := snap.GetReport()
	logger.Sugar().Infof("Preprocessing completed successfully. %d vertices, %d edges, %d unresolved nodes, %d components written to %s",
		snap.GetGraph().NumberOfVertices(), snap.GetGraph().NumberOfEdges(), len(report.Unresolved),
		len(report.Components), path)
}
