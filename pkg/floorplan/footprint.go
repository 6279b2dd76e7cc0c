package floorplan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lintang-b-s/indoornav/pkg/transform"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

var ErrFootprintNotFound = errors.New("building footprint not found")

var footprintNameKeys = []string{"name", "building", "id", "ref"}

/*
LoadFootprint. axis-aligned bounds of a named building footprint.

.geojson/.json files are read as a FeatureCollection and matched on the name, building, id or ref
property. .osm/.xml files are read with the osm xml scanner and .pbf files with the osm pbf scanner,
matching closed ways tagged building=* on the same tags. An empty name matches a file with exactly one
footprint.
*/
func LoadFootprint(ctx context.Context, path, name string) (transform.Bounds, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return transform.Bounds{}, err
		}
		return GeoJSONFootprint(data, name)
	case ".osm", ".xml":
		return osmFootprint(ctx, path, name, func(ctx context.Context, r io.Reader) osm.Scanner {
			return osmxml.New(ctx, r)
		})
	case ".pbf":
		return osmFootprint(ctx, path, name, func(ctx context.Context, r io.Reader) osm.Scanner {
			return osmpbf.New(ctx, r, 1)
		})
	default:
		return transform.Bounds{}, fmt.Errorf("unsupported footprint format %q", filepath.Ext(path))
	}
}

func boundsOf(b orb.Bound) transform.Bounds {
	return transform.NewBounds(b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
}

func GeoJSONFootprint(data []byte, name string) (transform.Bounds, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return transform.Bounds{}, err
	}

	var candidates []*geojson.Feature
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if name == "" || propertyMatches(f.Properties, name) {
			candidates = append(candidates, f)
		}
	}

	switch {
	case len(candidates) == 0:
		return transform.Bounds{}, fmt.Errorf("%w: %q", ErrFootprintNotFound, name)
	case len(candidates) > 1 && name == "":
		return transform.Bounds{}, fmt.Errorf("%w: %d footprints and no name given", ErrFootprintNotFound, len(candidates))
	}
	return boundsOf(candidates[0].Geometry.Bound()), nil
}

func propertyMatches(props geojson.Properties, name string) bool {
	for _, key := range footprintNameKeys {
		if v, ok := props[key]; ok && strings.EqualFold(fmt.Sprint(v), name) {
			return true
		}
	}
	return false
}

func tagsMatch(tags osm.Tags, name string) bool {
	if tags.Find("building") == "" {
		return false
	}
	if name == "" {
		return true
	}
	for _, key := range footprintNameKeys {
		if strings.EqualFold(tags.Find(key), name) {
			return true
		}
	}
	return false
}

type scannerFactory func(ctx context.Context, r io.Reader) osm.Scanner

// osmFootprint. two passes: the first finds the building way, the second collects its node coordinates.
func osmFootprint(ctx context.Context, path, name string, newScanner scannerFactory) (transform.Bounds, error) {
	var (
		found   *osm.Way
		matches int
	)
	err := scanFile(ctx, path, newScanner, func(o osm.Object) {
		way, ok := o.(*osm.Way)
		if !ok || !tagsMatch(way.Tags, name) {
			return
		}
		matches++
		if found == nil {
			found = way
		}
	})
	if err != nil {
		return transform.Bounds{}, err
	}
	if found == nil {
		return transform.Bounds{}, fmt.Errorf("%w: %q", ErrFootprintNotFound, name)
	}
	if matches > 1 && name == "" {
		return transform.Bounds{}, fmt.Errorf("%w: %d footprints and no name given", ErrFootprintNotFound, matches)
	}

	wanted := make(map[osm.NodeID]struct{}, len(found.Nodes))
	for _, wn := range found.Nodes {
		wanted[wn.ID] = struct{}{}
	}

	ring := make(orb.LineString, 0, len(found.Nodes))
	err = scanFile(ctx, path, newScanner, func(o osm.Object) {
		node, ok := o.(*osm.Node)
		if !ok {
			return
		}
		if _, want := wanted[node.ID]; want {
			ring = append(ring, node.Point())
		}
	})
	if err != nil {
		return transform.Bounds{}, err
	}
	if len(ring) == 0 {
		return transform.Bounds{}, fmt.Errorf("%w: way %d has no resolvable nodes", ErrFootprintNotFound, found.ID)
	}
	return boundsOf(ring.Bound()), nil
}

func scanFile(ctx context.Context, path string, newScanner scannerFactory, handle func(osm.Object)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := newScanner(ctx, f)
	defer scanner.Close()

	for scanner.Scan() {
		handle(scanner.Object())
	}
	return scanner.Err()
}
