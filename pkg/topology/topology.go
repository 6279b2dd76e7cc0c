// Package topology decodes the declarative walkable-topology description of one floor.
package topology

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/lintang-b-s/indoornav/pkg/datastructure"
	"github.com/lintang-b-s/indoornav/pkg/util"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var ErrInvalidTopology = errors.New("invalid topology description")

//go:embed topology.schema.json
var schemaJSON string

const schemaURL = "topology.schema.json"

var (
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
)

func loadSchema() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		loadErr = err
		return
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		loadErr = err
		return
	}
	schema = s
}

// NodeSpec. declared connections and represents-tags of one node.
type NodeSpec struct {
	Connections []string           `json:"connections"`
	Represents  datastructure.Tags `json:"represents"`
	Note        string             `json:"note,omitempty"`
}

type Description struct {
	Building         string              `json:"building"`
	Floor            string              `json:"floor"`
	Nodes            map[string]NodeSpec `json:"nodes"`
	RoomToNode       map[string]string   `json:"roomToNode"`
	LocationToNode   map[string]string   `json:"locationToNode"`
	RoomDescriptions map[string]string   `json:"roomDescriptions"`
	// Aliases. lowercase spoken name -> location id.
	Aliases map[string]string `json:"aliases"`
}

type rawDescription struct {
	Building         string              `json:"building"`
	Floor            json.RawMessage     `json:"floor"`
	Nodes            map[string]NodeSpec `json:"nodes"`
	NavigationGraph  map[string]NodeSpec `json:"navigationGraph"`
	RoomToNode       map[string]string   `json:"roomToNode"`
	LocationToNode   map[string]string   `json:"locationToNode"`
	RoomDescriptions map[string]string   `json:"roomDescriptions"`
	Aliases          map[string]string   `json:"aliases"`
}

// Decode. validates the description against the embedded schema, then decodes it.
func Decode(r io.Reader) (*Description, error) {
	once.Do(loadSchema)
	if loadErr != nil {
		return nil, util.WrapErrorf(loadErr, util.ErrInternalServerError, "compile topology schema")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
	}

	var raw rawDescription
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
	}

	floor, err := decodeFloor(raw.Floor)
	if err != nil {
		return nil, fmt.Errorf("%w: floor: %v", ErrInvalidTopology, err)
	}

	nodes := raw.Nodes
	if len(nodes) == 0 {
		nodes = raw.NavigationGraph
	}

	desc := &Description{
		Building:         raw.Building,
		Floor:            floor,
		Nodes:            nodes,
		RoomToNode:       orEmpty(raw.RoomToNode),
		LocationToNode:   orEmpty(raw.LocationToNode),
		RoomDescriptions: orEmpty(raw.RoomDescriptions),
		Aliases:          make(map[string]string, len(raw.Aliases)),
	}
	if desc.Nodes == nil {
		desc.Nodes = make(map[string]NodeSpec)
	}
	for alias, target := range raw.Aliases {
		desc.Aliases[strings.ToLower(strings.TrimSpace(alias))] = target
	}
	return desc, nil
}

// Load. Decode of the file at path.
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	desc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// NodeIDs. declared node ids in ascending order.
func (d *Description) NodeIDs() []string {
	return util.SortedKeys(d.Nodes)
}

func decodeFloor(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return make(map[string]string)
	}
	return m
}
