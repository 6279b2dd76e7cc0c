package datastructure

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/indoornav/pkg/geo"
	"github.com/lintang-b-s/indoornav/pkg/util"
)

const snapshotMagic = "indoornav-graph-v1"

/*
WriteGraph. writes g as a bzip2 compressed, tab separated text snapshot:

	magic
	quoted building \t quoted floor \t numVertices \t numEdges
	per vertex: quoted key \t x \t y \t lat \t lon \t quoted tags json
	per edge:   tail \t head \t weight
*/
func (g *Graph) WriteGraph(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := g.Encode(f); err != nil {
		return err
	}
	return f.Sync()
}

func (g *Graph) Encode(out io.Writer) error {
	bz, err := bzip2.NewWriter(out, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)

	fmt.Fprintf(w, "%s\n", snapshotMagic)
	fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", strconv.Quote(g.building), strconv.Quote(g.floor),
		len(g.vertices), len(g.outEdges))

	for _, v := range g.vertices {
		tagsJSON, err := json.Marshal(v.tags)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", strconv.Quote(v.key),
			formatFloat(v.planar.X), formatFloat(v.planar.Y),
			formatFloat(v.lat), formatFloat(v.lon),
			strconv.Quote(string(tagsJSON)))
	}

	for u := range g.vertices {
		for i := g.firstOut[u]; i < g.firstOut[u+1]; i++ {
			e := g.outEdges[i]
			fmt.Fprintf(w, "%d\t%d\t%s\n", u, e.head, formatFloat(e.weight))
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return bz.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ReadGraph(filename string) (*Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeGraph(f)
}

func DecodeGraph(in io.Reader) (*Graph, error) {
	bz, err := bzip2.NewReader(in, nil)
	if err != nil {
		return nil, err
	}
	defer bz.Close()

	br := bufio.NewReader(bz)

	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}
	if line != snapshotMagic {
		return nil, fmt.Errorf("not a graph snapshot: unexpected header %q", line)
	}

	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}
	tokens := strings.Split(line, "\t")
	if len(tokens) != 4 {
		return nil, fmt.Errorf("malformed snapshot header %q", line)
	}
	building, err := strconv.Unquote(tokens[0])
	if err != nil {
		return nil, fmt.Errorf("building: %w", err)
	}
	floor, err := strconv.Unquote(tokens[1])
	if err != nil {
		return nil, fmt.Errorf("floor: %w", err)
	}
	numVertices, err := strconv.Atoi(tokens[2])
	if err != nil {
		return nil, err
	}
	numEdges, err := strconv.Atoi(tokens[3])
	if err != nil {
		return nil, err
	}
	if numVertices < 0 || numEdges < 0 {
		return nil, fmt.Errorf("malformed snapshot header %q: negative count", line)
	}

	vertices := make([]*Vertex, numVertices)
	for i := 0; i < numVertices; i++ {
		vertexLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		vertices[i], err = parseVertex(vertexLine)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
	}

	adj := make(map[string][]Edge, numVertices)
	for i := 0; i < numEdges; i++ {
		edgeLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tail, head, weight, err := parseEdge(edgeLine, numVertices)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		tailKey := vertices[tail].key
		adj[tailKey] = append(adj[tailKey], Edge{To: vertices[head].key, Weight: weight})
	}

	return NewGraph(building, floor, vertices, adj), nil
}

func parseVertex(line string) (*Vertex, error) {
	tokens := strings.Split(line, "\t")
	if len(tokens) != 6 {
		return nil, fmt.Errorf("expected 6 fields, got %d", len(tokens))
	}
	key, err := strconv.Unquote(tokens[0])
	if err != nil {
		return nil, err
	}
	nums := make([]float64, 4)
	for i := 0; i < 4; i++ {
		nums[i], err = strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return nil, err
		}
	}
	tagsJSON, err := strconv.Unquote(tokens[5])
	if err != nil {
		return nil, err
	}
	var tags Tags
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, err
	}

	return NewVertex(key, NewPlanarPoint(nums[0], nums[1]), geo.NewCoordinate(nums[2], nums[3]), tags), nil
}

func parseEdge(line string, numVertices int) (int, int, float64, error) {
	tokens := strings.Split(line, "\t")
	if len(tokens) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3 fields, got %d", len(tokens))
	}
	tail, err := strconv.Atoi(tokens[0])
	if err != nil {
		return 0, 0, 0, err
	}
	head, err := strconv.Atoi(tokens[1])
	if err != nil {
		return 0, 0, 0, err
	}
	if tail < 0 || tail >= numVertices || head < 0 || head >= numVertices {
		return 0, 0, 0, fmt.Errorf("edge %d -> %d out of range", tail, head)
	}
	weight, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return 0, 0, 0, err
	}
	return tail, head, weight, nil
}
