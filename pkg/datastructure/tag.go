package datastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// enum of represents-tag kind
type TagKind uint8

const (
	TAG_UNKNOWN TagKind = iota
	TAG_ROOM
	TAG_ENTRANCE
	TAG_STAIRS
	TAG_ELEVATOR
	TAG_INTERSECTION
	TAG_TURN
	TAG_BATHROOM
	TAG_BUILDING_LINK
)

var tagKindNames = map[TagKind]string{
	TAG_ROOM:          "room",
	TAG_ENTRANCE:      "entrance",
	TAG_STAIRS:        "stairs",
	TAG_ELEVATOR:      "elevator",
	TAG_INTERSECTION:  "intersection",
	TAG_TURN:          "turn",
	TAG_BATHROOM:      "bathroom",
	TAG_BUILDING_LINK: "building-link",
}

func (k TagKind) String() string {
	if name, ok := tagKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseTagKind. accepts canonical names and the legacy spellings used by older floor definitions.
func ParseTagKind(s string) (TagKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "room":
		return TAG_ROOM, nil
	case "entrance", "exit":
		return TAG_ENTRANCE, nil
	case "stairs", "stair":
		return TAG_STAIRS, nil
	case "elevator":
		return TAG_ELEVATOR, nil
	case "intersection":
		return TAG_INTERSECTION, nil
	case "turn":
		return TAG_TURN, nil
	case "bathroom":
		return TAG_BATHROOM, nil
	case "building-link", "building_link", "building_connection", "building-connection":
		return TAG_BUILDING_LINK, nil
	default:
		return TAG_UNKNOWN, fmt.Errorf("unknown represents kind %q", s)
	}
}

func (k TagKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *TagKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseTagKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// IsRoutingComplexity. turns & intersections count toward the turn metric of a route.
func (k TagKind) IsRoutingComplexity() bool {
	return k == TAG_TURN || k == TAG_INTERSECTION
}

// RepresentsTag. physical feature a graph node stands for.
type RepresentsTag struct {
	Kind              TagKind  `json:"kind"`
	TargetID          string   `json:"targetId,omitempty"`
	DoorID            string   `json:"doorId,omitempty"`
	DestinationFloors []string `json:"destinationFloors,omitempty"`
}

func NewRepresentsTag(kind TagKind, targetID string) RepresentsTag {
	return RepresentsTag{Kind: kind, TargetID: targetID}
}

func (t RepresentsTag) HasTarget() bool {
	return t.TargetID != ""
}

type rawRepresentsTag struct {
	Kind              string          `json:"kind"`
	Type              string          `json:"type"`
	TargetID          string          `json:"targetId"`
	ID                string          `json:"id"`
	DoorID            string          `json:"doorId"`
	Door              string          `json:"door"`
	DestinationFloors json.RawMessage `json:"destinationFloors"`
	GoesTo            json.RawMessage `json:"goesTo"`
}

func (t *RepresentsTag) UnmarshalJSON(data []byte) error {
	var raw rawRepresentsTag
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kindName := firstNonEmpty(raw.Kind, raw.Type)
	kind, err := ParseTagKind(kindName)
	if err != nil {
		return err
	}

	floors, err := decodeStringOrList(raw.DestinationFloors)
	if err != nil {
		return fmt.Errorf("destinationFloors: %w", err)
	}
	if len(floors) == 0 {
		floors, err = decodeStringOrList(raw.GoesTo)
		if err != nil {
			return fmt.Errorf("goesTo: %w", err)
		}
	}

	*t = RepresentsTag{
		Kind:              kind,
		TargetID:          firstNonEmpty(raw.TargetID, raw.ID),
		DoorID:            firstNonEmpty(raw.DoorID, raw.Door),
		DestinationFloors: floors,
	}
	return nil
}

// Tags. ordered represents-tags of one node. decodes from null, a single tag object or an array.
type Tags []RepresentsTag

func (ts *Tags) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*ts = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []RepresentsTag
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*ts = list
		return nil
	}

	var single RepresentsTag
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*ts = Tags{single}
	return nil
}

// FirstTarget. target id of the first tag naming one.
func (ts Tags) FirstTarget() (string, bool) {
	for _, t := range ts {
		if t.HasTarget() {
			return t.TargetID, true
		}
	}
	return "", false
}

// HasRoutingComplexity. true when any tag is a turn or an intersection.
func (ts Tags) HasRoutingComplexity() bool {
	for _, t := range ts {
		if t.Kind.IsRoutingComplexity() {
			return true
		}
	}
	return false
}

func (ts Tags) Targets(id string) bool {
	for _, t := range ts {
		if t.TargetID == id {
			return true
		}
	}
	return false
}

func decodeStringOrList(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
