package catalog

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
)

// DefaultHubID is used to construct camera node ids before any content
// identifier has been observed for the hub.
const DefaultHubID = "01JZW5GP7HJAVQNQXD498N4SKV"

// contentIDDelimiter separates the fields of an opaque camera content
// identifier, e.g. "media-source://reolink/CAM|<hub>|<index>".
const contentIDDelimiter = "|"

// ParseContentID recovers the structured fields of an opaque content
// identifier. The third field is the camera index, the only value that stays
// stable when the upstream catalog reorders its children.
func ParseContentID(contentID string) (kind, hubID string, index int, err error) {
	parts := strings.Split(contentID, contentIDDelimiter)
	if len(parts) < 3 {
		return "", "", 0, fmt.Errorf("content id %q has %d fields, want at least 3", contentID, len(parts))
	}
	index, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("content id %q: field 3 is not an index: %v", contentID, err)
	}
	return parts[0], parts[1], index, nil
}

// IdentityMap is the authoritative camera index to display name mapping for
// one discovery phase. It is rebuilt wholesale from the root listing every
// cycle; display names may repeat or reorder between cycles, so the parsed
// index is the only safe join key.
type IdentityMap struct {
	names map[int]string
	order []int
	hubID string
}

// BuildIdentityMap parses the root listing into a fresh identity map.
// Children whose content identifier does not parse are logged and skipped;
// they never fail the cycle. previousHub seeds the hub id when the listing
// yields none.
func BuildIdentityMap(nodes []Node, previousHub string) *IdentityMap {
	m := &IdentityMap{
		names: make(map[int]string, len(nodes)),
		hubID: previousHub,
	}
	if m.hubID == "" {
		m.hubID = DefaultHubID
	}

	for _, node := range nodes {
		_, hub, index, err := ParseContentID(node.ContentID)
		if err != nil {
			log.Printf("Skipping unparseable catalog child %q: %v", node.Title, err)
			continue
		}
		if _, dup := m.names[index]; dup {
			log.Printf("Duplicate camera index %d for %q, keeping first occurrence", index, node.Title)
			continue
		}
		m.names[index] = node.Title
		m.order = append(m.order, index)
		if hub != "" {
			m.hubID = hub
		}
	}
	return m
}

// Name returns the display name for a camera index.
func (m *IdentityMap) Name(index int) (string, bool) {
	name, ok := m.names[index]
	return name, ok
}

// Indexes returns the camera indexes in discovery order.
func (m *IdentityMap) Indexes() []int {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}

// HubID returns the hub identifier most recently observed in a content id.
func (m *IdentityMap) HubID() string {
	return m.hubID
}

// Len returns the number of resolved cameras.
func (m *IdentityMap) Len() int {
	return len(m.names)
}

// Names returns a name-sorted snapshot of the map for logging.
func (m *IdentityMap) Names() []string {
	out := make([]string, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
