package layout

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Rack and floor zone dimensions.
const (
	RackColumns = 9
	FloorSlots  = 18

	rackPrefix  = "A"
	floorPrefix = "ZA"
)

var (
	rackRe  = regexp.MustCompile(`^A-(\d+)-(\d+)(?:-([HMB]))?$`)
	floorRe = regexp.MustCompile(`^ZA-(\d+)$`)
)

// Zone identifies the address family of a location.
type Zone string

const (
	ZoneRack  Zone = "RACK"
	ZoneFloor Zone = "FLOOR"
)

// Subposition is the vertical position of a slot inside a rack cell.
type Subposition string

const (
	SubNone   Subposition = ""
	SubTop    Subposition = "H"
	SubMiddle Subposition = "M"
	SubBottom Subposition = "B"
)

// levelSubpositions is the rack layout table. Level 2 only has a bottom slot.
var levelSubpositions = map[int][]Subposition{
	3: {SubNone},
	0: {SubTop, SubMiddle, SubBottom},
	1: {SubTop, SubBottom},
	2: {SubBottom},
}

// generationLevels is the order in which levels are emitted per column.
var generationLevels = []int{0, 1, 2, 3}

// DisplayLevels is the top-down order used by grid views.
var DisplayLevels = []int{3, 2, 1, 0}

// Location is the decoded form of a location identifier.
type Location struct {
	Zone   Zone        `json:"zone"`
	Column int         `json:"col,omitempty"`
	Level  int         `json:"level"`
	Sub    Subposition `json:"subpos,omitempty"`
	Number int         `json:"number,omitempty"`
}

// ID encodes the location back into its identifier.
func (l Location) ID() string {
	if l.Zone == ZoneFloor {
		return fmt.Sprintf("%s-%d", floorPrefix, l.Number)
	}
	if l.Sub == SubNone {
		return fmt.Sprintf("%s-%d-%d", rackPrefix, l.Column, l.Level)
	}
	return fmt.Sprintf("%s-%d-%d-%s", rackPrefix, l.Column, l.Level, l.Sub)
}

// RackLocations returns every rack location, column by column.
func RackLocations() []Location {
	locs := make([]Location, 0, RackColumns*7)
	for col := 1; col <= RackColumns; col++ {
		for _, level := range generationLevels {
			for _, sub := range levelSubpositions[level] {
				locs = append(locs, Location{Zone: ZoneRack, Column: col, Level: level, Sub: sub})
			}
		}
	}
	return locs
}

// FloorLocations returns the floor zone locations ZA-1..ZA-18.
func FloorLocations() []Location {
	locs := make([]Location, 0, FloorSlots)
	for n := 1; n <= FloorSlots; n++ {
		locs = append(locs, Location{Zone: ZoneFloor, Number: n})
	}
	return locs
}

// GenerateAllLocationIDs returns the full, fixed set of location ids.
func GenerateAllLocationIDs() []string {
	rack := RackLocations()
	floor := FloorLocations()
	ids := make([]string, 0, len(rack)+len(floor))
	for _, l := range rack {
		ids = append(ids, l.ID())
	}
	for _, l := range floor {
		ids = append(ids, l.ID())
	}
	return ids
}

// ParseLocation decodes a location identifier. Ids outside the layout table
// return an error; callers treat that as "no metadata".
func ParseLocation(id string) (Location, error) {
	s := strings.TrimSpace(id)

	if m := floorRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > FloorSlots {
			return Location{}, fmt.Errorf("floor slot out of range: %q", id)
		}
		return Location{Zone: ZoneFloor, Number: n}, nil
	}

	m := rackRe.FindStringSubmatch(s)
	if m == nil {
		return Location{}, fmt.Errorf("unable to parse location: %q", id)
	}
	col, err := strconv.Atoi(m[1])
	if err != nil || col < 1 || col > RackColumns {
		return Location{}, fmt.Errorf("rack column out of range: %q", id)
	}
	level, err := strconv.Atoi(m[2])
	if err != nil {
		return Location{}, fmt.Errorf("invalid rack level: %q", id)
	}
	subs, ok := levelSubpositions[level]
	if !ok {
		return Location{}, fmt.Errorf("rack level out of range: %q", id)
	}
	sub := Subposition(m[3])
	for _, allowed := range subs {
		if allowed == sub {
			return Location{Zone: ZoneRack, Column: col, Level: level, Sub: sub}, nil
		}
	}
	return Location{}, fmt.Errorf("subposition %q not available at level %d: %q", sub, level, id)
}

// IsFloorZone reports whether id belongs to the floor zone. Prefix test only.
func IsFloorZone(id string) bool {
	return strings.HasPrefix(id, floorPrefix)
}

// Valid reports whether id is part of the generated layout.
func Valid(id string) bool {
	_, err := ParseLocation(id)
	return err == nil
}

var subOrder = map[string]int{"B": 0, "M": 1, "H": 2}

// Compare orders location ids for list views: rack before floor, rack ids by
// natural order of their column-level prefix with B < M < H on ties.
func Compare(a, b string) int {
	aFloor, bFloor := IsFloorZone(a), IsFloorZone(b)
	switch {
	case aFloor && !bFloor:
		return 1
	case !aFloor && bFloor:
		return -1
	case !aFloor && !bFloor:
		pa, pb := strings.Split(a, "-"), strings.Split(b, "-")
		if prefix(pa) == prefix(pb) {
			return subOrder[part(pa, 3)] - subOrder[part(pb, 3)]
		}
	}
	return NaturalCompare(a, b)
}

// Sort sorts ids in place with Compare.
func Sort(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool { return Compare(ids[i], ids[j]) < 0 })
}

func prefix(parts []string) string {
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "-")
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// NaturalCompare compares strings treating digit runs as numbers.
func NaturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := strings.TrimLeft(a[si:i], "0")
			nb := strings.TrimLeft(b[sj:j], "0")
			if len(na) != len(nb) {
				return len(na) - len(nb)
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if ca != cb {
			return int(ca) - int(cb)
		}
		i++
		j++
	}
	return (len(a) - i) - (len(b) - j)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
