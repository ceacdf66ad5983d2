package layout

import (
	"fmt"
	"strings"
)

// PositionWord returns the operator wording for a rack subposition.
// Level 2 has a single slot and no wording, level 3 answers its level
// number and floor slots use their number.
func PositionWord(id string) string {
	loc, err := ParseLocation(id)
	if err != nil {
		return ""
	}
	if loc.Zone == ZoneFloor {
		return fmt.Sprintf("#%d", loc.Number)
	}
	if loc.Level == 2 {
		return ""
	}
	switch loc.Sub {
	case SubTop:
		return "HAUT"
	case SubMiddle:
		return "MILIEU"
	case SubBottom:
		return "BAS"
	}
	return fmt.Sprintf("%d", loc.Level)
}

// LongLabel formats an id for spreadsheet exports, e.g. "A - 5 - 0 (BAS)".
func LongLabel(id string) string {
	if IsFloorZone(id) {
		return strings.Replace(id, "ZA-", "ZONE A - ", 1)
	}
	parts := strings.Split(id, "-")
	label := strings.Join(parts[:min(3, len(parts))], " - ")
	switch part(parts, 3) {
	case "B":
		return label + " (BAS)"
	case "M":
		return label + " (MILIEU)"
	case "H":
		return label + " HAUT"
	}
	return label
}

// ShortLabel formats an id for the archive view, e.g. "5-0 (B)" or "SOL 3".
func ShortLabel(id string) string {
	if id == "" {
		return "-"
	}
	if IsFloorZone(id) {
		return strings.Replace(id, "ZA-", "SOL ", 1)
	}
	parts := strings.Split(id, "-")
	label := ""
	if len(parts) > 1 {
		label = strings.Join(parts[1:min(3, len(parts))], "-")
	}
	if sub := part(parts, 3); sub != "" {
		label += " (" + sub + ")"
	}
	return label
}

// Section groups rack columns for the paged grid view.
type Section struct {
	Name    string `json:"name"`
	Columns []int  `json:"columns"`
}

// Sections lists the grid pages; index 0 is the full view.
var Sections = []Section{
	{Name: "FULL", Columns: []int{3, 2, 1, 6, 5, 4, 9, 8, 7}},
	{Name: "SECTION_1", Columns: []int{3, 2, 1}},
	{Name: "SECTION_2", Columns: []int{6, 5, 4}},
	{Name: "SECTION_3", Columns: []int{9, 8, 7}},
}

// GridCell is one column/level cell of the rack grid with its slot ids.
type GridCell struct {
	Column int      `json:"col"`
	Level  int      `json:"level"`
	Label  string   `json:"label"`
	Slots  []string `json:"slots"`
}

// Grid describes the rack rows (top level first) for a section plus the floor zone.
type Grid struct {
	Section Section      `json:"section"`
	Rows    [][]GridCell `json:"rows"`
	Floor   []string     `json:"floor"`
}

// BuildGrid lays out the given section. Out of range indexes fall back to FULL.
func BuildGrid(section int) Grid {
	if section < 0 || section >= len(Sections) {
		section = 0
	}
	sec := Sections[section]
	g := Grid{Section: sec}
	for _, level := range DisplayLevels {
		row := make([]GridCell, 0, len(sec.Columns))
		for _, col := range sec.Columns {
			cell := GridCell{Column: col, Level: level, Label: fmt.Sprintf("A - %d - %d", col, level)}
			for _, sub := range levelSubpositions[level] {
				cell.Slots = append(cell.Slots, Location{Zone: ZoneRack, Column: col, Level: level, Sub: sub}.ID())
			}
			row = append(row, cell)
		}
		g.Rows = append(g.Rows, row)
	}
	for _, l := range FloorLocations() {
		g.Floor = append(g.Floor, l.ID())
	}
	return g
}
