package board

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"pallet-board-backend/internal/layout"
)

// ExportHeaders is the column order of the spreadsheet export.
var ExportHeaders = []string{"EMPLACEMENT", "N° COMMANDE", "FLUX", "NOM", "STATUT", "DATE", "COMMENTAIRE"}

// ExportTSV renders slots as tab separated rows with a header line.
func ExportTSV(slots []Slot) string {
	lines := make([]string, 0, len(slots)+1)
	lines = append(lines, strings.Join(ExportHeaders, "\t"))
	for _, slot := range slots {
		o := slot.Order
		if o == nil {
			o = &Order{}
		}
		lines = append(lines, strings.Join([]string{
			layout.LongLabel(slot.LocationID),
			cell(o.OrderNumber),
			cell(string(o.Flux)),
			cell(o.ClientName),
			slot.Status.Label(),
			cell(o.Date),
			cell(o.Comment),
		}, "\t"))
	}
	return strings.Join(lines, "\n")
}

// SlotLine is the single-slot copy line: number, flux, client.
func SlotLine(slot Slot) (string, bool) {
	if slot.Order == nil {
		return "", false
	}
	o := slot.Order
	return cell(o.OrderNumber) + "\t" + cell(string(o.Flux)) + "\t" + cell(o.ClientName), true
}

// ReturnsTSV renders return rows as "number<TAB>client" lines. When ids is
// non-empty only those rows are included.
func ReturnsTSV(rows []ReturnItem, ids []string) string {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	var lines []string
	for _, r := range rows {
		if len(selected) > 0 && !selected[r.ID] {
			continue
		}
		lines = append(lines, cell(r.ReturnNumber)+"\t"+cell(r.ClientName))
	}
	return strings.Join(lines, "\n")
}

// EncodeWindows1252 converts UTF-8 text for legacy spreadsheet imports.
// Runes outside the code page become the ASCII substitute byte.
func EncodeWindows1252(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, _, err := transform.Bytes(enc, []byte(s))
	return out, err
}

// cell keeps tabs and newlines out of a TSV field.
func cell(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(s)
}
