package board

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBoard(t *testing.T) *Board {
	t.Helper()
	b, _ := newTestBoard(t)
	for id, o := range map[string]struct {
		status Status
		order  Order
	}{
		"A-2-0-H": {StatusJaune, Order{OrderNumber: "1500000001", ClientName: "DUPONT", Flux: FluxCDC, Date: "17/10"}},
		"A-2-0-B": {StatusBlanc, Order{OrderNumber: "1500000002", ClientName: "MARTIN", Tournee: "T7"}},
		"A-1-3":   {StatusOrange, Order{OrderNumber: "1500000003", ClientName: "LEROY", Comment: "article restant"}},
		"ZA-2":    {StatusBleu, Order{OrderNumber: "1500000004", ClientName: "DURAND"}},
	} {
		_, err := b.Assign(id, o.status, &o.order)
		require.NoError(t, err)
	}
	return b
}

func TestList(t *testing.T) {
	b := seedBoard(t)

	testCases := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "In progress", filter: Filter{InProgress: true}, expected: []string{"A-2-0-B", "A-2-0-H", "ZA-2"}},
		{name: "By status", filter: Filter{Status: StatusOrange}, expected: []string{"A-1-3"}},
		{name: "Search client", filter: Filter{Query: "martin"}, expected: []string{"A-2-0-B"}},
		{name: "Search tournee", filter: Filter{Query: "t7"}, expected: []string{"A-2-0-B"}},
		{name: "Search comment", filter: Filter{Query: "RESTANT"}, expected: []string{"A-1-3"}},
		{name: "Search location", filter: Filter{Query: "za-1"}, expected: []string{"ZA-1", "ZA-10", "ZA-11", "ZA-12", "ZA-13", "ZA-14", "ZA-15", "ZA-16", "ZA-17", "ZA-18"}},
		{name: "Status and query", filter: Filter{Status: StatusJaune, Query: "dupont"}, expected: []string{"A-2-0-H"}},
		{name: "No match", filter: Filter{Status: StatusRouge}, expected: []string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ids := []string{}
			for _, s := range b.List(tc.filter) {
				ids = append(ids, s.LocationID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
	assert.Len(t, b.List(Filter{}), 81)
}

func TestStats(t *testing.T) {
	b := seedBoard(t)
	b.AddSas("1600000000", "PETIT", FluxNone)

	st := b.Stats()
	assert.Equal(t, 77, st.Counts[StatusEmpty])
	assert.Equal(t, 1, st.Counts[StatusJaune])
	assert.Equal(t, 0, st.Counts[StatusRouge])
	assert.Equal(t, 3, st.InProgress)
	assert.Equal(t, 1, st.Sas)
	assert.Equal(t, 81, st.GrandTotal)
}

func TestDateUrgency(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	testCases := []struct {
		date     string
		expected Urgency
	}{
		{"NEW", UrgencyNew},
		{"15/10", UrgencyPast},
		{"16/10", UrgencyToday},
		{"17/10", UrgencyTomorrow},
		{"24/12", UrgencyLater},
		{"", UrgencyUndated},
		{"demain", UrgencyUndated},
		{"32/10", UrgencyUndated},
	}
	for _, tc := range testCases {
		t.Run(tc.date, func(t *testing.T) {
			assert.Equal(t, tc.expected, DateUrgency(tc.date, now))
		})
	}
	// dates are read in the current year, so early January is past on New Year's Eve
	assert.Equal(t, UrgencyPast, DateUrgency("01/01", time.Date(2026, 12, 31, 8, 0, 0, 0, time.UTC)))
}

func TestExportTSV(t *testing.T) {
	b := seedBoard(t)
	out := ExportTSV(b.List(Filter{InProgress: true}))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "EMPLACEMENT\tN° COMMANDE\tFLUX\tNOM\tSTATUT\tDATE\tCOMMENTAIRE", lines[0])
	assert.Equal(t, "A - 2 - 0 (BAS)\t1500000002\t\tMARTIN\tDÉPART\t\t", lines[1])
	assert.Equal(t, "A - 2 - 0 HAUT\t1500000001\tCDC\tDUPONT\tFAILED\t17/10\t", lines[2])
	assert.Equal(t, "ZONE A - 2\t1500000004\t\tDURAND\tRETOUR ISOM\t\t", lines[3])

	empty := ExportTSV([]Slot{{LocationID: "ZA-5", Status: StatusEmpty}})
	assert.Equal(t, "ZONE A - 5\t\t\t\tDISPONIBLE\t\t", strings.Split(empty, "\n")[1])
}

func TestSlotLineAndReturnsTSV(t *testing.T) {
	b := seedBoard(t)
	slot, _ := b.Slot("A-2-0-H")
	line, ok := SlotLine(slot)
	require.True(t, ok)
	assert.Equal(t, "1500000001\tCDC\tDUPONT", line)

	_, ok = SlotLine(Slot{LocationID: "ZA-3", Status: StatusEmpty})
	assert.False(t, ok)

	rows := []ReturnItem{
		{ID: "a", ReturnNumber: "8QAL-4MQ8", ClientName: "PETIT"},
		{ID: "b", ReturnNumber: "RETX-", ClientName: "GARCIA\tJR"},
	}
	assert.Equal(t, "8QAL-4MQ8\tPETIT\nRETX-\tGARCIA JR", ReturnsTSV(rows, nil))
	assert.Equal(t, "RETX-\tGARCIA JR", ReturnsTSV(rows, []string{"b"}))
}

func TestEncodeWindows1252(t *testing.T) {
	out, err := EncodeWindows1252("N° DÉPART")
	require.NoError(t, err)
	assert.Equal(t, []byte{'N', 0xB0, ' ', 'D', 0xC9, 'P', 'A', 'R', 'T'}, out)

	out, err = EncodeWindows1252("ŁUKASZ 😀")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1A, 'U', 'K', 'A', 'S', 'Z', ' ', 0x1A}, out)
}
