package main

import (
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/liying-gg/hicluster/slotmap"
)

// printTopology renders the current slot ownership as a table: one row per
// contiguous run of slots sharing the same entry, widest practical view of
// what the CLI already has cached after a rebuild.
func printTopology(w io.Writer, m slotmap.Map) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Slots", "Primary", "Replicas"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range topologyRows(m) {
		table.Append(row)
	}
	table.Render()
}

func topologyRows(m slotmap.Map) [][]string {
	slots := make([]int, 0, len(m))
	for s := range m {
		slots = append(slots, s)
	}
	sort.Ints(slots)

	var rows [][]string
	i := 0
	for i < len(slots) {
		start := slots[i]
		entry := m[start]
		j := i
		for j+1 < len(slots) && slots[j+1] == slots[j]+1 && sameEntry(m[slots[j+1]], entry) {
			j++
		}
		end := slots[j]

		slotRange := strconv.Itoa(start)
		if end != start {
			slotRange += "-" + strconv.Itoa(end)
		}
		primary, _ := entry.Primary()
		replicas := ""
		for k, addr := range entry {
			if k == 0 {
				continue
			}
			if k > 1 {
				replicas += ", "
			}
			replicas += addr
		}
		rows = append(rows, []string{slotRange, primary, replicas})
		i = j + 1
	}
	return rows
}

func sameEntry(a, b slotmap.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
