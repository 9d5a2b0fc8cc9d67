// Package seatmap turns a seat layout plus an occupancy map into a grid of
// cells. It holds no reservation state of its own; callers own all state.
package seatmap

import (
	"strconv"

	"fasobus/internal/domain/models"
)

// Cell is one interactive position in the rendered grid.
type Cell struct {
	SeatID string            `json:"seat_id"`
	Row    int               `json:"row"`
	Col    int               `json:"col"`
	Status models.SeatStatus `json:"status"`
	// AisleAfter marks a gap to the right of this cell.
	AisleAfter bool `json:"aisle_after,omitempty"`
}

// SeatID computes the deterministic id for a grid position:
// {columnLabel}{rowNumber}, rows numbered from 1. Labels fall back to
// A,B,C,... by character-code offset when the layout supplies none.
func SeatID(layout models.SeatLayout, row, col int) string {
	label := ""
	if col < len(layout.ColumnLabels) && layout.ColumnLabels[col] != "" {
		label = layout.ColumnLabels[col]
	} else {
		label = string(rune('A' + col))
	}
	return label + strconv.Itoa(row+1)
}

// HasSeat reports whether the layout can produce the given seat id.
// Holds and toggles on ids outside the coach are rejected up front.
func HasSeat(layout models.SeatLayout, seatID string) bool {
	for r := 0; r < layout.Rows; r++ {
		for c := 0; c < layout.Cols; c++ {
			if SeatID(layout, r, c) == seatID {
				return true
			}
		}
	}
	return false
}

// LayoutOrDefault resolves the layout to use. The explicit layout wins; a
// legacy rows/seatsPerRow pair is honored for older call sites; otherwise
// the default 11x4 grid applies.
func LayoutOrDefault(layout *models.SeatLayout, legacyRows, legacySeatsPerRow int) models.SeatLayout {
	if layout != nil && layout.Rows > 0 && layout.Cols > 0 {
		return *layout
	}
	if legacyRows > 0 && legacySeatsPerRow > 0 {
		return models.SeatLayout{Rows: legacyRows, Cols: legacySeatsPerRow, AisleAfterCol: legacySeatsPerRow / 2}
	}
	return models.DefaultSeatLayout()
}

// BuildGrid produces the full grid for a layout with each cell's status
// taken from the occupancy map (absent seats are available).
func BuildGrid(layout models.SeatLayout, occupied map[string]models.SeatStatus) [][]Cell {
	grid := make([][]Cell, 0, layout.Rows)
	for r := 0; r < layout.Rows; r++ {
		row := make([]Cell, 0, layout.Cols)
		for c := 0; c < layout.Cols; c++ {
			id := SeatID(layout, r, c)
			status := models.SeatAvailable
			if s, ok := occupied[id]; ok {
				status = s
			}
			row = append(row, Cell{
				SeatID:     id,
				Row:        r,
				Col:        c,
				Status:     status,
				AisleAfter: layout.AisleAfterCol > 0 && c == layout.AisleAfterCol-1,
			})
		}
		grid = append(grid, row)
	}
	return grid
}

// Selectable reports whether a click on a seat with this status should
// reach the selection callback. Occupied seats are inert.
func Selectable(status models.SeatStatus) bool {
	return status == models.SeatAvailable || status == models.SeatSelected
}
