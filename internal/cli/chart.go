package cli

import (
	"math"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"

	"options-strategist/internal/models"
	"options-strategist/pkg/utils"
)

// Plot glyphs
const (
	glyphPoint = '•'
	glyphZero  = '─'
	glyphSpot  = '│'
	glyphCross = '┼'
)

// renderPayoff draws the curve as text. Rows run from the highest value at the
// top to the lowest at the bottom and always include zero. The last two lines
// are the price axis and its labels. It returns nil when there is nothing to draw.
func renderPayoff(curve models.SampledCurve, spot float64, width, height int) []string {
	if len(curve) < 2 || width < 10 || height < 3 {
		return nil
	}

	values := curve.Values()
	hi := math.Max(floats.Max(values), 0)
	lo := math.Min(floats.Min(values), 0)
	if hi == lo {
		hi = lo + 1
	}
	first, last := curve[0].Price, curve[len(curve)-1].Price

	rowOf := func(v float64) int {
		return int(math.Round((hi - v) / (hi - lo) * float64(height-1)))
	}
	colOf := func(p float64) int {
		return int(math.Round((p - first) / (last - first) * float64(width-1)))
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	zeroRow := rowOf(0)
	for c := range grid[zeroRow] {
		grid[zeroRow][c] = glyphZero
	}

	spotCol := -1
	if spot >= first && spot <= last {
		spotCol = colOf(spot)
		for r := range grid {
			if r == zeroRow {
				grid[r][spotCol] = glyphCross
			} else {
				grid[r][spotCol] = glyphSpot
			}
		}
	}

	for c := 0; c < width; c++ {
		i := int(math.Round(float64(c) * float64(len(curve)-1) / float64(width-1)))
		grid[rowOf(curve[i].Value)][c] = glyphPoint
	}

	labels := map[int]string{
		0:          utils.FormatNumber(hi, 0),
		zeroRow:    "0",
		height - 1: utils.FormatNumber(lo, 0),
	}
	labelWidth := 0
	for _, l := range labels {
		if n := utf8.RuneCountInString(l); n > labelWidth {
			labelWidth = n
		}
	}

	lines := make([]string, 0, height+2)
	for r, row := range grid {
		label := labels[r]
		pad := strings.Repeat(" ", labelWidth-utf8.RuneCountInString(label))
		lines = append(lines, pad+label+" ┤"+string(row))
	}
	lines = append(lines, strings.Repeat(" ", labelWidth)+" └"+strings.Repeat("─", width))
	lines = append(lines, strings.Repeat(" ", labelWidth+2)+priceAxis(first, last, spot, spotCol, width))
	return lines
}

// priceAxis places the window bounds at the edges and spot under its column
// when the labels do not collide.
func priceAxis(first, last, spot float64, spotCol, width int) string {
	axis := []rune(strings.Repeat(" ", width))
	put := func(at int, s string) bool {
		r := []rune(s)
		if at < 0 || at+len(r) > width {
			return false
		}
		for i := at; i < at+len(r); i++ {
			if axis[i] != ' ' || (i > 0 && axis[i-1] != ' ' && i == at) {
				return false
			}
		}
		copy(axis[at:], r)
		return true
	}

	left := utils.FormatNumber(first, 0)
	right := utils.FormatNumber(last, 0)
	put(0, left)
	put(width-utf8.RuneCountInString(right), right)
	if spotCol >= 0 {
		s := utils.FormatNumber(spot, 0)
		put(spotCol-utf8.RuneCountInString(s)/2, s)
	}
	return strings.TrimRight(string(axis), " ")
}
