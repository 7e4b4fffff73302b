package repository

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// a1Range - диапазон в нотации A1 без имени листа, индексы с нуля.
// lastRow == -1 означает открытый диапазон ("A:F").
type a1Range struct {
	firstCol, lastCol int
	firstRow, lastRow int
}

var a1CellRe = regexp.MustCompile(`^([A-Z]+)(\d*)$`)

func parseA1(rng string) (a1Range, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(rng)), ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return a1Range{}, fmt.Errorf("invalid range %q", rng)
	}

	fc, fr, err := parseA1Cell(parts[0])
	if err != nil {
		return a1Range{}, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	lc, lr, err := parseA1Cell(parts[1])
	if err != nil {
		return a1Range{}, fmt.Errorf("invalid range %q: %w", rng, err)
	}
	if fr < 0 {
		fr = 0
	}
	if lc < fc || (lr >= 0 && lr < fr) {
		return a1Range{}, fmt.Errorf("invalid range %q: end before start", rng)
	}
	return a1Range{firstCol: fc, lastCol: lc, firstRow: fr, lastRow: lr}, nil
}

func parseA1Cell(s string) (col, row int, err error) {
	m := a1CellRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("bad cell %q", s)
	}
	for _, ch := range m[1] {
		col = col*26 + int(ch-'A') + 1
	}
	col--
	row = -1
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("bad row in %q", s)
		}
		row = n - 1
	}
	return col, row, nil
}

// columnName переводит индекс колонки с нуля в буквы A1
func columnName(col int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name
}

// readGrid вырезает диапазон из плотной сетки так же, как это делает Sheets API:
// хвостовые пустые ячейки и строки отбрасываются.
func readGrid(grid [][]string, r a1Range) [][]string {
	last := len(grid) - 1
	if r.lastRow >= 0 && r.lastRow < last {
		last = r.lastRow
	}
	var out [][]string
	for i := r.firstRow; i <= last; i++ {
		row := grid[i]
		var cells []string
		for c := r.firstCol; c <= r.lastCol && c < len(row); c++ {
			cells = append(cells, row[c])
		}
		out = append(out, trimRight(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

// writeGrid записывает значения начиная с левого верхнего угла диапазона
// и возвращает индексы затронутых строк
func writeGrid(grid [][]string, r a1Range, values [][]string) ([][]string, []int) {
	var touched []int
	for i, vals := range values {
		idx := r.firstRow + i
		for len(grid) <= idx {
			grid = append(grid, nil)
		}
		row := grid[idx]
		for j, v := range vals {
			c := r.firstCol + j
			for len(row) <= c {
				row = append(row, "")
			}
			row[c] = v
		}
		grid[idx] = row
		touched = append(touched, idx)
	}
	return grid, touched
}

// appendGrid дописывает строки после последней непустой строки
func appendGrid(grid [][]string, r a1Range, values [][]string) ([][]string, []int) {
	end := len(grid)
	for end > 0 && len(trimRight(grid[end-1])) == 0 {
		end--
	}
	grid = grid[:end]
	return writeGrid(grid, a1Range{firstCol: r.firstCol, lastCol: r.lastCol, firstRow: end, lastRow: -1}, values)
}

// deleteGridRows удаляет строки [start, end)
func deleteGridRows(grid [][]string, start, end int) ([][]string, error) {
	if start < 0 || end <= start || start >= len(grid) {
		return grid, fmt.Errorf("row range [%d,%d) out of bounds (rows: %d)", start, end, len(grid))
	}
	if end > len(grid) {
		end = len(grid)
	}
	return append(grid[:start], grid[end:]...), nil
}

func trimRight(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}
