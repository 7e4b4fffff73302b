package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	supabaseTabsTable = "sheet_tabs"
	supabaseRowsTable = "sheet_rows"
)

// SupabaseTable хранит листы в Postgres через PostgREST:
//
//	sheet_tabs(id int8 primary key, title text unique)
//	sheet_rows(sheet text, idx int4, cells jsonb, primary key (sheet, idx))
//
// idx - индекс строки листа с нуля, как в Sheets API.
type SupabaseTable struct {
	client *supabase.Client
}

type supabaseTab struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type supabaseRow struct {
	Sheet string   `json:"sheet"`
	Idx   int      `json:"idx"`
	Cells []string `json:"cells"`
}

func NewSupabaseTable(url, key string) (*SupabaseTable, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}

	return &SupabaseTable{
		client: client,
	}, nil
}

func (t *SupabaseTable) ReadRange(ctx context.Context, sheet, rng string) ([][]string, error) {
	r, err := parseA1(rng)
	if err != nil {
		return nil, err
	}
	grid, err := t.loadGrid(sheet)
	if err != nil {
		return nil, err
	}
	return readGrid(grid, r), nil
}

func (t *SupabaseTable) AppendRows(ctx context.Context, sheet, rng string, rows [][]string) error {
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	grid, err := t.loadGrid(sheet)
	if err != nil {
		return err
	}
	grid, touched := appendGrid(grid, r, rows)
	return t.upsertRows(sheet, grid, touched)
}

func (t *SupabaseTable) UpdateRange(ctx context.Context, sheet, rng string, rows [][]string) error {
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	grid, err := t.loadGrid(sheet)
	if err != nil {
		return err
	}
	grid, touched := writeGrid(grid, r, rows)
	return t.upsertRows(sheet, grid, touched)
}

func (t *SupabaseTable) BatchUpdate(ctx context.Context, requests []Request) ([]Reply, error) {
	replies := make([]Reply, 0, len(requests))
	for _, req := range requests {
		switch {
		case req.AddSheet != nil:
			id, err := t.addSheet(req.AddSheet.Title)
			if err != nil {
				return replies, err
			}
			replies = append(replies, Reply{SheetID: id})
		case req.DeleteRows != nil:
			if err := t.deleteRows(req.DeleteRows); err != nil {
				return replies, err
			}
			replies = append(replies, Reply{})
		default:
			return replies, fmt.Errorf("empty request")
		}
	}
	return replies, nil
}

func (t *SupabaseTable) SheetID(ctx context.Context, title string) (int64, bool, error) {
	tabs, err := t.loadTabs()
	if err != nil {
		return 0, false, err
	}
	for _, tab := range tabs {
		if tab.Title == title {
			return tab.ID, true, nil
		}
	}
	return 0, false, nil
}

func (t *SupabaseTable) loadTabs() ([]supabaseTab, error) {
	var tabs []supabaseTab
	data, _, err := t.client.From(supabaseTabsTable).
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet tabs: %w", err)
	}
	if err := json.Unmarshal(data, &tabs); err != nil {
		return nil, fmt.Errorf("failed to parse sheet tabs: %w", err)
	}
	return tabs, nil
}

// supabasePageSize не превышает лимит ответа PostgREST по умолчанию (1000 строк)
const supabasePageSize = 1000

// loadGrid собирает плотную сетку листа постранично, по возрастанию idx
func (t *SupabaseTable) loadGrid(sheet string) ([][]string, error) {
	rows, err := collectPages(supabasePageSize, func(from, to int) ([]supabaseRow, error) {
		var page []supabaseRow
		data, _, err := t.client.From(supabaseRowsTable).
			Select("*", "", false).
			Eq("sheet", sheet).
			Order("idx", &postgrest.OrderOpts{Ascending: true}).
			Range(from, to, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of %s: %w", sheet, err)
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to parse rows of %s: %w", sheet, err)
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return gridFromRows(rows), nil
}

// collectPages запрашивает страницы [from, to] до первой неполной
func collectPages(pageSize int, fetch func(from, to int) ([]supabaseRow, error)) ([]supabaseRow, error) {
	var all []supabaseRow
	for from := 0; ; from += pageSize {
		page, err := fetch(from, from+pageSize-1)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// gridFromRows раскладывает строки по idx; пропуски становятся пустыми строками
func gridFromRows(rows []supabaseRow) [][]string {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Idx < rows[j].Idx
	})
	var grid [][]string
	for _, row := range rows {
		for len(grid) < row.Idx {
			grid = append(grid, nil)
		}
		if len(grid) > row.Idx {
			grid[row.Idx] = row.Cells
			continue
		}
		grid = append(grid, row.Cells)
	}
	return grid
}

func (t *SupabaseTable) upsertRows(sheet string, grid [][]string, indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	records := make([]supabaseRow, 0, len(indices))
	for _, idx := range indices {
		records = append(records, supabaseRow{Sheet: sheet, Idx: idx, Cells: grid[idx]})
	}
	if _, _, err := t.client.From(supabaseRowsTable).Insert(records, true, "sheet,idx", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to write rows of %s: %w", sheet, err)
	}
	return nil
}

func (t *SupabaseTable) addSheet(title string) (int64, error) {
	tabs, err := t.loadTabs()
	if err != nil {
		return 0, err
	}
	var id int64
	for _, tab := range tabs {
		if tab.Title == title {
			return 0, fmt.Errorf("sheet %q already exists", title)
		}
		if tab.ID >= id {
			id = tab.ID + 1
		}
	}
	if _, _, err := t.client.From(supabaseTabsTable).Insert(supabaseTab{ID: id, Title: title}, false, "", "", "").Execute(); err != nil {
		return 0, fmt.Errorf("failed to create sheet %s: %w", title, err)
	}
	return id, nil
}

// deleteRows удаляет диапазон и сдвигает хвост листа вверх, как DeleteDimension
func (t *SupabaseTable) deleteRows(req *DeleteRowsRequest) error {
	tabs, err := t.loadTabs()
	if err != nil {
		return err
	}
	title := ""
	for _, tab := range tabs {
		if tab.ID == req.SheetID {
			title = tab.Title
		}
	}
	if title == "" {
		return fmt.Errorf("no sheet with id %d", req.SheetID)
	}

	grid, err := t.loadGrid(title)
	if err != nil {
		return err
	}
	grid, err = deleteGridRows(grid, req.Start, req.End)
	if err != nil {
		return err
	}

	if _, _, err := t.client.From(supabaseRowsTable).
		Delete("", "").
		Eq("sheet", title).
		Gte("idx", strconv.Itoa(req.Start)).
		Execute(); err != nil {
		return fmt.Errorf("failed to delete rows of %s: %w", title, err)
	}

	tail := make([]int, 0, len(grid)-req.Start)
	for idx := req.Start; idx < len(grid); idx++ {
		tail = append(tail, idx)
	}
	return t.upsertRows(title, grid, tail)
}
