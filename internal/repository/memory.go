package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable - табличное хранилище в памяти процесса, для тестов и локального запуска
type MemoryTable struct {
	mu     sync.Mutex
	nextID int64
	sheets map[string]*memorySheet
}

type memorySheet struct {
	id   int64
	rows [][]string
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		sheets: make(map[string]*memorySheet),
	}
}

func (t *MemoryTable) ReadRange(ctx context.Context, sheet, rng string) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s!%s", sheet, rng)
	}
	r, err := parseA1(rng)
	if err != nil {
		return nil, err
	}
	return readGrid(s.rows, r), nil
}

func (t *MemoryTable) AppendRows(ctx context.Context, sheet, rng string, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sheets[sheet]
	if !ok {
		return fmt.Errorf("unable to parse range: %s!%s", sheet, rng)
	}
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	s.rows, _ = appendGrid(s.rows, r, copyRows(rows))
	return nil
}

func (t *MemoryTable) UpdateRange(ctx context.Context, sheet, rng string, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sheets[sheet]
	if !ok {
		return fmt.Errorf("unable to parse range: %s!%s", sheet, rng)
	}
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	s.rows, _ = writeGrid(s.rows, r, copyRows(rows))
	return nil
}

// BatchUpdate применяет запросы по порядку; при ошибке уже примененные не откатываются
func (t *MemoryTable) BatchUpdate(ctx context.Context, requests []Request) ([]Reply, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	replies := make([]Reply, 0, len(requests))
	for _, req := range requests {
		switch {
		case req.AddSheet != nil:
			if _, exists := t.sheets[req.AddSheet.Title]; exists {
				return replies, fmt.Errorf("sheet %q already exists", req.AddSheet.Title)
			}
			s := &memorySheet{id: t.nextID}
			t.nextID++
			t.sheets[req.AddSheet.Title] = s
			replies = append(replies, Reply{SheetID: s.id})
		case req.DeleteRows != nil:
			s := t.byID(req.DeleteRows.SheetID)
			if s == nil {
				return replies, fmt.Errorf("no sheet with id %d", req.DeleteRows.SheetID)
			}
			rows, err := deleteGridRows(s.rows, req.DeleteRows.Start, req.DeleteRows.End)
			if err != nil {
				return replies, err
			}
			s.rows = rows
			replies = append(replies, Reply{})
		default:
			return replies, fmt.Errorf("empty request")
		}
	}
	return replies, nil
}

func (t *MemoryTable) SheetID(ctx context.Context, title string) (int64, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sheets[title]
	if !ok {
		return 0, false, nil
	}
	return s.id, true, nil
}

func (t *MemoryTable) byID(id int64) *memorySheet {
	for _, s := range t.sheets {
		if s.id == id {
			return s
		}
	}
	return nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
