package repository

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const valueInputOption = "USER_ENTERED"

// SheetsTable работает с таблицей Google Sheets через API v4
type SheetsTable struct {
	srv           *sheets.Service
	spreadsheetID string
}

// NewSheetsTable создает клиента по JSON сервисного аккаунта
func NewSheetsTable(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*SheetsTable, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsTable{
		srv:           srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

func (t *SheetsTable) ReadRange(ctx context.Context, sheet, rng string) ([][]string, error) {
	resp, err := t.srv.Spreadsheets.Values.Get(t.spreadsheetID, sheet+"!"+rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, 0, len(values))
		for _, v := range values {
			row = append(row, fmt.Sprint(v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *SheetsTable) AppendRows(ctx context.Context, sheet, rng string, rows [][]string) error {
	_, err := t.srv.Spreadsheets.Values.Append(t.spreadsheetID, sheet+"!"+rng, toValueRange(rows)).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return err
}

func (t *SheetsTable) UpdateRange(ctx context.Context, sheet, rng string, rows [][]string) error {
	_, err := t.srv.Spreadsheets.Values.Update(t.spreadsheetID, sheet+"!"+rng, toValueRange(rows)).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	return err
}

func (t *SheetsTable) BatchUpdate(ctx context.Context, requests []Request) ([]Reply, error) {
	body := &sheets.BatchUpdateSpreadsheetRequest{}
	for _, req := range requests {
		switch {
		case req.AddSheet != nil:
			body.Requests = append(body.Requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: req.AddSheet.Title},
				},
			})
		case req.DeleteRows != nil:
			body.Requests = append(body.Requests, &sheets.Request{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:         req.DeleteRows.SheetID,
						Dimension:       "ROWS",
						StartIndex:      int64(req.DeleteRows.Start),
						EndIndex:        int64(req.DeleteRows.End),
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			})
		default:
			return nil, fmt.Errorf("empty request")
		}
	}

	resp, err := t.srv.Spreadsheets.BatchUpdate(t.spreadsheetID, body).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	replies := make([]Reply, 0, len(resp.Replies))
	for _, r := range resp.Replies {
		var reply Reply
		if r != nil && r.AddSheet != nil && r.AddSheet.Properties != nil {
			reply.SheetID = r.AddSheet.Properties.SheetId
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

func (t *SheetsTable) SheetID(ctx context.Context, title string) (int64, bool, error) {
	ss, err := t.srv.Spreadsheets.Get(t.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return 0, false, err
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func toValueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, c := range row {
			cells = append(cells, c)
		}
		values = append(values, cells)
	}
	return &sheets.ValueRange{Values: values}
}
