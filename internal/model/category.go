package model

import "strings"

// Category - строка реестра категорий пользователя.
// Категории не удаляются, только помечаются неактивными.
type Category struct {
	UserID    string
	UserName  string
	Name      string
	Active    bool
	CreatedAt string
}

// ToRow кодирует категорию в порядке колонок Categorias!A:E
func (c Category) ToRow() []string {
	active := "1"
	if !c.Active {
		active = "0"
	}
	return []string{c.UserID, c.UserName, c.Name, active, c.CreatedAt}
}

// CategoryFromRow разбирает строку таблицы. Пустой флаг считается активным.
func CategoryFromRow(row []string) Category {
	return Category{
		UserID:    cell(row, 0),
		UserName:  cell(row, 1),
		Name:      strings.TrimSpace(cell(row, 2)),
		Active:    cell(row, 3) != "0",
		CreatedAt: cell(row, 4),
	}
}
