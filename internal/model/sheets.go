package model

// Имена листов таблицы и их заголовки. Порядок колонок - контракт с таблицей.
const (
	SheetExpenses   = "Gastos"
	SheetCategories = "Categorias"
	SheetReminders  = "Recordatorios"
	// DefaultArchiveSheet переопределяется через HIST_SHEET
	DefaultArchiveSheet = "Historico"
)

var (
	ExpenseHeader  = []string{"Fecha", "UserID", "Usuario", "Monto", "Descripcion", "Categoria"}
	CategoryHeader = []string{"UserID", "Usuario", "Categoria", "Activo", "CreatedAt"}
	ReminderHeader = []string{"Fecha", "Hora", "UserID", "Usuario", "Texto", "Estado", "NotifiedAt", "ChatID"}
	ArchiveHeader  = []string{"Fecha", "UserID", "Usuario", "Monto", "Descripcion", "Categoria", "ArchivedAt"}
)
