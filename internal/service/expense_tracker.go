package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ivanoskov/gastos_bot/internal/dateutil"
	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount возвращается, если сумму не удалось разобрать или она не положительна
var ErrInvalidAmount = errors.New("invalid amount")

// Repository определяет интерфейс для работы с листами таблицы
type Repository interface {
	GetExpenses(ctx context.Context) ([]model.Expense, error)
	CreateExpense(ctx context.Context, expense model.Expense) error
	DeleteExpenseRows(ctx context.Context, ranges []model.RowRange) error
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, category model.Category) error
	GetReminders(ctx context.Context) ([]model.Reminder, error)
	CreateReminder(ctx context.Context, reminder model.Reminder) error
	MarkReminderSent(ctx context.Context, row int, sentAt string) error
	EnsureArchiveSheet(ctx context.Context) (int64, error)
	AppendArchive(ctx context.Context, records []model.ArchivedExpense) error
	ArchiveSheet() string
}

// ExpenseTracker предоставляет методы для работы с расходами и категориями
type ExpenseTracker struct {
	repo  Repository
	clock *dateutil.Clock
}

// NewExpenseTracker создает новый экземпляр ExpenseTracker
func NewExpenseTracker(repo Repository, clock *dateutil.Clock) *ExpenseTracker {
	return &ExpenseTracker{
		repo:  repo,
		clock: clock,
	}
}

// QuickExpense - разобранное сообщение "Gaste <monto> en <desc> / <categoria>"
type QuickExpense struct {
	Amount      decimal.Decimal
	Description string
	Category    string
}

var quickExpenseRe = regexp.MustCompile(`(?i)gast[eé]\s+(.+?)\s+en\s+(.+?)\s*/\s*(.+)`)

// amountCharsRe: в сумме допустимы только цифры и разделители
var amountCharsRe = regexp.MustCompile(`^[0-9.,]+$`)

// ErrQuickExpenseFormat - сообщение не подходит под шаблон быстрого расхода
var ErrQuickExpenseFormat = errors.New("quick expense format")

// ParseQuickExpense разбирает быстрый ввод расхода
func ParseQuickExpense(text string) (QuickExpense, error) {
	m := quickExpenseRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return QuickExpense{}, ErrQuickExpenseFormat
	}
	amount, err := ParseAmount(m[1])
	if err != nil {
		return QuickExpense{}, err
	}
	return QuickExpense{
		Amount:      amount,
		Description: strings.TrimSpace(m[2]),
		Category:    strings.TrimSpace(m[3]),
	}, nil
}

// ParseAmount разбирает сумму с запятой или точкой в качестве десятичного
// разделителя и точками между разрядами: "1.234,56", "1234,56" и "1234.56"
// дают 1234.56. Результат округляется до копеек.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if !amountCharsRe.MatchString(clean) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	} else if !isDecimalDot(clean) {
		clean = strings.ReplaceAll(clean, ".", "")
	}

	amount, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return amount, nil
}

// isDecimalDot - единственная точка, за которой одна или две цифры
func isDecimalDot(s string) bool {
	if strings.Count(s, ".") != 1 {
		return false
	}
	frac := s[strings.Index(s, ".")+1:]
	return len(frac) == 1 || len(frac) == 2
}

// FormatAmount форматирует сумму для сообщений: $1250.50
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// AddExpense сохраняет расход с сегодняшней датой, заводя категорию при необходимости
func (s *ExpenseTracker) AddExpense(ctx context.Context, userID, userName string, amount decimal.Decimal, description, category string) (model.Expense, error) {
	if _, err := s.EnsureCategory(ctx, userID, userName, category); err != nil {
		return model.Expense{}, err
	}

	expense := model.Expense{
		Date:        s.clock.Today(),
		UserID:      userID,
		UserName:    userName,
		Amount:      amount,
		Description: description,
		Category:    category,
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return model.Expense{}, err
	}
	return expense, nil
}

// GetCategories возвращает активные категории пользователя. Если реестр пуст,
// категории выводятся из уже записанных расходов.
func (s *ExpenseTracker) GetCategories(ctx context.Context, userID string) ([]string, error) {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		log.Printf("Error reading category registry, falling back to expenses: %v", err)
	}

	names := newNameSet()
	for _, c := range categories {
		if c.UserID == userID && c.Active {
			names.add(c.Name)
		}
	}
	if len(names.list) > 0 {
		return names.list, nil
	}

	expenses, err := s.repo.GetExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to derive categories: %w", err)
	}
	for _, e := range expenses {
		if e.UserID == userID {
			names.add(e.Category)
		}
	}
	return names.list, nil
}

// EnsureCategory регистрирует категорию, если у пользователя нет такой без учета регистра
func (s *ExpenseTracker) EnsureCategory(ctx context.Context, userID, userName, name string) (bool, error) {
	existing, err := s.GetCategories(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range existing {
		if strings.EqualFold(c, name) {
			return false, nil
		}
	}

	category := model.Category{
		UserID:    userID,
		UserName:  userName,
		Name:      name,
		Active:    true,
		CreatedAt: s.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return false, err
	}
	return true, nil
}

// Total суммирует расходы пользователя; пустая категория означает все расходы
func (s *ExpenseTracker) Total(ctx context.Context, userID, category string) (decimal.Decimal, error) {
	expenses, err := s.repo.GetExpenses(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		if e.UserID != userID {
			continue
		}
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

// GetRecentExpenses возвращает последние limit расходов пользователя, новые первыми
func (s *ExpenseTracker) GetRecentExpenses(ctx context.Context, userID string, limit int) ([]model.Expense, error) {
	expenses, err := s.repo.GetExpenses(ctx)
	if err != nil {
		return nil, err
	}
	recent := make([]model.Expense, 0, limit)
	for i := len(expenses) - 1; i >= 0 && len(recent) < limit; i-- {
		if expenses[i].UserID == userID {
			recent = append(recent, expenses[i])
		}
	}
	return recent, nil
}

// CategoryStat - сумма расходов по категории за период
type CategoryStat struct {
	Name   string
	Amount decimal.Decimal
}

// GetMonthlyByCategory группирует расходы текущего месяца по категориям, по убыванию суммы
func (s *ExpenseTracker) GetMonthlyByCategory(ctx context.Context, userID string) ([]CategoryStat, error) {
	expenses, err := s.repo.GetExpenses(ctx)
	if err != nil {
		return nil, err
	}
	from := s.clock.FirstOfMonth()

	byKey := make(map[string]*CategoryStat)
	var order []string
	for _, e := range expenses {
		if e.UserID != userID || !dateutil.ValidDate(e.Date) || dateutil.Before(e.Date, from) {
			continue
		}
		key := strings.ToLower(e.Category)
		stat, ok := byKey[key]
		if !ok {
			stat = &CategoryStat{Name: e.Category, Amount: decimal.Zero}
			byKey[key] = stat
			order = append(order, key)
		}
		stat.Amount = stat.Amount.Add(e.Amount)
	}

	stats := make([]CategoryStat, 0, len(order))
	for _, key := range order {
		stats = append(stats, *byKey[key])
	}
	// Сортируем по убыванию суммы
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Amount.GreaterThan(stats[j].Amount)
	})
	return stats, nil
}

// nameSet сохраняет порядок и убирает дубликаты без учета регистра
type nameSet struct {
	seen map[string]bool
	list []string
}

func newNameSet() *nameSet {
	return &nameSet{seen: make(map[string]bool)}
}

func (n *nameSet) add(name string) {
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)
	if key == "" || n.seen[key] {
		return
	}
	n.seen[key] = true
	n.list = append(n.list, name)
}
