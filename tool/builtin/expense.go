package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/viant/mcpws/tool"
)

const recentExpenses = 5

// Expense represents a recorded expense.
type Expense struct {
	ID        int       `json:"id"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Item      string    `json:"item"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordExpenseInput represents record_expense arguments.
type RecordExpenseInput struct {
	Amount   float64 `json:"amount" description:"amount spent"`
	Category string  `json:"category" description:"expense category, e.g. food, transport"`
	Item     string  `json:"item" description:"what was bought"`
	Note     string  `json:"note,omitempty"`
}

// ExpenseReportInput represents get_expense_report arguments.
type ExpenseReportInput struct {
	Period string `json:"period,omitempty" description:"report window" enum:"today,week,month"`
}

func (s *Service) registerExpenses(registry *tool.Registry) error {
	if err := tool.Register[RecordExpenseInput](registry, "record_expense", "Record an expense", s.recordExpense); err != nil {
		return err
	}
	return tool.Register[ExpenseReportInput](registry, "get_expense_report", "Summarize expenses by category", s.expenseReport)
}

func (s *Service) recordExpense(ctx context.Context, input *RecordExpenseInput) (string, error) {
	if input.Amount <= 0 {
		return "", fmt.Errorf("amount must be positive, got %v", input.Amount)
	}
	expense := Expense{
		Amount:    input.Amount,
		Category:  strings.TrimSpace(input.Category),
		Item:      strings.TrimSpace(input.Item),
		Note:      input.Note,
		Timestamp: s.now(),
	}
	var total float64
	err := s.expenses.Update(ctx, func(items []Expense) ([]Expense, error) {
		expense.ID = len(items) + 1
		if len(items) > 0 && items[len(items)-1].ID >= expense.ID {
			expense.ID = items[len(items)-1].ID + 1
		}
		items = append(items, expense)
		from, to := s.window("today")
		total = lo.SumBy(s.between(items, from, to), func(item Expense) float64 { return item.Amount })
		return items, nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("recorded %.2f for %v (%v); today's total: %.2f", expense.Amount, expense.Item, expense.Category, total), nil
}

func (s *Service) expenseReport(ctx context.Context, input *ExpenseReportInput) (string, error) {
	period := input.Period
	if period == "" {
		period = "month"
	}
	items, err := s.expenses.Load(ctx)
	if err != nil {
		return "", err
	}
	var from, to time.Time
	if period == "week" {
		// the last seven days including today
		from, to = s.window("today")
		from = from.AddDate(0, 0, -6)
	} else {
		from, to = s.window(period)
	}
	matched := s.between(items, from, to)
	if len(matched) == 0 {
		return fmt.Sprintf("no expenses for %v", period), nil
	}
	total := lo.SumBy(matched, func(item Expense) float64 { return item.Amount })
	byCategory := lo.GroupBy(matched, func(item Expense) string { return item.Category })
	categories := lo.Keys(byCategory)
	sums := lo.MapValues(byCategory, func(group []Expense, _ string) float64 {
		return lo.SumBy(group, func(item Expense) float64 { return item.Amount })
	})
	sort.Slice(categories, func(i, j int) bool {
		if sums[categories[i]] != sums[categories[j]] {
			return sums[categories[i]] > sums[categories[j]]
		}
		return categories[i] < categories[j]
	})
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Expenses for %v: %.2f in %d record(s)\n", period, total, len(matched)))
	builder.WriteString("By category:\n")
	for _, category := range categories {
		builder.WriteString(fmt.Sprintf("- %v: %.2f (%.1f%%)\n", category, sums[category], sums[category]*100/total))
	}
	builder.WriteString("Recent:\n")
	start := len(matched) - recentExpenses
	if start < 0 {
		start = 0
	}
	for i := len(matched) - 1; i >= start; i-- {
		item := matched[i]
		builder.WriteString(fmt.Sprintf("- %v %v %.2f (%v)\n", item.Timestamp.Format("01-02 15:04"), item.Item, item.Amount, item.Category))
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

func (s *Service) between(items []Expense, from, to time.Time) []Expense {
	return lo.Filter(items, func(item Expense, _ int) bool {
		return !item.Timestamp.Before(from) && item.Timestamp.Before(to)
	})
}
