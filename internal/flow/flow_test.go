package flow

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ivanoskov/gastos_bot/internal/calendar"
	"github.com/ivanoskov/gastos_bot/internal/model"
	"github.com/shopspring/decimal"
)

func TestExpenseFlowHappyPath(t *testing.T) {
	var f ExpenseFlow
	state, out := f.Start([]string{"Comida", "Taxi", "Super"})
	if state.Step != model.StepChoosingCategory {
		t.Fatalf("expected choosing_category, got %s", state.Step)
	}
	want := [][]string{{"Comida", "Taxi"}, {"Super"}, {NewCategoryButton}}
	if !reflect.DeepEqual(out.Replies[0].Keyboard, want) {
		t.Errorf("unexpected keyboard %v", out.Replies[0].Keyboard)
	}

	state, out = f.Step(state, "taxi")
	if out.Kind != Advance || state.Step != model.StepEnteringDescription || state.Category != "Taxi" {
		t.Fatalf("unexpected state after category: %+v", state)
	}

	state, _ = f.Step(state, "viaje al centro")
	state, out = f.Step(state, "1.250,50")
	if state.Step != model.StepConfirming || !state.Amount.Decimal.Equal(decimal.RequireFromString("1250.5")) {
		t.Fatalf("unexpected state after amount: %+v", state)
	}
	if !strings.Contains(out.Replies[0].Text, "$1250.50") {
		t.Errorf("expected formatted amount in %q", out.Replies[0].Text)
	}

	state, out = f.Step(state, ConfirmButton)
	if state != nil || out.Kind != Terminate || out.Effect.Kind != CommitExpense {
		t.Fatalf("expected commit, got %+v", out)
	}
	if out.Effect.Category != "Taxi" || out.Effect.Description != "viaje al centro" {
		t.Errorf("unexpected effect %+v", out.Effect)
	}
}

func TestExpenseFlowValidationRetries(t *testing.T) {
	var f ExpenseFlow
	state, _ := f.Start([]string{"Comida"})

	next, out := f.Step(state, "Viajes")
	if out.Kind != Retry || next.Step != model.StepChoosingCategory {
		t.Errorf("expected retry for unknown category, got %v", out.Kind)
	}

	state, _ = f.Step(state, "comida")
	next, out = f.Step(state, "x")
	if out.Kind != Retry || next.Step != model.StepEnteringDescription {
		t.Errorf("expected retry for short description, got %v", out.Kind)
	}

	state, _ = f.Step(state, "almuerzo")
	for _, bad := range []string{"mucho", "0", "-3"} {
		next, out = f.Step(state, bad)
		if out.Kind != Retry || next.Step != model.StepEnteringAmount {
			t.Errorf("expected retry for amount %q, got %v", bad, out.Kind)
		}
		if out.Replies[0].Text != "❌ Monto inválido. Probá con 1234,56" {
			t.Errorf("unexpected reply %q", out.Replies[0].Text)
		}
	}

	state, _ = f.Step(state, "100")
	state, out = f.Step(state, RejectButton)
	if state != nil || out.Kind != Terminate || out.Effect.Kind != NoEffect {
		t.Errorf("expected discard, got %+v", out)
	}
}

func TestExpenseFlowNewCategory(t *testing.T) {
	var f ExpenseFlow

	state, out := f.Start(nil)
	if state.Step != model.StepEnteringNewCategory || !strings.Contains(out.Replies[0].Text, "primera categoría") {
		t.Fatalf("expected first category prompt, got %+v", out)
	}

	state, out = f.Step(state, "a")
	if out.Kind != Retry {
		t.Errorf("expected retry for one-letter name")
	}
	state, out = f.Step(state, "Mascotas")
	if state.Step != model.StepEnteringDescription || out.Effect.Kind != RegisterCategory || out.Effect.Category != "Mascotas" {
		t.Errorf("expected category registration, got %+v %+v", state, out.Effect)
	}

	state, _ = f.Start([]string{"Comida"})
	state, _ = f.Step(state, strings.ToUpper(NewCategoryButton))
	if state.Step != model.StepEnteringNewCategory {
		t.Errorf("expected new category step, got %s", state.Step)
	}
	state, _ = f.Step(state, "COMIDA")
	if state.Category != "Comida" {
		t.Errorf("expected existing name to be reused, got %q", state.Category)
	}
}

func TestRepliesEscapeUserText(t *testing.T) {
	var ef ExpenseFlow
	state, _ := ef.Start([]string{"a*b"})
	state, _ = ef.Step(state, "a*b")
	state, _ = ef.Step(state, "pan_dulce `x`")
	state, out := ef.Step(state, "10")
	if state.Step != model.StepConfirming {
		t.Fatalf("unexpected state %+v", state)
	}
	text := out.Replies[0].Text
	if !strings.Contains(text, "pan\\_dulce \\`x\\`") || !strings.Contains(text, "a\\*b") {
		t.Errorf("user text must be escaped in %q", text)
	}
	_, out = ef.Step(state, ConfirmButton)
	if out.Effect.Description != "pan_dulce `x`" || out.Effect.Category != "a*b" {
		t.Errorf("effect must keep raw text, got %+v", out.Effect)
	}

	var rf ReminderFlow
	rs, _ := rf.Start(2026, 10)
	rs, _ = rf.Step(rs, ActionEvent(calendar.PickDay(2026, 10, 20)))
	rs, _ = rf.Step(rs, ActionEvent(calendar.PickTimeOfDay("")))
	_, out = rf.Step(rs, TextEvent("pagar_luz [ya]"))
	if got := out.Replies[0].Text; !strings.HasSuffix(got, ": pagar\\_luz \\[ya]") {
		t.Errorf("unexpected reply %q", got)
	}
	if out.Effect.Body != "pagar_luz [ya]" {
		t.Errorf("body must be stored verbatim, got %q", out.Effect.Body)
	}
}

func TestReminderFlowGuidedPath(t *testing.T) {
	var f ReminderFlow
	state, out := f.Start(2026, 10)
	if state.Step != model.StepPickingDate || out.Replies[0].EditInPlace {
		t.Fatalf("unexpected start %+v", out)
	}

	state, out = f.Step(state, ActionEvent(calendar.NavigateTo(2026, 11)))
	if state.ViewMonth != 11 || !out.Replies[0].EditInPlace {
		t.Errorf("expected in-place navigation, got %+v", state)
	}

	state, out = f.Step(state, ActionEvent(calendar.PickDay(2026, 11, 15)))
	if state.Step != model.StepPickingTime || state.Date != "2026-11-15" {
		t.Fatalf("unexpected state after pick %+v", state)
	}

	state, out = f.Step(state, ActionEvent(calendar.Action{Kind: calendar.ChangeDate}))
	if state.Step != model.StepPickingDate || state.Date != "" || state.ViewMonth != 11 {
		t.Errorf("expected change date to return to the calendar, got %+v", state)
	}
	state, _ = f.Step(state, ActionEvent(calendar.PickDay(2026, 11, 15)))

	state, out = f.Step(state, TextEvent("hola"))
	if out.Kind != Retry || state.Step != model.StepPickingTime {
		t.Errorf("expected text to re-prompt in picking_time")
	}

	state, out = f.Step(state, ActionEvent(calendar.PickTimeOfDay("18:00")))
	if state.Step != model.StepEnteringText || out.AckNote != "Hora 18:00" || !out.Replies[0].ForceReply {
		t.Fatalf("unexpected state after time %+v %+v", state, out)
	}

	next, out := f.Step(state, TextEvent("   "))
	if out.Kind != Retry || next.Step != model.StepEnteringText {
		t.Errorf("expected empty text to re-prompt")
	}

	state, out = f.Step(state, TextEvent("pagar alquiler"))
	if state != nil || out.Kind != Terminate {
		t.Fatalf("expected terminal step, got %+v", out)
	}
	want := Effect{Kind: CommitReminder, Date: "2026-11-15", Time: "18:00", Body: "pagar alquiler"}
	if out.Effect != want {
		t.Errorf("expected %+v, got %+v", want, out.Effect)
	}
}

func TestReminderFlowNoTimeAndNoop(t *testing.T) {
	var f ReminderFlow
	state, _ := f.Start(2026, 1)

	same, out := f.Step(state, ActionEvent(calendar.Action{Kind: calendar.NoOp}))
	if out.Kind != Retry || len(out.Replies) != 0 || same != state {
		t.Errorf("expected noop to only acknowledge")
	}

	state, out = f.Step(state, ActionEvent(calendar.PickTimeOfDay("08:00")))
	if out.Kind != Retry || state.Step != model.StepPickingDate {
		t.Errorf("expected time before date to be ignored")
	}

	state, _ = f.Step(state, ActionEvent(calendar.PickDay(2026, 1, 31)))
	state, out = f.Step(state, ActionEvent(calendar.PickTimeOfDay("")))
	if state.Time != "" || out.AckNote != "Sin hora (09:00)" {
		t.Errorf("expected default time, got %+v %q", state, out.AckNote)
	}
}

func TestResumeFromStaleCalendar(t *testing.T) {
	var f ReminderFlow
	state, out := f.Step(f.Resume(2026, 9), ActionEvent(calendar.PickDay(2026, 10, 15)))
	if state.Step != model.StepPickingTime || state.Date != "2026-10-15" || !out.Replies[0].EditInPlace {
		t.Errorf("unexpected resumed state %+v", state)
	}
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestStoresRoundTripStates(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			expenseID := model.Identity{ChatID: 1, UserID: 7}
			reminderID := model.Identity{ChatID: 1, UserID: 8}

			got, err := store.Get(ctx, expenseID)
			if err != nil || got != nil {
				t.Fatalf("expected empty store, got %v %v", got, err)
			}

			expense := &model.ExpenseEntryState{
				Step:            model.StepConfirming,
				KnownCategories: []string{"Comida"},
				Category:        "Comida",
				Description:     "almuerzo",
				Amount:          decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
			}
			reminder := &model.ReminderEntryState{Step: model.StepPickingTime, ViewYear: 2026, ViewMonth: 10, Date: "2026-10-15"}
			if err := store.Put(ctx, expenseID, expense); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := store.Put(ctx, reminderID, reminder); err != nil {
				t.Fatalf("put: %v", err)
			}

			got, err = store.Get(ctx, expenseID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			e, ok := got.(*model.ExpenseEntryState)
			if !ok || e.Description != "almuerzo" || !e.Amount.Decimal.Equal(expense.Amount.Decimal) {
				t.Errorf("unexpected expense state %+v", got)
			}

			got, _ = store.Get(ctx, reminderID)
			if r, ok := got.(*model.ReminderEntryState); !ok || *r != *reminder {
				t.Errorf("unexpected reminder state %+v", got)
			}

			if err := store.Delete(ctx, expenseID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if got, _ := store.Get(ctx, expenseID); got != nil {
				t.Errorf("expected state to be gone, got %+v", got)
			}
		})
	}
}
