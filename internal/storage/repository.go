package storage

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomeNoSlots    Outcome = "no_slots"
	OutcomeSlotsFound Outcome = "slots_found"
	OutcomeFailed     Outcome = "failed"
)

// Attempt: одна попытка поиска, для журнала
type Attempt struct {
	RunID       string
	Number      int
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     Outcome
	SlotCount   int
	Fingerprint string // SHA256 набора слотов, пусто если слотов нет
	Error       string
}

// Journal: журнал попыток только на запись.
// Назад не читается: каждый запуск начинает поиск с нуля.
type Journal interface {
	// EnsureSchema создаёт таблицу журнала, если её нет
	EnsureSchema(ctx context.Context) error

	// RecordAttempt сохраняет результат попытки
	RecordAttempt(ctx context.Context, attempt *Attempt) error

	Close() error
}

// Nop: журнал выключен
type Nop struct{}

func (Nop) EnsureSchema(context.Context) error            { return nil }
func (Nop) RecordAttempt(context.Context, *Attempt) error { return nil }
func (Nop) Close() error                                  { return nil }
