package reminders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

const (
	notifyTimeout = 15 * time.Second

	// lookahead acota la búsqueda del próximo día activo de un período.
	lookahead = 400
)

// Timer es lo mínimo que se necesita de *time.Timer.
type Timer interface {
	Stop() bool
}

// AfterFunc programa f para dentro de d. En producción es time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// TakenChecker evita avisar de una toma que ya se registró.
type TakenChecker interface {
	IsTaken(ctx context.Context, medicationID, hhmm, date string) (bool, error)
}

type pending struct {
	med   medications.Medication
	time  string
	at    time.Time
	timer Timer
	gen   uint64
}

// Pending describe un recordatorio armado.
type Pending struct {
	Key          string
	MedicationID string
	Name         string
	Time         string
	At           time.Time
}

// Scheduler mantiene un timer cancelable por medicationID|HH:MM.
// Cada Sync reemplaza todos los timers, así un borrado o edición no deja avisos viejos.
type Scheduler struct {
	mu        sync.Mutex
	notifier  notifier.Notifier
	taken     TakenChecker
	now       func() time.Time
	afterFunc AfterFunc
	log       logger.Logger

	timers  map[string]*pending
	gen     uint64
	syncs   uint64 // cuenta los Sync; fire no re-arma si cambió mientras notificaba
	stopped bool
}

func NewScheduler(n notifier.Notifier, taken TakenChecker, clk clock.Clock, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		notifier: n,
		taken:    taken,
		now:      clk.Now,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		log:    log.With(logger.Fields{"component": "reminders"}),
		timers: map[string]*pending{},
	}
}

func slotKey(medicationID, hhmm string) string {
	return medicationID + "|" + hhmm
}

// Sync cancela todos los timers y arma el próximo aviso de cada horario con recordatorio activo.
func (s *Scheduler) Sync(meds []medications.Medication) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.syncs++
	s.cancelAllLocked()

	now := s.now()
	for _, m := range meds {
		for _, t := range m.Times {
			if !m.ReminderEnabled(t) {
				continue
			}
			s.armLocked(m.Clone(), t, now)
		}
	}
	s.log.Debug("reminders synced", logger.Fields{"armed": len(s.timers)})
}

// MedicationsChanged implementa medications.Observer.
func (s *Scheduler) MedicationsChanged(ctx context.Context, items []medications.Medication, reason string) {
	s.Sync(items)
}

// Stop cancela todo; un Sync posterior no vuelve a armar.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.stopped = true
}

func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.timers))
	for k, p := range s.timers {
		out = append(out, Pending{Key: k, MedicationID: p.med.ID, Name: p.med.Name, Time: p.time, At: p.at})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (s *Scheduler) cancelAllLocked() {
	for k, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, k)
	}
}

func (s *Scheduler) armLocked(med medications.Medication, hhmm string, after time.Time) {
	at, ok := NextOccurrence(med, hhmm, after)
	if !ok {
		return
	}
	s.gen++
	key := slotKey(med.ID, hhmm)
	gen := s.gen
	p := &pending{med: med, time: hhmm, at: at, gen: gen}
	p.timer = s.afterFunc(at.Sub(s.now()), func() { s.fire(key, gen) })
	s.timers[key] = p
}

func (s *Scheduler) fire(key string, gen uint64) {
	s.mu.Lock()
	p, ok := s.timers[key]
	if !ok || p.gen != gen || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	syncs := s.syncs
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	date := dates.Format(p.at)
	fields := logger.Fields{"key": key, "date": date}

	taken, err := s.taken.IsTaken(ctx, p.med.ID, p.time, date)
	if err != nil {
		s.log.Warn("reminder: taken check failed, notifying anyway", fields)
	}
	if !taken {
		if err := s.notifier.Notify(ctx, ReminderTitle(p.med), "Scheduled at "+p.time); err != nil {
			fields["error"] = err
			s.log.Error("reminder notification failed", fields)
		} else {
			s.log.Info("reminder sent", fields)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// un Sync durante el aviso ya decidió qué queda armado, incluso si borró este horario
	if s.syncs != syncs || s.stopped {
		return
	}
	after := s.now()
	if p.at.After(after) {
		after = p.at
	}
	s.armLocked(p.med, p.time, after)
}

// ReminderTitle es el texto del aviso: "Time to take X (dosage)".
func ReminderTitle(m medications.Medication) string {
	return fmt.Sprintf("Time to take %s (%d)", strings.TrimSpace(m.Name), m.Dosage)
}

// NextOccurrence es el primer HH:MM estrictamente posterior a after en un día activo.
func NextOccurrence(med medications.Medication, hhmm string, after time.Time) (time.Time, bool) {
	day := dates.Day(after)
	for i := 0; i < lookahead; i++ {
		d := dates.AddDays(day, i)
		if med.Recurrence.Kind == medications.RecurrencePeriod && dates.Compare(d, med.Recurrence.End) > 0 {
			return time.Time{}, false
		}
		if !med.Recurrence.Covers(d) {
			continue
		}
		at, err := dates.At(d, hhmm)
		if err != nil {
			return time.Time{}, false
		}
		if at.After(after) {
			return at, true
		}
	}
	return time.Time{}, false
}
