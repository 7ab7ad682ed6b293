package task

import (
	"sync"
	"time"
)

// Window — скользящее окно коалесцирования.
//
// После активации окно остаётся активным, пока не пройдёт d без новых
// активаций. Каждая активация сдвигает момент закрытия. Досрочно окно
// не закрывается.
type Window struct {
	d time.Duration

	mu     sync.Mutex
	active bool
	timer  *time.Timer
	seq    uint64 // отсекает устаревшие срабатывания таймера
}

// NewWindow создаёт окно длительностью d. d <= 0 отключает окно.
func NewWindow(d time.Duration) *Window {
	if d < 0 {
		d = 0
	}
	return &Window{d: d}
}

// Enabled сообщает, включено ли коалесцирование.
func (w *Window) Enabled() bool {
	return w.d > 0
}

// ProbeAndBump возвращает, было ли окно активно в момент вызова,
// и затем активирует (или продлевает) его.
//
// Для отключённого окна всегда возвращает false и не заводит таймер.
func (w *Window) ProbeAndBump() bool {
	if w.d == 0 {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wasActive := w.active
	w.active = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.seq++
	current := w.seq

	w.timer = time.AfterFunc(w.d, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.seq == current {
			w.active = false
			w.timer = nil
		}
	})

	return wasActive
}

// Active сообщает, активно ли окно сейчас.
func (w *Window) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}
