package task

import "sync"

// Heap — упорядоченное мультимножество незавершённых выполнений.
//
// Записи удаляются по идентичности (Execution.ID). Переход из непустого
// состояния в пустое будит всех текущих ожидающих OnceQuiescent; после
// этого список ожидающих очищается.
type Heap struct {
	mu      sync.Mutex
	content []*Execution
	waiters []chan struct{}
}

// NewHeap создаёт пустой Heap.
func NewHeap() *Heap {
	return &Heap{}
}

// Add добавляет выполнение в конец.
func (h *Heap) Add(e *Execution) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.content = append(h.content, e)
}

// Remove удаляет все записи с той же идентичностью, что и e.
// Удаление отсутствующей записи ничего не делает.
func (h *Heap) Remove(e *Execution) {
	if e == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	before := len(h.content)
	kept := h.content[:0]
	for _, x := range h.content {
		if x.ID() != e.ID() {
			kept = append(kept, x)
		}
	}
	// Обнуляем хвост, чтобы не держать ссылки.
	for i := len(kept); i < before; i++ {
		h.content[i] = nil
	}
	h.content = kept

	if before > 0 && len(h.content) == 0 {
		h.notifyLocked()
	}
}

// Count возвращает количество записей.
func (h *Heap) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.content)
}

// IsEmpty сообщает, пуст ли Heap.
func (h *Heap) IsEmpty() bool {
	return h.Count() == 0
}

// First возвращает самое старое выполнение или nil.
func (h *Heap) First() *Execution {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.content) == 0 {
		return nil
	}
	return h.content[0]
}

// Last возвращает самое новое выполнение или nil.
func (h *Heap) Last() *Execution {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.content) == 0 {
		return nil
	}
	return h.content[len(h.content)-1]
}

// OnceQuiescent возвращает канал, который закроется, когда Heap
// в следующий раз станет пустым. Если Heap уже пуст, канал закрыт.
func (h *Heap) OnceQuiescent() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{})
	if len(h.content) == 0 {
		close(ch)
		return ch
	}
	h.waiters = append(h.waiters, ch)
	return ch
}

func (h *Heap) notifyLocked() {
	for _, ch := range h.waiters {
		close(ch)
	}
	h.waiters = nil
}
