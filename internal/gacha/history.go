package gacha

// DefaultHistoryCapacity is how many pull records an engine keeps.
const DefaultHistoryCapacity = 50

// HistoryLog is a bounded FIFO of human-readable pull records. When full, the
// oldest record is evicted. It is diagnostic only.
type HistoryLog struct {
	buf  []string
	next int // slot the next record goes into
	size int
}

func NewHistoryLog(capacity int) *HistoryLog {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryLog{buf: make([]string, capacity)}
}

func (h *HistoryLog) Add(record string) {
	h.buf[h.next] = record
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Entries returns the records most-recent-first.
func (h *HistoryLog) Entries() []string {
	out := make([]string, 0, h.size)
	for i := 1; i <= h.size; i++ {
		idx := (h.next - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}
