// Package sim runs the engine against virtual time so waveforms can be
// measured deterministically on the host.
package sim

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint64 // Virtual time in nanoseconds
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Clock is a virtual time base with a sorted timer list.
// It is not safe for concurrent use.
type Clock struct {
	now       uint64
	timerList *Timer
}

// NewClock returns a clock starting at time zero
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current virtual time in nanoseconds
func (c *Clock) Now() uint64 {
	return c.now
}

// Schedule adds a timer to the schedule
func (c *Clock) Schedule(t *Timer) {
	c.insertTimer(t)
}

// Cancel removes a timer if it is scheduled
func (c *Clock) Cancel(t *Timer) {
	if c.timerList == t {
		c.timerList = t.Next
		t.Next = nil
		return
	}
	for cur := c.timerList; cur != nil; cur = cur.Next {
		if cur.Next == t {
			cur.Next = t.Next
			t.Next = nil
			return
		}
	}
}

// Pending returns the number of scheduled timers
func (c *Clock) Pending() int {
	n := 0
	for cur := c.timerList; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// insertTimer inserts a timer in sorted order by WakeTime
func (c *Clock) insertTimer(t *Timer) {
	if c.timerList == nil || t.WakeTime < c.timerList.WakeTime {
		t.Next = c.timerList
		c.timerList = t
		return
	}

	current := c.timerList
	for current.Next != nil && current.Next.WakeTime <= t.WakeTime {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Advance moves time forward by d nanoseconds, running every timer that
// comes due on the way in WakeTime order.
func (c *Clock) Advance(d uint64) {
	target := c.now + d

	for c.timerList != nil && c.timerList.WakeTime <= target {
		timer := c.timerList
		c.timerList = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		if timer.WakeTime > c.now {
			c.now = timer.WakeTime
		}

		if timer.Handler(timer) == SF_RESCHEDULE {
			c.insertTimer(timer)
		}
	}

	c.now = target
}
