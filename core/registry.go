package core

// MaxChannels is the number of PWM channels the tick handler can service
const MaxChannels = 4

// registry is the fixed table of enabled channels.
// Live entries always form a prefix of slots; the first nil ends dispatch.
// Callers hold the critical section for every method.
type registry struct {
	slots [MaxChannels]*Channel
	count uint8
}

// register stores ch in the first free slot and clears its duty pair.
// Registering a channel that is already present succeeds without change.
func (r *registry) register(ch *Channel) bool {
	for i := 0; i < MaxChannels; i++ {
		switch r.slots[i] {
		case ch:
			return true
		case nil:
			r.slots[i] = ch
			r.count++
			ch.committed = 0
			ch.pending.Store(0)
			return true
		}
	}
	return false
}

// unregister removes ch and shifts the following entries left so no hole
// is left behind. Returns whether the table is now empty and whether ch
// was found at all.
func (r *registry) unregister(ch *Channel) (empty, found bool) {
	idx := -1
	for i := 0; i < MaxChannels; i++ {
		if r.slots[i] == nil {
			break
		}
		if r.slots[i] == ch {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r.count == 0, false
	}

	copy(r.slots[idx:], r.slots[idx+1:])
	r.slots[MaxChannels-1] = nil
	r.count--

	return r.count == 0, true
}

// contains reports whether ch occupies a slot
func (r *registry) contains(ch *Channel) bool {
	for i := 0; i < MaxChannels; i++ {
		if r.slots[i] == nil {
			return false
		}
		if r.slots[i] == ch {
			return true
		}
	}
	return false
}

// len returns the number of live channels
func (r *registry) len() int {
	return int(r.count)
}

// reset empties the table
func (r *registry) reset() {
	for i := range r.slots {
		r.slots[i] = nil
	}
	r.count = 0
}
