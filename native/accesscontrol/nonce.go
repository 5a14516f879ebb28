package accesscontrol

import (
	"math"

	"arcchain/arcerr"
)

// maxWindowDrift bounds how far ahead of base_nonce an incoming nonce may
// be (10x window size, spec §4.D) to limit how much a single call can slide
// the window and to make window-manipulation attacks detectable.
const maxWindowDrift = 10 * NonceWindowSize

// minUpdateIntervalSeconds is the minimum gap required between the tracker's
// last_update_timestamp and the current time before a new nonce update is
// accepted, guarding against concurrent-update races on the same tracker
// (spec §4.D).
const minUpdateIntervalSeconds = 1

// IsValid reports whether nonce n can be accepted against w: it must not be
// the sentinel max value, must not be behind the window base, and must not
// already be marked used within the window.
func (w *NonceWindow) IsValid(n uint64) bool {
	if n == math.MaxUint64 {
		return false
	}
	if n < w.BaseNonce {
		return false
	}
	offset := n - w.BaseNonce
	if offset >= NonceWindowSize {
		return false
	}
	return w.WindowBitmap&(1<<offset) == 0
}

// Slide advances the window base by k, shifting the bitmap accordingly. A
// shift of 64 or more simply resets the bitmap to empty (spec §4.D).
func (w *NonceWindow) Slide(k uint64) {
	if k >= NonceWindowSize {
		w.WindowBitmap = 0
		w.BaseNonce += k
		return
	}
	w.BaseNonce += k
	w.WindowBitmap >>= k
}

// MarkUsed marks nonce n as consumed, sliding the window first if n falls
// past its current range (spec §4.D: "if n − base_nonce ≥ 64, first
// slide(...)"). This does not route through IsValid: IsValid's own
// offset>=NonceWindowSize clause would reject exactly the nonces that are
// supposed to trigger a slide here (see spec scenario S2, nonce=70 against
// base=0), so MarkUsed checks reuse only within the current window and
// otherwise trusts the caller (AcceptNonce) to have bounded n already via
// maxWindowDrift.
func (w *NonceWindow) MarkUsed(n uint64) error {
	if n == math.MaxUint64 || n < w.BaseNonce {
		return arcerr.New(arcerr.CodeNonceAlreadyUsed)
	}
	offset := n - w.BaseNonce
	if offset >= NonceWindowSize {
		w.Slide(offset - (NonceWindowSize - 1))
		offset = n - w.BaseNonce
	} else if w.WindowBitmap&(1<<offset) != 0 {
		return arcerr.New(arcerr.CodeNonceAlreadyUsed)
	}
	if w.TotalNoncesProcessed == math.MaxUint64 {
		return arcerr.New(arcerr.CodeNonceOverflow)
	}
	w.WindowBitmap |= 1 << offset
	w.TotalNoncesProcessed++
	return nil
}

// AcceptNonce runs the full §4.D acceptance sequence for tracker t against
// an incoming nonce n observed at time now: window-manipulation bound,
// concurrent-update race guard, replay check, then mark-used (which itself
// slides the window for a nonce ahead of the current range).
func AcceptNonce(t *NonceTracker, n uint64, now int64) error {
	if n == math.MaxUint64 {
		return arcerr.New(arcerr.CodeNonceAlreadyUsed)
	}
	if n < t.Window.BaseNonce {
		return arcerr.New(arcerr.CodeNonceAlreadyUsed)
	}
	offset := n - t.Window.BaseNonce
	if offset > maxWindowDrift {
		return arcerr.New(arcerr.CodeNonceWindowManipulation)
	}
	// Replay within the current window is a fact about prior state, not
	// about timing, so it is checked ahead of the concurrent-update race
	// guard below (spec scenario S2: an immediate replay of an
	// already-used nonce must fail NonceAlreadyUsed even though no time
	// has elapsed since the last update).
	if offset < NonceWindowSize && t.Window.WindowBitmap&(1<<offset) != 0 {
		return arcerr.New(arcerr.CodeNonceAlreadyUsed)
	}
	if now-t.LastUpdateTimestamp < minUpdateIntervalSeconds {
		return arcerr.New(arcerr.CodeConcurrentNonceUpdate)
	}
	if err := t.Window.MarkUsed(n); err != nil {
		return err
	}
	t.LastUpdateTimestamp = now
	t.UpdateSequence++
	return nil
}
