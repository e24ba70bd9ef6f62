package wpc

import (
	"errors"
	"fmt"
	"time"

	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// sendRequest implements spec §4.2's send_request(frame, timeout) contract:
// serialise against other callers, emit the frame, read frames until the
// matching confirm or MaxConfirmAttempt mismatches are drained, retry on
// WRONG_CRC_FROM_HOST up to MaxCRCRequestRetries, never retry on a
// confirm's own WRONG_CRC.
func (n *Node) sendRequest(req frame.Frame, timeout time.Duration) (frame.Frame, error) {
	if n.closed.Load() {
		return frame.Frame{}, wpcerr.ErrClosed
	}

	n.requestLock.Lock()
	defer n.requestLock.Unlock()

	return n.sendRequestLocked(req, timeout)
}

// sendRequestLocked is sendRequest's body, assuming requestLock is already
// held. The pump (pkg/wpc/pump.go) calls this directly so it can keep the
// serial handle locked across its own poll confirm AND the indication
// drain that follows it, matching spec §5's "Serial handle: exclusively
// accessed under the request-serialisation lock" — the drain reads are
// not requests, but they still touch the shared reader and must not
// interleave with a caller thread's concurrent sendRequest.
func (n *Node) sendRequestLocked(req frame.Frame, timeout time.Duration) (frame.Frame, error) {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}

	req.FrameID = n.nextFrameID()
	req.PayloadLength = byte(len(req.Payload))

	for attempt := 0; attempt <= DefaultMaxCRCRequestRetries; attempt++ {
		confirm, err := n.emitAndAwaitConfirm(req, timeout)
		if err == nil {
			return confirm, nil
		}
		if errors.Is(err, wpcerr.ErrWrongCRCFromHost) {
			if attempt < DefaultMaxCRCRequestRetries {
				n.metrics.CRCRetries.Inc()
				continue
			}
			// Retries exhausted: surface the generic WRONG_CRC outcome
			// rather than the from-host variant, since the caller cannot
			// retry any further either way.
			return frame.Frame{}, wpcerr.ErrWrongCRC
		}
		return frame.Frame{}, err
	}
	return frame.Frame{}, wpcerr.ErrWrongCRC
}

// emitAndAwaitConfirm performs one transmit-then-wait cycle: write the
// request, then read frames (discarding mismatches) until the confirm
// matching (primitive_id, frame_id) arrives, MaxConfirmAttempt mismatches
// have been drained, or timeout elapses.
func (n *Node) emitAndAwaitConfirm(req frame.Frame, timeout time.Duration) (frame.Frame, error) {
	body, err := req.Encode()
	if err != nil {
		return frame.Frame{}, fmt.Errorf("%w: %v", wpcerr.ErrWrongParam, err)
	}
	if err := n.writer.WriteFrame(body); err != nil {
		return frame.Frame{}, fmt.Errorf("%w: %v", wpcerr.ErrGeneric, err)
	}

	deadline := time.Now().Add(timeout)
	for attempts := 0; attempts < DefaultMaxConfirmAttempt; attempts++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			n.metrics.ConfirmTimeouts.Inc()
			n.checkWatchdog()
			return frame.Frame{}, wpcerr.ErrTimeout
		}

		respBody, err := n.readFrameWithDeadline(remaining)
		if err != nil {
			if errors.Is(err, wpcerr.ErrTimeout) {
				n.metrics.ConfirmTimeouts.Inc()
				n.checkWatchdog()
				return frame.Frame{}, wpcerr.ErrTimeout
			}
			if errors.Is(err, wpcerr.ErrWrongCRCFromHost) {
				return frame.Frame{}, err
			}
			if errors.Is(err, wpcerr.ErrWrongCRC) {
				// Spec §4.2 step 5: a confirm's own CRC failure is not
				// retried — but we only know it was meant as *this*
				// confirm once decoded, which CRC failure prevents.
				// Treat it the same as a WRONG_CRC on the expected slot:
				// surface it rather than silently draining, since a
				// corrupted byte stream here cannot be distinguished
				// from a corrupted confirm.
				n.metrics.WrongCRCErrors.Inc()
				return frame.Frame{}, err
			}
			// Other framing noise (stray debug byte, short frame): drain
			// and keep waiting, it still proves the link is alive.
			n.markAlive()
			continue
		}

		n.markAlive()
		resp, err := frame.Decode(respBody)
		if err != nil {
			continue
		}
		if resp.IsConfirmFor(req) {
			return resp, nil
		}
		// Mismatched frame: discarded, not dispatched (spec §4.2 step 3;
		// assumed stale confirm from a previous poll).
	}

	n.metrics.SyncErrors.Inc()
	return frame.Frame{}, wpcerr.ErrSyncError
}

// frameResult is one readLoop outcome, delivered over n.frames.
type frameResult struct {
	body []byte
	err  error
}

// readLoop is the Node's sole caller of n.reader.ReadFrame(): one goroutine,
// for the Node's entire lifetime, so a consumer that stops waiting past its
// own deadline never leaves a second ReadFrame() competing for bytes on the
// same underlying stream. Every frame it reads is handed to whichever
// consumer is waiting on n.frames next; a frame that arrives after its
// intended consumer already timed out is simply picked up by the next one
// and treated as a mismatch (spec §4.2 step 3), which is what the wire
// protocol expects from a stale confirm or indication anyway.
func (n *Node) readLoop() {
	defer n.wg.Done()
	for {
		body, err := n.reader.ReadFrame()
		select {
		case <-n.stopCh:
			return
		case n.frames <- frameResult{body, err}:
		}
	}
}

// readFrameWithDeadline reads one SLIP frame, translating readLoop's
// continuous stream into a bounded wait for the calling goroutine.
func (n *Node) readFrameWithDeadline(budget time.Duration) ([]byte, error) {
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case r := <-n.frames:
		return r.body, r.err
	case <-timer.C:
		return nil, wpcerr.ErrTimeout
	case <-n.stopCh:
		return nil, wpcerr.ErrClosed
	}
}
