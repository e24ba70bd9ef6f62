package wpc

import (
	"time"

	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/sap"
)

// pumpLoop is the indication pump (spec §4.3): a dedicated goroutine that
// periodically polls the node for queued indications, drains up to the
// currently-free queue space (capped at maxIndPerPoll), stamps each
// envelope, enqueues it, and answers each with a RESPONSE frame.
func (n *Node) pumpLoop(maxIndPerPoll int) {
	defer n.wg.Done()
	ticker := time.NewTicker(DefaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stopCh:
			return
		default:
		}

		free := n.queue.freeSpace()
		if free == 0 {
			n.sleepOrStop(DefaultPollInterval)
			continue
		}
		if free > maxIndPerPoll {
			free = maxIndPerPoll
		}

		morePending := n.pollOnce(free)

		if morePending {
			n.sleepOrStop(DefaultDrainContinuePoll)
		} else {
			n.sleepOrStop(DefaultPollInterval)
		}
	}
}

func (n *Node) sleepOrStop(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-n.stopCh:
	case <-t.C:
	}
}

// pollOnce acquires the poll-suspension lock, then the request-
// serialisation lock, issues one MSAPIndicationPollRequest, and — still
// holding both — drains up to free indications if the node reports any
// pending, returning whether indications remain queued on the node side
// (spec §4.3 step 7). The request lock is held across the whole cycle,
// not just the poll confirm, because the drain reads and RESPONSE writes
// also touch the shared serial handle (spec §5).
func (n *Node) pollOnce(free int) (morePending bool) {
	n.pollSuspend.Lock()
	defer n.pollSuspend.Unlock()

	n.requestLock.Lock()
	defer n.requestLock.Unlock()

	pollReq := frame.Frame{PrimitiveID: sap.MSAPIndicationPollRequest}
	confirm, err := n.sendRequestLocked(pollReq, DefaultConfirmTimeout)
	if err != nil {
		return false
	}
	if len(confirm.Payload) < 1 || confirm.Payload[0] == 0 {
		return false
	}

	for i := 0; i < free; i++ {
		indBody, err := n.readFrameWithDeadline(DefaultConfirmTimeout)
		if err != nil {
			return false
		}
		n.markAlive()
		receivedAt := time.Now()

		ind, err := frame.Decode(indBody)
		if err != nil {
			continue
		}

		// Payload byte 0 is indication_status: the node's own count of
		// indications still queued behind this one, the same field the
		// original's handle_indication()/get_indication_locked() loop
		// tests to decide whether to keep draining (grounded on
		// wpc_internal.c's "while (max_ind-- && remaining_ind)").
		remaining := 0
		if len(ind.Payload) > 0 {
			remaining = int(ind.Payload[0])
		}
		lastSlot := i == free-1
		moreWanted := remaining > 0 && !lastSlot
		n.respondToIndication(ind, moreWanted)

		n.queue.push(envelope{frame: ind, timestamp: receivedAt})
		n.metrics.QueueOccupancy.Set(float64(n.queue.cap() - n.queue.freeSpace()))

		morePending = remaining > 0
		if remaining == 0 {
			return morePending
		}
	}
	return morePending
}

// respondToIndication sends the RESPONSE frame acknowledging receipt of an
// indication (spec §4.3 step 5): primitive_id shifted by ResponseOffset,
// same frame_id, one flag byte meaning "more wanted".
func (n *Node) respondToIndication(ind frame.Frame, moreWanted bool) {
	flag := byte(0)
	if moreWanted {
		flag = 1
	}
	resp := frame.Frame{
		PrimitiveID:   sap.ResponseOf(ind.PrimitiveID),
		FrameID:       ind.FrameID,
		PayloadLength: 1,
		Payload:       []byte{flag},
	}
	body, err := resp.Encode()
	if err != nil {
		return
	}
	_ = n.writer.WriteFrame(body)
}
