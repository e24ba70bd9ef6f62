package wpc

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	lobaroslip "github.com/Lobaro/slip"
	"github.com/stretchr/testify/require"

	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/sap"
	"github.com/wirepas/wpc-go/pkg/slip"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
)

// fakeNode drives the node-side of a net.Pipe, auto-answering indication
// polls with "nothing pending" and routing every other request through a
// test-supplied handler, so tests can script confirms (and deliberately
// malformed ones) without racing the real pump goroutine.
type fakeNode struct {
	conn    net.Conn
	reader  *slip.Reader
	handler func(fn *fakeNode, req frame.Frame)
}

func newFakeNode(conn net.Conn, handler func(fn *fakeNode, req frame.Frame)) *fakeNode {
	fn := &fakeNode{conn: conn, reader: slip.NewReader(conn), handler: handler}
	go fn.run()
	return fn
}

func (fn *fakeNode) run() {
	for {
		body, err := fn.reader.ReadFrame()
		if err != nil {
			return
		}
		req, err := frame.Decode(body)
		if err != nil {
			continue
		}
		if req.PrimitiveID == sap.MSAPIndicationPollRequest {
			fn.respond(frame.Frame{
				PrimitiveID:   sap.ConfirmOf(req.PrimitiveID),
				FrameID:       req.FrameID,
				PayloadLength: 1,
				Payload:       []byte{0},
			})
			continue
		}
		fn.handler(fn, req)
	}
}

func (fn *fakeNode) respond(f frame.Frame) {
	body, err := f.Encode()
	if err != nil {
		return
	}
	_ = slip.NewWriter(fn.conn).WriteFrame(body)
}

// respondWrongCRCFromHost writes a confirm frame whose trailing CRC bytes
// are forced to the WRONG_CRC_FROM_HOST sentinel, which slip.EncodeFrame
// cannot produce since it always computes a real CRC.
func (fn *fakeNode) respondWrongCRCFromHost(f frame.Frame) {
	body, err := f.Encode()
	if err != nil {
		return
	}
	withBadCRC := append(body, byte(slip.WrongCRCFromHostValue), byte(slip.WrongCRCFromHostValue>>8))
	var out byteBuffer
	out.Write([]byte{slip.End, slip.End, slip.End})
	_ = lobaroslip.NewWriter(&out).WritePacket(withBadCRC)
	_, _ = fn.conn.Write(out.bytes)
}

// byteBuffer is a minimal io.Writer so respondWrongCRCFromHost can feed
// lobaroslip.Writer without pulling in bytes.Buffer just for this.
type byteBuffer struct{ bytes []byte }

func (b *byteBuffer) Write(p []byte) (int, error) {
	b.bytes = append(b.bytes, p...)
	return len(p), nil
}

// pipeSerial adapts a net.Conn to transport.Serial (io.Reader, io.Writer,
// io.Closer) — net.Pipe's synchronous, unbuffered semantics make it a
// faithful stand-in for a real serial port in these tests.
type pipeSerial struct{ net.Conn }

func newTestNode(t *testing.T, handler func(fn *fakeNode, req frame.Frame)) *Node {
	t.Helper()
	clientConn, nodeConn := net.Pipe()
	newFakeNode(nodeConn, handler)
	n, err := OpenWithSerial(pipeSerial{clientConn}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}

func autoConfirm(fn *fakeNode, req frame.Frame) {
	fn.respond(frame.Frame{
		PrimitiveID:   sap.ConfirmOf(req.PrimitiveID),
		FrameID:       req.FrameID,
		PayloadLength: 1,
		Payload:       []byte{0},
	})
}

func TestSendRequest_S1_AttributeWriteRoundTrip(t *testing.T) {
	var gotFrame frame.Frame
	ready := make(chan struct{}, 1)

	n := newTestNode(t, func(fn *fakeNode, req frame.Frame) {
		gotFrame = req
		ready <- struct{}{}
		autoConfirm(fn, req)
	})

	result, err := n.SetCSAPAttribute(13, []byte{
		0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80,
		0xA1, 0xA2, 0xA3, 0xA4, 0xA5, 0xA6, 0xA7, 0xA8,
	})
	require.NoError(t, err)
	require.Equal(t, wpcerr.ResultOK, result)

	<-ready
	require.Equal(t, sap.CSAPAttributeWriteRequest, gotFrame.PrimitiveID)
}

func TestSendRequest_S4_CRCRetry(t *testing.T) {
	var attempts int32

	n := newTestNode(t, func(fn *fakeNode, req frame.Frame) {
		attempt := atomic.AddInt32(&attempts, 1)
		confirm := frame.Frame{PrimitiveID: sap.ConfirmOf(req.PrimitiveID), FrameID: req.FrameID, PayloadLength: 1, Payload: []byte{0}}
		if attempt <= DefaultMaxCRCRequestRetries {
			fn.respondWrongCRCFromHost(confirm)
			return
		}
		fn.respond(confirm)
	})

	result, err := n.SetCSAPAttribute(13, []byte{1})
	require.NoError(t, err)
	require.Equal(t, wpcerr.ResultOK, result)
	require.Equal(t, int32(DefaultMaxCRCRequestRetries+1), atomic.LoadInt32(&attempts))
}

func TestSendRequest_S4_CRCRetry_ExhaustedSurfacesWrongCRC(t *testing.T) {
	n := newTestNode(t, func(fn *fakeNode, req frame.Frame) {
		confirm := frame.Frame{PrimitiveID: sap.ConfirmOf(req.PrimitiveID), FrameID: req.FrameID, PayloadLength: 1, Payload: []byte{0}}
		fn.respondWrongCRCFromHost(confirm) // always wrong, every attempt
	})

	_, err := n.SetCSAPAttribute(13, []byte{1})
	require.ErrorIs(t, err, wpcerr.ErrWrongCRC)
}

func TestSendRequest_Timeout(t *testing.T) {
	n := newTestNode(t, func(fn *fakeNode, req frame.Frame) {
		// never respond: forces the confirm wait to exhaust its budget
	})

	req := frame.Frame{
		PrimitiveID:   sap.CSAPAttributeWriteRequest,
		PayloadLength: 19,
		Payload:       sap.AttributeWriteRequest{AttributeID: 1, Value: make([]byte, sap.AttributeValueSize)}.Encode(),
	}
	_, err := n.sendRequest(req, 50*time.Millisecond)
	require.ErrorIs(t, err, wpcerr.ErrTimeout)
}

func TestConcurrentSendRequest_TotalOrder(t *testing.T) {
	// Concurrent callers must observe serialized wire access: if two
	// requests were ever in flight at once, the fake node (single-threaded
	// per connection) would see a second frame_id before replying to the
	// first, and the recorded order would contain races a data-race
	// detector or a duplicate-without-intervening-confirm check would
	// catch. Here we simply assert every frame_id is distinct and that
	// all callers completed without error.
	var mu sync.Mutex
	var order []byte

	n := newTestNode(t, func(fn *fakeNode, req frame.Frame) {
		mu.Lock()
		order = append(order, req.FrameID)
		mu.Unlock()
		autoConfirm(fn, req)
	})

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := n.SetCSAPAttribute(1, []byte{byte(i)})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, callers)
	seen := make(map[byte]bool)
	for _, id := range order {
		require.False(t, seen[id], "frame_id reused across concurrent callers")
		seen[id] = true
	}
}
