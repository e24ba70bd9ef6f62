// Package wpc is the engine: the request/confirm serialiser, the
// indication pump and watchdog, the dispatcher, and the thin SAP-shaped
// public API layered over pkg/sap's message shapes. One Node value is one
// connection to one dual-MCU node; a host talking to several nodes simply
// holds several Nodes (spec §9).
package wpc

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/wirepas/wpc-go/pkg/reassembly"
	"github.com/wirepas/wpc-go/pkg/slip"
	"github.com/wirepas/wpc-go/pkg/transport"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
	"github.com/wirepas/wpc-go/pkg/wpcmetrics"
)

// Timing defaults, grounded on the original implementation's
// wpc_internal.c / wpc.c constants (see DESIGN.md).
const (
	DefaultConfirmTimeout       = 500 * time.Millisecond
	DefaultMaxConfirmAttempt    = 50
	DefaultMaxCRCRequestRetries = 3
	DefaultPollInterval         = 20 * time.Millisecond
	DefaultDrainContinuePoll    = 1 * time.Millisecond
	DefaultMaxIndPerPoll        = 30
	DefaultIndQueueCapacity     = 2 * DefaultMaxIndPerPoll
	DefaultMaxPollFailDuration  = 60 * time.Second
	DefaultStopStackTimeout     = 60 * time.Second
)

// Callbacks bundles every application-registered channel spec §6.5 names.
// Exactly one subscriber per channel is supported, matching the original's
// single-function-pointer-per-channel contract (spec §9).
type Callbacks struct {
	OnDataRx            func(DataRx)
	OnAppConfigRx        func(AppConfigRx)
	OnScanNeighborsDone  func(result wpcerr.Result)
	OnStackStatus        func(state uint8)
	OnRemoteStatus       func(ImageRemoteStatus)
	OnConfigDataItemRx   func(itemID uint16, value []byte)

	// OnFatal is invoked by the watchdog instead of terminating the
	// process when non-nil (spec §9's "a cleaner design is a fatal-error
	// callback"). If nil, the default behaviour logs and calls os.Exit(1).
	OnFatal func(error)
}

// Options configures a Node beyond the serial connection itself.
type Options struct {
	MaxPollFailDuration time.Duration // 0 selects DefaultMaxPollFailDuration; negative disables the watchdog
	FragmentMaxDuration time.Duration // 0 selects reassembly.DefaultFragmentMaxDuration
	IndQueueCapacity    int           // 0 selects DefaultIndQueueCapacity
	MaxIndPerPoll       int           // 0 selects DefaultMaxIndPerPoll

	// SynthesizeStackStartedIndication works around firmware versions
	// that emit no stack-started indication on MSAPStackStartRequest
	// (spec §9); when true, Node synthesises one on the caller's thread
	// immediately after a successful stack-start confirm.
	SynthesizeStackStartedIndication bool

	Callbacks Callbacks
	Metrics   *wpcmetrics.Metrics
	Logger    *log.Logger
}

// Node is one connection to one dual-MCU node.
type Node struct {
	// id identifies this Node instance in log lines so a host managing
	// several nodes (spec §9: "multiple instances are simply multiple
	// values") can tell their log output apart.
	id xid.ID

	serial transport.Serial
	reader *slip.Reader
	writer *slip.Writer

	// frames is fed by the single dedicated readLoop goroutine that owns
	// n.reader for the Node's entire lifetime. Every consumer (sendRequest,
	// the pump's indication drain) reads frames from this channel instead
	// of calling n.reader.ReadFrame() directly, so a reader that is kept
	// waiting past its own deadline never leaves a second, competing
	// ReadFrame() in flight on the same underlying stream.
	frames chan frameResult

	requestLock sync.Mutex // spec §3 "request-serialisation lock"
	pollSuspend sync.Mutex // spec §3 "poll-suspension lock"

	frameID uint32 // atomic, monotonically incrementing 8-bit counter (wraps)

	queue       *indicationQueue
	reassembler *reassembly.Reassembler
	txTable     *txTable

	lastOK              atomic.Value // time.Time
	maxPollFailDuration time.Duration

	callbacks Callbacks
	metrics   *wpcmetrics.Metrics
	log       *log.Logger

	synthesizeStackStarted bool

	closed  atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Open connects to cfg's serial port and starts the pump and dispatcher
// goroutines. The returned Node must be closed with Close.
func Open(cfg transport.Config, opts Options) (*Node, error) {
	serial, err := transport.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("wpc: open serial: %w", err)
	}
	return OpenWithSerial(serial, opts)
}

// OpenWithSerial wires an already-open transport.Serial into a Node; used
// directly by tests and by callers with a non-standard transport.
func OpenWithSerial(serial transport.Serial, opts Options) (*Node, error) {
	if opts.IndQueueCapacity <= 0 {
		opts.IndQueueCapacity = DefaultIndQueueCapacity
	}
	if opts.MaxIndPerPoll <= 0 {
		opts.MaxIndPerPoll = DefaultMaxIndPerPoll
	}
	if opts.MaxPollFailDuration == 0 {
		opts.MaxPollFailDuration = DefaultMaxPollFailDuration
	}
	id := xid.New()
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, fmt.Sprintf("[%s] ", id), log.Ldate|log.Ltime|log.Lmicroseconds)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = wpcmetrics.New(nil)
	}

	n := &Node{
		id:                     id,
		serial:                 serial,
		reader:                 slip.NewReader(serial),
		writer:                 slip.NewWriter(serial),
		queue:                  newIndicationQueue(opts.IndQueueCapacity),
		reassembler:            reassembly.New(opts.FragmentMaxDuration),
		txTable:                newTxTable(),
		maxPollFailDuration:    opts.MaxPollFailDuration,
		callbacks:              opts.Callbacks,
		metrics:                metrics,
		log:                    logger,
		synthesizeStackStarted: opts.SynthesizeStackStartedIndication,
		stopCh:                 make(chan struct{}),
		frames:                 make(chan frameResult),
	}
	n.lastOK.Store(time.Now())

	n.wg.Add(3)
	go n.readLoop()
	go n.pumpLoop(opts.MaxIndPerPoll)
	go n.dispatchLoop()

	return n, nil
}

// Close stops the read loop, pump and dispatcher, releases internal state
// and closes the serial handle. In-flight callbacks are allowed to
// complete before Close returns (spec §5's shutdown contract).
//
// The serial handle is closed before waiting on the goroutines: readLoop
// is typically parked inside a blocking n.reader.ReadFrame() call, and
// closing the handle is what unblocks that read so readLoop can observe
// stopCh and exit.
func (n *Node) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(n.stopCh)
	n.queue.close()
	err := n.serial.Close()
	n.wg.Wait()
	return err
}

// ID returns this Node's log-correlation identifier, unique per process.
func (n *Node) ID() string {
	return n.id.String()
}

// nextFrameID returns the next monotonically-incrementing 8-bit frame id.
func (n *Node) nextFrameID() byte {
	return byte(atomic.AddUint32(&n.frameID, 1))
}

// markAlive records that a byte was received from the node, advancing the
// watchdog's last_ok_ts (spec §4.3's watchdog, invariant 7: any byte
// received advances it, no operation retreats it).
func (n *Node) markAlive() {
	n.lastOK.Store(time.Now())
}

func (n *Node) lastOKTime() time.Time {
	return n.lastOK.Load().(time.Time)
}

// checkWatchdog declares the link dead if it has been silent for longer
// than maxPollFailDuration (0 disables). Declaring it dead invokes OnFatal
// if set, otherwise logs and terminates the process per spec §4.3's
// "the host application is a supervisor whose restart is the designated
// recovery".
func (n *Node) checkWatchdog() {
	if n.maxPollFailDuration <= 0 {
		return
	}
	if time.Since(n.lastOKTime()) <= n.maxPollFailDuration {
		return
	}
	n.metrics.WatchdogTrips.Inc()
	err := fmt.Errorf("%w: no byte received from node in over %s", wpcerr.ErrFatal, n.maxPollFailDuration)
	if n.callbacks.OnFatal != nil {
		n.callbacks.OnFatal(err)
		return
	}
	n.log.Printf("fatal: %v", err)
	os.Exit(1)
}

// DisablePollRequest suspends (true) or resumes (false) the indication
// pump by acquiring/releasing the poll-suspension lock, per spec §4.3's
// "Suspend" contract — used to avoid timing out polls during a deliberate
// node reboot.
func (n *Node) DisablePollRequest(disable bool) {
	if disable {
		n.pollSuspend.Lock()
	} else {
		n.pollSuspend.Unlock()
	}
}

// SetMaxPollFailDuration adjusts the watchdog threshold at runtime (spec
// §6.5); 0 disables it.
func (n *Node) SetMaxPollFailDuration(d time.Duration) {
	n.maxPollFailDuration = d
}
