package wpc

import (
	"time"

	"github.com/wirepas/wpc-go/pkg/frame"
	"github.com/wirepas/wpc-go/pkg/reassembly"
	"github.com/wirepas/wpc-go/pkg/sap"
)

// DataRx is delivered to Callbacks.OnDataRx for both plain and
// reassembled-from-fragments data.
type DataRx struct {
	SrcAddr      uint32
	DestAddr     uint32
	SrcEndpoint  uint8
	DestEndpoint uint8
	TravelTime   uint32
	QoS          bool
	HopCount     uint8
	APDU         []byte
}

// AppConfigRx is delivered to Callbacks.OnAppConfigRx.
type AppConfigRx struct {
	SequenceNumber uint8
	DiagnosticData uint16
	Data           []byte
}

// ImageRemoteStatus is an alias of sap.ImageRemoteStatus, giving the
// OnRemoteStatus callback and GetImageRemoteStatus a pkg/wpc name for it.
type ImageRemoteStatus = sap.ImageRemoteStatus

// dispatchLoop is the dispatcher (spec §4.4): a dedicated goroutine that
// drains the indication queue and invokes application callbacks. Handler
// panics are recovered so a faulting callback cannot bring the engine down
// (spec §7: "engine must not crash due to an application callback fault").
func (n *Node) dispatchLoop() {
	defer n.wg.Done()
	for {
		e, ok := n.queue.pop()
		if !ok {
			return
		}
		n.metrics.IndicationsTotal.Inc()
		n.metrics.QueueOccupancy.Set(float64(n.queue.cap() - n.queue.freeSpace()))
		n.dispatchOne(e)
	}
}

func (n *Node) dispatchOne(e envelope) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Printf("recovered panic in indication handler for primitive 0x%02x: %v", e.frame.PrimitiveID, r)
		}
	}()

	switch e.frame.PrimitiveID {
	case sap.DSAPDataRxIndication:
		n.handleDataRxIndication(e.frame)
	case sap.DSAPDataRxFragmentIndication:
		n.handleDataRxFragmentIndication(e.frame)
	case sap.DSAPDataTxIndication:
		n.handleDataTxIndication(e.frame)
	case sap.MSAPStackStateIndication:
		n.handleStackStateIndication(e.frame)
	case sap.MSAPAppConfigRxIndication:
		n.handleAppConfigRxIndication(e.frame)
	case sap.MSAPScanNeighborsIndication:
		n.handleScanNeighborsIndication(e.frame)
	case sap.MSAPImageRemoteStatusInd:
		n.handleImageRemoteStatusIndication(e.frame)
	case sap.MSAPConfigDataItemRxIndication:
		n.handleConfigDataItemRxIndication(e.frame)
	default:
		n.log.Printf("unhandled indication primitive 0x%02x", e.frame.PrimitiveID)
	}
}

func (n *Node) handleDataRxIndication(f frame.Frame) {
	ind, err := sap.DecodeDataRxIndication(f.Payload)
	if err != nil {
		return
	}
	if n.callbacks.OnDataRx == nil {
		return
	}
	qos, hop := sap.SplitQoSHopCount(ind.QoSHop)
	n.callbacks.OnDataRx(DataRx{
		SrcAddr: ind.SrcAddr, DestAddr: ind.DestAddr,
		SrcEndpoint: ind.SrcEndpoint, DestEndpoint: ind.DestEndpoint,
		TravelTime: ind.TravelTime, QoS: qos, HopCount: hop, APDU: ind.APDU,
	})
}

func (n *Node) handleDataRxFragmentIndication(f frame.Frame) {
	ind, err := sap.DecodeDataRxFragmentIndication(f.Payload)
	if err != nil {
		return
	}
	offset, last := sap.UnpackFragmentOffsetFlag(ind.FragmentOffsetFlag)

	full, err := n.reassembler.AddFragment(reassembly.FragmentInput{
		SrcAddr: ind.SrcAddr, DestAddr: ind.DestAddr,
		SrcEndpoint: ind.SrcEndpoint, DestEndpoint: ind.DestEndpoint,
		PacketID: ind.FullPacketID, Offset: int(offset), Size: len(ind.APDU),
		LastFragment: last, Bytes: ind.APDU,
	})
	n.reassembler.GC()
	n.metrics.ReassemblyPending.Set(float64(n.reassembler.Pending()))
	if err != nil || !full {
		return
	}

	assembled, err := n.reassembler.TakeFull(ind.SrcAddr, ind.FullPacketID)
	if err != nil {
		return
	}
	n.metrics.ReassemblyPending.Set(float64(n.reassembler.Pending()))
	if n.callbacks.OnDataRx == nil {
		return
	}
	qos, hop := sap.SplitQoSHopCount(ind.QoSHop)
	n.callbacks.OnDataRx(DataRx{
		SrcAddr: assembled.SrcAddr, DestAddr: assembled.DestAddr,
		SrcEndpoint: assembled.SrcEndpoint, DestEndpoint: assembled.DestEndpoint,
		TravelTime: ind.TravelTime, QoS: qos, HopCount: hop, APDU: assembled.APDU,
	})
}

func (n *Node) handleDataTxIndication(f frame.Frame) {
	ind, err := sap.DecodeDataTxIndication(f.Payload)
	if err != nil {
		return
	}
	if cb, ok := n.txTable.consume(ind.PduID); ok {
		cb(ind.Result, uint32(sap.TicksToDuration(ind.BufferingDelay)/time.Millisecond))
	}
}

func (n *Node) handleStackStateIndication(f frame.Frame) {
	ind, err := sap.DecodeStackStateIndication(f.Payload)
	if err != nil {
		return
	}
	if n.callbacks.OnStackStatus != nil {
		n.callbacks.OnStackStatus(ind.State)
	}
}

func (n *Node) handleAppConfigRxIndication(f frame.Frame) {
	ind, err := sap.DecodeAppConfigRxIndication(f.Payload)
	if err != nil {
		return
	}
	if n.callbacks.OnAppConfigRx != nil {
		n.callbacks.OnAppConfigRx(AppConfigRx{
			SequenceNumber: ind.SequenceNumber,
			DiagnosticData: ind.DiagnosticData,
			Data:           ind.Data,
		})
	}
}

func (n *Node) handleScanNeighborsIndication(f frame.Frame) {
	ind, err := sap.DecodeScanNeighborsIndication(f.Payload)
	if err != nil {
		return
	}
	if n.callbacks.OnScanNeighborsDone != nil {
		n.callbacks.OnScanNeighborsDone(sap.ResultFor(sap.MSAPScanNeighborsRequest, ind.Result))
	}
}

func (n *Node) handleImageRemoteStatusIndication(f frame.Frame) {
	status, err := sap.DecodeImageRemoteStatusIndication(f.Payload)
	if err != nil {
		return
	}
	if n.callbacks.OnRemoteStatus != nil {
		n.callbacks.OnRemoteStatus(status)
	}
}

func (n *Node) handleConfigDataItemRxIndication(f frame.Frame) {
	ind, err := sap.DecodeConfigDataItemRxIndication(f.Payload)
	if err != nil {
		return
	}
	if n.callbacks.OnConfigDataItemRx != nil {
		n.callbacks.OnConfigDataItemRx(ind.ItemID, ind.Value)
	}
}
