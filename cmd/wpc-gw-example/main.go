// Command wpc-gw-example is a minimal illustrative gateway: it relays a
// node's data-rx indications and stack status into Redis, and relays
// outbound data requests out of a Redis list back onto the node. It
// supplements the out-of-scope MQTT/Protobuf gateway the original
// implementation's example/linux/gw-example ships, reworked onto the
// pub/sub + hash conventions the rest of this pack's fleet already uses
// instead of a protobuf wire facade.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/wirepas/wpc-go/pkg/redis"
	"github.com/wirepas/wpc-go/pkg/transport"
	"github.com/wirepas/wpc-go/pkg/wpc"
	"github.com/wirepas/wpc-go/pkg/wpcerr"
	"github.com/wirepas/wpc-go/pkg/wpcmetrics"
)

var (
	serialDevice = flag.String("serial", "/dev/ttyUSB0", "Serial device path")
	baudRate     = flag.Int("baud", 125000, "Serial bitrate")
	redisAddr    = flag.String("redis-addr", "localhost:6379", "Redis server address")
	redisPass    = flag.String("redis-pass", "", "Redis password")
	redisDB      = flag.Int("redis-db", 0, "Redis database number")
	gatewayID    = flag.String("gateway-id", "gw0", "Gateway identifier used as the Redis key prefix")
)

// Redis keys, namespaced by gatewayID at runtime.
const (
	keyStatus  = "status"  // hash field stack_state, updated on OnStackStatus
	keyDataRx  = "data-rx" // hash field "<src>:<srcEp>:<dstEp>", hex APDU
	keyTxQueue = "tx"      // list: outbound send-data requests, BRPOP'd
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting wpc gateway example, id=%s", *gatewayID)
	log.Printf("Serial device: %s at %d baud", *serialDevice, *baudRate)
	log.Printf("Redis address: %s", *redisAddr)

	redisClient, err := redis.New(*redisAddr, *redisPass, *redisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Printf("Connected to Redis")

	gw := &gateway{redis: redisClient, gatewayID: *gatewayID}

	node, err := wpc.Open(transport.Config{
		Port:        *serialDevice,
		BitRate:     *baudRate,
		ReadTimeout: 100 * time.Millisecond,
	}, wpc.Options{
		Metrics: wpcmetrics.New(nil),
		Callbacks: wpc.Callbacks{
			OnDataRx:       gw.onDataRx,
			OnStackStatus:  gw.onStackStatus,
			OnRemoteStatus: gw.onRemoteStatus,
			OnFatal: func(err error) {
				log.Fatalf("wpc: fatal watchdog error: %v", err)
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to open node: %v", err)
	}
	defer node.Close()
	gw.node = node
	log.Printf("Node %s connected", node.ID())

	result, err := node.StartStack()
	if err != nil {
		log.Printf("Warning: failed to start stack: %v", err)
	} else if result != wpcerr.ResultOK {
		log.Printf("Warning: stack start returned %s", result)
	}

	go gw.watchTxQueue()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("Shutting down...")
}

type gateway struct {
	redis     *redis.Client
	node      *wpc.Node
	gatewayID string
}

func (gw *gateway) key(name string) string {
	return fmt.Sprintf("%s:%s", gw.gatewayID, name)
}

// onDataRx relays a received (and, if it arrived fragmented, already
// reassembled) APDU into Redis, hex-encoded, keyed by its source address
// and endpoint pair, and publishes the field name on the hash's channel so
// subscribers can react without polling.
func (gw *gateway) onDataRx(rx wpc.DataRx) {
	field := fmt.Sprintf("%d:%d:%d", rx.SrcAddr, rx.SrcEndpoint, rx.DestEndpoint)
	if err := gw.redis.WriteAndPublishString(gw.key(keyDataRx), field, hex.EncodeToString(rx.APDU)); err != nil {
		log.Printf("Error relaying data-rx to Redis: %v", err)
	}
}

func (gw *gateway) onStackStatus(state uint8) {
	if err := gw.redis.WriteAndPublishInt(gw.key(keyStatus), "stack_state", int(state)); err != nil {
		log.Printf("Error relaying stack status to Redis: %v", err)
	}
}

func (gw *gateway) onRemoteStatus(status wpc.ImageRemoteStatus) {
	if err := gw.redis.WriteAndPublishInt(gw.key(keyStatus), "remote_update_nodes", int(status.UpdatedNodes)); err != nil {
		log.Printf("Error relaying remote update status to Redis: %v", err)
	}
}

// watchTxQueue pops outbound send requests from a Redis list, one at a
// time, and forwards them to the node. Each entry is
// "destAddr:destEndpoint:srcEndpoint:pduID:hexAPDU".
func (gw *gateway) watchTxQueue() {
	for {
		result, err := gw.redis.BRPop(5*time.Second, gw.key(keyTxQueue))
		if err != nil {
			log.Printf("Error reading tx queue: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if result == nil {
			continue
		}
		if err := gw.sendFromQueueEntry(result[1]); err != nil {
			log.Printf("Error sending queued tx entry %q: %v", result[1], err)
		}
	}
}

func (gw *gateway) sendFromQueueEntry(entry string) error {
	parts := strings.SplitN(entry, ":", 5)
	if len(parts) != 5 {
		return fmt.Errorf("expected 5 colon-separated fields, got %d", len(parts))
	}
	destAddr, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return fmt.Errorf("dest address: %w", err)
	}
	destEndpoint, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return fmt.Errorf("dest endpoint: %w", err)
	}
	srcEndpoint, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return fmt.Errorf("src endpoint: %w", err)
	}
	pduID, err := strconv.ParseUint(parts[3], 10, 16)
	if err != nil {
		return fmt.Errorf("pdu id: %w", err)
	}
	apdu, err := hex.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("apdu: %w", err)
	}

	result, err := gw.node.SendData(uint16(pduID), uint8(srcEndpoint), uint8(destEndpoint), uint32(destAddr), apdu, wpc.SendDataOptions{})
	if err != nil {
		return err
	}
	if result != wpcerr.ResultOK {
		return fmt.Errorf("node rejected send: %s", result)
	}
	return nil
}
