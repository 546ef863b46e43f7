//go:build ignore

// Run: go run ./build-tools/loadgen.go -url nats://localhost:4222 -subject events.decoded -rps 500 -duration 60s

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	mrand "math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

type decodedEvent struct {
	NetworkID string `json:"network_id"`
	Kind      string `json:"kind"`
	Meta      struct {
		TxHash      string `json:"tx_hash"`
		LogIndex    uint32 `json:"log_index"`
		BlockNumber uint64 `json:"block_number"`
		Timestamp   int64  `json:"timestamp"`
	} `json:"meta"`
	Params map[string]any `json:"params"`
}

var lendingKinds = []string{"deposit", "withdraw", "borrow", "repay"}

func main() {
	var (
		url      = flag.String("url", "nats://localhost:4222", "nats server url")
		subject  = flag.String("subject", "events.decoded", "subject to publish on")
		rps      = flag.Int("rps", 500, "events per second target")
		duration = flag.Duration("duration", 30*time.Second, "how long to run")
		network  = flag.String("network", "avalanche", "network id on the events")
		markets  = flag.Int("markets", 8, "number of synthetic markets")
	)
	flag.Parse()

	nc, err := nats.Connect(*url, nats.Name("chainmetrics-loadgen"))
	if err != nil {
		fmt.Printf("nats connect error: %v\n", err)
		return
	}
	defer nc.Close()

	assets := make([]string, *markets)
	for i := range assets {
		assets[i] = "0x" + randHex(40)
	}

	fmt.Printf("loadgen → url=%s subject=%s rps=%d duration=%s\n", *url, *subject, *rps, duration.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	end := start.Add(*duration)

	// steady pace with a little drift
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	perTick := float64(*rps) / 10.0
	accum := 0.0

loop:
	for {
		select {
		case <-ctx.Done():
			fmt.Println("signal received, stopping…")
			break loop
		case now := <-tick.C:
			if now.After(end) {
				break loop
			}

			accum += perTick
			batch := int(math.Floor(accum))
			if batch <= 0 {
				continue
			}
			accum -= float64(batch)

			for i := 0; i < batch; i++ {
				ev := randomEvent(*network, assets)
				val, _ := json.Marshal(ev)
				if err = nc.Publish(*subject, val); err != nil {
					fmt.Printf("publish error: %v\n", err)
				}
			}
		}
	}

	fmt.Println("flushing…")
	_ = nc.Flush()
	fmt.Println("done")
}

func randomEvent(network string, assets []string) *decodedEvent {
	ev := &decodedEvent{
		NetworkID: network,
		Kind:      lendingKinds[mrand.Intn(len(lendingKinds))],
	}

	ev.Meta.TxHash = "0x" + randHex(64)
	ev.Meta.LogIndex = uint32(mrand.Intn(20))
	ev.Meta.BlockNumber = uint64(20_000_000 + mrand.Intn(1_000_000))
	ev.Meta.Timestamp = time.Now().Unix()

	ev.Params = map[string]any{
		"asset":   assets[mrand.Intn(len(assets))],
		"account": "0x" + randHex(40),
		"amount":  fmt.Sprintf("%d", 1+mrand.Intn(1_000_000)) + "000000000000000000",
	}

	return ev
}

func randHex(n int) string {
	b := make([]byte, n/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
