//go:build rp2040 || rp2350

// Firmware that reads a DHT22 on GP15 at boot, then keeps a heartbeat.
package main

import (
	"machine"
	"time"

	"dhtcode-go/drivers/dht"
	"dhtcode-go/drivers/pulsein"
	"dhtcode-go/errcode"
)

const dataPin = machine.GP15

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	d := dht.NewDHT22(pulsein.New(pulsein.Machine(dataPin)))
	for attempt := 1; attempt <= 5; attempt++ {
		err := d.Measure()
		if err == nil {
			break
		}
		println("[dht] attempt", attempt, err.Error())
		if !errcode.Retryable(err) {
			break
		}
		time.Sleep(dht.DefaultMinInterval)
	}
	if r, ok := d.Reading(); ok {
		println("[dht] deci_c:", int32(r.Temperature*10), "deci_percent:", int32(r.Humidity*10))
	}

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for t := range tick.C {
		println(t.Format("15:04:05"), "Heartbeat")
	}
}
