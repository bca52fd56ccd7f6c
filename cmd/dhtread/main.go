// Command dhtread reads a DHT11/DHT22 sensor on a Linux single-board
// computer.
//
//	dhtread -pin GPIO4 -type dht22
//	dhtread -config sensors.json
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"dhtcode-go/drivers/dht"
	"dhtcode-go/drivers/pulsein"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal"
	"dhtcode-go/services/hal/config"
)

func main() {
	pinName := flag.String("pin", "GPIO4", "data pin name")
	sensor := flag.String("type", "dht22", "sensor type: dht11 or dht22")
	retries := flag.Int("retries", 5, "attempts before giving up")
	fahrenheit := flag.Bool("f", false, "print temperature in Fahrenheit")
	cfgPath := flag.String("config", "", "HAL config file; reads every device in it")
	flag.Parse()
	log.SetFlags(0)

	if _, err := host.Init(); err != nil {
		log.Fatalf("host init: %v", err)
	}

	if *cfgPath != "" {
		if err := readConfigured(*cfgPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	profile, ok := dht.ProfileByName(*sensor)
	if !ok {
		log.Fatalf("unknown sensor type %q", *sensor)
	}
	pin := gpioreg.ByName(*pinName)
	if pin == nil {
		log.Fatalf("unknown pin %q", *pinName)
	}
	d := dht.New(pulsein.New(pulsein.Periph(pin)), profile)

	var env physic.Env
	err := readRetry(d, *retries, &env)
	if err != nil {
		log.Fatalf("%s on %s: %v", d, *pinName, err)
	}
	temp := float64(env.Temperature-physic.ZeroCelsius) / float64(physic.Celsius)
	unit := "C"
	if *fahrenheit {
		temp, unit = temp*9/5+32, "F"
	}
	log.Printf("%s %s: humidity %s, temperature %.1f %s", d, *pinName, env.Humidity, temp, unit)
}

// readRetry retries transient failures once per rate-limit window.
func readRetry(d *dht.Device, attempts int, env *physic.Env) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = d.Sense(env); err == nil {
			return nil
		}
		if !errcode.Retryable(err) && errcode.Of(err) != errcode.NoReading {
			return err
		}
		log.Printf("attempt %d: %v", i+1, err)
		time.Sleep(dht.DefaultMinInterval)
	}
	return err
}

func readConfigured(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	cfg, err := config.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hal.NewDefault()
	h.Start(ctx)
	if err := h.Apply(ctx, cfg); err != nil {
		return err
	}
	for _, id := range h.Devices() {
		rctx, rcancel := context.WithTimeout(ctx, 5*time.Second)
		s, err := h.Read(rctx, id)
		rcancel()
		if err != nil {
			log.Printf("%s: %v", id, err)
			continue
		}
		for _, r := range s {
			log.Printf("%s %s: %v", id, r.Kind, r.Payload)
		}
	}
	return nil
}
