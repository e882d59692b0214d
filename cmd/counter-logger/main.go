// Command counter-logger polls a lab instrument's event counter and logs
// events per fixed time interval to a CSV file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/counter-logger/internal/config"
	"github.com/sweeney/counter-logger/internal/gpio"
	"github.com/sweeney/counter-logger/internal/logic"
	"github.com/sweeney/counter-logger/internal/mqtt"
	"github.com/sweeney/counter-logger/internal/recorder"
	"github.com/sweeney/counter-logger/internal/sampler"
	"github.com/sweeney/counter-logger/internal/scpi"
	"github.com/sweeney/counter-logger/internal/status"
	"github.com/sweeney/counter-logger/internal/web"
)

func main() {
	cfg, err := config.Parse("counter-logger", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config) error {
	addr := cfg.Address()
	log.Printf("instrument=%s interval=%v sample=%v output=%s", addr, cfg.Window, cfg.SamplePeriod, cfg.Output)

	link, err := scpi.Dial(addr, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("connect to instrument: %w", err)
	}
	defer link.Close()

	smp := sampler.New(link)

	tracker := status.NewTracker(time.Now(), status.Config{
		Instrument: addr,
		SampleMs:   cfg.SamplePeriod.Milliseconds(),
		WindowMs:   cfg.Window.Milliseconds(),
		Output:     cfg.Output,
		Broker:     cfg.Broker,
		HTTPAddr:   cfg.HTTPAddr,
	})

	if idn, err := smp.Identify(); err != nil {
		log.Printf("identify: %v", err)
	} else {
		log.Printf("connected to: %s", idn)
		tracker.SetIdentity(idn)
	}

	initial, err := smp.Sample()
	if err != nil {
		return fmt.Errorf("read initial counter value: %w", err)
	}
	seed := logic.Reading{Time: time.Now(), Value: initial}
	log.Printf("initial counter value: %v", initial)

	rec, err := recorder.Open(cfg.Output)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer rec.Close()

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, tracker.RunID())
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			defer p.Close()
			publisher, mqttStatus = p, p
		}
	}

	var led gpio.Indicator = gpio.Nop{}
	if cfg.LEDPin >= 0 {
		ind, err := gpio.NewRealIndicator(cfg.LEDPin)
		if err != nil {
			log.Printf("led disabled: %v", err)
		} else {
			defer ind.Close()
			led = ind
		}
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, os.Stderr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	sup := newSupervisor(smp, seed, cfg.Window, rec, publisher, tracker, led, time.Now)
	sup.mqttStatus = mqttStatus
	sup.publishSystem("STARTUP", "")

	log.Printf("started: run=%s, logging until interrupted", tracker.RunID())

	ticker := time.NewTicker(cfg.SamplePeriod)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := sup.run(ticker.C, sigCh); err != nil {
		return err
	}
	log.Printf("data saved to %s", cfg.Output)
	return nil
}
