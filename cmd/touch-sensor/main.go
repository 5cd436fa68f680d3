// Command touch-sensor polls touch inputs, debounces them and publishes
// touch/release events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/touch-sensor/internal/config"
	"github.com/sweeney/touch-sensor/internal/debounce"
	"github.com/sweeney/touch-sensor/internal/input"
	"github.com/sweeney/touch-sensor/internal/logic"
	"github.com/sweeney/touch-sensor/internal/mqtt"
	"github.com/sweeney/touch-sensor/internal/status"
	"github.com/sweeney/touch-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/touch-sensor.yaml", "Path to YAML config file (missing file uses defaults)")
	poll := flag.Duration("poll", 0, "Input polling interval (overrides config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	heartbeat := flag.Duration("heartbeat", 0, "Heartbeat interval, 0 disables (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address, empty disables (overrides config)")
	printState := flag.Bool("print-state", false, "Print current raw input levels and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Poll = *poll
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = *httpAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid flags: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// openReader opens the input source selected by the config.
func openReader(cfg *config.Config) (input.Reader, error) {
	switch cfg.Input.Kind {
	case config.InputGPIO:
		r, err := input.NewGPIOReader(input.GPIOConfig{
			Chip:      cfg.Input.GPIO.Chip,
			Offsets:   cfg.Pins(),
			PullUp:    cfg.Input.GPIO.PullUp,
			ActiveLow: cfg.Input.GPIO.ActiveLow,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.InputSerial:
		r, err := input.NewSerialReader(cfg.Input.Serial.Port, cfg.Input.Serial.BaudRate, len(cfg.Channels))
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown input kind %q", cfg.Input.Kind)
}

func run(cfg *config.Config, printState bool) error {
	reader, err := openReader(cfg)
	if err != nil {
		return fmt.Errorf("init %s input: %w", cfg.Input.Kind, err)
	}
	defer reader.Close()

	// Print state mode
	if printState {
		levels, err := readWithRetry(reader, time.Second)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		for i, ch := range cfg.Channels {
			fmt.Printf("%s: %s\n", ch.Name, debounce.FromBool(levels[i]))
		}
		return nil
	}

	publisher := mqtt.NewRealPublisher(mqtt.Config{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		BufferSize:  cfg.MQTT.BufferSize,
	})
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	channels := cfg.LogicChannels()
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Input:       cfg.Input.Kind,
		Channels:    channels,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: input=%s channels=%d poll=%v broker=%s heartbeat=%v",
		cfg.Input.Kind, len(channels), cfg.Poll, cfg.MQTT.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, publisher, publisher, tracker, channels, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// readWithRetry retries until the reader produces a sample or the timeout
// passes. A serial controller needs a moment to send its first line.
func readWithRetry(r input.Reader, timeout time.Duration) ([]bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		levels, err := r.Read()
		if !errors.Is(err, input.ErrNoSample) || time.Now().After(deadline) {
			return levels, err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func runLoop(reader input.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, channels []logic.Channel, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	detector := logic.NewDetector(channels, now())

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			switch s {
			case syscall.SIGINT:
				signalName = "SIGINT"
			case syscall.SIGTERM:
				signalName = "SIGTERM"
			}
			publishShutdown(publisher, mqttStatus, tracker, detector, now(), signalName)
			return nil

		case <-tick:
			t := now()
			levels, err := reader.Read()
			if errors.Is(err, input.ErrStreamEnded) {
				log.Printf("input lost: %v", err)
				publishShutdown(publisher, mqttStatus, tracker, detector, t, "INPUT_LOST")
				return fmt.Errorf("read input: %w", err)
			}
			if err != nil {
				if !errors.Is(err, input.ErrNoSample) {
					log.Printf("input read error: %v", err)
				}
				continue
			}

			events, err := detector.Process(logic.Input{Samples: levels, Time: t})
			if err != nil {
				log.Printf("process sample: %v", err)
				continue
			}

			for _, event := range events {
				log.Printf("event: %s %s", event.Channel, event.Type)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if hbData := detector.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v counts=%v", hbData.Uptime, hbData.Counts)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					refreshTracker(tracker, detector, mqttStatus)
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			if tracker != nil {
				refreshTracker(tracker, detector, mqttStatus)
			}
		}
	}
}

// publishShutdown sends the retained SHUTDOWN system event.
func publishShutdown(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, detector *logic.Detector, t time.Time, reason string) {
	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		refreshTracker(tracker, detector, mqttStatus)
		event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func refreshTracker(tracker *status.Tracker, detector *logic.Detector, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(detector.CurrentState(), detector.Ready(), detector.EventCountsSnapshot())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}
