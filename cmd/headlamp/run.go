package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	kclock "k8s.io/utils/clock"

	"github.com/sweeney/headlamp/internal/clock"
	"github.com/sweeney/headlamp/internal/config"
	"github.com/sweeney/headlamp/internal/gpio"
	"github.com/sweeney/headlamp/internal/logic"
	"github.com/sweeney/headlamp/internal/metrics"
	"github.com/sweeney/headlamp/internal/mqtt"
	"github.com/sweeney/headlamp/internal/status"
	"github.com/sweeney/headlamp/internal/web"
)

// outputPin adapts a GPIO line to the state machine's Output. Write failures
// are logged; the state machines assume outputs never fail.
type outputPin struct {
	w    gpio.Writer
	name string
}

func (o outputPin) SetLevel(l logic.Level) {
	if err := o.w.Set(bool(l)); err != nil {
		logrus.WithError(err).WithField("pin", o.name).Warn("failed to drive output")
	}
}

// broker is what the run loop needs from the MQTT side.
type broker interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
	mqtt.Commander
}

func newBroker(cfg config.MQTT) broker {
	if cfg.Broker == "" {
		logrus.Info("mqtt disabled")
		return mqtt.Discard{}
	}
	return mqtt.NewRealPublisher(mqtt.Options{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		TopicPrefix: cfg.TopicPrefix,
		BufferSize:  cfg.BufferSize,
	})
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:      cfg.Poll.Std().Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Std().Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Timings:     cfg.Timings.Logic(),
		PinButton:   cfg.Pins.Button,
		PinPower:    cfg.Pins.Power,
		PinClick:    cfg.Pins.Click,
	}
}

func run(cfg config.Config) error {
	chip, err := gpio.OpenChip(cfg.Pins.Chip)
	if err != nil {
		return err
	}
	defer chip.Close()

	button, err := chip.Input(cfg.Pins.Button)
	if err != nil {
		return err
	}
	defer button.Close()

	power, err := chip.Output(cfg.Pins.Power)
	if err != nil {
		return err
	}
	defer power.Close()

	click, err := chip.Output(cfg.Pins.Click)
	if err != nil {
		return err
	}
	defer click.Close()

	mono := clock.NewMonotonic(kclock.RealClock{})
	timings := cfg.Timings.Logic()
	lamp := logic.NewLamp(outputPin{power, "power"}, outputPin{click, "click"}, mono, timings)
	ctrl := logic.NewController(logic.NewButtonReader(timings.DebounceMs, timings.LongThresholdMs), lamp, mono, mono.Start())

	pub := newBroker(cfg.MQTT)
	defer pub.Close()

	tracker := status.NewTracker(kclock.RealClock{}, statusConfig(cfg))

	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := pub.PublishSystem(startup); err != nil {
		logrus.WithError(err).Warn("failed to publish startup event")
	} else {
		logrus.Info("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, metrics.NewRegistry(tracker))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		logrus.WithField("addr", cfg.HTTP.Addr).Info("http status server listening")
	}

	logrus.WithFields(logrus.Fields{
		"poll":      cfg.Poll,
		"heartbeat": cfg.Heartbeat,
		"broker":    cfg.MQTT.Broker,
		"button":    cfg.Pins.Button,
		"power":     cfg.Pins.Power,
		"click":     cfg.Pins.Click,
	}).Info("started")

	ticker := time.NewTicker(cfg.Poll.Std())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		button:     button,
		ctrl:       ctrl,
		clock:      mono,
		publisher:  pub,
		mqttStatus: pub,
		commands:   pub.Commands(),
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat.Std(),
		tick:       ticker.C,
		sig:        sigCh,
	})
}

type loopDeps struct {
	button     gpio.Reader
	ctrl       *logic.Controller
	clock      *clock.Monotonic
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	commands   <-chan mqtt.Command
	tracker    *status.Tracker
	heartbeat  time.Duration
	tick       <-chan time.Time
	sig        <-chan os.Signal
}

func runLoop(d loopDeps) error {
	for {
		select {
		case s := <-d.sig:
			name := signalName(s)
			logrus.WithField("signal", name).Info("shutting down")
			d.ctrl.Shutdown()
			d.refresh()

			event := mqtt.SystemEvent{
				Timestamp:  d.clock.Now(),
				Event:      "SHUTDOWN",
				Reason:     name,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", name),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				logrus.WithError(err).Warn("failed to publish shutdown event")
			} else {
				logrus.Info("published shutdown event")
			}
			return nil

		case cmd := <-d.commands:
			logrus.WithField("click", cmd.Click).Info("remote command")
			d.emit(d.ctrl.Apply(cmd.Click, logic.SourceRemote, d.clock.Now()))
			d.refresh()

		case <-d.tick:
			high, err := d.button.Read()
			if err != nil {
				logrus.WithError(err).Warn("button read error")
				continue
			}

			// The tick's own stamp can be stale after a settle delay.
			t := d.clock.Now()
			d.emit(d.ctrl.Process(logic.Input{
				Button: logic.Level(high),
				Now:    d.clock.NowMs(),
				Time:   t,
			}))

			if hb := d.ctrl.CheckHeartbeat(t, d.heartbeat); hb != nil {
				d.heartbeatEvent(hb)
			}
			d.refresh()
		}
	}
}

func (d loopDeps) emit(events []logic.Event) {
	for _, ev := range events {
		logrus.WithFields(logrus.Fields{
			"source":     ev.Source,
			"on":         ev.On,
			"brightness": ev.Brightness,
		}).Infof("event: %s", ev.Type)
		d.tracker.RecordEvent(ev)
		if err := d.publisher.Publish(ev); err != nil {
			logrus.WithError(err).Warn("publish error")
		}
	}
}

func (d loopDeps) heartbeatEvent(hb *logic.HeartbeatData) {
	logrus.WithFields(logrus.Fields{
		"uptime":     hb.Uptime,
		"on":         hb.State.On,
		"brightness": hb.State.Brightness,
		"clicks":     hb.Counts.ShortClicks + hb.Counts.LongClicks,
		"pulses":     hb.Counts.Pulses,
	}).Info("heartbeat")

	d.refresh()
	event := mqtt.SystemEvent{
		Timestamp:  hb.Timestamp,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", ""),
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		logrus.WithError(err).Warn("heartbeat publish error")
	}
}

// refresh copies controller state into the tracker for HTTP and metrics.
func (d loopDeps) refresh() {
	d.tracker.Update(d.ctrl.State(), d.ctrl.EventCountsSnapshot())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
