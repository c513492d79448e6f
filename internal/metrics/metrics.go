// Package metrics exposes lamp state and activity counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/headlamp/internal/status"
)

const namespace = "headlamp"

var (
	lampOnDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "lamp", "on"),
		"Whether the lamp is powered (1) or off (0).",
		nil, nil)

	brightnessDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "lamp", "brightness_level"),
		"Current brightness level.",
		nil, nil)

	pendingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pulser", "pending_pulses"),
		"Click pulses queued but not yet started.",
		nil, nil)

	pulsesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "pulser", "pulses_total"),
		"Click pulses that ran a full cycle.",
		nil, nil)

	clicksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "button", "clicks_total"),
		"Classified button releases by kind.",
		[]string{"kind"}, nil)

	remoteDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "mqtt", "commands_total"),
		"Remote clicks received over MQTT.",
		nil, nil)

	eventsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "lamp", "events_total"),
		"Lamp state changes by event.",
		[]string{"event"}, nil)

	mqttDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "mqtt", "connected"),
		"Whether the MQTT broker connection is up.",
		nil, nil)

	uptimeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "uptime_seconds"),
		"Seconds since the daemon started.",
		nil, nil)
)

// Collector reads a status tracker on every scrape.
type Collector struct {
	tracker *status.Tracker
}

// NewCollector creates a collector over tracker.
func NewCollector(tracker *status.Tracker) *Collector {
	return &Collector{tracker: tracker}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		lampOnDesc, brightnessDesc, pendingDesc, pulsesDesc, clicksDesc,
		remoteDesc, eventsDesc, mqttDesc, uptimeDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()
	counts := snap.Counts

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v int, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(lampOnDesc, boolFloat(snap.Lamp.On))
	gauge(brightnessDesc, float64(snap.Lamp.Brightness))
	gauge(pendingDesc, float64(snap.Lamp.Pending))
	gauge(mqttDesc, boolFloat(snap.MQTTConnected))
	gauge(uptimeDesc, snap.Uptime().Seconds())

	counter(pulsesDesc, counts.Pulses)
	counter(clicksDesc, counts.ShortClicks, "short")
	counter(clicksDesc, counts.LongClicks, "long")
	counter(clicksDesc, counts.Bounces, "bounce")
	counter(remoteDesc, counts.RemoteCommands)
	counter(eventsDesc, counts.PowerOn, "power_on")
	counter(eventsDesc, counts.PowerOff, "power_off")
	counter(eventsDesc, counts.BrightnessSteps, "brightness")
}

// NewRegistry returns a registry holding the lamp collector plus the Go
// runtime and process collectors.
func NewRegistry(tracker *status.Tracker) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(tracker),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return reg
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
