package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/headlamp/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Headlamp</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Headlamp</h1>

<h2>Lamp</h2>
<table>
<tr><th>Power</th><td id="power" class="{{if .Lamp.On}}on{{else}}off{{end}}">{{onOff .Lamp.On}}</td></tr>
<tr><th>Brightness</th><td id="brightness">{{.Lamp.Brightness}} / {{.Config.Timings.BrightnessLevels}}</td></tr>
<tr><th>Pulser</th><td>{{.Lamp.Phase}}{{if .Lamp.Pending}} ({{.Lamp.Pending}} pending){{end}}</td></tr>
<tr><th>Button</th><td>{{if .Lamp.ButtonPressed}}pressed{{else}}released{{end}}</td></tr>
{{if .LastEvent}}<tr><th>Last event</th><td>{{.LastEvent.Type}} from {{.LastEvent.Source}} at {{.LastEvent.Timestamp.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Short clicks</th><td>{{.Counts.ShortClicks}}</td></tr>
<tr><th>Long clicks</th><td>{{.Counts.LongClicks}}</td></tr>
<tr><th>Bounces</th><td>{{.Counts.Bounces}}</td></tr>
<tr><th>Remote commands</th><td>{{.Counts.RemoteCommands}}</td></tr>
<tr><th>Power on</th><td>{{.Counts.PowerOn}}</td></tr>
<tr><th>Power off</th><td>{{.Counts.PowerOff}}</td></tr>
<tr><th>Brightness steps</th><td>{{.Counts.BrightnessSteps}}</td></tr>
<tr><th>Pulses</th><td>{{.Counts.Pulses}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.Timings.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.Timings.LongThresholdMs}}ms</td></tr>
<tr><th>Pulse</th><td>{{.Config.Timings.AssertMs}}ms / {{.Config.Timings.CycleMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Pins</th><td>button {{.Config.PinButton}}, power {{.Config.PinPower}}, click {{.Config.PinClick}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
