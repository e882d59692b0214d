package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/counter-logger/internal/recorder"
	"github.com/sweeney/counter-logger/internal/status"
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
	"local": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format(recorder.TimeLayout)
	},
	"rate": recorder.FormatRate,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Counter Logger</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ok { color: green; font-weight: bold; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Counter Logger</h1>

<h2>Counter</h2>
<table>
<tr><th>Ready</th><td class="{{if .Seeded}}ok{{else}}warn{{end}}">{{if .Seeded}}yes{{else}}no{{end}}</td></tr>
<tr><th>Last value</th><td>{{.Aggregation.LastValue}}</td></tr>
<tr><th>Last sample</th><td>{{local .LastSample}}</td></tr>
<tr><th>Interval</th><td>#{{.NextIndex}} since {{local .Aggregation.IntervalStartTime}}</td></tr>
<tr><th>Events this interval</th><td>{{.Aggregation.PendingEvents}}</td></tr>
<tr><th>Cumulative events</th><td id="cumulative">{{.Aggregation.Cumulative}}</td></tr>
</table>

{{with .LastInterval}}
<h2>Last Interval</h2>
<table>
<tr><th>Index</th><td>{{.Index}}</td></tr>
<tr><th>Window</th><td>{{local .Start}} → {{local .End}}</td></tr>
<tr><th>Events</th><td>{{.Events}}</td></tr>
<tr><th>Rate</th><td>{{rate .Rate}}/s</td></tr>
</table>
{{end}}

<h2>Sampling</h2>
<table>
<tr><th>OK</th><td>{{.Counters.Samples}}</td></tr>
<tr><th>Failed</th><td>{{.Counters.Failures}}{{if .LastFailure}} <span class="warn">(last: {{.LastFailure}})</span>{{end}}</td></tr>
<tr><th>Rollovers</th><td>{{.Counters.Rollovers}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Instrument</th><td>{{.Config.Instrument}}</td></tr>
{{if .Config.InstrumentInfo}}<tr><th>Identity</th><td>{{.Config.InstrumentInfo}}</td></tr>{{end}}
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Run</th><td>{{.RunID}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Window</th><td>{{.Config.WindowMs}}ms</td></tr>
<tr><th>Output</th><td>{{.Config.Output}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has methods, but the template needs plain fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		NextIndex int
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		NextIndex: snap.Aggregation.IntervalIndex + 1,
	}
	indexTmpl.Execute(w, data)
}
