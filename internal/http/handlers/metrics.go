package handlers

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
)

var eventsTotal *prometheus.CounterVec

func InitPrometheusMetrics() {
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "events_total",
			Help:      "Total number of ingested behavioral events.",
		},
		[]string{"app", "type"},
	)
	prometheus.MustRegister(eventsTotal)
}

// AppMetrics exposes the Prometheus registry filtered down to series
// labeled with the requested application, so one tenant never sees
// another's ingestion counters.
func AppMetrics(s AppStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		app, ok := mustOwnedApp(ctx, s, acct)
		if !ok {
			return
		}
		appLabel := app.ID.String()

		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			respondError(ctx, fasthttp.StatusInternalServerError, "Failed to gather metrics")
			return
		}

		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			keep := make([]*dto.Metric, 0, len(mf.GetMetric()))
			for _, m := range mf.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetName() == "app" && l.GetValue() == appLabel {
						keep = append(keep, m)
						break
					}
				}
			}
			if len(keep) > 0 {
				mfCopy := &dto.MetricFamily{
					Name:   mf.Name,
					Help:   mf.Help,
					Type:   mf.Type,
					Metric: keep,
				}
				filtered = append(filtered, mfCopy)
			}
		}

		var buf bytes.Buffer
		enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range filtered {
			if err := enc.Encode(mf); err != nil {
				respondError(ctx, fasthttp.StatusInternalServerError, "Failed to encode metrics")
				return
			}
		}

		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetContentType("text/plain; version=0.0.4; charset=utf-8")
		ctx.SetBody(buf.Bytes())
	}
}
