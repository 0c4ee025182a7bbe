package demoserver

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the process-wide Prometheus collectors for the demo
// server. The core transceiver package stays free of this machinery;
// these counters only observe the demo's use of it.
type metrics struct {
	framesEncoded   prometheus.Counter
	framesDecoded   prometheus.Counter
	decodeErrors    *prometheus.CounterVec
	chirpToDecode   prometheus.Histogram
	payloadBytes    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		framesEncoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sonictag_frames_encoded_total",
			Help: "Payloads successfully encoded to samples.",
		}),
		framesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sonictag_frames_decoded_total",
			Help: "Payloads successfully decoded from a sample stream.",
		}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sonictag_decode_errors_total",
			Help: "Decode attempts that resynchronized without emitting a payload, by reason.",
		}, []string{"reason"}),
		chirpToDecode: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sonictag_decode_seconds",
			Help:    "Wall-clock time spent inside Receiver.Push per call.",
			Buckets: prometheus.DefBuckets,
		}),
		payloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sonictag_payload_bytes",
			Help:    "Size in bytes of payloads submitted for encoding.",
			Buckets: prometheus.LinearBuckets(0, 32, 10),
		}),
	}
	reg.MustRegister(m.framesEncoded, m.framesDecoded, m.decodeErrors, m.chirpToDecode, m.payloadBytes)
	return m
}
