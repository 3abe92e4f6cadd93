package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records host login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_auth_attempts_total",
			Help: "Total number of host authentication attempts",
		},
		[]string{"result"},
	)

	// OTPRequests counts guest verification code requests by outcome
	// (sent|not_eligible|delivery_failed|error).
	OTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_otp_requests_total",
			Help: "Total number of guest verification code requests",
		},
		[]string{"result"},
	)

	// OTPVerifications counts guest code verifications by outcome
	// (verified|invalid|expired|exhausted|no_code|error).
	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_otp_verifications_total",
			Help: "Total number of guest verification code checks",
		},
		[]string{"result"},
	)

	// RSVPSubmissions counts RSVP form submissions by attending value.
	RSVPSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_rsvp_submissions_total",
			Help: "Total number of RSVP submissions",
		},
		[]string{"attending"},
	)

	// EmailsSent counts outbound emails by kind (otp|reminder|thankyou) and result.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_emails_sent_total",
			Help: "Total number of outbound email deliveries",
		},
		[]string{"kind", "result"},
	)

	// PhotoUploads counts gallery photo uploads by result (uploaded|skipped|error).
	PhotoUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soiree_photo_uploads_total",
			Help: "Total number of gallery photo uploads",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "soiree_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
