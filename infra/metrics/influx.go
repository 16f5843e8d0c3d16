package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/avelot/fleetdispatch/core/metrics"
	"github.com/avelot/fleetdispatch/infra/logger"
)

// InfluxSink writes assignment and coverage events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAssignment writes the assignment attempt as a line protocol event.
func (s *InfluxSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("assignment_event").
		AddTag("order_id", rec.OrderID).
		AddTag("driver_id", rec.DriverID).
		AddTag("zone_id", rec.ZoneID).
		AddTag("success", strconv.FormatBool(rec.Success)).
		AddTag("reason", string(rec.Reason)).
		AddField("score", round3(rec.Score)).
		AddField("candidates", rec.Candidates).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCoverage persists the summary of one coverage aggregation pass.
func (s *InfluxSink) RecordCoverage(rec coremetrics.CoverageRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("coverage_event").
		AddTag("source", rec.Source).
		AddField("zones", rec.Zones).
		AddField("online_drivers", rec.OnlineDrivers).
		AddField("unassigned_drivers", rec.UnassignedDrivers).
		AddField("outstanding_orders", rec.OutstandingOrders).
		AddField("degraded_sections", rec.DegradedSections).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordWorkload persists a fleet utilization summary.
func (s *InfluxSink) RecordWorkload(rec coremetrics.WorkloadRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("workload_event").
		AddField("drivers", rec.Drivers).
		AddField("overloaded", rec.Overloaded).
		AddField("mean_utilization", round3(rec.MeanUtilization)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
