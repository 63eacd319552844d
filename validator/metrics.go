package validator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/oomph-ac/reckon/validator"

type metrics struct {
	reports    metric.Int64Counter
	violations metric.Int64Counter
	kicks      metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		mt  = &metrics{}
		err error
	)

	mt.reports, err = m.Int64Counter(
		"validator.reports",
		metric.WithDescription("Total movement reports validated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reports counter: %w", err)
	}

	mt.violations, err = m.Int64Counter(
		"validator.violations",
		metric.WithDescription("Total violations detected, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating violations counter: %w", err)
	}

	mt.kicks, err = m.Int64Counter(
		"validator.kicks",
		metric.WithDescription("Total clients disconnected for exceeding the kick threshold"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kicks counter: %w", err)
	}
	return mt, nil
}

func (mt *metrics) report(deep bool) {
	mt.reports.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("deep", deep)))
}

func (mt *metrics) violation(kinds Kind) {
	for i, name := range kindNames {
		if kinds&(1<<i) != 0 {
			mt.violations.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", name)))
		}
	}
}

func (mt *metrics) kick() {
	mt.kicks.Add(context.Background(), 1)
}
