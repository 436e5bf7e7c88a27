package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kalambet/quarterlog/internal/storage"
	"github.com/kalambet/quarterlog/internal/timecalc"
)

// JobReportGenerate builds one coach report.
const JobReportGenerate = "report_generate"

// ReportPayload is the JSON payload of a report_generate job.
type ReportPayload struct {
	Period timecalc.Period `json:"period"`
	Date   string          `json:"date"`
}

// Key is the report key "<PERIOD>_<YYYY-MM-DD>".
func (p ReportPayload) Key() string {
	return ReportKey(p.Period, p.Date)
}

// JSON is the payload as stored in the jobs table.
func (p ReportPayload) JSON() (string, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

func ReportKey(period timecalc.Period, dateKey string) string {
	return string(period) + "_" + dateKey
}

// Queue is what EnqueueReport needs from the store.
type Queue interface {
	PendingJobExists(ctx context.Context, typ, payloadJSON string) (bool, error)
	EnqueueJob(ctx context.Context, job storage.Job) error
}

// EnqueueReport queues a report_generate job unless an identical one is
// already pending or running. It reports whether a job was added.
func EnqueueReport(ctx context.Context, q Queue, period timecalc.Period, dateKey string) (bool, error) {
	payload, err := ReportPayload{Period: period, Date: dateKey}.JSON()
	if err != nil {
		return false, err
	}
	exists, err := q.PendingJobExists(ctx, JobReportGenerate, payload)
	if err != nil {
		return false, fmt.Errorf("checking queue for %s: %w", ReportKey(period, dateKey), err)
	}
	if exists {
		return false, nil
	}
	job := storage.Job{
		ID:          uuid.NewString(),
		Type:        JobReportGenerate,
		PayloadJSON: payload,
	}
	if err := q.EnqueueJob(ctx, job); err != nil {
		return false, fmt.Errorf("enqueueing %s: %w", ReportKey(period, dateKey), err)
	}
	return true, nil
}
