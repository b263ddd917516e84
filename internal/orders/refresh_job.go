package orders

import (
	"context"
	"fmt"
	"time"
)

const refreshJobName = "order-refresh"

type refresher interface {
	Refresh(ctx context.Context) error
	ResetNumberHint()
}

// RefreshJob polls the order list for the scheduler. The first poll of a new
// local day restarts the number hint so a failed poll never carries
// yesterday's cycle over.
type RefreshJob struct {
	repo refresher
	now  func() time.Time
	day  string
}

func NewRefreshJob(repo refresher, now func() time.Time) (*RefreshJob, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &RefreshJob{repo: repo, now: now}, nil
}

func (j *RefreshJob) Name() string { return refreshJobName }

func (j *RefreshJob) Run(ctx context.Context) error {
	day := j.now().Format(time.DateOnly)
	if j.day != "" && j.day != day {
		j.repo.ResetNumberHint()
	}
	j.day = day
	return j.repo.Refresh(ctx)
}
