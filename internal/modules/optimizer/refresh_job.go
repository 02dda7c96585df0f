package optimizer

import "github.com/rs/zerolog"

// RefreshJob periodically re-runs the advisory pipeline over the last
// submitted snapshot so holding ages and the resulting tax treatment stay
// current between submissions.
type RefreshJob struct {
	service *Service
	log     zerolog.Logger
}

// NewRefreshJob creates the scheduled refresh job.
func NewRefreshJob(service *Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		service: service,
		log:     log.With().Str("job", "optimizer_refresh").Logger(),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "optimizer_refresh"
}

// Run executes the refresh
func (j *RefreshJob) Run() error {
	return j.service.Refresh()
}
