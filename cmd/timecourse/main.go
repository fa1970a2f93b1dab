package main

import (
	"context"

	"github.com/KyungWonPark/fhlearn/internal/cli"
	"github.com/KyungWonPark/fhlearn/internal/exp"
)

func main() {
	cli.Execute(cli.ExperimentCommand(
		"timecourse",
		"Average fast and slow reaction time trials for every ROI",
		func(ctx context.Context, r *exp.Runner) error {
			return r.RunTimecourses(ctx)
		},
	))
}
