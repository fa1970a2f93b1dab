package main

import (
	"context"

	"github.com/KyungWonPark/fhlearn/internal/cli"
	"github.com/KyungWonPark/fhlearn/internal/exp"
)

func main() {
	cli.Execute(cli.ExperimentCommand(
		"motor",
		"Classify left/right motor responses for every ROI",
		func(ctx context.Context, r *exp.Runner) error {
			return r.RunMotor(ctx)
		},
	))
}
