package main

import (
	"github.com/KyungWonPark/fhlearn/internal/cli"
	"github.com/KyungWonPark/fhlearn/internal/io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "npy2csv FILE.npy...",
		Short:        "Convert 2-d npy matrices to csv next to the input",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cli.NewLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			for _, fileName := range args {
				npyFile, err := io.NpytoMat64(fileName)
				if err != nil {
					return err
				}
				rows, cols := npyFile.Dims()
				logger.Debug("read npy file", zap.String("path", fileName), zap.Int("rows", rows), zap.Int("cols", cols))

				if err := io.Mat64toCSV(fileName+".csv", npyFile); err != nil {
					return err
				}
				logger.Info("wrote csv", zap.String("path", fileName+".csv"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	cli.Execute(cmd)
}
