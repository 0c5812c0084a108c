package main

import (
	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/cli"
	"github.com/gitit24x7/EPOQ/internal/tasks"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Classify one image with a trained model",
	Long: `Run inference.py on a single image and print the prediction.

Classes are given in training order, comma separated.

Example:
  image-trainer infer --image cat.png --model model.pt --model-type cnn --classes cat,dog`,
	Args: cobra.NoArgs,
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().String("image", "", "image to classify")
	inferCmd.Flags().String("model", "", "trained model file")
	inferCmd.Flags().String("model-type", "", "model architecture")
	inferCmd.Flags().String("classes", "", "class names, comma separated")
	for _, name := range []string{"image", "model", "model-type", "classes"} {
		_ = inferCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	image, _ := flags.GetString("image")
	model, _ := flags.GetString("model")
	modelType, _ := flags.GetString("model-type")
	classes, _ := flags.GetString("classes")

	return cli.RunInference(cmd.Context(), app, tasks.InferenceRequest{
		Image:     image,
		Model:     model,
		ModelType: modelType,
		Classes:   cli.SplitClasses(classes),
	})
}
