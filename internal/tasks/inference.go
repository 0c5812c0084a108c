package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitit24x7/EPOQ/internal/common"
)

// InferenceRequest is a single-image prediction with a trained model.
type InferenceRequest struct {
	Image     string   `json:"image"`
	Model     string   `json:"model"`
	ModelType string   `json:"model_type"`
	Classes   []string `json:"classes"`
}

// Validate checks that all four inputs are present.
func (r InferenceRequest) Validate() error {
	if err := common.ValidateFilePath(r.Image); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	if err := common.ValidateFilePath(r.Model); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := common.ValidateArgument("model type", r.ModelType); err != nil {
		return err
	}
	return common.ValidateClassList(r.Classes)
}

// InferenceArgs builds: script --image I --model M --model-type T --classes a,b,c.
func (f *Facade) InferenceArgs(req InferenceRequest) []string {
	classes := make([]string, len(req.Classes))
	for i, c := range req.Classes {
		classes[i] = strings.TrimSpace(c)
	}
	return []string{
		f.ScriptPath(KindInference),
		"--image", req.Image,
		"--model", req.Model,
		"--model-type", req.ModelType,
		"--classes", strings.Join(classes, ","),
	}
}

// RunInference runs inference.py and returns its trimmed JSON.
func (f *Facade) RunInference(ctx context.Context, req InferenceRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", invalidRequest(KindInference, err)
	}
	return f.run(ctx, KindInference, f.InferenceArgs(req))
}
