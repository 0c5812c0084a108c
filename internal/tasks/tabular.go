package tasks

import (
	"context"
	"fmt"

	"github.com/gitit24x7/EPOQ/internal/common"
)

// TabularRequest is one call to tabular_processor.py. Params and Out are
// optional and only passed when set.
type TabularRequest struct {
	File   string  `json:"file"`
	Action string  `json:"action"`
	Params *string `json:"params,omitempty"`
	Out    *string `json:"out,omitempty"`
}

// Validate checks the required fields.
func (r TabularRequest) Validate() error {
	if err := common.ValidateFilePath(r.File); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	if err := common.ValidateArgument("action", r.Action); err != nil {
		return err
	}
	if r.Out != nil {
		if err := common.ValidateFilePath(*r.Out); err != nil {
			return fmt.Errorf("out: %w", err)
		}
	}
	return nil
}

// TabularArgs builds: script --action A --file F [--params P] [--out O].
func (f *Facade) TabularArgs(req TabularRequest) []string {
	args := []string{
		f.ScriptPath(KindTabular),
		"--action", req.Action,
		"--file", req.File,
	}
	if req.Params != nil {
		args = append(args, "--params", *req.Params)
	}
	if req.Out != nil {
		args = append(args, "--out", *req.Out)
	}
	return args
}

// RunTabular runs a data-processing action and returns the script's output
// verbatim.
func (f *Facade) RunTabular(ctx context.Context, req TabularRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", invalidRequest(KindTabular, err)
	}
	return f.run(ctx, KindTabular, f.TabularArgs(req))
}
