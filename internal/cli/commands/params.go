package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/pkg/params"
)

// addParamFlags registers --params and --set on cmd.
func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("params", "p", nil, "YAML or JSON file with parameter values (repeatable)")
	cmd.Flags().StringArrayP("set", "s", nil, "Set a parameter value, e.g. pmb.memberId=3 (repeatable)")
}

// paramsFromFlags builds the parameter context from --params files, then
// --set assignments. Later sources win.
func paramsFromFlags(cmd *cobra.Command) (params.Map, error) {
	files, err := cmd.Flags().GetStringArray("params")
	if err != nil {
		return nil, err
	}
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return nil, err
	}

	pc := params.Map{}
	for _, path := range files {
		m, err := params.FromFile(path)
		if err != nil {
			return nil, err
		}
		pc.Merge(m)
	}
	for _, s := range sets {
		key, value, err := params.ParseAssignment(s)
		if err != nil {
			return nil, err
		}
		if err := pc.Set(key, value); err != nil {
			return nil, fmt.Errorf("--set %s: %w", s, err)
		}
	}
	return pc, nil
}
