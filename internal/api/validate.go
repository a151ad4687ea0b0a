package api

import (
	"fmt"
	"net/url"
	"strings"

	"cdsplan/internal/model"
	"cdsplan/internal/opt"
)

func validatePlanRequest(req *model.PlanRequest) error {
	if strings.TrimSpace(req.Manifest) == "" {
		return fmt.Errorf("manifest is required")
	}
	if err := validateOptimizerOptions(req.Optimizer); err != nil {
		return err
	}
	if req.CallbackURL != "" {
		if !req.Async {
			return fmt.Errorf("callbackUrl requires async")
		}
		u, err := url.Parse(req.CallbackURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("callbackUrl must be an absolute http(s) URL")
		}
	}
	return nil
}

func validateOptimizerOptions(o *model.OptimizerOptions) error {
	if o == nil {
		return nil
	}
	if o.PopulationSize < 0 || o.Generations < 0 || o.TournamentSize < 0 {
		return fmt.Errorf("populationSize, generations and tournamentSize must be >= 0")
	}
	if o.TimeBudgetMs < 0 {
		return fmt.Errorf("timeBudgetMs must be >= 0")
	}
	for name, p := range map[string]float64{"crossoverProb": o.CrossoverProb, "mutationProb": o.MutationProb, "indexProb": o.IndexProb} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0,1]", name)
		}
	}
	if o.Objectives != nil {
		allowed := map[string]struct{}{opt.ObjWeight: {}, opt.ObjFootprint: {}, opt.ObjImbalance: {}}
		for k, v := range o.Objectives {
			if v < 0 {
				return fmt.Errorf("objective %s must be >= 0", k)
			}
			if _, ok := allowed[k]; !ok {
				return fmt.Errorf("unknown objective key: %s (allowed: weight,footprint,imbalance)", k)
			}
		}
	}
	return nil
}
