package epiabm

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ConstantRateFnConfig configures a ConstantRateFn.
type ConstantRateFnConfig struct {
	Rate     float64 `json:"rate"`
	Duration float64 `json:"duration"`
}

// EmpiricalRateFnConfig points at a CSV of (time, value) pairs for an
// EmpiricalRateFn, optionally rescaled by Scale (default 1.0).
type EmpiricalRateFnConfig struct {
	File  string   `json:"file"`
	Scale *float64 `json:"scale,omitempty"`
}

// RateFnConfig is the externally-tagged `infectiousness_rate_fn` /
// `symptom_progression_library` union from §6: exactly one of Constant
// or EmpiricalFromFile must be set.
type RateFnConfig struct {
	Constant          *ConstantRateFnConfig  `json:"Constant,omitempty"`
	EmpiricalFromFile *EmpiricalRateFnConfig `json:"EmpiricalFromFile,omitempty"`
}

func (c *RateFnConfig) Validate(field string) error {
	if c == nil {
		return nil
	}
	switch {
	case c.Constant != nil && c.EmpiricalFromFile != nil:
		return errors.Errorf("%s must set exactly one of Constant or EmpiricalFromFile", field)
	case c.Constant != nil:
		if c.Constant.Duration < 0 {
			return errors.Errorf(InvalidFloatParameterError, field+".Constant.duration", c.Constant.Duration, "must be >= 0")
		}
		if c.Constant.Rate < 0 {
			return errors.Errorf(InvalidFloatParameterError, field+".Constant.rate", c.Constant.Rate, "must be >= 0")
		}
	case c.EmpiricalFromFile != nil:
		if c.EmpiricalFromFile.File == "" {
			return errors.Errorf("%s.EmpiricalFromFile.file must not be empty", field)
		}
		if field == "symptom_progression_library" {
			_, values, err := readRateFnCSV(c.EmpiricalFromFile.File)
			if err != nil {
				return errors.Wrapf(err, "validating %s", field)
			}
			if len(values) > 0 && values[0] >= 1 {
				return errors.Errorf(InvalidFloatParameterError, field+".EmpiricalFromFile starting value", values[0], "empirical CDF must start below 1")
			}
		}
	default:
		return errors.Errorf("%s must set Constant or EmpiricalFromFile", field)
	}
	return nil
}

// Build materializes the configured RateFn, reading the CSV referenced
// by EmpiricalFromFile (two columns, no header: time,value) if set.
func (c *RateFnConfig) Build() (RateFn, error) {
	switch {
	case c.Constant != nil:
		return NewConstantRateFn(c.Constant.Rate, c.Constant.Duration), nil
	case c.EmpiricalFromFile != nil:
		times, values, err := readRateFnCSV(c.EmpiricalFromFile.File)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s", c.EmpiricalFromFile.File)
		}
		scale := 1.0
		if c.EmpiricalFromFile.Scale != nil {
			scale = *c.EmpiricalFromFile.Scale
		}
		if scale != 1.0 {
			for i := range values {
				values[i] *= scale
			}
		}
		return NewEmpiricalRateFn(times, values)
	}
	return nil, errors.Errorf("empty rate function configuration")
}

// AgeGroupConfig is one `{min, probability}` bucket of the
// hospitalization age-risk ladder.
type AgeGroupConfig struct {
	Min         float64 `json:"min"`
	Probability float64 `json:"probability"`
}

// HospitalizationParametersConfig configures age-stratified
// hospitalization risk and delay/duration distributions, per §6 and the
// original_source hospitalization supplement.
type HospitalizationParametersConfig struct {
	AgeGroups                     []AgeGroupConfig `json:"age_groups"`
	MeanDelayToHospitalization     float64          `json:"mean_delay_to_hospitalization"`
	MeanDurationOfHospitalization  float64          `json:"mean_duration_of_hospitalization"`
	HospitalIncidenceReportName    string           `json:"hospital_incidence_report_name"`
}

func (c *HospitalizationParametersConfig) Validate() error {
	if len(c.AgeGroups) == 0 {
		return errors.New("hospitalization_parameters.age_groups must not be empty")
	}
	for i, g := range c.AgeGroups {
		if g.Probability < 0 || g.Probability > 1 {
			return errors.Errorf(InvalidFloatParameterError, "hospitalization_parameters.age_groups[].probability", g.Probability, "must be within [0,1]")
		}
		if i > 0 && g.Min <= c.AgeGroups[i-1].Min {
			return errors.New("hospitalization_parameters.age_groups must be strictly increasing by min")
		}
	}
	if c.MeanDelayToHospitalization < 0 {
		return errors.Errorf(InvalidFloatParameterError, "hospitalization_parameters.mean_delay_to_hospitalization", c.MeanDelayToHospitalization, "must be >= 0")
	}
	if c.MeanDurationOfHospitalization < 0 {
		return errors.Errorf(InvalidFloatParameterError, "hospitalization_parameters.mean_duration_of_hospitalization", c.MeanDurationOfHospitalization, "must be >= 0")
	}
	return nil
}

// UpdatedIsolationGuidanceConfig configures the §8 scenario-6 guidance
// policy: reaching Category2 restricts the person to Home until their
// symptoms resolve, with isolation_probability chance of adherence and
// isolation_delay_period delay before it takes effect; after symptoms
// resolve the person masks for post_isolation_duration.
type UpdatedIsolationGuidanceConfig struct {
	PostIsolationDuration float64 `json:"post_isolation_duration"`
	IsolationProbability  float64 `json:"isolation_probability"`
	IsolationDelayPeriod  float64 `json:"isolation_delay_period"`
}

// GuidancePolicyConfig is the externally-tagged `guidance_policy` union;
// nil means no isolation guidance is active.
type GuidancePolicyConfig struct {
	UpdatedIsolationGuidance *UpdatedIsolationGuidanceConfig `json:"UpdatedIsolationGuidance,omitempty"`
}

func (c *GuidancePolicyConfig) Validate() error {
	if c == nil || c.UpdatedIsolationGuidance == nil {
		return nil
	}
	g := c.UpdatedIsolationGuidance
	if g.PostIsolationDuration < 0 {
		return errors.Errorf(InvalidFloatParameterError, "guidance_policy.post_isolation_duration", g.PostIsolationDuration, "must be >= 0")
	}
	if g.IsolationProbability < 0 || g.IsolationProbability > 1 {
		return errors.Errorf(InvalidFloatParameterError, "guidance_policy.isolation_probability", g.IsolationProbability, "must be within [0,1]")
	}
	if g.IsolationDelayPeriod < 0 {
		return errors.Errorf(InvalidFloatParameterError, "guidance_policy.isolation_delay_period", g.IsolationDelayPeriod, "must be >= 0")
	}
	return nil
}

// FacemaskParametersConfig configures the facemask transmission
// modifier; nil means facemasks are not modeled.
type FacemaskParametersConfig struct {
	FacemaskEfficacy float64 `json:"facemask_efficacy"`
}

func (c *FacemaskParametersConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.FacemaskEfficacy < 0 || c.FacemaskEfficacy > 1 {
		return errors.Errorf(InvalidFloatParameterError, "facemask_parameters.facemask_efficacy", c.FacemaskEfficacy, "must be within [0,1]")
	}
	return nil
}

// ItinerarySpecConfig configures how membership weight is derived for a
// setting type; Constant.Ratio is the weight shared equally by every
// member of a person's itinerary for that type.
type ItinerarySpecConfig struct {
	Constant *struct {
		Ratio float64 `json:"ratio"`
	} `json:"Constant,omitempty"`
}

// SettingPropertiesConfig is one entry of `settings_properties`: the
// alpha exponent and itinerary weighting rule for a SettingType.
type SettingPropertiesConfig struct {
	Alpha                  float64             `json:"alpha"`
	ItinerarySpecification ItinerarySpecConfig `json:"itinerary_specification"`
}

// Parameters is the top-level `--config` JSON document (§6).
type Parameters struct {
	MaxTime                             float64                             `json:"max_time"`
	Seed                                uint64                              `json:"seed"`
	InitialIncidence                    float64                             `json:"initial_incidence"`
	InitialRecovered                    float64                             `json:"initial_recovered"`
	ProportionAsymptomatic              float64                             `json:"proportion_asymptomatic"`
	RelativeInfectiousnessAsymptomatics float64                             `json:"relative_infectiousness_asymptomatics"`
	ReportPeriod                        float64                             `json:"report_period"`
	InfectiousnessRateFn                RateFnConfig                        `json:"infectiousness_rate_fn"`
	SymptomProgressionLibrary           *RateFnConfig                       `json:"symptom_progression_library"`
	SettingsProperties                  map[SettingType]SettingPropertiesConfig `json:"settings_properties"`
	HospitalizationParameters           HospitalizationParametersConfig     `json:"hospitalization_parameters"`
	GuidancePolicy                      *GuidancePolicyConfig               `json:"guidance_policy"`
	FacemaskParameters                  *FacemaskParametersConfig           `json:"facemask_parameters,omitempty"`
	TransmissionReportName              string                              `json:"transmission_report_name,omitempty"`
	PrevalenceReportName                string                              `json:"prevalence_report_name,omitempty"`
	IncidenceReportName                 string                              `json:"incidence_report_name,omitempty"`

	PopulationCSVPath string `json:"population_csv_path"`
}

// LoadParameters reads and validates the global parameters document at
// path.
func LoadParameters(path string) (*Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var params Parameters
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := params.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating config %s", path)
	}
	return &params, nil
}

// Validate checks every field against §6/§7's range and shape rules.
func (p *Parameters) Validate() error {
	if p.MaxTime <= 0 {
		return errors.Errorf(InvalidFloatParameterError, "max_time", p.MaxTime, "must be > 0")
	}
	if err := fraction("initial_incidence", p.InitialIncidence); err != nil {
		return err
	}
	if err := fraction("initial_recovered", p.InitialRecovered); err != nil {
		return err
	}
	if p.InitialIncidence+p.InitialRecovered > 1 {
		return errors.New("initial_incidence + initial_recovered must not exceed 1")
	}
	if err := fraction("proportion_asymptomatic", p.ProportionAsymptomatic); err != nil {
		return err
	}
	if p.RelativeInfectiousnessAsymptomatics < 0 {
		return errors.Errorf(InvalidFloatParameterError, "relative_infectiousness_asymptomatics", p.RelativeInfectiousnessAsymptomatics, "must be >= 0")
	}
	if p.ReportPeriod <= 0 {
		return errors.Errorf(InvalidFloatParameterError, "report_period", p.ReportPeriod, "must be > 0")
	}
	if err := p.InfectiousnessRateFn.Validate("infectiousness_rate_fn"); err != nil {
		return err
	}
	if err := p.SymptomProgressionLibrary.Validate("symptom_progression_library"); err != nil {
		return err
	}
	for t, sp := range p.SettingsProperties {
		if t == "" {
			return errors.Errorf(InvalidStringParameterError, "settings_properties key", string(t), "must not be empty")
		}
		if sp.Alpha < 0 {
			return errors.Errorf(InvalidFloatParameterError, "settings_properties["+string(t)+"].alpha", sp.Alpha, "must be >= 0")
		}
		if sp.ItinerarySpecification.Constant == nil {
			return errors.Errorf("settings_properties[%s].itinerary_specification must set Constant", t)
		}
	}
	if err := p.HospitalizationParameters.Validate(); err != nil {
		return err
	}
	if err := p.GuidancePolicy.Validate(); err != nil {
		return err
	}
	if err := p.FacemaskParameters.Validate(); err != nil {
		return err
	}
	return nil
}

func fraction(field string, v float64) error {
	if v < 0 || v > 1 {
		return errors.Errorf(InvalidFloatParameterError, field, v, "must be within [0,1]")
	}
	return nil
}
