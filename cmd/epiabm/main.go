package main

import (
	"flag"
	"log"
	"os"

	epiabm "github.com/kentwait/epi-isolation"
)

func main() {
	configPath := flag.String("config", "", "path to the global parameters JSON file")
	loggerType := flag.String("logger", "csv", "report writer type (csv|sqlite)")
	flag.Parse()

	if *configPath == "" {
		log.Println("missing required --config <json path>")
		os.Exit(1)
	}

	if os.Getenv("EPIABM_LOG_LEVEL") == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	if err := run(*configPath, *loggerType); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(configPath, loggerType string) error {
	params, err := epiabm.LoadParameters(configPath)
	if err != nil {
		return err
	}

	ctx := epiabm.NewContext(params)

	for settingType, sp := range params.SettingsProperties {
		ctx.Settings.RegisterSettingType(settingType, epiabm.SettingTypeParams{Alpha: sp.Alpha})
	}
	if err := epiabm.LoadPopulation(ctx, params.PopulationCSVPath, params.SettingsProperties); err != nil {
		return err
	}

	infectiousnessRateFn, err := params.InfectiousnessRateFn.Build()
	if err != nil {
		return err
	}
	forecaster := epiabm.NewForecaster(
		[]epiabm.RateFn{infectiousnessRateFn},
		epiabm.Constraint{Property: epiabm.AliveProperty, Value: true},
	)
	ctx.SetForecaster(forecaster)
	epiabm.ImmunityTracker{}.Attach(ctx)

	var hospitalization *epiabm.HospitalizationManager
	if len(params.HospitalizationParameters.AgeGroups) > 0 {
		groups := make([]epiabm.HospitalAgeGroup, len(params.HospitalizationParameters.AgeGroups))
		for i, g := range params.HospitalizationParameters.AgeGroups {
			groups[i] = epiabm.HospitalAgeGroup{Min: g.Min, Probability: g.Probability}
		}
		hospitalization = epiabm.NewHospitalizationManager(
			groups,
			params.HospitalizationParameters.MeanDelayToHospitalization,
			params.HospitalizationParameters.MeanDurationOfHospitalization,
		)
		hospitalization.Attach(ctx)
	}

	if params.SymptomProgressionLibrary != nil {
		symptomRateFn, err := params.SymptomProgressionLibrary.Build()
		if err != nil {
			return err
		}
		symptoms := epiabm.NewSymptomManager(ctx, []epiabm.RateFn{symptomRateFn}, params.ProportionAsymptomatic, params.RelativeInfectiousnessAsymptomatics)
		symptoms.Attach(ctx)
	}

	if params.GuidancePolicy != nil && params.GuidancePolicy.UpdatedIsolationGuidance != nil {
		g := params.GuidancePolicy.UpdatedIsolationGuidance
		guidance := &epiabm.UpdatedIsolationGuidance{
			IsolationProbability:  g.IsolationProbability,
			IsolationDelayPeriod:  g.IsolationDelayPeriod,
			PostIsolationDuration: g.PostIsolationDuration,
		}
		guidance.Attach(ctx)
	}

	if params.FacemaskParameters != nil {
		if err := epiabm.RegisterFacemaskModifier(ctx, params.FacemaskParameters.FacemaskEfficacy); err != nil {
			return err
		}
	}

	if loggerType != "csv" && loggerType != "sqlite" {
		log.Printf("%s is not a valid logger type (csv|sqlite), using csv\n", loggerType)
		loggerType = "csv"
	}
	switch loggerType {
	case "csv":
		writer := epiabm.NewCSVReportWriter(
			params.TransmissionReportName,
			params.PrevalenceReportName,
			params.IncidenceReportName,
			params.HospitalizationParameters.HospitalIncidenceReportName,
		)
		if err := writer.Init(); err != nil {
			return err
		}
		writer.Attach(ctx, forecaster, hospitalization, params.ReportPeriod)
	case "sqlite":
		writer, err := epiabm.NewSQLiteReportWriter(params.TransmissionReportName)
		if err != nil {
			return err
		}
		defer writer.Close()
		writer.Attach(ctx, forecaster, hospitalization, params.ReportPeriod)
	}

	epiabm.SeedInfections(ctx, params.InitialIncidence, params.InitialRecovered)
	ctx.Run()
	return nil
}
