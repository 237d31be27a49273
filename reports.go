package epiabm

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// incidenceKey groups one incidence-report tally bucket.
type incidenceKey struct {
	Age   int
	Event string
}

// CSVReportWriter writes the four §6 output reports as comma-delimited
// files with header rows: build each row in a buffer, then append it
// to the target file.
type CSVReportWriter struct {
	transmissionPath string
	prevalencePath   string
	incidencePath    string
	hospitalPath     string

	incidenceCounts map[incidenceKey]int
}

// NewCSVReportWriter returns a writer for the given report paths; pass
// "" for any report the configuration left unnamed to skip it.
func NewCSVReportWriter(transmissionPath, prevalencePath, incidencePath, hospitalPath string) *CSVReportWriter {
	return &CSVReportWriter{
		transmissionPath: transmissionPath,
		prevalencePath:   prevalencePath,
		incidencePath:    incidencePath,
		hospitalPath:     hospitalPath,
		incidenceCounts:  make(map[incidenceKey]int),
	}
}

// Init truncates and writes the header row of every configured report.
func (w *CSVReportWriter) Init() error {
	headers := map[string]string{
		w.transmissionPath: "time,target_id,infected_by,infection_setting_type,infection_setting_id\n",
		w.prevalencePath:   "t,age,symptoms,infection_status,hospitalized,count\n",
		w.incidencePath:    "t,age,event,count\n",
		w.hospitalPath:     "time,person_id,age\n",
	}
	for path, header := range headers {
		if path == "" {
			continue
		}
		if err := os.WriteFile(path, []byte(header), 0644); err != nil {
			return errors.Wrapf(err, "initializing report %s", path)
		}
	}
	return nil
}

func appendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(b)
	return err
}

// Attach wires the writer into ctx: transmissions and hospital
// admissions are written as they happen; prevalence and incidence are
// flushed every reportPeriod simulation time units (Last phase, so a
// flush always sees the full set of transitions that occurred at the
// same instant).
func (w *CSVReportWriter) Attach(ctx *Context, forecaster *Forecaster, hospitalization *HospitalizationManager, reportPeriod float64) {
	if w.transmissionPath != "" && forecaster != nil {
		forecaster.Observe(func(ctx *Context, target, infectedBy PersonID, setting SettingKey) {
			row := fmt.Sprintf("%f,%d,%d,%s,%d\n", ctx.Scheduler.Now(), target, infectedBy, setting.Type, setting.ID)
			_ = appendToFile(w.transmissionPath, []byte(row))
		})
	}
	if w.hospitalPath != "" && hospitalization != nil {
		hospitalization.Observe(func(ctx *Context, p PersonID, age int, time float64) {
			row := fmt.Sprintf("%f,%d,%d\n", time, p, age)
			_ = appendToFile(w.hospitalPath, []byte(row))
		})
	}

	ctx.Bus.SubscribePropertyChange(func(event PropertyChangeEvent) {
		age := w.ageOf(ctx, event.Person)
		switch event.Property {
		case InfectionStatusProperty:
			if status, ok := event.Current.(InfectionStatus); ok && (status == Infectious || status == Recovered) {
				w.incidenceCounts[incidenceKey{Age: age, Event: status.String()}]++
			}
		case SymptomCategoryProperty:
			if cat, ok := event.Current.(SymptomCategory); ok && cat != NoSymptoms {
				w.incidenceCounts[incidenceKey{Age: age, Event: cat.String()}]++
			}
		case HospitalizedProperty:
			if hosp, ok := event.Current.(bool); ok && hosp {
				w.incidenceCounts[incidenceKey{Age: age, Event: "Hospitalized"}]++
			}
		}
	})

	if w.prevalencePath != "" || w.incidencePath != "" {
		ctx.Scheduler.AddPeriodic(Last, reportPeriod, func(ctx *Context) {
			w.flush(ctx)
		})
	}
}

func (w *CSVReportWriter) ageOf(ctx *Context, p PersonID) int {
	v, err := ctx.People.Get(p, AgeProperty)
	if err != nil {
		return -1
	}
	age, _ := v.(int)
	return age
}

func (w *CSVReportWriter) flush(ctx *Context) {
	now := ctx.Scheduler.Now()
	if w.prevalencePath != "" {
		var buf bytes.Buffer
		for _, tab := range ctx.People.Tabulate([]PropertyType{AgeProperty, SymptomCategoryProperty, InfectionStatusProperty, HospitalizedProperty}) {
			age, _ := tab.Key[0].(int)
			symptoms, _ := tab.Key[1].(SymptomCategory)
			status, _ := tab.Key[2].(InfectionStatus)
			hospitalized, _ := tab.Key[3].(bool)
			buf.WriteString(fmt.Sprintf("%f,%d,%s,%s,%t,%d\n", now, age, symptoms, status, hospitalized, len(tab.People)))
		}
		_ = appendToFile(w.prevalencePath, buf.Bytes())
	}
	if w.incidencePath != "" {
		var buf bytes.Buffer
		for key, count := range w.incidenceCounts {
			buf.WriteString(fmt.Sprintf("%f,%d,%s,%d\n", now, key.Age, key.Event, count))
		}
		_ = appendToFile(w.incidencePath, buf.Bytes())
		w.incidenceCounts = make(map[incidenceKey]int)
	}
}
