package epiabm

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteReportWriter is the alternate report backend, writing the same
// four reports as CSVReportWriter into tables of a single SQLite
// database, preparing each insert statement once and reusing it per row.
type SQLiteReportWriter struct {
	db *sql.DB

	transmission *sql.Stmt
	prevalence   *sql.Stmt
	incidence    *sql.Stmt
	hospital     *sql.Stmt

	incidenceCounts map[incidenceKey]int
}

// NewSQLiteReportWriter opens (creating if absent) the database at path
// and creates its report tables.
func NewSQLiteReportWriter(path string) (*SQLiteReportWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite report database %s", path)
	}
	schema := []string{
		`create table if not exists transmission (time real, target_id integer, infected_by integer, infection_setting_type text, infection_setting_id integer)`,
		`create table if not exists prevalence (t real, age integer, symptoms text, infection_status text, hospitalized integer, count integer)`,
		`create table if not exists incidence (t real, age integer, event text, count integer)`,
		`create table if not exists hospital_incidence (time real, person_id integer, age integer)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "creating report schema in %s", path)
		}
	}

	w := &SQLiteReportWriter{db: db, incidenceCounts: make(map[incidenceKey]int)}
	var err2 error
	if w.transmission, err2 = db.Prepare(`insert into transmission values (?, ?, ?, ?, ?)`); err2 != nil {
		db.Close()
		return nil, errors.Wrap(err2, "preparing transmission insert")
	}
	if w.prevalence, err2 = db.Prepare(`insert into prevalence values (?, ?, ?, ?, ?, ?)`); err2 != nil {
		db.Close()
		return nil, errors.Wrap(err2, "preparing prevalence insert")
	}
	if w.incidence, err2 = db.Prepare(`insert into incidence values (?, ?, ?, ?)`); err2 != nil {
		db.Close()
		return nil, errors.Wrap(err2, "preparing incidence insert")
	}
	if w.hospital, err2 = db.Prepare(`insert into hospital_incidence values (?, ?, ?)`); err2 != nil {
		db.Close()
		return nil, errors.Wrap(err2, "preparing hospital incidence insert")
	}
	return w, nil
}

// Close releases the prepared statements and the underlying connection.
func (w *SQLiteReportWriter) Close() error {
	w.transmission.Close()
	w.prevalence.Close()
	w.incidence.Close()
	w.hospital.Close()
	return w.db.Close()
}

// Attach mirrors CSVReportWriter.Attach, writing rows into SQLite
// instead of CSV files.
func (w *SQLiteReportWriter) Attach(ctx *Context, forecaster *Forecaster, hospitalization *HospitalizationManager, reportPeriod float64) {
	if forecaster != nil {
		forecaster.Observe(func(ctx *Context, target, infectedBy PersonID, setting SettingKey) {
			_, _ = w.transmission.Exec(ctx.Scheduler.Now(), int(target), int(infectedBy), string(setting.Type), setting.ID)
		})
	}
	if hospitalization != nil {
		hospitalization.Observe(func(ctx *Context, p PersonID, age int, time float64) {
			_, _ = w.hospital.Exec(time, int(p), age)
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

	ctx.Scheduler.AddPeriodic(Last, reportPeriod, func(ctx *Context) {
		w.flush(ctx)
	})
}

func (w *SQLiteReportWriter) ageOf(ctx *Context, p PersonID) int {
	v, err := ctx.People.Get(p, AgeProperty)
	if err != nil {
		return -1
	}
	age, _ := v.(int)
	return age
}

func (w *SQLiteReportWriter) flush(ctx *Context) {
	now := ctx.Scheduler.Now()
	for _, tab := range ctx.People.Tabulate([]PropertyType{AgeProperty, SymptomCategoryProperty, InfectionStatusProperty, HospitalizedProperty}) {
		age, _ := tab.Key[0].(int)
		symptoms, _ := tab.Key[1].(SymptomCategory)
		status, _ := tab.Key[2].(InfectionStatus)
		hospitalized, _ := tab.Key[3].(bool)
		_, _ = w.prevalence.Exec(now, age, symptoms.String(), status.String(), hospitalized, len(tab.People))
	}
	for key, count := range w.incidenceCounts {
		_, _ = w.incidence.Exec(now, key.Age, key.Event, count)
	}
	w.incidenceCounts = make(map[incidenceKey]int)
}
