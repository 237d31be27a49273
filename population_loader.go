package epiabm

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadPopulation reads a synthetic-population CSV (header
// age,homeId,schoolId,workplaceId) and creates one person per data row,
// with a base itinerary over Home, CensusTract, and (if non-empty)
// School/Workplace, per §6. homeId's first 11 characters are the
// person's census tract.
func LoadPopulation(ctx *Context, path string, itinerarySpec map[SettingType]SettingPropertiesConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening population file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return errors.Wrapf(err, "reading header of %s", path)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"age", "homeId", "schoolId", "workplaceId"} {
		if _, ok := col[required]; !ok {
			return errors.Errorf("population file %s missing column %q", path, required)
		}
	}

	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s line %d", path, lineNum)
		}
		lineNum++
		if err := addPersonFromRecord(ctx, record, col, itinerarySpec); err != nil {
			return errors.Wrapf(err, "%s line %d", path, lineNum)
		}
	}
	return nil
}

func addPersonFromRecord(ctx *Context, record []string, col map[string]int, itinerarySpec map[SettingType]SettingPropertiesConfig) error {
	age, err := strconv.Atoi(record[col["age"]])
	if err != nil {
		return errors.Wrap(err, "parsing age")
	}
	homeIDStr := record[col["homeId"]]
	if len(homeIDStr) < 11 {
		return errors.Errorf("homeId %q shorter than 11 characters, cannot derive census tract", homeIDStr)
	}
	tractStr := homeIDStr[:11]

	p, err := ctx.People.AddPerson(
		Initializer{Property: AgeProperty, Value: age},
		Initializer{Property: AliveProperty, Value: true},
		Initializer{Property: InfectionStatusProperty, Value: Susceptible},
	)
	if err != nil {
		return errors.Wrap(err, "creating person")
	}

	ratio := func(t SettingType) float64 {
		if sp, ok := itinerarySpec[t]; ok && sp.ItinerarySpecification.Constant != nil {
			return sp.ItinerarySpecification.Constant.Ratio
		}
		return 1.0
	}

	homeID, err := strconv.Atoi(homeIDStr)
	if err != nil {
		return errors.Wrap(err, "parsing homeId")
	}
	tractID, err := strconv.Atoi(tractStr)
	if err != nil {
		return errors.Wrap(err, "parsing census tract from homeId")
	}
	entries := []ItineraryEntry{
		{Setting: SettingKey{Type: Home, ID: homeID}, Weight: ratio(Home)},
		{Setting: SettingKey{Type: CensusTract, ID: tractID}, Weight: ratio(CensusTract)},
	}

	if schoolStr := record[col["schoolId"]]; schoolStr != "" {
		schoolID, err := strconv.Atoi(schoolStr)
		if err != nil {
			return errors.Wrap(err, "parsing schoolId")
		}
		entries = append(entries, ItineraryEntry{Setting: SettingKey{Type: School, ID: schoolID}, Weight: ratio(School)})
	}
	if workplaceStr := record[col["workplaceId"]]; workplaceStr != "" {
		workplaceID, err := strconv.Atoi(workplaceStr)
		if err != nil {
			return errors.Wrap(err, "parsing workplaceId")
		}
		entries = append(entries, ItineraryEntry{Setting: SettingKey{Type: Workplace, ID: workplaceID}, Weight: ratio(Workplace)})
	}

	return ctx.Settings.AddItinerary(p, entries)
}

// readRateFnCSV reads a two-column, headerless CSV of (time, value)
// pairs used by EmpiricalFromFile rate-function configuration entries.
func readRateFnCSV(path string) (times, values []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening rate function file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s line %d", path, lineNum)
		}
		lineNum++
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s line %d: parsing time", path, lineNum)
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "%s line %d: parsing value", path, lineNum)
		}
		times = append(times, t)
		values = append(values, v)
	}
	return times, values, nil
}
