// Command epiflatten loads a run's CSV reports into a single SQLite
// database, for post-hoc querying without rerunning the simulation.
package main

import (
	"bufio"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var tableSchema = map[string]string{
	"transmission":       "(id integer not null primary key, time real, target_id integer, infected_by integer, infection_setting_type text, infection_setting_id integer)",
	"prevalence":         "(id integer not null primary key, t real, age integer, symptoms text, infection_status text, hospitalized integer, count integer)",
	"incidence":          "(id integer not null primary key, t real, age integer, event text, count integer)",
	"hospital_incidence": "(id integer not null primary key, time real, person_id integer, age integer)",
}

var tableColumnCount = map[string]int{
	"transmission":       5,
	"prevalence":         6,
	"incidence":          4,
	"hospital_incidence": 3,
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "location of the sqlite3 file to create (required)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("a report directory was not specified")
		flag.Usage()
		os.Exit(1)
	}
	if outPath == "" {
		fmt.Println("-out was not specified")
		flag.Usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite3", outPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	startTime := time.Now()
	fileCounter := 0
	for _, reportDir := range flag.Args() {
		dir := filepath.Clean(reportDir)
		for table := range tableSchema {
			path := filepath.Join(dir, table+".csv")
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := loadReport(db, table, path); err != nil {
				log.Fatalf("%s: %v", path, err)
			}
			fmt.Println(path, "loaded.")
			fileCounter++
		}
	}

	if fileCounter == 0 {
		fmt.Println("no report CSVs found in the given directories")
	}
	fmt.Printf("Finished. Loaded %d files in %v\n", fileCounter, time.Since(startTime))
}

func loadReport(db *sql.DB, table, path string) error {
	createStmt := fmt.Sprintf("create table if not exists %s %s;", table, tableSchema[table])
	if _, err := db.Exec(createStmt); err != nil {
		return fmt.Errorf("%q: %s", err, createStmt)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", tableColumnCount[table]), ",")
	insertStmt := fmt.Sprintf("insert into %s (%s) values (%s)", table, dataColumns(table), placeholders)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		return err
	}
	defer stmt.Close()

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // header row
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		values := make([]interface{}, len(fields))
		for i, v := range fields {
			values[i] = v
		}
		if _, err := stmt.Exec(values...); err != nil {
			tx.Rollback()
			return fmt.Errorf("%v: %q", err, line)
		}
	}
	if err := scanner.Err(); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func dataColumns(table string) string {
	switch table {
	case "transmission":
		return "time, target_id, infected_by, infection_setting_type, infection_setting_id"
	case "prevalence":
		return "t, age, symptoms, infection_status, hospitalized, count"
	case "incidence":
		return "t, age, event, count"
	case "hospital_incidence":
		return "time, person_id, age"
	}
	return ""
}
